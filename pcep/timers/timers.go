/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package timers provides the soft one-shot timers driving the PCEP session
state machine: KeepAlive, DeadTimer, OpenKeepWait and PCReqWait.

Timers have whole-second resolution and fire from a single dedicated
goroutine. The expire handler must not block: session code posts an event to
its own queue and returns.
*/
package timers

import (
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// tick is the poll quantum of the expiry loop. Granularity of timer
// delivery is one tick, well under the one second timer resolution.
const tick = 250 * time.Millisecond

// ExpireHandler is invoked on the timer goroutine for every expired timer
type ExpireHandler func(data interface{}, id int32)

// ErrNotRunning is returned when timers are created before Start or after Stop
var ErrNotRunning = errors.New("timer service is not running")

type timer struct {
	id      int32
	seconds int
	expire  time.Time
	// seq breaks expiry ties in creation order
	seq  uint64
	data interface{}
}

// Service schedules one-shot timers identified by monotonically issued
// int32 ids that wrap at MaxInt32
type Service struct {
	mu      sync.Mutex
	active  bool
	handler ExpireHandler
	// ordered by (expire, seq), earliest first
	ordered []*timer
	byID    map[int32]*timer
	nextID  int32
	nextSeq uint64
	done    chan struct{}
	stopped sync.WaitGroup
}

// NewService creates a stopped timer service
func NewService() *Service {
	return &Service{byID: make(map[int32]*timer)}
}

// Start launches the expiry goroutine. Starting an already running service
// is a no-op.
func (s *Service) Start(handler ExpireHandler) error {
	if handler == nil {
		return errors.New("timer expire handler must not be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return nil
	}
	s.active = true
	s.handler = handler
	s.done = make(chan struct{})
	s.stopped.Add(1)
	go s.run(s.done)
	return nil
}

// Stop terminates the expiry goroutine and frees all outstanding timers
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	close(s.done)
	s.ordered = nil
	s.byID = make(map[int32]*timer)
	s.mu.Unlock()
	s.stopped.Wait()
}

// CreateTimer schedules a one-shot timer seconds from now and returns its id
func (s *Service) CreateTimer(seconds int, data interface{}) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return 0, ErrNotRunning
	}
	t := &timer{
		id:      s.allocateID(),
		seconds: seconds,
		expire:  time.Now().Add(time.Duration(seconds) * time.Second),
		seq:     s.nextSeq,
		data:    data,
	}
	s.nextSeq++
	s.byID[t.id] = t
	s.insert(t)
	return t.id, nil
}

// CancelTimer removes a pending timer. It returns false if the id already
// expired, was already cancelled, or never existed.
func (s *Service) CancelTimer(id int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok {
		return false
	}
	delete(s.byID, id)
	s.remove(t)
	return true
}

// ResetTimer reschedules a pending timer for its original duration from
// now, preserving id and user data. The removal and re-insert happen under
// one lock acquisition.
func (s *Service) ResetTimer(id int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok {
		return false
	}
	s.remove(t)
	t.expire = time.Now().Add(time.Duration(t.seconds) * time.Second)
	t.seq = s.nextSeq
	s.nextSeq++
	s.insert(t)
	return true
}

// allocateID issues the next timer id, wrapping at MaxInt32.
// Ids still pending after a wrap are skipped. Caller holds the lock.
func (s *Service) allocateID() int32 {
	for {
		if s.nextID == math.MaxInt32 {
			log.Warningf("timer id wrapped at %d", s.nextID)
			s.nextID = 0
		}
		s.nextID++
		if _, busy := s.byID[s.nextID]; !busy {
			return s.nextID
		}
	}
}

// insert places t in expiry order. Caller holds the lock.
func (s *Service) insert(t *timer) {
	i := sort.Search(len(s.ordered), func(i int) bool {
		o := s.ordered[i]
		if !o.expire.Equal(t.expire) {
			return o.expire.After(t.expire)
		}
		return o.seq > t.seq
	})
	s.ordered = append(s.ordered, nil)
	copy(s.ordered[i+1:], s.ordered[i:])
	s.ordered[i] = t
}

// remove drops t from the ordered list. Caller holds the lock.
func (s *Service) remove(t *timer) {
	for i, o := range s.ordered {
		if o == t {
			s.ordered = append(s.ordered[:i], s.ordered[i+1:]...)
			return
		}
	}
}

func (s *Service) run(done chan struct{}) {
	defer s.stopped.Done()
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			s.expire(now)
		}
	}
}

// expire pops every timer due by now and invokes the handler for each,
// with the lock released
func (s *Service) expire(now time.Time) {
	s.mu.Lock()
	var due []*timer
	for len(s.ordered) > 0 && !s.ordered[0].expire.After(now) {
		t := s.ordered[0]
		s.ordered = s.ordered[1:]
		delete(s.byID, t.id)
		due = append(due, t)
	}
	handler := s.handler
	s.mu.Unlock()
	for _, t := range due {
		handler(t.data, t.id)
	}
}
