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
Package session implements the PCC side of PCEP sessions: the per-session
state machine, Open negotiation, the keepalive and dead-timer regime and
the correlation of PCReq messages with their PCRep responses.

The engine runs one loop goroutine consuming a FIFO event queue. Socket
reads and timer expirations post events into that queue; all state
transitions happen on the loop. The application consumes typed events from
Events and registers interest in responses with RegisterResponseMessage.
*/
package session

import (
	"errors"
	"fmt"
	"net"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/volta-networks/pcep/pcep/protocol"
	"github.com/volta-networks/pcep/pcep/socket"
	"github.com/volta-networks/pcep/pcep/stats"
	"github.com/volta-networks/pcep/pcep/timers"
)

// eventQueueDepth bounds both the internal and the application event queues
const eventQueueDepth = 256

// sendRetries is how many times a rejected transmit is retried before the
// session is torn down
const sendRetries = 3

// ErrNotRunning is returned by engine calls before Run or after Stop
var ErrNotRunning = errors.New("session engine is not running")

type eventKind int

const (
	evConnected eventKind = iota
	evMessage
	evDecodeError
	evSocketClosed
	evTimer
)

// event is the internal session event: a received message, a timer expiry
// or a socket notification
type event struct {
	kind    eventKind
	session *Session
	message *protocol.Message
	err     error
	timerID int32
}

// EventKind classifies application-facing events
type EventKind int

// application event kinds
const (
	// EventSessionUp fires when the Open handshake completes
	EventSessionUp EventKind = iota
	// EventMessage delivers a received message that is not consumed by the
	// state machine alone (PCRep, PCNtf, PCErr, Report)
	EventMessage
	// EventSessionClosed fires when a session terminates for any reason
	EventSessionClosed
	// EventError reports a local failure on the session
	EventError
)

// Event is what the application receives from Events
type Event struct {
	Kind    EventKind
	Session *Session
	Message *protocol.Message
	Err     error
}

// Engine owns the session set and drives every session state machine
type Engine struct {
	timers  *timers.Service
	sockets *socket.Service
	stats   stats.Stats

	mu            sync.Mutex
	active        bool
	sessions      map[int]*Session
	requests      map[uint32]*RequestResponse
	nextSessionID int

	events    chan *event
	appEvents chan *Event
	done      chan struct{}
	stopped   sync.WaitGroup
}

// NewEngine creates a stopped engine reporting into st; a nil st disables
// monitoring
func NewEngine(st stats.Stats) *Engine {
	if st == nil {
		st = stats.NewNopStats()
	}
	return &Engine{
		timers:   timers.NewService(),
		stats:    st,
		sessions: make(map[int]*Session),
		requests: make(map[uint32]*RequestResponse),
	}
}

// Run starts the timer service, the socket service and the engine loop.
// Running an active engine is a no-op.
func (e *Engine) Run() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active {
		return nil
	}
	e.events = make(chan *event, eventQueueDepth)
	e.appEvents = make(chan *Event, eventQueueDepth)
	e.done = make(chan struct{})
	if err := e.timers.Start(e.timerExpired); err != nil {
		return err
	}
	e.sockets = socket.NewService()
	e.active = true
	e.stopped.Add(1)
	go e.loop()
	return nil
}

// RunWaitForCompletion runs the engine and blocks until Stop is called
// from another goroutine
func (e *Engine) RunWaitForCompletion() error {
	if err := e.Run(); err != nil {
		return err
	}
	eg := errgroup.Group{}
	eg.Go(func() error {
		e.stopped.Wait()
		return nil
	})
	return eg.Wait()
}

// Stop drains the event queue and tears the services down, engine first,
// then sockets, then timers
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return
	}
	e.active = false
	close(e.done)
	e.mu.Unlock()
	e.stopped.Wait()
	e.sockets.Stop()
	e.timers.Stop()
}

// Events is the application-facing event stream
func (e *Engine) Events() <-chan *Event {
	return e.appEvents
}

// CreateSession connects to a PCE and starts the Open handshake.
// cfg nil means DefaultConfig.
func (e *Engine) CreateSession(cfg *Config, pceIP net.IP, port int) (*Session, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return nil, ErrNotRunning
	}
	e.nextSessionID++
	s := &Session{
		ID:          e.nextSessionID,
		engine:      e,
		state:       StateInitialized,
		LocalConfig: *cfg,
		pceIP:       pceIP,
		pcePort:     port,
	}
	e.sessions[s.ID] = s
	e.mu.Unlock()

	sock, err := e.sockets.NewSession(socket.SessionConfig{
		Dest:           pceIP,
		Port:           port,
		ConnectTimeout: cfg.ConnectTimeout,
		Callbacks: socket.Callbacks{
			MessageReceived:     func(_ *socket.Session, frame []byte) { e.frameReceived(s, frame) },
			ConnectionException: func(_ *socket.Session, err error) { e.post(&event{kind: evSocketClosed, session: s, err: err}) },
		},
	})
	if err != nil {
		e.dropSession(s)
		return nil, err
	}
	s.sock = sock
	if err := sock.Connect(); err != nil {
		sock.Close()
		e.dropSession(s)
		return nil, err
	}
	e.stats.IncEvent(stats.EventPCCConnect)
	e.post(&event{kind: evConnected, session: s})
	return s, nil
}

// DestroySession closes a session without the Close exchange. Safe from
// any goroutine, idempotent.
func (e *Engine) DestroySession(s *Session) {
	e.mu.Lock()
	if s.state == StateTerminated {
		e.mu.Unlock()
		return
	}
	e.terminateLocked(s)
	e.mu.Unlock()
	s.sock.Close()
	e.emit(&Event{Kind: EventSessionClosed, Session: s})
}

// SendMessage encodes and transmits m on the session. Transmission has
// begun before the engine processes any later event from the same session.
// Sending a PCReq arms the PCReqWait timer.
func (e *Engine) SendMessage(s *Session, m *protocol.Message) error {
	b, err := protocol.EncodeMessage(m)
	if err != nil {
		return err
	}
	e.mu.Lock()
	if s.state == StateTerminated {
		e.mu.Unlock()
		return fmt.Errorf("session %d is terminated", s.ID)
	}
	sent := false
	for attempt := 0; attempt <= sendRetries; attempt++ {
		if s.sock.Send(b) {
			sent = true
			break
		}
	}
	if !sent {
		// a full or dead queue after three retries is fatal
		e.terminateLocked(s)
		e.mu.Unlock()
		s.sock.Close()
		e.emit(&Event{Kind: EventSessionClosed, Session: s})
		return fmt.Errorf("session %d: send queue rejected %s", s.ID, m.Type)
	}
	e.stats.IncTX(m.Type)
	if m.Type == protocol.MessagePCReq && s.state == StateOpened {
		id, err := e.timers.CreateTimer(s.LocalConfig.RequestTimeSeconds, s)
		if err == nil {
			s.timerPCReqWait = id
			e.setStateLocked(s, StateWaitPCReq)
		}
	}
	e.mu.Unlock()
	log.Debugf("session %d sent %s", s.ID, m.Type)
	return nil
}

// RegisterResponseMessage records that a PCReq with requestID has been
// sent, so the matching PCRep resolves the returned handle. maxWaitMs
// bounds Wait on the handle.
func (e *Engine) RegisterResponseMessage(s *Session, requestID uint32, maxWaitMs int) (*RequestResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return nil, ErrNotRunning
	}
	if _, busy := e.requests[requestID]; busy {
		return nil, fmt.Errorf("request id %d is already registered", requestID)
	}
	rr := newRequestResponse(s, requestID, maxWaitMs)
	e.requests[requestID] = rr
	return rr, nil
}

// GetRegisteredResponseMessage looks a registered request up by id
func (e *Engine) GetRegisteredResponseMessage(requestID uint32) *RequestResponse {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.requests[requestID]
}

// DestroyResponseMessage drops the engine's lookup entry for rr
func (e *Engine) DestroyResponseMessage(rr *RequestResponse) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.requests[rr.RequestID] == rr {
		delete(e.requests, rr.RequestID)
	}
}

// frameReceived runs on the socket reader goroutine: decode and post
func (e *Engine) frameReceived(s *Session, frame []byte) {
	m, err := protocol.DecodeMessage(frame)
	if err != nil {
		e.post(&event{kind: evDecodeError, session: s, err: err})
		return
	}
	e.post(&event{kind: evMessage, session: s, message: m})
}

// timerExpired runs on the timer goroutine: post only, never block
func (e *Engine) timerExpired(data interface{}, id int32) {
	s, ok := data.(*Session)
	if !ok {
		log.Warningf("timer %d fired with unexpected user data", id)
		return
	}
	e.post(&event{kind: evTimer, session: s, timerID: id})
}

// post enqueues an internal event, dropping it when the engine is inactive
func (e *Engine) post(ev *event) {
	select {
	case <-e.done:
		log.Warningf("dropping event for stopped engine")
	case e.events <- ev:
	}
}

// emit hands an event to the application, dropping on a full queue rather
// than blocking the loop
func (e *Engine) emit(ev *Event) {
	select {
	case e.appEvents <- ev:
	default:
		log.Warningf("application event queue full, dropping %d", ev.Kind)
	}
}

// loop consumes the event queue until Stop
func (e *Engine) loop() {
	defer e.stopped.Done()
	for {
		select {
		case <-e.done:
			// drain what was queued before shutdown
			for {
				select {
				case ev := <-e.events:
					e.handle(ev)
				default:
					return
				}
			}
		case ev := <-e.events:
			e.handle(ev)
		}
	}
}

func (e *Engine) handle(ev *event) {
	switch ev.kind {
	case evConnected:
		e.handleConnected(ev.session)
	case evMessage:
		e.handleMessage(ev.session, ev.message)
	case evDecodeError:
		e.handleDecodeError(ev.session, ev.err)
	case evSocketClosed:
		e.handleSocketClosed(ev.session, ev.err)
	case evTimer:
		e.handleTimer(ev.session, ev.timerID)
	}
}

// dropSession removes a session that never finished CreateSession
func (e *Engine) dropSession(s *Session) {
	e.mu.Lock()
	s.state = StateTerminated
	delete(e.sessions, s.ID)
	e.mu.Unlock()
}

// setStateLocked records a state change; caller holds the engine mutex
func (e *Engine) setStateLocked(s *Session, state State) {
	if s.state != state {
		log.Debugf("session %d: %s -> %s", s.ID, s.state, state)
		s.state = state
		e.stats.SetSessionState(s.ID, int64(state))
	}
}

// terminateLocked cancels timers, resolves outstanding requests and
// removes the session; caller holds the engine mutex
func (e *Engine) terminateLocked(s *Session) {
	for _, id := range []int32{s.timerOpenKeepWait, s.timerPCReqWait, s.timerDeadTimer, s.timerKeepAlive} {
		if id != 0 {
			e.timers.CancelTimer(id)
		}
	}
	s.timerOpenKeepWait, s.timerPCReqWait, s.timerDeadTimer, s.timerKeepAlive = 0, 0, 0, 0
	for id, rr := range e.requests {
		if rr.session == s {
			rr.resolve(ResponseError, nil)
			delete(e.requests, id)
		}
	}
	e.setStateLocked(s, StateTerminated)
	delete(e.sessions, s.ID)
}
