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
Package stats implements statistics collection and reporting for the PCEP
session engine: message counters by type, received objects by class and
session-level event counters.
*/
package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/volta-networks/pcep/pcep/protocol"
)

// counter key prefixes of the JSON report
const (
	TxPrefix    = "pcep.pcc.tx."
	RxPrefix    = "pcep.pcc.rx."
	RxObjPrefix = "pcep.pcc.rxobj."
	EventPrefix = "pcep.pcc.event."
	StatePrefix = "pcep.pcc.session.state."
)

// EventCounter identifies a session-engine event counter
type EventCounter int

// event counter ids
const (
	EventPCCConnect EventCounter = iota
	EventPCEConnect
	EventPCCDisconnect
	EventPCEDisconnect
	EventTimerKeepAlive
	EventTimerDeadTimer
	EventTimerOpenKeepWait
	EventTimerPCReqWait
)

var eventCounterToString = map[EventCounter]string{
	EventPCCConnect:        "pcc_connect",
	EventPCEConnect:        "pce_connect",
	EventPCCDisconnect:     "pcc_disconnect",
	EventPCEDisconnect:     "pce_disconnect",
	EventTimerKeepAlive:    "timer_keepalive",
	EventTimerDeadTimer:    "timer_deadtimer",
	EventTimerOpenKeepWait: "timer_openkeepwait",
	EventTimerPCReqWait:    "timer_pcreqwait",
}

func (e EventCounter) String() string {
	if s, ok := eventCounterToString[e]; ok {
		return s
	}
	return fmt.Sprintf("event_%d", int(e))
}

// Stats is a metric collection interface
type Stats interface {
	// Start starts a stat reporter. Use this for passive reporters.
	Start(monitoringPort int)

	// Snapshot the values so they can be reported atomically
	Snapshot()

	// Reset atomically sets all the counters to 0
	Reset()

	// IncRX atomically adds 1 to the received counter for the message type
	IncRX(t protocol.MessageType)

	// IncTX atomically adds 1 to the sent counter for the message type
	IncTX(t protocol.MessageType)

	// IncRXObject atomically adds 1 to the received counter for the object class
	IncRXObject(c protocol.ObjectClass)

	// IncEvent atomically adds 1 to the event counter
	IncEvent(e EventCounter)

	// SetSessionState atomically records the numeric state of a session
	SetSessionState(sessionID int, state int64)
}

// syncMapInt64 is a mutex-protected map of int counters
type syncMapInt64 struct {
	sync.Mutex
	m map[int]int64
}

func (s *syncMapInt64) init() {
	s.m = make(map[int]int64)
}

func (s *syncMapInt64) inc(key int) {
	s.Lock()
	s.m[key]++
	s.Unlock()
}

func (s *syncMapInt64) set(key int, value int64) {
	s.Lock()
	s.m[key] = value
	s.Unlock()
}

func (s *syncMapInt64) reset() {
	s.Lock()
	for k := range s.m {
		s.m[k] = 0
	}
	s.Unlock()
}

// copy all values to the destination map
func (s *syncMapInt64) copy(dst *syncMapInt64) {
	s.Lock()
	dst.Lock()
	for k, v := range s.m {
		dst.m[k] = v
	}
	dst.Unlock()
	s.Unlock()
}

// Counters is the flat key/value form of all counters, as reported over HTTP
type Counters map[string]int64

// FetchCounters returns the counters map fetched from a monitoring endpoint
func FetchCounters(url string) (Counters, error) {
	c := http.Client{
		Timeout: time.Second * 2,
	}
	resp, err := c.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	counters := make(Counters)
	err = json.Unmarshal(b, &counters)
	return counters, err
}
