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

package stats

import (
	"encoding/json"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/volta-networks/pcep/pcep/protocol"
)

// counters hold all counter maps of one collection generation
type counters struct {
	tx           syncMapInt64
	rx           syncMapInt64
	rxObjects    syncMapInt64
	events       syncMapInt64
	sessionState syncMapInt64
}

func (c *counters) init() {
	c.tx.init()
	c.rx.init()
	c.rxObjects.init()
	c.events.init()
	c.sessionState.init()
}

func (c *counters) reset() {
	c.tx.reset()
	c.rx.reset()
	c.rxObjects.reset()
	c.events.reset()
	c.sessionState.reset()
}

// toMap flattens the counters for JSON reporting
func (c *counters) toMap() Counters {
	res := make(Counters)
	c.tx.Lock()
	for k, v := range c.tx.m {
		res[TxPrefix+protocol.MessageType(k).String()] = v
	}
	c.tx.Unlock()
	c.rx.Lock()
	for k, v := range c.rx.m {
		res[RxPrefix+protocol.MessageType(k).String()] = v
	}
	c.rx.Unlock()
	c.rxObjects.Lock()
	for k, v := range c.rxObjects.m {
		res[RxObjPrefix+protocol.ObjectClass(k).String()] = v
	}
	c.rxObjects.Unlock()
	c.events.Lock()
	for k, v := range c.events.m {
		res[EventPrefix+EventCounter(k).String()] = v
	}
	c.events.Unlock()
	c.sessionState.Lock()
	for k, v := range c.sessionState.m {
		res[fmt.Sprintf("%s%d", StatePrefix, k)] = v
	}
	c.sessionState.Unlock()
	return res
}

// JSONStats is what we report as stats via http
type JSONStats struct {
	report counters

	counters
}

// NewJSONStats returns a new JSONStats
func NewJSONStats() *JSONStats {
	s := &JSONStats{}
	s.init()
	s.report.init()
	return s
}

// Start runs the http monitoring server
func (s *JSONStats) Start(monitoringPort int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)
	addr := fmt.Sprintf(":%d", monitoringPort)
	log.Infof("Starting http json server on %s", addr)
	err := http.ListenAndServe(addr, mux)
	if err != nil {
		log.Fatalf("Failed to start listener: %v", err)
	}
}

// handleRequest is a handler used for all http monitoring requests
func (s *JSONStats) handleRequest(w http.ResponseWriter, _ *http.Request) {
	js, err := json.Marshal(s.report.toMap())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(js); err != nil {
		log.Errorf("Failed to reply: %v", err)
	}
}

// Snapshot the values so they can be reported atomically
func (s *JSONStats) Snapshot() {
	s.tx.copy(&s.report.tx)
	s.rx.copy(&s.report.rx)
	s.rxObjects.copy(&s.report.rxObjects)
	s.events.copy(&s.report.events)
	s.sessionState.copy(&s.report.sessionState)
}

// Reset atomically sets all the counters to 0
func (s *JSONStats) Reset() {
	s.counters.reset()
}

// IncRX atomically adds 1 to the received counter for the message type
func (s *JSONStats) IncRX(t protocol.MessageType) {
	s.rx.inc(int(t))
}

// IncTX atomically adds 1 to the sent counter for the message type
func (s *JSONStats) IncTX(t protocol.MessageType) {
	s.tx.inc(int(t))
}

// IncRXObject atomically adds 1 to the received counter for the object class
func (s *JSONStats) IncRXObject(c protocol.ObjectClass) {
	s.rxObjects.inc(int(c))
}

// IncEvent atomically adds 1 to the event counter
func (s *JSONStats) IncEvent(e EventCounter) {
	s.events.inc(int(e))
}

// SetSessionState atomically records the numeric state of a session
func (s *JSONStats) SetSessionState(sessionID int, state int64) {
	s.sessionState.set(sessionID, state)
}

// NopStats is a Stats implementation that does nothing, for embedders
// that do not monitor
type NopStats struct{}

// NewNopStats returns a no-op Stats
func NewNopStats() *NopStats { return &NopStats{} }

// Start implements Stats interface
func (s *NopStats) Start(_ int) {}

// Snapshot implements Stats interface
func (s *NopStats) Snapshot() {}

// Reset implements Stats interface
func (s *NopStats) Reset() {}

// IncRX implements Stats interface
func (s *NopStats) IncRX(_ protocol.MessageType) {}

// IncTX implements Stats interface
func (s *NopStats) IncTX(_ protocol.MessageType) {}

// IncRXObject implements Stats interface
func (s *NopStats) IncRXObject(_ protocol.ObjectClass) {}

// IncEvent implements Stats interface
func (s *NopStats) IncEvent(_ EventCounter) {}

// SetSessionState implements Stats interface
func (s *NopStats) SetSessionState(_ int, _ int64) {}
