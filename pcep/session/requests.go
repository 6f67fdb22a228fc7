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

package session

import (
	"sync"
	"time"

	"github.com/volta-networks/pcep/pcep/protocol"
)

// ResponseStatus is the state of a registered request
type ResponseStatus int

// response statuses. Transitions away from Waiting are one-shot: once a
// request is Ready, TimedOut or Error its status never changes again.
const (
	ResponseUnknown ResponseStatus = iota
	ResponseWaiting
	ResponseReady
	ResponseTimedOut
	ResponseError
)

var responseStatusToString = map[ResponseStatus]string{
	ResponseUnknown:  "UNKNOWN",
	ResponseWaiting:  "WAITING",
	ResponseReady:    "READY",
	ResponseTimedOut: "TIMED_OUT",
	ResponseError:    "ERROR",
}

func (s ResponseStatus) String() string {
	return responseStatusToString[s]
}

// RequestResponse tracks one outstanding PCReq until its PCRep arrives or
// the wait deadline passes. Owned by the caller that registered it; the
// engine keeps a non-owning lookup entry keyed by request id.
type RequestResponse struct {
	RequestID uint32
	// MaxWaitMs bounds Wait, in milliseconds
	MaxWaitMs int

	session    *Session
	registered time.Time

	mu         sync.Mutex
	status     ResponseStatus
	prevStatus ResponseStatus
	received   time.Time
	responses  []*protocol.Message
	done       chan struct{}
}

func newRequestResponse(s *Session, requestID uint32, maxWaitMs int) *RequestResponse {
	return &RequestResponse{
		RequestID:  requestID,
		MaxWaitMs:  maxWaitMs,
		session:    s,
		registered: time.Now(),
		status:     ResponseWaiting,
		prevStatus: ResponseWaiting,
		done:       make(chan struct{}),
	}
}

// Status reports the current response status
func (rr *RequestResponse) Status() ResponseStatus {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return rr.status
}

// Session returns the session the request was registered on
func (rr *RequestResponse) Session() *Session {
	return rr.session
}

// Responses returns the received response messages, non-nil only when Ready
func (rr *RequestResponse) Responses() []*protocol.Message {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return rr.responses
}

// ReceivedAt reports when the response arrived, zero unless Ready
func (rr *RequestResponse) ReceivedAt() time.Time {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return rr.received
}

// resolve moves the request out of Waiting exactly once.
// Returns false if it was already resolved.
func (rr *RequestResponse) resolve(status ResponseStatus, responses []*protocol.Message) bool {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	if rr.status != ResponseWaiting {
		return false
	}
	rr.prevStatus = rr.status
	rr.status = status
	rr.responses = responses
	if status == ResponseReady {
		rr.received = time.Now()
	}
	close(rr.done)
	return true
}

// Query is the non-blocking check: it reports true when the status changed
// since the previous Query
func (rr *RequestResponse) Query() bool {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	changed := rr.status != rr.prevStatus
	rr.prevStatus = rr.status
	return changed
}

// Wait blocks until the request resolves or MaxWaitMs elapses from
// registration. It reports true when a response was received.
func (rr *RequestResponse) Wait() bool {
	deadline := rr.registered.Add(time.Duration(rr.MaxWaitMs) * time.Millisecond)
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case <-rr.done:
	case <-timer.C:
		rr.resolve(ResponseTimedOut, nil)
		// resolve lost against a concurrent Ready: status below decides
	}
	return rr.Status() == ResponseReady
}
