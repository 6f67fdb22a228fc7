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
	"net"

	"github.com/volta-networks/pcep/pcep/socket"
)

// State of a PCEP session
type State int

// session states. A session starts Initialized, reaches Opened through the
// Open handshake and oscillates between Opened and WaitPCReq while requests
// are outstanding. Terminated is absorbing.
const (
	StateInitialized State = iota + 1
	StateTCPConnected
	StateOpened
	StateWaitPCReq
	StateIdle
	StateTerminated
)

var stateToString = map[State]string{
	StateInitialized:  "INITIALIZED",
	StateTCPConnected: "TCP_CONNECTED",
	StateOpened:       "OPENED",
	StateWaitPCReq:    "WAIT_PCREQ",
	StateIdle:         "IDLE",
	StateTerminated:   "TERMINATED",
}

func (s State) String() string {
	return stateToString[s]
}

// Session is one PCC-side PCEP session towards a PCE. All fields are owned
// by the engine loop. State reads the state under the engine mutex; PCEAddr
// and KeepAlivePeriod read their fields without taking it.
type Session struct {
	ID     int
	engine *Engine

	state State
	// LocalConfig is what we propose in our Open
	LocalConfig Config
	// RemoteConfig is what the PCE advertised in its Open
	RemoteConfig Config

	pceIP   net.IP
	pcePort int
	sock    *socket.Session

	// timer ids, zero when not running
	timerOpenKeepWait int32
	timerPCReqWait    int32
	timerDeadTimer    int32
	timerKeepAlive    int32

	// localSID counts the Opens we sent, remoteSID is the PCE session id
	localSID  uint8
	remoteSID uint8
	// openRetries counts unacceptable PCE Opens we countered
	openRetries int
	// numErroneousMessages counts malformed or unknown messages received
	numErroneousMessages int
	// numUnknownRequests counts PCReps with an unknown request id
	numUnknownRequests int
}

// State reports the current session state
func (s *Session) State() State {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	return s.state
}

// PCEAddr reports the configured PCE endpoint
func (s *Session) PCEAddr() (net.IP, int) {
	return s.pceIP, s.pcePort
}

// KeepAlivePeriod is the negotiated keepalive transmit period in seconds:
// the smaller of both sides' keepalive values, never below one second
func (s *Session) KeepAlivePeriod() int {
	period := s.LocalConfig.KeepAliveSeconds
	if s.RemoteConfig.KeepAliveSeconds > 0 && s.RemoteConfig.KeepAliveSeconds < period {
		period = s.RemoteConfig.KeepAliveSeconds
	}
	if period < 1 {
		period = 1
	}
	return period
}
