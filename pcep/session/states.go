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
	"errors"
	"fmt"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"

	"github.com/volta-networks/pcep/pcep/protocol"
	"github.com/volta-networks/pcep/pcep/stats"
)

// couple of helpers to log nice lines about happening communication
func (e *Engine) logSent(s *Session, t protocol.MessageType, msg string, v ...interface{}) {
	log.Infof(color.GreenString("session %d -> %s (%s)", s.ID, t, fmt.Sprintf(msg, v...)))
}

func (e *Engine) logReceive(s *Session, t protocol.MessageType, msg string, v ...interface{}) {
	log.Infof(color.BlueString("session %d <- %s (%s)", s.ID, t, fmt.Sprintf(msg, v...)))
}

// handleConnected starts the Open handshake once the TCP connect completed
func (e *Engine) handleConnected(s *Session) {
	e.mu.Lock()
	if s.state != StateInitialized {
		e.mu.Unlock()
		return
	}
	e.setStateLocked(s, StateTCPConnected)
	if id, err := e.timers.CreateTimer(openKeepWaitSeconds, s); err == nil {
		s.timerOpenKeepWait = id
	}
	e.mu.Unlock()
	e.sendOpen(s)
}

// sendOpen transmits our Open proposing the local session values
func (e *Engine) sendOpen(s *Session) {
	var tlvs []protocol.TLV
	if s.LocalConfig.RequireStatefulPCE {
		tlvs = append(tlvs, &protocol.StatefulPCECapabilityTLV{Flags: protocol.StatefulCapUpdate})
	}
	m := protocol.NewOpenMessage(
		uint8(s.LocalConfig.KeepAliveSeconds),
		uint8(s.LocalConfig.DeadTimerSeconds),
		s.localSID,
		tlvs...,
	)
	s.localSID++
	if err := e.SendMessage(s, m); err != nil {
		log.Errorf("session %d: sending Open: %v", s.ID, err)
		return
	}
	e.logSent(s, protocol.MessageOpen, "keepalive=%d deadtimer=%d", s.LocalConfig.KeepAliveSeconds, s.LocalConfig.DeadTimerSeconds)
}

// sendError transmits a PCErr with the given type and value
func (e *Engine) sendError(s *Session, t protocol.ErrorType, v protocol.ErrorValue) {
	if err := e.SendMessage(s, protocol.NewErrorMessage(t, v)); err != nil {
		log.Errorf("session %d: sending PCErr(%d,%d): %v", s.ID, uint8(t), uint8(v), err)
		return
	}
	e.logSent(s, protocol.MessageError, "%s value=%d", t, uint8(v))
}

// closeSession sends a Close with the given reason, shuts the socket down
// after the write drains and terminates the session
func (e *Engine) closeSession(s *Session, reason protocol.CloseReason) {
	if err := e.SendMessage(s, protocol.NewCloseMessage(reason)); err != nil {
		log.Errorf("session %d: sending Close: %v", s.ID, err)
	} else {
		e.logSent(s, protocol.MessageClose, "reason=%s", reason)
	}
	s.sock.CloseAfterSend()
	e.mu.Lock()
	e.terminateLocked(s)
	e.mu.Unlock()
	e.stats.IncEvent(stats.EventPCCDisconnect)
	e.emit(&Event{Kind: EventSessionClosed, Session: s})
}

// handleMessage dispatches one received message into the state machine
func (e *Engine) handleMessage(s *Session, m *protocol.Message) {
	if s.State() == StateTerminated {
		return
	}
	e.stats.IncRX(m.Type)
	for _, o := range m.Objects {
		e.stats.IncRXObject(o.Class())
	}
	switch m.Type {
	case protocol.MessageOpen:
		e.handleOpen(s, m)
	case protocol.MessageKeepAlive:
		e.handleKeepAlive(s)
	case protocol.MessagePCRep:
		e.handlePCRep(s, m)
	case protocol.MessagePCNtf, protocol.MessageReport:
		e.logReceive(s, m.Type, "%d objects", len(m.Objects))
		e.emit(&Event{Kind: EventMessage, Session: s, Message: m})
	case protocol.MessageError:
		e.handlePCErr(s, m)
	case protocol.MessageClose:
		e.handleClose(s, m)
	default:
		// a PCC has no business receiving PCReq, Update or Initiate
		e.logReceive(s, m.Type, "unexpected for a PCC")
		e.handleDecodeError(s, &protocol.DecodeError{
			ErrorType:  protocol.ErrorTypeCapabilityNotSupported,
			ErrorValue: protocol.ErrorValueUnassigned,
			Msg:        fmt.Sprintf("unexpected %s", m.Type),
		})
	}
}

// openAcceptable implements the PCC-side Open check: keepalive within
// range, dead timer at least MinDeadTimerMultiple keepalives, required
// capabilities present
func (s *Session) openAcceptable(open *protocol.OpenObject) bool {
	if open.Keepalive < 1 {
		return false
	}
	if open.DeadTimer != 0 && int(open.DeadTimer) < s.LocalConfig.MinDeadTimerMultiple*int(open.Keepalive) {
		return false
	}
	if s.LocalConfig.RequireStatefulPCE {
		stateful := false
		for _, tlv := range open.TLVs {
			if tlv.Type() == protocol.TLVStatefulPCECapability {
				stateful = true
				break
			}
		}
		if !stateful {
			return false
		}
	}
	return true
}

func (e *Engine) handleOpen(s *Session, m *protocol.Message) {
	open, ok := m.First(protocol.ObjectClassOpen).(*protocol.OpenObject)
	if !ok {
		e.handleDecodeError(s, &protocol.DecodeError{
			ErrorType:  protocol.ErrorTypeSessionFailure,
			ErrorValue: protocol.ErrorValueInvalidOpenMessage,
			Msg:        "Open message without OPEN object",
		})
		return
	}
	e.logReceive(s, protocol.MessageOpen, "keepalive=%d deadtimer=%d sid=%d", open.Keepalive, open.DeadTimer, open.SID)
	if s.State() != StateTCPConnected {
		// second Open after the handshake completed
		e.sendError(s, protocol.ErrorTypeSecondSessionAttempt, protocol.ErrorValueUnassigned)
		return
	}
	if s.openAcceptable(open) {
		e.mu.Lock()
		s.RemoteConfig = Config{
			KeepAliveSeconds: int(open.Keepalive),
			DeadTimerSeconds: int(open.DeadTimer),
		}
		s.remoteSID = open.SID
		if s.timerOpenKeepWait != 0 {
			e.timers.CancelTimer(s.timerOpenKeepWait)
			s.timerOpenKeepWait = 0
		}
		if open.DeadTimer > 0 {
			if id, err := e.timers.CreateTimer(int(open.DeadTimer), s); err == nil {
				s.timerDeadTimer = id
			}
		}
		if id, err := e.timers.CreateTimer(s.KeepAlivePeriod(), s); err == nil {
			s.timerKeepAlive = id
		}
		e.setStateLocked(s, StateOpened)
		e.mu.Unlock()
		if err := e.SendMessage(s, protocol.NewKeepAliveMessage()); err != nil {
			log.Errorf("session %d: sending KeepAlive: %v", s.ID, err)
		}
		e.stats.IncEvent(stats.EventPCEConnect)
		e.emit(&Event{Kind: EventSessionUp, Session: s})
		return
	}
	if s.openRetries == 0 {
		// negotiable: counter-propose our own values
		s.openRetries++
		e.sendError(s, protocol.ErrorTypeSessionFailure, protocol.ErrorValueUnacceptableOpenNeg)
		e.sendOpen(s)
		return
	}
	e.sendError(s, protocol.ErrorTypeSessionFailure, protocol.ErrorValueSecondOpenUnacceptable)
	e.closeSession(s, protocol.CloseReasonNo)
}

func (e *Engine) handleKeepAlive(s *Session) {
	log.Debugf("session %d received KeepAlive", s.ID)
	e.mu.Lock()
	if s.timerDeadTimer != 0 {
		e.timers.ResetTimer(s.timerDeadTimer)
	}
	e.mu.Unlock()
}

func (e *Engine) handlePCRep(s *Session, m *protocol.Message) {
	requestID := m.RequestID()
	e.logReceive(s, protocol.MessagePCRep, "request_id=%d", requestID)
	e.mu.Lock()
	rr := e.requests[requestID]
	if rr != nil && rr.session == s {
		delete(e.requests, requestID)
		if s.timerPCReqWait != 0 {
			e.timers.CancelTimer(s.timerPCReqWait)
			s.timerPCReqWait = 0
		}
		if s.state == StateWaitPCReq {
			e.setStateLocked(s, StateOpened)
		}
		e.mu.Unlock()
		rr.resolve(ResponseReady, []*protocol.Message{m})
		e.emit(&Event{Kind: EventMessage, Session: s, Message: m})
		return
	}
	s.numUnknownRequests++
	exceeded := s.numUnknownRequests > s.LocalConfig.MaxUnknownRequests
	e.mu.Unlock()
	log.Warningf("session %d: PCRep for unknown request id %d", s.ID, requestID)
	if exceeded {
		e.sendError(s, protocol.ErrorTypeUnknownReqRef, protocol.ErrorValueUnassigned)
		e.closeSession(s, protocol.CloseReasonUnknownRequest)
	}
}

func (e *Engine) handlePCErr(s *Session, m *protocol.Message) {
	eo, _ := m.First(protocol.ObjectClassError).(*protocol.ErrorObject)
	if eo != nil {
		e.logReceive(s, protocol.MessageError, "%s value=%d", eo.ErrorType, uint8(eo.ErrorValue))
	} else {
		e.logReceive(s, protocol.MessageError, "without ERROR object")
	}
	e.emit(&Event{Kind: EventMessage, Session: s, Message: m})
	// a PCErr during the handshake means the PCE rejected our Open
	if s.State() == StateTCPConnected {
		e.closeSession(s, protocol.CloseReasonNo)
	}
}

func (e *Engine) handleClose(s *Session, m *protocol.Message) {
	if co, ok := m.First(protocol.ObjectClassClose).(*protocol.CloseObject); ok {
		e.logReceive(s, protocol.MessageClose, "reason=%s", co.Reason)
	}
	e.mu.Lock()
	e.terminateLocked(s)
	e.mu.Unlock()
	s.sock.CloseAfterSend()
	e.stats.IncEvent(stats.EventPCEDisconnect)
	e.emit(&Event{Kind: EventSessionClosed, Session: s, Message: m})
}

// handleDecodeError implements the unknown-message budget: malformed and
// unrecognized messages are tolerated up to MaxUnknownMessages, then the
// session answers with the matching PCErr and closes
func (e *Engine) handleDecodeError(s *Session, err error) {
	if s.State() == StateTerminated {
		return
	}
	e.mu.Lock()
	s.numErroneousMessages++
	exceeded := s.numErroneousMessages > s.LocalConfig.MaxUnknownMessages
	e.mu.Unlock()
	log.Warningf("session %d: bad message (%d of %d tolerated): %v",
		s.ID, s.numErroneousMessages, s.LocalConfig.MaxUnknownMessages, err)
	if !exceeded {
		return
	}
	var de *protocol.DecodeError
	if errors.As(err, &de) {
		e.sendError(s, de.ErrorType, de.ErrorValue)
	} else {
		e.sendError(s, protocol.ErrorTypeSessionFailure, protocol.ErrorValueInvalidOpenMessage)
	}
	e.closeSession(s, protocol.CloseReasonUnknownMessage)
}

func (e *Engine) handleSocketClosed(s *Session, err error) {
	if s.State() == StateTerminated {
		return
	}
	log.Infof("session %d: connection to %s closed: %v", s.ID, s.sock.RemoteAddr(), err)
	e.mu.Lock()
	e.terminateLocked(s)
	e.mu.Unlock()
	e.stats.IncEvent(stats.EventPCEDisconnect)
	e.emit(&Event{Kind: EventSessionClosed, Session: s, Err: err})
}

// handleTimer dispatches a timer expiry against the session's four timers.
// A stale id belongs to a timer that was logically cancelled after expiry
// was already queued.
func (e *Engine) handleTimer(s *Session, id int32) {
	e.mu.Lock()
	switch id {
	case s.timerOpenKeepWait:
		s.timerOpenKeepWait = 0
		e.mu.Unlock()
		e.stats.IncEvent(stats.EventTimerOpenKeepWait)
		log.Warningf("session %d: no Open from the PCE within %d seconds", s.ID, openKeepWaitSeconds)
		e.sendError(s, protocol.ErrorTypeSessionFailure, protocol.ErrorValueOpenWaitTimedOut)
		e.closeSession(s, protocol.CloseReasonNo)
	case s.timerDeadTimer:
		s.timerDeadTimer = 0
		e.mu.Unlock()
		e.stats.IncEvent(stats.EventTimerDeadTimer)
		log.Warningf("session %d: dead timer expired", s.ID)
		e.closeSession(s, protocol.CloseReasonDeadTimer)
	case s.timerKeepAlive:
		s.timerKeepAlive = 0
		if id, err := e.timers.CreateTimer(s.KeepAlivePeriod(), s); err == nil {
			s.timerKeepAlive = id
		}
		e.mu.Unlock()
		e.stats.IncEvent(stats.EventTimerKeepAlive)
		if err := e.SendMessage(s, protocol.NewKeepAliveMessage()); err != nil {
			log.Errorf("session %d: sending KeepAlive: %v", s.ID, err)
		}
	case s.timerPCReqWait:
		s.timerPCReqWait = 0
		if s.state == StateWaitPCReq {
			e.setStateLocked(s, StateOpened)
		}
		var timedOut []*RequestResponse
		for rid, rr := range e.requests {
			if rr.session == s {
				timedOut = append(timedOut, rr)
				delete(e.requests, rid)
			}
		}
		e.mu.Unlock()
		e.stats.IncEvent(stats.EventTimerPCReqWait)
		for _, rr := range timedOut {
			rr.resolve(ResponseTimedOut, nil)
		}
	default:
		e.mu.Unlock()
		log.Debugf("session %d: stale timer %d", s.ID, id)
	}
}
