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
Package socket manages the TCP sessions a PCC keeps towards its PCEs.

Each session owns a connection, a pending-write queue and a receive buffer.
Received bytes are reassembled into complete PCEP frames before any
callback fires: the common header declares the message length, and partial
reads accumulate until the frame completes. Callbacks are delivered from
the session's reader/writer goroutines and never hold service locks.
*/
package socket

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/volta-networks/pcep/pcep/protocol"
)

// DefaultConnectTimeout bounds the non-blocking connect
const DefaultConnectTimeout = 2 * time.Second

// readBufferSize is the size of the per-read scratch buffer
const readBufferSize = 65536

// writeQueueDepth bounds the pending-write queue per session
const writeQueueDepth = 64

// ErrServiceStopped is returned for operations on a stopped service
var ErrServiceStopped = errors.New("socket service is stopped")

// Callbacks travel upward from a session into its owner.
// Exactly one of MessageReceived and MessageReadyToRead must be set.
type Callbacks struct {
	// MessageReceived is fed one complete PCEP frame at a time
	MessageReceived func(s *Session, frame []byte)
	// MessageReadyToRead is handed the raw receive buffer and returns how
	// many bytes it consumed; a negative count is treated as a remote
	// shutdown
	MessageReadyToRead func(s *Session, buf []byte) int
	// MessageSent fires after a queued buffer is fully written
	MessageSent func(s *Session)
	// ConnectionException reports a socket failure or remote close
	ConnectionException func(s *Session, err error)
}

func (c *Callbacks) validate() error {
	if (c.MessageReceived == nil) == (c.MessageReadyToRead == nil) {
		return errors.New("exactly one of MessageReceived and MessageReadyToRead must be set")
	}
	return nil
}

// SessionConfig describes one TCP session towards a PCE
type SessionConfig struct {
	// Dest is the PCE address, v4 or v6
	Dest net.IP
	Port int
	// SourceIP optionally binds the local end
	SourceIP       net.IP
	ConnectTimeout time.Duration
	Callbacks      Callbacks
}

// Session is one managed TCP connection
type Session struct {
	service *Service
	cfg     SessionConfig

	conn      net.Conn
	writeCh   chan []byte
	recvBuf   []byte
	closeOnce sync.Once
	done      chan struct{}

	mu              sync.Mutex
	closeAfterWrite bool
}

// Service owns the session set. One mutex covers the set; it is never held
// across a callback.
type Service struct {
	mu       sync.Mutex
	active   bool
	sessions map[*Session]struct{}
}

// NewService creates a running socket service
func NewService() *Service {
	return &Service{active: true, sessions: make(map[*Session]struct{})}
}

// NewSession registers a new session. The connection is established by
// Connect.
func (svc *Service) NewSession(cfg SessionConfig) (*Session, error) {
	if err := cfg.Callbacks.validate(); err != nil {
		return nil, err
	}
	if cfg.Dest == nil {
		return nil, errors.New("session destination address must be set")
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	s := &Session{
		service: svc,
		cfg:     cfg,
		writeCh: make(chan []byte, writeQueueDepth),
		done:    make(chan struct{}),
	}
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if !svc.active {
		return nil, ErrServiceStopped
	}
	svc.sessions[s] = struct{}{}
	return s, nil
}

// Stop closes every session and rejects new ones
func (svc *Service) Stop() {
	svc.mu.Lock()
	svc.active = false
	sessions := make([]*Session, 0, len(svc.sessions))
	for s := range svc.sessions {
		sessions = append(sessions, s)
	}
	svc.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}

func (svc *Service) drop(s *Session) {
	svc.mu.Lock()
	delete(svc.sessions, s)
	svc.mu.Unlock()
}

// nodelayControl disables Nagle before connect completes
func nodelayControl(_, _ string, c syscall.RawConn) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	})
	if err != nil {
		return err
	}
	return serr
}

// Connect dials the PCE with the configured timeout and starts the
// reader and writer goroutines
func (s *Session) Connect() error {
	d := net.Dialer{
		Timeout: s.cfg.ConnectTimeout,
		Control: nodelayControl,
	}
	if s.cfg.SourceIP != nil {
		d.LocalAddr = &net.TCPAddr{IP: s.cfg.SourceIP}
	}
	addr := net.JoinHostPort(s.cfg.Dest.String(), fmt.Sprintf("%d", s.cfg.Port))
	conn, err := d.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	s.conn = conn
	log.Debugf("connected to %s", addr)
	go s.readLoop()
	go s.writeLoop()
	return nil
}

// Send enqueues b for transmission. It returns false if the session is
// closed or the queue is full.
func (s *Session) Send(b []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.writeCh <- b:
		return true
	default:
		log.Errorf("write queue full for %s, dropping %d bytes", s.RemoteAddr(), len(b))
		return false
	}
}

// CloseAfterSend shuts the session down once the pending write queue drains
func (s *Session) CloseAfterSend() {
	s.mu.Lock()
	s.closeAfterWrite = true
	s.mu.Unlock()
	// nudge the writer in case the queue is already empty
	select {
	case s.writeCh <- nil:
	default:
	}
}

// Close tears the connection down. Safe to call from any goroutine,
// idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.conn != nil {
			s.conn.Close()
		}
		s.service.drop(s)
	})
}

// RemoteAddr reports the peer address, or the configured destination when
// not yet connected
func (s *Session) RemoteAddr() string {
	if s.conn != nil {
		return s.conn.RemoteAddr().String()
	}
	return net.JoinHostPort(s.cfg.Dest.String(), fmt.Sprintf("%d", s.cfg.Port))
}

func (s *Session) closing() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// readLoop accumulates bytes and delivers complete frames upward
func (s *Session) readLoop() {
	buf := make([]byte, readBufferSize)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			s.recvBuf = append(s.recvBuf, buf[:n]...)
			if !s.deliver() {
				return
			}
		}
		if err != nil {
			if s.closing() {
				return
			}
			if errors.Is(err, io.EOF) {
				log.Debugf("remote shutdown from %s", s.RemoteAddr())
			}
			s.exception(err)
			return
		}
	}
}

// deliver drains the receive buffer through the configured callback.
// Returns false when the session died during delivery.
func (s *Session) deliver() bool {
	if cb := s.cfg.Callbacks.MessageReadyToRead; cb != nil {
		consumed := cb(s, s.recvBuf)
		if consumed < 0 {
			s.exception(io.EOF)
			return false
		}
		s.recvBuf = s.recvBuf[consumed:]
		return true
	}
	for {
		if len(s.recvBuf) < protocol.HeaderSize {
			return true
		}
		length, err := protocol.PeekLength(s.recvBuf)
		if err != nil {
			s.exception(err)
			return false
		}
		if len(s.recvBuf) < length {
			// partial frame, wait for more bytes
			return true
		}
		frame := make([]byte, length)
		copy(frame, s.recvBuf[:length])
		s.recvBuf = s.recvBuf[length:]
		s.cfg.Callbacks.MessageReceived(s, frame)
		if s.closing() {
			return false
		}
	}
}

// writeLoop drains the pending write queue
func (s *Session) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case b := <-s.writeCh:
			if b != nil {
				if _, err := s.conn.Write(b); err != nil {
					if !s.closing() {
						s.exception(err)
					}
					return
				}
				if cb := s.cfg.Callbacks.MessageSent; cb != nil {
					cb(s)
				}
			}
			s.mu.Lock()
			closeNow := s.closeAfterWrite && len(s.writeCh) == 0
			s.mu.Unlock()
			if closeNow {
				log.Debugf("write queue drained, closing %s", s.RemoteAddr())
				s.Close()
				return
			}
		}
	}
}

func (s *Session) exception(err error) {
	if cb := s.cfg.Callbacks.ConnectionException; cb != nil {
		cb(s, err)
	}
	s.Close()
}
