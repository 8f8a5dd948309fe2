/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

//go:build linux

package server

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/suololololo/AsyncRPC/buffer"
	"github.com/suololololo/AsyncRPC/codec"
	"github.com/suololololo/AsyncRPC/iohook"
	"github.com/suololololo/AsyncRPC/reactor"
	"github.com/suololololo/AsyncRPC/scheduler"
	"github.com/suololololo/AsyncRPC/session"
	"github.com/suololololo/AsyncRPC/synctask"
	"github.com/suololololo/AsyncRPC/task"
	"github.com/suololololo/AsyncRPC/timer"
)

// DefaultHeartbeatTimeout is the absolute per-connection deadline after
// which a connection with no traffic is closed.
const DefaultHeartbeatTimeout = 40 * time.Second

// DefaultSweepInterval is how often dead subscribers are pruned.
const DefaultSweepInterval = 5 * time.Second

// Server accepts connections and dispatches framed requests against a
// registry of reflected method handlers.
type Server struct {
	r        *reactor.Reactor
	hooks    *iohook.Hooks
	resubmit synctask.Resubmit
	Log      logrus.FieldLogger

	HeartbeatTimeout time.Duration
	SweepInterval    time.Duration

	// SendTimeout bounds every socket write on accepted connections, so
	// a subscriber that never drains its receive buffer cannot park a
	// Publish fan-out forever. Zero means unbounded.
	SendTimeout time.Duration

	mu          sync.Mutex
	methods     map[string]*method
	subscribers map[string][]*session.Session

	listenFD   int
	listenFC   *iohook.FileContext
	listenAddr string

	sweepGuard *timer.Guard
}

// Addr returns the address Listen bound to (useful when the caller asked
// for port 0).
func (s *Server) Addr() string { return s.listenAddr }

// New returns a Server driven by r's reactor and hooks.
func New(r *reactor.Reactor, hooks *iohook.Hooks, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		r:                r,
		hooks:            hooks,
		Log:              log,
		HeartbeatTimeout: DefaultHeartbeatTimeout,
		SweepInterval:    DefaultSweepInterval,
		methods:          make(map[string]*method),
		subscribers:      make(map[string][]*session.Session),
	}
	s.resubmit = func(t *task.Task) { r.Submit(scheduler.ForTask(t)) }
	return s
}

// Register binds name to fn. fn must be func(args...) (R, error) where
// every argument type implements codec.Unmarshaler by pointer and R
// implements codec.Marshaler.
func (s *Server) Register(name string, fn any) error {
	m, err := newMethod(fn)
	if err != nil {
		return fmt.Errorf("server: register %q: %w", name, err)
	}
	s.mu.Lock()
	s.methods[name] = m
	s.mu.Unlock()
	return nil
}

// Listen opens a TCP listener on address and hands its descriptor to the
// hook layer so Accept can be driven cooperatively. The stdlib net
// package does the address-family parsing (out of scope for this
// runtime); only the raw fd, stolen via the File/Dup idiom, crosses into
// the reactor-driven world.
func (s *Server) Listen(address string) error {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		_ = ln.Close()
		return fmt.Errorf("server: %q did not resolve to a TCP listener", address)
	}
	s.listenAddr = tcpLn.Addr().String()

	f, err := tcpLn.File()
	if err != nil {
		_ = tcpLn.Close()
		return err
	}
	ownFD, err := unix.Dup(int(f.Fd()))
	_ = f.Close()
	_ = tcpLn.Close()
	if err != nil {
		return err
	}

	fc, err := s.hooks.Watch(ownFD)
	if err != nil {
		_ = unix.Close(ownFD)
		return err
	}
	s.listenFD = ownFD
	s.listenFC = fc

	guard := timer.NewGuard()
	s.sweepGuard = guard
	s.r.Timers.AddRecurring(s.SweepInterval, func() {
		if guard.Alive() {
			s.pruneSubscribers()
		}
	})
	return nil
}

// Close stops accepting and releases the listening descriptor.
func (s *Server) Close() error {
	if s.sweepGuard != nil {
		s.sweepGuard.Invalidate()
	}
	if s.listenFC == nil {
		return nil
	}
	return s.hooks.Close(s.listenFD)
}

// AcceptLoop is the acceptor task entry: it spawns one handler task per
// accepted connection and only returns when Accept itself errors (the
// listener was closed, typically).
func (s *Server) AcceptLoop(self *task.Task) error {
	for {
		fd, _, err := s.hooks.Accept(self, s.listenFC)
		if err != nil {
			return err
		}
		fc, werr := s.hooks.Watch(fd)
		if werr != nil {
			_ = unix.Close(fd)
			continue
		}
		if s.SendTimeout > 0 {
			fc.SetSendTimeout(s.SendTimeout)
		}
		sess := session.New(s.hooks, fc, s.resubmit)
		s.r.Submit(scheduler.ForFunc(scheduler.NoWorker, func(conn *task.Task) error {
			return s.handleConn(conn, sess)
		}))
	}
}

func (s *Server) handleConn(self *task.Task, sess *session.Session) error {
	defer sess.Close()

	guard := timer.NewGuard()
	deadline := s.r.Timers.AddConditional(s.HeartbeatTimeout, guard, func() {
		_ = sess.Close()
	})
	defer func() {
		guard.Invalidate()
		s.r.Timers.Cancel(deadline)
	}()

	for {
		f, err := sess.RecvFrame(self)
		if err != nil {
			return nil
		}
		s.r.Timers.Refresh(deadline, s.HeartbeatTimeout)

		switch f.Type {
		case codec.Heartbeat:
			_ = sess.SendFrame(self, codec.Frame{Type: codec.Heartbeat, Seq: f.Seq})
		case codec.MethodRequest:
			s.dispatchMethod(self, sess, f)
		case codec.SubscribeRequest:
			s.handleSubscribe(self, sess, f)
		case codec.PublishResponse:
			return nil
		}
	}
}

func (s *Server) dispatchMethod(self *task.Task, sess *session.Session, f codec.Frame) {
	buf := buffer.New()
	_, _ = buf.Write(f.Body)
	_ = buf.Seek(0)

	name, err := codec.ReadString(buf)
	if err != nil {
		return
	}
	argBody := buf.Bytes()

	s.mu.Lock()
	m, ok := s.methods[name]
	s.mu.Unlock()

	var respBody []byte
	if !ok {
		rb := buffer.New()
		codec.WriteResultHeader(rb, codec.NoMethod, "no such method: "+name)
		_ = rb.Seek(0)
		respBody = rb.Bytes()
	} else {
		respBody = m.invoke(argBody)
	}
	_ = sess.SendFrame(self, codec.Frame{Type: codec.MethodResponse, Seq: f.Seq, Body: respBody})
}

func (s *Server) handleSubscribe(self *task.Task, sess *session.Session, f codec.Frame) {
	buf := buffer.New()
	_, _ = buf.Write(f.Body)
	_ = buf.Seek(0)
	key, err := codec.ReadString(buf)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.subscribers[key] = append(s.subscribers[key], sess)
	s.mu.Unlock()

	rb := buffer.New()
	codec.WriteResultHeader(rb, codec.Success, "")
	_ = rb.Seek(0)
	_ = sess.SendFrame(self, codec.Frame{Type: codec.SubscribeResponse, Seq: f.Seq, Body: rb.Bytes()})
}

// Publish fans out key/data as a PublishRequest to every live subscriber
// of key; dead sessions are skipped (and later pruned by the sweeper).
func (s *Server) Publish(self *task.Task, key string, data codec.Marshaler) {
	b := buffer.New()
	codec.WriteString(b, key)
	data.MarshalRPC(b)
	_ = b.Seek(0)
	body := b.Bytes()

	s.mu.Lock()
	subs := append([]*session.Session(nil), s.subscribers[key]...)
	s.mu.Unlock()

	for _, sub := range subs {
		if sub.Closed() {
			continue
		}
		_ = sub.SendFrame(self, codec.Frame{Type: codec.PublishRequest, Body: body})
	}
}

func (s *Server) pruneSubscribers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, subs := range s.subscribers {
		alive := subs[:0]
		for _, sub := range subs {
			if !sub.Closed() {
				alive = append(alive, sub)
			}
		}
		if len(alive) == 0 {
			delete(s.subscribers, key)
		} else {
			s.subscribers[key] = alive
		}
	}
}
