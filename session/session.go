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

package session

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/suololololo/AsyncRPC/codec"
	"github.com/suololololo/AsyncRPC/iohook"
	"github.com/suololololo/AsyncRPC/synctask"
	"github.com/suololololo/AsyncRPC/task"
)

// ErrClosed is returned by RecvFrame/SendFrame once the peer has closed
// the connection (a zero-length read) or Close has been called locally.
var ErrClosed = errors.New("session: closed")

// Session is one framed connection: read_fixed/write_fixed loops over a
// cooperatively-hooked socket, plus a send mutex so the sender task and
// any publish fan-out never interleave their writes.
type Session struct {
	hooks *iohook.Hooks
	fc    *iohook.FileContext

	sendMu *synctask.Mutex

	closed atomic.Bool
}

// New wraps fc (already Watch'd with hooks) into a framed Session.
func New(hooks *iohook.Hooks, fc *iohook.FileContext, resubmit synctask.Resubmit) *Session {
	return &Session{hooks: hooks, fc: fc, sendMu: synctask.NewMutex(resubmit)}
}

// FD returns the underlying descriptor, for logging and registry
// bookkeeping that keys state on it.
func (s *Session) FD() int { return s.fc.FD() }

// SetSendTimeout bounds every socket write under this session. Zero
// means unbounded.
func (s *Session) SetSendTimeout(d time.Duration) { s.fc.SetSendTimeout(d) }

// SetRecvTimeout bounds every socket read under this session. Zero
// means unbounded; sessions that rely on heartbeats to detect a dead
// peer normally leave this unset so an idle-but-healthy connection is
// not cut.
func (s *Session) SetRecvTimeout(d time.Duration) { s.fc.SetRecvTimeout(d) }

func (s *Session) readFixed(self *task.Task, buf []byte) error {
	n := 0
	for n < len(buf) {
		m, err := s.hooks.Read(self, s.fc, buf[n:])
		if err != nil {
			return err
		}
		if m == 0 {
			return ErrClosed
		}
		n += m
	}
	return nil
}

func (s *Session) writeFixed(self *task.Task, buf []byte) error {
	n := 0
	for n < len(buf) {
		m, err := s.hooks.Write(self, s.fc, buf[n:])
		if err != nil {
			return err
		}
		n += m
	}
	return nil
}

// RecvFrame reads one complete frame: the fixed 11-byte header, then a
// body of the length it specifies.
func (s *Session) RecvFrame(self *task.Task) (codec.Frame, error) {
	if s.closed.Load() {
		return codec.Frame{}, ErrClosed
	}

	header := make([]byte, codec.HeaderSize)
	if err := s.readFixed(self, header); err != nil {
		return codec.Frame{}, err
	}
	h, err := codec.DecodeHeader(header)
	if err != nil {
		return codec.Frame{}, err
	}

	body := make([]byte, h.BodyLen)
	if h.BodyLen > 0 {
		if err := s.readFixed(self, body); err != nil {
			return codec.Frame{}, err
		}
	}
	return codec.Frame{Type: h.Type, Seq: h.Seq, Body: body}, nil
}

// SendFrame serializes f and writes it, holding the send mutex for the
// duration so concurrent callers never interleave their bytes on the
// wire.
func (s *Session) SendFrame(self *task.Task, f codec.Frame) error {
	if s.closed.Load() {
		return ErrClosed
	}
	raw, err := codec.Encode(f)
	if err != nil {
		return err
	}

	s.sendMu.Lock(self)
	defer s.sendMu.Unlock(self)
	return s.writeFixed(self, raw)
}

// Close releases the underlying descriptor. Safe to call more than
// once; only the first call does any work.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.hooks.Close(s.fc.FD())
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool { return s.closed.Load() }
