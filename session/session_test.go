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

package session_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/suololololo/AsyncRPC/codec"
	"github.com/suololololo/AsyncRPC/iohook"
	"github.com/suololololo/AsyncRPC/reactor"
	"github.com/suololololo/AsyncRPC/scheduler"
	"github.com/suololololo/AsyncRPC/session"
	"github.com/suololololo/AsyncRPC/synctask"
	"github.com/suololololo/AsyncRPC/task"
)

func newPairedSessions(t *testing.T) (*reactor.Reactor, *session.Session, *session.Session) {
	t.Helper()
	r, err := reactor.New(4, nil)
	require.NoError(t, err)
	r.Start()
	t.Cleanup(func() {
		r.Stop()
		_ = r.Close()
	})

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)

	h := iohook.New(r)
	fcA, err := h.Watch(fds[0])
	require.NoError(t, err)
	fcB, err := h.Watch(fds[1])
	require.NoError(t, err)

	resubmit := func(t *task.Task) { r.Submit(scheduler.ForTask(t)) }
	return r, session.New(h, fcA, synctask.Resubmit(resubmit)), session.New(h, fcB, synctask.Resubmit(resubmit))
}

func TestSendFrameRoundTrip(t *testing.T) {
	r, a, b := newPairedSessions(t)

	var wg sync.WaitGroup
	wg.Add(2)

	var got codec.Frame
	var recvErr error
	r.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
		got, recvErr = b.RecvFrame(self)
		wg.Done()
		return nil
	}))

	var sendErr error
	r.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
		sendErr = a.SendFrame(self, codec.Frame{Type: codec.MethodRequest, Seq: 7, Body: []byte("payload")})
		wg.Done()
		return nil
	}))

	waitGroup(t, &wg, 2*time.Second)
	require.NoError(t, sendErr)
	require.NoError(t, recvErr)
	require.Equal(t, codec.MethodRequest, got.Type)
	require.EqualValues(t, 7, got.Seq)
	require.Equal(t, "payload", string(got.Body))
}

func TestSendFrameSerializesConcurrentSenders(t *testing.T) {
	r, a, b := newPairedSessions(t)

	const n = 20
	var recvWG sync.WaitGroup
	recvWG.Add(1)
	frames := make([]codec.Frame, 0, n)
	var recvErr error
	r.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
		for i := 0; i < n; i++ {
			f, err := b.RecvFrame(self)
			if err != nil {
				recvErr = err
				break
			}
			frames = append(frames, f)
		}
		recvWG.Done()
		return nil
	}))

	var sendWG sync.WaitGroup
	sendWG.Add(n)
	for i := 0; i < n; i++ {
		seq := uint32(i)
		r.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
			err := a.SendFrame(self, codec.Frame{Type: codec.Heartbeat, Seq: seq, Body: []byte("x")})
			require.NoError(t, err)
			sendWG.Done()
			return nil
		}))
	}

	waitGroup(t, &sendWG, 2*time.Second)
	waitGroup(t, &recvWG, 2*time.Second)
	require.NoError(t, recvErr)
	require.Len(t, frames, n)
	for _, f := range frames {
		require.Equal(t, codec.Heartbeat, f.Type)
		require.Equal(t, "x", string(f.Body))
	}
}

func TestRecvFrameReportsClosedOnEOF(t *testing.T) {
	r, a, b := newPairedSessions(t)

	var wg sync.WaitGroup
	wg.Add(1)
	var recvErr error
	r.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
		_, recvErr = b.RecvFrame(self)
		wg.Done()
		return nil
	}))

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, a.Close())

	waitGroup(t, &wg, 2*time.Second)
	require.Error(t, recvErr)
}

func waitGroup(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("timed out")
	}
}
