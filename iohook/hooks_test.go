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

package iohook_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/suololololo/AsyncRPC/iohook"
	"github.com/suololololo/AsyncRPC/reactor"
	"github.com/suololololo/AsyncRPC/scheduler"
	"github.com/suololololo/AsyncRPC/task"
)

func newHooks(t *testing.T) (*reactor.Reactor, *iohook.Hooks) {
	t.Helper()
	r, err := reactor.New(2, nil)
	require.NoError(t, err)
	r.Start()
	t.Cleanup(func() {
		r.Stop()
		_ = r.Close()
	})
	return r, iohook.New(r)
}

func TestReadSuspendsUntilDataArrives(t *testing.T) {
	r, h := newHooks(t)

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	a, b := fds[0], fds[1]
	defer unix.Close(b)

	fc, err := h.Watch(a)
	require.NoError(t, err)
	defer h.Close(a)

	var wg sync.WaitGroup
	wg.Add(1)
	var got []byte
	var readErr error

	r.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
		buf := make([]byte, 5)
		n, err := h.Read(self, fc, buf)
		got = buf[:n]
		readErr = err
		wg.Done()
		return nil
	}))

	time.Sleep(50 * time.Millisecond) // let the reader block on EAGAIN first
	_, err = unix.Write(b, []byte("hello"))
	require.NoError(t, err)

	waitGroup(t, &wg, 2*time.Second)
	require.NoError(t, readErr)
	require.Equal(t, "hello", string(got))
}

func TestReadTimesOut(t *testing.T) {
	r, h := newHooks(t)

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	a, b := fds[0], fds[1]
	defer unix.Close(b)

	fc, err := h.Watch(a)
	require.NoError(t, err)
	defer h.Close(a)
	fc.SetRecvTimeout(20 * time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(1)
	var readErr error

	r.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
		buf := make([]byte, 5)
		_, err := h.Read(self, fc, buf)
		readErr = err
		wg.Done()
		return nil
	}))

	waitGroup(t, &wg, 2*time.Second)
	require.ErrorIs(t, readErr, unix.ETIMEDOUT)
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

func TestWriteTimesOutWhenPeerNeverDrains(t *testing.T) {
	r, h := newHooks(t)

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	a, b := fds[0], fds[1]
	defer unix.Close(b) // b is never read from

	require.NoError(t, unix.SetsockoptInt(a, unix.SOL_SOCKET, unix.SO_SNDBUF, 4096))

	fc, err := h.Watch(a)
	require.NoError(t, err)
	defer h.Close(a)
	fc.SetSendTimeout(30 * time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(1)
	var writeErr error

	r.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
		chunk := make([]byte, 64<<10)
		for {
			if _, err := h.Write(self, fc, chunk); err != nil {
				writeErr = err
				break
			}
		}
		wg.Done()
		return nil
	}))

	waitGroup(t, &wg, 5*time.Second)
	require.ErrorIs(t, writeErr, unix.ETIMEDOUT)
}

// The connect timeout is one process-wide knob on Hooks, not a
// per-descriptor field like the send/receive timeouts.
func TestConnectTimeoutIsProcessWide(t *testing.T) {
	r, h := newHooks(t)

	require.Zero(t, h.ConnectTimeout())
	h.SetConnectTimeout(40 * time.Millisecond)
	require.Equal(t, 40*time.Millisecond, h.ConnectTimeout())

	// a listener with a zero backlog whose queue is already holding a
	// connection never completes further handshakes, so the hooked
	// connect has to run into the configured bound
	lfd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)
	defer unix.Close(lfd)
	sa := &unix.SockaddrInet4{Addr: [4]byte{127, 0, 0, 1}}
	require.NoError(t, unix.Bind(lfd, sa))
	require.NoError(t, unix.Listen(lfd, 0))
	lsa, err := unix.Getsockname(lfd)
	require.NoError(t, err)
	target := lsa.(*unix.SockaddrInet4)

	// saturate the accept queue with raw non-blocking connects
	var fillers []int
	defer func() {
		for _, fd := range fillers {
			unix.Close(fd)
		}
	}()
	for i := 0; i < 3; i++ {
		fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
		require.NoError(t, err)
		fillers = append(fillers, fd)
		_ = unix.Connect(fd, target)
	}
	time.Sleep(20 * time.Millisecond)

	cfd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)
	fc, err := h.Watch(cfd)
	require.NoError(t, err)
	defer h.Close(cfd)

	var wg sync.WaitGroup
	wg.Add(1)
	var connErr error
	r.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
		connErr = h.Connect(self, fc, target)
		wg.Done()
		return nil
	}))
	waitGroup(t, &wg, 5*time.Second)

	if connErr == nil {
		t.Skip("kernel completed the handshake past the saturated backlog")
	}
	if errors.Is(connErr, unix.ECONNREFUSED) {
		t.Skip("kernel aborts on backlog overflow instead of dropping")
	}
	require.ErrorIs(t, connErr, unix.ETIMEDOUT)
}
