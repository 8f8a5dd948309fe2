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

package iohook

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/suololololo/AsyncRPC/reactor"
	"github.com/suololololo/AsyncRPC/scheduler"
	"github.com/suololololo/AsyncRPC/task"
	"github.com/suololololo/AsyncRPC/timer"
)

// Hooks binds the syscall-interposition layer to one Reactor. Every
// socket fd used cooperatively must be registered with Watch before its
// first Read/Write/Connect call.
type Hooks struct {
	r *reactor.Reactor

	// connectTimeout bounds every cooperative Connect, process-wide,
	// in nanoseconds. Zero (the default) means unbounded. Send and
	// receive timeouts are per-descriptor on FileContext; connect is
	// intentionally the odd one out.
	connectTimeout atomic.Int64

	mu    sync.Mutex
	files map[int]*FileContext

	// Enabled gates the whole transform: when false, every call goes
	// straight to the syscall, same as an unhooked thread.
	Enabled bool
}

// New binds a Hooks layer to r with hooking enabled.
func New(r *reactor.Reactor) *Hooks {
	return &Hooks{r: r, files: make(map[int]*FileContext), Enabled: true}
}

// SetConnectTimeout sets the process-wide connect timeout. Zero means
// unbounded.
func (h *Hooks) SetConnectTimeout(d time.Duration) {
	h.connectTimeout.Store(int64(d))
}

// ConnectTimeout returns the process-wide connect timeout.
func (h *Hooks) ConnectTimeout() time.Duration {
	return time.Duration(h.connectTimeout.Load())
}

// Watch registers fd as a socket under cooperative hooking, putting the
// kernel fd into non-blocking mode on first observation.
func (h *Hooks) Watch(fd int) (*FileContext, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if fc, ok := h.files[fd]; ok {
		return fc, nil
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, err
	}
	fc := newFileContext(fd, true)
	fc.sysNonBlock = true
	h.files[fd] = fc
	return fc, nil
}

func (h *Hooks) lookup(fd int) *FileContext {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.files[fd]
}

// Close cancels every registered event on fd, discards its file context
// and closes the kernel descriptor.
func (h *Hooks) Close(fd int) error {
	h.mu.Lock()
	fc, ok := h.files[fd]
	delete(h.files, fd)
	h.mu.Unlock()

	if ok {
		h.r.CancelAll(fd)
		fc.markClosed()
	}
	return unix.Close(fd)
}

type timeoutCell struct {
	mu  sync.Mutex
	set bool
	err error
}

func (c *timeoutCell) fire(err error) {
	c.mu.Lock()
	c.set = true
	c.err = err
	c.mu.Unlock()
}

func (c *timeoutCell) get() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set, c.err
}

// transform is the generic blocking-call adapter: call op
// once; retry on EINTR; on EAGAIN, arm a timeout (if any) and a reactor
// event, suspend self, and retry on wake.
func (h *Hooks) transform(self *task.Task, fc *FileContext, ev reactor.Event, timeout time.Duration, op func() (int, error)) (int, error) {
	if !h.Enabled || self == nil || fc == nil || !fc.isSocket || fc.Nonblock() {
		return op()
	}

	for {
		n, err := op()
		if err == nil {
			return n, nil
		}
		if err == unix.EINTR {
			continue
		}
		if err != unix.EAGAIN && err != unix.EWOULDBLOCK {
			return 0, err
		}

		cell := &timeoutCell{}
		var tm *timerHandle
		if timeout > 0 {
			tm = h.armTimeout(fc, ev, timeout, cell)
		}

		var wakeErr error
		armErr := h.r.AddEvent(fc.fd, reactorEvent(ev), func(fired reactor.Event, ierr error) {
			wakeErr = ierr
			if self.MarkReady() {
				h.r.Submit(scheduler.ForTask(self))
			}
		})
		if armErr != nil {
			if tm != nil {
				tm.cancel()
			}
			return 0, armErr
		}

		self.YieldToSuspended()

		if tm != nil {
			tm.cancel()
		}
		// A timeout firing cancels the reactor registration, which also
		// wakes it with ErrCanceled; the timeout is the reason, so it
		// takes priority over that secondary cancellation error.
		if timedOut, terr := cell.get(); timedOut {
			return 0, terr
		}
		if wakeErr != nil {
			return 0, wakeErr
		}
	}
}

type timerHandle struct {
	cancel func()
}

func (h *Hooks) armTimeout(fc *FileContext, ev Direction, d time.Duration, cell *timeoutCell) *timerHandle {
	guard := timer.NewGuard()
	fc.addGuard(guard)
	t := h.r.Timers.AddConditional(d, guard, func() {
		cell.fire(unix.ETIMEDOUT)
		h.r.CancelEvent(fc.fd, reactorEvent(ev))
	})
	return &timerHandle{cancel: func() {
		guard.Invalidate()
		h.r.Timers.Cancel(t)
	}}
}

// Direction mirrors reactor.Event at the hook layer so this package
// doesn't force every caller to import reactor just to say READ or
// WRITE.
type Direction = reactor.Event

const (
	DirRead  = reactor.Read
	DirWrite = reactor.Write
)

func reactorEvent(d Direction) reactor.Event { return d }

// Read performs a cooperative read(2) on fc, suspending the calling
// task on EAGAIN instead of blocking the worker.
func (h *Hooks) Read(self *task.Task, fc *FileContext, p []byte) (int, error) {
	return h.transform(self, fc, DirRead, fc.recvTimeoutValue(), func() (int, error) {
		return unix.Read(fc.fd, p)
	})
}

// Write performs a cooperative write(2).
func (h *Hooks) Write(self *task.Task, fc *FileContext, p []byte) (int, error) {
	return h.transform(self, fc, DirWrite, fc.sendTimeoutValue(), func() (int, error) {
		return unix.Write(fc.fd, p)
	})
}

// Connect performs a cooperative connect(2): the initial call almost
// always returns EINPROGRESS (treated like EAGAIN here) under a
// non-blocking socket, so the transform suspends on writability, then
// Connect reads SO_ERROR to learn whether it actually succeeded.
func (h *Hooks) Connect(self *task.Task, fc *FileContext, sa unix.Sockaddr) error {
	first := true
	_, err := h.transform(self, fc, DirWrite, h.ConnectTimeout(), func() (int, error) {
		if !first {
			return 0, nil
		}
		first = false
		cerr := unix.Connect(fc.fd, sa)
		if cerr == unix.EINPROGRESS || cerr == unix.EALREADY {
			return 0, unix.EAGAIN
		}
		return 0, cerr
	})
	if err != nil {
		return err
	}
	soErr, gerr := unix.GetsockoptInt(fc.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if gerr != nil {
		return gerr
	}
	if soErr != 0 {
		return unix.Errno(soErr)
	}
	return nil
}

// Accept performs a cooperative accept4(2).
func (h *Hooks) Accept(self *task.Task, fc *FileContext) (int, unix.Sockaddr, error) {
	var connFD int
	var addr unix.Sockaddr
	_, err := h.transform(self, fc, DirRead, fc.recvTimeoutValue(), func() (int, error) {
		nfd, sa, aerr := unix.Accept4(fc.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if aerr != nil {
			return 0, aerr
		}
		connFD, addr = nfd, sa
		return 0, nil
	})
	if err != nil {
		return 0, nil, err
	}
	return connFD, addr, nil
}
