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

package reactor

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/suololololo/AsyncRPC/scheduler"
	"github.com/suololololo/AsyncRPC/task"
	"github.com/suololololo/AsyncRPC/timer"
)

const softCap = 3 * time.Second

type registration struct {
	mask   Event
	wakers map[Event]Waker
}

// Reactor specializes scheduler.Scheduler: its idle wait is an
// epoll_wait bounded by the timer wheel instead of a sleep.
type Reactor struct {
	*scheduler.Scheduler

	Timers *timer.Wheel
	log    logrus.FieldLogger

	epfd   int
	evfd   int // eventfd, used as the self-pipe for Notify
	closed chan struct{}
	once   sync.Once

	mu   sync.Mutex
	regs map[int]*registration
}

// New creates a Reactor with workers run-loops, its epoll instance and
// its wakeup eventfd. Nothing runs until Start launches the worker
// goroutines.
func New(workers int, log logrus.FieldLogger) (*Reactor, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	evfd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, err
	}

	r := &Reactor{
		Timers: timer.New(),
		log:    log,
		epfd:   epfd,
		evfd:   evfd,
		closed: make(chan struct{}),
		regs:   make(map[int]*registration),
	}

	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, evfd, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(evfd),
	}); err != nil {
		_ = unix.Close(epfd)
		_ = unix.Close(evfd)
		return nil, err
	}

	r.Scheduler = scheduler.New(workers, r, log)
	r.Timers.SetNotifier(r.Notify)
	return r, nil
}

// Close releases the epoll and eventfd descriptors. Call after Stop.
func (r *Reactor) Close() error {
	r.once.Do(func() { close(r.closed) })
	_ = unix.Close(r.evfd)
	return unix.Close(r.epfd)
}

func toEpollMask(e Event) uint32 {
	var m uint32
	if e.has(Read) {
		m |= unix.EPOLLIN
	}
	if e.has(Write) {
		m |= unix.EPOLLOUT
	}
	return m | unix.EPOLLONESHOT
}

// AddEvent arms fd for ev, invoking waker exactly once when it next
// fires or is canceled. Fails with ErrDuplicate if (fd, ev) is already
// armed.
func (r *Reactor) AddEvent(fd int, ev Event, waker Waker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.regs[fd]
	if !ok {
		reg = &registration{wakers: make(map[Event]Waker)}
		r.regs[fd] = reg
	}
	if reg.mask.has(ev) {
		return ErrDuplicate
	}

	op := unix.EPOLL_CTL_MOD
	if reg.mask == 0 {
		op = unix.EPOLL_CTL_ADD
	}
	newMask := reg.mask | ev
	if err := unix.EpollCtl(r.epfd, op, fd, &unix.EpollEvent{
		Events: toEpollMask(newMask),
		Fd:     int32(fd),
	}); err != nil {
		return err
	}

	reg.mask = newMask
	reg.wakers[ev] = waker
	return nil
}

// DelEvent removes the registration for (fd, ev) without invoking its
// waker. Returns whether it had been present.
func (r *Reactor) DelEvent(fd int, ev Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(fd, ev) != nil
}

// CancelEvent removes the registration for (fd, ev) and invokes its
// waker as if it had fired, with ErrCanceled. Used by I/O cancellation
// paths (e.g. a timed-out operation).
func (r *Reactor) CancelEvent(fd int, ev Event) bool {
	r.mu.Lock()
	w := r.removeLocked(fd, ev)
	r.mu.Unlock()
	if w == nil {
		return false
	}
	w(ev, ErrCanceled)
	return true
}

// CancelAll cancels both directions for fd.
func (r *Reactor) CancelAll(fd int) {
	r.CancelEvent(fd, Read)
	r.CancelEvent(fd, Write)
}

// removeLocked must be called with r.mu held. It updates the kernel
// registration and returns the removed waker, or nil if absent.
func (r *Reactor) removeLocked(fd int, ev Event) Waker {
	reg, ok := r.regs[fd]
	if !ok || !reg.mask.has(ev) {
		return nil
	}
	w := reg.wakers[ev]
	delete(reg.wakers, ev)
	reg.mask &^= ev

	if reg.mask == 0 {
		_ = unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil)
		delete(r.regs, fd)
	} else {
		_ = unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{
			Events: toEpollMask(reg.mask),
			Fd:     int32(fd),
		})
	}
	return w
}

// Notify implements scheduler.Idler: it wakes one blocked epoll_wait by
// writing to the eventfd.
func (r *Reactor) Notify() {
	var buf [8]byte
	buf[7] = 1
	_, _ = unix.Write(r.evfd, buf[:])
}

// NextTimeout implements scheduler.Idler: the minimum of the soft cap
// and the next armed timer's delay.
func (r *Reactor) NextTimeout() time.Duration {
	d := r.Timers.NextDelay(time.Now())
	if d < 0 || d > softCap {
		return softCap
	}
	return d
}

// Wait implements scheduler.Idler: block in epoll_wait for up to
// timeout, drain expired timers, and resume everything that became
// ready.
func (r *Reactor) Wait(timeout time.Duration) {
	ms := int(timeout / time.Millisecond)
	if timeout > 0 && ms == 0 {
		ms = 1
	}

	events := make([]unix.EpollEvent, 64)
	n, err := unix.EpollWait(r.epfd, events, ms)
	if err != nil && err != unix.EINTR {
		r.log.WithError(err).Warn("reactor: epoll_wait failed")
	}

	for _, cb := range r.Timers.DrainExpired(time.Now()) {
		cb := cb
		r.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
			cb()
			return nil
		}))
	}

	for i := 0; i < n; i++ {
		fd := int(events[i].Fd)
		if fd == r.evfd {
			var buf [8]byte
			_, _ = unix.Read(r.evfd, buf[:])
			continue
		}
		r.handleReady(fd, events[i].Events)
	}
}

func (r *Reactor) handleReady(fd int, kernelMask uint32) {
	var fired Event
	var ioErr error
	if kernelMask&unix.EPOLLIN != 0 {
		fired |= Read
	}
	if kernelMask&unix.EPOLLOUT != 0 {
		fired |= Write
	}
	if kernelMask&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		ioErr = unix.ECONNRESET

		r.mu.Lock()
		if reg, ok := r.regs[fd]; ok {
			fired |= reg.mask
		}
		r.mu.Unlock()
	}

	r.mu.Lock()
	reg, ok := r.regs[fd]
	if !ok {
		r.mu.Unlock()
		return
	}
	effective := fired & reg.mask
	wakers := make(map[Event]Waker, 2)
	for _, e := range []Event{Read, Write} {
		if effective.has(e) {
			wakers[e] = reg.wakers[e]
			delete(reg.wakers, e)
			reg.mask &^= e
		}
	}
	if reg.mask == 0 {
		_ = unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil)
		delete(r.regs, fd)
	} else if len(wakers) > 0 {
		_ = unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{
			Events: toEpollMask(reg.mask),
			Fd:     int32(fd),
		})
	}
	r.mu.Unlock()

	for e, w := range wakers {
		e, w := e, w
		w(e, ioErr)
	}
}
