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

package timer

import (
	"container/heap"
	"sync"
	"time"
)

// Callback is invoked when a Timer expires.
type Callback func()

// Timer is a single scheduled entry. The zero value is not meaningful;
// obtain one from Wheel.Add/AddRecurring/AddConditional.
type Timer struct {
	seq      uint64
	fireAt   time.Time
	interval time.Duration // 0 for one-shot
	cb       Callback
	index    int // heap index, -1 when not queued
	canceled bool
}

type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].fireAt.Equal(h[j].fireAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].fireAt.Before(h[j].fireAt)
}
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// Wheel is the ordered deadline set the reactor drains on every wake.
type Wheel struct {
	mu     sync.Mutex
	h      timerHeap
	nextID uint64
	wake   chan struct{}
	notify func()
}

// New returns an empty Wheel.
func New() *Wheel {
	return &Wheel{h: make(timerHeap, 0), wake: make(chan struct{}, 1)}
}

// SetNotifier registers fn to be called whenever an insertion (or a
// refresh) becomes the new head deadline, so a reactor blocked in its
// wait re-computes the bound. The Drive loop needs no notifier; it
// watches the wake channel instead.
func (w *Wheel) SetNotifier(fn func()) {
	w.mu.Lock()
	w.notify = fn
	w.mu.Unlock()
}

func (w *Wheel) insert(now time.Time, d time.Duration, interval time.Duration, cb Callback) *Timer {
	w.mu.Lock()
	w.nextID++
	t := &Timer{
		seq:      w.nextID,
		fireAt:   now.Add(d),
		interval: interval,
		cb:       cb,
	}
	heap.Push(&w.h, t)
	newHead := w.h[0] == t
	notify := w.notify
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	if newHead && notify != nil {
		notify()
	}
	return t
}

// Drive runs a standalone driver loop for callers with no Reactor to
// pump the wheel for them (synctask's Cond.WaitFor and Semaphore
// deadlines, in particular). It blocks until stop is closed. A Reactor
// drains the same wheel itself as part of its epoll wait and must not
// also call Drive on it.
func (w *Wheel) Drive(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		d := w.NextDelay(time.Now())
		if d < 0 {
			d = time.Hour
		}
		timer := time.NewTimer(d)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
		case <-w.wake:
			timer.Stop()
		}

		for _, cb := range w.DrainExpired(time.Now()) {
			cb()
		}
	}
}

// Add inserts a one-shot timer firing after d.
func (w *Wheel) Add(d time.Duration, cb Callback) *Timer {
	return w.insert(time.Now(), d, 0, cb)
}

// AddRecurring inserts a timer that re-arms itself for another d every
// time it fires, until Cancel is called.
func (w *Wheel) AddRecurring(d time.Duration, cb Callback) *Timer {
	return w.insert(time.Now(), d, d, cb)
}

// AddConditional inserts a one-shot timer whose callback only runs if
// guard is still alive when the timer fires.
func (w *Wheel) AddConditional(d time.Duration, guard *Guard, cb Callback) *Timer {
	return w.Add(d, func() {
		if guard.Alive() {
			cb()
		}
	})
}

// Cancel removes t from the wheel. Returns false if t had already fired
// or was already canceled.
func (w *Wheel) Cancel(t *Timer) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t.canceled || t.index < 0 || t.index >= len(w.h) || w.h[t.index] != t {
		return false
	}
	heap.Remove(&w.h, t.index)
	t.canceled = true
	return true
}

// Refresh re-arms t to fire d from now, re-inserting it at its new heap
// position in O(log n). Returns false if t had already fired or was
// canceled.
func (w *Wheel) Refresh(t *Timer, d time.Duration) bool {
	w.mu.Lock()
	if t.canceled || t.index < 0 || t.index >= len(w.h) || w.h[t.index] != t {
		w.mu.Unlock()
		return false
	}
	t.fireAt = time.Now().Add(d)
	heap.Fix(&w.h, t.index)
	newHead := w.h[0] == t
	notify := w.notify
	w.mu.Unlock()

	if newHead && notify != nil {
		notify()
	}
	return true
}

// NextDelay returns how long the reactor may safely block: the time
// until the head timer fires, clamped to zero, or -1 if the wheel is
// empty (no deadline to wait for).
func (w *Wheel) NextDelay(now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.h) == 0 {
		return -1
	}
	d := w.h[0].fireAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// DrainExpired pops every timer with fireAt <= now, returning their
// callbacks in fire order. Recurring timers are popped and immediately
// re-inserted for their next interval rather than returned twice.
func (w *Wheel) DrainExpired(now time.Time) []Callback {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []Callback
	for len(w.h) > 0 && !w.h[0].fireAt.After(now) {
		t := heap.Pop(&w.h).(*Timer)
		out = append(out, t.cb)
		if t.interval > 0 && !t.canceled {
			t.fireAt = now.Add(t.interval)
			heap.Push(&w.h, t)
		}
	}
	return out
}

// Len returns the number of timers currently armed.
func (w *Wheel) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.h)
}
