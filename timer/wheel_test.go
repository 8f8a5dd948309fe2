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

package timer_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/suololololo/AsyncRPC/timer"
)

var _ = Describe("wheel", func() {
	var w *timer.Wheel

	BeforeEach(func() {
		w = timer.New()
	})

	It("NextDelay reports no deadline on an empty wheel", func() {
		Expect(w.NextDelay(time.Now())).To(Equal(time.Duration(-1)))
	})

	It("DrainExpired fires callbacks in deadline order and keeps the rest", func() {
		var order []int
		base := time.Now()
		w.Add(10*time.Millisecond, func() { order = append(order, 1) })
		w.Add(5*time.Millisecond, func() { order = append(order, 2) })
		w.Add(20*time.Millisecond, func() { order = append(order, 3) })

		for _, cb := range w.DrainExpired(base.Add(15 * time.Millisecond)) {
			cb()
		}
		Expect(order).To(Equal([]int{2, 1}))
		Expect(w.Len()).To(Equal(1))
	})

	It("Cancel removes a pending timer exactly once", func() {
		fired := false
		tm := w.Add(time.Millisecond, func() { fired = true })
		Expect(w.Cancel(tm)).To(BeTrue())
		Expect(w.Cancel(tm)).To(BeFalse())

		for _, cb := range w.DrainExpired(time.Now().Add(time.Second)) {
			cb()
		}
		Expect(fired).To(BeFalse())
	})

	It("a recurring timer re-arms itself after every drain", func() {
		count := 0
		base := time.Now()
		w.AddRecurring(10*time.Millisecond, func() { count++ })

		for _, cb := range w.DrainExpired(base.Add(25 * time.Millisecond)) {
			cb()
		}
		Expect(count).To(Equal(1))
		Expect(w.Len()).To(Equal(1))

		for _, cb := range w.DrainExpired(base.Add(45 * time.Millisecond)) {
			cb()
		}
		Expect(count).To(Equal(2))
	})

	It("a conditional timer is a no-op once its guard is dead", func() {
		g := timer.NewGuard()
		ran := false
		w.AddConditional(time.Millisecond, g, func() { ran = true })
		g.Invalidate()

		for _, cb := range w.DrainExpired(time.Now().Add(time.Second)) {
			cb()
		}
		Expect(ran).To(BeFalse())
	})

	It("Refresh moves a pending deadline without firing it", func() {
		fired := false
		tm := w.Add(5*time.Millisecond, func() { fired = true })
		Expect(w.Refresh(tm, time.Hour)).To(BeTrue())

		for _, cb := range w.DrainExpired(time.Now().Add(10 * time.Millisecond)) {
			cb()
		}
		Expect(fired).To(BeFalse())
		Expect(w.Len()).To(Equal(1))
	})
})
