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

import "sync/atomic"

// Guard lets a conditional timer's callback be skipped once the thing it
// would act on is gone, without a cancel round-trip through the wheel.
type Guard struct {
	alive atomic.Bool
}

// NewGuard returns a live Guard.
func NewGuard() *Guard {
	g := &Guard{}
	g.alive.Store(true)
	return g
}

// Invalidate marks the guard dead. Any conditional timer still pending
// against it becomes a no-op the next time it fires.
func (g *Guard) Invalidate() { g.alive.Store(false) }

// Alive reports whether Invalidate has not yet been called.
func (g *Guard) Alive() bool { return g.alive.Load() }
