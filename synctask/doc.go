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

// Package synctask provides synchronization primitives for tasks rather
// than goroutines: Mutex, Cond, Semaphore and Chan all suspend the
// calling task (via YieldToSuspended) and hand it back to the scheduler
// through a Resubmit callback instead of blocking an OS thread.
//
// A goroutine-blocking primitive like sync.Mutex or
// golang.org/x/sync/semaphore cannot be reused here: blocking the
// task's own goroutine would also starve the worker that called Resume
// on it, since Resume doesn't return until the task yields. Every wait
// in this package goes through Task.YieldToSuspended and a Resubmit
// call instead, so the worker that had been running the blocked task is
// immediately free to run something else.
package synctask
