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

package scheduler

import "github.com/suololololo/AsyncRPC/task"

// NoWorker marks an Entry as unpinned: any worker may run it.
const NoWorker = -1

// Entry is one item of the ready queue. It carries either an existing
// Task (resubmission of something that yielded READY) or a fresh
// closure, which the worker lazily wraps into a Task the first time it
// runs.
type Entry struct {
	Worker int
	Task   *task.Task
	Fn     task.Entry
}

// ForTask builds an Entry resubmitting an existing task.
func ForTask(t *task.Task) *Entry {
	return &Entry{Worker: t.Worker(), Task: t}
}

// ForFunc builds an Entry around a fresh closure, pinned to worker (or
// NoWorker).
func ForFunc(worker int, fn task.Entry) *Entry {
	return &Entry{Worker: worker, Fn: fn}
}

func (e *Entry) resolve() *task.Task {
	if e.Task != nil {
		return e.Task
	}
	t := task.New(e.Fn, e.Worker)
	e.Task = t
	return t
}
