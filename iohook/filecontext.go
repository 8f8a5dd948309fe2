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

package iohook

import (
	"sync"
	"time"

	"github.com/suololololo/AsyncRPC/timer"
)

// FileContext tracks the per-descriptor state the hook layer needs:
// whether it's a socket, whether it's been closed, the kernel and
// user-visible non-block flags, and the per-direction timeouts.
type FileContext struct {
	fd int

	mu           sync.Mutex
	isSocket     bool
	closed       bool
	sysNonBlock  bool
	userNonBlock bool
	sendTimeout  time.Duration
	recvTimeout  time.Duration
	guards       []*timer.Guard
}

func newFileContext(fd int, isSocket bool) *FileContext {
	return &FileContext{
		fd:          fd,
		isSocket:    isSocket,
		sendTimeout: 0,
		recvTimeout: 0,
	}
}

// FD returns the underlying descriptor.
func (c *FileContext) FD() int { return c.fd }

// SetNonblock sets the user-requested non-blocking flag. The kernel fd
// stays non-blocking regardless (sysNonBlock), so F_GETFL-style queries
// must consult this flag, not the kernel's.
func (c *FileContext) SetNonblock(v bool) {
	c.mu.Lock()
	c.userNonBlock = v
	c.mu.Unlock()
}

// Nonblock reports the user-visible non-blocking flag.
func (c *FileContext) Nonblock() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userNonBlock
}

// SetSendTimeout / SetRecvTimeout set the per-direction timeouts the
// hook consults for this descriptor. Zero means no timeout. The connect
// timeout is deliberately NOT per-descriptor: it lives on Hooks,
// process-wide, defaulting to unbounded.
func (c *FileContext) SetSendTimeout(d time.Duration) {
	c.mu.Lock()
	c.sendTimeout = d
	c.mu.Unlock()
}

func (c *FileContext) SetRecvTimeout(d time.Duration) {
	c.mu.Lock()
	c.recvTimeout = d
	c.mu.Unlock()
}

func (c *FileContext) sendTimeoutValue() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendTimeout
}

func (c *FileContext) recvTimeoutValue() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recvTimeout
}

func (c *FileContext) addGuard(g *timer.Guard) {
	c.mu.Lock()
	c.guards = append(c.guards, g)
	c.mu.Unlock()
}

// markClosed invalidates every outstanding conditional timer guard so a
// timeout that was mid-flight when the descriptor closed becomes a
// no-op instead of touching a reused fd number.
func (c *FileContext) markClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for _, g := range c.guards {
		g.Invalidate()
	}
	c.guards = nil
}

func (c *FileContext) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
