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

package client

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/suololololo/AsyncRPC/buffer"
	"github.com/suololololo/AsyncRPC/codec"
	"github.com/suololololo/AsyncRPC/iohook"
	"github.com/suololololo/AsyncRPC/metrics"
	"github.com/suololololo/AsyncRPC/reactor"
	"github.com/suololololo/AsyncRPC/scheduler"
	"github.com/suololololo/AsyncRPC/session"
	"github.com/suololololo/AsyncRPC/synctask"
	"github.com/suololololo/AsyncRPC/task"
	"github.com/suololololo/AsyncRPC/timer"
)

// DefaultHeartbeatInterval is how often the client emits a heartbeat
// frame when auto-heartbeat is on.
const DefaultHeartbeatInterval = 30 * time.Second

// DefaultCallTimeout bounds Call when the caller has not tuned
// CallTimeout on the Client.
const DefaultCallTimeout = 10 * time.Second

// outboundCapacity bounds the sender task's queue; a full queue
// back-pressures callers by suspending them on Send.
const outboundCapacity = 64

// SubscribeFunc is invoked by the receiver task for every PublishRequest
// matching a subscribed key. dec is positioned at the payload, right
// after the key.
type SubscribeFunc func(self *task.Task, dec *buffer.Buffer)

// Client is one RPC connection: a sender task draining the outbound
// queue, a receiver task demultiplexing replies to in-flight calls by
// sequence id, and an optional recurring heartbeat.
type Client struct {
	r     *reactor.Reactor
	hooks *iohook.Hooks
	sess  *session.Session
	log   logrus.FieldLogger

	resubmit synctask.Resubmit
	outbound *synctask.Chan[codec.Frame]

	// CallTimeout bounds every Call/RoundTrip issued through this
	// client. Adjust before the first call.
	CallTimeout time.Duration

	// HeartbeatInterval is the cadence of the auto-heartbeat timer when
	// Start is told to arm one.
	HeartbeatInterval time.Duration

	// Metrics, when set, receives per-call counters. Set before Start.
	Metrics *metrics.Metrics

	nextSeq atomic.Uint32

	mu      sync.Mutex
	pending map[uint32]*synctask.Chan[codec.Frame]
	subs    map[string]SubscribeFunc

	hbGuard       *timer.Guard
	hbTimer       *timer.Timer
	hbOutstanding atomic.Bool

	closed atomic.Bool
}

// New wraps an established session. Call Start to spawn the sender and
// receiver tasks before issuing any call.
func New(r *reactor.Reactor, hooks *iohook.Hooks, sess *session.Session, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Client{
		r:                 r,
		hooks:             hooks,
		sess:              sess,
		log:               log.WithField("component", "rpc.client").WithField("fd", sess.FD()),
		CallTimeout:       DefaultCallTimeout,
		HeartbeatInterval: DefaultHeartbeatInterval,
		pending:           make(map[uint32]*synctask.Chan[codec.Frame]),
		subs:              make(map[string]SubscribeFunc),
	}
	c.resubmit = func(t *task.Task) { r.Submit(scheduler.ForTask(t)) }
	c.outbound = synctask.NewChan[codec.Frame](outboundCapacity, c.resubmit, r.Timers)
	return c
}

// Start spawns the two per-connection tasks and, when autoHeartbeat is
// true, arms the recurring heartbeat timer.
func (c *Client) Start(autoHeartbeat bool) {
	c.r.Submit(scheduler.ForFunc(scheduler.NoWorker, c.senderLoop))
	c.r.Submit(scheduler.ForFunc(scheduler.NoWorker, c.receiverLoop))

	if autoHeartbeat && c.HeartbeatInterval > 0 {
		c.hbGuard = timer.NewGuard()
		guard := c.hbGuard
		c.hbTimer = c.r.Timers.AddRecurring(c.HeartbeatInterval, func() {
			if !guard.Alive() {
				return
			}
			c.heartbeatTick()
		})
	}
}

// heartbeatTick runs on the timer drain, off-task: the frame push is
// handed to a closure task since the outbound queue suspends on full.
func (c *Client) heartbeatTick() {
	if c.hbOutstanding.Load() {
		c.log.Warn("heartbeat unanswered, closing session")
		_ = c.sess.Close()
		return
	}
	c.hbOutstanding.Store(true)
	c.r.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
		seq := c.nextSeq.Add(1)
		_ = c.outbound.Send(self, codec.Frame{Type: codec.Heartbeat, Seq: seq}, c.resubmit)
		return nil
	}))
}

func (c *Client) senderLoop(self *task.Task) error {
	for {
		f, ok := c.outbound.Recv(self, c.resubmit)
		if !ok {
			return nil
		}
		if err := c.sess.SendFrame(self, f); err != nil {
			c.shutdown(self)
			return nil
		}
	}
}

func (c *Client) receiverLoop(self *task.Task) error {
	for {
		f, err := c.sess.RecvFrame(self)
		if err != nil {
			c.shutdown(self)
			return nil
		}
		switch f.Type {
		case codec.MethodResponse, codec.ServiceDiscoverResponse,
			codec.ServiceRegisterResponse, codec.SubscribeResponse:
			c.deliver(self, f)
		case codec.PublishRequest:
			c.handlePublish(self, f)
		case codec.Heartbeat:
			c.hbOutstanding.Store(false)
		}
	}
}

// deliver routes a reply to the in-flight call registered under its
// sequence id; a reply whose call has been abandoned is dropped.
func (c *Client) deliver(self *task.Task, f codec.Frame) {
	c.mu.Lock()
	ch := c.pending[f.Seq]
	c.mu.Unlock()
	if ch == nil {
		return
	}
	_ = ch.Send(self, f, c.resubmit)
}

func (c *Client) handlePublish(self *task.Task, f codec.Frame) {
	buf := buffer.New()
	_, _ = buf.Write(f.Body)
	_ = buf.Seek(0)
	key, err := codec.ReadString(buf)
	if err != nil {
		return
	}

	c.mu.Lock()
	cb := c.subs[key]
	c.mu.Unlock()
	if cb != nil {
		cb(self, buf)
	}
	_ = c.sess.SendFrame(self, codec.Frame{Type: codec.PublishResponse, Seq: f.Seq})
}

// shutdown is the single teardown path, always run on a task: it closes
// the socket, drains the outbound queue, and closes every pending reply
// channel so blocked callers return Closed instead of hanging on a
// reply that can no longer arrive.
func (c *Client) shutdown(self *task.Task) {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	if c.hbGuard != nil {
		c.hbGuard.Invalidate()
		c.r.Timers.Cancel(c.hbTimer)
	}
	_ = c.sess.Close()
	c.outbound.Close(self, c.resubmit)

	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[uint32]*synctask.Chan[codec.Frame])
	c.mu.Unlock()
	for _, ch := range pending {
		ch.Close(self, c.resubmit)
	}
	if c.Metrics != nil {
		c.Metrics.SessionsOpen.Dec()
	}
}

// Close tears the connection down from any goroutine: closing the
// socket wakes the receiver task, which performs the full shutdown.
func (c *Client) Close() error {
	return c.sess.Close()
}

// SetSendTimeout bounds every socket write this client's sender task
// performs, so a peer that never drains its receive buffer cannot park
// the sender forever. Zero means unbounded.
func (c *Client) SetSendTimeout(d time.Duration) { c.sess.SetSendTimeout(d) }

// SetMetrics attaches m to this client and counts the session open.
// Call before issuing any call; the matching gauge decrement happens at
// shutdown.
func (c *Client) SetMetrics(m *metrics.Metrics) {
	c.Metrics = m
	if m != nil {
		m.SessionsOpen.Inc()
	}
}

// Closed reports whether the connection has been torn down.
func (c *Client) Closed() bool { return c.closed.Load() }

// PendingCalls reports the number of in-flight calls still registered;
// it must drain back to zero once every caller has returned.
func (c *Client) PendingCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
