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

package pool

import (
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/suololololo/AsyncRPC/buffer"
	"github.com/suololololo/AsyncRPC/codec"
	"github.com/suololololo/AsyncRPC/iohook"
	"github.com/suololololo/AsyncRPC/reactor"
	"github.com/suololololo/AsyncRPC/registry"
	"github.com/suololololo/AsyncRPC/rpc/client"
	"github.com/suololololo/AsyncRPC/rpcerr"
	"github.com/suololololo/AsyncRPC/scheduler"
	"github.com/suololololo/AsyncRPC/synctask"
	"github.com/suololololo/AsyncRPC/task"
)

// DefaultMaxDials caps how many outbound session dials may be in flight
// at once across the whole pool.
const DefaultMaxDials = 4

// conn is one cached per-service session, remembered with the address
// it was dialed to so a launch=false event for that address can evict
// it.
type conn struct {
	cli  *client.Client
	addr string
}

// Pool resolves service names through the registry and keeps one lazily
// established session per service. The per-service caches are
// guarded by a task mutex; the lock is dropped before any dispatch into
// a session.
type Pool struct {
	r     *reactor.Reactor
	hooks *iohook.Hooks
	log   logrus.FieldLogger

	// Strategy picks among candidate provider addresses. Set before the
	// first call.
	Strategy Strategy

	// CallTimeout is handed to every session the pool dials.
	CallTimeout time.Duration

	// SendTimeout is applied to every session the pool dials (and to
	// the registry connection), bounding socket writes. Zero means
	// unbounded.
	SendTimeout time.Duration

	resubmit synctask.Resubmit
	registry *client.Client
	dialSem  *semaphore.Weighted

	hostHash uint32
	hostOK   bool

	mu         *synctask.Mutex
	sessions   map[string]*conn
	addrs      map[string][]string
	subscribed map[string]bool
	rr         map[string]int
}

// New returns a Pool; call Connect to attach it to a registry before
// the first Call.
func New(r *reactor.Reactor, hooks *iohook.Hooks, log logrus.FieldLogger) *Pool {
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &Pool{
		r:           r,
		hooks:       hooks,
		log:         log.WithField("component", "pool"),
		CallTimeout: client.DefaultCallTimeout,
		dialSem:     semaphore.NewWeighted(DefaultMaxDials),
		sessions:    make(map[string]*conn),
		addrs:       make(map[string][]string),
		subscribed:  make(map[string]bool),
		rr:          make(map[string]int),
	}
	p.hostHash, p.hostOK = localHostHash()
	p.resubmit = func(t *task.Task) { r.Submit(scheduler.ForTask(t)) }
	p.mu = synctask.NewMutex(p.resubmit)
	return p
}

// Connect dials the registry. The connection is reused for every
// discovery and lifecycle subscription the pool issues.
func (p *Pool) Connect(self *task.Task, registryAddr string) error {
	cli, err := client.DialTask(self, p.r, p.hooks, registryAddr, p.log)
	if err != nil {
		return err
	}
	cli.CallTimeout = p.CallTimeout
	if p.SendTimeout > 0 {
		cli.SetSendTimeout(p.SendTimeout)
	}
	p.registry = cli
	return nil
}

// Close drops the registry connection and every cached session.
func (p *Pool) Close() {
	if p.registry != nil {
		_ = p.registry.Close()
	}
	for _, c := range p.sessions {
		_ = c.cli.Close()
	}
}

// Call resolves name to a provider session and invokes the method on
// it: cached session first, then cached addresses, then a registry
// discover; the first resolution of a name also subscribes to its
// lifecycle key so the cache tracks providers joining and leaving.
func (p *Pool) Call(self *task.Task, name string, ret codec.Unmarshaler, args ...codec.Marshaler) error {
	p.mu.Lock(self)
	cached := p.sessions[name]
	p.mu.Unlock(self)

	if cached != nil {
		err := cached.cli.Call(self, name, ret, args...)
		if !rpcerr.IsCode(err, rpcerr.Closed) {
			return err
		}
		p.evict(self, name, cached)
	}

	addrs, err := p.resolve(self, name)
	if err != nil {
		return err
	}
	if len(addrs) == 0 {
		return rpcerr.NoMethod.Error()
	}

	addr := p.pick(self, name, addrs)
	cli, err := p.dial(self, addr)
	if err != nil {
		return rpcerr.Closed.Errorf("dial "+addr, err)
	}
	cli.CallTimeout = p.CallTimeout

	p.mu.Lock(self)
	p.sessions[name] = &conn{cli: cli, addr: addr}
	p.mu.Unlock(self)

	return cli.Call(self, name, ret, args...)
}

// AsyncCall submits a task that performs Call and fills a one-slot
// channel with its outcome; the caller receives from the channel at its
// leisure.
func (p *Pool) AsyncCall(name string, ret codec.Unmarshaler, args ...codec.Marshaler) *synctask.Chan[error] {
	ch := synctask.NewChan[error](1, p.resubmit, p.r.Timers)
	p.r.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
		return ch.Send(self, p.Call(self, name, ret, args...), p.resubmit)
	}))
	return ch
}

// CachedAddrs returns the pool's current address cache for name.
func (p *Pool) CachedAddrs(self *task.Task, name string) []string {
	p.mu.Lock(self)
	defer p.mu.Unlock(self)
	return append([]string(nil), p.addrs[name]...)
}

func (p *Pool) evict(self *task.Task, name string, c *conn) {
	p.mu.Lock(self)
	if p.sessions[name] == c {
		delete(p.sessions, name)
	}
	p.mu.Unlock(self)
}

// resolve returns the candidate addresses for name, querying the
// registry when the cache is empty and installing the lifecycle
// subscription on first touch.
func (p *Pool) resolve(self *task.Task, name string) ([]string, error) {
	p.mu.Lock(self)
	cached := append([]string(nil), p.addrs[name]...)
	needSub := !p.subscribed[name]
	if needSub {
		p.subscribed[name] = true
	}
	p.mu.Unlock(self)

	if p.registry == nil {
		return nil, rpcerr.Closed.Errorf("pool not connected to a registry")
	}

	if needSub {
		if err := p.subscribeLifecycle(self, name); err != nil {
			p.mu.Lock(self)
			p.subscribed[name] = false
			p.mu.Unlock(self)
			return nil, err
		}
	}

	if len(cached) > 0 {
		return cached, nil
	}

	addrs, err := p.registry.Discover(self, name)
	if rpcerr.IsCode(err, rpcerr.NoMethod) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.mu.Lock(self)
	p.addrs[name] = append([]string(nil), addrs...)
	p.mu.Unlock(self)
	return addrs, nil
}

// subscribeLifecycle tracks providers of name joining and leaving: a
// launch event appends the address, a withdrawal removes it and evicts
// any cached session that was dialed to it.
func (p *Pool) subscribeLifecycle(self *task.Task, name string) error {
	key := registry.SubscribeKey(name)
	return p.registry.Subscribe(self, key, func(cb *task.Task, dec *buffer.Buffer) {
		var ev registry.ProviderEvent
		if err := ev.UnmarshalRPC(dec); err != nil {
			return
		}

		var evicted *client.Client
		p.mu.Lock(cb)
		list := p.addrs[name]
		if ev.Launch {
			known := false
			for _, a := range list {
				if a == ev.Addr {
					known = true
					break
				}
			}
			if !known {
				p.addrs[name] = append(list, ev.Addr)
			}
		} else {
			for i, a := range list {
				if a == ev.Addr {
					p.addrs[name] = append(list[:i], list[i+1:]...)
					break
				}
			}
			if c := p.sessions[name]; c != nil && c.addr == ev.Addr {
				delete(p.sessions, name)
				evicted = c.cli
			}
		}
		p.mu.Unlock(cb)

		if evicted != nil {
			_ = evicted.Close()
		}
		p.log.WithField("service", name).WithField("provider", ev.Addr).WithField("launch", ev.Launch).Debug("provider lifecycle event")
	})
}

func (p *Pool) pick(self *task.Task, name string, addrs []string) string {
	p.mu.Lock(self)
	rr := p.rr[name]
	p.rr[name] = rr + 1
	p.mu.Unlock(self)
	return addrs[pickIndex(p.Strategy, p.hostHash, p.hostOK, rr, len(addrs))]
}

// dial opens a session under the dial cap. The semaphore is tried
// rather than awaited so a capped-out dial yields the task instead of
// blocking the worker thread under it.
func (p *Pool) dial(self *task.Task, addr string) (*client.Client, error) {
	for !p.dialSem.TryAcquire(1) {
		self.Yield()
	}
	defer p.dialSem.Release(1)
	cli, err := client.DialTask(self, p.r, p.hooks, addr, p.log)
	if err != nil {
		return nil, err
	}
	if p.SendTimeout > 0 {
		cli.SetSendTimeout(p.SendTimeout)
	}
	return cli, nil
}
