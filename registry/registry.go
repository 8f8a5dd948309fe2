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

package registry

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

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

// DefaultSweepInterval is how often dead subscriber sessions are pruned.
const DefaultSweepInterval = 5 * time.Second

// Registry is the service listing server. Both maps are guarded by a
// single task mutex: mutations are short, so fine-grained locking buys
// nothing.
type Registry struct {
	r        *reactor.Reactor
	hooks    *iohook.Hooks
	resubmit synctask.Resubmit
	log      logrus.FieldLogger

	SweepInterval time.Duration

	// SendTimeout bounds every socket write on accepted connections;
	// it keeps a stalled subscriber from parking a lifecycle publish
	// forever. Zero means unbounded.
	SendTimeout time.Duration

	// Metrics, when set, tracks the service and subscriber populations.
	Metrics *metrics.Metrics

	mu          *synctask.Mutex
	services    map[string][]string // service name -> provider addresses
	subscribers map[string][]*session.Session

	listenFD   int
	listenFC   *iohook.FileContext
	listenAddr string

	sweepGuard *timer.Guard
}

// New returns a Registry driven by r's reactor and hooks.
func New(r *reactor.Reactor, hooks *iohook.Hooks, log logrus.FieldLogger) *Registry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	g := &Registry{
		r:             r,
		hooks:         hooks,
		log:           log.WithField("component", "registry"),
		SweepInterval: DefaultSweepInterval,
		services:      make(map[string][]string),
		subscribers:   make(map[string][]*session.Session),
	}
	g.resubmit = func(t *task.Task) { r.Submit(scheduler.ForTask(t)) }
	g.mu = synctask.NewMutex(g.resubmit)
	return g
}

// Addr returns the address Listen bound to.
func (g *Registry) Addr() string { return g.listenAddr }

// Listen opens the TCP listener and arms the subscriber sweeper. Same
// File/Dup adoption idiom as the RPC server's listener.
func (g *Registry) Listen(address string) error {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		_ = ln.Close()
		return fmt.Errorf("registry: %q did not resolve to a TCP listener", address)
	}
	g.listenAddr = tcpLn.Addr().String()

	f, err := tcpLn.File()
	if err != nil {
		_ = tcpLn.Close()
		return err
	}
	ownFD, err := unix.Dup(int(f.Fd()))
	_ = f.Close()
	_ = tcpLn.Close()
	if err != nil {
		return err
	}

	fc, err := g.hooks.Watch(ownFD)
	if err != nil {
		_ = unix.Close(ownFD)
		return err
	}
	g.listenFD = ownFD
	g.listenFC = fc

	guard := timer.NewGuard()
	g.sweepGuard = guard
	g.r.Timers.AddRecurring(g.SweepInterval, func() {
		if !guard.Alive() {
			return
		}
		// the maps are under a task mutex, so the prune runs as a task
		g.r.Submit(scheduler.ForFunc(scheduler.NoWorker, g.pruneSubscribers))
	})
	return nil
}

// Close stops accepting and releases the listening descriptor.
func (g *Registry) Close() error {
	if g.sweepGuard != nil {
		g.sweepGuard.Invalidate()
	}
	if g.listenFC == nil {
		return nil
	}
	return g.hooks.Close(g.listenFD)
}

// AcceptLoop is the acceptor task entry. The peer's host is captured at
// accept time; a later ProviderAnnounce combines it with the announced
// port to form the provider address.
func (g *Registry) AcceptLoop(self *task.Task) error {
	for {
		fd, sa, err := g.hooks.Accept(self, g.listenFC)
		if err != nil {
			return err
		}
		fc, werr := g.hooks.Watch(fd)
		if werr != nil {
			_ = unix.Close(fd)
			continue
		}
		if g.SendTimeout > 0 {
			fc.SetSendTimeout(g.SendTimeout)
		}
		host := peerHost(sa)
		sess := session.New(g.hooks, fc, g.resubmit)
		g.r.Submit(scheduler.ForFunc(scheduler.NoWorker, func(conn *task.Task) error {
			return g.handleConn(conn, sess, host)
		}))
	}
}

func peerHost(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return net.IP(a.Addr[:]).String()
	case *unix.SockaddrInet6:
		return net.IP(a.Addr[:]).String()
	}
	return ""
}

// handleConn is the per-connection state machine. registered
// plays the role of the reverse index: the services this connection's
// provider put in the map, so teardown withdraws exactly those in O(k).
func (g *Registry) handleConn(self *task.Task, sess *session.Session, peer string) error {
	providerAddr := ""
	var registered []string

	defer func() {
		g.dropProvider(self, providerAddr, registered)
		_ = sess.Close()
	}()

	for {
		f, err := sess.RecvFrame(self)
		if err != nil {
			return nil
		}

		switch f.Type {
		case codec.Heartbeat:
			_ = sess.SendFrame(self, codec.Frame{Type: codec.Heartbeat, Seq: f.Seq})

		case codec.ProviderAnnounce:
			port, derr := readPort(f.Body)
			if derr != nil {
				continue // a decode error never fails the client
			}
			providerAddr = net.JoinHostPort(peer, strconv.Itoa(int(port)))

		case codec.ServiceRegister:
			name, derr := readName(f.Body)
			if derr != nil || providerAddr == "" {
				continue
			}
			g.mu.Lock(self)
			g.services[name] = append(g.services[name], providerAddr)
			g.mu.Unlock(self)
			registered = append(registered, name)
			if g.Metrics != nil {
				g.Metrics.ServicesRegistered.Inc()
			}
			g.log.WithField("service", name).WithField("provider", providerAddr).Info("service registered")

			rb := buffer.New()
			codec.WriteResult(rb, codec.Success, "", name, codec.WriteString)
			_ = rb.Seek(0)
			_ = sess.SendFrame(self, codec.Frame{Type: codec.ServiceDiscoverResponse, Seq: f.Seq, Body: rb.Bytes()})

			g.publish(self, SubscribeKey(name), ProviderEvent{Launch: true, Addr: providerAddr})

		case codec.ServiceDiscover:
			name, derr := readName(f.Body)
			if derr != nil {
				continue
			}
			g.mu.Lock(self)
			addrs := append([]string(nil), g.services[name]...)
			g.mu.Unlock(self)

			rb := buffer.New()
			codec.WriteString(rb, name)
			if len(addrs) == 0 {
				rb.WriteVarint64(1)
				codec.WriteResult(rb, codec.NoMethod, "no provider for service: "+name, "", codec.WriteString)
			} else {
				rb.WriteVarint64(uint64(len(addrs)))
				for _, addr := range addrs {
					codec.WriteResult(rb, codec.Success, "", addr, codec.WriteString)
				}
			}
			_ = rb.Seek(0)
			_ = sess.SendFrame(self, codec.Frame{Type: codec.ServiceDiscoverResponse, Seq: f.Seq, Body: rb.Bytes()})

		case codec.SubscribeRequest:
			key, derr := readName(f.Body)
			if derr != nil {
				continue
			}
			g.mu.Lock(self)
			g.subscribers[key] = append(g.subscribers[key], sess)
			g.mu.Unlock(self)
			if g.Metrics != nil {
				g.Metrics.SubscribersActive.Inc()
			}

			rb := buffer.New()
			codec.WriteResultHeader(rb, codec.Success, "")
			_ = rb.Seek(0)
			_ = sess.SendFrame(self, codec.Frame{Type: codec.SubscribeResponse, Seq: f.Seq, Body: rb.Bytes()})
		}
	}
}

func readName(body []byte) (string, error) {
	b := buffer.New()
	_, _ = b.Write(body)
	_ = b.Seek(0)
	return codec.ReadString(b)
}

func readPort(body []byte) (uint32, error) {
	b := buffer.New()
	_, _ = b.Write(body)
	_ = b.Seek(0)
	return b.ReadVarint32()
}

// dropProvider withdraws every service the closing connection had
// registered and publishes launch=false to each one's lifecycle key.
func (g *Registry) dropProvider(self *task.Task, addr string, names []string) {
	if addr == "" {
		return
	}
	for _, name := range names {
		g.mu.Lock(self)
		list := g.services[name]
		for i, a := range list {
			if a == addr {
				list = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(list) == 0 {
			delete(g.services, name)
		} else {
			g.services[name] = list
		}
		g.mu.Unlock(self)
		if g.Metrics != nil {
			g.Metrics.ServicesRegistered.Dec()
		}
		g.log.WithField("service", name).WithField("provider", addr).Info("provider withdrawn")
		g.publish(self, SubscribeKey(name), ProviderEvent{Launch: false, Addr: addr})
	}
}

// publish fans key/ev out to every live subscriber of key.
func (g *Registry) publish(self *task.Task, key string, ev ProviderEvent) {
	b := buffer.New()
	codec.WriteString(b, key)
	ev.MarshalRPC(b)
	_ = b.Seek(0)
	body := b.Bytes()

	g.mu.Lock(self)
	subs := append([]*session.Session(nil), g.subscribers[key]...)
	g.mu.Unlock(self)

	for _, sub := range subs {
		if sub.Closed() {
			continue
		}
		_ = sub.SendFrame(self, codec.Frame{Type: codec.PublishRequest, Body: body})
	}
}

func (g *Registry) pruneSubscribers(self *task.Task) error {
	g.mu.Lock(self)
	defer g.mu.Unlock(self)
	total := 0
	for key, subs := range g.subscribers {
		alive := subs[:0]
		for _, sub := range subs {
			if !sub.Closed() {
				alive = append(alive, sub)
			}
		}
		if len(alive) == 0 {
			delete(g.subscribers, key)
		} else {
			g.subscribers[key] = alive
		}
		total += len(alive)
	}
	if g.Metrics != nil {
		g.Metrics.SubscribersActive.Set(float64(total))
	}
	return nil
}
