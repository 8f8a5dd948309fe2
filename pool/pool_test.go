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

package pool_test

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/suololololo/AsyncRPC/buffer"
	"github.com/suololololo/AsyncRPC/codec"
	"github.com/suololololo/AsyncRPC/iohook"
	"github.com/suololololo/AsyncRPC/pool"
	"github.com/suololololo/AsyncRPC/reactor"
	"github.com/suololololo/AsyncRPC/registry"
	"github.com/suololololo/AsyncRPC/rpc/client"
	"github.com/suololololo/AsyncRPC/rpc/server"
	"github.com/suololololo/AsyncRPC/rpcerr"
	"github.com/suololololo/AsyncRPC/scheduler"
	"github.com/suololololo/AsyncRPC/task"
)

type addArgs struct{ a, b codec.Int64 }

func (v addArgs) MarshalRPC(b *buffer.Buffer) {
	v.a.MarshalRPC(b)
	v.b.MarshalRPC(b)
}
func (v *addArgs) UnmarshalRPC(b *buffer.Buffer) error {
	if err := v.a.UnmarshalRPC(b); err != nil {
		return err
	}
	return v.b.UnmarshalRPC(b)
}

func add(v addArgs) (codec.Int64, error) { return v.a + v.b, nil }

// stack is a registry, a provider server registered with it, and the
// provider's registry connection (closing it withdraws the provider).
type stack struct {
	r           *reactor.Reactor
	hooks       *iohook.Hooks
	reg         *registry.Registry
	srv         *server.Server
	providerCli *client.Client
}

func onTask(t *testing.T, r *reactor.Reactor, fn func(self *task.Task) error) error {
	t.Helper()
	done := make(chan error, 1)
	r.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
		done <- fn(self)
		return nil
	}))
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("task did not complete in time")
		return nil
	}
}

func newStack(t *testing.T) *stack {
	t.Helper()
	r, err := reactor.New(4, nil)
	require.NoError(t, err)
	r.Start()
	t.Cleanup(func() {
		r.Stop()
		_ = r.Close()
	})
	hooks := iohook.New(r)

	reg := registry.New(r, hooks, nil)
	require.NoError(t, reg.Listen("127.0.0.1:0"))
	t.Cleanup(func() { _ = reg.Close() })
	r.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
		return reg.AcceptLoop(self)
	}))

	srv := server.New(r, hooks, nil)
	require.NoError(t, srv.Register("add", add))
	require.NoError(t, srv.Listen("127.0.0.1:0"))
	t.Cleanup(func() { _ = srv.Close() })
	r.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
		return srv.AcceptLoop(self)
	}))

	_, portStr, err := net.SplitHostPort(srv.Addr())
	require.NoError(t, err)
	port, err := strconv.ParseUint(portStr, 10, 16)
	require.NoError(t, err)

	st := &stack{r: r, hooks: hooks, reg: reg, srv: srv}
	require.NoError(t, onTask(t, r, func(self *task.Task) error {
		cli, err := client.DialTask(self, r, hooks, reg.Addr(), nil)
		if err != nil {
			return err
		}
		st.providerCli = cli
		if err := cli.Announce(self, uint16(port)); err != nil {
			return err
		}
		return cli.RegisterService(self, "add")
	}))
	t.Cleanup(func() { _ = st.providerCli.Close() })

	return st
}

func newPool(t *testing.T, st *stack) *pool.Pool {
	t.Helper()
	p := pool.New(st.r, st.hooks, nil)
	require.NoError(t, onTask(t, st.r, func(self *task.Task) error {
		return p.Connect(self, st.reg.Addr())
	}))
	t.Cleanup(p.Close)
	return p
}

func TestPoolDiscoversThenCalls(t *testing.T) {
	st := newStack(t)
	p := newPool(t, st)

	var sum codec.Int64
	err := onTask(t, st.r, func(self *task.Task) error {
		return p.Call(self, "add", &sum, addArgs{a: 2, b: 3})
	})
	require.NoError(t, err)
	require.EqualValues(t, 5, sum)

	// the resolution is cached
	var addrs []string
	require.NoError(t, onTask(t, st.r, func(self *task.Task) error {
		addrs = p.CachedAddrs(self, "add")
		return nil
	}))
	require.Equal(t, []string{st.srv.Addr()}, addrs)

	// and reused: a second call goes through the cached session
	err = onTask(t, st.r, func(self *task.Task) error {
		return p.Call(self, "add", &sum, addArgs{a: 10, b: 20})
	})
	require.NoError(t, err)
	require.EqualValues(t, 30, sum)
}

func TestPoolUnknownServiceReturnsNoMethod(t *testing.T) {
	st := newStack(t)
	p := newPool(t, st)

	err := onTask(t, st.r, func(self *task.Task) error {
		return p.Call(self, "nosuch", nil)
	})
	require.True(t, rpcerr.IsCode(err, rpcerr.NoMethod), "got %v", err)
}

func TestPoolTracksProviderDisappearance(t *testing.T) {
	st := newStack(t)
	p := newPool(t, st)

	var sum codec.Int64
	require.NoError(t, onTask(t, st.r, func(self *task.Task) error {
		return p.Call(self, "add", &sum, addArgs{a: 1, b: 1})
	}))

	// provider drops off the registry; the launch=false event empties
	// the pool's address cache and evicts the cached session
	require.NoError(t, st.providerCli.Close())

	require.Eventually(t, func() bool {
		var addrs []string
		_ = onTask(t, st.r, func(self *task.Task) error {
			addrs = p.CachedAddrs(self, "add")
			return nil
		})
		return len(addrs) == 0
	}, 2*time.Second, 20*time.Millisecond)

	err := onTask(t, st.r, func(self *task.Task) error {
		return p.Call(self, "add", &sum, addArgs{a: 1, b: 1})
	})
	require.True(t, rpcerr.IsCode(err, rpcerr.NoMethod), "got %v", err)
}

func TestPoolAsyncCallDeliversOutcome(t *testing.T) {
	st := newStack(t)
	p := newPool(t, st)

	var sum codec.Int64
	ch := p.AsyncCall("add", &sum, addArgs{a: 4, b: 5})

	var callErr error
	require.NoError(t, onTask(t, st.r, func(self *task.Task) error {
		err, ok := ch.Recv(self, func(w *task.Task) { st.r.Submit(scheduler.ForTask(w)) })
		require.True(t, ok)
		callErr = err
		return nil
	}))
	require.NoError(t, callErr)
	require.EqualValues(t, 9, sum)
}
