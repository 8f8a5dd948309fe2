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
	"time"

	"github.com/suololololo/AsyncRPC/buffer"
	"github.com/suololololo/AsyncRPC/codec"
	"github.com/suololololo/AsyncRPC/rpcerr"
	"github.com/suololololo/AsyncRPC/synctask"
	"github.com/suololololo/AsyncRPC/task"
)

// RoundTrip sends one frame of type mt and suspends self until the peer
// answers with the same sequence id, the timeout elapses, or the
// connection closes. The per-call reply channel is unregistered on every
// exit path.
func (c *Client) RoundTrip(self *task.Task, mt codec.MessageType, body []byte, timeout time.Duration) (codec.Frame, error) {
	if c.closed.Load() {
		return codec.Frame{}, rpcerr.Closed.Error()
	}

	seq := c.nextSeq.Add(1)
	reply := synctask.NewChan[codec.Frame](1, c.resubmit, c.r.Timers)

	c.mu.Lock()
	c.pending[seq] = reply
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, seq)
		c.mu.Unlock()
	}()

	// shutdown may have swept the pending map between the entry check
	// and the registration above; re-check so this call cannot park on
	// a channel nobody will ever close or fill
	if c.closed.Load() {
		return codec.Frame{}, rpcerr.Closed.Error()
	}

	if err := c.outbound.Send(self, codec.Frame{Type: mt, Seq: seq, Body: body}, c.resubmit); err != nil {
		return codec.Frame{}, rpcerr.Closed.Error(err)
	}

	f, ok, timedOut := reply.RecvFor(self, timeout, c.resubmit)
	if timedOut {
		return codec.Frame{}, rpcerr.Timeout.Error()
	}
	if !ok {
		return codec.Frame{}, rpcerr.Closed.Error()
	}
	return f, nil
}

// Call invokes the remote method name with args, decoding the reply's
// Result into ret. A nil ret discards the return value (void methods).
// The returned error is nil on Success and a *rpcerr.Error carrying the
// outcome code otherwise.
func (c *Client) Call(self *task.Task, name string, ret codec.Unmarshaler, args ...codec.Marshaler) error {
	if c.Metrics != nil {
		c.Metrics.CallsInFlight.Inc()
		defer c.Metrics.CallsInFlight.Dec()
	}
	err := c.call(self, name, ret, args...)
	if c.Metrics != nil {
		code := rpcerr.Success
		if e := rpcerr.Get(err); e != nil {
			code = e.Code()
		} else if err != nil {
			code = rpcerr.Fail
		}
		c.Metrics.CallsTotal.WithLabelValues(name, code.String()).Inc()
	}
	return err
}

func (c *Client) call(self *task.Task, name string, ret codec.Unmarshaler, args ...codec.Marshaler) error {
	b := buffer.New()
	codec.WriteString(b, name)
	for _, a := range args {
		a.MarshalRPC(b)
	}
	_ = b.Seek(0)

	f, err := c.RoundTrip(self, codec.MethodRequest, b.Bytes(), c.CallTimeout)
	if err != nil {
		return err
	}

	rb := buffer.New()
	_, _ = rb.Write(f.Body)
	_ = rb.Seek(0)
	code, msg, derr := codec.ReadResultHeader(rb)
	if derr != nil {
		return rpcerr.ArgsNotMatch.Error(derr)
	}
	if code != codec.Success {
		rc := rpcerr.FromResultCode(code)
		if msg == "" {
			return rc.Error()
		}
		return rc.Errorf(msg)
	}
	if ret != nil {
		if derr := ret.UnmarshalRPC(rb); derr != nil {
			return rpcerr.ArgsNotMatch.Error(derr)
		}
	}
	return nil
}

// Subscribe records cb under key and tells the peer to start pushing
// publish frames for it. A duplicate key is a no-op.
func (c *Client) Subscribe(self *task.Task, key string, cb SubscribeFunc) error {
	c.mu.Lock()
	if _, dup := c.subs[key]; dup {
		c.mu.Unlock()
		return nil
	}
	c.subs[key] = cb
	c.mu.Unlock()

	b := buffer.New()
	codec.WriteString(b, key)
	_ = b.Seek(0)
	seq := c.nextSeq.Add(1)
	if err := c.outbound.Send(self, codec.Frame{Type: codec.SubscribeRequest, Seq: seq, Body: b.Bytes()}, c.resubmit); err != nil {
		return rpcerr.Closed.Error(err)
	}
	return nil
}
