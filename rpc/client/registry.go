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
	"github.com/suololololo/AsyncRPC/buffer"
	"github.com/suololololo/AsyncRPC/codec"
	"github.com/suololololo/AsyncRPC/rpcerr"
	"github.com/suololololo/AsyncRPC/task"
)

// The registry speaks the same framed protocol as any service;
// these are the provider- and consumer-facing verbs a client issues on
// a connection to it.

// Announce tells the registry which port this peer's own RPC server
// listens on; the registry combines it with the connection's source
// address to form the provider address. Fire-and-forget: the registry
// sends no reply.
func (c *Client) Announce(self *task.Task, port uint16) error {
	b := buffer.New()
	b.WriteVarint32(uint32(port))
	_ = b.Seek(0)
	seq := c.nextSeq.Add(1)
	if err := c.outbound.Send(self, codec.Frame{Type: codec.ProviderAnnounce, Seq: seq, Body: b.Bytes()}, c.resubmit); err != nil {
		return rpcerr.Closed.Error(err)
	}
	return nil
}

// RegisterService registers name under this provider's announced
// address. Announce must have been sent first on this connection.
func (c *Client) RegisterService(self *task.Task, name string) error {
	b := buffer.New()
	codec.WriteString(b, name)
	_ = b.Seek(0)

	f, err := c.RoundTrip(self, codec.ServiceRegister, b.Bytes(), c.CallTimeout)
	if err != nil {
		return err
	}

	rb := buffer.New()
	_, _ = rb.Write(f.Body)
	_ = rb.Seek(0)
	code, msg, _, derr := codec.ReadResult(rb, codec.ReadString)
	if derr != nil {
		return rpcerr.ArgsNotMatch.Error(derr)
	}
	if code != codec.Success {
		return rpcerr.FromResultCode(code).Errorf(msg)
	}
	return nil
}

// Discover asks the registry for every provider address currently
// registered under name. An empty match surfaces as a NoMethod error
// (the registry answers with a single NoMethod result).
func (c *Client) Discover(self *task.Task, name string) ([]string, error) {
	b := buffer.New()
	codec.WriteString(b, name)
	_ = b.Seek(0)

	f, err := c.RoundTrip(self, codec.ServiceDiscover, b.Bytes(), c.CallTimeout)
	if err != nil {
		return nil, err
	}

	rb := buffer.New()
	_, _ = rb.Write(f.Body)
	_ = rb.Seek(0)
	if _, derr := codec.ReadString(rb); derr != nil { // echoed service name
		return nil, rpcerr.ArgsNotMatch.Error(derr)
	}
	n, derr := rb.ReadVarint64()
	if derr != nil {
		return nil, rpcerr.ArgsNotMatch.Error(derr)
	}

	var addrs []string
	miss := codec.Success
	for i := uint64(0); i < n; i++ {
		code, _, addr, rerr := codec.ReadResult(rb, codec.ReadString)
		if rerr != nil {
			return nil, rpcerr.ArgsNotMatch.Error(rerr)
		}
		if code == codec.Success {
			addrs = append(addrs, addr)
		} else {
			miss = code
		}
	}
	if len(addrs) == 0 {
		if miss == codec.Success {
			miss = codec.NoMethod
		}
		return nil, rpcerr.FromResultCode(miss).Error()
	}
	return addrs, nil
}
