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
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/suololololo/AsyncRPC/iohook"
	"github.com/suololololo/AsyncRPC/reactor"
	"github.com/suololololo/AsyncRPC/scheduler"
	"github.com/suololololo/AsyncRPC/session"
	"github.com/suololololo/AsyncRPC/task"
)

// Dial opens a TCP connection from an ordinary goroutine: the stdlib
// does the connect, then the raw descriptor is stolen via the File/Dup
// idiom and handed to the hook layer, the same way Server.Listen adopts
// its listener. The returned client is already started.
func Dial(r *reactor.Reactor, hooks *iohook.Hooks, address string, log logrus.FieldLogger) (*Client, error) {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, err
	}
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		_ = conn.Close()
		return nil, fmt.Errorf("client: %q did not resolve to a TCP connection", address)
	}
	f, err := tc.File()
	if err != nil {
		_ = tc.Close()
		return nil, err
	}
	ownFD, err := unix.Dup(int(f.Fd()))
	_ = f.Close()
	_ = tc.Close()
	if err != nil {
		return nil, err
	}
	return adopt(r, hooks, ownFD, log)
}

// DialTask opens a TCP connection cooperatively, from inside a task: the
// connect itself suspends on EINPROGRESS and is resumed by the reactor,
// honoring the hook layer's connect timeout.
func DialTask(self *task.Task, r *reactor.Reactor, hooks *iohook.Hooks, address string, log logrus.FieldLogger) (*Client, error) {
	ta, err := net.ResolveTCPAddr("tcp", address)
	if err != nil {
		return nil, err
	}

	var domain int
	var sa unix.Sockaddr
	if ip4 := ta.IP.To4(); ip4 != nil {
		s := &unix.SockaddrInet4{Port: ta.Port}
		copy(s.Addr[:], ip4)
		domain, sa = unix.AF_INET, s
	} else {
		s := &unix.SockaddrInet6{Port: ta.Port}
		copy(s.Addr[:], ta.IP.To16())
		domain, sa = unix.AF_INET6, s
	}

	fd, err := unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	fc, err := hooks.Watch(fd)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	if err := hooks.Connect(self, fc, sa); err != nil {
		_ = hooks.Close(fd)
		return nil, err
	}

	sess := session.New(hooks, fc, func(t *task.Task) { r.Submit(scheduler.ForTask(t)) })
	c := New(r, hooks, sess, log)
	c.Start(true)
	return c, nil
}

func adopt(r *reactor.Reactor, hooks *iohook.Hooks, fd int, log logrus.FieldLogger) (*Client, error) {
	fc, err := hooks.Watch(fd)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	sess := session.New(hooks, fc, func(t *task.Task) { r.Submit(scheduler.ForTask(t)) })
	c := New(r, hooks, sess, log)
	c.Start(true)
	return c, nil
}
