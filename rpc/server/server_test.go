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

package server_test

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/suololololo/AsyncRPC/buffer"
	"github.com/suololololo/AsyncRPC/codec"
	"github.com/suololololo/AsyncRPC/iohook"
	"github.com/suololololo/AsyncRPC/reactor"
	"github.com/suololololo/AsyncRPC/rpc/server"
	"github.com/suololololo/AsyncRPC/scheduler"
	"github.com/suololololo/AsyncRPC/task"
)

// echoArgs is the single argument to the "echo" test method.
type echoArgs struct{ s codec.String }

func (a echoArgs) MarshalRPC(b *buffer.Buffer) { a.s.MarshalRPC(b) }
func (a *echoArgs) UnmarshalRPC(b *buffer.Buffer) error {
	return a.s.UnmarshalRPC(b)
}

func echo(a echoArgs) (codec.String, error) { return a.s, nil }

func boom(_ echoArgs) (codec.String, error) { return "", errors.New("boom") }

func newTestServer(t *testing.T) (*server.Server, string) {
	t.Helper()
	r, err := reactor.New(4, nil)
	require.NoError(t, err)
	r.Start()
	t.Cleanup(func() {
		r.Stop()
		_ = r.Close()
	})

	hooks := iohook.New(r)
	s := server.New(r, hooks, nil)
	require.NoError(t, s.Register("echo", echo))
	require.NoError(t, s.Register("boom", boom))
	require.NoError(t, s.Listen("127.0.0.1:0"))
	t.Cleanup(func() { _ = s.Close() })

	r.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
		return s.AcceptLoop(self)
	}))

	return s, s.Addr()
}

func writeFrame(t *testing.T, conn net.Conn, f codec.Frame) {
	t.Helper()
	raw, err := codec.Encode(f)
	require.NoError(t, err)
	_, err = conn.Write(raw)
	require.NoError(t, err)
}

func readFrame(t *testing.T, conn net.Conn) codec.Frame {
	t.Helper()
	hdr := make([]byte, codec.HeaderSize)
	_, err := io.ReadFull(conn, hdr)
	require.NoError(t, err)
	h, err := codec.DecodeHeader(hdr)
	require.NoError(t, err)
	body := make([]byte, h.BodyLen)
	if h.BodyLen > 0 {
		_, err = io.ReadFull(conn, body)
		require.NoError(t, err)
	}
	return codec.Frame{Type: h.Type, Seq: h.Seq, Body: body}
}

func methodRequestBody(name string, arg codec.Marshaler) []byte {
	b := buffer.New()
	codec.WriteString(b, name)
	arg.MarshalRPC(b)
	_ = b.Seek(0)
	return b.Bytes()
}

func TestServerInvokesRegisteredMethod(t *testing.T) {
	_, addr := newTestServer(t)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	writeFrame(t, conn, codec.Frame{
		Type: codec.MethodRequest,
		Seq:  1,
		Body: methodRequestBody("echo", echoArgs{s: "hi"}),
	})

	resp := readFrame(t, conn)
	require.Equal(t, codec.MethodResponse, resp.Type)
	require.EqualValues(t, 1, resp.Seq)

	rb := buffer.New()
	_, _ = rb.Write(resp.Body)
	_ = rb.Seek(0)
	code, _, err := codec.ReadResultHeader(rb)
	require.NoError(t, err)
	require.Equal(t, codec.Success, code)

	var out codec.String
	require.NoError(t, out.UnmarshalRPC(rb))
	require.Equal(t, codec.String("hi"), out)
}

func TestServerReturnsFailOnHandlerError(t *testing.T) {
	_, addr := newTestServer(t)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	writeFrame(t, conn, codec.Frame{
		Type: codec.MethodRequest,
		Seq:  5,
		Body: methodRequestBody("boom", echoArgs{s: "x"}),
	})

	resp := readFrame(t, conn)
	rb := buffer.New()
	_, _ = rb.Write(resp.Body)
	_ = rb.Seek(0)
	code, msg, err := codec.ReadResultHeader(rb)
	require.NoError(t, err)
	require.Equal(t, codec.Fail, code)
	require.Equal(t, "boom", msg)
}

func TestServerReturnsNoMethodForUnknownName(t *testing.T) {
	_, addr := newTestServer(t)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	writeFrame(t, conn, codec.Frame{
		Type: codec.MethodRequest,
		Seq:  9,
		Body: methodRequestBody("nope", echoArgs{s: "x"}),
	})

	resp := readFrame(t, conn)
	rb := buffer.New()
	_, _ = rb.Write(resp.Body)
	_ = rb.Seek(0)
	code, _, err := codec.ReadResultHeader(rb)
	require.NoError(t, err)
	require.Equal(t, codec.NoMethod, code)
}

func TestServerHeartbeatEchoesSeq(t *testing.T) {
	_, addr := newTestServer(t)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	writeFrame(t, conn, codec.Frame{Type: codec.Heartbeat, Seq: 3})
	resp := readFrame(t, conn)
	require.Equal(t, codec.Heartbeat, resp.Type)
	require.EqualValues(t, 3, resp.Seq)
}

func TestServerPublishReachesSubscriber(t *testing.T) {
	s, addr := newTestServer(t)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	keyBody := buffer.New()
	codec.WriteString(keyBody, "prices")
	_ = keyBody.Seek(0)
	writeFrame(t, conn, codec.Frame{Type: codec.SubscribeRequest, Seq: 1, Body: keyBody.Bytes()})
	ack := readFrame(t, conn)
	require.Equal(t, codec.SubscribeResponse, ack.Type)

	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		r, err := reactor.New(1, nil)
		require.NoError(t, err)
		r.Start()
		defer func() { r.Stop(); _ = r.Close() }()
		r.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
			s.Publish(self, "prices", codec.String("102.5"))
			return nil
		}))
		time.Sleep(50 * time.Millisecond)
		close(done)
	}()
	<-done

	pub := readFrame(t, conn)
	require.Equal(t, codec.PublishRequest, pub.Type)

	rb := buffer.New()
	_, _ = rb.Write(pub.Body)
	_ = rb.Seek(0)
	key, err := codec.ReadString(rb)
	require.NoError(t, err)
	require.Equal(t, "prices", key)

	var price codec.String
	require.NoError(t, price.UnmarshalRPC(rb))
	require.Equal(t, codec.String("102.5"), price)
}

func TestServerClosesConnectionOnHeartbeatTimeout(t *testing.T) {
	r, err := reactor.New(4, nil)
	require.NoError(t, err)
	r.Start()
	t.Cleanup(func() { r.Stop(); _ = r.Close() })

	hooks := iohook.New(r)
	s := server.New(r, hooks, nil)
	s.HeartbeatTimeout = 50 * time.Millisecond
	require.NoError(t, s.Listen("127.0.0.1:0"))
	t.Cleanup(func() { _ = s.Close() })
	r.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
		return s.AcceptLoop(self)
	}))

	conn, err := net.Dial("tcp", s.Addr())
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	_, err = conn.Read(buf)
	require.ErrorIs(t, err, io.EOF)
}
