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

package main

import (
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/suololololo/AsyncRPC/codec"
	"github.com/suololololo/AsyncRPC/rpc/client"
	"github.com/suololololo/AsyncRPC/rpc/server"
	"github.com/suololololo/AsyncRPC/scheduler"
	"github.com/suololololo/AsyncRPC/task"
)

var (
	serveAddr     string
	serveRegistry string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run a demo RPC server exposing a ping method",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, r, hooks, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() {
			r.Stop()
			_ = r.Close()
		}()

		s := server.New(r, hooks, log)
		s.HeartbeatTimeout = cfg.Session.HeartbeatTimeout
		s.SendTimeout = cfg.Session.SendTimeout
		if err := s.Register("ping", func(codec.Void) (codec.String, error) { return "pong", nil }); err != nil {
			return err
		}
		if err := s.Listen(serveAddr); err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		r.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
			return s.AcceptLoop(self)
		}))
		log.Infof("rpc server listening on %s", s.Addr())

		if serveRegistry != "" {
			_, portStr, err := net.SplitHostPort(s.Addr())
			if err != nil {
				return err
			}
			port, err := strconv.ParseUint(portStr, 10, 16)
			if err != nil {
				return err
			}
			r.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
				cli, err := client.DialTask(self, r, hooks, serveRegistry, log)
				if err != nil {
					return err
				}
				if err := cli.Announce(self, uint16(port)); err != nil {
					return err
				}
				return cli.RegisterService(self, "ping")
			}))
		}

		waitSignal()
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "listen", "127.0.0.1:9001", "address to bind the RPC server on")
	serveCmd.Flags().StringVar(&serveRegistry, "registry", "", "registry address to announce this provider to")
}
