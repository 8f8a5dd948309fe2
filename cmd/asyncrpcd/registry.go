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
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/suololololo/AsyncRPC/metrics"
	"github.com/suololololo/AsyncRPC/registry"
	"github.com/suololololo/AsyncRPC/scheduler"
	"github.com/suololololo/AsyncRPC/task"
)

var registryAddr string

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "run the service registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, r, hooks, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() {
			r.Stop()
			_ = r.Close()
		}()

		g := registry.New(r, hooks, log)
		g.SweepInterval = cfg.Registry.SweepInterval
		g.SendTimeout = cfg.Session.SendTimeout
		g.Metrics = metrics.New(prometheus.DefaultRegisterer)
		if err := g.Listen(registryAddr); err != nil {
			return err
		}
		defer func() { _ = g.Close() }()
		r.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
			return g.AcceptLoop(self)
		}))

		log.Infof("registry listening on %s", g.Addr())
		fmt.Println(g.Addr())
		waitSignal()
		return nil
	},
}

func init() {
	registryCmd.Flags().StringVar(&registryAddr, "listen", "127.0.0.1:9000", "address to bind the registry on")
}
