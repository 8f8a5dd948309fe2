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
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/suololololo/AsyncRPC/config"
	"github.com/suololololo/AsyncRPC/iohook"
	"github.com/suololololo/AsyncRPC/logger"
	"github.com/suololololo/AsyncRPC/reactor"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "asyncrpcd",
	Short:         "cooperative-runtime RPC registry and server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "configuration file (defaults + ASYNCRPC_* env when empty)")
	rootCmd.AddCommand(registryCmd, serveCmd)
}

// bootstrap loads config, builds the logger and starts the reactor with
// its hook layer; the caller owns shutdown.
func bootstrap() (config.Config, logrus.FieldLogger, *reactor.Reactor, *iohook.Hooks, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, nil, nil, err
	}
	log, err := logger.New(logger.Options{
		Level:        cfg.Log.Level,
		DisableColor: !cfg.Log.Color,
		FilePath:     cfg.Log.File,
	})
	if err != nil {
		return config.Config{}, nil, nil, nil, err
	}
	r, err := reactor.New(cfg.Scheduler.Workers, log)
	if err != nil {
		return config.Config{}, nil, nil, nil, err
	}
	r.Start()
	hooks := iohook.New(r)
	hooks.SetConnectTimeout(cfg.Session.ConnectTimeout)
	return cfg, log, r, hooks, nil
}

// waitSignal blocks until SIGINT or SIGTERM.
func waitSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
}
