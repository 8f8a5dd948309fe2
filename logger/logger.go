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

package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Options configures New.
type Options struct {
	// Level is a logrus level name ("debug", "info", ...). Empty means
	// info.
	Level string

	// DisableStdout suppresses the stdout hook (file-only logging).
	DisableStdout bool

	// DisableColor forces plain stdout output even on a terminal.
	DisableColor bool

	// FilePath, when non-empty, adds a file hook appending one
	// formatted line per entry.
	FilePath string

	// Fields are attached to every entry ("component", "session_id",
	// "task_id" and friends).
	Fields logrus.Fields
}

// New builds a hook-driven logger from opt. The logger's own output is
// discarded; every sink is a hook.
func New(opt Options) (logrus.FieldLogger, error) {
	l := logrus.New()
	l.SetOutput(io.Discard)

	level := logrus.InfoLevel
	if opt.Level != "" {
		var err error
		level, err = logrus.ParseLevel(opt.Level)
		if err != nil {
			return nil, err
		}
	}
	l.SetLevel(level)

	if !opt.DisableStdout {
		l.AddHook(NewStdoutHook(!opt.DisableColor))
	}
	if opt.FilePath != "" {
		h, err := NewFileHook(opt.FilePath)
		if err != nil {
			return nil, err
		}
		l.AddHook(h)
	}

	if len(opt.Fields) > 0 {
		return l.WithFields(opt.Fields), nil
	}
	return l, nil
}
