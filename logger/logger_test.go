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

package logger_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/suololololo/AsyncRPC/logger"
)

func TestFileHookWritesEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runtime.log")
	l, err := logger.New(logger.Options{
		Level:         "debug",
		DisableStdout: true,
		FilePath:      path,
	})
	require.NoError(t, err)

	l.WithField("component", "test").Info("hello from the file sink")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "hello from the file sink")
	require.Contains(t, string(raw), "component=test")
}

func TestLevelFilterSuppressesLowerEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runtime.log")
	l, err := logger.New(logger.Options{
		Level:         "warning",
		DisableStdout: true,
		FilePath:      path,
	})
	require.NoError(t, err)

	l.Debug("too quiet to land")
	l.Warn("loud enough")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "too quiet to land")
	require.Contains(t, string(raw), "loud enough")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := logger.New(logger.Options{Level: "shouting"})
	require.Error(t, err)
}

func TestFieldsAttachToEveryEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runtime.log")
	l, err := logger.New(logger.Options{
		DisableStdout: true,
		FilePath:      path,
		Fields:        map[string]any{"session_id": "s-1"},
	})
	require.NoError(t, err)

	l.Info("tagged")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "session_id=s-1")
}
