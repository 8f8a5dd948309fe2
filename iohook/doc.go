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

// Package iohook turns blocking socket syscalls into cooperative
// suspensions of the calling task instead of blocking an OS thread.
//
// Go's own runtime already parks a goroutine blocked in the net
// package's Read/Write without tying up an OS thread, so interposing on
// net.Conn itself would just be reimplementing netpoller badly. Instead
// this package operates one level down, on raw file descriptors
// obtained via golang.org/x/sys/unix, and drives them through the
// reactor directly:
// try the syscall, and on EAGAIN register the descriptor with the
// reactor and yield the current task rather than the OS thread. session
// and rpc/client/server build their connections on this layer rather
// than on net.Conn so that a blocked call really does free its worker
// to run other tasks.
package iohook
