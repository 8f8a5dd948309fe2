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

package codec

import "github.com/suololololo/AsyncRPC/buffer"

// ResultCode is the 2-byte status code carried by every MethodResponse
// body, ahead of the message and (on success) the return value.
type ResultCode uint16

const (
	Success ResultCode = iota
	Fail
	ArgsNotMatch
	NoMethod
	Closed
	Timeout
)

func (c ResultCode) String() string {
	switch c {
	case Success:
		return "SUCCESS"
	case Fail:
		return "FAIL"
	case ArgsNotMatch:
		return "ARGS_NOT_MATCH"
	case NoMethod:
		return "NO_METHOD"
	case Closed:
		return "CLOSED"
	case Timeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// WriteResultHeader writes the 2-byte code and varint-length-prefixed
// message that precede every Result value on the wire. The caller writes
// the payload value itself afterward, only when code == Success.
func WriteResultHeader(b *buffer.Buffer, code ResultCode, message string) {
	b.WriteU16(uint16(code))
	b.WriteStringVarint(message)
}

// ReadResultHeader reads the code and message written by
// WriteResultHeader. The caller must read the payload value afterward
// only when the returned code is Success.
func ReadResultHeader(b *buffer.Buffer) (ResultCode, string, error) {
	code, err := b.ReadU16()
	if err != nil {
		return 0, "", err
	}
	msg, err := b.ReadStringVarint()
	if err != nil {
		return 0, "", err
	}
	return ResultCode(code), msg, nil
}

// WriteResult writes a complete Result[R]: code, message, and — if code
// is Success — the value via writeValue.
func WriteResult[R any](b *buffer.Buffer, code ResultCode, message string, value R, writeValue func(*buffer.Buffer, R)) {
	WriteResultHeader(b, code, message)
	if code == Success {
		writeValue(b, value)
	}
}

// ReadResult reads a complete Result[R] written by WriteResult. When the
// decoded code is not Success, the returned value is the zero value of R
// and readValue is not invoked.
func ReadResult[R any](b *buffer.Buffer, readValue func(*buffer.Buffer) (R, error)) (ResultCode, string, R, error) {
	var zero R
	code, msg, err := ReadResultHeader(b)
	if err != nil {
		return 0, "", zero, err
	}
	if code != Success {
		return code, msg, zero, nil
	}
	v, err := readValue(b)
	if err != nil {
		return 0, "", zero, err
	}
	return code, msg, v, nil
}
