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

import (
	"encoding/binary"
	"errors"
)

// Magic is the fixed first byte of every frame on the wire.
const Magic uint8 = 0xAA

// Version is the fixed second byte of every frame on the wire. Accepted
// on decode but not enforced; version is advisory.
const Version uint8 = 0x01

// HeaderSize is the fixed on-wire size, in bytes, of a frame header.
const HeaderSize = 11

// ErrBadMagic is returned by DecodeHeader when the first header byte does
// not match Magic.
var ErrBadMagic = errors.New("codec: bad magic byte")

// ErrBodyTooLarge is returned by Encode when a frame body would not fit
// the 32-bit body-length field.
var ErrBodyTooLarge = errors.New("codec: body exceeds 2^32-1 bytes")

// Header is the decoded fixed 11-byte frame header.
type Header struct {
	Magic   uint8
	Version uint8
	Type    MessageType
	Seq     uint32
	BodyLen uint32
}

// Frame is a complete decoded protocol message: header fields plus body.
type Frame struct {
	Type MessageType
	Seq  uint32
	Body []byte
}

// EncodeHeader writes the 11-byte fixed header for a frame with the given
// type, sequence id and body length.
func EncodeHeader(t MessageType, seq uint32, bodyLen uint32) []byte {
	out := make([]byte, HeaderSize)
	out[0] = Magic
	out[1] = Version
	out[2] = uint8(t)
	binary.BigEndian.PutUint32(out[3:7], seq)
	binary.BigEndian.PutUint32(out[7:11], bodyLen)
	return out
}

// DecodeHeader parses an 11-byte header. It validates the magic byte only
// — other header field values are accepted, version is advisory.
func DecodeHeader(raw []byte) (Header, error) {
	if len(raw) != HeaderSize {
		return Header{}, ErrShortBuffer
	}
	if raw[0] != Magic {
		return Header{}, ErrBadMagic
	}
	return Header{
		Magic:   raw[0],
		Version: raw[1],
		Type:    MessageType(raw[2]),
		Seq:     binary.BigEndian.Uint32(raw[3:7]),
		BodyLen: binary.BigEndian.Uint32(raw[7:11]),
	}, nil
}

// ErrShortBuffer is returned by DecodeHeader when it is not given
// exactly HeaderSize bytes, and by Decode when the input is shorter than
// a header or its length disagrees with the header's BodyLen.
var ErrShortBuffer = errors.New("codec: short header buffer")

// Encode produces the complete on-wire representation of f: exactly
// HeaderSize + len(f.Body) bytes.
func Encode(f Frame) ([]byte, error) {
	if uint64(len(f.Body)) > 0xffffffff {
		return nil, ErrBodyTooLarge
	}
	out := EncodeHeader(f.Type, f.Seq, uint32(len(f.Body)))
	out = append(out, f.Body...)
	return out, nil
}

// Decode parses a complete on-wire frame (header + body) from raw.
func Decode(raw []byte) (Frame, error) {
	if len(raw) < HeaderSize {
		return Frame{}, ErrShortBuffer
	}
	h, err := DecodeHeader(raw[:HeaderSize])
	if err != nil {
		return Frame{}, err
	}
	if uint32(len(raw)-HeaderSize) != h.BodyLen {
		return Frame{}, ErrShortBuffer
	}
	var body []byte
	if h.BodyLen > 0 {
		body = raw[HeaderSize:]
	}
	return Frame{Type: h.Type, Seq: h.Seq, Body: body}, nil
}
