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

package registry

import "github.com/suololololo/AsyncRPC/buffer"

// SubscribeKeyPrefix is the reserved key prefix for provider lifecycle
// events: subscribers of SubscribeKey(service) receive a
// ProviderEvent whenever a provider of that service joins or leaves.
const SubscribeKeyPrefix = "[[rpc service subscribe]]"

// SubscribeKey returns the lifecycle subscription key for service.
func SubscribeKey(service string) string { return SubscribeKeyPrefix + service }

// ProviderEvent is the payload published under a lifecycle key: Launch
// is true when the provider registered, false when it disappeared.
type ProviderEvent struct {
	Launch bool
	Addr   string
}

func (e ProviderEvent) MarshalRPC(b *buffer.Buffer) {
	b.WriteBool(e.Launch)
	b.WriteStringVarint(e.Addr)
}

func (e *ProviderEvent) UnmarshalRPC(b *buffer.Buffer) error {
	launch, err := b.ReadBool()
	if err != nil {
		return err
	}
	addr, err := b.ReadStringVarint()
	if err != nil {
		return err
	}
	e.Launch, e.Addr = launch, addr
	return nil
}
