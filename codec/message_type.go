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

// MessageType identifies the kind of frame body.
type MessageType uint8

const (
	Heartbeat MessageType = iota + 1
	MethodRequest
	MethodResponse
	ServiceDiscover
	ServiceDiscoverResponse
	ServiceRegister
	ServiceRegisterResponse
	SubscribeRequest
	SubscribeResponse
	PublishRequest
	PublishResponse
	ProviderAnnounce
)

func (t MessageType) String() string {
	switch t {
	case Heartbeat:
		return "HEARTBEAT"
	case MethodRequest:
		return "METHOD_REQUEST"
	case MethodResponse:
		return "METHOD_RESPONSE"
	case ServiceDiscover:
		return "SERVICE_DISCOVER"
	case ServiceDiscoverResponse:
		return "SERVICE_DISCOVER_RESPONSE"
	case ServiceRegister:
		return "SERVICE_REGISTER"
	case ServiceRegisterResponse:
		return "SERVICE_REGISTER_RESPONSE"
	case SubscribeRequest:
		return "SUBSCRIBE_REQUEST"
	case SubscribeResponse:
		return "SUBSCRIBE_RESPONSE"
	case PublishRequest:
		return "PUBLISH_REQUEST"
	case PublishResponse:
		return "PUBLISH_RESPONSE"
	case ProviderAnnounce:
		return "PROVIDER_ANNOUNCE"
	default:
		return "UNKNOWN"
	}
}
