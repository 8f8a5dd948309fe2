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

package pool

import (
	"hash/fnv"
	"math/rand"
	"os"
)

// Strategy selects which provider address a service call lands on when
// more than one is registered.
type Strategy uint8

const (
	// Random picks uniformly on every resolution.
	Random Strategy = iota
	// RoundRobin cycles through the candidate list per service.
	RoundRobin
	// HashLocal pins this host to one candidate by hashing the local
	// hostname, so repeated resolutions from the same machine agree.
	HashLocal
)

func (s Strategy) String() string {
	switch s {
	case RoundRobin:
		return "round_robin"
	case HashLocal:
		return "hash_local"
	default:
		return "random"
	}
}

// ParseStrategy maps a config string to a Strategy, defaulting to
// Random for anything unrecognized.
func ParseStrategy(s string) Strategy {
	switch s {
	case "round_robin":
		return RoundRobin
	case "hash_local":
		return HashLocal
	default:
		return Random
	}
}

// localHostHash hashes the local hostname once; ok is false when the
// hostname cannot be determined, in which case HashLocal falls back to
// random selection.
func localHostHash() (uint32, bool) {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return 0, false
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return h.Sum32(), true
}

func pickIndex(s Strategy, hostHash uint32, hostOK bool, rr int, n int) int {
	if n <= 1 {
		return 0
	}
	switch s {
	case RoundRobin:
		return rr % n
	case HashLocal:
		if hostOK {
			return int(hostHash % uint32(n))
		}
		return rand.Intn(n)
	default:
		return rand.Intn(n)
	}
}
