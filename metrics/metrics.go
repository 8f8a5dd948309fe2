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

// Package metrics exposes the runtime's operational counters and gauges
// as prometheus collectors: in-flight and completed calls on the client
// side, open sessions, and the registry's service and subscriber
// populations. Collectors are plain client_golang types registered on
// whatever Registerer the caller supplies, so tests can use a private
// registry and processes can hang them off the default one.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name exported by this package.
const Namespace = "asyncrpc"

// Metrics bundles the collectors shared across the client, pool and
// registry. One instance per process is typical.
type Metrics struct {
	// CallsTotal counts completed calls by method name and outcome code.
	CallsTotal *prometheus.CounterVec

	// CallsInFlight tracks calls issued but not yet resolved.
	CallsInFlight prometheus.Gauge

	// SessionsOpen tracks established RPC connections.
	SessionsOpen prometheus.Gauge

	// ServicesRegistered tracks (service, provider) pairs the registry
	// currently holds.
	ServicesRegistered prometheus.Gauge

	// SubscribersActive tracks live subscriber sessions across all keys,
	// refreshed by the registry's sweeper.
	SubscribersActive prometheus.Gauge
}

// New builds the collector set and registers it on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "calls_total",
			Help:      "Completed RPC calls by method and outcome code.",
		}, []string{"method", "code"}),
		CallsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "calls_in_flight",
			Help:      "RPC calls issued and awaiting a reply.",
		}),
		SessionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "sessions_open",
			Help:      "Established RPC connections.",
		}),
		ServicesRegistered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "registry_services",
			Help:      "Service/provider pairs currently registered.",
		}),
		SubscribersActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "registry_subscribers",
			Help:      "Live subscriber sessions across all keys.",
		}),
	}
	reg.MustRegister(m.CallsTotal, m.CallsInFlight, m.SessionsOpen, m.ServicesRegistered, m.SubscribersActive)
	return m
}
