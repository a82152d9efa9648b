// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package admin

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors the admin surface exposes
// under /metrics.
type Metrics struct {
	reg           *prometheus.Registry
	inserts       prometheus.Counter
	deletes       prometheus.Counter
	errors        prometheus.Counter
	integrityFail prometheus.Counter
}

// NewMetrics builds and registers a fresh collector set.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		reg: reg,
		inserts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zdb",
			Name:      "inserts_total",
			Help:      "Number of successful key/value inserts.",
		}),
		deletes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zdb",
			Name:      "deletes_total",
			Help:      "Number of successful key deletions.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zdb",
			Name:      "insert_errors_total",
			Help:      "Number of failed insert attempts.",
		}),
		integrityFail: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zdb",
			Name:      "integrity_mismatches_total",
			Help:      "Number of CRC32C mismatches found by Check.",
		}),
	}

	reg.MustRegister(m.inserts, m.deletes, m.errors, m.integrityFail)
	return m
}

// Handler returns the promhttp handler serving this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func parseBucketID(raw string) (uint32, error) {
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
