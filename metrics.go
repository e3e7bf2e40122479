// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Transfer paths reported in the "path" label of csp_transfers_total.
const (
	PathRendezvous = "rendezvous" // slot to slot, no ring involved
	PathBuffer     = "buffer"     // through the ring
	PathClosed     = "closed"     // completed by a closed channel
)

// Select outcomes reported in the "outcome" label of csp_selects_total.
const (
	OutcomeReady   = "ready"     // a case was ready on entry
	OutcomeBlocked = "blocked"   // the caller suspended
	OutcomeMiss    = "not_ready" // non-blocking poll found nothing
)

// Metrics exports engine counters to Prometheus.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	transfers *prometheus.CounterVec
	selects   *prometheus.CounterVec
	wakeups   prometheus.Counter
	waiters   prometheus.Gauge
}

// NewMetrics creates the engine collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		transfers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "csp",
				Name:      "transfers_total",
				Help:      "Completed channel operations by direction and path.",
			},
			[]string{"dir", "path"},
		),
		selects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "csp",
				Name:      "selects_total",
				Help:      "Select calls by outcome.",
			},
			[]string{"outcome"},
		),
		wakeups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "csp",
			Name:      "wakeups_total",
			Help:      "Blocked tasks made runnable by a matching operation or close.",
		}),
		waiters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "csp",
			Name:      "waiters",
			Help:      "Operations currently registered on wait queues.",
		}),
	}
	for _, c := range []prometheus.Collector{m.transfers, m.selects, m.wakeups, m.waiters} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) transfer(dir Direction, path string) {
	if m == nil {
		return
	}
	m.transfers.WithLabelValues(dir.String(), path).Inc()
}

func (m *Metrics) selectOutcome(outcome string) {
	if m == nil {
		return
	}
	m.selects.WithLabelValues(outcome).Inc()
}

func (m *Metrics) wakeup() {
	if m == nil {
		return
	}
	m.wakeups.Inc()
}

func (m *Metrics) addWaiters(n int) {
	if m == nil {
		return
	}
	m.waiters.Add(float64(n))
}
