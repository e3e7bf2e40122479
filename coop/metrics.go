// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coop

import "github.com/prometheus/client_golang/prometheus"

// RegisterMetrics exports the scheduler statistics to reg:
// coop_tasks (live tasks) and coop_switches_total (returns to the
// scheduler loop). A nil reg uses prometheus.DefaultRegisterer.
func (s *Scheduler) RegisterMetrics(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	tasks := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "coop",
		Name:      "tasks",
		Help:      "Live tasks.",
	}, func() float64 { return float64(s.tasks.Load()) })
	switches := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "coop",
		Name:      "switches_total",
		Help:      "Times a task handed control back to the scheduler.",
	}, func() float64 { return float64(s.switches.Load()) })

	if err := reg.Register(tasks); err != nil {
		return err
	}
	return reg.Register(switches)
}
