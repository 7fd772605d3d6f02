// Package metrics exposes Prometheus metrics for the session layout.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the layout gauges and notification counters. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	TabsOpen           prometheus.Gauge
	PanesOpen          prometheus.Gauge
	Notifications      *prometheus.CounterVec
	StaleNotifications *prometheus.CounterVec
	LayoutRepairs      prometheus.Counter
}

// New registers the metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TabsOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "raven_tabs_open",
			Help: "Number of open tabs",
		}),
		PanesOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "raven_panes_open",
			Help: "Number of open panes across all tabs",
		}),
		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "raven_notifications_total",
				Help: "Terminal notifications applied to the layout",
			},
			[]string{"kind"},
		),
		StaleNotifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "raven_stale_notifications_total",
				Help: "Terminal notifications whose handle no longer resolved",
			},
			[]string{"kind"},
		),
		LayoutRepairs: factory.NewCounter(prometheus.CounterOpts{
			Name: "raven_layout_repairs_total",
			Help: "Active pane pointers repaired after a structural change",
		}),
	}
}

// SetLayout records the current number of tabs and panes.
func (m *Metrics) SetLayout(tabs, panes int) {
	if m == nil {
		return
	}
	m.TabsOpen.Set(float64(tabs))
	m.PanesOpen.Set(float64(panes))
}

// ObserveNotification counts a notification of the given kind.
func (m *Metrics) ObserveNotification(kind string, stale bool) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(kind).Inc()
	if stale {
		m.StaleNotifications.WithLabelValues(kind).Inc()
	}
}

// ObserveRepair counts an active pointer repair.
func (m *Metrics) ObserveRepair() {
	if m == nil {
		return
	}
	m.LayoutRepairs.Inc()
}
