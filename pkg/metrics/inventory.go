package metrics

import "github.com/prometheus/client_golang/prometheus"

// InventoryMetrics counts scans, item lifecycle changes and emitted alerts.
type InventoryMetrics struct {
	scans   *prometheus.CounterVec
	created prometheus.Counter
	removed prometheus.Counter
	alerts  *prometheus.CounterVec
}

// NewInventoryMetrics registers the inventory metrics on the provided registerer.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	scans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fridge_scans_total",
		Help: "Scan events recorded, by event type.",
	}, []string{"type"})
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fridge_items_created_total",
		Help: "Items created by scan-in.",
	})
	removed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fridge_items_removed_total",
		Help: "Items flipped to removed by scan-out.",
	})
	alerts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fridge_alerts_emitted_total",
		Help: "Expiration alerts emitted by the sweep, by alert type.",
	}, []string{"type"})
	reg.MustRegister(scans, created, removed, alerts)
	return &InventoryMetrics{
		scans:   scans,
		created: created,
		removed: removed,
		alerts:  alerts,
	}
}

// ObserveScan records one scan event and how many items it touched.
func (m *InventoryMetrics) ObserveScan(eventType string, created, removed int) {
	if m == nil || m.scans == nil {
		return
	}
	m.scans.WithLabelValues(normalizeLabel(eventType)).Inc()
	if created > 0 {
		m.created.Add(float64(created))
	}
	if removed > 0 {
		m.removed.Add(float64(removed))
	}
}

// IncAlert counts one emitted alert of the given type.
func (m *InventoryMetrics) IncAlert(alertType string) {
	if m == nil || m.alerts == nil {
		return
	}
	m.alerts.WithLabelValues(normalizeLabel(alertType)).Inc()
}
