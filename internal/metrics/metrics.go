package metrics

import (
	"sync"

	"github.com/acapretti/bogofree/pkg/promo"
	"github.com/prometheus/client_golang/prometheus"
)

type promoMetrics struct {
	passes   *prometheus.CounterVec
	added    prometheus.Counter
	removed  prometheus.Counter
	failed   prometheus.Counter
	repriced prometheus.Counter
	saves    prometheus.Counter
}

var (
	promoMetricsOnce sync.Once
	promoRegistry    *promoMetrics
)

func defaultPromoMetrics() *promoMetrics {
	promoMetricsOnce.Do(func() {
		promoRegistry = &promoMetrics{
			passes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "bogofree",
				Subsystem: "cart",
				Name:      "passes_total",
				Help:      "Before-totals passes by outcome (skipped, disabled, qualifying, not_qualifying).",
			}, []string{"outcome"}),
			added: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "bogofree",
				Subsystem: "cart",
				Name:      "free_lines_added_total",
				Help:      "Free gift lines added to carts.",
			}),
			removed: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "bogofree",
				Subsystem: "cart",
				Name:      "free_lines_removed_total",
				Help:      "Free gift lines removed from carts that stopped qualifying.",
			}),
			failed: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "bogofree",
				Subsystem: "cart",
				Name:      "free_lines_failed_total",
				Help:      "Free gift lines the cart refused to add.",
			}),
			repriced: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "bogofree",
				Subsystem: "cart",
				Name:      "free_lines_repriced_total",
				Help:      "Free gift lines whose non-zero price was forced back to zero.",
			}),
			saves: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "bogofree",
				Subsystem: "settings",
				Name:      "saves_total",
				Help:      "Successful settings saves from the admin form or API.",
			}),
		}
		prometheus.MustRegister(
			promoRegistry.passes,
			promoRegistry.added,
			promoRegistry.removed,
			promoRegistry.failed,
			promoRegistry.repriced,
			promoRegistry.saves,
		)
	})
	return promoRegistry
}

// Outcome classifies a pass for the passes_total counter.
func Outcome(r promo.Report) string {
	switch {
	case r.Skipped:
		return "skipped"
	case !r.Enabled:
		return "disabled"
	case r.Qualifies:
		return "qualifying"
	default:
		return "not_qualifying"
	}
}

// RecordPass counts one before-totals pass.
func RecordPass(r promo.Report) {
	m := defaultPromoMetrics()
	m.passes.WithLabelValues(Outcome(r)).Inc()
	m.added.Add(float64(len(r.Added)))
	m.removed.Add(float64(len(r.Removed)))
	m.failed.Add(float64(len(r.Failed)))
	m.repriced.Add(float64(len(r.Repriced)))
}

// RecordSettingsSave counts one stored configuration.
func RecordSettingsSave() {
	defaultPromoMetrics().saves.Inc()
}
