package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartTotalCalculations counts total calculations by membership state.
	CartTotalCalculations *prometheus.CounterVec
	// CartBulkLines counts priced lines where the bulk tier applied.
	CartBulkLines prometheus.Counter
	// CartLineChanges counts cart line mutations by outcome (added, replaced, removed, ignored).
	CartLineChanges *prometheus.CounterVec
	// CartsActive tracks the number of live carts held in memory.
	CartsActive prometheus.Gauge
	// RateLimitRejections counts requests refused by the rate limiter.
	RateLimitRejections prometheus.Counter
	// BreakerState reports circuit breaker state per target (0 closed, 1 open, 2 half-open).
	BreakerState *prometheus.GaugeVec
	// BreakerTransitions counts circuit breaker state changes.
	BreakerTransitions *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartTotalCalculations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_total_calculations_total",
			Help:      "Count of cart total calculations by membership state.",
		}, []string{"membership"})
		CartBulkLines = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_bulk_lines_total",
			Help:      "Count of priced cart lines that used bulk pricing.",
		})
		CartLineChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_line_changes_total",
			Help:      "Count of cart line changes by outcome.",
		}, []string{"action"})
		CartsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "carts_active",
			Help:      "Number of carts currently held in memory.",
		})
		RateLimitRejections = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_rejections_total",
			Help:      "Number of requests rejected by the rate limiter.",
		})
		BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Current breaker state: 0=closed,1=open,2=half-open.",
		}, []string{"target"})
		BreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transitions_total",
			Help:      "Count of breaker state transitions.",
		}, []string{"target", "from", "to"})

		mustRegisterCollector(reg, CartTotalCalculations, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartTotalCalculations = v
			}
		})
		mustRegisterCollector(reg, CartBulkLines, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CartBulkLines = v
			}
		})
		mustRegisterCollector(reg, CartLineChanges, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartLineChanges = v
			}
		})
		mustRegisterCollector(reg, CartsActive, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Gauge); ok {
				CartsActive = v
			}
		})
		mustRegisterCollector(reg, RateLimitRejections, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				RateLimitRejections = v
			}
		})
		mustRegisterCollector(reg, BreakerState, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.GaugeVec); ok {
				BreakerState = v
			}
		})
		mustRegisterCollector(reg, BreakerTransitions, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BreakerTransitions = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
