package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// BillsCreatedTotal counts created bills by purchaser category.
	BillsCreatedTotal *prometheus.CounterVec
	// BillNetPayable records the net payable amount distribution in cents.
	BillNetPayable prometheus.Histogram
	// AuthLoginTotal counts login attempts by outcome.
	AuthLoginTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific
// Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		BillsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_created_total",
			Help:      "Count of bills created by purchaser category.",
		}, []string{"category"})
		BillNetPayable = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bill_net_payable_cents",
			Help:      "Net payable amount per bill in minor units.",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 7),
		})
		AuthLoginTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_login_total",
			Help:      "Count of login attempts by outcome.",
		}, []string{"result"})

		mustRegisterCollector(reg, BillsCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BillsCreatedTotal = v
			}
		})
		mustRegisterCollector(reg, BillNetPayable, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				BillNetPayable = v
			}
		})
		mustRegisterCollector(reg, AuthLoginTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				AuthLoginTotal = v
			}
		})
	})
}

// RecordBillCreated updates bill creation metrics; it is a no-op when the
// domain metrics have not been registered.
func RecordBillCreated(category string, netPayable int64) {
	if BillsCreatedTotal != nil {
		BillsCreatedTotal.WithLabelValues(category).Inc()
	}
	if BillNetPayable != nil {
		BillNetPayable.Observe(float64(netPayable))
	}
}

// RecordLogin updates login outcome metrics; no-op when unregistered.
func RecordLogin(result string) {
	if AuthLoginTotal != nil {
		AuthLoginTotal.WithLabelValues(result).Inc()
	}
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(err)
	}
}
