package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Ledger
	LedgerOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Charge/use attempts by outcome",
		},
		[]string{"type", "result"}, // CHARGE|USE, ok|invalid_amount|limit_exceeded|insufficient|error
	)
	LockWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledger_lock_wait_seconds",
			Help:    "Time spent waiting for a user's exclusive slot",
			Buckets: []float64{.00001, .0001, .001, .005, .01, .05, .1, .5, 1},
		},
	)
	LockSlots = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_lock_slots",
			Help: "Distinct users that own an exclusive slot",
		},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)

	initOnce sync.Once
)

// Handler serves /metrics.
var Handler = promhttp.Handler

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal, LedgerOperations, LockWait, LockSlots, WorkerQueueDepth)
	})
}
