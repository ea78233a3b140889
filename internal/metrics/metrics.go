// Package metrics exposes Prometheus collectors for balancing, ban lookups and
// the operator API.
package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const subsystem = "teamenforcer"

// Ban lookup results
const (
	LookupBanned   = "banned"
	LookupClear    = "clear"
	LookupError    = "error"
	LookupDisabled = "disabled"
)

// Demotion reasons
const (
	DemotedBanned       = "banned"
	DemotedLeaver       = "leaver"
	DemotedIllegitimate = "illegitimate"
	DemotedEvicted      = "evicted"
)

// Registry holds every collector of this package plus the Go runtime collectors
var Registry = prometheus.NewRegistry()

var (
	reconciliations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "reconciliations_total",
			Help:      "Count of team balancing passes by trigger.",
		},
		[]string{"trigger"},
	)
	promotions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "promotions_total",
			Help:      "Count of participants moved onto the guard team by balancing.",
		},
	)
	demotions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "demotions_total",
			Help:      "Count of guards moved off the guard team by balancing, by reason.",
		},
		[]string{"reason"},
	)
	shortfall = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Subsystem: subsystem,
			Name:      "guard_shortfall",
			Help:      "Guard slots left unfilled by the last balancing pass.",
		},
	)
	idealGuards = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Subsystem: subsystem,
			Name:      "ideal_guards",
			Help:      "Target guard team size computed by the last balancing pass.",
		},
	)
	queueLength = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Subsystem: subsystem,
			Name:      "queue_length",
			Help:      "Participants waiting in the guard queue, by tier.",
		},
		[]string{"tier"},
	)
	banLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "ban_lookups_total",
			Help:      "Count of active-ban lookups by result.",
		},
		[]string{"result"},
	)
	banStorageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "ban_storage_failures_total",
			Help:      "Count of ban storage operations that failed.",
		},
		[]string{"op"},
	)
	streamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Subsystem: subsystem,
			Name:      "stream_clients",
			Help:      "Connected event stream clients.",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "http_requests_total",
			Help:      "Count of operator API requests by route, method and status code.",
		},
		[]string{"route", "method", "code"},
	)
)

var registerMetrics sync.Once

// Register adds all collectors to Registry. Safe to call more than once.
func Register() {
	registerMetrics.Do(func() {
		Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			reconciliations,
			promotions,
			demotions,
			shortfall,
			idealGuards,
			queueLength,
			banLookups,
			banStorageFailures,
			streamClients,
			httpRequests,
		)
	})
}

// Handler serves Registry in the Prometheus exposition format
func Handler() http.Handler {
	Register()
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordReconciliation records one balancing pass and its outcome
func RecordReconciliation(warmupEnd bool, ideal, short, promoted int) {
	trigger := "round_end"
	if warmupEnd {
		trigger = "warmup_end"
	}
	reconciliations.WithLabelValues(trigger).Inc()
	idealGuards.Set(float64(ideal))
	shortfall.Set(float64(short))
	promotions.Add(float64(promoted))
}

// RecordDemotions adds count demotions for reason
func RecordDemotions(reason string, count int) {
	if count == 0 {
		return
	}
	demotions.WithLabelValues(reason).Add(float64(count))
}

// SetQueueLength publishes the current length of one queue tier
func SetQueueLength(tier string, n int) {
	queueLength.WithLabelValues(tier).Set(float64(n))
}

// RecordBanLookup counts an active-ban lookup
func RecordBanLookup(result string) {
	banLookups.WithLabelValues(result).Inc()
}

// RecordBanStorageFailure counts a failed ban storage operation
func RecordBanStorageFailure(op string) {
	banStorageFailures.WithLabelValues(op).Inc()
}

// SetStreamClients publishes the number of connected stream clients
func SetStreamClients(n int) {
	streamClients.Set(float64(n))
}

// RecordRequest counts a served API request
func RecordRequest(route, method string, code int) {
	httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
}
