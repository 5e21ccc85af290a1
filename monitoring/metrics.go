package monitoring

import (
	"net/http"
	"strconv"

	"event-ticketing/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scanAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_scan_attempts_total",
			Help: "Check-in scan attempts by event and result",
		},
		[]string{"event_id", "result"},
	)

	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Tickets issued by event and category",
		},
		[]string{"event_id", "category"},
	)

	ownershipChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_ownership_changes_total",
			Help: "Completed transfers, gifts and links",
		},
		[]string{"operation"},
	)
)

// RecordScan counts one check-in attempt outcome.
func RecordScan(eventID uint, result string) {
	scanAttempts.WithLabelValues(strconv.FormatUint(uint64(eventID), 10), result).Inc()
}

// RecordIssued counts issued tickets for an event/category.
func RecordIssued(eventID uint, category string, count int) {
	ticketsIssued.WithLabelValues(strconv.FormatUint(uint64(eventID), 10), category).Add(float64(count))
}

// RecordOwnershipChange counts a completed transfer, gift or link.
func RecordOwnershipChange(operation string) {
	ownershipChanges.WithLabelValues(operation).Inc()
}

// Serve exposes /metrics on its own listener so scraping never touches the
// API port.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("Metrics listener stopped", err)
		}
	}()
}
