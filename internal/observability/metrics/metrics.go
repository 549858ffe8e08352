package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orchestrate_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orchestrate_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	bookingsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orchestrate_bookings_created_total",
		Help: "Count of successfully created bookings by origin",
	}, []string{"origin"})

	bookingConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orchestrate_booking_conflicts_total",
		Help: "Count of booking attempts rejected by the overlap check",
	})

	membershipSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orchestrate_membership_syncs_total",
		Help: "Count of project membership reconciliations by result",
	}, []string{"result"})

	bookingsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orchestrate_bookings_purged_total",
		Help: "Count of expired bookings removed by the retention worker",
	})

	boardClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orchestrate_board_clients",
		Help: "Number of connected live board websocket clients",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveBookingCreated increments the created-bookings counter.
func ObserveBookingCreated(external bool) {
	origin := "internal"
	if external {
		origin = "guest"
	}
	bookingsCreated.WithLabelValues(origin).Inc()
}

// ObserveBookingConflict increments the overlap-rejection counter.
func ObserveBookingConflict() {
	bookingConflicts.Inc()
}

// ObserveMembershipSync records a membership reconciliation attempt.
func ObserveMembershipSync(result string) {
	membershipSyncs.WithLabelValues(result).Inc()
}

// ObserveBookingsPurged adds to the retention purge counter.
func ObserveBookingsPurged(count int) {
	if count > 0 {
		bookingsPurged.Add(float64(count))
	}
}

// IncrementBoardClients increments the connected board client gauge.
func IncrementBoardClients() {
	boardClients.Inc()
}

// DecrementBoardClients decrements the connected board client gauge.
func DecrementBoardClients() {
	boardClients.Dec()
}
