package metrics

import (
	"context"
	"time"

	"github.com/marcelsud/leadhub/delivery"
)

// Metrics represents the current state of webhook delivery.
type Metrics struct {
	// Deliveries maps destination id to its success/failure counters
	Deliveries map[string]DeliveryCounts `json:"deliveries"`

	// StatusCounts maps log status to the number of recent log rows with it
	StatusCounts map[string]int64 `json:"status_counts"`

	// Dispatcher is the live state of the in-process dispatcher
	Dispatcher delivery.Stats `json:"dispatcher"`

	// Timestamp when metrics were collected
	Timestamp time.Time `json:"timestamp"`
}

// DeliveryCounts are the accounting counters of one destination.
type DeliveryCounts struct {
	Success int64 `json:"success"`
	Failure int64 `json:"failure"`
}

// Collector defines the interface for collecting metrics from the delivery system.
type Collector interface {
	// Collect gathers current metrics from the system
	Collect(ctx context.Context) (Metrics, error)

	// GetDeliveryCounts returns the success/failure counters per destination
	GetDeliveryCounts(ctx context.Context) (map[string]DeliveryCounts, error)

	// GetStatusCounts returns the count of recent delivery log rows by status
	GetStatusCounts(ctx context.Context) (map[string]int64, error)

	// GetDispatcherStats returns in-flight chains and pending retries
	GetDispatcherStats(ctx context.Context) (delivery.Stats, error)
}
