package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/marcelsud/leadhub/delivery"
	"github.com/marcelsud/leadhub/webhook"
)

// DefaultLogSample is the number of recent log rows inspected for status counts
const DefaultLogSample = 1000

// StatsSource reports live dispatcher state
type StatsSource interface {
	Stats() delivery.Stats
}

// StoreCollector implements the Collector interface on top of the webhook stores
type StoreCollector struct {
	destinations webhook.Reader
	logs         webhook.DeliveryLogStore
	dispatcher   StatsSource
	LogSample    int
}

// NewStoreCollector creates a new collector. dispatcher may be nil.
func NewStoreCollector(destinations webhook.Reader, logs webhook.DeliveryLogStore, dispatcher StatsSource) *StoreCollector {
	return &StoreCollector{
		destinations: destinations,
		logs:         logs,
		dispatcher:   dispatcher,
		LogSample:    DefaultLogSample,
	}
}

// Collect gathers all metrics
func (c *StoreCollector) Collect(ctx context.Context) (Metrics, error) {
	deliveries, err := c.GetDeliveryCounts(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting delivery counts: %w", err)
	}

	statusCounts, err := c.GetStatusCounts(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting status counts: %w", err)
	}

	stats, err := c.GetDispatcherStats(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting dispatcher stats: %w", err)
	}

	return Metrics{
		Deliveries:   deliveries,
		StatusCounts: statusCounts,
		Dispatcher:   stats,
		Timestamp:    time.Now(),
	}, nil
}

// GetDeliveryCounts reads the counters of every destination, active or not
func (c *StoreCollector) GetDeliveryCounts(ctx context.Context) (map[string]DeliveryCounts, error) {
	all, err := c.destinations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing destinations: %w", err)
	}

	counts := make(map[string]DeliveryCounts, len(all))
	for _, d := range all {
		counts[d.ID] = DeliveryCounts{Success: d.SuccessCount, Failure: d.FailureCount}
	}
	return counts, nil
}

// GetStatusCounts counts the most recent log rows by status
func (c *StoreCollector) GetStatusCounts(ctx context.Context) (map[string]int64, error) {
	logs, err := c.logs.ListRecent(ctx, webhook.LogQuery{Limit: c.LogSample})
	if err != nil {
		return nil, fmt.Errorf("listing delivery logs: %w", err)
	}

	counts := map[string]int64{
		webhook.Success.String():  0,
		webhook.Retrying.String(): 0,
		webhook.Failed.String():   0,
	}
	for _, l := range logs {
		counts[l.Status.String()]++
	}
	return counts, nil
}

// GetDispatcherStats returns zero stats when no dispatcher is attached
func (c *StoreCollector) GetDispatcherStats(ctx context.Context) (delivery.Stats, error) {
	if c.dispatcher == nil {
		return delivery.Stats{}, nil
	}
	return c.dispatcher.Stats(), nil
}

var _ Collector = (*StoreCollector)(nil)
