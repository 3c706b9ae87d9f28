package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/marcelsud/leadhub/webhook"
)

/* Accounting records the outcome of every attempt
 * Atomicity of the counters is delegated to the store
 */
type Accounting struct {
	Counter webhook.Counter
	Logs    webhook.DeliveryLogStore
	Now     func() time.Time
}

// NewAccounting creates an Accounting over the given stores
func NewAccounting(counter webhook.Counter, logs webhook.DeliveryLogStore) *Accounting {
	return &Accounting{
		Counter: counter,
		Logs:    logs,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// RecordSuccess increments successCount and sets lastTriggeredAt to now
func (a *Accounting) RecordSuccess(ctx context.Context, destinationID string) error {
	if err := a.Counter.IncrementSuccess(ctx, destinationID, a.Now()); err != nil {
		return fmt.Errorf("recording success for %s: %w", destinationID, err)
	}
	return nil
}

// RecordFailure increments failureCount; lastTriggeredAt is untouched
func (a *Accounting) RecordFailure(ctx context.Context, destinationID string) error {
	if err := a.Counter.IncrementFailure(ctx, destinationID); err != nil {
		return fmt.Errorf("recording failure for %s: %w", destinationID, err)
	}
	return nil
}

// AppendLog inserts one immutable row and returns its ID
func (a *Accounting) AppendLog(ctx context.Context, log webhook.DeliveryLog) (string, error) {
	if err := log.Validate(); err != nil {
		return "", fmt.Errorf("validating delivery log: %w", err)
	}
	id, err := a.Logs.Append(ctx, log)
	if err != nil {
		return "", fmt.Errorf("appending delivery log: %w", err)
	}
	return id, nil
}
