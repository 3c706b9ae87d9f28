package webhook

import (
	"context"
	"time"
)

/* Small, focused interfaces
 * Stores assign IDs on insert; this package never generates them
 */

// Reader provides read operations for destinations
type Reader interface {
	Get(ctx context.Context, id string) (Destination, error)
	// List returns every destination, newest first
	List(ctx context.Context) ([]Destination, error)
	// ListActive returns a point-in-time snapshot of the active destinations
	ListActive(ctx context.Context) ([]Destination, error)
}

// Writer provides configuration writes for destinations
type Writer interface {
	/* Create stores a destination and returns it with its ID set
	 * Counters and LastTriggeredAt of the argument are ignored
	 */
	Create(ctx context.Context, d Destination) (Destination, error)
	// Update replaces the configuration fields (name, url, active, fields); counters are untouched
	Update(ctx context.Context, d Destination) error
	Delete(ctx context.Context, id string) error
}

/* Counter mutates delivery counters atomically
 * Implementations must not lose increments under concurrent calls
 */
type Counter interface {
	IncrementSuccess(ctx context.Context, id string, at time.Time) error
	IncrementFailure(ctx context.Context, id string) error
}

// Store is the destination configuration store used by the dispatcher
type Store interface {
	Reader
	Writer
	Counter
}

// LogQuery selects recent delivery log rows
type LogQuery struct {
	DestinationID string // optional
	Limit         int
}

// DeliveryLogStore is the append-only attempt history
type DeliveryLogStore interface {
	// Append inserts the row and returns the generated ID
	Append(ctx context.Context, log DeliveryLog) (string, error)
	// ListRecent returns rows newest first
	ListRecent(ctx context.Context, q LogQuery) ([]DeliveryLog, error)
}

/* Interface composition - one backend serving both stores
 */
type Repository interface {
	Store
	DeliveryLogStore
	Close(ctx context.Context) error
}
