package lead

import "time"

/* Event is the immutable snapshot of a lead at creation time
 * It is passed by value and consumers must not modify Attributes in place
 */
type Event struct {
	LeadID     string
	Attributes Attributes
	OccurredAt time.Time
}

// Notifier receives lead events. Implementations must return without waiting
// for any downstream delivery.
type Notifier interface {
	Dispatch(ev Event)
}
