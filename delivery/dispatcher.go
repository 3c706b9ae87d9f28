package delivery

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marcelsud/leadhub/lead"
	"github.com/marcelsud/leadhub/webhook"
	"github.com/marcelsud/leadhub/webhook/payload"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultMaxAttempts    = 3
	DefaultMaxConcurrency = 64

	storeTimeout = 5 * time.Second
)

// Destinations is the part of the destination store the dispatcher depends on
type Destinations interface {
	ListActive(ctx context.Context) ([]webhook.Destination, error)
	webhook.Counter
}

// Config tunes the dispatcher. Zero values fall back to the defaults.
type Config struct {
	MaxAttempts    int
	Timeout        time.Duration
	UserAgent      string
	MaxConcurrency int64

	// Test seams
	Sender    *Sender
	AfterFunc AfterFunc
	Now       func() time.Time
}

// Stats is a point-in-time view of the background work
type Stats struct {
	InFlight       int64 `json:"in_flight"`       // attempts holding a concurrency slot
	PendingRetries int   `json:"pending_retries"` // retries waiting for their backoff timer
}

type chain struct {
	destinationID string
	leadID        string
	url           string // snapshot at dispatch time
	body          []byte // identical for every attempt of the chain
	maxAttempts   int
}

/* Dispatcher fans a lead event out to every active destination
 * Each destination gets its own chain of attempts; chains never wait on each other
 * and nothing they do is reported back to the caller of Dispatch.
 */
type Dispatcher struct {
	store       Destinations
	accounting  *Accounting
	sender      *Sender
	scheduler   *Scheduler
	sem         *semaphore.Weighted
	logger      zerolog.Logger
	maxAttempts int
	now         func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	closed   bool
	chains   sync.WaitGroup
	inflight atomic.Int64
}

// NewDispatcher creates a Dispatcher that reads destinations from store and records into logs
func NewDispatcher(store Destinations, logs webhook.DeliveryLogStore, cfg Config, logger zerolog.Logger) *Dispatcher {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.Sender == nil {
		cfg.Sender = NewSender(cfg.Timeout, cfg.UserAgent)
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time {
			return time.Now().UTC()
		}
	}

	accounting := NewAccounting(store, logs)
	accounting.Now = cfg.Now

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		store:       store,
		accounting:  accounting,
		sender:      cfg.Sender,
		scheduler:   NewScheduler(cfg.AfterFunc),
		sem:         semaphore.NewWeighted(cfg.MaxConcurrency),
		logger:      logger.With().Str("component", "dispatcher").Logger(),
		maxAttempts: cfg.MaxAttempts,
		now:         cfg.Now,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Dispatch delivers ev to every destination active right now. It returns immediately.
func (d *Dispatcher) Dispatch(ev lead.Event) {
	at := d.now()
	if !d.begin() {
		d.logger.Warn().Str("lead_id", ev.LeadID).Msg("dispatcher is shut down, event dropped")
		return
	}

	go func() {
		defer d.chains.Done()
		defer d.recoverChain("dispatch", ev.LeadID)

		ctx, cancel := context.WithTimeout(d.ctx, storeTimeout)
		destinations, err := d.store.ListActive(ctx)
		cancel()
		if err != nil {
			d.logger.Error().Err(err).Str("lead_id", ev.LeadID).Msg("loading active destinations")
			return
		}
		if len(destinations) == 0 {
			d.logger.Debug().Str("lead_id", ev.LeadID).Msg("no active destinations")
			return
		}

		d.logger.Info().
			Str("lead_id", ev.LeadID).
			Int("destinations", len(destinations)).
			Msg("dispatching event")
		for _, dest := range destinations {
			d.start(dest, ev, at)
		}
	}()
}

// DispatchTo delivers ev to a single destination whether it is active or not
func (d *Dispatcher) DispatchTo(dest webhook.Destination, ev lead.Event) {
	at := d.now()
	if !d.begin() {
		d.logger.Warn().Str("destination_id", dest.ID).Str("lead_id", ev.LeadID).Msg("dispatcher is shut down, event dropped")
		return
	}
	defer d.chains.Done()
	d.start(dest, ev, at)
}

// Wait blocks until every chain started so far has settled, including pending retries
func (d *Dispatcher) Wait() {
	d.chains.Wait()
}

// Stats reports in-flight attempts and pending retries
func (d *Dispatcher) Stats() Stats {
	return Stats{
		InFlight:       d.inflight.Load(),
		PendingRetries: d.scheduler.Pending(),
	}
}

/* Shutdown stops accepting events and drops every pending retry, then waits
 * for in-flight attempts. When ctx expires first, in-flight requests are aborted.
 * Dropped retries are lost, as they would be on a process restart.
 */
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	if dropped := d.scheduler.Stop(); dropped > 0 {
		d.logger.Warn().Int("retries", dropped).Msg("pending retries dropped at shutdown")
	}

	done := make(chan struct{})
	go func() {
		d.chains.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		return fmt.Errorf("waiting for in-flight deliveries: %w", ctx.Err())
	}
}

// begin registers a unit of work unless the dispatcher is closed
func (d *Dispatcher) begin() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.chains.Add(1)
	return true
}

// start builds the destination payload and launches its chain; the caller holds a chains slot
func (d *Dispatcher) start(dest webhook.Destination, ev lead.Event, at time.Time) {
	attrs := withLeadID(ev.Attributes, ev.LeadID)
	attrs = Project(WithDefaults(attrs, dest.CustomFields), dest.SendFields)

	envelope, err := payload.New(payload.EventLeadCreated, attrs, at)
	if err != nil {
		d.logger.Error().Err(err).Str("destination_id", dest.ID).Str("lead_id", ev.LeadID).Msg("building payload")
		return
	}
	body, err := envelope.Bytes()
	if err != nil {
		d.logger.Error().Err(err).Str("destination_id", dest.ID).Str("lead_id", ev.LeadID).Msg("encoding payload")
		return
	}

	c := chain{
		destinationID: dest.ID,
		leadID:        ev.LeadID,
		url:           dest.URL,
		body:          body,
		maxAttempts:   d.maxAttempts,
	}
	d.chains.Add(1)
	go d.run(c, 1)
}

// run executes one attempt and releases the chain slot unless a retry took it over
func (d *Dispatcher) run(c chain, attempt int) {
	settled := true
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Str("destination_id", c.destinationID).
				Str("lead_id", c.leadID).
				Msg("delivery chain panicked")
			settled = true
		}
		if settled {
			d.chains.Done()
		}
	}()
	settled = !d.attempt(c, attempt)
}

// attempt sends once, records the outcome and reports whether a retry was scheduled
func (d *Dispatcher) attempt(c chain, n int) bool {
	log := d.logger.With().
		Str("destination_id", c.destinationID).
		Str("lead_id", c.leadID).
		Int("attempt", n).
		Int("max_attempts", c.maxAttempts).
		Logger()

	if err := d.sem.Acquire(d.ctx, 1); err != nil {
		log.Warn().Err(err).Msg("delivery dropped at shutdown")
		return false
	}
	d.inflight.Add(1)
	startedAt := d.now()
	outcome := d.sender.Send(d.ctx, c.url, c.body)
	d.inflight.Add(-1)
	d.sem.Release(1)

	row := webhook.DeliveryLog{
		DestinationID: c.destinationID,
		LeadID:        c.leadID,
		URL:           c.url,
		HTTPStatus:    outcome.HTTPStatus,
		Attempt:       n,
		MaxAttempts:   c.maxAttempts,
		CreatedAt:     startedAt,
	}
	if outcome.HTTPStatus != nil {
		log = log.With().Int("http_status", *outcome.HTTPStatus).Logger()
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if outcome.OK() {
		row.Status = webhook.Success
		row.ResponseExcerpt = outcome.Excerpt
		if err := d.accounting.RecordSuccess(ctx, c.destinationID); err != nil {
			log.Error().Err(err).Msg("updating counters")
		}
		d.appendLog(ctx, log, row)
		log.Debug().Msg("delivered")
		return false
	}

	if err := d.accounting.RecordFailure(ctx, c.destinationID); err != nil {
		log.Error().Err(err).Msg("updating counters")
	}
	row.ErrorMessage = outcome.Err.Error()

	if n >= c.maxAttempts {
		row.Status = webhook.Failed
		d.appendLog(ctx, log, row)
		log.Error().Err(outcome.Err).Msg("delivery failed")
		return false
	}

	delay := Backoff(n + 1)
	next := d.now().Add(delay)
	row.Status = webhook.Retrying
	row.NextRetryAt = &next
	d.appendLog(ctx, log, row)
	log.Warn().Err(outcome.Err).Dur("backoff", delay).Msg("delivery failed, retrying")

	scheduled := d.scheduler.Schedule(delay,
		func() { d.run(c, n+1) },
		func() {
			log.Warn().Time("next_retry_at", next).Msg("retry dropped at shutdown")
			d.chains.Done()
		},
	)
	if !scheduled {
		log.Warn().Time("next_retry_at", next).Msg("retry dropped at shutdown")
	}
	return scheduled
}

func (d *Dispatcher) appendLog(ctx context.Context, log zerolog.Logger, row webhook.DeliveryLog) {
	if _, err := d.accounting.AppendLog(ctx, row); err != nil {
		log.Error().Err(err).Str("status", row.Status.String()).Msg("writing delivery log")
	}
}

func (d *Dispatcher) recoverChain(stage, leadID string) {
	if r := recover(); r != nil {
		d.logger.Error().
			Interface("panic", r).
			Bytes("stack", debug.Stack()).
			Str("stage", stage).
			Str("lead_id", leadID).
			Msg("dispatch panicked")
	}
}

var _ lead.Notifier = (*Dispatcher)(nil)
