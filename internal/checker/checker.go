// Package checker compares watched plates against the RDW dataset and emits
// reminder events for changed, due and expired examinations.
package checker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/samvad-hq/openoverheid/internal/logger"
	"github.com/samvad-hq/openoverheid/pkg/publishers"
	"github.com/samvad-hq/openoverheid/pkg/rdw"
)

// Service coordinates expiration checks across watched plates.
type Service struct {
	lookup     ExpirationLookup
	publisher  EventPublisher
	store      ExpirationStore
	deduper    ReminderDeduper
	log        logger.Logger
	windowDays int
	now        func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source used to compute days left.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires a checker. A nil store or deduper disables the respective
// bookkeeping; a nil publisher drops events after logging them.
func NewService(lookup ExpirationLookup, pub EventPublisher, log logger.Logger, store ExpirationStore, deduper ReminderDeduper, windowDays int, opts ...Option) *Service {
	if log == nil {
		log = &logger.NopLogger{}
	}
	s := &Service{
		lookup:     lookup,
		publisher:  pub,
		store:      store,
		deduper:    deduper,
		log:        log,
		windowDays: windowDays,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run checks every plate and returns the joined per-plate failures.
func (s *Service) Run(ctx context.Context, plates []string) error {
	if s == nil || s.lookup == nil {
		return fmt.Errorf("checker service is not initialized")
	}

	if len(plates) == 0 {
		return fmt.Errorf("no plates to check")
	}

	errs := s.runAll(ctx, plates)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func (s *Service) runAll(ctx context.Context, plates []string) []error {
	errs := make([]error, 0, len(plates))

	for _, plate := range plates {
		if ctx.Err() != nil {
			break
		}
		if err := s.checkPlate(ctx, plate); err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("plate check failed", "plate_error", map[string]any{
				"license_plate": plate,
				"error":         err.Error(),
			})
		}
	}

	return errs
}

// Result is the outcome of checking one plate.
type Result struct {
	LicensePlate string
	ExpiresOn    civil.Date
	Events       []publishers.Event
}

// Check looks up a single plate and derives its reminder events without
// publishing them.
func (s *Service) Check(ctx context.Context, plate string) (Result, error) {
	p, err := rdw.NormalizeLicensePlate(plate)
	if err != nil {
		return Result{}, err
	}

	expires, err := s.lookup.ExaminationExpiration(ctx, p.String())
	if err != nil {
		return Result{}, fmt.Errorf("lookup %s: %w", p, err)
	}

	events, err := s.evaluate(p.String(), expires)
	if err != nil {
		return Result{}, err
	}
	return Result{LicensePlate: p.String(), ExpiresOn: expires, Events: events}, nil
}

func (s *Service) checkPlate(ctx context.Context, plate string) error {
	res, err := s.Check(ctx, plate)
	if errors.Is(err, rdw.ErrNotFound) {
		s.log.WarnObj("plate not present in dataset", "license_plate", plate)
		return nil
	}
	if err != nil {
		return err
	}

	var errs []error
	published := 0
	for _, evt := range res.Events {
		ok, err := s.deliver(ctx, evt)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			published++
		}
	}

	// A failed delivery leaves the previous date in place so the change is
	// announced again on the next pass.
	if len(errs) == 0 && s.store != nil {
		if err := s.store.RecordExpiration(res.LicensePlate, res.ExpiresOn); err != nil {
			errs = append(errs, fmt.Errorf("record expiration for %s: %w", res.LicensePlate, err))
		}
	}

	s.log.InfoObj("plate check completed", "plate_result", map[string]any{
		"license_plate":    res.LicensePlate,
		"expires_on":       res.ExpiresOn.String(),
		"events":           len(res.Events),
		"events_published": published,
	})
	return errors.Join(errs...)
}

// evaluate derives the events for a freshly observed expiration.
func (s *Service) evaluate(plate string, expires civil.Date) ([]publishers.Event, error) {
	now := s.now()
	var events []publishers.Event

	if s.store != nil {
		prev, ok, err := s.store.LastExpiration(plate)
		if err != nil {
			return nil, fmt.Errorf("load last expiration for %s: %w", plate, err)
		}
		if ok && prev != expires {
			evt := publishers.NewEvent(publishers.KindChanged, plate, expires, now)
			evt.PreviousExpiresOn = &prev
			events = append(events, evt)
		}
	}

	status := publishers.NewEvent(publishers.KindDue, plate, expires, now)
	switch {
	case status.DaysLeft < 0:
		status.Kind = publishers.KindExpired
		events = append(events, status)
	case status.DaysLeft <= s.windowDays:
		events = append(events, status)
	}
	return events, nil
}

// deliver publishes evt unless it was already sent. It reports whether the
// event went out.
func (s *Service) deliver(ctx context.Context, evt publishers.Event) (bool, error) {
	key := evt.DedupKey()
	if s.deduper != nil {
		seen, err := s.deduper.SeenReminder(key)
		if err != nil {
			s.log.WarnObj("reminder dedup lookup failed", "dedup_error", map[string]any{
				"key":   key,
				"error": err.Error(),
			})
		} else if seen {
			return false, nil
		}
	}

	if s.publisher == nil {
		s.log.InfoObj("reminder event", "event", evt)
		return false, nil
	}

	count, err := s.publisher.Publish(ctx, evt)
	if err != nil && count == 0 {
		return false, fmt.Errorf("publish %s: %w", key, err)
	}
	if err != nil {
		s.log.WarnObj("reminder partially delivered", "publish_error", map[string]any{
			"key":        key,
			"successful": count,
			"error":      err.Error(),
		})
	}

	if s.deduper != nil {
		if err := s.deduper.MarkReminder(key); err != nil {
			return true, fmt.Errorf("mark reminder %s: %w", key, err)
		}
	}
	return true, nil
}
