// Package storage persists the plate watchlist and reminder markers.
package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// ErrDisabled is returned by watchlist writes when no storage backend is configured.
var ErrDisabled = errors.New("storage is disabled")

// Store tracks watched plates, their last known expiration, and sent reminders.
type Store interface {
	Close() error

	AddPlate(plate string) error
	RemovePlate(plate string) (bool, error)
	Plates() ([]string, error)
	LastExpiration(plate string) (civil.Date, bool, error)
	RecordExpiration(plate string, date civil.Date) error

	SeenReminder(id string) (bool, error)
	MarkReminder(id string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	ReminderTTL     time.Duration
	CleanupInterval time.Duration
}

const (
	defaultReminderTTL     = 14 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.ReminderTTL <= 0 {
		opts.ReminderTTL = defaultReminderTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                                    { return nil }
func (noopStore) AddPlate(string) error                           { return ErrDisabled }
func (noopStore) RemovePlate(string) (bool, error)                { return false, ErrDisabled }
func (noopStore) Plates() ([]string, error)                       { return nil, nil }
func (noopStore) LastExpiration(string) (civil.Date, bool, error) { return civil.Date{}, false, nil }
func (noopStore) RecordExpiration(string, civil.Date) error       { return nil }
func (noopStore) SeenReminder(string) (bool, error)               { return false, nil }
func (noopStore) MarkReminder(string) error                       { return nil }
