package checker

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/samvad-hq/openoverheid/pkg/publishers"
)

// ExpirationLookup resolves the examination expiration date of a plate.
type ExpirationLookup interface {
	ExaminationExpiration(ctx context.Context, plate string) (civil.Date, error)
}

// EventPublisher publishes reminder events downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// ExpirationStore remembers the last observed expiration per plate.
type ExpirationStore interface {
	LastExpiration(plate string) (civil.Date, bool, error)
	RecordExpiration(plate string, date civil.Date) error
}

// ReminderDeduper tracks reminders that were already delivered.
type ReminderDeduper interface {
	SeenReminder(id string) (bool, error)
	MarkReminder(id string) error
}
