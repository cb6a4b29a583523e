package publishers

import (
	"time"

	"cloud.google.com/go/civil"
)

// Kind classifies why a reminder was emitted.
type Kind string

const (
	// KindChanged reports a plate whose expiration date moved since the last check.
	KindChanged Kind = "expiration_changed"
	// KindDue reports an expiration falling inside the reminder window.
	KindDue Kind = "expiration_due"
	// KindExpired reports an expiration date in the past.
	KindExpired Kind = "expired"
)

// Event is the reminder payload published downstream.
type Event struct {
	Kind              Kind        `json:"kind"`
	LicensePlate      string      `json:"license_plate"`
	ExpiresOn         civil.Date  `json:"expires_on"`
	PreviousExpiresOn *civil.Date `json:"previous_expires_on,omitempty"`
	DaysLeft          int         `json:"days_left"`
	ObservedAt        time.Time   `json:"observed_at"`
}

// NewEvent constructs an Event observed at now.
func NewEvent(kind Kind, plate string, expiresOn civil.Date, now time.Time) Event {
	today := civil.DateOf(now)
	return Event{
		Kind:         kind,
		LicensePlate: plate,
		ExpiresOn:    expiresOn,
		DaysLeft:     expiresOn.DaysSince(today),
		ObservedAt:   now.UTC(),
	}
}

// DedupKey identifies the event for reminder de-duplication.
func (e Event) DedupKey() string {
	return string(e.Kind) + ":" + e.LicensePlate + ":" + e.ExpiresOn.String()
}

func (e Event) attributes() map[string]string {
	return map[string]string{
		"license_plate": e.LicensePlate,
		"kind":          string(e.Kind),
	}
}
