package checker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/samvad-hq/openoverheid/pkg/publishers"
	"github.com/samvad-hq/openoverheid/pkg/rdw"
)

var fixedNow = time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

// fakeLookup returns preset dates per plate.
type fakeLookup struct {
	mu    sync.Mutex
	dates map[string]civil.Date
	errs  map[string]error
	calls []string
}

func (f *fakeLookup) ExaminationExpiration(_ context.Context, plate string) (civil.Date, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, plate)
	if err, ok := f.errs[plate]; ok {
		return civil.Date{}, err
	}
	d, ok := f.dates[plate]
	if !ok {
		return civil.Date{}, rdw.ErrNotFound
	}
	return d, nil
}

// fakePublisher records published events and can inject errors.
type fakePublisher struct {
	mu     sync.Mutex
	events []publishers.Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.events = append(f.events, evt)
	return 1, nil
}

// fakeStore keeps expirations and reminder markers in memory.
type fakeStore struct {
	mu          sync.Mutex
	expirations map[string]civil.Date
	reminders   map[string]bool
	seenErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		expirations: map[string]civil.Date{},
		reminders:   map[string]bool{},
	}
}

func (f *fakeStore) LastExpiration(plate string) (civil.Date, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.expirations[plate]
	return d, ok, nil
}

func (f *fakeStore) RecordExpiration(plate string, d civil.Date) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expirations[plate] = d
	return nil
}

func (f *fakeStore) SeenReminder(id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seenErr != nil {
		return false, f.seenErr
	}
	return f.reminders[id], nil
}

func (f *fakeStore) MarkReminder(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminders[id] = true
	return nil
}

func newTestService(lookup ExpirationLookup, pub EventPublisher, store *fakeStore) *Service {
	clock := WithClock(func() time.Time { return fixedNow })
	if store == nil {
		return NewService(lookup, pub, nil, nil, nil, 30, clock)
	}
	return NewService(lookup, pub, nil, store, store, 30, clock)
}

func TestCheckClassifiesByWindow(t *testing.T) {
	lookup := &fakeLookup{dates: map[string]civil.Date{
		"AB12CD": date(2025, time.June, 20),
		"XY99ZZ": date(2025, time.May, 1),
		"KL34MN": date(2026, time.January, 1),
	}}
	svc := newTestService(lookup, nil, nil)

	tests := []struct {
		plate string
		want  []publishers.Kind
	}{
		{"ab-12-cd", []publishers.Kind{publishers.KindDue}},
		{"XY-99-ZZ", []publishers.Kind{publishers.KindExpired}},
		{"KL34MN", nil},
	}
	for _, tc := range tests {
		t.Run(tc.plate, func(t *testing.T) {
			res, err := svc.Check(context.Background(), tc.plate)
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if len(res.Events) != len(tc.want) {
				t.Fatalf("expected %d events, got %#v", len(tc.want), res.Events)
			}
			for i, kind := range tc.want {
				if res.Events[i].Kind != kind {
					t.Fatalf("event %d kind = %s, want %s", i, res.Events[i].Kind, kind)
				}
			}
		})
	}
	if lookup.calls[0] != "AB12CD" {
		t.Fatalf("expected normalized plate passed to lookup, got %q", lookup.calls[0])
	}
}

func TestCheckRejectsInvalidPlateBeforeLookup(t *testing.T) {
	lookup := &fakeLookup{}
	svc := newTestService(lookup, nil, nil)

	_, err := svc.Check(context.Background(), "AB-12")
	if !errors.Is(err, rdw.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if len(lookup.calls) != 0 {
		t.Fatalf("lookup should not be called for invalid plates")
	}
}

func TestRunPublishesChangeAndRecordsExpiration(t *testing.T) {
	store := newFakeStore()
	store.expirations["AB12CD"] = date(2025, time.March, 1)
	lookup := &fakeLookup{dates: map[string]civil.Date{"AB12CD": date(2026, time.March, 1)}}
	pub := &fakePublisher{}

	svc := newTestService(lookup, pub, store)
	if err := svc.Run(context.Background(), []string{"AB12CD"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(pub.events) != 1 || pub.events[0].Kind != publishers.KindChanged {
		t.Fatalf("expected a single change event, got %#v", pub.events)
	}
	prev := pub.events[0].PreviousExpiresOn
	if prev == nil || *prev != date(2025, time.March, 1) {
		t.Fatalf("previous expiration not carried: %v", prev)
	}
	if got := store.expirations["AB12CD"]; got != date(2026, time.March, 1) {
		t.Fatalf("expiration not recorded, got %s", got)
	}
}

func TestRunDeduplicatesReminders(t *testing.T) {
	store := newFakeStore()
	lookup := &fakeLookup{dates: map[string]civil.Date{"AB12CD": date(2025, time.June, 10)}}
	pub := &fakePublisher{}

	svc := newTestService(lookup, pub, store)
	for i := 0; i < 3; i++ {
		if err := svc.Run(context.Background(), []string{"AB12CD"}); err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected one due reminder across runs, got %d", len(pub.events))
	}
	if pub.events[0].DaysLeft != 9 {
		t.Fatalf("DaysLeft = %d, want 9", pub.events[0].DaysLeft)
	}
}

func TestRunPublishFailureKeepsPreviousExpiration(t *testing.T) {
	store := newFakeStore()
	store.expirations["AB12CD"] = date(2025, time.March, 1)
	lookup := &fakeLookup{dates: map[string]civil.Date{"AB12CD": date(2026, time.March, 1)}}
	pub := &fakePublisher{err: errors.New("sink down")}

	svc := newTestService(lookup, pub, store)
	err := svc.Run(context.Background(), []string{"AB12CD"})
	if err == nil || !strings.Contains(err.Error(), "sink down") {
		t.Fatalf("expected publish error, got %v", err)
	}
	if got := store.expirations["AB12CD"]; got != date(2025, time.March, 1) {
		t.Fatalf("expiration should not advance after failed delivery, got %s", got)
	}
	if len(store.reminders) != 0 {
		t.Fatalf("failed reminder must not be marked")
	}
}

func TestRunAggregatesPlateErrorsAndSkipsUnknown(t *testing.T) {
	lookup := &fakeLookup{
		dates: map[string]civil.Date{"AB12CD": date(2027, time.January, 1)},
		errs:  map[string]error{"ZZ99ZZ": fmt.Errorf("status 500")},
	}
	svc := newTestService(lookup, &fakePublisher{}, newFakeStore())

	err := svc.Run(context.Background(), []string{"AB12CD", "NO00NE", "ZZ99ZZ", "bad"})
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "ZZ99ZZ") || !strings.Contains(msg, "bad") {
		t.Fatalf("expected errors for ZZ99ZZ and bad, got %v", err)
	}
	if strings.Contains(msg, "NO00NE") {
		t.Fatalf("plates missing from the dataset should be skipped, got %v", err)
	}
}

func TestRunAllStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lookup := &fakeLookup{}
	svc := newTestService(lookup, nil, nil)
	if errs := svc.runAll(ctx, []string{"AB12CD"}); len(errs) != 0 {
		t.Fatalf("expected no errors on cancelled context, got %v", errs)
	}
	if len(lookup.calls) != 0 {
		t.Fatalf("lookup should not run after cancellation")
	}
}

func TestRunRequiresPlates(t *testing.T) {
	svc := newTestService(&fakeLookup{}, nil, nil)
	if err := svc.Run(context.Background(), nil); err == nil {
		t.Fatalf("expected error when plate list is empty")
	}
}

func TestDeliverPublishesWhenDedupLookupFails(t *testing.T) {
	store := newFakeStore()
	store.seenErr = errors.New("bolt closed")
	pub := &fakePublisher{}
	svc := newTestService(&fakeLookup{}, pub, store)

	evt := publishers.NewEvent(publishers.KindDue, "AB12CD", date(2025, time.June, 5), fixedNow)
	sent, err := svc.deliver(context.Background(), evt)
	if err != nil || !sent {
		t.Fatalf("deliver = %v, %v; want true, nil", sent, err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected event to be published")
	}
}
