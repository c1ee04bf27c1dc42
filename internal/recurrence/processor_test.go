package recurrence

import (
	"context"
	"errors"
	"testing"

	"produtivo/internal/core"
	"produtivo/internal/state"
)

type fakeStore struct {
	recs    map[string]core.Recurrence
	keys    map[string]bool
	applied []core.Transaction
	failFor string
	listErr error
}

func newFakeStore(recs ...core.Recurrence) *fakeStore {
	s := &fakeStore{recs: map[string]core.Recurrence{}, keys: map[string]bool{}}
	for _, r := range recs {
		s.recs[r.ID] = r
	}
	return s
}

func (s *fakeStore) ListDueRecurrences(_ context.Context, ownerID string, today core.Date) ([]core.Recurrence, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []core.Recurrence
	for _, r := range s.recs {
		if (ownerID == "" || r.OwnerID == ownerID) && IsEligible(r, today) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) ApplyOccurrence(_ context.Context, r core.Recurrence, tx core.Transaction, next core.Date) (bool, error) {
	if r.ID == s.failFor {
		return false, errors.New("disk full")
	}
	created := !s.keys[tx.IdempotencyKey]
	if created {
		s.keys[tx.IdempotencyKey] = true
		s.applied = append(s.applied, tx)
	}
	r.NextOccurrence = next
	s.recs[r.ID] = r
	return created, nil
}

type fakePublisher struct {
	published []string
	err       error
}

func (p *fakePublisher) PublishTransactionSync(_ context.Context, _, transactionID string) error {
	p.published = append(p.published, transactionID)
	return p.err
}

func TestProcessor_ProcessDue(t *testing.T) {
	today := core.NewDate(2024, 1, 20)
	store := newFakeStore(
		monthlyRec("r1", core.NewDate(2024, 1, 15), true),
		monthlyRec("r2", core.NewDate(2024, 2, 1), true),
	)
	pub := &fakePublisher{}

	report, err := NewProcessor(store, pub, Options{}).ProcessDue(context.Background(), "", today)
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if report.Generated != 1 {
		t.Fatalf("Generated = %d, want 1", report.Generated)
	}
	if got := store.recs["r1"].NextOccurrence; !got.Equal(core.NewDate(2024, 2, 15)) {
		t.Errorf("r1 next = %s, want 2024-02-15", got)
	}
	if len(pub.published) != 1 || pub.published[0] != "r1:2024-01-15" {
		t.Errorf("published = %v", pub.published)
	}

	// A second run the same day finds nothing left to do.
	again, err := NewProcessor(store, pub, Options{}).ProcessDue(context.Background(), "", today)
	if err != nil {
		t.Fatalf("second ProcessDue() error = %v", err)
	}
	if again.Generated != 0 || len(store.applied) != 1 {
		t.Fatalf("rerun generated duplicates: %+v", again)
	}
}

func TestProcessor_FailureIsCollected(t *testing.T) {
	today := core.NewDate(2024, 1, 20)
	store := newFakeStore(
		monthlyRec("bad", core.NewDate(2024, 1, 10), true),
		monthlyRec("good", core.NewDate(2024, 1, 11), true),
	)
	store.failFor = "bad"

	report, err := NewProcessor(store, nil, Options{}).ProcessDue(context.Background(), "", today)
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if report.Generated != 1 || len(report.Failures) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Failures[0].RecurrenceID != "bad" {
		t.Errorf("failure recorded for %q", report.Failures[0].RecurrenceID)
	}
	if got := store.recs["bad"].NextOccurrence; !got.Equal(core.NewDate(2024, 1, 10)) {
		t.Errorf("failed recurrence moved to %s", got)
	}
}

func TestProcessor_PublishErrorDoesNotFail(t *testing.T) {
	store := newFakeStore(monthlyRec("r1", core.NewDate(2024, 1, 15), true))
	pub := &fakePublisher{err: errors.New("broker down")}

	report, err := NewProcessor(store, pub, Options{}).ProcessDue(context.Background(), "u1", core.NewDate(2024, 1, 15))
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if report.Generated != 1 || len(report.Failures) != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestProcessor_ListError(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("db closed")

	if _, err := NewProcessor(store, nil, Options{}).ProcessDue(context.Background(), "", core.NewDate(2024, 1, 1)); err == nil {
		t.Fatal("expected error when the due list cannot be loaded")
	}
	if _, err := NewProcessor(nil, nil, Options{}).ProcessDue(context.Background(), "", core.NewDate(2024, 1, 1)); err == nil {
		t.Fatal("expected error for a processor without store")
	}
}

func TestProcessor_MatchesGenerateDue(t *testing.T) {
	today := core.NewDate(2024, 3, 20)
	broken := monthlyRec("a-broken", core.NewDate(2024, 1, 1), true)
	broken.Frequency = core.Custom
	recs := []core.Recurrence{
		broken,
		monthlyRec("early", core.NewDate(2024, 1, 5), true),
		monthlyRec("late", core.NewDate(2024, 2, 10), true),
	}
	done := Materialize(recs[1], core.TransactionSettled)
	done.ID = "done"
	done.Date = core.NewDate(2024, 2, 5)
	done.IdempotencyKey = IdempotencyKey("early", done.Date)

	opts := Options{CatchUp: true}
	next, want := GenerateDue(state.Finance{
		Recurrences:  recs,
		Transactions: []core.Transaction{done},
	}, today, opts)

	store := newFakeStore(recs...)
	store.keys[done.IdempotencyKey] = true
	got, err := NewProcessor(store, nil, opts).ProcessDue(context.Background(), "", today)
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}

	if got.Generated != want.Generated || got.Skipped != want.Skipped {
		t.Fatalf("processor generated %d skipped %d, batch generated %d skipped %d",
			got.Generated, got.Skipped, want.Generated, want.Skipped)
	}
	if want.Generated != 4 || want.Skipped != 1 {
		t.Errorf("batch report = %+v", want)
	}
	for i := range want.Transactions {
		if got.Transactions[i].IdempotencyKey != want.Transactions[i].IdempotencyKey {
			t.Errorf("transaction %d key = %q, want %q", i,
				got.Transactions[i].IdempotencyKey, want.Transactions[i].IdempotencyKey)
		}
	}
	if len(got.Failures) != 1 || len(want.Failures) != 1 || got.Failures[0] != want.Failures[0] {
		t.Errorf("failures = %+v, want %+v", got.Failures, want.Failures)
	}
	for _, r := range recs {
		fromBatch, _ := next.Recurrence(r.ID)
		if !store.recs[r.ID].NextOccurrence.Equal(fromBatch.NextOccurrence) {
			t.Errorf("%s next = %s, batch has %s", r.ID, store.recs[r.ID].NextOccurrence, fromBatch.NextOccurrence)
		}
	}
}
