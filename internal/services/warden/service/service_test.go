package service

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	perr "papertrail/internal/platform/errors"
	"papertrail/internal/platform/store"
	"papertrail/internal/platform/testkit"

	corr "papertrail/internal/services/correspondence/domain"
)

type oneTag struct{}

func (oneTag) String() string      { return "FAKE 1" }
func (oneTag) RowsAffected() int64 { return 1 }

type zeroTag struct{}

func (zeroTag) String() string      { return "FAKE 0" }
func (zeroTag) RowsAffected() int64 { return 0 }

type valueRows struct {
	rows [][]any
	idx  int
}

func (r *valueRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *valueRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	for i, d := range dest {
		if i >= len(row) || row[i] == nil {
			continue
		}
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(row[i]))
	}
	return nil
}

func (r *valueRows) Err() error        { return nil }
func (r *valueRows) Close()            {}
func (r *valueRows) Columns() []string { return nil }

type boolRow struct{ val bool }

func (r boolRow) Scan(dest ...any) error {
	if len(dest) == 1 {
		if b, ok := dest[0].(*bool); ok {
			*b = r.val
		}
	}
	return nil
}

// fakeDB serves the sweep queries by SQL shape
type fakeDB struct {
	leased      bool
	dueIDs      []string
	reminders   [][]any
	stampTaken  bool
	outboxKinds []string
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (store.CommandTag, error) {
	switch {
	case strings.Contains(sql, "INSERT INTO outbox"):
		f.outboxKinds = append(f.outboxKinds, args[1].(string))
		return oneTag{}, nil
	case strings.Contains(sql, "reminder_sent_at = "):
		if f.stampTaken {
			return zeroTag{}, nil
		}
		f.stampTaken = true
		return oneTag{}, nil
	}
	return oneTag{}, nil
}

func (f *fakeDB) Query(_ context.Context, sql string, _ ...any) (store.Rows, error) {
	if strings.Contains(sql, "reminder_sent_at IS NULL") {
		return &valueRows{rows: f.reminders}, nil
	}
	rows := make([][]any, len(f.dueIDs))
	for i, id := range f.dueIDs {
		rows[i] = []any{id}
	}
	return &valueRows{rows: rows}, nil
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) store.Row {
	return boolRow{val: f.leased}
}

func (f *fakeDB) Tx(_ context.Context, fn func(q store.RowQuerier) error) error {
	return fn(f)
}

type fakeStore struct {
	escalateErr error
	escalated   []string
}

func (f *fakeStore) Create(context.Context, string, string) (corr.Request, error) {
	panic("not used")
}
func (f *fakeStore) MarkSent(context.Context, string, corr.MessageDraft) (corr.Request, error) {
	panic("not used")
}
func (f *fakeStore) RecordInbound(context.Context, string, corr.MessageDraft) (corr.Request, bool, error) {
	panic("not used")
}
func (f *fakeStore) Escalate(_ context.Context, id string) (corr.Request, error) {
	if f.escalateErr != nil {
		return corr.Request{}, f.escalateErr
	}
	f.escalated = append(f.escalated, id)
	return corr.Request{ID: id, Status: corr.StatusEscalated}, nil
}

type fakeNotifier struct {
	err   error
	calls int
}

func (f *fakeNotifier) Remind(context.Context, corr.Request) error {
	f.calls++
	return f.err
}

func reminderRow(id string) []any {
	due := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	return []any{
		id, "DSAR-202603010000-abcd1234", "user-1", "cred-1", corr.StatusSent,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), nil, &due, nil, nil,
	}
}

func TestSweepEscalatesDueRequests(t *testing.T) {
	testkit.Swap(t, &timeNow, func() time.Time {
		return time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC)
	})

	db := &fakeDB{leased: true, dueIDs: []string{"req-1", "req-2"}}
	st := &fakeStore{}
	svc := New(db, st, &fakeNotifier{}, Config{})

	stats, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if stats.Escalated != 2 {
		t.Fatalf("escalated = %d, want 2", stats.Escalated)
	}
	if len(st.escalated) != 2 {
		t.Fatalf("store calls = %v", st.escalated)
	}
	if len(db.outboxKinds) != 2 || db.outboxKinds[0] != "request.escalated" {
		t.Fatalf("outbox kinds = %v", db.outboxKinds)
	}
}

func TestSweepSkipsRacedReplies(t *testing.T) {
	db := &fakeDB{leased: true, dueIDs: []string{"req-1"}}
	st := &fakeStore{escalateErr: perr.InvalidTransitionf("already responded")}
	svc := New(db, st, &fakeNotifier{}, Config{})

	stats, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if stats.Escalated != 0 || stats.Skipped != 1 {
		t.Fatalf("stats = %+v, want one skip", stats)
	}
	if len(db.outboxKinds) != 0 {
		t.Fatalf("outbox written for skipped request")
	}
}

func TestSweepSendsReminders(t *testing.T) {
	db := &fakeDB{leased: true, reminders: [][]any{reminderRow("req-1")}}
	n := &fakeNotifier{}
	svc := New(db, &fakeStore{}, n, Config{})

	stats, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if stats.Reminded != 1 || n.calls != 1 {
		t.Fatalf("reminded = %d, notifier calls = %d", stats.Reminded, n.calls)
	}
	if len(db.outboxKinds) != 1 || db.outboxKinds[0] != "request.reminder" {
		t.Fatalf("outbox kinds = %v", db.outboxKinds)
	}
}

func TestSweepReminderStampRace(t *testing.T) {
	db := &fakeDB{leased: true, reminders: [][]any{reminderRow("req-1")}, stampTaken: true}
	svc := New(db, &fakeStore{}, &fakeNotifier{}, Config{})

	stats, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if stats.Reminded != 0 {
		t.Fatalf("reminded = %d, want 0 after losing the stamp", stats.Reminded)
	}
}

func TestSweepFailedReminderRetriesNextPass(t *testing.T) {
	db := &fakeDB{leased: true, reminders: [][]any{reminderRow("req-1")}}
	n := &fakeNotifier{err: perr.Unavailablef("smtp down")}
	svc := New(db, &fakeStore{}, n, Config{})

	stats, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if stats.Reminded != 0 {
		t.Fatalf("reminded = %d, want 0", stats.Reminded)
	}
	if db.stampTaken {
		t.Fatalf("reminder stamped despite failed notification")
	}
}

func TestSweepWithoutLease(t *testing.T) {
	db := &fakeDB{leased: false, dueIDs: []string{"req-1"}}
	st := &fakeStore{}
	svc := New(db, st, &fakeNotifier{}, Config{})

	stats, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if stats.Escalated != 0 || len(st.escalated) != 0 {
		t.Fatalf("sweep ran without the lease")
	}
}
