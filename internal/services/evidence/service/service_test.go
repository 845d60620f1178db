package service

import (
	"context"
	"strings"
	"testing"

	perr "papertrail/internal/platform/errors"
	"papertrail/internal/platform/store"

	corr "papertrail/internal/services/correspondence/domain"
	"papertrail/internal/services/evidence/domain"
)

type fakeQuery struct {
	view corr.RequestView
	err  error
}

func (f *fakeQuery) Get(context.Context, string) (corr.RequestView, error) {
	return f.view, f.err
}
func (f *fakeQuery) LatestForPair(context.Context, string, string) (corr.Request, error) {
	panic("not used")
}
func (f *fakeQuery) ListByUser(context.Context, string, int) ([]corr.Request, error) {
	panic("not used")
}
func (f *fakeQuery) ListByCreditor(context.Context, string, int) ([]corr.Request, error) {
	panic("not used")
}
func (f *fakeQuery) StatusCounts(context.Context, corr.StatsFilter) ([]corr.StatusCount, error) {
	panic("not used")
}

type oneTag struct{}

func (oneTag) String() string      { return "FAKE 1" }
func (oneTag) RowsAffected() int64 { return 1 }

type emptyRows struct{}

func (emptyRows) Next() bool        { return false }
func (emptyRows) Scan(...any) error { return nil }
func (emptyRows) Err() error        { return nil }
func (emptyRows) Close()            {}
func (emptyRows) Columns() []string { return nil }

type boolRow struct{ val bool }

func (r boolRow) Scan(dest ...any) error {
	if len(dest) == 1 {
		if b, ok := dest[0].(*bool); ok {
			*b = r.val
		}
	}
	return nil
}

// rollupRow feeds the rollup scan a scripted aggregate
type rollupRow struct {
	requests   int
	violations int
	damage     float64
}

func (r rollupRow) Scan(dest ...any) error {
	*(dest[0].(*int)) = r.requests
	*(dest[1].(*int)) = r.violations
	*(dest[2].(*float64)) = r.damage
	return nil
}

// fakeDB answers EXISTS probes with exists, serves rollup for the
// aggregate query and records inserts
type fakeDB struct {
	exists  bool
	inserts int
	rollup  rollupRow
}

func (f *fakeDB) Exec(context.Context, string, ...any) (store.CommandTag, error) {
	f.inserts++
	return oneTag{}, nil
}
func (f *fakeDB) Query(context.Context, string, ...any) (store.Rows, error) {
	return emptyRows{}, nil
}
func (f *fakeDB) QueryRow(_ context.Context, sql string, _ ...any) store.Row {
	if strings.Contains(sql, "COUNT") {
		return f.rollup
	}
	return boolRow{val: f.exists}
}
func (f *fakeDB) Tx(_ context.Context, fn func(q store.RowQuerier) error) error {
	return fn(f)
}

type fakeCH struct {
	rows int
}

func (f *fakeCH) Insert(_ context.Context, _ string, _ []string, rows [][]any) error {
	f.rows += len(rows)
	return nil
}
func (f *fakeCH) Query(context.Context, string, ...any) (store.Rows, error) {
	return emptyRows{}, nil
}
func (f *fakeCH) Close() error { return nil }

func sentView() corr.RequestView {
	return corr.RequestView{Request: corr.Request{
		ID: "req-1", CreditorID: "cred-1", Status: corr.StatusSent,
	}}
}

func validInput() domain.ViolationInput {
	return domain.ViolationInput{
		Type:       "missed_deadline",
		Severity:   domain.SeverityHigh,
		Confidence: 0.9,
	}
}

func TestAttach(t *testing.T) {
	db := &fakeDB{}
	ch := &fakeCH{}
	svc := New(db, &fakeQuery{view: sentView()}, ch, Config{})

	v, err := svc.Attach(context.Background(), "req-1", validInput())
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if v.RequestID != "req-1" || v.Severity != domain.SeverityHigh {
		t.Fatalf("violation = %+v", v)
	}
	if v.CreatedAt.IsZero() {
		t.Fatalf("created at not stamped")
	}
	if db.inserts != 1 {
		t.Fatalf("inserts = %d, want 1", db.inserts)
	}
	if ch.rows != 1 {
		t.Fatalf("mirror rows = %d, want 1", ch.rows)
	}
}

func TestAttachWithoutMirror(t *testing.T) {
	svc := New(&fakeDB{}, &fakeQuery{view: sentView()}, nil, Config{})
	if _, err := svc.Attach(context.Background(), "req-1", validInput()); err != nil {
		t.Fatalf("Attach with nil clickhouse: %v", err)
	}
}

func TestAttachRejectsPendingRequest(t *testing.T) {
	view := sentView()
	view.Request.Status = corr.StatusPending
	svc := New(&fakeDB{}, &fakeQuery{view: view}, nil, Config{})

	_, err := svc.Attach(context.Background(), "req-1", validInput())
	if !perr.IsCode(err, perr.ErrorCodeInvalidTransition) {
		t.Fatalf("err = %v, want invalid transition", err)
	}
}

func TestAttachValidation(t *testing.T) {
	svc := New(&fakeDB{}, &fakeQuery{view: sentView()}, nil, Config{})

	in := validInput()
	in.Severity = "terrible"
	if _, err := svc.Attach(context.Background(), "req-1", in); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("unknown severity: err = %v", err)
	}

	in = validInput()
	in.Confidence = 1.5
	if _, err := svc.Attach(context.Background(), "req-1", in); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("confidence out of range: err = %v", err)
	}
}

func TestAttachSupersedesMustExist(t *testing.T) {
	prev := "missing-id"
	in := validInput()
	in.Supersedes = &prev

	svc := New(&fakeDB{exists: false}, &fakeQuery{view: sentView()}, nil, Config{})
	if _, err := svc.Attach(context.Background(), "req-1", in); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}

	svc = New(&fakeDB{exists: true}, &fakeQuery{view: sentView()}, nil, Config{})
	if _, err := svc.Attach(context.Background(), "req-1", in); err != nil {
		t.Fatalf("Attach with existing supersedes: %v", err)
	}
}

func TestAttachUnknownRequest(t *testing.T) {
	svc := New(&fakeDB{}, &fakeQuery{err: perr.NotFoundf("request req-1")}, nil, Config{})
	if _, err := svc.Attach(context.Background(), "req-1", validInput()); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestRollupFlagsOnViolationCount(t *testing.T) {
	db := &fakeDB{rollup: rollupRow{requests: 12, violations: 150, damage: 50}}
	svc := New(db, &fakeQuery{}, nil, Config{})

	got, err := svc.Rollup(context.Background(), "cred-1")
	if err != nil {
		t.Fatalf("Rollup: %v", err)
	}
	if got.Violations != 150 || got.EstimatedDamage != 50 {
		t.Fatalf("rollup = %+v", got)
	}
	if !got.OverThreshold {
		t.Fatalf("150 violations must cross the default collective threshold")
	}
}

func TestRollupIgnoresDamageForThreshold(t *testing.T) {
	db := &fakeDB{rollup: rollupRow{requests: 3, violations: 99, damage: 250000}}
	svc := New(db, &fakeQuery{}, nil, Config{})

	got, err := svc.Rollup(context.Background(), "cred-1")
	if err != nil {
		t.Fatalf("Rollup: %v", err)
	}
	if got.OverThreshold {
		t.Fatalf("99 violations stay under the threshold no matter the damage")
	}
}

func TestRollupHonorsConfiguredThreshold(t *testing.T) {
	db := &fakeDB{rollup: rollupRow{violations: 10}}
	svc := New(db, &fakeQuery{}, nil, Config{CollectiveThreshold: 10})

	got, err := svc.Rollup(context.Background(), "cred-1")
	if err != nil {
		t.Fatalf("Rollup: %v", err)
	}
	if !got.OverThreshold {
		t.Fatalf("count at the configured threshold must flag")
	}
}

func TestScoreEmpty(t *testing.T) {
	svc := New(&fakeDB{}, &fakeQuery{view: sentView()}, nil, Config{})
	got, err := svc.Score(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got.Score != 0 || got.Violations != 0 {
		t.Fatalf("score = %+v, want zeroes", got)
	}
}
