package service

import (
	"context"
	"testing"
	"time"

	perr "papertrail/internal/platform/errors"
	"papertrail/internal/platform/testkit"

	"papertrail/internal/modkit/repokit"
	"papertrail/internal/platform/store"
	"papertrail/internal/services/correspondence/domain"
	"papertrail/internal/services/correspondence/repo"
)

// memRepo is an in-memory repo.Repo for exercising transition logic
type memRepo struct {
	requests map[string]domain.Request
	messages []domain.Message
}

func newMemRepo() *memRepo {
	return &memRepo{requests: map[string]domain.Request{}}
}

func (m *memRepo) PairLock(context.Context, string, string) error { return nil }

func (m *memRepo) InsertRequest(_ context.Context, r domain.Request) error {
	m.requests[r.ID] = r
	return nil
}

func (m *memRepo) Get(_ context.Context, id string) (domain.Request, error) {
	r, ok := m.requests[id]
	if !ok {
		return domain.Request{}, perr.NotFoundf("request %s", id)
	}
	return r, nil
}

func (m *memRepo) GetForUpdate(ctx context.Context, id string) (domain.Request, error) {
	return m.Get(ctx, id)
}

func (m *memRepo) LatestForPair(_ context.Context, userID, creditorID string) (domain.Request, error) {
	var (
		found bool
		out   domain.Request
	)
	for _, r := range m.requests {
		if r.UserID != userID || r.CreditorID != creditorID {
			continue
		}
		if !found || r.CreatedAt.After(out.CreatedAt) {
			out = r
			found = true
		}
	}
	if !found {
		return domain.Request{}, perr.NotFoundf("no request for pair")
	}
	return out, nil
}

func (m *memRepo) SetSent(_ context.Context, id string, sentAt, due time.Time) error {
	r := m.requests[id]
	r.Status = domain.StatusSent
	r.SentAt = &sentAt
	r.ResponseDue = &due
	m.requests[id] = r
	return nil
}

func (m *memRepo) SetResponded(_ context.Context, id string, at time.Time) error {
	r := m.requests[id]
	r.Status = domain.StatusResponded
	r.RespondedAt = &at
	m.requests[id] = r
	return nil
}

func (m *memRepo) EscalateDue(_ context.Context, id string, now time.Time) (bool, error) {
	r, ok := m.requests[id]
	if !ok {
		return false, nil
	}
	if r.Status != domain.StatusSent || r.ResponseDue == nil || !r.ResponseDue.Before(now) {
		return false, nil
	}
	r.Status = domain.StatusEscalated
	m.requests[id] = r
	return true, nil
}

func (m *memRepo) InsertMessage(_ context.Context, msg domain.Message) (bool, error) {
	if msg.ProviderMessageID != nil {
		for _, prev := range m.messages {
			if prev.ProviderMessageID != nil && *prev.ProviderMessageID == *msg.ProviderMessageID {
				return false, nil
			}
		}
	}
	m.messages = append(m.messages, msg)
	return true, nil
}

func (m *memRepo) HasProviderMessage(_ context.Context, pmid string) (bool, error) {
	for _, msg := range m.messages {
		if msg.ProviderMessageID != nil && *msg.ProviderMessageID == pmid {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) ListMessages(_ context.Context, requestID string) ([]domain.Message, error) {
	var out []domain.Message
	for _, msg := range m.messages {
		if msg.RequestID == requestID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memRepo) ListByUser(_ context.Context, userID string, limit int) ([]domain.Request, error) {
	var out []domain.Request
	for _, r := range m.requests {
		if r.UserID == userID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) ListByCreditor(_ context.Context, creditorID string, limit int) ([]domain.Request, error) {
	var out []domain.Request
	for _, r := range m.requests {
		if r.CreditorID == creditorID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) StatusCounts(_ context.Context, f domain.StatsFilter) ([]domain.StatusCount, error) {
	counts := map[domain.Status]int64{}
	for _, r := range m.requests {
		if f.UserID != "" && r.UserID != f.UserID {
			continue
		}
		if f.CreditorID != "" && r.CreditorID != f.CreditorID {
			continue
		}
		counts[r.Status]++
	}
	var out []domain.StatusCount
	for s, n := range counts {
		out = append(out, domain.StatusCount{Status: s, Count: n})
	}
	return out, nil
}

var _ repo.Repo = (*memRepo)(nil)

// fakeTx satisfies repokit.TxRunner without a database
type fakeTx struct{}

func (fakeTx) Exec(context.Context, string, ...any) (store.CommandTag, error) {
	return nil, nil
}
func (fakeTx) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (fakeTx) QueryRow(context.Context, string, ...any) store.Row        { return nil }
func (fakeTx) Tx(_ context.Context, fn func(q store.RowQuerier) error) error {
	return fn(fakeTx{})
}

func newTestSvc(m *memRepo) *Svc {
	binder := repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return m })
	return New(fakeTx{}, binder, Config{})
}

func at(t *testing.T, base time.Time, d time.Duration) func() time.Time {
	t.Helper()
	return func() time.Time { return base.Add(d) }
}

func TestCreateFirstRequest(t *testing.T) {
	m := newMemRepo()
	svc := newTestSvc(m)

	base := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	testkit.Swap(t, &timeNow, at(t, base, 0))

	req, err := svc.Create(context.Background(), "user-1", "cred-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if req.Status != domain.StatusPending {
		t.Fatalf("status = %s, want PENDING", req.Status)
	}
	want := "DSAR-202603011030-"
	if len(req.ReferenceID) != len(want)+8 || req.ReferenceID[:len(want)] != want {
		t.Fatalf("reference id %q, want prefix %q plus 8 chars", req.ReferenceID, want)
	}
}

func TestCreateCooldown(t *testing.T) {
	m := newMemRepo()
	svc := newTestSvc(m)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	testkit.Swap(t, &timeNow, at(t, base, 0))

	if _, err := svc.Create(context.Background(), "user-1", "cred-1"); err != nil {
		t.Fatalf("first create: %v", err)
	}

	// six days later is still inside the seven day window
	testkit.Swap(t, &timeNow, at(t, base, 6*24*time.Hour))
	_, err := svc.Create(context.Background(), "user-1", "cred-1")
	if !perr.IsCode(err, perr.ErrorCodeCooldown) {
		t.Fatalf("create at +6d: err = %v, want cooldown", err)
	}

	// a different creditor is not throttled
	if _, err := svc.Create(context.Background(), "user-1", "cred-2"); err != nil {
		t.Fatalf("create for other creditor: %v", err)
	}

	// eight days later the window has passed
	testkit.Swap(t, &timeNow, at(t, base, 8*24*time.Hour))
	if _, err := svc.Create(context.Background(), "user-1", "cred-1"); err != nil {
		t.Fatalf("create at +8d: %v", err)
	}
}

func TestCreateRequiresIDs(t *testing.T) {
	svc := newTestSvc(newMemRepo())
	if _, err := svc.Create(context.Background(), "", "cred-1"); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("err = %v, want invalid argument", err)
	}
}

func TestMarkSentSetsDeadline(t *testing.T) {
	m := newMemRepo()
	svc := newTestSvc(m)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	testkit.Swap(t, &timeNow, at(t, base, 0))

	req, err := svc.Create(context.Background(), "user-1", "cred-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sent, err := svc.MarkSent(context.Background(), req.ID, domain.MessageDraft{
		ToAddress: "privacy@cred.example",
	})
	if err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if sent.Status != domain.StatusSent {
		t.Fatalf("status = %s, want SENT", sent.Status)
	}
	wantDue := base.Add(domain.ResponseWindow)
	if sent.ResponseDue == nil || !sent.ResponseDue.Equal(wantDue) {
		t.Fatalf("response due = %v, want %v", sent.ResponseDue, wantDue)
	}

	// second MarkSent is an invalid transition
	if _, err := svc.MarkSent(context.Background(), req.ID, domain.MessageDraft{}); !perr.IsCode(err, perr.ErrorCodeInvalidTransition) {
		t.Fatalf("second MarkSent: err = %v, want invalid transition", err)
	}
}

func sendRequest(t *testing.T, svc *Svc) domain.Request {
	t.Helper()
	req, err := svc.Create(context.Background(), "user-1", "cred-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	sent, err := svc.MarkSent(context.Background(), req.ID, domain.MessageDraft{})
	if err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	return sent
}

func TestRecordInboundTransitions(t *testing.T) {
	m := newMemRepo()
	svc := newTestSvc(m)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	testkit.Swap(t, &timeNow, at(t, base, 0))
	sent := sendRequest(t, svc)

	pmid := "msg-1@provider"
	got, dup, err := svc.RecordInbound(context.Background(), sent.ID, domain.MessageDraft{
		FromAddress:       "privacy@cred.example",
		ProviderMessageID: &pmid,
	})
	if err != nil {
		t.Fatalf("RecordInbound: %v", err)
	}
	if dup {
		t.Fatalf("first inbound flagged duplicate")
	}
	if got.Status != domain.StatusResponded {
		t.Fatalf("status = %s, want RESPONDED", got.Status)
	}

	// same provider message id again is a duplicate, no new row
	_, dup, err = svc.RecordInbound(context.Background(), sent.ID, domain.MessageDraft{
		ProviderMessageID: &pmid,
	})
	if err != nil {
		t.Fatalf("duplicate RecordInbound: %v", err)
	}
	if !dup {
		t.Fatalf("duplicate not flagged")
	}
	if n := len(m.messages); n != 2 { // one outbound, one inbound
		t.Fatalf("messages = %d, want 2", n)
	}

	// an extra distinct reply is stored but the status stays RESPONDED
	got, dup, err = svc.RecordInbound(context.Background(), sent.ID, domain.MessageDraft{})
	if err != nil || dup {
		t.Fatalf("extra RecordInbound: dup=%v err=%v", dup, err)
	}
	if got.Status != domain.StatusResponded {
		t.Fatalf("status after extra reply = %s, want RESPONDED", got.Status)
	}
	if n := len(m.messages); n != 3 {
		t.Fatalf("messages = %d, want 3", n)
	}
}

func TestRecordInboundBeforeSend(t *testing.T) {
	m := newMemRepo()
	svc := newTestSvc(m)

	req, err := svc.Create(context.Background(), "user-1", "cred-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, _, err = svc.RecordInbound(context.Background(), req.ID, domain.MessageDraft{})
	if !perr.IsCode(err, perr.ErrorCodeInvalidTransition) {
		t.Fatalf("err = %v, want invalid transition", err)
	}
}

func TestEscalateAfterWindow(t *testing.T) {
	m := newMemRepo()
	svc := newTestSvc(m)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	testkit.Swap(t, &timeNow, at(t, base, 0))
	sent := sendRequest(t, svc)

	// before the deadline escalation must refuse
	testkit.Swap(t, &timeNow, at(t, base, 29*24*time.Hour))
	if _, err := svc.Escalate(context.Background(), sent.ID); !perr.IsCode(err, perr.ErrorCodeInvalidTransition) {
		t.Fatalf("early escalate: err = %v, want invalid transition", err)
	}

	testkit.Swap(t, &timeNow, at(t, base, 31*24*time.Hour))
	got, err := svc.Escalate(context.Background(), sent.ID)
	if err != nil {
		t.Fatalf("Escalate: %v", err)
	}
	if got.Status != domain.StatusEscalated {
		t.Fatalf("status = %s, want ESCALATED", got.Status)
	}

	// a late reply still resolves the request
	late, dup, err := svc.RecordInbound(context.Background(), sent.ID, domain.MessageDraft{})
	if err != nil || dup {
		t.Fatalf("late RecordInbound: dup=%v err=%v", dup, err)
	}
	if late.Status != domain.StatusResponded {
		t.Fatalf("status after late reply = %s, want RESPONDED", late.Status)
	}
}

func TestEscalateLosesToReply(t *testing.T) {
	m := newMemRepo()
	svc := newTestSvc(m)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	testkit.Swap(t, &timeNow, at(t, base, 0))
	sent := sendRequest(t, svc)

	if _, _, err := svc.RecordInbound(context.Background(), sent.ID, domain.MessageDraft{}); err != nil {
		t.Fatalf("RecordInbound: %v", err)
	}

	testkit.Swap(t, &timeNow, at(t, base, 40*24*time.Hour))
	if _, err := svc.Escalate(context.Background(), sent.ID); !perr.IsCode(err, perr.ErrorCodeInvalidTransition) {
		t.Fatalf("escalate after reply: err = %v, want invalid transition", err)
	}
}

func TestListClamp(t *testing.T) {
	m := newMemRepo()
	binder := repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return m })
	svc := New(fakeTx{}, binder, Config{HardLimit: 2})

	testkit.Swap(t, &timeNow, at(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 0))
	for _, cred := range []string{"a", "b", "c"} {
		if _, err := svc.Create(context.Background(), "user-1", cred); err != nil {
			t.Fatalf("Create %s: %v", cred, err)
		}
	}

	got, err := svc.ListByUser(context.Background(), "user-1", 50)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want clamp to 2", len(got))
	}
}
