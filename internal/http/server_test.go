package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"duit/internal/core"
	"duit/internal/events"
	"duit/internal/ledger"
	"duit/internal/log"
)

type memStore struct {
	txs     []core.Transaction
	saveErr error
}

func (m *memStore) Load(ctx context.Context) ([]core.Transaction, error) { return m.txs, nil }
func (m *memStore) Save(ctx context.Context, txs []core.Transaction) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.txs = txs
	return nil
}

type fakePublisher struct {
	messages []events.Message
}

func (f *fakePublisher) Publish(ctx context.Context, msg events.Message) error {
	f.messages = append(f.messages, msg)
	return nil
}

type fakeSuggester struct {
	budgets map[string]core.Money
	err     error
}

func (f fakeSuggester) Suggest(ctx context.Context, history []core.Transaction) (map[string]core.Money, error) {
	return f.budgets, f.err
}

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func newTestServer(t *testing.T, sg Suggester, seed ...core.Transaction) (*Server, *fakePublisher) {
	srv, pub, _ := newTestServerWithStore(t, sg, &memStore{txs: seed})
	return srv, pub
}

func newTestServerWithStore(t *testing.T, sg Suggester, store *memStore) (*Server, *fakePublisher, *memStore) {
	t.Helper()

	lg, err := ledger.New(context.Background(), store)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	pub := &fakePublisher{}
	srv := NewServer(":0", lg, sg, pub, testLogger(), 0)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, pub, store
}

func seedExpense(amount int64) core.Transaction {
	now := time.Now()
	return core.Transaction{
		ID:       "seed-1",
		Type:     core.Expense,
		Amount:   core.Money{Cents: amount},
		Category: "Groceries",
		Date:     now.Format("2006-01-02"),
		Time:     "12:00",
	}
}

func postForm(srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Server.Handler.ServeHTTP(rr, req)
	return rr
}

func TestDashboardAndHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil, seedExpense(5000000))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	srv.Server.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Groceries") {
		t.Error("dashboard missing seeded transaction")
	}
	if !strings.Contains(body, "Rp 50.000") {
		t.Errorf("dashboard missing formatted amount, body: %.200s", body)
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		srv.Server.Handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("%s status=%d", path, rr.Code)
		}
	}
}

func TestCreateTransaction(t *testing.T) {
	srv, pub := newTestServer(t, nil)

	// Invalid amount renders the dashboard again with an inline error.
	rr := postForm(srv, "/transactions", url.Values{
		"type": {"expense"}, "amount": {"abc"}, "category": {"Food & Drink"},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid amount: expected 422, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Invalid amount") {
		t.Errorf("expected inline error message, body: %.300s", body)
	}
	if !strings.Contains(body, "<form") {
		t.Error("expected the full dashboard page, not a bare fragment")
	}

	// Category from the wrong side of the taxonomy
	rr = postForm(srv, "/transactions", url.Values{
		"type": {"expense"}, "amount": {"50000"}, "category": {"Salary"},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("wrong category: expected 422, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Invalid transaction") {
		t.Errorf("expected inline error message, body: %.300s", rr.Body.String())
	}

	// Success
	rr = postForm(srv, "/transactions", url.Values{
		"type": {"expense"}, "amount": {"50000"}, "category": {"Food & Drink"}, "note": {"lunch"},
	})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("create: expected 303, got %d: %s", rr.Code, rr.Body.String())
	}
	if srv.ledger.Len() != 1 {
		t.Fatalf("ledger has %d transactions, want 1", srv.ledger.Len())
	}
	if len(pub.messages) != 1 || pub.messages[0].Kind != events.TransactionAdded {
		t.Fatalf("expected one added event, got %+v", pub.messages)
	}
}

func TestUpdateTransaction(t *testing.T) {
	srv, pub := newTestServer(t, nil, seedExpense(5000000))

	rr := postForm(srv, "/transactions/seed-1", url.Values{
		"type": {"expense"}, "amount": {"75000"}, "category": {"Transportation"},
		"date": {seedExpense(0).Date}, "time": {"13:30"},
	})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("update: expected 303, got %d: %s", rr.Code, rr.Body.String())
	}

	got, err := srv.ledger.Get("seed-1")
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if got.Category != "Transportation" || got.Amount.Cents != 7500000 {
		t.Errorf("update not applied: %+v", got)
	}
	if len(pub.messages) != 1 || pub.messages[0].Kind != events.TransactionUpdated {
		t.Fatalf("expected one updated event, got %+v", pub.messages)
	}
}

func TestUpdateUnknownTransaction(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rr := postForm(srv, "/transactions/ghost", url.Values{
		"type": {"expense"}, "amount": {"75000"}, "category": {"Transportation"},
	})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestDeleteTransaction(t *testing.T) {
	srv, pub := newTestServer(t, nil, seedExpense(5000000))

	rr := postForm(srv, "/transactions/seed-1/delete", nil)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("delete: expected 303, got %d", rr.Code)
	}
	if srv.ledger.Len() != 0 {
		t.Fatalf("ledger has %d transactions, want 0", srv.ledger.Len())
	}
	if len(pub.messages) != 1 || pub.messages[0].Kind != events.TransactionRemoved {
		t.Fatalf("expected one removed event, got %+v", pub.messages)
	}

	rr = postForm(srv, "/transactions/seed-1/delete", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("double delete: expected 404, got %d", rr.Code)
	}
}

func TestAnalyticsRenders(t *testing.T) {
	srv, _ := newTestServer(t, nil, seedExpense(5000000))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/analytics", nil)
	srv.Server.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("analytics status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Groceries") {
		t.Error("analytics missing category distribution")
	}
}

func TestAnalyticsCacheInvalidatedByMutation(t *testing.T) {
	srv, _ := newTestServer(t, nil, seedExpense(5000000))

	// Warm the cache.
	rr := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/analytics", nil))
	if srv.analyticsCache.Size() == 0 {
		t.Fatal("expected analytics view to be cached")
	}

	postForm(srv, "/transactions", url.Values{
		"type": {"expense"}, "amount": {"25000"}, "category": {"Entertainment"},
	})
	if srv.analyticsCache.Size() != 0 {
		t.Fatal("expected cache cleared after mutation")
	}

	rr = httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/analytics", nil))
	if !strings.Contains(rr.Body.String(), "Entertainment") {
		t.Error("analytics missing newly added category")
	}
}

func TestSuggestionsFlow(t *testing.T) {
	sg := fakeSuggester{budgets: map[string]core.Money{
		"Groceries": {Cents: 40000000},
	}}
	srv, _ := newTestServer(t, sg, seedExpense(5000000))

	rr := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/suggestions", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("suggestions page status=%d", rr.Code)
	}

	rr = postForm(srv, "/suggestions/run", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("run status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Groceries") || !strings.Contains(body, "Rp 400.000") {
		t.Errorf("suggestions missing budget row, body: %.300s", body)
	}
}

func TestSuggestionsNotConfigured(t *testing.T) {
	srv, _ := newTestServer(t, nil, seedExpense(5000000))

	rr := postForm(srv, "/suggestions/run", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("run status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "not configured") {
		t.Error("expected not-configured message")
	}
}

func TestPersistFailureKeepsViewsConsistent(t *testing.T) {
	srv, pub, store := newTestServerWithStore(t, nil, &memStore{txs: []core.Transaction{seedExpense(5000000)}})

	// Warm the analytics cache so invalidation is observable.
	srv.Server.Handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/analytics", nil))
	if srv.analyticsCache.Size() == 0 {
		t.Fatal("expected analytics view to be cached")
	}

	store.saveErr = errors.New("disk full")
	rr := postForm(srv, "/transactions", url.Values{
		"type": {"expense"}, "amount": {"25000"}, "category": {"Entertainment"},
	})

	// The mutation stands in memory, so the flow must behave like a
	// success with a notice, not like a rejected form.
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rr.Code, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); !strings.Contains(loc, "error=") {
		t.Errorf("expected redirect with notice, got %q", loc)
	}
	if srv.ledger.Len() != 2 {
		t.Fatalf("ledger has %d transactions, want 2", srv.ledger.Len())
	}
	if len(pub.messages) != 1 || pub.messages[0].Kind != events.TransactionAdded {
		t.Fatalf("expected one added event, got %+v", pub.messages)
	}
	if srv.analyticsCache.Size() != 0 {
		t.Fatal("expected cache cleared despite persist failure")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(3)
	defer rl.stop()

	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d unexpectedly limited", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("request over the limit should be denied")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("another client should not be limited")
	}

	def := newRateLimiter(0)
	defer def.stop()
	if def.limit != defaultRateLimit {
		t.Errorf("limit=%d, want default %d", def.limit, defaultRateLimit)
	}
}
