package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"famledger/internal/identity"
	applog "famledger/internal/log"
	"famledger/internal/repo/memory"
	"famledger/internal/services"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := memory.New()
	provider := identity.Static{Session: identity.Session{UserID: "u-1", WorkspaceID: "ws-1"}}
	svc := services.NewLedgerService(store, provider, nil)
	return NewServer(":0", svc, provider, applog.New(applog.DefaultConfig()))
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	defer srv.limiter.stop()

	if rec := doJSON(t, srv.Handler(), http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d, want 200", rec.Code)
	}
	if rec := doJSON(t, srv.Handler(), http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("readyz = %d, want 200", rec.Code)
	}
}

func TestReadyzNotReady(t *testing.T) {
	store := memory.New()
	provider := identity.NewResolver()
	svc := services.NewLedgerService(store, provider, nil)
	srv := NewServer(":0", svc, provider, applog.New(applog.DefaultConfig()))
	defer srv.limiter.stop()

	if rec := doJSON(t, srv.Handler(), http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz before resolution = %d, want 503", rec.Code)
	}
	if rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/transactions", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("api before resolution = %d, want 503", rec.Code)
	}

	provider.Resolve(identity.Session{UserID: "u-1", WorkspaceID: "ws-1"})
	if rec := doJSON(t, srv.Handler(), http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("readyz after resolution = %d, want 200", rec.Code)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	defer srv.limiter.stop()
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/accounts/cards",
		`{"limit":"1000.00","closingDay":5,"dueDay":15}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create card = %d: %s", rec.Code, rec.Body.String())
	}
	var created map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create card response: %v", err)
	}
	cardID := created["id"]

	rec = doJSON(t, h, http.MethodPost, "/api/transactions",
		`{"type":"expense","amount":"100.00","description":"washing machine","date":"2024-01-31","accountId":"`+cardID+`","totalInstallments":3}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/api/transactions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list transactions = %d", rec.Code)
	}
	var txs []transactionJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &txs); err != nil {
		t.Fatalf("decode transactions: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("got %d installments, want 3", len(txs))
	}
	if txs[0].AmountCents != 3334 || txs[1].AmountCents != 3333 || txs[2].AmountCents != 3333 {
		t.Errorf("split = %d/%d/%d", txs[0].AmountCents, txs[1].AmountCents, txs[2].AmountCents)
	}
	// Feb 29 comes from clamping Jan 31 forward in a leap year.
	if txs[1].Date != "2024-02-29" {
		t.Errorf("second due date = %s, want 2024-02-29", txs[1].Date)
	}

	rec = doJSON(t, h, http.MethodPatch, "/api/transactions/"+txs[0].ID, `{"status":"completed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update transaction = %d: %s", rec.Code, rec.Body.String())
	}
	// Terminal transition is rejected.
	rec = doJSON(t, h, http.MethodPatch, "/api/transactions/"+txs[0].ID, `{"status":"pending"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("reopen terminal = %d, want 409", rec.Code)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/transactions/"+txs[2].ID, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete transaction = %d, want 204", rec.Code)
	}
	rec = doJSON(t, h, http.MethodDelete, "/api/transactions/"+txs[2].ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("double delete = %d, want 404", rec.Code)
	}
}

func TestCardBalanceExposed(t *testing.T) {
	srv := newTestServer(t)
	defer srv.limiter.stop()
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/accounts/cards",
		`{"limit":"1000.00","closingDay":28,"dueDay":10}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create card = %d", rec.Code)
	}
	var created map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doJSON(t, h, http.MethodPost, "/api/transactions",
		`{"type":"expense","amount":"250.00","description":"groceries","date":"2024-03-10","accountId":"`+created["id"]+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/api/accounts/cards", "")
	var cards []creditCardJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &cards); err != nil {
		t.Fatalf("decode cards: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("got %d cards", len(cards))
	}
	if cards[0].AvailableLimitCents != 75_000 {
		t.Errorf("available limit = %d, want 75000", cards[0].AvailableLimitCents)
	}
}

func TestFilterValidation(t *testing.T) {
	srv := newTestServer(t)
	defer srv.limiter.stop()
	h := srv.Handler()

	tests := []struct {
		path string
		want int
	}{
		{"/api/transactions?from=2024-01-01&to=2024-01-31", http.StatusOK},
		{"/api/transactions?from=not-a-date", http.StatusBadRequest},
		{"/api/transactions?to=2024-01-31", http.StatusBadRequest},
		{"/api/transactions?type=bogus", http.StatusBadRequest},
		{"/api/summary/income?type=income", http.StatusOK},
		{"/api/summary/savings-rate", http.StatusOK},
	}
	for _, tt := range tests {
		if rec := doJSON(t, h, http.MethodGet, tt.path, ""); rec.Code != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.want)
		}
	}
}

func TestInvalidBodyRejected(t *testing.T) {
	srv := newTestServer(t)
	defer srv.limiter.stop()

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/transactions", `{"unknown":true}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field = %d, want 400", rec.Code)
	}
}
