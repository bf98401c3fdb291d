package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/evcraddock/gatepass/internal/apperr"
	"github.com/evcraddock/gatepass/internal/db"
	"github.com/evcraddock/gatepass/internal/househelp"
	"github.com/evcraddock/gatepass/internal/metrics"
	"github.com/evcraddock/gatepass/internal/telephony"
	"github.com/evcraddock/gatepass/internal/visitor"
)

const testResident = 42

// fakeFetcher serves canned visitors per resident.
type fakeFetcher struct {
	mu        sync.Mutex
	visitors  map[int64][]visitor.Visitor
	err       error
	calls     int
	residents []int64
}

func (f *fakeFetcher) FetchVisitors(ctx context.Context, residentID int64) ([]visitor.Visitor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.residents = append(f.residents, residentID)
	if f.err != nil {
		return nil, f.err
	}
	return f.visitors[residentID], nil
}

type recordingDialer struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (d *recordingDialer) Dial(ctx context.Context, phone string, platform telephony.Platform) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.urls = append(d.urls, telephony.DialURL(phone, platform))
	return nil
}

type testEnv struct {
	srv     *Server
	db      *sql.DB
	token   string
	fetcher *fakeFetcher
	dialer  *recordingDialer
}

// testAPIServerWithDB creates a test server with a valid bearer token for testResident.
func testAPIServerWithDB(t *testing.T) *testEnv {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if cerr := d.Close(); cerr != nil {
			t.Errorf("close db: %v", cerr)
		}
	})

	return newTestEnv(t, d)
}

func newTestEnv(t *testing.T, d *sql.DB) *testEnv {
	t.Helper()
	env := &testEnv{
		db:      d,
		fetcher: &fakeFetcher{visitors: map[int64][]visitor.Visitor{}},
		dialer:  &recordingDialer{},
	}

	srv, err := NewServer(d, Options{
		Visitors: env.fetcher,
		Dialer:   env.dialer,
		Metrics:  metrics.New(),
		Location: time.UTC,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	env.srv = srv

	rawKey, _, err := srv.apiKeys.Create("test", testResident)
	if err != nil {
		t.Fatalf("create api key: %v", err)
	}
	env.token = rawKey

	return env
}

func apiRequest(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	r := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestHealthIsPublic(t *testing.T) {
	env := testAPIServerWithDB(t)

	w := apiRequest(t, env.srv, "GET", "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := testAPIServerWithDB(t)
	registerWorker(t, env, "John Doe")

	w := apiRequest(t, env.srv, "GET", "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "gatepass_househelp_registrations_total 1") {
		t.Error("expected registration counter in metrics output")
	}
}

func TestAPIRequiresAuth(t *testing.T) {
	env := testAPIServerWithDB(t)

	for _, path := range []string{"/api/staff", "/api/visitors"} {
		w := apiRequest(t, env.srv, "GET", path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want %d", path, w.Code, http.StatusUnauthorized)
		}
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperr.Required("name"), http.StatusBadRequest},
		{"not found", &apperr.NotFoundError{Kind: "worker", ID: "x"}, http.StatusNotFound},
		{"exhausted", &apperr.ExhaustionError{Space: 900000}, http.StatusServiceUnavailable},
		{"format", &apperr.IngestionFormatError{Reason: "bad"}, http.StatusBadGateway},
		{"unavailable", &apperr.UnavailableError{Op: "phone call", Err: errors.New("x")}, http.StatusServiceUnavailable},
		{"wrapped", errors.Join(errors.New("ctx"), apperr.Required("phone")), http.StatusBadRequest},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewServerLoadsSavedRoster(t *testing.T) {
	env := testAPIServerWithDB(t)
	john := registerWorker(t, env, "John Doe")
	if w := apiRequest(t, env.srv, "POST", "/api/staff/"+john.ID+"/toggle", env.token, nil); w.Code != http.StatusOK {
		t.Fatalf("toggle status = %d", w.Code)
	}

	// A second server on the same database sees the saved state.
	restarted := newTestEnv(t, env.db)
	w := apiRequest(t, restarted.srv, "GET", "/api/staff/active", restarted.token, nil)
	var active []househelp.Worker
	decode(t, w, &active)
	if len(active) != 1 || active[0].ID != john.ID || active[0].Passcode != john.Passcode {
		t.Errorf("active after restart = %+v", active)
	}
}
