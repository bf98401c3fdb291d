package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()

	m.IncrementRegistrations()
	m.IncrementRegistrations()
	m.IncrementTransitions("in")
	m.IncrementCalls("error")
	m.SetActiveWorkers(3)
	m.IncrementAuthFailures()

	if got := testutil.ToFloat64(m.Registrations); got != 2 {
		t.Errorf("registrations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Transitions.WithLabelValues("in")); got != 1 {
		t.Errorf("transitions{in} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Calls.WithLabelValues("error")); got != 1 {
		t.Errorf("calls{error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ActiveWorkers); got != 3 {
		t.Errorf("active = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.AuthFailures); got != 1 {
		t.Errorf("auth failures = %v, want 1", got)
	}
}

func TestObserveVisitorFetch(t *testing.T) {
	m := New()

	m.ObserveVisitorFetch(time.Now(), nil)
	m.ObserveVisitorFetch(time.Now(), errors.New("boom"))

	if got := testutil.ToFloat64(m.VisitorFetches.WithLabelValues("ok")); got != 1 {
		t.Errorf("fetches{ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.VisitorFetches.WithLabelValues("error")); got != 1 {
		t.Errorf("fetches{error} = %v, want 1", got)
	}
}

func TestIndependentRegistries(t *testing.T) {
	// Both must construct without a duplicate registration panic.
	a, b := New(), New()
	a.IncrementRegistrations()
	if got := testutil.ToFloat64(b.Registrations); got != 0 {
		t.Errorf("second registry saw %v registrations", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.IncrementRegistrations()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "gatepass_househelp_registrations_total 1") {
		t.Errorf("missing registrations in output:\n%s", body)
	}
}
