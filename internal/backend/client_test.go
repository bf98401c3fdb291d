package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/evcraddock/gatepass/internal/apperr"
	"github.com/evcraddock/gatepass/internal/visitor"
)

func writeResp(t *testing.T, w http.ResponseWriter, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write([]byte(body)); err != nil {
		t.Errorf("write response: %v", err)
	}
}

func TestFetchVisitors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/getallvisitors" {
			t.Errorf("path = %q, want /getallvisitors", r.URL.Path)
		}
		var req visitorsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.ResidentID != 3 {
			t.Errorf("resident_id = %d, want 3", req.ResidentID)
		}
		writeResp(t, w, `{"message": [{"id": 1, "name": "Ravi Kumar", "otp": "482913", "prebooked_status": "pending", "mode_of_entry": "gate"}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	visitors, err := c.FetchVisitors(context.Background(), 3)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(visitors) != 1 || visitors[0].Name != "Ravi Kumar" {
		t.Errorf("visitors = %+v", visitors)
	}
}

func TestFetchVisitorsNonArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeResp(t, w, `{"message": "No visitors for resident"}`)
	}))
	defer srv.Close()

	visitors, err := NewClient(srv.URL).FetchVisitors(context.Background(), 3)
	var ferr *apperr.IngestionFormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("err = %v, want IngestionFormatError", err)
	}
	if visitors != nil {
		t.Errorf("visitors = %v, want nil", visitors)
	}
}

func TestFetchVisitorsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FetchVisitors(context.Background(), 3)
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	var ferr *apperr.IngestionFormatError
	if errors.As(err, &ferr) {
		t.Error("server errors should not be reported as format errors")
	}
}

func TestFetchVisitorsMissingResident(t *testing.T) {
	_, err := NewClient("http://unused.invalid").FetchVisitors(context.Background(), 0)
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if verr.Field != "resident_id" {
		t.Errorf("field = %q, want resident_id", verr.Field)
	}
}

func TestFetchVisitorsCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeResp(t, w, `{"message": []}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewClient(srv.URL).FetchVisitors(ctx, 3); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestFetchVisitorsSharedFetchOutlivesCancelledCaller(t *testing.T) {
	arrived := make(chan struct{}, 2)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		arrived <- struct{}{}
		<-release
		writeResp(t, w, `{"message": [{"id": 1, "name": "Ravi Kumar"}]}`)
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.FetchVisitors(ctxA, 3)
		errA <- err
	}()
	<-arrived

	type result struct {
		visitors []visitor.Visitor
		err      error
	}
	resB := make(chan result, 1)
	go func() {
		v, err := c.FetchVisitors(context.Background(), 3)
		resB <- result{v, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller err = %v, want context.Canceled", err)
	}

	release <- struct{}{}
	select {
	case res := <-resB:
		if res.err != nil {
			t.Fatalf("live caller err = %v", res.err)
		}
		if len(res.visitors) != 1 || res.visitors[0].Name != "Ravi Kumar" {
			t.Errorf("visitors = %+v", res.visitors)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("live caller never returned")
	}
}

func TestNewClientDefaultURL(t *testing.T) {
	c := NewClient("")
	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultBaseURL)
	}
}
