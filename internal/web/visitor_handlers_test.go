package web

import (
	"errors"
	"net/http"
	"testing"

	"github.com/evcraddock/gatepass/internal/apperr"
	"github.com/evcraddock/gatepass/internal/credential"
	"github.com/evcraddock/gatepass/internal/visitor"
)

func strPtr(s string) *string { return &s }

func sampleVisitors() []visitor.Visitor {
	return []visitor.Visitor{
		{
			ID: 1, Name: "Ravi", Phone: "9000000001", ResidentID: testResident,
			TimeIn: strPtr("2026-02-08 09:00:00"), PrebookedStatus: visitor.Approved,
			OTP: "123456", VehicleNumber: strPtr("ka01ab1234"),
		},
		{
			ID: 2, Name: "Meera", Phone: "9000000002", ResidentID: testResident,
			TimeIn: strPtr("2026-02-08 08:00:00"), TimeOut: strPtr("2026-02-08 08:30:00"),
			PrebookedStatus: visitor.Completed,
		},
	}
}

func TestAPIListVisitors(t *testing.T) {
	env := testAPIServerWithDB(t)
	env.fetcher.visitors[testResident] = sampleVisitors()

	w := apiRequest(t, env.srv, "GET", "/api/visitors", env.token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var got []visitor.Visitor
	decode(t, w, &got)
	if len(got) != 2 {
		t.Fatalf("got %d visitors, want 2", len(got))
	}
	if env.fetcher.residents[0] != testResident {
		t.Errorf("fetched for resident %d, want %d", env.fetcher.residents[0], testResident)
	}

	w = apiRequest(t, env.srv, "GET", "/api/visitors/active", env.token, nil)
	decode(t, w, &got)
	if len(got) != 1 || got[0].Name != "Ravi" {
		t.Errorf("active = %+v", got)
	}
}

func TestAPIListVisitorsEmpty(t *testing.T) {
	env := testAPIServerWithDB(t)

	w := apiRequest(t, env.srv, "GET", "/api/visitors", env.token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got []visitor.Visitor
	decode(t, w, &got)
	if len(got) != 0 {
		t.Errorf("got %d visitors, want 0", len(got))
	}
}

func TestAPIListVisitorsMalformedClearsBook(t *testing.T) {
	env := testAPIServerWithDB(t)
	env.fetcher.visitors[testResident] = sampleVisitors()

	if w := apiRequest(t, env.srv, "GET", "/api/visitors", env.token, nil); w.Code != http.StatusOK {
		t.Fatalf("first fetch status = %d", w.Code)
	}

	env.fetcher.err = &apperr.IngestionFormatError{Reason: "message is not an array"}
	w := apiRequest(t, env.srv, "GET", "/api/visitors", env.token, nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadGateway)
	}

	env.srv.mu.Lock()
	n := env.srv.books[testResident].Len()
	env.srv.mu.Unlock()
	if n != 0 {
		t.Errorf("book holds %d visitors after malformed fetch, want 0", n)
	}
}

func TestAPIListVisitorsBackendDown(t *testing.T) {
	env := testAPIServerWithDB(t)
	env.fetcher.err = errors.New("connection refused")

	w := apiRequest(t, env.srv, "GET", "/api/visitors", env.token, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestAPIListVisitorsDuplicateOTPs(t *testing.T) {
	env := testAPIServerWithDB(t)
	vs := sampleVisitors()
	vs[1].OTP = vs[0].OTP
	env.fetcher.visitors[testResident] = vs

	w := apiRequest(t, env.srv, "GET", "/api/visitors", env.token, nil)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadGateway)
	}
}

func TestAPIVisitorTicket(t *testing.T) {
	env := testAPIServerWithDB(t)
	env.fetcher.visitors[testResident] = sampleVisitors()

	w := apiRequest(t, env.srv, "GET", "/api/visitors/1", env.token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var ticket visitor.Ticket
	decode(t, w, &ticket)
	if ticket.Vehicle != "KA01AB1234" || ticket.OTP != "123456" {
		t.Errorf("ticket = %+v", ticket)
	}

	// The book is loaded now, so no second fetch.
	apiRequest(t, env.srv, "GET", "/api/visitors/2", env.token, nil)
	if env.fetcher.calls != 1 {
		t.Errorf("fetch calls = %d, want 1", env.fetcher.calls)
	}

	w = apiRequest(t, env.srv, "GET", "/api/visitors/99", env.token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing visitor: status = %d, want %d", w.Code, http.StatusNotFound)
	}

	w = apiRequest(t, env.srv, "GET", "/api/visitors/abc", env.token, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAPICallVisitor(t *testing.T) {
	env := testAPIServerWithDB(t)
	env.fetcher.visitors[testResident] = sampleVisitors()

	w := apiRequest(t, env.srv, "POST", "/api/visitors/2/call", env.token, map[string]string{"platform": "android"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", w.Body.String())
	}
	if len(env.dialer.urls) != 1 || env.dialer.urls[0] != "tel:9000000002" {
		t.Errorf("dialed = %v", env.dialer.urls)
	}
}

func TestAPIIssueOTP(t *testing.T) {
	env := testAPIServerWithDB(t)
	env.fetcher.visitors[testResident] = sampleVisitors()

	w := apiRequest(t, env.srv, "POST", "/api/visitors/otp", env.token, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	decode(t, w, &resp)
	if !credential.Valid(resp["otp"]) {
		t.Errorf("otp %q is not a 6-digit code", resp["otp"])
	}
	if resp["otp"] == "123456" {
		t.Error("otp collides with an existing visitor")
	}
}

func TestAPIVisitorsMethodNotAllowed(t *testing.T) {
	env := testAPIServerWithDB(t)

	tests := []struct {
		method, path string
	}{
		{"POST", "/api/visitors"},
		{"GET", "/api/visitors/otp"},
		{"GET", "/api/visitors/1/call"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := apiRequest(t, env.srv, tt.method, tt.path, env.token, nil)
			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
			}
		})
	}
}
