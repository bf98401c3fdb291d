package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func residentEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ResidentID(r.Context()) == 0 && r.URL.Path != "/health" {
			t.Error("expected resident ID in context")
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAPIKeyPassesNonAPI(t *testing.T) {
	store := testAPIKeyStore(t)
	handler := RequireAPIKey(store, nil, residentEcho(t))

	r := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRequireAPIKey(t *testing.T) {
	store := testAPIKeyStore(t)
	rawKey, _, err := store.Create("Phone", 42)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	failures := 0
	handler := RequireAPIKey(store, func() { failures++ }, residentEcho(t))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"unknown key", "Bearer gp_nope", http.StatusUnauthorized},
		{"valid key", "Bearer " + rawKey, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/staff", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}

	if failures != 3 {
		t.Errorf("failures = %d, want 3", failures)
	}
}

func TestRequireAPIKeySetsResident(t *testing.T) {
	store := testAPIKeyStore(t)
	rawKey, _, err := store.Create("Phone", 42)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var got int64
	handler := RequireAPIKey(store, nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ResidentID(r.Context())
	}))

	r := httptest.NewRequest("GET", "/api/visitors", nil)
	r.Header.Set("Authorization", "Bearer "+rawKey)
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if got != 42 {
		t.Errorf("resident = %d, want 42", got)
	}
}

func TestRequireAPIKeyRateLimitsFailures(t *testing.T) {
	store := testAPIKeyStore(t)
	rawKey, _, err := store.Create("Phone", 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	handler := RequireAPIKey(store, nil, residentEcho(t))

	do := func(key string) int {
		r := httptest.NewRequest("GET", "/api/staff", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		r.Header.Set("Authorization", "Bearer "+key)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w.Code
	}

	for i := 0; i < rateLimitMaxFail; i++ {
		if code := do("gp_wrong"); code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d, want 401", i, code)
		}
	}

	if code := do("gp_wrong"); code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429 after repeated failures", code)
	}
	// A valid key from the same IP is still blocked until the window refills.
	if code := do(rawKey); code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429 for blocked IP", code)
	}
}

func TestRequireAPIKeyValidKeysNotLimited(t *testing.T) {
	store := testAPIKeyStore(t)
	rawKey, _, err := store.Create("Phone", 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	handler := RequireAPIKey(store, nil, residentEcho(t))

	for i := 0; i < rateLimitMaxFail*2; i++ {
		r := httptest.NewRequest("GET", "/api/staff", nil)
		r.Header.Set("Authorization", "Bearer "+rawKey)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}
}
