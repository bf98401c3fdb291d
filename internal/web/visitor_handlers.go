package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/evcraddock/gatepass/internal/apperr"
	"github.com/evcraddock/gatepass/internal/auth"
	"github.com/evcraddock/gatepass/internal/dispatch"
	"github.com/evcraddock/gatepass/internal/visitor"
)

// handleAPIVisitors routes /api/visitors requests.
func (s *Server) handleAPIVisitors(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/visitors")
	path = strings.TrimPrefix(path, "/")

	switch path {
	case "", "active":
		if r.Method != http.MethodGet {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiListVisitors(w, r, path == "active")
		return
	case "otp":
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiIssueOTP(w, r)
		return
	}

	idStr, action, _ := strings.Cut(path, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		apiError(w, "invalid visitor ID", http.StatusBadRequest)
		return
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiVisitorTicket(w, r, id)
	case "call":
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiCallVisitor(w, r, id)
	default:
		apiError(w, "not found", http.StatusNotFound)
	}
}

// refreshVisitors fetches the resident's visitors and swaps them into the
// resident's book. A malformed response leaves the book empty.
func (s *Server) refreshVisitors(r *http.Request) (*visitor.Book, error) {
	residentID := auth.ResidentID(r.Context())

	start := time.Now()
	visitors, err := s.visitors.FetchVisitors(r.Context(), residentID)
	s.metrics.ObserveVisitorFetch(start, err)

	s.mu.Lock()
	defer s.mu.Unlock()

	book := s.book(residentID)
	if err != nil {
		var format *apperr.IngestionFormatError
		var validation *apperr.ValidationError
		switch {
		case errors.As(err, &format):
			book.Clear()
			return nil, err
		case errors.As(err, &validation):
			return nil, err
		default:
			return nil, &apperr.UnavailableError{Op: "visitor backend", Err: err}
		}
	}

	if err := book.Replace(visitors); err != nil {
		return nil, err
	}
	return book, nil
}

// book returns the resident's book, creating it on first use.
// Callers hold s.mu.
func (s *Server) book(residentID int64) *visitor.Book {
	b, ok := s.books[residentID]
	if !ok {
		b = visitor.NewBook()
		s.books[residentID] = b
	}
	return b
}

func (s *Server) apiListVisitors(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	book, err := s.refreshVisitors(r)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	s.mu.Lock()
	var visitors []visitor.Visitor
	if activeOnly {
		visitors = book.Active()
	} else {
		visitors = book.List()
	}
	s.mu.Unlock()

	apiJSON(w, visitors, http.StatusOK)
}

// lookupVisitor finds a visitor in the resident's book, fetching once if
// the book has not been loaded yet.
func (s *Server) lookupVisitor(r *http.Request, id int64) (visitor.Visitor, error) {
	residentID := auth.ResidentID(r.Context())

	s.mu.Lock()
	book, loaded := s.books[residentID]
	s.mu.Unlock()

	if !loaded {
		var err error
		if book, err = s.refreshVisitors(r); err != nil {
			return visitor.Visitor{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return book.Get(id)
}

func (s *Server) apiVisitorTicket(w http.ResponseWriter, r *http.Request, id int64) {
	v, err := s.lookupVisitor(r, id)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, visitor.Project(v), http.StatusOK)
}

func (s *Server) apiCallVisitor(w http.ResponseWriter, r *http.Request, id int64) {
	var req callRequest
	if err := decodeBody(r, &req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	v, err := s.lookupVisitor(r, id)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	if _, err := s.runCommand(r, dispatch.CallContact{Phone: v.Phone, Platform: req.Platform}); err != nil {
		apiFail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiIssueOTP mints a code unique against the resident's current visitors.
func (s *Server) apiIssueOTP(w http.ResponseWriter, r *http.Request) {
	book, err := s.refreshVisitors(r)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	s.mu.Lock()
	code, err := book.IssueOTP(s.issuer)
	s.mu.Unlock()
	if err != nil {
		apiFail(w, r, err)
		return
	}

	apiJSON(w, map[string]string{"otp": code}, http.StatusCreated)
}
