package web

import (
	"net/http"
	"strings"

	"github.com/evcraddock/gatepass/internal/dispatch"
	"github.com/evcraddock/gatepass/internal/househelp"
	"github.com/evcraddock/gatepass/internal/telephony"
)

// StaffResult is the response to a staff command.
type StaffResult struct {
	Worker *househelp.Worker `json:"worker,omitempty"`
	Ticket *househelp.Ticket `json:"ticket,omitempty"`
	Roster []househelp.Worker `json:"roster"`
}

type statusRequest struct {
	Status househelp.Status `json:"status"`
}

type callRequest struct {
	Platform telephony.Platform `json:"platform"`
}

// handleAPIStaff routes /api/staff requests.
func (s *Server) handleAPIStaff(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/staff")
	path = strings.TrimPrefix(path, "/")

	// /api/staff: list or register
	if path == "" {
		switch r.Method {
		case http.MethodGet:
			s.apiListStaff(w)
		case http.MethodPost:
			s.apiRegisterStaff(w, r)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if path == "active" {
		if r.Method != http.MethodGet {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiActiveStaff(w)
		return
	}

	// /api/staff/selected: the open ticket
	if path == "selected" {
		switch r.Method {
		case http.MethodGet:
			s.apiSelectedTicket(w)
		case http.MethodDelete:
			s.apiDispatch(w, r, dispatch.Dismiss{})
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id, action, _ := strings.Cut(path, "/")
	if id == "" {
		apiError(w, "invalid worker ID", http.StatusBadRequest)
		return
	}

	switch action {
	case "":
		// read-only; selecting a ticket is POST /select
		if r.Method != http.MethodGet {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiStaffTicket(w, r, id)
	case "select":
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiDispatch(w, r, dispatch.ShowTicket{ID: id})
	case "status":
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req statusRequest
		if err := decodeBody(r, &req); err != nil {
			apiError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		s.apiDispatch(w, r, dispatch.SetStatus{ID: id, Status: req.Status})
	case "toggle":
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiDispatch(w, r, dispatch.ToggleStatus{ID: id})
	case "call":
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiCallStaff(w, r, id)
	default:
		apiError(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) apiListStaff(w http.ResponseWriter) {
	s.mu.Lock()
	workers := s.store.List()
	s.mu.Unlock()

	apiJSON(w, workers, http.StatusOK)
}

func (s *Server) apiActiveStaff(w http.ResponseWriter) {
	s.mu.Lock()
	workers := s.store.Active()
	s.mu.Unlock()

	apiJSON(w, workers, http.StatusOK)
}

func (s *Server) apiSelectedTicket(w http.ResponseWriter) {
	s.mu.Lock()
	t, ok := s.dispatcher.Selected()
	s.mu.Unlock()

	if !ok {
		apiError(w, "no ticket selected", http.StatusNotFound)
		return
	}
	apiJSON(w, t, http.StatusOK)
}

func (s *Server) apiStaffTicket(w http.ResponseWriter, r *http.Request, id string) {
	s.mu.Lock()
	worker, err := s.store.Get(id)
	roster := s.store.Active()
	s.mu.Unlock()
	if err != nil {
		apiFail(w, r, err)
		return
	}

	t := househelp.Project(worker, s.loc)
	apiJSON(w, StaffResult{Worker: &worker, Ticket: &t, Roster: roster}, http.StatusOK)
}

func (s *Server) apiRegisterStaff(w http.ResponseWriter, r *http.Request) {
	var reg househelp.Registration
	if err := decodeBody(r, &reg); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	res, err := s.runCommand(r, dispatch.Register{Registration: reg})
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, res, http.StatusCreated)
}

func (s *Server) apiCallStaff(w http.ResponseWriter, r *http.Request, id string) {
	var req callRequest
	if err := decodeBody(r, &req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	worker, err := s.store.Get(id)
	s.mu.Unlock()
	if err != nil {
		apiFail(w, r, err)
		return
	}

	s.apiDispatch(w, r, dispatch.CallContact{Phone: worker.Phone, Platform: req.Platform})
}

// apiDispatch runs cmd and writes the result.
func (s *Server) apiDispatch(w http.ResponseWriter, r *http.Request, cmd dispatch.Command) {
	res, err := s.runCommand(r, cmd)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, res, http.StatusOK)
}

// runCommand runs cmd under the server lock. Registrations and status changes
// are saved by the dispatcher before the response is built.
func (s *Server) runCommand(r *http.Request, cmd dispatch.Command) (StaffResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.dispatcher.Dispatch(r.Context(), cmd)
	if err != nil {
		return StaffResult{}, err
	}
	return StaffResult{Worker: res.Worker, Ticket: res.Ticket, Roster: res.Roster}, nil
}
