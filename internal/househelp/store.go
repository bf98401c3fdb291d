package househelp

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/evcraddock/gatepass/internal/apperr"
	"github.com/evcraddock/gatepass/internal/credential"
)

// Store owns the canonical collection of workers. It is the only writer of
// status, timestamps and passcodes. Not safe for concurrent use.
type Store struct {
	issuer   *credential.Issuer
	validate *validator.Validate
	now      func() time.Time
	newID    func() string

	workers []Worker
	index   map[string]int
}

// NewStore creates an empty store issuing passcodes from issuer.
func NewStore(issuer *credential.Issuer) *Store {
	return &Store{
		issuer:   issuer,
		validate: newValidator(),
		now:      time.Now,
		newID:    uuid.NewString,
		index:    make(map[string]int),
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Register validates reg, issues a passcode and appends a new worker with
// status out. Nothing is appended on failure.
func (s *Store) Register(reg Registration) (Worker, error) {
	return s.RegisterWith(reg, nil)
}

// RegisterWith is Register with a commit hook. commit sees the new worker
// before it is appended; if it fails, the store is unchanged and its error
// is returned as is.
func (s *Store) RegisterWith(reg Registration, commit func(Worker) error) (Worker, error) {
	reg = Registration{
		Name:     strings.TrimSpace(reg.Name),
		Category: strings.TrimSpace(reg.Category),
		Phone:    strings.TrimSpace(reg.Phone),
	}

	if err := s.validate.Struct(reg); err != nil {
		return Worker{}, mapValidationError(err)
	}

	passcode, err := s.issuer.Issue(s.Passcodes())
	if err != nil {
		return Worker{}, fmt.Errorf("issuing passcode: %w", err)
	}

	id := s.newID()
	if _, exists := s.index[id]; exists {
		return Worker{}, fmt.Errorf("generated duplicate worker id %s", id)
	}

	w := Worker{
		ID:        id,
		Name:      reg.Name,
		Category:  Category(reg.Category),
		Phone:     reg.Phone,
		Passcode:  passcode,
		Status:    StatusOut,
		AvatarRef: avatarRef(id),
		CreatedAt: s.now(),
	}

	if commit != nil {
		if err := commit(w.clone()); err != nil {
			return Worker{}, err
		}
	}

	s.index[id] = len(s.workers)
	s.workers = append(s.workers, w)

	return w.clone(), nil
}

// Transition moves a worker to target and stamps the matching timestamp.
// Moving to the current status is allowed and still updates the timestamp.
func (s *Store) Transition(id string, target Status) (Worker, error) {
	if !target.IsValid() {
		return Worker{}, apperr.Invalid("status", fmt.Sprintf("unknown status %q", target))
	}

	i, ok := s.index[id]
	if !ok {
		return Worker{}, &apperr.NotFoundError{Kind: "worker", ID: id}
	}

	at := s.now()
	w := &s.workers[i]
	switch target {
	case StatusIn:
		w.LastEntryAt = advance(w.LastEntryAt, at)
	case StatusOut:
		w.LastExitAt = advance(w.LastExitAt, at)
	}
	w.Status = target

	return w.clone(), nil
}

// Toggle transitions a worker to the opposite of its current status.
func (s *Store) Toggle(id string) (Worker, error) {
	i, ok := s.index[id]
	if !ok {
		return Worker{}, &apperr.NotFoundError{Kind: "worker", ID: id}
	}
	return s.Transition(id, s.workers[i].Status.Opposite())
}

// Get returns a copy of the worker with the given ID.
func (s *Store) Get(id string) (Worker, error) {
	i, ok := s.index[id]
	if !ok {
		return Worker{}, &apperr.NotFoundError{Kind: "worker", ID: id}
	}
	return s.workers[i].clone(), nil
}

// List returns a snapshot of all workers in registration order.
func (s *Store) List() []Worker {
	out := make([]Worker, len(s.workers))
	for i, w := range s.workers {
		out[i] = w.clone()
	}
	return out
}

// Active returns the workers currently in.
func (s *Store) Active() []Worker {
	return ActiveRoster(s.List())
}

// Len returns the number of registered workers.
func (s *Store) Len() int {
	return len(s.workers)
}

// Passcodes returns the set of passcodes currently held.
func (s *Store) Passcodes() map[string]struct{} {
	codes := make(map[string]struct{}, len(s.workers))
	for _, w := range s.workers {
		codes[w.Passcode] = struct{}{}
	}
	return codes
}

// Load seeds an empty store with previously saved workers, keeping their
// order. The store is left untouched if any worker is rejected.
func (s *Store) Load(workers []Worker) error {
	if len(s.workers) > 0 {
		return fmt.Errorf("store already holds %d workers", len(s.workers))
	}

	index := make(map[string]int, len(workers))
	codes := make(map[string]struct{}, len(workers))
	loaded := make([]Worker, 0, len(workers))

	for i, w := range workers {
		if w.ID == "" {
			return fmt.Errorf("worker %d has no id", i)
		}
		if _, dup := index[w.ID]; dup {
			return fmt.Errorf("duplicate worker id %s", w.ID)
		}
		if !w.Status.IsValid() {
			return fmt.Errorf("worker %s has invalid status %q", w.ID, w.Status)
		}
		if !credential.Valid(w.Passcode) {
			return fmt.Errorf("worker %s has invalid passcode", w.ID)
		}
		if _, dup := codes[w.Passcode]; dup {
			return fmt.Errorf("duplicate passcode for worker %s", w.ID)
		}
		if w.AvatarRef == "" {
			w.AvatarRef = avatarRef(w.ID)
		}
		index[w.ID] = i
		codes[w.Passcode] = struct{}{}
		loaded = append(loaded, w.clone())
	}

	s.workers = loaded
	s.index = index
	return nil
}

// advance returns at, or prev if at is earlier, so timestamps never go back.
func advance(prev *time.Time, at time.Time) *time.Time {
	if prev != nil && at.Before(*prev) {
		at = *prev
	}
	return &at
}

// mapValidationError turns the first validator failure into a ValidationError.
func mapValidationError(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return fmt.Errorf("validating registration: %w", err)
	}
	e := errs[0]
	if e.Tag() == "required" {
		return apperr.Required(e.Field())
	}
	return apperr.Invalid(e.Field(), e.Tag())
}
