// Package dispatch validates user commands and routes them to the worker
// store and the telephony dialer.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/evcraddock/gatepass/internal/apperr"
	"github.com/evcraddock/gatepass/internal/househelp"
	"github.com/evcraddock/gatepass/internal/metrics"
	"github.com/evcraddock/gatepass/internal/telephony"
)

// Command is one user intent.
type Command interface {
	name() string
}

// Register adds a new worker.
type Register struct {
	Registration househelp.Registration
}

// ToggleStatus flips a worker between in and out.
type ToggleStatus struct {
	ID string
}

// SetStatus moves a worker to an explicit status.
type SetStatus struct {
	ID     string
	Status househelp.Status
}

// ShowTicket selects a worker and returns its ticket.
type ShowTicket struct {
	ID string
}

// CallContact dials a phone number.
type CallContact struct {
	Phone    string
	Platform telephony.Platform
}

// Dismiss clears the selected ticket.
type Dismiss struct{}

func (Register) name() string     { return "register" }
func (ToggleStatus) name() string { return "toggle_status" }
func (SetStatus) name() string    { return "set_status" }
func (ShowTicket) name() string   { return "show_ticket" }
func (CallContact) name() string  { return "call_contact" }
func (Dismiss) name() string      { return "dismiss" }

// Result is what a command produced. Roster is always the active roster
// recomputed after the command.
type Result struct {
	Worker *househelp.Worker
	Ticket *househelp.Ticket
	Roster []househelp.Worker
}

// Saver persists a worker after it changes.
type Saver interface {
	Save(w househelp.Worker) error
}

// Dispatcher applies commands in the order they are given.
// Not safe for concurrent use.
type Dispatcher struct {
	store   *househelp.Store
	dialer  telephony.Dialer
	metrics *metrics.Metrics
	loc     *time.Location
	saver   Saver

	selected string
}

// New creates a dispatcher. Tickets are formatted in loc.
func New(store *househelp.Store, dialer telephony.Dialer, m *metrics.Metrics, loc *time.Location) *Dispatcher {
	return &Dispatcher{
		store:   store,
		dialer:  dialer,
		metrics: m,
		loc:     loc,
	}
}

// WithSaver makes d persist every registration and status change through
// saver. A registration that cannot be saved is not added to the store.
func (d *Dispatcher) WithSaver(saver Saver) *Dispatcher {
	d.saver = saver
	return d
}

// Dispatch validates cmd and applies it. Store errors come back unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	slog.DebugContext(ctx, "dispatch", "command", cmd.name())

	var (
		res Result
		err error
	)
	switch c := cmd.(type) {
	case Register:
		res, err = d.register(c)
	case ToggleStatus:
		res, err = d.workerResult(d.store.Toggle(c.ID))
	case SetStatus:
		res, err = d.workerResult(d.store.Transition(c.ID, c.Status))
	case ShowTicket:
		res, err = d.showTicket(c)
	case CallContact:
		err = d.call(ctx, c)
	case Dismiss:
		d.selected = ""
	default:
		return Result{}, fmt.Errorf("unknown command %T", cmd)
	}
	if err != nil {
		slog.DebugContext(ctx, "dispatch failed", "command", cmd.name(), "error", err)
		return Result{Roster: d.store.Active()}, err
	}

	res.Roster = d.store.Active()
	d.metrics.SetActiveWorkers(len(res.Roster))
	return res, nil
}

// Selected returns the ticket currently shown, if any.
func (d *Dispatcher) Selected() (househelp.Ticket, bool) {
	if d.selected == "" {
		return househelp.Ticket{}, false
	}
	w, err := d.store.Get(d.selected)
	if err != nil {
		return househelp.Ticket{}, false
	}
	return househelp.Project(w, d.loc), true
}

func (d *Dispatcher) register(c Register) (Result, error) {
	var commit func(househelp.Worker) error
	if d.saver != nil {
		commit = d.saver.Save
	}
	w, err := d.store.RegisterWith(c.Registration, commit)
	if err != nil {
		return Result{}, err
	}
	d.metrics.IncrementRegistrations()
	return Result{Worker: &w}, nil
}

func (d *Dispatcher) workerResult(w househelp.Worker, err error) (Result, error) {
	if err != nil {
		return Result{}, err
	}
	if d.saver != nil {
		if err := d.saver.Save(w); err != nil {
			return Result{}, err
		}
	}
	d.metrics.IncrementTransitions(string(w.Status))
	return Result{Worker: &w}, nil
}

func (d *Dispatcher) showTicket(c ShowTicket) (Result, error) {
	w, err := d.store.Get(c.ID)
	if err != nil {
		return Result{}, err
	}
	d.selected = w.ID
	t := househelp.Project(w, d.loc)
	return Result{Worker: &w, Ticket: &t}, nil
}

func (d *Dispatcher) call(ctx context.Context, c CallContact) error {
	phone := strings.TrimSpace(c.Phone)
	if phone == "" {
		return apperr.Required("phone")
	}
	if err := d.dialer.Dial(ctx, phone, c.Platform); err != nil {
		d.metrics.IncrementCalls("error")
		return &apperr.UnavailableError{Op: "phone call", Err: err}
	}
	d.metrics.IncrementCalls("ok")
	return nil
}
