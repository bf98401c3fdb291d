// Package househelp tracks domestic-help workers through their in/out
// lifecycle and issues their gate passcodes.
package househelp

import (
	"fmt"
	"time"
)

// Status is where a worker currently is relative to the community gate.
type Status string

const (
	StatusOut Status = "out"
	StatusIn  Status = "in"
)

// IsValid checks if a status is recognized.
func (s Status) IsValid() bool {
	return s == StatusIn || s == StatusOut
}

// Opposite returns the status a toggle moves to.
func (s Status) Opposite() Status {
	if s == StatusIn {
		return StatusOut
	}
	return StatusIn
}

// Label returns a human-readable label for the status.
func (s Status) Label() string {
	switch s {
	case StatusIn:
		return "In"
	case StatusOut:
		return "Out"
	default:
		return string(s)
	}
}

// Category is the kind of work a domestic help does.
type Category string

const (
	Cook     Category = "Cook"
	Maid     Category = "Maid"
	Driver   Category = "Driver"
	Gardener Category = "Gardener"
)

// KnownCategories lists the categories offered when registering.
// Other non-empty categories are accepted.
var KnownCategories = []Category{Cook, Maid, Driver, Gardener}

// Worker is a registered domestic help.
type Worker struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Category    Category   `json:"category"`
	Phone       string     `json:"phone"`
	Passcode    string     `json:"passcode"`
	Status      Status     `json:"status"`
	LastEntryAt *time.Time `json:"last_entry_at,omitempty"`
	LastExitAt  *time.Time `json:"last_exit_at,omitempty"`
	AvatarRef   string     `json:"avatar_ref"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Registration holds the fields a resident fills in to add a worker.
// Fields are validated in declaration order.
type Registration struct {
	Name     string `json:"name" validate:"required"`
	Category string `json:"category" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
}

// avatarRef derives the display image for a worker ID.
func avatarRef(id string) string {
	return fmt.Sprintf("https://i.pravatar.cc/150?u=%s", id)
}

// clone returns a copy that shares no pointers with w.
func (w Worker) clone() Worker {
	if w.LastEntryAt != nil {
		t := *w.LastEntryAt
		w.LastEntryAt = &t
	}
	if w.LastExitAt != nil {
		t := *w.LastExitAt
		w.LastExitAt = &t
	}
	return w
}
