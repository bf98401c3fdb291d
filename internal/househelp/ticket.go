package househelp

import "time"

// TimeLayout is how ticket timestamps are displayed.
const TimeLayout = "1/2/2006, 3:04:05 PM"

// Ticket is the read-only detail view of a worker.
type Ticket struct {
	DismissID string `json:"dismiss_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Phone     string `json:"phone"`
	Passcode  string `json:"passcode"`
	Status    Status `json:"status"`
	AvatarRef string `json:"avatar_ref"`
	LastEntry string `json:"last_entry,omitempty"`
	LastExit  string `json:"last_exit,omitempty"`
}

// Project builds the ticket for w, formatting timestamps in loc.
// A nil loc means the local time zone.
func Project(w Worker, loc *time.Location) Ticket {
	if loc == nil {
		loc = time.Local
	}
	t := Ticket{
		DismissID: w.ID,
		Name:      w.Name,
		Category:  string(w.Category),
		Phone:     w.Phone,
		Passcode:  w.Passcode,
		Status:    w.Status,
		AvatarRef: w.AvatarRef,
	}
	if w.LastEntryAt != nil {
		t.LastEntry = w.LastEntryAt.In(loc).Format(TimeLayout)
	}
	if w.LastExitAt != nil {
		t.LastExit = w.LastExitAt.In(loc).Format(TimeLayout)
	}
	return t
}
