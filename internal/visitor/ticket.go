package visitor

import "strings"

// Ticket is the read-only display view of a visitor.
type Ticket struct {
	DismissID       int64           `json:"dismiss_id"`
	Name            string          `json:"name"`
	Phone           string          `json:"phone"`
	OTP             string          `json:"otp,omitempty"`
	PrebookedStatus PrebookedStatus `json:"prebooked_status"`
	TimeIn          string          `json:"time_in"`
	TimeOut         string          `json:"time_out"`
	ModeOfEntry     string          `json:"mode_of_entry"`
	Event           string          `json:"event,omitempty"`
	Vehicle         string          `json:"vehicle,omitempty"`
}

// Project builds the ticket for v.
func Project(v Visitor) Ticket {
	return Ticket{
		DismissID:       v.ID,
		Name:            v.Name,
		Phone:           v.Phone,
		OTP:             v.OTP,
		PrebookedStatus: v.PrebookedStatus,
		TimeIn:          deref(v.TimeIn),
		TimeOut:         deref(v.TimeOut),
		ModeOfEntry:     v.ModeOfEntry,
		Event:           deref(v.EventType),
		Vehicle:         strings.ToUpper(deref(v.VehicleNumber)),
	}
}
