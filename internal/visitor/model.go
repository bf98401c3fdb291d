// Package visitor holds visitors logged by security staff. Visitors arrive
// fully formed from the property backend and are never modified here.
package visitor

import "strings"

// PrebookedStatus is the approval state of a pre-booked visit.
type PrebookedStatus string

const (
	Pending   PrebookedStatus = "pending"
	Approved  PrebookedStatus = "approved"
	Denied    PrebookedStatus = "denied"
	Completed PrebookedStatus = "completed"
)

// Visitor is a visit record as supplied by the backend.
type Visitor struct {
	ID                   int64           `json:"id"`
	Phone                string          `json:"phone"`
	Name                 string          `json:"name"`
	HouseID              int64           `json:"house_id"`
	ResidentID           int64           `json:"resident_id"`
	EventType            *string         `json:"event_type"`
	Validity             *string         `json:"validity"`
	TimeIn               *string         `json:"time_in"`
	TimeOut              *string         `json:"time_out"`
	ImageURL             *string         `json:"image_url"`
	PrebookedStatus      PrebookedStatus `json:"prebooked_status"`
	OTP                  string          `json:"otp"`
	NotificationResponse *string         `json:"notification_response"`
	NotificationID       *string         `json:"notif_id"`
	ModeOfEntry          string          `json:"mode_of_entry"`
	VerificationNumber   *string         `json:"verification_number"`
	VehicleNumber        *string         `json:"vehicle_number"`
	CreatedAt            *string         `json:"created_at"`
	UpdatedAt            *string         `json:"updated_at"`
}

// IsInside reports whether the visitor has entered and not yet left.
func (v Visitor) IsInside() bool {
	return present(v.TimeIn) && !present(v.TimeOut)
}

// Notified reports whether an external paging collaborator recorded a
// notification for this visit.
func (v Visitor) Notified() bool {
	return present(v.NotificationID)
}

// clone returns a copy that shares no pointers with v.
func (v Visitor) clone() Visitor {
	for _, p := range []**string{
		&v.EventType, &v.Validity, &v.TimeIn, &v.TimeOut, &v.ImageURL,
		&v.NotificationResponse, &v.NotificationID, &v.VerificationNumber,
		&v.VehicleNumber, &v.CreatedAt, &v.UpdatedAt,
	} {
		if *p != nil {
			s := **p
			*p = &s
		}
	}
	return v
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
