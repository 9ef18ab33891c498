package leads

import (
	"encoding/json"
	"net/mail"
	"strings"
	"time"
)

// Status is the free-form pipeline label on a lead. Any status may follow any
// other; only membership in the set is enforced.
type Status string

const (
	StatusNew       Status = "NEW"
	StatusContacted Status = "CONTACTED"
	StatusQualified Status = "QUALIFIED"
	StatusLost      Status = "LOST"
	StatusCustomer  Status = "CUSTOMER"
)

// Valid reports whether s is one of the five stored statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusQualified, StatusLost, StatusCustomer:
		return true
	}
	return false
}

// Lead is one prospective customer, owned by exactly one user. Optional text
// fields use the empty string for "not set".
type Lead struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Name       string     `json:"name"`
	Phone      string     `json:"phone"`
	Email      string     `json:"email"`
	Service    string     `json:"service"`
	Status     Status     `json:"status"`
	Source     string     `json:"source"`
	Notes      string     `json:"notes"`
	FollowUpOn *time.Time `json:"followUpOn"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// DueForFollowUp reports whether the lead's follow-up date has arrived.
func (l *Lead) DueForFollowUp(now time.Time) bool {
	return l.FollowUpOn != nil && !l.FollowUpOn.After(now)
}

// CreateLeadRequest is the payload for creating a lead. UserID always comes
// from the authenticated session, never from the client body.
type CreateLeadRequest struct {
	UserID     string     `json:"-"`
	Name       string     `json:"name"`
	Phone      string     `json:"phone"`
	Email      string     `json:"email"`
	Service    string     `json:"service"`
	Status     Status     `json:"status"`
	Source     string     `json:"source"`
	Notes      string     `json:"notes"`
	FollowUpOn *time.Time `json:"followUpOn"`
}

// Validate checks field constraints and applies the NEW status default.
func (r *CreateLeadRequest) Validate() error {
	ve := newValidationError()
	if strings.TrimSpace(r.Name) == "" {
		ve.add("name", "name is required")
	}
	if strings.TrimSpace(r.Phone) == "" {
		ve.add("phone", "phone is required")
	}
	if r.Email != "" {
		if _, err := mail.ParseAddress(r.Email); err != nil {
			ve.add("email", "email is not a valid address")
		}
	}
	if r.Status == "" {
		r.Status = StatusNew
	} else if !r.Status.Valid() {
		ve.add("status", "status must be one of NEW, CONTACTED, QUALIFIED, LOST, CUSTOMER")
	}
	return ve.orNil()
}

// OptionalDate distinguishes an absent followUpOn field from an explicit null
// that clears the date.
type OptionalDate struct {
	Set  bool
	Time *time.Time
}

// UnmarshalJSON marks the field as present; null clears the stored value.
func (d *OptionalDate) UnmarshalJSON(b []byte) error {
	d.Set = true
	if string(b) == "null" || string(b) == `""` {
		d.Time = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	d.Time = &t
	return nil
}

// UpdateLeadRequest is a partial update: nil pointers (and an unset
// FollowUpOn) leave the stored field untouched. Ownership fields and
// timestamps cannot be changed through it.
type UpdateLeadRequest struct {
	Name       *string      `json:"name"`
	Phone      *string      `json:"phone"`
	Email      *string      `json:"email"`
	Service    *string      `json:"service"`
	Status     *Status      `json:"status"`
	Source     *string      `json:"source"`
	Notes      *string      `json:"notes"`
	FollowUpOn OptionalDate `json:"followUpOn"`
}

// Validate re-checks every touched field with the create rules.
func (r *UpdateLeadRequest) Validate() error {
	ve := newValidationError()
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		ve.add("name", "name is required")
	}
	if r.Phone != nil && strings.TrimSpace(*r.Phone) == "" {
		ve.add("phone", "phone is required")
	}
	if r.Email != nil && *r.Email != "" {
		if _, err := mail.ParseAddress(*r.Email); err != nil {
			ve.add("email", "email is not a valid address")
		}
	}
	if r.Status != nil && !r.Status.Valid() {
		ve.add("status", "status must be one of NEW, CONTACTED, QUALIFIED, LOST, CUSTOMER")
	}
	return ve.orNil()
}

// empty reports whether the update touches nothing.
func (r *UpdateLeadRequest) empty() bool {
	return r.Name == nil && r.Phone == nil && r.Email == nil && r.Service == nil &&
		r.Status == nil && r.Source == nil && r.Notes == nil && !r.FollowUpOn.Set
}

// apply copies the touched fields onto the lead.
func (r *UpdateLeadRequest) apply(l *Lead) {
	if r.Name != nil {
		l.Name = *r.Name
	}
	if r.Phone != nil {
		l.Phone = *r.Phone
	}
	if r.Email != nil {
		l.Email = *r.Email
	}
	if r.Service != nil {
		l.Service = *r.Service
	}
	if r.Status != nil {
		l.Status = *r.Status
	}
	if r.Source != nil {
		l.Source = *r.Source
	}
	if r.Notes != nil {
		l.Notes = *r.Notes
	}
	if r.FollowUpOn.Set {
		l.FollowUpOn = r.FollowUpOn.Time
	}
}
