package model

import (
	"fmt"
	"strings"
	"time"
)

// Appointment is a scheduled meeting, optionally at a stored address.
//
// Address is only populated by reads that fetch the association. A nil
// Address therefore means "none or not loaded", never a data invariant.
type Appointment struct {
	ID    *int64    `json:"idOption"`
	Name  string    `json:"name"`
	Start time.Time `json:"start"`

	// End is expected after Start. This is not checked.
	End time.Time `json:"end"`

	Address          *Address `json:"addressOption"`
	ExtraInformation *string  `json:"extraInformationOption"`
}

// HasID reports whether the appointment has been stored.
func (a Appointment) HasID() bool {
	return a.ID != nil
}

// Equal reports whether two appointments hold the same values, including
// the loaded address.
func (a Appointment) Equal(o Appointment) bool {
	if (a.Address == nil) != (o.Address == nil) {
		return false
	}
	if a.Address != nil && !a.Address.Equal(*o.Address) {
		return false
	}
	return equalInt64Ptr(a.ID, o.ID) &&
		a.Name == o.Name &&
		a.Start.Equal(o.Start) &&
		a.End.Equal(o.End) &&
		equalStringPtr(a.ExtraInformation, o.ExtraInformation)
}

// NewAppointment is the creation shape of an appointment. It names the
// address instead of embedding it; the name is resolved on insert.
type NewAppointment struct {
	Name             string    `json:"name"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	AddressName      *string   `json:"addressNameOption"`
	ExtraInformation *string   `json:"extraInformationOption"`
}

// Validate checks the required fields of a new appointment.
func (n NewAppointment) Validate() error {
	switch {
	case strings.TrimSpace(n.Name) == "":
		return fmt.Errorf("appointment name must not be empty: %w", ErrValidation)
	case n.Start.IsZero():
		return fmt.Errorf("appointment start is required: %w", ErrValidation)
	case n.End.IsZero():
		return fmt.Errorf("appointment end is required: %w", ErrValidation)
	}
	return nil
}
