package models

import "fmt"

// Role is a user's access role.
type Role string

const (
	RoleUser  Role = "user"
	RoleRider Role = "rider"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleRider, RoleAdmin:
		return true
	}
	return false
}

// ParseRole returns the Role named by s.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q", s)
	}
	return r, nil
}

// RiderStatus is the state of a rider application.
type RiderStatus string

const (
	RiderPending     RiderStatus = "pending"
	RiderAccepted    RiderStatus = "accepted"
	RiderRejected    RiderStatus = "rejected"
	RiderActive      RiderStatus = "active"
	RiderDeactivated RiderStatus = "deactivated"
)

func (s RiderStatus) Valid() bool {
	switch s {
	case RiderPending, RiderAccepted, RiderRejected, RiderActive, RiderDeactivated:
		return true
	}
	return false
}

// Assignable reports whether an administrator may move a rider into s.
// Pending is only ever set on application.
func (s RiderStatus) Assignable() bool {
	return s.Valid() && s != RiderPending
}

// ParseRiderStatus returns an assignable RiderStatus named by s.
func ParseRiderStatus(s string) (RiderStatus, error) {
	st := RiderStatus(s)
	if !st.Assignable() {
		return "", fmt.Errorf("invalid rider status %q", s)
	}
	return st, nil
}

// ActiveRiderStatuses are the statuses listed as working riders.
var ActiveRiderStatuses = []RiderStatus{RiderAccepted, RiderActive}

// PaymentStatus is a parcel's payment state.
type PaymentStatus string

const (
	Unpaid PaymentStatus = "unpaid"
	Paid   PaymentStatus = "paid"
)

func (s PaymentStatus) Valid() bool { return s == Unpaid || s == Paid }

// CascadeState is the outcome of a cross-entity side effect.
type CascadeState string

const (
	CascadePending   CascadeState = "pending"
	CascadeApplied   CascadeState = "applied"
	CascadeUnmatched CascadeState = "unmatched"
	CascadeFailed    CascadeState = "failed"
)

func (s CascadeState) Valid() bool {
	switch s {
	case CascadePending, CascadeApplied, CascadeUnmatched, CascadeFailed:
		return true
	}
	return false
}

// ParseCascadeState returns the CascadeState named by s.
func ParseCascadeState(s string) (CascadeState, error) {
	st := CascadeState(s)
	if !st.Valid() {
		return "", fmt.Errorf("invalid cascade state %q", s)
	}
	return st, nil
}
