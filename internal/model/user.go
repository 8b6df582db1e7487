package model

import "time"

type Role string

const (
	RolePatient   Role = "patient"
	RoleTherapist Role = "physiotherapist"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleTherapist, RoleAdmin:
		return true
	}
	return false
}

type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusApproved UserStatus = "approved"
	UserStatusRejected UserStatus = "rejected"
)

// User is a person who can sign in. Physiotherapists move through
// pending/approved/rejected; the other roles carry a status only for
// completeness.
type User struct {
	Base
	Name           string     `json:"name" db:"name"`
	Email          string     `json:"email" db:"email"`
	Phone          *string    `json:"phone,omitempty" db:"phone"`
	Role           Role       `json:"role" db:"role"`
	Status         UserStatus `json:"status" db:"status"`
	Specialization *string    `json:"specialization,omitempty" db:"specialization"`
	Bio            *string    `json:"bio,omitempty" db:"bio"`
	PasswordHash   string     `json:"-" db:"password_hash"`
}

// Profile is the outbound projection of a User. It has no credential field.
type Profile struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone,omitempty"`
	Role           Role       `json:"role"`
	Status         UserStatus `json:"status"`
	Specialization string     `json:"specialization,omitempty"`
	Bio            string     `json:"bio,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Profile strips credentials from u.
func (u *User) Profile() *Profile {
	if u == nil {
		return nil
	}
	return &Profile{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Phone:          deref(u.Phone),
		Role:           u.Role,
		Status:         u.Status,
		Specialization: deref(u.Specialization),
		Bio:            deref(u.Bio),
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// Profiles projects a list of users.
func Profiles(users []*User) []*Profile {
	out := make([]*Profile, 0, len(users))
	for _, u := range users {
		out = append(out, u.Profile())
	}
	return out
}

// Participant snapshots the contact fields of u for a notification event.
func (u *User) Participant() Participant {
	return Participant{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Phone: deref(u.Phone),
	}
}

// UserFilter narrows list and count queries. Empty fields match anything.
type UserFilter struct {
	Role   Role
	Status UserStatus
}

// DashboardCounts is the admin dashboard summary.
type DashboardCounts struct {
	TotalTherapists    int64 `json:"totalTherapists"`
	PendingApprovals   int64 `json:"pendingApprovals"`
	ApprovedTherapists int64 `json:"approvedTherapists"`
	RejectedTherapists int64 `json:"rejectedTherapists"`
	TotalPatients      int64 `json:"totalPatients"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
