package repository

import (
	"context"
	"errors"

	"github.com/physiome/admin-api/internal/model"
)

var (
	// ErrNotFound is returned when no record matches, including when the id
	// is malformed for the backing store.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("record already exists")
)

// All repository interfaces in one file
type (
	// UserRepository handles the users of every role
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id string) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		// List returns matching users, newest first.
		List(ctx context.Context, filter model.UserFilter) ([]*model.User, error)
		Count(ctx context.Context, filter model.UserFilter) (int64, error)
		UpdateStatus(ctx context.Context, id string, status model.UserStatus) error
		Delete(ctx context.Context, id string) error
	}

	// PatientProfileRepository handles the medical extension of patients
	PatientProfileRepository interface {
		GetByUserID(ctx context.Context, userID string) (*model.PatientProfile, error)
		// DeleteByUserID succeeds when no profile exists.
		DeleteByUserID(ctx context.Context, userID string) error
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id string) (*model.Appointment, error)
		UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) error
	}

	// Pinger is implemented by stores that can report readiness.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Store bundles the repositories of one backing database.
type Store struct {
	Users        UserRepository
	Profiles     PatientProfileRepository
	Appointments AppointmentRepository
	Pinger       Pinger
	Close        func() error
}
