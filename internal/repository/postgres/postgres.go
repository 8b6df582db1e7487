package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/physiome/admin-api/internal/repository"
)

// NewStore wires the postgres repositories around one connection pool.
func NewStore(db *sqlx.DB) *repository.Store {
	base := NewBaseRepository(db)
	return &repository.Store{
		Users:        NewUserRepository(base),
		Profiles:     NewPatientProfileRepository(base),
		Appointments: NewAppointmentRepository(base),
		Pinger:       &base,
		Close:        db.Close,
	}
}
