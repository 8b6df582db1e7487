package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/physiome/admin-api/internal/model"
	"github.com/physiome/admin-api/internal/repository"
)

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, therapist_id, appointment_date, time_slot,
			visit_type, type, notes, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	appointment.ID = uuid.New().String()
	appointment.Touch(time.Now().UTC())

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.TherapistID,
		appointment.Date,
		appointment.Time,
		appointment.VisitType,
		appointment.Type,
		appointment.Notes,
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "create appointment")
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id string) (*model.Appointment, error) {
	aid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, patient_id, therapist_id, appointment_date, time_slot,
			visit_type, type, notes, status, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, aid); err != nil {
		return nil, mapError(err, "get appointment")
	}
	return &appointment, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) error {
	aid, err := parseID(id)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE appointments SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), aid,
	)
	if err != nil {
		return mapError(err, "update appointment status")
	}
	return expectAffected(result)
}
