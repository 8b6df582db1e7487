package postgres

import (
	"context"

	"github.com/physiome/admin-api/internal/model"
	"github.com/physiome/admin-api/internal/repository"
)

type patientProfileRepository struct {
	BaseRepository
}

func NewPatientProfileRepository(base BaseRepository) repository.PatientProfileRepository {
	return &patientProfileRepository{base}
}

func (r *patientProfileRepository) GetByUserID(ctx context.Context, userID string) (*model.PatientProfile, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT user_id, gender, address, allergies, medications,
			emergency_contact, insurance_info
		FROM patient_profiles
		WHERE user_id = $1
	`

	var profile model.PatientProfile
	if err := r.db.GetContext(ctx, &profile, query, uid); err != nil {
		return nil, mapError(err, "get patient profile")
	}
	return &profile, nil
}

func (r *patientProfileRepository) DeleteByUserID(ctx context.Context, userID string) error {
	uid, err := parseID(userID)
	if err != nil {
		return nil
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM patient_profiles WHERE user_id = $1`, uid); err != nil {
		return mapError(err, "delete patient profile")
	}
	return nil
}
