package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/physiome/admin-api/internal/model"
	"github.com/physiome/admin-api/internal/repository"
)

const userColumns = `id, name, email, phone, role, status, specialization, bio,
	password_hash, created_at, updated_at`

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			id, name, email, phone, role, status, specialization, bio,
			password_hash, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	user.ID = uuid.New().String()
	user.Touch(time.Now().UTC())

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Phone,
		user.Role,
		user.Status,
		user.Specialization,
		user.Bio,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "create user")
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id string) (*model.User, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, uid); err != nil {
		return nil, mapError(err, "get user")
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, mapError(err, "get user by email")
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter model.UserFilter) ([]*model.User, error) {
	where, args := userWhere(filter)
	query := `SELECT ` + userColumns + ` FROM users` + where + ` ORDER BY created_at DESC`

	users := []*model.User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, mapError(err, "list users")
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context, filter model.UserFilter) (int64, error) {
	where, args := userWhere(filter)

	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`+where, args...); err != nil {
		return 0, mapError(err, "count users")
	}
	return count, nil
}

func (r *userRepository) UpdateStatus(ctx context.Context, id string, status model.UserStatus) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), uid,
	)
	if err != nil {
		return mapError(err, "update user status")
	}
	return expectAffected(result)
}

// Delete removes the user and, in one transaction, any patient profile
// still attached to it.
func (r *userRepository) Delete(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM patient_profiles WHERE user_id = $1`, uid); err != nil {
			return mapError(err, "delete patient profile")
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, uid)
		if err != nil {
			return mapError(err, "delete user")
		}
		return expectAffected(result)
	})
}

func userWhere(filter model.UserFilter) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	if filter.Role != "" {
		args = append(args, filter.Role)
		clauses = append(clauses, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}

	where := ""
	for i, c := range clauses {
		if i == 0 {
			where = " WHERE " + c
		} else {
			where += " AND " + c
		}
	}
	return where, args
}
