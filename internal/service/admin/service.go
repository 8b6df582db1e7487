package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/physiome/admin-api/internal/model"
	"github.com/physiome/admin-api/internal/repository"
	apperrors "github.com/physiome/admin-api/pkg/errors"
	"github.com/physiome/admin-api/pkg/logger"
)

// CommandKind is the mutation an administrator applies to a user.
type CommandKind string

const (
	CommandApprove CommandKind = "APPROVE"
	CommandReject  CommandKind = "REJECT"
	CommandDelete  CommandKind = "DELETE"
)

var pastTense = map[CommandKind]string{
	CommandApprove: "approved",
	CommandReject:  "rejected",
	CommandDelete:  "deleted",
}

// Command is the single internal shape of every admin mutation.
type Command struct {
	Kind CommandKind
	// CascadeProfile removes the patient profile before the user. Patients
	// are always cascaded.
	CascadeProfile bool
	// Role restricts the target; a user with another role is NotFound.
	// Empty matches any role.
	Role model.Role
}

// Result is what a command reports back to the caller.
type Result struct {
	Message string
	// User is the updated projection, nil after a delete.
	User *model.Profile
}

// Service is the administrator's view of the user base.
type Service struct {
	users    repository.UserRepository
	profiles repository.PatientProfileRepository
	log      *logger.Logger
}

func NewService(users repository.UserRepository, profiles repository.PatientProfileRepository, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{users: users, profiles: profiles, log: log}
}

func (s *Service) ListTherapists(ctx context.Context) ([]*model.Profile, error) {
	return s.list(ctx, model.UserFilter{Role: model.RoleTherapist})
}

func (s *Service) ListPendingTherapists(ctx context.Context) ([]*model.Profile, error) {
	return s.list(ctx, model.UserFilter{Role: model.RoleTherapist, Status: model.UserStatusPending})
}

func (s *Service) ListPatients(ctx context.Context) ([]*model.Profile, error) {
	return s.list(ctx, model.UserFilter{Role: model.RolePatient})
}

func (s *Service) list(ctx context.Context, filter model.UserFilter) ([]*model.Profile, error) {
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Transient(err)
	}
	return model.Profiles(users), nil
}

// DashboardCounts issues one count per figure; the result is not a
// consistent snapshot.
func (s *Service) DashboardCounts(ctx context.Context) (*model.DashboardCounts, error) {
	var counts model.DashboardCounts
	queries := []countQuery{
		{&counts.TotalTherapists, model.UserFilter{Role: model.RoleTherapist}},
		{&counts.PendingApprovals, model.UserFilter{Role: model.RoleTherapist, Status: model.UserStatusPending}},
		{&counts.ApprovedTherapists, model.UserFilter{Role: model.RoleTherapist, Status: model.UserStatusApproved}},
		{&counts.RejectedTherapists, model.UserFilter{Role: model.RoleTherapist, Status: model.UserStatusRejected}},
		{&counts.TotalPatients, model.UserFilter{Role: model.RolePatient}},
	}

	for _, q := range queries {
		n, err := s.users.Count(ctx, q.filter)
		if err != nil {
			return nil, apperrors.Transient(err)
		}
		*q.dst = n
	}
	return &counts, nil
}

type countQuery struct {
	dst    *int64
	filter model.UserFilter
}

func (s *Service) GetTherapist(ctx context.Context, id string) (*model.Profile, error) {
	user, err := s.find(ctx, id, model.RoleTherapist)
	if err != nil {
		return nil, err
	}
	return user.Profile(), nil
}

// GetPatient merges the user with its patient profile. A missing profile
// yields empty extension fields.
func (s *Service) GetPatient(ctx context.Context, id string) (*model.PatientDetails, error) {
	user, err := s.find(ctx, id, model.RolePatient)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Transient(err)
	}
	return model.NewPatientDetails(user.Profile(), profile), nil
}

func (s *Service) ApproveTherapist(ctx context.Context, id string) (*Result, error) {
	return s.Execute(ctx, id, Command{Kind: CommandApprove, Role: model.RoleTherapist})
}

func (s *Service) RejectTherapist(ctx context.Context, id string) (*Result, error) {
	return s.Execute(ctx, id, Command{Kind: CommandReject, Role: model.RoleTherapist})
}

func (s *Service) DeleteTherapist(ctx context.Context, id string) (*Result, error) {
	return s.Execute(ctx, id, Command{Kind: CommandDelete, Role: model.RoleTherapist})
}

func (s *Service) DeletePatient(ctx context.Context, id string) (*Result, error) {
	return s.Execute(ctx, id, Command{Kind: CommandDelete, Role: model.RolePatient, CascadeProfile: true})
}

// ManageUser applies action to a user of any role. DELETE requires
// permanent; APPROVE and REJECT leave non-physiotherapists untouched.
func (s *Service) ManageUser(ctx context.Context, id string, action string, permanent bool) (*Result, error) {
	kind := CommandKind(strings.ToUpper(strings.TrimSpace(action)))
	switch kind {
	case CommandApprove, CommandReject:
	case CommandDelete:
		if !permanent {
			return nil, apperrors.BadRequest("Permanent flag is required to delete a user", nil)
		}
	default:
		return nil, apperrors.BadRequest("Invalid action", nil)
	}
	return s.Execute(ctx, id, Command{Kind: kind})
}

// Execute loads the target and applies cmd to it.
func (s *Service) Execute(ctx context.Context, id string, cmd Command) (*Result, error) {
	user, err := s.find(ctx, id, cmd.Role)
	if err != nil {
		return nil, err
	}

	switch cmd.Kind {
	case CommandApprove:
		return s.setStatus(ctx, user, cmd, model.UserStatusApproved)
	case CommandReject:
		return s.setStatus(ctx, user, cmd, model.UserStatusRejected)
	case CommandDelete:
		return s.delete(ctx, user, cmd)
	}
	return nil, apperrors.BadRequest("Invalid action", nil)
}

func (s *Service) setStatus(ctx context.Context, user *model.User, cmd Command, status model.UserStatus) (*Result, error) {
	if user.Role == model.RoleTherapist && user.Status != status {
		if err := s.users.UpdateStatus(ctx, user.ID, status); err != nil {
			return nil, s.mapError(err, cmd.Role)
		}
		s.log.Info("Therapist status updated", "user_id", user.ID, "from", user.Status, "to", status)
		user.Status = status
	}

	return &Result{
		Message: fmt.Sprintf("%s %s successfully", subject(cmd.Role, ""), pastTense[cmd.Kind]),
		User:    user.Profile(),
	}, nil
}

func (s *Service) delete(ctx context.Context, user *model.User, cmd Command) (*Result, error) {
	if cmd.CascadeProfile || user.Role == model.RolePatient {
		if err := s.profiles.DeleteByUserID(ctx, user.ID); err != nil {
			return nil, apperrors.Transient(err)
		}
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return nil, s.mapError(err, cmd.Role)
	}
	s.log.Info("User deleted", "user_id", user.ID, "role", user.Role)

	return &Result{Message: subject(cmd.Role, user.Role) + " deleted successfully"}, nil
}

// find loads id, treating a role mismatch like a missing user.
func (s *Service) find(ctx context.Context, id string, role model.Role) (*model.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, s.mapError(err, role)
	}
	if role != "" && user.Role != role {
		return nil, apperrors.NotFound(subject(role, "") + " not found")
	}
	return user, nil
}

func (s *Service) mapError(err error, role model.Role) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(subject(role, "") + " not found")
	}
	return apperrors.Transient(err)
}

// subject names the target in messages: by the requested role, else by
// the actual role of a deleted user, else "User".
func subject(requested, actual model.Role) string {
	role := requested
	if role == "" {
		role = actual
	}
	switch role {
	case model.RoleTherapist:
		return "Therapist"
	case model.RolePatient:
		return "Patient"
	}
	return "User"
}
