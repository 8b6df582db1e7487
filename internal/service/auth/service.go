package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/physiome/admin-api/internal/model"
	"github.com/physiome/admin-api/internal/repository"
	"github.com/physiome/admin-api/pkg/auth"
	apperrors "github.com/physiome/admin-api/pkg/errors"
)

// MsgNotAuthorized is the only message a client sees for any token or
// lookup failure.
const MsgNotAuthorized = "Not authorized to access this route"

var ErrUserNotFound = errors.New("token user no longer exists")

// Service resolves access tokens to users.
type Service struct {
	userRepo repository.UserRepository
	jwtSvc   auth.JWTService
}

func NewService(userRepo repository.UserRepository, jwtSvc auth.JWTService) *Service {
	return &Service{
		userRepo: userRepo,
		jwtSvc:   jwtSvc,
	}
}

// Authenticate verifies token and loads its user. Every failure is
// Unauthenticated with the same message; the cause is kept for logging.
func (s *Service) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, apperrors.Unauthenticated(MsgNotAuthorized, auth.ErrInvalidToken)
	}

	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Unauthenticated(MsgNotAuthorized, err)
	}

	user, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = ErrUserNotFound
		}
		return nil, apperrors.Unauthenticated(MsgNotAuthorized, fmt.Errorf("user %s: %w", claims.UserID, err))
	}
	user.PasswordHash = ""
	return user, nil
}

// IssueToken signs an access token that Authenticate accepts for user.
func (s *Service) IssueToken(user *model.User) (string, error) {
	return s.jwtSvc.GenerateAccessToken(user.ID)
}
