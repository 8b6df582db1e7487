package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physiome/admin-api/internal/model"
	"github.com/physiome/admin-api/internal/repository/memory"
	"github.com/physiome/admin-api/pkg/auth"
	apperrors "github.com/physiome/admin-api/pkg/errors"
)

const secret = "test-secret"

func setup(t *testing.T) (*Service, *model.User) {
	t.Helper()
	db := memory.New()
	user := &model.User{
		Base:         model.Base{ID: "a1"},
		Name:         "Admin",
		Email:        "admin@example.com",
		Role:         model.RoleAdmin,
		PasswordHash: "$2a$10$hash",
	}
	db.PutUser(user)
	return NewService(memory.NewStore(db).Users, auth.NewJWTService(secret, time.Hour)), user
}

func TestAuthenticate(t *testing.T) {
	svc, user := setup(t)

	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	got, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "a1", got.ID)
	assert.Equal(t, model.RoleAdmin, got.Role)
	assert.Empty(t, got.PasswordHash)
}

func TestAuthenticate_Failures(t *testing.T) {
	svc, _ := setup(t)

	sign := func(method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"wrong secret", sign(jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"id": "a1", "exp": future})},
		{"expired", sign(jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"id": "a1", "exp": time.Now().Add(-time.Hour).Unix()})},
		{"no expiry", sign(jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"id": "a1"})},
		{"other algorithm", sign(jwt.SigningMethodHS512, []byte(secret), jwt.MapClaims{"id": "a1", "exp": future})},
		{"missing id", sign(jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"exp": future})},
		{"deleted user", sign(jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"id": "gone", "exp": future})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Authenticate(context.Background(), tt.token)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.KindUnauthenticated))

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, MsgNotAuthorized, appErr.Message)
		})
	}
}
