// Command seed creates the first admin account so the admin routes can be
// reached, and prints a token for it.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/physiome/admin-api/internal/config"
	"github.com/physiome/admin-api/internal/model"
	"github.com/physiome/admin-api/internal/repository"
	"github.com/physiome/admin-api/internal/repository/driver"
	authService "github.com/physiome/admin-api/internal/service/auth"
	"github.com/physiome/admin-api/pkg/auth"
	"github.com/physiome/admin-api/pkg/logger"
	"github.com/physiome/admin-api/pkg/security"
)

type seedSettings struct {
	Name     string `envconfig:"SEED_ADMIN_NAME" default:"PhysioMe Admin"`
	Email    string `envconfig:"SEED_ADMIN_EMAIL" required:"true"`
	Password string `envconfig:"SEED_ADMIN_PASSWORD" required:"true"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(&logger.Config{Level: logger.ParseLevel(cfg.App.LogLevel)})

	var settings seedSettings
	if err := envconfig.Process("", &settings); err != nil {
		log.Fatal(err, "invalid seed settings")
	}

	ctx := context.Background()
	store, err := driver.Open(ctx, cfg)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer store.Close()

	admin, created, err := seedAdmin(ctx, store.Users, security.NewBcryptHasher(0), settings)
	if err != nil {
		log.Error(err, "failed to seed admin", "email", settings.Email)
		return
	}
	if created {
		log.Info("admin created", "id", admin.ID, "email", admin.Email)
	} else {
		log.Info("admin already exists", "id", admin.ID, "email", admin.Email)
	}

	token, err := adminToken(store.Users, cfg.JWT.Secret, admin)
	if err != nil {
		log.Error(err, "failed to sign token")
		return
	}
	fmt.Println(token)
}

// seedAdmin is idempotent: an existing admin with the same email is
// returned unchanged. Any other account on that email is an error.
func seedAdmin(ctx context.Context, users repository.UserRepository, hasher security.PasswordHasher, settings seedSettings) (*model.User, bool, error) {
	email := strings.ToLower(strings.TrimSpace(settings.Email))

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != model.RoleAdmin {
			return nil, false, fmt.Errorf("%s is already registered as %s", email, existing.Role)
		}
		return existing, false, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, err
	}

	hash, err := hasher.Hash(settings.Password)
	if err != nil {
		return nil, false, err
	}
	admin := &model.User{
		Name:         settings.Name,
		Email:        email,
		Role:         model.RoleAdmin,
		Status:       model.UserStatusApproved,
		PasswordHash: hash,
	}
	if err := users.Create(ctx, admin); err != nil {
		return nil, false, err
	}
	return admin, true, nil
}

// adminToken signs through the same service that gates the API, so the
// printed token is accepted by it.
func adminToken(users repository.UserRepository, secret string, admin *model.User) (string, error) {
	return authService.NewService(users, auth.NewJWTService(secret, 0)).IssueToken(admin)
}
