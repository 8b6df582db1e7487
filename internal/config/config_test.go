package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, time.Minute, cfg.Cache.UserTTL)

	assert.Equal(t, "smtp.gmail.com", cfg.Mail.Host)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.False(t, cfg.Mail.Secure)
	assert.Equal(t, "", cfg.Mail.Raw["MAIL_HOST"])

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "http://localhost:5173", cfg.App.FrontendURL)
}

func TestLoad_MailEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MAIL_HOST", "smtp.example.com")
	t.Setenv("MAIL_PORT", "465")
	t.Setenv("MAIL_SECURE", "true")
	t.Setenv("MAIL_USER", "clinic@example.com")
	t.Setenv("MAIL_PASS", "app-password")
	t.Setenv("MAIL_FROM", "support@physiome.example")
	t.Setenv("FRONTEND_URL", "https://app.physiome.example/")
	t.Setenv("NODE_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, MailConfig{
		Host:   "smtp.example.com",
		Port:   465,
		Secure: true,
		User:   "clinic@example.com",
		Pass:   "app-password",
		From:   "support@physiome.example",
		Raw: map[string]string{
			"MAIL_HOST":   "smtp.example.com",
			"MAIL_PORT":   "465",
			"MAIL_SECURE": "true",
		},
	}, cfg.Mail)
	assert.Equal(t, "https://app.physiome.example", cfg.App.FrontendURL)
	assert.True(t, cfg.App.IsProduction())
}

func TestLoad_SecureOnlyWhenExactlyTrue(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MAIL_SECURE", "yes")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Mail.Secure)
}

func TestLoad_InvalidPortFallsBack(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MAIL_PORT", "smtp")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, "smtp", cfg.Mail.Raw["MAIL_PORT"])
}

func TestLoad_ViperEnvOverride(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_DRIVER", "mongo")
	t.Setenv("SERVER_PORT", "8080")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.EqualError(t, err, "JWT_SECRET is required")
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Port: 5000},
		Database: DatabaseConfig{Driver: "sqlite"},
		JWT:      JWTConfig{Secret: "secret"},
	}
	assert.EqualError(t, cfg.Validate(), `unknown database driver "sqlite"`)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "physiome", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=physiome sslmode=disable", d.DSN())
}
