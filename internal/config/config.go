package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

const (
	defaultMailHost    = "smtp.gmail.com"
	defaultMailPort    = 587
	defaultFrontendURL = "http://localhost:5173"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	CORS      CORSConfig      `mapstructure:"cors"`

	// Populated from the flat environment variables.
	Mail MailConfig `mapstructure:"-"`
	JWT  JWTConfig  `mapstructure:"-"`
	App  AppConfig  `mapstructure:"-"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type MongoConfig struct {
	URI            string `mapstructure:"uri"`
	Database       string `mapstructure:"database"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds"`
}

type RedisConfig struct {
	// Empty URL disables delivery-report publishing.
	URL      string `mapstructure:"url"`
	PoolSize int    `mapstructure:"poolSize"`
}

type CacheConfig struct {
	UserTTL time.Duration `mapstructure:"userTTL"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allowOrigins"`
}

// MailConfig is the SMTP account used for every outbound email.
type MailConfig struct {
	Host   string
	Port   int
	Secure bool
	User   string
	Pass   string
	From   string

	// Raw holds MAIL_HOST, MAIL_PORT and MAIL_SECURE exactly as set, for
	// the configuration diagnostics endpoint.
	Raw map[string]string
}

type JWTConfig struct {
	Secret string
}

type AppConfig struct {
	Environment string
	FrontendURL string
	LogLevel    string
}

// IsProduction reports whether NODE_ENV is "production".
func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// envVars binds the flat variables shared with the web frontend deployment.
// Port and secure flag are kept as strings: an unparsable port falls back
// to the default and anything but "true" means STARTTLS.
type envVars struct {
	MailHost    string `envconfig:"MAIL_HOST"`
	MailPort    string `envconfig:"MAIL_PORT"`
	MailSecure  string `envconfig:"MAIL_SECURE"`
	MailUser    string `envconfig:"MAIL_USER"`
	MailPass    string `envconfig:"MAIL_PASS"`
	MailFrom    string `envconfig:"MAIL_FROM"`
	FrontendURL string `envconfig:"FRONTEND_URL"`
	JWTSecret   string `envconfig:"JWT_SECRET"`
	Environment string `envconfig:"NODE_ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load assembles the configuration once at startup: .env, then the optional
// YAML file (overridable through SECTION_KEY variables), then the flat
// environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.timeoutSeconds", 30)

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "physiome")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "physiome")
	v.SetDefault("mongo.timeoutSeconds", 10)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.poolSize", 10)

	v.SetDefault("cache.userTTL", time.Minute)

	v.SetDefault("ratelimit.rps", 20)
	v.SetDefault("ratelimit.burst", 40)

	v.SetDefault("cors.allowOrigins", []string{defaultFrontendURL})
}

func (c *Config) loadEnv() error {
	var env envVars
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	host := env.MailHost
	if host == "" {
		host = defaultMailHost
	}
	c.Mail = MailConfig{
		Host:   host,
		Port:   parsePort(env.MailPort),
		Secure: env.MailSecure == "true",
		User:   env.MailUser,
		Pass:   env.MailPass,
		From:   env.MailFrom,
		Raw: map[string]string{
			"MAIL_HOST":   env.MailHost,
			"MAIL_PORT":   env.MailPort,
			"MAIL_SECURE": env.MailSecure,
		},
	}
	c.JWT = JWTConfig{Secret: env.JWTSecret}

	frontend := strings.TrimRight(env.FrontendURL, "/")
	if frontend == "" {
		frontend = defaultFrontendURL
	}
	c.App = AppConfig{
		Environment: env.Environment,
		FrontendURL: frontend,
		LogLevel:    env.LogLevel,
	}
	return nil
}

func parsePort(raw string) int {
	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || port <= 0 {
		return defaultMailPort
	}
	return port
}

// Validate checks the settings without which the server cannot run.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// Timeout returns the server write timeout.
func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}
