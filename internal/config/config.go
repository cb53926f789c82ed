package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App struct {
		ENV string
		URL string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		Driver   string
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	HTTP struct {
		Host string
		Port string
	}

	Auth struct {
		JWTSecret string
		TokenTTL  time.Duration
	}

	Notify struct {
		RabbitMQURL string
		Queue       string
		From        string
	}

	GitHub struct {
		Token string
		Owner string
		Repo  string
	}
}

// DevJWTSecret signs tokens when APP_ENV=development and JWT_SECRET is unset.
// It is public, so no other environment falls back to it.
const DevJWTSecret = "dev-secret-change-me"

// ErrMissingJWTSecret means tokens could not be verified safely.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set outside development")

// Validate reports settings the server cannot run without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.App.ENV != "development" && c.Auth.JWTSecret == DevJWTSecret {
		return ErrMissingJWTSecret
	}
	return nil
}

// LoadDotEnvs loads .env files in priority order. Values already present in
// the environment are never overwritten, so the first file to set a key wins.
func LoadDotEnvs(rootPath string) {
	env := getEnvDefault("APP_ENV", "development")

	_ = godotenv.Load(rootPath + ".env." + env + ".local")
	_ = godotenv.Load(rootPath + ".env.local")
	_ = godotenv.Load(rootPath + ".env." + env)
	_ = godotenv.Load(rootPath + ".env")
}

func New() *Config {
	cfg := &Config{}

	// App
	cfg.App.ENV = getEnvDefault("APP_ENV", "development")
	cfg.App.URL = strings.TrimRight(getEnvDefault("APP_URL", "http://localhost:3000"), "/")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "roomate")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	switch cfg.DB.Driver {
	case "postgres":
		cfg.DB.DSN = os.Getenv("POSTGRES_DSN")
		if cfg.DB.DSN == "" {
			cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
			cfg.DB.Port = getEnvDefault("DB_PORT", "5432")
			cfg.DB.User = getEnvDefault("DB_USER", "postgres")
			cfg.DB.Password = getEnvDefault("DB_PASSWORD", "postgres")
			cfg.DB.Name = getEnvDefault("DB_NAME", "roomate")

			cfg.DB.DSN = fmt.Sprintf(
				"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
				cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name,
			)
		}
	case "sqlite":
		cfg.DB.DSN = getEnvDefault("SQLITE_PATH", "file:roomate.db?_busy_timeout=5000&_txlock=immediate&_foreign_keys=1")
	default:
		cfg.DB.Driver = "mysql"
		cfg.DB.DSN = os.Getenv("MYSQL_DSN")
		if cfg.DB.DSN == "" {
			cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
			cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
			cfg.DB.User = getEnvDefault("DB_USER", "root")
			cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
			cfg.DB.Name = getEnvDefault("DB_NAME", "roomate")

			cfg.DB.DSN = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
				cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
			)
		}
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	if dbStr := getEnvDefault("REDIS_DB", "0"); dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			cfg.Redis.DB = dbInt
		}
	}

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "127.0.0.1")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8080")

	// Auth
	cfg.Auth.JWTSecret = getEnvDefault("JWT_SECRET", "")
	if cfg.Auth.JWTSecret == "" && cfg.App.ENV == "development" {
		cfg.Auth.JWTSecret = DevJWTSecret
	}
	cfg.Auth.TokenTTL = 24 * time.Hour
	if ttl, err := time.ParseDuration(os.Getenv("JWT_TTL")); err == nil && ttl > 0 {
		cfg.Auth.TokenTTL = ttl
	}

	// Notifications
	cfg.Notify.RabbitMQURL = getEnvDefault("RABBITMQ_URL", "")
	cfg.Notify.Queue = getEnvDefault("EMAIL_QUEUE", "email.jobs")
	cfg.Notify.From = getEnvDefault("EMAIL_FROM", "Roomate <onboarding@roomate.dev>")

	// Bug reports
	cfg.GitHub.Token = getEnvDefault("GITHUB_TOKEN", "")
	cfg.GitHub.Owner, cfg.GitHub.Repo = splitRepo(getEnvDefault("GITHUB_REPO", "arieyuval/roomate"))

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

// splitRepo parses "owner/name". Anything else yields empty parts.
func splitRepo(s string) (string, string) {
	owner, repo, ok := strings.Cut(s, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", ""
	}
	return owner, repo
}
