package config

import (
	"fmt"
	"os"
	"strings"
)

type Config struct {
	Addr            string
	DatabaseURL     string
	AuthSecret      string
	CaptainPassword string
	InviteCode      string
	MigrationsDir   string
	CORSOrigin      string
	RedisURL        string
	Env             string
}

// Load reads configuration from the environment. The signing secret, captain
// password, invite code and database URL have no defaults: a missing value is
// a startup error.
func Load() (Config, error) {
	cfg := Config{
		Addr:            getenv("API_ADDR", ":8787"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		AuthSecret:      os.Getenv("TACKBOARD_AUTH_SECRET"),
		CaptainPassword: os.Getenv("TACKBOARD_CAPTAIN_PASSWORD"),
		InviteCode:      os.Getenv("TACKBOARD_INVITE_CODE"),
		MigrationsDir:   getenv("TACKBOARD_MIGRATIONS_DIR", "./db/migrations"),
		CORSOrigin:      getenv("TACKBOARD_CORS_ORIGIN", "*"),
		RedisURL:        os.Getenv("REDIS_URL"),
		Env:             getenv("TACKBOARD_ENV", "development"),
	}

	var missing []string
	if cfg.AuthSecret == "" {
		missing = append(missing, "TACKBOARD_AUTH_SECRET")
	}
	if cfg.CaptainPassword == "" {
		missing = append(missing, "TACKBOARD_CAPTAIN_PASSWORD")
	}
	if cfg.InviteCode == "" {
		missing = append(missing, "TACKBOARD_INVITE_CODE")
	}
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

func (c Config) Production() bool {
	return c.Env == "production"
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
