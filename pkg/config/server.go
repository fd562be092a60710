package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// DefaultLoginURL matches the views package default.
const DefaultLoginURL = "/accounts/login/"

// DefaultDeclarations is the declaration file read when none is configured.
const DefaultDeclarations = "crudgen.yaml"

// Server holds the settings of "crudgen serve".
type Server struct {
	Addr            string        // CRUDGEN_ADDR (default ":8080")
	Prefix          string        // CRUDGEN_PREFIX (default "/")
	Declarations    string        // CRUDGEN_DECLARATIONS (default "crudgen.yaml"; file or directory)
	Templates       string        // CRUDGEN_TEMPLATES (optional host template directory)
	DatabaseURL     string        // CRUDGEN_DATABASE_URL (optional, empty = in-memory store)
	Migrations      string        // CRUDGEN_MIGRATIONS (optional migration directory)
	NATSURL         string        // CRUDGEN_NATS_URL (optional, empty = no events)
	ProfileModel    string        // CRUDGEN_PROFILE_MODEL (model holding requester profiles)
	LoginURL        string        // CRUDGEN_LOGIN_URL (default "/accounts/login/")
	StaticURL       string        // CRUDGEN_STATIC_URL (default "/static/")
	SuccessURL      string        // CRUDGEN_SUCCESS_URL (optional)
	ShutdownTimeout time.Duration // CRUDGEN_SHUTDOWN_TIMEOUT (default 10s)
}

// Load reads the server settings from the environment.
func Load() (*Server, error) {
	c := &Server{
		Addr:         envOrDefault("CRUDGEN_ADDR", ":8080"),
		Prefix:       envOrDefault("CRUDGEN_PREFIX", "/"),
		Declarations: envOrDefault("CRUDGEN_DECLARATIONS", DefaultDeclarations),
		Templates:    os.Getenv("CRUDGEN_TEMPLATES"),
		DatabaseURL:  os.Getenv("CRUDGEN_DATABASE_URL"),
		Migrations:   os.Getenv("CRUDGEN_MIGRATIONS"),
		NATSURL:      os.Getenv("CRUDGEN_NATS_URL"),
		ProfileModel: os.Getenv("CRUDGEN_PROFILE_MODEL"),
		LoginURL:     envOrDefault("CRUDGEN_LOGIN_URL", DefaultLoginURL),
		StaticURL:    envOrDefault("CRUDGEN_STATIC_URL", "/static/"),
		SuccessURL:   os.Getenv("CRUDGEN_SUCCESS_URL"),
	}
	if !strings.HasPrefix(c.Prefix, "/") {
		return nil, fmt.Errorf("CRUDGEN_PREFIX must start with /, got %q", c.Prefix)
	}
	if c.Migrations != "" && c.DatabaseURL == "" {
		return nil, fmt.Errorf("CRUDGEN_MIGRATIONS requires CRUDGEN_DATABASE_URL")
	}

	timeout, err := time.ParseDuration(envOrDefault("CRUDGEN_SHUTDOWN_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("CRUDGEN_SHUTDOWN_TIMEOUT: %w", err)
	}
	c.ShutdownTimeout = timeout
	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
