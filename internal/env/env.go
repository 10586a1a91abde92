package env

import (
	"os"
	"strings"

	"github.com/ekisa-team/tabserve/internal/envvar"
)

// Environment is the deployment environment the process runs in.
type Environment string

const (
	// Development enables colored console logs at debug level.
	Development Environment = "development"

	// Production emits JSON logs at info level.
	Production Environment = "production"

	// Test is used by unit tests.
	Test Environment = "test"
)

// FromEnv reads the environment from TABSERVE_ENV. Unknown or empty values fall back to production.
func FromEnv() Environment {
	return Parse(os.Getenv(envvar.TabserveEnv))
}

// Parse converts a string into an Environment.
func Parse(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dev", "development", "local":
		return Development
	case "test":
		return Test
	default:
		return Production
	}
}

// IsDevelopment reports whether e is the development environment.
func (e Environment) IsDevelopment() bool {
	return e == Development
}
