package env

import "strings"

// Environment is the deployment environment the process runs in.
type Environment int

const (
	Unknown Environment = iota
	Testing
	Development
	Production
)

func (e Environment) String() string {
	switch e {
	case Testing:
		return "testing"
	case Development:
		return "development"
	case Production:
		return "production"
	default:
		return "unknown"
	}
}

// Strict reports whether the environment gets production-grade validation.
// Unknown environments are treated like production.
func (e Environment) Strict() bool {
	switch e {
	case Testing, Development:
		return false
	default:
		return true
	}
}

// ParseEnvironment maps an APP_ENV value to an Environment.
func ParseEnvironment(tag string) Environment {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "test", "testing":
		return Testing
	case "dev", "development", "local":
		return Development
	case "prod", "production":
		return Production
	default:
		return Unknown
	}
}

// Detect reads APP_ENV. An unset APP_ENV means production.
func Detect() Environment {
	return ParseEnvironment(GetEnv("APP_ENV", "prod"))
}
