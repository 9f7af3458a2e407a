package env

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Env holds the values read from the .env file. OS variables are the fallback.
var Env map[string]string

func GetEnv(key, def string) string {
	if val, ok := Env[key]; ok {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// GetBool reads a boolean flag. Anything other than a recognised truthy value is false.
func GetBool(key string, def bool) bool {
	raw := strings.ToLower(strings.TrimSpace(GetEnv(key, "")))
	if raw == "" {
		return def
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// SetupEnvFile loads ENV_FILE when set, otherwise the first .env found from
// the working directory up to the project root.
func SetupEnvFile() {
	candidates := []string{".env", "../../.env", "../../../.env"}
	if explicit := strings.TrimSpace(os.Getenv("ENV_FILE")); explicit != "" {
		candidates = []string{explicit}
	}

	for _, path := range candidates {
		loaded, err := godotenv.Read(path)
		if err == nil {
			Env = loaded
			return
		}
	}

	Env = map[string]string{}
}

func IsDev() bool {
	return Detect() == Development
}
