package env

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from the given .env files (default ".env") without
// overriding variables already set in the process environment.
func LoadEnv(files ...string) error {
	return godotenv.Load(files...)
}

// GetEnv returns the trimmed value of key, or defaultValue when it is unset or blank.
func GetEnv(key string, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt falls back to defaultValue when key is unset or not an integer.
func GetEnvInt(key string, defaultValue int) int {
	if value := GetEnv(key, ""); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvFloat falls back to defaultValue when key is unset or not a number.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if value := GetEnv(key, ""); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
