// Package common holds environment helpers shared by the auxiliary binaries.
package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetEnv returns the trimmed environment variable value or fallback if unset or blank.
func GetEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

// GetEnvInt reads an int from the environment.
func GetEnvInt(key string, fallback int) int {
	return ParseInt(os.Getenv(key), fallback)
}

// GetEnvDuration reads a duration such as "1s" or "5m" from the environment.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	return ParseDuration(os.Getenv(key), fallback)
}

// GetEnvBool reads a boolean accepted by strconv.ParseBool from the environment.
func GetEnvBool(key string, fallback bool) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return parsed
}

// ParseDuration parses a duration string with a fallback.
func ParseDuration(value string, fallback time.Duration) time.Duration {
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

// ParseInt parses an int string with a fallback.
func ParseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}
