package config

import (
	"strings"
	"time"
)

type SessionConfig interface {
	GetAllowedRoles() []string
	GetRefreshDebounce() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

// GetAllowedRoles returns the roles permitted to hold a session in this client
func (Session) GetAllowedRoles() []string {
	var roles []string
	for _, r := range strings.Split(GetEnv("ALLOWED_ROLES", "SECURITY,ADMIN"), ",") {
		if r = strings.ToUpper(strings.TrimSpace(r)); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

func (Session) GetRefreshDebounce() time.Duration {
	return GetDuration("REFRESH_DEBOUNCE", 500*time.Millisecond)
}

// GetDuration parses a Go duration string from the environment, falling back on parse errors
func GetDuration(envVar string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(GetEnv(envVar, ""))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
