package config

import (
	"strings"
	"time"
)

type APIConfig interface {
	GetAPIURL() string
	GetRequestTimeout() time.Duration
}

type API struct{}

var _ APIConfig = API{}

// GetAPIURL returns the REST base URL without a trailing slash (e.g. "https://visits.example.com/api")
func (API) GetAPIURL() string {
	return strings.TrimRight(GetEnv("API_URL", "http://localhost:3000"), "/")
}

func (API) GetRequestTimeout() time.Duration {
	return GetDuration("REQUEST_TIMEOUT", 15*time.Second)
}
