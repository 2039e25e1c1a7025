package config

import (
	"strings"
	"time"
)

type RealtimeConfig interface {
	GetSocketURL() string
	GetReconnectDelay() time.Duration
	GetMaxReconnectDelay() time.Duration
}

type Realtime struct{}

var _ RealtimeConfig = Realtime{}

// GetSocketURL defaults to the API URL with its "/api" suffix removed, which is
// where the socket.io server is mounted.
func (Realtime) GetSocketURL() string {
	if url := GetEnv("SOCKET_URL", ""); url != "" {
		return strings.TrimRight(url, "/")
	}
	return strings.TrimSuffix(API{}.GetAPIURL(), "/api")
}

func (Realtime) GetReconnectDelay() time.Duration {
	return GetDuration("RECONNECT_DELAY", time.Second)
}

func (Realtime) GetMaxReconnectDelay() time.Duration {
	return GetDuration("MAX_RECONNECT_DELAY", 5*time.Second)
}
