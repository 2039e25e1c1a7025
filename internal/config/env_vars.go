package config

import (
	"os"
	"strings"
)

const (
	appNameVar  = "APP_NAME"
	envVar      = "ENV"
	logLevelVar = "LOG_LEVEL"
	platformVar = "PLATFORM"
	languageVar = "LANGUAGE"
)

// Platform is the device class the client runs on. Push registration and
// haptics are skipped on PlatformWeb.
type Platform string

const (
	PlatformWeb     Platform = "web"
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
	PlatformDesktop Platform = "desktop"
)

// IsNative reports whether the platform has device features such as push and vibration.
func (p Platform) IsNative() bool {
	return p != PlatformWeb
}

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Guard Companion")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv(envVar)
	if env == "" {
		return "DEV"
	}
	return env
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

func (EnvVars) GetPlatform() Platform {
	return Platform(strings.ToLower(GetEnv(platformVar, string(PlatformDesktop))))
}

// GetLanguage returns the system locale used when no language has been persisted yet
func (EnvVars) GetLanguage() string {
	return GetEnv(languageVar, GetEnv("LANG", "en"))
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
