package config

type Config interface {
	EnvConfig
	APIConfig
	SessionConfig
	RealtimeConfig
	StorageConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetPlatform() Platform
	GetLanguage() string
}

type mainConfig struct {
	EnvVars
	API
	Session
	Realtime
	Storage
}

func New() Config {
	return mainConfig{}
}
