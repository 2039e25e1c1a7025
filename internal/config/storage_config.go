package config

type StorageConfig interface {
	GetStorageBackend() string
	GetDataFolder() string
	GetStorageKey() string
	GetRedisAddr() string
	GetRedisPrefix() string
}

type Storage struct{}

var _ StorageConfig = Storage{}

// GetStorageBackend is either "file" or "redis"
func (Storage) GetStorageBackend() string {
	return GetEnv("STORAGE_BACKEND", "file")
}

func (Storage) GetDataFolder() string {
	return GetEnv("FOLDER", "./data")
}

// GetStorageKey is a passphrase used to seal the file store; empty leaves it in plain JSON
func (Storage) GetStorageKey() string {
	return GetEnv("STORAGE_KEY", "")
}

func (Storage) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Storage) GetRedisPrefix() string {
	return GetEnv("REDIS_PREFIX", "guard")
}
