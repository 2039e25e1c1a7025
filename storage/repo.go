package storage

import "context"

// Keys persisted by the client
const (
	KeyAuthToken = "authToken"
	KeyUser      = "user"
	KeyLanguage  = "cosevi_app_lang"
	KeyTenantID  = "tenantId"
)

// Repo is the durable key-value store that survives restarts of the client.
// Get reports ok=false for a missing key; that is not an error.
type Repo interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
