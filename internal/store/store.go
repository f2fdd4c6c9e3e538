package store

import apperrors "github.com/noah-isme/sma-dash-client/pkg/errors"

// Keys under which the session credentials are persisted.
const (
	KeyAuthToken = "auth_token"
	KeyAuthUser  = "auth_user"
)

// ErrKeyNotFound is returned by Get when the key has never been set.
var ErrKeyNotFound = apperrors.Clone(apperrors.ErrNotFound, "key not found")

// Store is a device-scoped persistent key-value store for session state.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}
