package model

// SecureStore is the local secure key-value storage capability. It holds a
// single cached user id across process restarts.
type SecureStore interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

// SessionPointerKey is the secure-store key holding the last-known user id.
const SessionPointerKey = "userId"
