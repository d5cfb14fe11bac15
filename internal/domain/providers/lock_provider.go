package providers

import (
	"context"
	"time"
)

// Locker hands out short-lived advisory locks shared across replicas
type Locker interface {
	// TryLock acquires key for ttl. It returns a release func, or ok=false when the lock is held elsewhere.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}
