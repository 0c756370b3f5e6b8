package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const siteLockKeyPrefix = "provisioning:lock:site:"

// releaseScript deletes the lock only when the stored token is still ours,
// so an expired lock re-acquired by another process is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AcquireSiteLock takes the per-site provisioning lock. Setup and removal
// for the same site must not run concurrently; the orchestrator itself does
// not exclude them, so its HTTP entry points acquire this lock first.
//
// Returns ok=false when another operation holds the lock. The returned
// release func is non-nil only when the lock was acquired.
func AcquireSiteLock(ctx context.Context, siteID int, ttl time.Duration) (release func(), ok bool, err error) {
	key := fmt.Sprintf("%s%d", siteLockKeyPrefix, siteID)
	token := uuid.NewString()

	ok, err = Client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire site lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release = func() {
		_ = releaseScript.Run(context.Background(), Client, []string{key}, token).Err()
	}
	return release, true, nil
}
