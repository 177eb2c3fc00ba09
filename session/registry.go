package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is returned when no registry entry exists for the user.
	ErrNotFound = errors.New("refresh entry not found")
	// ErrFingerprintMismatch is returned by Rotate and DeleteIfCurrent when a
	// different fingerprint is current.
	ErrFingerprintMismatch = errors.New("refresh fingerprint mismatch")
	// ErrRedisUnavailable wraps every Redis transport failure.
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// DefaultPrefix is the key namespace used when none is configured.
const DefaultPrefix = "refresh_token"

const (
	casStatusNotFound int64 = 0
	casStatusApplied  int64 = 1
	casStatusMismatch int64 = 2
)

const rotateScript = `
local current = redis.call("GET", KEYS[1])
if not current then
  return 0
end
if current ~= ARGV[1] then
  return 2
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`

const deleteIfCurrentScript = `
local current = redis.call("GET", KEYS[1])
if not current then
  return 0
end
if current ~= ARGV[1] then
  return 2
end
redis.call("DEL", KEYS[1])
return 1
`

var (
	rotateLua          = redis.NewScript(rotateScript)
	deleteIfCurrentLua = redis.NewScript(deleteIfCurrentScript)
)

// Registry stores the current refresh-token fingerprint per user.
type Registry struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRegistry creates a [Registry] on the given client. An empty prefix selects
// [DefaultPrefix].
func NewRegistry(client redis.UniversalClient, prefix string) *Registry {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Registry{redis: client, prefix: prefix}
}

// Fingerprint returns the hex SHA-256 of a refresh token.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Key returns the Redis key holding userID's entry.
func (r *Registry) Key(userID string) string {
	return r.prefix + ":" + userID
}

// Put overwrites userID's entry with fingerprint for ttl.
func (r *Registry) Put(ctx context.Context, userID, fingerprint string, ttl time.Duration) error {
	if userID == "" || fingerprint == "" {
		return errors.New("empty user id or fingerprint")
	}
	if ttl <= 0 {
		return errors.New("registry ttl must be positive")
	}
	if err := r.redis.Set(ctx, r.Key(userID), fingerprint, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get returns userID's current fingerprint.
func (r *Registry) Get(ctx context.Context, userID string) (string, error) {
	fp, err := r.redis.Get(ctx, r.Key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return fp, nil
}

// Rotate replaces presented with next in one atomic step and resets the
// expiry to ttl. Two callers presenting the same fingerprint cannot both
// succeed.
func (r *Registry) Rotate(ctx context.Context, userID, presented, next string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("registry ttl must be positive")
	}
	status, err := rotateLua.Run(ctx, r.redis, []string{r.Key(userID)}, presented, next, ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return casResult(status)
}

// DeleteIfCurrent removes userID's entry only while fingerprint is current, so
// logging out with a superseded token leaves the newer session intact.
func (r *Registry) DeleteIfCurrent(ctx context.Context, userID, fingerprint string) error {
	status, err := deleteIfCurrentLua.Run(ctx, r.redis, []string{r.Key(userID)}, fingerprint).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return casResult(status)
}

// Delete removes userID's entry unconditionally. Deleting a missing entry is
// not an error.
func (r *Registry) Delete(ctx context.Context, userID string) error {
	if err := r.redis.Del(ctx, r.Key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// TTL returns the remaining lifetime of userID's entry.
func (r *Registry) TTL(ctx context.Context, userID string) (time.Duration, error) {
	ttl, err := r.redis.PTTL(ctx, r.Key(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if ttl < 0 {
		return 0, ErrNotFound
	}
	return ttl, nil
}

func casResult(status int64) error {
	switch status {
	case casStatusApplied:
		return nil
	case casStatusNotFound:
		return ErrNotFound
	case casStatusMismatch:
		return ErrFingerprintMismatch
	default:
		return fmt.Errorf("unexpected registry status %d", status)
	}
}
