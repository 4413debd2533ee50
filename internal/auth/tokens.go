package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TokenCache keeps verified token hashes in Redis so the hot path does not
// hit Postgres on every request. Postgres stays the source of truth; cache
// entries carry a short TTL so revocation converges quickly.
type TokenCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenCache constructs a TokenCache.
func NewTokenCache(client *redis.Client, ttl time.Duration) *TokenCache {
	return &TokenCache{client: client, ttl: ttl}
}

// Get returns the cached user id for a token hash.
func (c *TokenCache) Get(ctx context.Context, tokenHash string) (int64, bool) {
	if c == nil || c.client == nil {
		return 0, false
	}
	value, err := c.client.Get(ctx, c.key(tokenHash)).Result()
	if err != nil {
		return 0, false
	}
	userID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false
	}
	return userID, true
}

// Set caches a verified token hash. The TTL never exceeds the remaining
// token lifetime.
func (c *TokenCache) Set(ctx context.Context, tokenHash string, userID int64, expiresAt time.Time) {
	if c == nil || c.client == nil {
		return
	}
	ttl := c.ttl
	if remaining := time.Until(expiresAt); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return
	}
	_ = c.client.Set(ctx, c.key(tokenHash), strconv.FormatInt(userID, 10), ttl).Err()
}

// Delete drops a cache entry, used on logout.
func (c *TokenCache) Delete(ctx context.Context, tokenHash string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, c.key(tokenHash)).Err()
}

func (c *TokenCache) key(tokenHash string) string {
	return "token:" + tokenHash
}

// generateToken produces a raw opaque bearer token.
func generateToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// hashToken derives the stored form of a raw token or reset code.
func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
