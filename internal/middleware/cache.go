package middleware

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type cacheEntry struct {
	info     *TokenInfo
	storedAt time.Time
	ttl      time.Duration
}

func (e cacheEntry) expired(now time.Time) bool {
	if now.Sub(e.storedAt) >= e.ttl {
		return true
	}

	return e.info.Expired(now)
}

// TokenCache keeps recent verification results keyed by a salted hash of the token.
// A disabled cache misses on every lookup and ignores inserts.
type TokenCache struct {
	enabled bool
	salt    []byte
	now     func() time.Time

	items *gocache.Cache
}

// NewTokenCache creates a TokenCache. It is disabled when enabled is false or ttl is not positive.
func NewTokenCache(enabled bool, ttl time.Duration) *TokenCache {
	salt := make([]byte, 32)
	// crypto/rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(salt)

	return &TokenCache{
		enabled: enabled && ttl > 0,
		salt:    salt,
		now:     time.Now,
		// no janitor: expired entries are dropped on lookup
		items: gocache.New(ttl, 0),
	}
}

// Enabled reports whether lookups can ever hit.
func (c *TokenCache) Enabled() bool {
	return c.enabled
}

// Get returns the cached TokenInfo for token. Expired entries are removed and reported as a miss.
func (c *TokenCache) Get(token string) (*TokenInfo, bool) {
	if !c.enabled {
		return nil, false
	}

	key := c.key(token)
	v, ok := c.items.Get(key)
	if !ok {
		return nil, false
	}

	entry := v.(cacheEntry)
	if entry.expired(c.now()) {
		c.items.Delete(key)
		return nil, false
	}

	return entry.info, true
}

// Put stores info for token for at most ttl, and never past the token's own exp.
// Inactive results are never stored.
func (c *TokenCache) Put(token string, info *TokenInfo, ttl time.Duration) {
	if !c.enabled || ttl <= 0 || info == nil || !info.Active {
		return
	}

	now := c.now()
	if info.Exp != 0 {
		if untilExp := time.Unix(info.Exp, 0).Sub(now); untilExp < ttl {
			ttl = untilExp
		}
	}
	if ttl <= 0 {
		return
	}

	c.items.Set(c.key(token), cacheEntry{info: info, storedAt: now, ttl: ttl}, ttl)
}

// Len returns the number of stored entries, expired or not.
func (c *TokenCache) Len() int {
	return c.items.ItemCount()
}

func (c *TokenCache) key(token string) string {
	h := sha256.New()
	h.Write(c.salt)
	h.Write([]byte(token))

	return hex.EncodeToString(h.Sum(nil))
}
