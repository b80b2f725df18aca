package oracle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachedProvider memoizes successful oracle responses in memory. Repeated
// verification runs over unchanged inputs then produce identical judgments
// without re-billing. Failures are never cached.
type CachedProvider struct {
	inner Provider
	cache *gocache.Cache
}

// NewCached wraps a provider with a response cache.
func NewCached(inner Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		cache: gocache.New(ttl, 10*time.Minute),
	}
}

// Name returns the wrapped provider's name.
func (c *CachedProvider) Name() string {
	return c.inner.Name()
}

// IsAvailable defers to the wrapped provider.
func (c *CachedProvider) IsAvailable(ctx context.Context) bool {
	return c.inner.IsAvailable(ctx)
}

// Judge returns a cached judgment when one exists for the same request.
func (c *CachedProvider) Judge(ctx context.Context, req JudgeRequest) (*Judgment, error) {
	key := requestKey("judge", c.inner.Name(), req.Model, req.Statement, req.ClaimText, req.SourceText)

	if cached, found := c.cache.Get(key); found {
		j := cached.(Judgment)
		return &j, nil
	}

	j, err := c.inner.Judge(ctx, req)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, *j, gocache.DefaultExpiration)
	return j, nil
}

// Extract returns cached candidates when they exist for the same request.
func (c *CachedProvider) Extract(ctx context.Context, req ExtractRequest) ([]ExtractedClaim, error) {
	key := requestKey("extract", c.inner.Name(), req.Model, req.SourceText)

	if cached, found := c.cache.Get(key); found {
		return cached.([]ExtractedClaim), nil
	}

	claims, err := c.inner.Extract(ctx, req)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, claims, gocache.DefaultExpiration)
	return claims, nil
}

// requestKey hashes request parts into a stable cache key.
func requestKey(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "oracle:v1:" + hex.EncodeToString(sum[:])
}
