package auth

import (
	"context"
	"errors"
	"time"

	"github.com/kimconnect/internship-service/internal/cache"
)

// RevocationStore remembers logged-out token ids until they would have expired.
// Without Redis, logout only clears the client cookie.
type RevocationStore struct {
	sessions *cache.CacheHelper
	now      func() time.Time
}

func NewRevocationStore(sessions *cache.CacheHelper) *RevocationStore {
	return &RevocationStore{sessions: sessions, now: time.Now}
}

// Revoke marks the token id as revoked until expiresAt.
func (r *RevocationStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if r == nil || !r.sessions.Available() || tokenID == "" {
		return nil
	}
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	return r.sessions.SetString(ctx, cache.RevokedTokenKey(tokenID), "1", ttl)
}

// IsRevoked fails open when the store cannot be reached.
func (r *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if r == nil || !r.sessions.Available() {
		return false, nil
	}
	ok, err := r.sessions.Exists(ctx, cache.RevokedTokenKey(tokenID))
	if err != nil {
		if errors.Is(err, cache.ErrCacheNotAvailable) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}
