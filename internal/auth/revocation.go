package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore remembers logged-out token ids until they would have
// expired anyway.
type RevocationStore struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRevocationStore returns nil for a nil client; a nil store revokes nothing.
func NewRevocationStore(rdb *redis.Client) *RevocationStore {
	if rdb == nil {
		return nil
	}
	return &RevocationStore{rdb: rdb, now: time.Now}
}

func revokedKey(tokenID string) string {
	return fmt.Sprintf("token:revoked:%s", tokenID)
}

// Revoke marks the session's token as unusable.
func (s *RevocationStore) Revoke(ctx context.Context, session *Session) error {
	if s == nil {
		return nil
	}
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, revokedKey(session.TokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token id was revoked.
func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if s == nil {
		return false, nil
	}
	err := s.rdb.Get(ctx, revokedKey(tokenID)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("check token revocation: %w", err)
	}
}
