package redisclient

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrTokenNotFound covers expired, already-redeemed and never-issued tokens
// alike; callers cannot distinguish them and should not try.
var ErrTokenNotFound = errors.New("confirmation token not found")

// TokenStore issues single-use, expiring confirmation tokens. Tokens live in
// Redis keyed by their value, so there is no process-local state and any
// instance can redeem a token issued by another.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{
		client: client,
		ttl:    ttl,
	}
}

// Issue creates a token bound to an appointment. The token is the only copy;
// it is returned once and never stored elsewhere.
func (s *TokenStore) Issue(ctx context.Context, appointmentID uuid.UUID) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate confirmation token: %w", err)
	}
	token := hex.EncodeToString(buf)

	key := tokenKey(token)
	if err := s.client.Set(ctx, key, appointmentID.String(), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store confirmation token: %w", err)
	}

	return token, nil
}

// Redeem consumes a token and returns the appointment it was bound to.
// GETDEL makes redemption atomic, so a token can be used at most once.
func (s *TokenStore) Redeem(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.client.GetDel(ctx, tokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, ErrTokenNotFound
		}
		return uuid.Nil, fmt.Errorf("redeem confirmation token: %w", err)
	}

	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse appointment id from token payload: %w", err)
	}

	return id, nil
}

func tokenKey(token string) string {
	return "confirm:" + token
}
