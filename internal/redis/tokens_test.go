package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*TokenStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewTokenStore(client, time.Hour), mr
}

func TestIssueAndRedeem(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	apptID := uuid.New()

	token, err := store.Issue(ctx, apptID)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("token length = %d, want 64 hex chars", len(token))
	}

	got, err := store.Redeem(ctx, token)
	if err != nil {
		t.Fatalf("Redeem returned error: %v", err)
	}
	if got != apptID {
		t.Fatalf("Redeem = %s, want %s", got, apptID)
	}
}

func TestRedeemIsSingleUse(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	token, err := store.Issue(ctx, uuid.New())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := store.Redeem(ctx, token); err != nil {
		t.Fatalf("first Redeem returned error: %v", err)
	}
	if _, err := store.Redeem(ctx, token); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("second Redeem error = %v, want ErrTokenNotFound", err)
	}
}

func TestRedeemExpiredToken(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	token, err := store.Issue(ctx, uuid.New())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	mr.FastForward(2 * time.Hour)

	if _, err := store.Redeem(ctx, token); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("Redeem after expiry error = %v, want ErrTokenNotFound", err)
	}
}

func TestRedeemUnknownToken(t *testing.T) {
	store, _ := newTestStore(t)

	if _, err := store.Redeem(context.Background(), "deadbeef"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("Redeem unknown token error = %v, want ErrTokenNotFound", err)
	}
}
