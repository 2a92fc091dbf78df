package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestVerifyRoundTrip(t *testing.T) {
	v := NewVerifier("test-secret")
	want := Claims{
		UserID: uuid.New(),
		Name:   "Carla Reyes",
		Email:  "carla@example.com",
		Role:   "patient",
	}

	token, err := v.Sign(want, time.Hour)
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	got, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if got != want {
		t.Fatalf("claims = %+v, want %+v", got, want)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	v := NewVerifier("test-secret")

	token, err := v.Sign(Claims{UserID: uuid.New(), Role: "patient"}, -time.Minute)
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	if _, err := v.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	token, err := NewVerifier("secret-a").Sign(Claims{UserID: uuid.New()}, time.Hour)
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	if _, err := NewVerifier("secret-b").Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	if _, err := NewVerifier("s").Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("error = %v, want ErrInvalidToken", err)
	}
}
