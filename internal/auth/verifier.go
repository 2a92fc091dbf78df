package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the verified identity the auth layer hands to the booking
// engine. The engine trusts it as already authenticated.
type Claims struct {
	UserID uuid.UUID
	Name   string
	Email  string
	Role   string
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Verifier validates HS256 bearer tokens and returns the claims directly;
// there is no callback plumbing.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	tc, ok := parsed.Claims.(*tokenClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(tc.Subject)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	return Claims{
		UserID: userID,
		Name:   tc.Name,
		Email:  tc.Email,
		Role:   tc.Role,
	}, nil
}

// Sign issues a token for the given identity; used by dev tooling and tests.
func (v *Verifier) Sign(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	tc := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name:  claims.Name,
		Email: claims.Email,
		Role:  claims.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(v.secret)
}
