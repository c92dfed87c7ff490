package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"taskboard-api/domain"
)

// Claims is the payload of an access token.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 access tokens. It holds no per-token state.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
	now    func() time.Time
}

// NewTokens creates a token service signing with secret. Tokens expire after ttl.
func NewTokens(secret []byte, ttl time.Duration) (*Tokens, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &Tokens{
		secret: secret,
		ttl:    ttl,
		// Claims are checked below against t.now.
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation()),
		now:    time.Now,
	}, nil
}

// TTL is the lifetime of newly issued tokens.
func (t *Tokens) TTL() time.Duration {
	return t.ttl
}

// Issue signs a token for userID.
func (t *Tokens) Issue(userID int64) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("issue token: invalid user id %d", userID)
	}
	now := t.now().UTC()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the user id carried by token. Every failure wraps domain.ErrInvalidToken.
func (t *Tokens) Verify(token string) (int64, error) {
	if token == "" {
		return 0, fmt.Errorf("%w: empty token", domain.ErrInvalidToken)
	}

	var claims Claims
	parsed, err := t.parser.ParseWithClaims(token, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return t.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return 0, fmt.Errorf("%w: signature rejected", domain.ErrInvalidToken)
	}

	now := t.now()
	if !claims.VerifyExpiresAt(now, true) {
		return 0, fmt.Errorf("%w: token expired", domain.ErrInvalidToken)
	}
	if !claims.VerifyNotBefore(now, false) {
		return 0, fmt.Errorf("%w: token not valid yet", domain.ErrInvalidToken)
	}
	if claims.UserID <= 0 {
		return 0, fmt.Errorf("%w: missing user id", domain.ErrInvalidToken)
	}
	return claims.UserID, nil
}
