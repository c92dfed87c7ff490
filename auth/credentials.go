package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"taskboard-api/domain"
	"taskboard-api/storage"
)

var tracer = otel.Tracer("taskboard-api/auth")

// dummySecret is hashed once and compared against when the email is unknown, so both
// login failures cost one hash comparison.
const dummySecret = "taskboard-login-timing-equalizer"

// Credentials registers users and exchanges credentials for access tokens.
type Credentials struct {
	users  storage.UserStore
	hasher Hasher
	tokens *Tokens
	logger *log.Logger
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewCredentials wires the credential store. A nil logger uses the standard logger.
func NewCredentials(users storage.UserStore, hasher Hasher, tokens *Tokens, logger *log.Logger) *Credentials {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Credentials{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
}

// Register creates a user storing only the hash of the secret.
func (c *Credentials) Register(ctx context.Context, reg domain.Registration) (domain.User, error) {
	ctx, span := tracer.Start(ctx, "auth.Register")
	defer span.End()

	if err := reg.Validate(); err != nil {
		return domain.User{}, err
	}
	hash, err := c.hasher.Hash(reg.Password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "hash")
		return domain.User{}, err
	}

	u, err := c.users.CreateUser(ctx, domain.User{
		Name:      reg.Name,
		Email:     domain.NormalizeEmail(reg.Email),
		CreatedAt: c.now(),
	}, hash)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return domain.User{}, domain.ErrDuplicateEmail
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "create user")
		return domain.User{}, fmt.Errorf("register user: %w", err)
	}
	span.SetAttributes(attribute.Int64("user.id", u.ID))
	return u, nil
}

// FindByEmail looks a user up by normalised email.
func (c *Credentials) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	u, _, err := c.findWithHash(ctx, email)
	return u, err
}

func (c *Credentials) findWithHash(ctx context.Context, email string) (domain.User, string, error) {
	u, hash, err := c.users.UserByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.User{}, "", domain.ErrNotFound
		}
		return domain.User{}, "", fmt.Errorf("find user by email: %w", err)
	}
	return u, hash, nil
}

// Verify reports whether plaintext matches storedHash.
func (c *Credentials) Verify(plaintext, storedHash string) bool {
	if len(plaintext) > domain.MaxSecretBytes {
		return false
	}
	return c.hasher.Compare(storedHash, plaintext)
}

// Login returns an access token. Unknown email and wrong secret both fail with
// domain.ErrInvalidCredentials.
func (c *Credentials) Login(ctx context.Context, email, secret string) (string, error) {
	ctx, span := tracer.Start(ctx, "auth.Login")
	defer span.End()

	u, hash, err := c.findWithHash(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.Verify(secret, c.dummy())
		c.logger.WithField("reason", "unknown email").Debug("login rejected")
		return "", domain.ErrInvalidCredentials
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup")
		return "", err
	}

	if !c.Verify(secret, hash) {
		c.logger.WithFields(log.Fields{"user_id": u.ID, "reason": "wrong secret"}).Debug("login rejected")
		return "", domain.ErrInvalidCredentials
	}

	token, err := c.tokens.Issue(u.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "issue")
		return "", err
	}
	span.SetAttributes(attribute.Int64("user.id", u.ID))
	return token, nil
}

// GetUser returns the user with id.
func (c *Credentials) GetUser(ctx context.Context, id int64) (domain.User, error) {
	u, err := c.users.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (c *Credentials) dummy() string {
	c.dummyOnce.Do(func() {
		hash, err := c.hasher.Hash(dummySecret)
		if err != nil {
			c.logger.WithError(err).Warn("could not prepare login timing hash")
			return
		}
		c.dummyHash = hash
	})
	return c.dummyHash
}
