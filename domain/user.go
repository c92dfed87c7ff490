package domain

import (
	"net/mail"
	"strings"
	"time"
)

// MaxSecretBytes is the longest secret bcrypt will hash.
const MaxSecretBytes = 72

// User is a registered account. The password hash never leaves the credential store.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeEmail trims and lower-cases an address so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Registration is the input of a sign-up.
type Registration struct {
	Name     string
	Email    string
	Password string
}

// Validate checks the shape of a registration.
func (r Registration) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return invalid("name", "field required")
	}
	email := NormalizeEmail(r.Email)
	if email == "" {
		return invalid("email", "field required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email", "value is not a valid email address")
	}
	if r.Password == "" {
		return invalid("password", "field required")
	}
	if len(r.Password) > MaxSecretBytes {
		return invalid("password", "must be at most 72 bytes")
	}
	return nil
}
