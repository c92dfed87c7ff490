package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"taskboard-api/domain"
)

const callerIDKey = "callerID"

var (
	errMissingAuthorization = errors.New("missing authorization header")
	errBadAuthorization     = errors.New("bad auth header")
)

func bearerTokenFromHeader(header http.Header) (string, error) {
	values := header.Values(echo.HeaderAuthorization)
	if len(values) == 0 {
		return "", errMissingAuthorization
	}
	return bearerTokenFromString(values[0])
}

// bearerTokenFromString accepts "Bearer <jwt>" with a case-insensitive scheme.
func bearerTokenFromString(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errMissingAuthorization
	}
	scheme, token, ok := strings.Cut(raw, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errBadAuthorization
	}
	token = strings.TrimSpace(token)
	if strings.Count(token, ".") != 2 {
		return "", errBadAuthorization
	}
	return token, nil
}

// requireCaller verifies the bearer token and stores the caller id on the context.
// Every failure is reported as domain.ErrInvalidToken.
func requireCaller(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			metrics := metricsFrom(c)

			userID, err := authenticate(auth, c.Request().Header)
			metrics.ObserveAuth(time.Since(start))
			if err != nil {
				metrics.SetErrorStage("auth")
				return err
			}

			metrics.SetCallerID(userID)
			c.Set(callerIDKey, userID)
			return next(c)
		}
	}
}

func authenticate(auth Authenticator, header http.Header) (int64, error) {
	token, err := bearerTokenFromHeader(header)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	return auth.Verify(token)
}

// callerID returns the id stored by requireCaller.
func callerID(c echo.Context) int64 {
	id, _ := c.Get(callerIDKey).(int64)
	return id
}
