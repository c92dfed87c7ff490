package api

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"taskboard-api/domain"
)

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, &domain.ValidationError{Field: name, Reason: "value is not a valid integer"}
	}
	return id, nil
}

// listOptions reads limit, skip and search. Missing values take their defaults; range
// checks on negative values are left to domain.ListOptions.
func listOptions(c echo.Context, defaultLimit int) (domain.ListOptions, error) {
	opts := domain.ListOptions{Limit: defaultLimit, Search: c.QueryParam("search")}

	var err error
	if opts.Limit, err = intQuery(c, "limit", defaultLimit); err != nil {
		return domain.ListOptions{}, err
	}
	if opts.Limit > maxListLimit {
		return domain.ListOptions{}, &domain.ValidationError{Field: "limit", Reason: "must be less than or equal to 1000"}
	}
	if opts.Offset, err = intQuery(c, "skip", 0); err != nil {
		return domain.ListOptions{}, err
	}
	if err := opts.Validate(); err != nil {
		return domain.ListOptions{}, err
	}
	return opts, nil
}

func intQuery(c echo.Context, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.ValidationError{Field: name, Reason: "value is not a valid integer"}
	}
	return n, nil
}
