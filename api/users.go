package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"taskboard-api/domain"
)

func createUser(creds CredentialService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req userCreateRequest
		if err := decodeJSON(c, &req); err != nil {
			return err
		}
		u, err := creds.Register(c.Request().Context(), domain.Registration{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, newUserResponse(u))
	}
}

func getUser(creds CredentialService) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		u, err := creds.GetUser(c.Request().Context(), id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, newUserResponse(u))
	}
}

func currentUser(creds CredentialService) echo.HandlerFunc {
	return func(c echo.Context) error {
		u, err := creds.GetUser(c.Request().Context(), callerID(c))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, newUserResponse(u))
	}
}

// login accepts the OAuth2 password form (username, password) or a JSON body.
func login(creds CredentialService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var email, password string
		ctype := c.Request().Header.Get(echo.HeaderContentType)
		if strings.HasPrefix(ctype, echo.MIMEApplicationForm) || strings.HasPrefix(ctype, echo.MIMEMultipartForm) {
			email = c.FormValue("username")
			password = c.FormValue("password")
		} else {
			var req loginRequest
			if err := decodeJSON(c, &req); err != nil {
				return err
			}
			email = req.Email
			if email == "" {
				email = req.Username
			}
			password = req.Password
		}
		if strings.TrimSpace(email) == "" {
			return &domain.ValidationError{Field: "username", Reason: "field required"}
		}
		if password == "" {
			return &domain.ValidationError{Field: "password", Reason: "field required"}
		}

		token, err := creds.Login(c.Request().Context(), email, password)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
	}
}
