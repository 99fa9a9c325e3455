package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/catalogify/product-catalog-api/internal/service"
)

// dbTimeout bounds every database round-trip made from a handler.
const dbTimeout = 5 * time.Second

// AuthHandler exposes the authentication endpoints.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(a *service.AuthService) *AuthHandler { return &AuthHandler{Auth: a} }

// ----- DTOs -----

type registerReq struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=6,max=128"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResp struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	ExpiresAt    time.Time       `json:"expiresAt"`
	User         service.Profile `json:"user"`
}

func sessionResp(s service.Session) authResp {
	return authResp{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
		User:         s.User,
	}
}

// Register handles POST /api/v1/auth/register.  A duplicate email yields
// 400; the unique index in the store is the authoritative guard.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	sess, err := h.Auth.Register(ctx, req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "registration failed"})
	}
	return c.JSON(http.StatusOK, sessionResp(sess))
}

// Login handles POST /api/v1/auth/login.  Unknown email and wrong password
// produce the identical 401 response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	sess, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid email or password"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "login failed"})
	}
	return c.JSON(http.StatusOK, sessionResp(sess))
}

// Refresh handles POST /api/v1/auth/refresh.  The body is a bare JSON
// string holding the refresh token.  On success the token is rotated: the
// presented value is unusable afterwards.
func (h *AuthHandler) Refresh(c echo.Context) error {
	token, ok := bindTokenString(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "refresh token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	sess, err := h.Auth.Refresh(ctx, token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid or expired refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "token refresh failed"})
	}
	return c.JSON(http.StatusOK, sessionResp(sess))
}

// Revoke handles POST /api/v1/auth/revoke (requires a valid access token).
// Revoking a token nobody holds is still a 204: the operation is
// idempotent.
func (h *AuthHandler) Revoke(c echo.Context) error {
	token, ok := bindTokenString(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "refresh token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Auth.Revoke(ctx, token); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "revocation failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// bindTokenString decodes a request body consisting of a single JSON string
// ("<token>"), as the refresh and revoke endpoints expect.
func bindTokenString(c echo.Context) (string, bool) {
	var token string
	if err := json.NewDecoder(c.Request().Body).Decode(&token); err != nil {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
