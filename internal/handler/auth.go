// Package handler implements the HTTP endpoints.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/superc/price-alert/internal/auth"
	"github.com/superc/price-alert/internal/config"
	"github.com/superc/price-alert/internal/middleware"
	"github.com/superc/price-alert/internal/repository"
	"github.com/superc/price-alert/internal/service"
)

// forgotPasswordMessage is returned for every forgot-password request,
// whether or not the email exists, so the endpoint cannot be used to
// enumerate accounts.
const forgotPasswordMessage = "If an account with that email exists, a password reset link has been sent."

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Issuer   *auth.Issuer
	Users    *repository.UserRepo
	Refresh  *repository.RefreshTokenRepo
	Reset    *repository.ResetTokenRepo
	Notifier service.Notifier
}

func NewAuthHandler(cfg config.Config, issuer *auth.Issuer, u *repository.UserRepo,
	rt *repository.RefreshTokenRepo, pr *repository.ResetTokenRepo, n service.Notifier) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Issuer: issuer, Users: u, Refresh: rt, Reset: pr, Notifier: n}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}
type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}
type logoutReq struct {
	RefreshToken string `json:"refreshToken"`
}
type forgotPasswordReq struct {
	Email string `json:"email" validate:"required,email"`
}
type resetPasswordReq struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

type authResp struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Message      string `json:"message"`
}

// Register creates a user with the default USER role.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already taken"})
		}
		c.Logger().Errorf("register: create user failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"id":    uid,
		"email": req.Email,
		"roles": []string{"USER"},
	})
}

// Login verifies credentials and returns a fresh access/refresh pair.
// Creating the refresh token deletes any previous one, so a new login ends
// the account's prior session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Same response as a wrong password; an unknown email must not
			// be distinguishable.
			return c.JSON(http.StatusUnauthorized, authResp{Message: "Bad credentials"})
		}
		c.Logger().Errorf("login: query failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	if !auth.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, authResp{Message: "Bad credentials"})
	}

	access, err := h.Issuer.Issue(u.Email, u.Roles)
	if err != nil {
		c.Logger().Errorf("login: issue access failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	refresh, err := auth.NewRefreshToken(h.Cfg.RefreshTTL)
	if err != nil {
		c.Logger().Errorf("login: issue refresh failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	if err := h.Refresh.Create(ctx, u.ID, auth.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		c.Logger().Errorf("login: save refresh failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		AccessToken:  access.Token,
		RefreshToken: refresh.Raw, // raw value goes to the client exactly once
		Message:      "Login successful!",
	})
}

// RefreshTokens exchanges a valid refresh token for a new access/refresh
// pair, rotating the stored token. An expired token has already been deleted
// by the store when the error surfaces, which forces a full re-login.
func (h *AuthHandler) RefreshTokens(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refreshToken required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	row, err := h.Refresh.FindByToken(ctx, auth.HashRefreshRaw(req.RefreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		c.Logger().Errorf("refresh: lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}
	if err := h.Refresh.VerifyNotExpired(ctx, row); err != nil {
		if errors.Is(err, repository.ErrRefreshExpired) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token expired, please sign in again"})
		}
		c.Logger().Errorf("refresh: expiry check failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}

	u, err := h.Users.GetByID(ctx, row.UserID)
	if err != nil {
		c.Logger().Errorf("refresh: load user failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}

	access, err := h.Issuer.Issue(u.Email, u.Roles)
	if err != nil {
		c.Logger().Errorf("refresh: issue access failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}
	next, err := auth.NewRefreshToken(h.Cfg.RefreshTTL)
	if err != nil {
		c.Logger().Errorf("refresh: issue refresh failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}
	// Create replaces the presented token's row, so the old value is dead
	// from here on.
	if err := h.Refresh.Create(ctx, u.ID, auth.HashRefreshRaw(next.Raw), next.Exp); err != nil {
		c.Logger().Errorf("refresh: save refresh failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		AccessToken:  access.Token,
		RefreshToken: next.Raw,
		Message:      "Token refreshed",
	})
}

// Logout deletes the presented refresh token. Deleting an already-gone token
// is a no-op, so repeated logouts succeed.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutReq
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refreshToken required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Refresh.Delete(ctx, auth.HashRefreshRaw(req.RefreshToken)); err != nil {
		c.Logger().Errorf("logout: delete refresh failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out"})
}

// ForgotPassword installs a single-use reset token for the account and queues
// the reset e-mail. The response is identical for known and unknown emails
// and for internal failures.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			c.Logger().Errorf("forgot-password: lookup failed: %v", err)
		}
		return c.JSON(http.StatusOK, echo.Map{"message": forgotPasswordMessage})
	}

	token := uuid.NewString()
	expiresAt := time.Now().UTC().Add(h.Cfg.ResetTokenTTL)
	// Upsert overwrites any previous token for the user, so only the newest
	// link works.
	if err := h.Reset.Upsert(ctx, u.ID, token, expiresAt); err != nil {
		c.Logger().Errorf("forgot-password: save token failed: %v", err)
		return c.JSON(http.StatusOK, echo.Map{"message": forgotPasswordMessage})
	}
	if err := h.Notifier.PasswordReset(ctx, u.Email, token, expiresAt); err != nil {
		c.Logger().Errorf("forgot-password: queue mail failed: %v", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": forgotPasswordMessage})
}

// ResetPassword redeems a reset token and rewrites the password hash. The
// token row is consumed once fetched, whether or not the rewrite succeeds.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token and newPassword required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	row, err := h.Reset.FindByToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired password reset token"})
		}
		c.Logger().Errorf("reset-password: lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}
	if row.Expired() {
		if err := h.Reset.Delete(ctx, row.ID); err != nil {
			c.Logger().Errorf("reset-password: delete expired token failed: %v", err)
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired password reset token"})
	}

	hash, err := auth.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		c.Logger().Errorf("reset-password: hash failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}
	updateErr := h.Users.UpdatePassword(ctx, row.UserID, hash)

	// One-time use: the token is consumed once fetched, success or not.
	if err := h.Reset.Delete(ctx, row.ID); err != nil {
		c.Logger().Errorf("reset-password: consume token failed: %v", err)
	}

	if updateErr != nil {
		c.Logger().Errorf("reset-password: update password failed: %v", updateErr)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}

	// The old credentials are dead; end the account's active session too.
	if err := h.Refresh.DeleteAllForUser(ctx, row.UserID); err != nil {
		c.Logger().Errorf("reset-password: revoke sessions failed: %v", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password has been reset successfully!"})
}

// Me returns the authenticated principal; a simple protected endpoint.
func (h *AuthHandler) Me(c echo.Context) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":    p.UserID,
		"email": p.Email,
		"roles": p.Roles,
	})
}

// reqContext bounds a handler's store calls with the request context plus a
// timeout.
func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}
