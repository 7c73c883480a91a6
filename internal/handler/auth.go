package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/wanderio/tourhub/internal/apperr"
	"github.com/wanderio/tourhub/internal/config"
	"github.com/wanderio/tourhub/internal/middleware"
	"github.com/wanderio/tourhub/internal/model"
	"github.com/wanderio/tourhub/internal/queue"
	"github.com/wanderio/tourhub/internal/repository"
	"github.com/wanderio/tourhub/internal/service"
	"github.com/wanderio/tourhub/internal/utils"
)

// AuthHandler owns the account lifecycle: sign-up, login, logout and the
// password flows (forgot/reset/update).
type AuthHandler struct {
	Cfg    config.Config
	Users  repository.UserStore
	Mailer service.Mailer
}

func NewAuthHandler(cfg config.Config, users repository.UserStore, mailer service.Mailer) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Mailer: mailer}
}

type signUpRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// validatePassword applies the shared password constraints: minimum length
// and matching confirmation. Runs before anything is persisted.
func validatePassword(password, confirm string) error {
	if len(password) < 8 {
		return apperr.New(apperr.Validation, "password must be at least 8 characters")
	}
	if password != confirm {
		return apperr.New(apperr.Validation, "passwords do not match")
	}
	return nil
}

// createSendToken issues a session token for the user, sets it as the "jwt"
// cookie and writes the success envelope. The cookie is HttpOnly always and
// Secure in production.
func (h *AuthHandler) createSendToken(c echo.Context, user model.User, status int) error {
	tok, err := utils.NewSessionToken(h.Cfg.JWTSecret, user.ID, h.Cfg.JWTExpiresDays)
	if err != nil {
		return apperr.Internalf(err)
	}

	c.SetCookie(&http.Cookie{
		Name:     "jwt",
		Value:    tok.Token,
		Path:     "/",
		Expires:  time.Now().Add(time.Duration(h.Cfg.CookieExpiresDays) * 24 * time.Hour),
		HttpOnly: true,
		Secure:   h.Cfg.Production(),
	})

	return c.JSON(status, echo.Map{
		"status": "success",
		"token":  tok.Token,
		"data":   echo.Map{"user": toUserDTO(user)},
	})
}

// SignUp registers a new account and logs it straight in.
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" {
		return apperr.New(apperr.Validation, "please tell us your name")
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return apperr.New(apperr.Validation, "please provide a valid email")
	}
	if err := validatePassword(req.Password, req.PasswordConfirm); err != nil {
		return err
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return err
	}

	user := model.User{
		Name:         req.Name,
		Email:        req.Email,
		Photo:        "default.jpg",
		Role:         model.RoleUser,
		PasswordHash: hash,
		Active:       true,
	}
	ctx := c.Request().Context()
	id, err := h.Users.Create(ctx, &user)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return apperr.New(apperr.Validation, "email already in use")
		}
		return apperr.Internalf(err)
	}
	user.ID = id

	// Welcome mail is best-effort; a broker outage must not block sign-up.
	_ = h.Mailer.Send(ctx, queue.EmailRequestedEvent{
		To:       user.Email,
		Name:     user.Name,
		URL:      requestURL(c, "/me"),
		Template: queue.TemplateWelcome,
	})

	return h.createSendToken(c, user, http.StatusCreated)
}

// Login verifies credentials and issues a session token. The failure message
// is uniform so callers cannot probe which emails exist.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return apperr.New(apperr.Validation, "please provide email and password")
	}

	user, err := h.Users.GetByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.Authentication, "incorrect email or password")
		}
		return apperr.Internalf(err)
	}
	if !utils.VerifyPassword(user.PasswordHash, req.Password) {
		return apperr.New(apperr.Authentication, "incorrect email or password")
	}

	return h.createSendToken(c, user, http.StatusOK)
}

// Logout overwrites the jwt cookie with a short-lived dummy value.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     "jwt",
		Value:    "loggedout",
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
	})
	return c.JSON(http.StatusOK, echo.Map{"status": "success"})
}

// ForgotPassword starts a reset: a random token is generated, only its hash
// stored, and the plaintext mailed. If the mail cannot be queued the stored
// token is rolled back so no redeemable token exists that the user never
// received.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid request body")
	}

	ctx := c.Request().Context()
	user, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.NotFound, "there is no user with that email address")
		}
		return apperr.Internalf(err)
	}

	rt, err := utils.NewResetToken()
	if err != nil {
		return apperr.Internalf(err)
	}
	if err := h.Users.SetResetToken(ctx, user.ID, utils.HashResetRaw(rt.Raw), rt.Exp); err != nil {
		return apperr.Internalf(err)
	}

	ev := queue.EmailRequestedEvent{
		To:       user.Email,
		Name:     user.Name,
		URL:      requestURL(c, "/api/v1/users/resetPassword/"+rt.Raw),
		Template: queue.TemplatePasswordReset,
	}
	if err := h.Mailer.Send(ctx, ev); err != nil {
		_ = h.Users.ClearResetToken(ctx, user.ID)
		return apperr.Wrap(apperr.Delivery, "there was an error sending the email, try again later", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"message": "token sent to email",
	})
}

// ResetPassword redeems a reset token. The token is matched by its hash and
// must not be expired; it is single-use and cleared on success.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req struct {
		Password        string `json:"password"`
		PasswordConfirm string `json:"passwordConfirm"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid request body")
	}
	if err := validatePassword(req.Password, req.PasswordConfirm); err != nil {
		return err
	}

	ctx := c.Request().Context()
	now := time.Now().UTC()
	user, err := h.Users.GetByResetHash(ctx, utils.HashResetRaw(c.Param("token")), now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.Authentication, "token is invalid or has expired")
		}
		return apperr.Internalf(err)
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return err
	}
	// changedAt is backdated one second so the token issued below, whose iat
	// shares this second, is not itself rejected as stale. UpdatePassword
	// consumes the reset token in the same statement; single-use must not
	// depend on a second write landing.
	if err := h.Users.UpdatePassword(ctx, user.ID, hash, now.Add(-time.Second)); err != nil {
		return apperr.Internalf(err)
	}

	return h.createSendToken(c, user, http.StatusOK)
}

// UpdatePassword is the authenticated self-service change; the current
// password must verify first.
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	user := middleware.CurrentUser(c)

	var req struct {
		PasswordCurrent string `json:"passwordCurrent"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"passwordConfirm"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid request body")
	}
	if !utils.VerifyPassword(user.PasswordHash, req.PasswordCurrent) {
		return apperr.New(apperr.Authentication, "your current password is wrong")
	}
	if err := validatePassword(req.Password, req.PasswordConfirm); err != nil {
		return err
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if err := h.Users.UpdatePassword(c.Request().Context(), user.ID, hash, now.Add(-time.Second)); err != nil {
		return apperr.Internalf(err)
	}

	return h.createSendToken(c, *user, http.StatusOK)
}

// requestURL rebuilds an absolute URL on the host the client dialed.
func requestURL(c echo.Context, path string) string {
	return fmt.Sprintf("%s://%s%s", c.Scheme(), c.Request().Host, path)
}
