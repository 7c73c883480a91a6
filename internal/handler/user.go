package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/wanderio/tourhub/internal/apperr"
	"github.com/wanderio/tourhub/internal/middleware"
	"github.com/wanderio/tourhub/internal/model"
	"github.com/wanderio/tourhub/internal/query"
	"github.com/wanderio/tourhub/internal/repository"
)

// userDTO is the sanitized user shape returned by the API. Credential and
// reset columns never leave the service.
type userDTO struct {
	ID        uint64     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Photo     string     `json:"photo,omitempty"`
	Role      model.Role `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
}

func toUserDTO(u model.User) userDTO {
	return userDTO{ID: u.ID, Name: u.Name, Email: u.Email, Photo: u.Photo,
		Role: u.Role, CreatedAt: u.CreatedAt}
}

// UserHandler owns the profile endpoints and the admin user management.
type UserHandler struct {
	Users *repository.UserRepo
}

func NewUserHandler(users *repository.UserRepo) *UserHandler {
	return &UserHandler{Users: users}
}

// GetMe returns the authenticated user's own profile.
func (h *UserHandler) GetMe(c echo.Context) error {
	user := middleware.CurrentUser(c)
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"user": toUserDTO(*user)},
	})
}

// UpdateMe changes name, email or photo. Password fields are rejected here;
// the dedicated password route applies the extra checks they need.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	user := middleware.CurrentUser(c)

	var req struct {
		Name            string `json:"name"`
		Email           string `json:"email"`
		Photo           string `json:"photo"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"passwordConfirm"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid request body")
	}
	if req.Password != "" || req.PasswordConfirm != "" {
		return apperr.New(apperr.Validation,
			"this route is not for password updates, please use /updateMyPassword")
	}
	// email is optional here but must pass the same shape check as sign-up
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email != "" && !strings.Contains(req.Email, "@") {
		return apperr.New(apperr.Validation, "please provide a valid email")
	}

	updated, err := h.Users.UpdateProfile(c.Request().Context(), user.ID, req.Name, req.Email, req.Photo)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return apperr.New(apperr.Validation, "email already in use")
		}
		return apperr.Internalf(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"user": toUserDTO(updated)},
	})
}

// DeleteMe soft-deletes the account. The row survives for referential
// integrity but stops matching any active-scoped query.
func (h *UserHandler) DeleteMe(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if err := h.Users.Deactivate(c.Request().Context(), user.ID); err != nil {
		return apperr.Internalf(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// List is the admin user listing, driven by the query spec.
func (h *UserHandler) List(c echo.Context) error {
	spec, err := query.Parse(c.QueryParams(), repository.UserResource)
	if err != nil {
		return err
	}

	users, total, err := h.Users.List(c.Request().Context(), spec)
	if err != nil {
		return apperr.Internalf(err)
	}

	out := make([]userDTO, 0, len(users))
	for _, u := range users {
		out = append(out, toUserDTO(u))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"results": len(out),
		"total":   total,
		"page":    spec.Page(),
		"data":    echo.Map{"users": out},
	})
}

// Get fetches one user by id (admin).
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.Users.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.NotFound, "no user found with that id")
		}
		return apperr.Internalf(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"user": toUserDTO(user)},
	})
}

// UpdateRole reassigns a user's role (admin). The role must belong to the
// closed set.
func (h *UserHandler) UpdateRole(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid request body")
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return apperr.New(apperr.Validation, "role must be one of: user, guide, lead-guide, admin")
	}

	ctx := c.Request().Context()
	if err := h.Users.UpdateRole(ctx, id, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.NotFound, "no user found with that id")
		}
		return apperr.Internalf(err)
	}
	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return apperr.Internalf(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"user": toUserDTO(user)},
	})
}

// Delete deactivates a user (admin). Same soft delete as DeleteMe.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Users.Deactivate(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.NotFound, "no user found with that id")
		}
		return apperr.Internalf(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.New(apperr.Validation, "invalid "+name+" parameter")
	}
	return id, nil
}
