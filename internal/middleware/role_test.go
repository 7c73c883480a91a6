package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderio/tourhub/internal/apperr"
	"github.com/wanderio/tourhub/internal/model"
)

func roleRequest(role *model.Role, allowed ...model.Role) error {
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/tours/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set(userContextKey, &model.User{ID: 1, Role: *role})
	}
	return RequireRole(allowed...)(okHandler)(c)
}

func TestRequireRoleAllowsListedRole(t *testing.T) {
	admin := model.RoleAdmin
	require.NoError(t, roleRequest(&admin, model.RoleAdmin, model.RoleLeadGuide))
}

func TestRequireRoleRejectsOtherRole(t *testing.T) {
	user := model.RoleUser
	err := roleRequest(&user, model.RoleAdmin, model.RoleLeadGuide)
	require.Error(t, err)
	assert.Equal(t, apperr.Authorization, apperr.KindOf(err))
}

func TestRequireRoleRejectsAnonymous(t *testing.T) {
	err := roleRequest(nil, model.RoleAdmin)
	require.Error(t, err)
	assert.Equal(t, apperr.Authorization, apperr.KindOf(err))
}
