package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderio/tourhub/internal/apperr"
	"github.com/wanderio/tourhub/internal/model"
)

// Both rejections fire before the store is touched, so a zero-value handler
// is enough.
func TestUpdateMeRejectsPasswordFields(t *testing.T) {
	h := &UserHandler{}
	c, _ := postJSON("/api/v1/users/updateMe", `{"password":"newpass99","passwordConfirm":"newpass99"}`)
	c.Set("user", &model.User{ID: 1})

	err := h.UpdateMe(c)
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "updateMyPassword")
}

func TestUpdateMeRejectsMalformedEmail(t *testing.T) {
	h := &UserHandler{}
	c, _ := postJSON("/api/v1/users/updateMe", `{"email":"not-an-address"}`)
	c.Set("user", &model.User{ID: 1})

	err := h.UpdateMe(c)
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "valid email")
}
