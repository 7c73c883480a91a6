package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderio/tourhub/internal/apperr"
)

func renderError(t *testing.T, production bool, err error) (int, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(production)(err, c)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestErrorHandlerStatusMapping(t *testing.T) {
	tests := []struct {
		kind       apperr.Kind
		wantStatus int
		wantField  string
	}{
		{apperr.Validation, http.StatusBadRequest, "fail"},
		{apperr.Authentication, http.StatusUnauthorized, "fail"},
		{apperr.Authorization, http.StatusForbidden, "fail"},
		{apperr.NotFound, http.StatusNotFound, "fail"},
		{apperr.Delivery, http.StatusBadGateway, "error"},
		{apperr.Internal, http.StatusInternalServerError, "error"},
	}
	for _, tt := range tests {
		status, body := renderError(t, true, apperr.New(tt.kind, "boom"))
		assert.Equal(t, tt.wantStatus, status)
		assert.Equal(t, tt.wantField, body["status"])
	}
}

func TestErrorHandlerOperationalMessageShown(t *testing.T) {
	_, body := renderError(t, true, apperr.New(apperr.Validation, "rating must be between 1 and 5"))
	assert.Equal(t, "rating must be between 1 and 5", body["message"])
}

func TestErrorHandlerInternalDetailSuppressedInProduction(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.5:3306: connection refused")

	status, body := renderError(t, true, apperr.Internalf(cause))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "something went very wrong", body["message"])
	assert.NotContains(t, body, "error")

	_, body = renderError(t, false, apperr.Internalf(cause))
	assert.Contains(t, body["error"], "connection refused")
}

func TestErrorHandlerOperationalCauseHiddenInProduction(t *testing.T) {
	err := apperr.Wrap(apperr.Delivery, "there was an error sending the email, try again later",
		errors.New("amqp: connection refused"))

	_, body := renderError(t, true, err)
	assert.Equal(t, "there was an error sending the email, try again later", body["message"])
	assert.NotContains(t, body, "error")

	_, body = renderError(t, false, err)
	assert.Contains(t, body["error"], "amqp")
}

func TestErrorHandlerUnclassifiedErrorIsInternal(t *testing.T) {
	status, body := renderError(t, true, errors.New("sql: rows closed"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "something went very wrong", body["message"])
}

func TestErrorHandlerEchoErrorsPassThrough(t *testing.T) {
	status, body := renderError(t, true, echo.NewHTTPError(http.StatusNotFound, "Not Found"))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not Found", body["message"])
	assert.Equal(t, "fail", body["status"])
}
