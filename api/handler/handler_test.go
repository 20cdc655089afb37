package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"astrotalk/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{fmt.Errorf("%w: bad", service.ErrInvalidInput), http.StatusBadRequest, "invalid input: bad"},
		{service.ErrConflict, http.StatusConflict, "already exists"},
		{service.ErrNotFound, http.StatusNotFound, "not found"},
		{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{service.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{service.ErrForbidden, http.StatusForbidden, "forbidden"},
		{fmt.Errorf("%w: dial tcp 10.0.0.1", service.ErrStorageFailure), http.StatusInternalServerError, "internal server error"},
		{errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			require.NoError(t, writeServiceError(c, tt.err))
			assert.Equal(t, tt.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"identifier":"raj","password":"x","extra":1}`))
	c := e.NewContext(req, httptest.NewRecorder())

	var target struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	assert.Error(t, decodeJSON(c, &target))
}

func TestTruthy(t *testing.T) {
	for _, v := range []string{"1", "true", "yes", "TRUE"} {
		assert.True(t, truthy(v), v)
	}
	for _, v := range []string{"", "0", "false", "no", " False "} {
		assert.False(t, truthy(v), v)
	}
}

func TestQueryInt(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?limit=10&offset=-1&bad=x", nil), httptest.NewRecorder())

	limit, err := queryInt(c, "limit")
	require.NoError(t, err)
	assert.Equal(t, 10, limit)

	missing, err := queryInt(c, "missing")
	require.NoError(t, err)
	assert.Zero(t, missing)

	_, err = queryInt(c, "offset")
	assert.Error(t, err)
	_, err = queryInt(c, "bad")
	assert.Error(t, err)
}
