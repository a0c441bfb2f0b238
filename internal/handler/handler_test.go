package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ekharid/internal/model"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", model.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("x: %w", model.ErrOutOfStock), http.StatusBadRequest},
		{fmt.Errorf("x: %w", model.ErrInsufficientStock), http.StatusBadRequest},
		{fmt.Errorf("x: %w", model.ErrInvalidOperation), http.StatusBadRequest},
		{fmt.Errorf("x: %w", model.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", model.ErrConflict), http.StatusConflict},
		{fmt.Errorf("x: %w", model.ErrUnauthorized), http.StatusUnauthorized},
		{fmt.Errorf("x: %w", model.ErrForbidden), http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.err), tt.err.Error())
	}
}

func TestErrorHandlerRendersMessage(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.GET("/domain", func(c echo.Context) error {
		return fail(c, fmt.Errorf("%w: product 9", model.ErrNotFound))
	})
	e.GET("/internal", func(c echo.Context) error {
		return errors.New("db exploded")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/domain", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"not found: product 9"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/internal", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal Server Error"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Not Found"}`, rec.Body.String())
}

func TestProductPatchFromForm(t *testing.T) {
	p, err := productPatch(map[string][]string{
		"title":  {" Lamp "},
		"price":  {"12.5"},
		"hidden": {"true"},
	})
	require.NoError(t, err)
	require.NotNil(t, p.Title)
	assert.Equal(t, "Lamp", *p.Title)
	assert.Equal(t, 12.5, *p.Price)
	assert.True(t, *p.Hidden)
	assert.Nil(t, p.Stock)
	assert.Nil(t, p.Description)

	for _, bad := range []map[string][]string{
		{"stock": {"1.5"}},
		{"price": {"cheap"}},
		{"hidden": {"maybe"}},
	} {
		_, err := productPatch(bad)
		assert.ErrorIs(t, err, model.ErrValidation)
	}
}
