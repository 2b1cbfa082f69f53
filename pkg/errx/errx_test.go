package errx

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryNew(t *testing.T) {
	reg := NewRegistry("THING")
	code := reg.Register("NOT_FOUND", TypeNotFound, http.StatusNotFound, "thing not found")

	assert.Equal(t, "THING_NOT_FOUND", code)

	err := reg.New(code).WithDetail("id", "42")
	assert.Equal(t, TypeNotFound, err.Type)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus)
	assert.Equal(t, "42", err.Details["id"])
}

func TestUnregisteredCodeIsInternal(t *testing.T) {
	reg := NewRegistry("THING")
	err := reg.New("THING_MISSING")
	assert.Equal(t, TypeInternal, err.Type)
}

func TestWrapKeepsClassification(t *testing.T) {
	reg := NewRegistry("THING")
	code := reg.Register("LOCKED", TypeBusiness, http.StatusLocked, "locked")

	wrapped := Wrap(reg.New(code), "failed to save", TypeInternal)
	require.NotNil(t, wrapped)
	assert.Equal(t, TypeBusiness, wrapped.Type)
	assert.Equal(t, http.StatusLocked, wrapped.HTTPStatus)
	assert.True(t, errors.Is(wrapped, reg.New(code)))
	assert.True(t, IsType(wrapped, TypeBusiness))
}

func TestWrapPlainError(t *testing.T) {
	base := errors.New("boom")
	wrapped := Wrap(base, "failed", TypeExternal)

	assert.Equal(t, http.StatusBadGateway, HTTPStatus(wrapped))
	assert.ErrorIs(t, wrapped, base)
	assert.Nil(t, Wrap(nil, "nothing", TypeInternal))
}

func TestHTTPStatusUnknown(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("x")))
}
