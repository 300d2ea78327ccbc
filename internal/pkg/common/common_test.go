package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDecimal(t *testing.T) {
	cases := map[float64]string{
		5:     "5.0",
		0.15:  "0.15",
		120.5: "120.5",
		0:     "0.0",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatDecimal(in), "FormatDecimal(%v)", in)
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.1, Round(6.1-6.0, 2))
	assert.Equal(t, 5.0, Round(30-25, 1))
	assert.Equal(t, -1.3, Round(-1.26, 1))
}

func TestOptionalFloat(t *testing.T) {
	v, ok, err := OptionalFloat(json.Number("6.5"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 6.5, v)

	v, ok, err = OptionalFloat(" 25 ")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 25.0, v)

	_, ok, err = OptionalFloat("")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = OptionalFloat(nil)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = OptionalFloat("warm")
	assert.Error(t, err)

	_, _, err = OptionalFloat(true)
	assert.Error(t, err)
}

func TestDecodeJSONRejectsTrailingData(t *testing.T) {
	var m map[string]interface{}
	require.NoError(t, DecodeJSON(strings.NewReader(`{"ph": 6.2}`), &m))
	assert.Equal(t, json.Number("6.2"), m["ph"])

	err := DecodeJSON(strings.NewReader(`{"a":1}{"b":2}`), &m)
	assert.Error(t, err)
}

func TestCustomErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := ErrClassifierFailure.WithErr(cause)

	assert.ErrorIs(t, err, ErrClassifierFailure)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadGateway, err.Status)

	resp := err.Response(false)
	assert.Empty(t, resp.Details)
	assert.Equal(t, "connection refused", err.Response(true).Details)

	plain := AsCustomError(cause)
	assert.Equal(t, http.StatusInternalServerError, plain.Status)
}

func TestValidationError(t *testing.T) {
	ve := NewValidationError("Email and password are required")
	assert.True(t, IsValidationError(ve))
	assert.True(t, IsValidationError(fmt.Errorf("register: %w", ve)))
	assert.False(t, IsValidationError(errors.New("other")))

	ce := AsCustomError(fmt.Errorf("register: %w", ve))
	assert.Equal(t, http.StatusBadRequest, ce.Status)
	assert.Equal(t, ErrCodeInvalidRequest, ce.Code)
	assert.Equal(t, "Email and password are required", ce.Message)
}
