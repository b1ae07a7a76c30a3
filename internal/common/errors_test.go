package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapError(t *testing.T) {
	base := errors.New("base failure")
	wrapped := WrapError(base, "loading snapshot")

	assert.EqualError(t, wrapped, "loading snapshot: base failure")
	assert.True(t, errors.Is(wrapped, base))

	assert.NoError(t, WrapError(nil, "ignored"))
}

func TestWrapErrorf(t *testing.T) {
	base := errors.New("base failure")
	wrapped := WrapErrorf(base, "target %s", "t1")

	assert.EqualError(t, wrapped, "target t1: base failure")
	assert.True(t, errors.Is(wrapped, base))

	assert.NoError(t, WrapErrorf(nil, "ignored %d", 1))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("url", "", "target URL cannot be empty")
	assert.Contains(t, err.Error(), "url")
	assert.Contains(t, err.Error(), "target URL cannot be empty")
}

func TestNetworkError_Unwrap(t *testing.T) {
	base := errors.New("connection refused")
	err := NewNetworkError("https://example.com", "fetch failed", base)

	assert.True(t, errors.Is(err, base))
	assert.Contains(t, err.Error(), "https://example.com")
}

func TestHTTPError(t *testing.T) {
	err := NewHTTPErrorWithURL(503, "font download failed", "https://example.com/font.woff2")
	assert.Contains(t, err.Error(), "HTTP 503")
	assert.Contains(t, err.Error(), "https://example.com/font.woff2")
}

func TestCombineErrors(t *testing.T) {
	assert.NoError(t, CombineErrors(nil))
	assert.NoError(t, CombineErrors([]error{}))

	single := errors.New("only one")
	assert.Equal(t, single, CombineErrors([]error{single}))

	combined := CombineErrors([]error{errors.New("first"), errors.New("second")})
	assert.Contains(t, combined.Error(), "first")
	assert.Contains(t, combined.Error(), "second")
}
