package errs

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAlreadyPresent_MatchesWrappedSentinel(t *testing.T) {
	wrapped := fmt.Errorf("insert failed: %w", ErrAlreadyPresent)
	assert.True(t, IsAlreadyPresent(wrapped))
	assert.False(t, IsAlreadyPresent(errors.New("unrelated")))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil))
}

func TestAppError_WriteHTTP(t *testing.T) {
	rec := httptest.NewRecorder()
	Wrap(errors.New("boom")).WriteHTTP(rec)
	assert.Equal(t, 500, rec.Code)
	assert.Contains(t, rec.Body.String(), "Something went wrong: boom")
}

func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	wrapped := Wrap(inner)
	assert.True(t, errors.Is(wrapped, inner))
}
