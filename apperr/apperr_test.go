package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsClassifiedErrors(t *testing.T) {
	orig := Validation("Email already registered")

	wrapped := Wrap(orig, "failed to register")
	assert.Same(t, orig, wrapped)
	assert.Equal(t, KindValidation, KindOf(wrapped))
	assert.Equal(t, "Email already registered", Message(wrapped))
}

func TestWrapClassifiesUnknownAsInternal(t *testing.T) {
	cause := errors.New("disk on fire")

	err := Wrap(cause, "failed to save")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal server error", Message(err))
	assert.Nil(t, Wrap(nil, "unused"))
}

func TestKindSurvivesFmtWrapping(t *testing.T) {
	err := fmt.Errorf("confirm: %w", Upstream("External service error", nil))

	assert.True(t, Is(err, KindUpstream))
	assert.Equal(t, http.StatusBadGateway, Status(KindOf(err)))
}

func TestStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:   http.StatusBadRequest,
		KindNotFound:     http.StatusNotFound,
		KindUnauthorized: http.StatusUnauthorized,
		KindUpstream:     http.StatusBadGateway,
		KindInternal:     http.StatusInternalServerError,
	}

	for k, want := range cases {
		assert.Equal(t, want, Status(k), string(k))
	}
}
