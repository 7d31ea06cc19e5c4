package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSentinel = Validation("cannot follow self")

func TestIs_SurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("follow: %w", errSentinel)
	assert.True(t, errors.Is(wrapped, errSentinel))
	assert.False(t, errors.Is(wrapped, Validation("other")))
	assert.Equal(t, KindValidation, KindOf(wrapped))
}

func TestHTTPStatus(t *testing.T) {
	cause := errors.New("connection refused")
	cases := []struct {
		err  error
		want int
	}{
		{errSentinel, http.StatusBadRequest},
		{NotFound("friend request not found"), http.StatusNotFound},
		{Wrap(KindTransaction, "accept friend request aborted", cause), http.StatusConflict},
		{Unavailable("unfollow", cause), http.StatusServiceUnavailable},
		{cause, http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, HTTPStatus(c.err), c.err.Error())
	}
}

func TestUnavailable_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable("follow", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "follow failed: connection refused", err.Error())
	assert.True(t, IsKind(err, KindUnavailable))
	assert.False(t, IsKind(nil, KindUnavailable))
}
