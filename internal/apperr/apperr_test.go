package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("bad input")))
	assert.Equal(t, KindAuthorization, KindOf(Authorization("not a participant")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("conversation %s", "c1")))
	assert.Equal(t, KindConflict, KindOf(Conflict("already deleted")))
	assert.Equal(t, KindTransientStorage, KindOf(TransientStorage(errors.New("abort"), "txn failed")))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("send message: %w", NotFound("message m1"))
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("v"), http.StatusBadRequest},
		{Authorization("a"), http.StatusForbidden},
		{NotFound("n"), http.StatusNotFound},
		{Conflict("c"), http.StatusConflict},
		{TransientStorage(errors.New("x"), "t"), http.StatusServiceUnavailable},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err))
	}
}

func TestMessageMasksForeignErrors(t *testing.T) {
	assert.Equal(t, "internal error", Message(errors.New("dial tcp: refused")))
	assert.Equal(t, "txn failed", Message(TransientStorage(errors.New("abort"), "txn failed")))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("abort")
	err := TransientStorage(cause, "txn failed")
	require.ErrorIs(t, err, cause)
}
