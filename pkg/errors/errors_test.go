package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneKeepsIdentityForIs(t *testing.T) {
	cloned := Clone(ErrConflict, "document version is stale")
	require.True(t, errors.Is(cloned, ErrConflict))
	assert.False(t, errors.Is(cloned, ErrInvalidState))
	assert.Equal(t, "document version is stale", cloned.Message)
	assert.Equal(t, "document was modified by another request", ErrConflict.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)

	wrapped := fmt.Errorf("outer: %w", ErrMissingReason)
	assert.Equal(t, ErrMissingReason, FromError(wrapped))
	assert.Nil(t, FromError(nil))
}

func TestTaxonomyStatuses(t *testing.T) {
	cases := map[*Error]int{
		ErrForbidden:        http.StatusForbidden,
		ErrUnscopedReviewer: http.StatusForbidden,
		ErrConflict:         http.StatusConflict,
		ErrDuplicateSlot:    http.StatusConflict,
		ErrInvalidState:     http.StatusUnprocessableEntity,
		ErrMissingReason:    http.StatusUnprocessableEntity,
		ErrMissingTitle:     http.StatusBadRequest,
	}
	for e, status := range cases {
		assert.Equal(t, status, e.Status, e.Code)
	}
}
