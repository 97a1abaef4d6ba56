package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrorUnwrapsToSentinel(t *testing.T) {
	err := fmt.Errorf("create post: %w", NewValidationError([]string{
		"title must be at least 3 characters",
		"at least one tag is required",
	}))

	assert.True(t, errors.Is(err, ErrValidation))
	assert.True(t, IsValidationError(err))
	assert.False(t, IsBadRequest(err))

	var apiErr *ApiErr
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "title must be at least 3 characters; at least one tag is required", apiErr.Message())
	assert.True(t, apiErr.Expected())

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Violations, 2)
}

func TestLabeledErrorsMatchTheirKind(t *testing.T) {
	tests := map[string]struct {
		err     *ApiErr
		is      func(error) bool
		status  int
		message string
	}{
		"bad request": {
			err:     NewBadRequestError("order must be asc or desc"),
			is:      IsBadRequest,
			status:  http.StatusBadRequest,
			message: "order must be asc or desc",
		},
		"unauthorized": {
			err:     NewUnauthorizedError("admin token required"),
			is:      IsUnauthorized,
			status:  http.StatusUnauthorized,
			message: "admin token required",
		},
		"internal": {
			err:     NewInternalErrorWithCause("failed to sign admin token", errors.New("key too short")),
			is:      IsInternal,
			status:  http.StatusInternalServerError,
			message: "failed to sign admin token",
		},
		"not found": {
			err:     NewNotFound("post"),
			is:      IsNotFound,
			status:  http.StatusNotFound,
			message: "post not found",
		},
		"invalid json": {
			err:     NewInvalidJSONError(errors.New("unexpected EOF")),
			is:      IsInvalidJSONError,
			status:  http.StatusBadRequest,
			message: "invalid JSON",
		},
		"persistence": {
			err:     NewPersistenceError("insert", "post", errors.New("disk I/O error")),
			is:      IsPersistenceError,
			status:  http.StatusInternalServerError,
			message: "write not acknowledged",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			wrapped := fmt.Errorf("handler: %w", tc.err)
			assert.True(t, tc.is(wrapped))
			assert.Equal(t, tc.status, tc.err.StatusCode)
			assert.Equal(t, tc.message, tc.err.Message())
			assert.Equal(t, tc.status < http.StatusInternalServerError, tc.err.Expected())
		})
	}

	assert.False(t, IsUnauthorized(NewBadRequestError("nope")))
	assert.False(t, IsInternal(NewNotFound("post")))
}

func TestGetFullErrorFollowsCauses(t *testing.T) {
	inner := NewConnectionError(errors.New("dial tcp 10.0.0.7:5432: connection refused"))
	outer := NewPersistenceError("insert", "post", inner)

	assert.Equal(t, "write not acknowledged: Failed to insert post", outer.Error())
	assert.Equal(t,
		"write not acknowledged: Failed to insert post -> database connection failed: Unable to connect to database -> dial tcp 10.0.0.7:5432: connection refused",
		outer.GetFullError())
	assert.True(t, IsPersistenceError(outer))
	assert.False(t, IsConnectionError(outer))
}

func TestNewDatabaseErrorKeepsApiErr(t *testing.T) {
	timeout := NewDatabaseTimeoutError("list posts", time.Second)
	assert.Same(t, timeout, NewDatabaseError("list", "posts", timeout))

	assert.True(t, IsConnectionError(NewDatabaseError("list", "posts", errors.New("connection reset by peer"))))
	assert.True(t, errors.Is(NewDatabaseError("list", "posts", errors.New("syntax error")), ErrDatabaseQuery))
}

func TestNewRateLimitErrorRoundsUp(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{in: 1200 * time.Millisecond, want: 2 * time.Second},
		{in: 0, want: time.Second},
		{in: -5 * time.Second, want: time.Second},
		{in: time.Millisecond, want: time.Second},
		{in: time.Hour, want: time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			err := NewRateLimitError("contact", tt.in)
			assert.Equal(t, tt.want, err.RetryAfter)
			assert.Equal(t, http.StatusTooManyRequests, err.StatusCode)
			assert.Equal(t, "too many contact requests", err.Message())
			assert.True(t, IsRateLimitError(err))
		})
	}
}

func TestInvalidIDDetailsAreTruncatedOnRunes(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab...", truncate("abc", 2))
	assert.Equal(t, "日本...", truncate("日本語", 2))

	err := NewInvalidIDError("post", "é"+fmt.Sprintf("%070d", 0))
	assert.Equal(t, fmt.Sprintf("%q is not a valid identifier", "é"+fmt.Sprintf("%063d", 0)+"..."), err.Details)
	assert.Equal(t, "id", err.Field)
	assert.True(t, IsInvalidIDError(err))
}
