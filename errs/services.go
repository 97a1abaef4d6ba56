package errs

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Upstream & Throttling Errors
var (
	ErrRateLimitExceeded  = errors.New("too many requests")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// Configuration & Environment Errors
var (
	ErrConfigMissing       = errors.New("configuration missing")
	ErrEnvironmentVariable = errors.New("environment variable error")
)

// NewRateLimitError reports how long the caller's current window has left, rounded up to a second.
func NewRateLimitError(scope string, retryAfter time.Duration) *ApiErr {
	if rem := retryAfter % time.Second; rem != 0 {
		retryAfter += time.Second - rem
	}
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	return &ApiErr{
		StatusCode: http.StatusTooManyRequests,
		err:        label(ErrRateLimitExceeded, "too many "+scope+" requests"),
		Details:    fmt.Sprintf("Try again in %v", retryAfter),
		Field:      "rate_limit",
		RetryAfter: retryAfter,
	}
}

func NewServiceUnavailableError(service string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        label(ErrServiceUnavailable, service+" unavailable"),
		Details:    fmt.Sprintf("The %s service is not configured or unreachable", service),
		Cause:      cause,
	}
}

func NewConfigError(configName string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrConfigMissing,
		Details:    fmt.Sprintf("Configuration error for %s", configName),
		Cause:      cause,
	}
}

func NewEnvironmentVariableError(varName string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrEnvironmentVariable,
		Details:    fmt.Sprintf("Environment variable %s is not set or invalid", varName),
		Field:      varName,
	}
}

func IsRateLimitError(err error) bool {
	return errors.Is(err, ErrRateLimitExceeded)
}

func IsServiceUnavailableError(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfigMissing)
}

func IsEnvironmentVariableError(err error) bool {
	return errors.Is(err, ErrEnvironmentVariable)
}
