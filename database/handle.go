package database

import (
	"context"
	"sync"
	"time"

	"github.com/Amar2502/portfolio-backend/errs"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// OpenFunc establishes a connection. It is called with a context that carries the connect timeout.
type OpenFunc[T any] func(ctx context.Context) (T, error)

// Handle holds a lazily opened connection for the lifetime of the process.
// The first call to Get opens it; concurrent callers during that first open share
// the same attempt. A failed attempt is not kept, so the next Get tries again.
type Handle[T any] struct {
	open    OpenFunc[T]
	timeout time.Duration

	group singleflight.Group

	mu       sync.RWMutex
	value    T
	ready    bool
	openedAt time.Time
}

func NewHandle[T any](open OpenFunc[T], connectTimeout time.Duration) *Handle[T] {
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}
	return &Handle[T]{open: open, timeout: connectTimeout}
}

// Get returns the cached connection, opening it on first use.
// When ctx ends before the shared attempt finishes, Get returns early but the attempt keeps going
// for the other callers.
func (h *Handle[T]) Get(ctx context.Context) (T, error) {
	if value, ok := h.cached(); ok {
		return value, nil
	}

	ch := h.group.DoChan("open", func() (any, error) {
		if value, ok := h.cached(); ok {
			return value, nil
		}

		openCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
		defer cancel()

		start := time.Now()
		value, err := h.open(openCtx)
		if err != nil {
			log.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("database connection attempt failed")
			return nil, asConnectionError(err)
		}

		h.mu.Lock()
		h.value = value
		h.ready = true
		h.openedAt = time.Now()
		h.mu.Unlock()

		log.Info().Dur("elapsed", time.Since(start)).Msg("database connection established")
		return value, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, errs.NewConnectionError(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Ready reports whether a connection has been established.
func (h *Handle[T]) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready
}

// OpenedAt is the zero time until the first successful open.
func (h *Handle[T]) OpenedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.openedAt
}

func (h *Handle[T]) cached() (T, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.value, h.ready
}

func asConnectionError(err error) error {
	if errs.IsConnectionError(err) {
		return err
	}
	return errs.NewConnectionError(err)
}
