package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// readiness is the part of database.Database the health check looks at.
type readiness interface {
	Type() string
	Ready() bool
}

type healthHandler struct {
	responder   Responder
	db          readiness
	startupTime time.Time
	now         func() time.Time
}

func newHealthHandler(db readiness, startupTime time.Time) healthHandler {
	return healthHandler{
		responder:   NewResponder(log.With().Str("handlerName", "healthHandler").Logger()),
		db:          db,
		startupTime: startupTime,
		now:         time.Now,
	}
}

// check reports uptime and whether the database has been reached yet. It never dials.
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h healthHandler) check() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connected := h.db.Ready()
		status := "ok"
		if !connected {
			status = "starting"
		}

		h.responder.WriteJSON(w, HealthResponse{
			Status:        status,
			UptimeSeconds: int64(h.now().Sub(h.startupTime).Seconds()),
			Database: DatabaseHealth{
				Type:      h.db.Type(),
				Connected: connected,
			},
		})
	}
}
