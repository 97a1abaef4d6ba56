package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/Amar2502/portfolio-backend/errs"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const adminSubject = "admin"

// adminGate keeps casual visitors out of the editor's write routes. It is a shared key
// swapped for a short-lived token, not user authentication. With no key configured the
// gate is open.
type adminGate struct {
	responder Responder
	logger    zerolog.Logger
	key       []byte
	secret    []byte
	ttl       time.Duration
	now       func() time.Time
}

func newAdminGate(key, secret string, ttl time.Duration) adminGate {
	logger := log.With().Str("handlerName", "adminGate").Logger()

	if secret == "" {
		secret = key
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return adminGate{
		responder: NewResponder(logger),
		logger:    logger,
		key:       []byte(key),
		secret:    []byte(secret),
		ttl:       ttl,
		now:       time.Now,
	}
}

func (g adminGate) enabled() bool {
	return len(g.key) > 0
}

// createSession trades the admin key for a bearer token
// @Summary Open admin session
// @Tags Admin
// @Accept json
// @Produce json
// @Param session body AdminSessionRequest true "Admin key"
// @Success 200 {object} AdminSessionResponse
// @Failure 401 {object} ErrorResponse
// @Router /admin/session [post]
func (g adminGate) createSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !g.enabled() {
			g.responder.WriteJSON(w, AdminSessionResponse{Required: false})
			return
		}

		var req AdminSessionRequest
		if err := decodeJSON(w, r, &req, 4<<10); err != nil {
			g.responder.WriteError(w, err)
			return
		}

		if subtle.ConstantTimeCompare([]byte(req.Key), g.key) != 1 {
			g.logger.Warn().Str("remote", clientIP(r)).Msg("admin session rejected")
			g.responder.WriteError(w, errs.NewUnauthorizedError("invalid admin key"))
			return
		}

		now := g.now()
		expiresAt := now.Add(g.ttl)
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   adminSubject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		}).SignedString(g.secret)
		if err != nil {
			g.responder.WriteError(w, errs.NewInternalErrorWithCause("failed to sign admin token", err))
			return
		}

		g.responder.WriteJSON(w, AdminSessionResponse{Required: true, Token: token, ExpiresAt: &expiresAt})
	}
}

// require rejects requests without a valid admin token when the gate is enabled.
func (g adminGate) require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.enabled() {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			g.responder.WriteError(w, errs.NewUnauthorizedError("admin token required"))
			return
		}

		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(strings.TrimPrefix(authHeader, "Bearer "), claims,
			func(token *jwt.Token) (any, error) { return g.secret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithSubject(adminSubject),
			jwt.WithTimeFunc(g.now),
		)
		if err != nil {
			g.logger.Debug().Err(err).Msg("admin token rejected")
			g.responder.WriteError(w, errs.NewUnauthorizedError("invalid or expired admin token"))
			return
		}

		next.ServeHTTP(w, r.WithContext(ctxWithAdminSubject(r.Context(), claims.Subject)))
	})
}
