package api

import (
	"net"
	"net/http"

	"github.com/Amar2502/portfolio-backend/errs"
	"github.com/Amar2502/portfolio-backend/validation"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const maxContactBodyBytes = 64 << 10

type contactHandler struct {
	responder Responder
	logger    zerolog.Logger
	sender    contactSender
	limiter   rateLimiter
}

func newContactHandler(sender contactSender, limiter rateLimiter) contactHandler {
	logger := log.With().Str("handlerName", "contactHandler").Logger()

	return contactHandler{
		responder: NewResponder(logger),
		logger:    logger,
		sender:    sender,
		limiter:   limiter,
	}
}

// sendMessage mails a contact form submission to the site owner
// @Summary Send contact message
// @Tags Contact
// @Accept json
// @Produce json
// @Param message body validation.ContactInput true "Contact form"
// @Success 200 {object} ContactResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /contact [post]
func (h contactHandler) sendMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.sender == nil {
			h.responder.WriteError(w, errs.NewServiceUnavailableError("email", nil))
			return
		}

		if h.limiter != nil {
			if err := h.limiter.Allow(r.Context(), clientIP(r)); err != nil {
				h.responder.WriteError(w, err)
				return
			}
		}

		var in validation.ContactInput
		if err := decodeJSON(w, r, &in, maxContactBodyBytes); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		in, err := validation.ValidateContact(in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.sender.Submit(r.Context(), in); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, ContactResponse{Success: true})
	}
}

// clientIP relies on middleware.RealIP having already rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
