package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/Amar2502/portfolio-backend/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// multipartOverhead leaves room for boundaries and headers around the file part.
const multipartOverhead = 1 << 20

type uploadHandler struct {
	responder Responder
	logger    zerolog.Logger
	uploader  imageUploader
}

func newUploadHandler(uploader imageUploader) uploadHandler {
	logger := log.With().Str("handlerName", "uploadHandler").Logger()

	return uploadHandler{
		responder: NewResponder(logger),
		logger:    logger,
		uploader:  uploader,
	}
}

// uploadImage stores the multipart "file" field and returns where it can be fetched
// @Summary Upload image
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image (jpeg, png, gif or webp)"
// @Success 201 {object} services.UploadedImage
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 415 {object} ErrorResponse
// @Router /upload [post]
func (h uploadHandler) uploadImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.uploader == nil {
			h.responder.WriteError(w, errs.NewServiceUnavailableError("storage", nil))
			return
		}

		maxBytes := h.uploader.MaxBytes()
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

		file, _, err := r.FormFile("file")
		if err != nil {
			var maxErr *http.MaxBytesError
			switch {
			case errors.As(err, &maxErr):
				h.responder.WriteError(w, errs.NewMaxBodySizeExceededError(maxBytes))
			case errors.Is(err, http.ErrMissingFile):
				h.responder.WriteError(w, errs.NewMissingRequiredFieldError("file"))
			default:
				h.responder.WriteError(w, errs.NewMalformedPayloadError("multipart", err))
			}
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
		if err != nil {
			h.responder.WriteError(w, errs.NewMalformedPayloadError("multipart", err))
			return
		}

		uploaded, err := h.uploader.Upload(r.Context(), data)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.logger.Info().
			Str("key", uploaded.Key).
			Int("size", uploaded.Size).
			Str("admin", ctxGetAdminSubject(r.Context())).
			Msg("image uploaded")
		h.responder.WriteJSONStatus(w, http.StatusCreated, uploaded)
	}
}
