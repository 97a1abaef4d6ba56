package api

import (
	"context"
	"time"

	"github.com/Amar2502/portfolio-backend/models"
	"github.com/Amar2502/portfolio-backend/services"
	"github.com/Amar2502/portfolio-backend/validation"
)

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Error      string   `json:"error" example:"post not found"`
	Status     string   `json:"status" example:"error"`
	Field      string   `json:"field,omitempty" example:"id"`
	Details    string   `json:"details,omitempty" example:"Additional error details"`
	Violations []string `json:"violations,omitempty"`
}

// Pagination describes where a page sits in the filtered set.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalPosts  int64 `json:"totalPosts"`
	Limit       int   `json:"limit"`
}

// PostListResponse is the body of GET /posts.
type PostListResponse struct {
	Items      []models.Post `json:"items"`
	Pagination Pagination    `json:"pagination"`
}

// PostMutationResponse confirms an update or delete.
type PostMutationResponse struct {
	Message string       `json:"message"`
	ID      string       `json:"id"`
	Post    *models.Post `json:"post,omitempty"`
}

type ContactResponse struct {
	Success bool `json:"success"`
}

type AdminSessionRequest struct {
	Key string `json:"key"`
}

type AdminSessionResponse struct {
	Required  bool       `json:"required"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type HealthResponse struct {
	Status        string         `json:"status"`
	UptimeSeconds int64          `json:"uptimeSeconds"`
	Database      DatabaseHealth `json:"database"`
}

type DatabaseHealth struct {
	Type      string `json:"type"`
	Connected bool   `json:"connected"`
}

type contactSender interface {
	Submit(ctx context.Context, in validation.ContactInput) error
}

type rateLimiter interface {
	Allow(ctx context.Context, key string) error
}

type imageUploader interface {
	Upload(ctx context.Context, data []byte) (services.UploadedImage, error)
	MaxBytes() int64
}

// Services are the optional collaborators of the router. A nil field turns its route into a 503.
type Services struct {
	Contact     contactSender
	RateLimiter rateLimiter
	Uploader    imageUploader
	Projects    []models.Project
}
