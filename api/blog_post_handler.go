package api

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Amar2502/portfolio-backend/database"
	"github.com/Amar2502/portfolio-backend/errs"
	"github.com/Amar2502/portfolio-backend/validation"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultPageSize  = 10
	maxPostBodyBytes = 2 << 20
)

type blogPostHandler struct {
	responder Responder
	logger    zerolog.Logger
	posts     database.PostStore
	now       func() time.Time
}

func newBlogPostHandler(posts database.PostStore) blogPostHandler {
	logger := log.With().Str("handlerName", "blogPostHandler").Logger()

	return blogPostHandler{
		responder: NewResponder(logger),
		logger:    logger,
		posts:     posts,
		now:       time.Now,
	}
}

// listParams is the parsed query of GET /posts. A zero limit means every matching post.
type listParams struct {
	page      int
	limit     int
	tag       string
	search    string
	ascending bool
}

// parseListParams only fails on an unknown order. A missing limit is the default page size,
// a limit that is present but not a positive number means no limit, and a bad page number
// means page 1. Pages past what an int offset can address are pinned to the last one it can.
func parseListParams(q url.Values) (listParams, error) {
	p := listParams{
		page:   1,
		limit:  defaultPageSize,
		tag:    strings.TrimSpace(q.Get("tag")),
		search: strings.TrimSpace(q.Get("search")),
	}

	switch order := strings.ToLower(strings.TrimSpace(q.Get("order"))); order {
	case "", "desc":
	case "asc":
		p.ascending = true
	default:
		return p, errs.NewBadRequestError("order must be asc or desc")
	}

	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			p.limit = 0
		} else {
			p.limit = limit
		}
	}

	if page, err := strconv.Atoi(strings.TrimSpace(q.Get("page"))); err == nil && page > 0 && p.limit > 0 {
		p.page = page
		if p.page-1 > math.MaxInt/p.limit {
			p.page = math.MaxInt/p.limit + 1
		}
	}
	return p, nil
}

func (p listParams) query() database.ListQuery {
	q := database.ListQuery{
		Tag:       p.tag,
		Search:    p.search,
		Ascending: p.ascending,
		Limit:     p.limit,
	}
	if p.limit > 0 {
		q.Offset = (p.page - 1) * p.limit
	}
	return q
}

func totalPages(total int64, limit int) int {
	switch {
	case total == 0:
		return 0
	case limit <= 0:
		return 1
	default:
		return int((total + int64(limit) - 1) / int64(limit))
	}
}

// listPosts returns one page of posts, newest first
// @Summary List blog posts
// @Tags Blog Posts
// @Produce json
// @Param limit query int false "Page size, default 10; non-positive means no limit"
// @Param page query int false "1-based page number"
// @Param tag query string false "Exact tag match"
// @Param search query string false "Case-insensitive match on title, excerpt and tags"
// @Param order query string false "asc or desc (default)"
// @Success 200 {object} PostListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /posts [get]
func (h blogPostHandler) listPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := parseListParams(r.URL.Query())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		page, err := h.posts.ListPage(r.Context(), params.query())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, PostListResponse{
			Items: page.Items,
			Pagination: Pagination{
				CurrentPage: params.page,
				TotalPages:  totalPages(page.Total, params.limit),
				TotalPosts:  page.Total,
				Limit:       params.limit,
			},
		})
	}
}

// getPost returns a single post. Every successful call adds one view.
// @Summary Get blog post
// @Tags Blog Posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.Post
// @Failure 400 {object} ErrorResponse "Missing or malformed id"
// @Failure 404 {object} ErrorResponse
// @Router /posts/{id} [get]
func (h blogPostHandler) getPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := postID(r, "")
		if id == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("id"))
			return
		}

		post, err := h.posts.GetByIDAndIncrementViews(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, post)
	}
}

// createPost validates and stores a new post
// @Summary Create blog post
// @Tags Blog Posts
// @Accept json
// @Produce json
// @Param post body validation.PostInput true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} ErrorResponse "Validation failed"
// @Router /posts [post]
func (h blogPostHandler) createPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in validation.PostInput
		if err := decodeJSON(w, r, &in, maxPostBodyBytes); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		post, err := validation.ValidatePost(in, h.now())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		id, err := h.posts.Insert(r.Context(), post)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		post.ID = id

		h.logger.Info().
			Str("postID", post.ID).
			Str("admin", ctxGetAdminSubject(r.Context())).
			Msg("post created")
		h.responder.WriteJSONStatus(w, http.StatusCreated, post)
	}
}

// updatePost replaces title, content, excerpt, tags and cover image. The id comes from the
// path when present, otherwise from the body.
// @Summary Update blog post
// @Tags Blog Posts
// @Accept json
// @Produce json
// @Param post body validation.PostInput true "Post, including id when the path has none"
// @Success 200 {object} PostMutationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /posts [put]
func (h blogPostHandler) updatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in validation.PostInput
		if err := decodeJSON(w, r, &in, maxPostBodyBytes); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		id := postID(r, in.ID)
		if id == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("id"))
			return
		}

		update, err := validation.ValidatePostUpdate(in, h.now())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		post, err := h.posts.Update(r.Context(), id, update)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.logger.Info().Str("postID", id).Str("admin", ctxGetAdminSubject(r.Context())).Msg("post updated")
		h.responder.WriteJSON(w, PostMutationResponse{Message: "post updated", ID: id, Post: post})
	}
}

// deletePost removes a post for good
// @Summary Delete blog post
// @Tags Blog Posts
// @Produce json
// @Param id query string true "Post ID"
// @Success 200 {object} PostMutationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /posts [delete]
func (h blogPostHandler) deletePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := postID(r, "")
		if id == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("id"))
			return
		}

		if err := h.posts.Delete(r.Context(), id); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.logger.Info().Str("postID", id).Str("admin", ctxGetAdminSubject(r.Context())).Msg("post deleted")
		h.responder.WriteJSON(w, PostMutationResponse{Message: "post deleted", ID: id})
	}
}

// listTags returns every tag with the number of posts carrying it
// @Summary List tags
// @Tags Blog Posts
// @Produce json
// @Success 200 {array} models.TagCount
// @Router /tags [get]
func (h blogPostHandler) listTags() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := h.posts.ListTags(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, tags)
	}
}

// postID prefers the {id} path segment, then the id query parameter, then fallback.
func postID(r *http.Request, fallback string) string {
	if id := strings.TrimSpace(chi.URLParam(r, "id")); id != "" {
		return id
	}
	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		return id
	}
	return strings.TrimSpace(fallback)
}

// decodeJSON reads at most maxBytes of JSON into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return errs.NewMaxBodySizeExceededError(maxBytes)
		case errors.Is(err, io.EOF):
			return errs.NewMalformedPayloadError("empty", err)
		default:
			return errs.NewInvalidJSONError(err)
		}
	}
	return nil
}
