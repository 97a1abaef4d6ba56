// Package validation normalizes and checks incoming payloads before they reach storage.
// Nothing here does I/O; the current time is always passed in.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Amar2502/portfolio-backend/errs"
	"github.com/Amar2502/portfolio-backend/models"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

const (
	MinTitleLength   = 3
	MinContentLength = 10
	MinExcerptLength = 10
)

var (
	validate = validator.New(validator.WithRequiredStructEnabled())
	richText = newRichTextPolicy()
)

// newRichTextPolicy keeps what the editor produces (headings, lists, links, images, code)
// and drops scripts, event handlers and unknown attributes.
func newRichTextPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("width", "height", "data-align").OnElements("img")
	p.AllowAttrs("target").Matching(bluemonday.SpaceSeparatedTokens).OnElements("a")
	return p
}

// TagList accepts either a JSON array of strings or a single comma separated string.
// Either way it ends up as trimmed, non-empty entries in their original order.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}

	var raw []string
	if len(data) > 0 && data[0] == '"' {
		var joined string
		if err := json.Unmarshal(data, &joined); err != nil {
			return err
		}
		raw = strings.Split(joined, ",")
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("tags must be an array of strings or a comma separated string: %w", err)
	}

	*t = normalizeTags(raw)
	return nil
}

func normalizeTags(raw []string) TagList {
	tags := make(TagList, 0, len(raw))
	for _, tag := range raw {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// PostInput is the body of create and update requests. ID is only read by PUT /posts.
type PostInput struct {
	ID         string  `json:"id,omitempty"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Excerpt    string  `json:"excerpt"`
	Tags       TagList `json:"tags"`
	CoverImage string  `json:"coverImage,omitempty"`
}

type normalized struct {
	title, content, excerpt, coverImage string
	tags                                []string
}

// normalize trims every field and reports every rule the payload breaks, in a fixed order.
func normalize(in PostInput) (normalized, []string) {
	n := normalized{
		title:      strings.TrimSpace(in.Title),
		content:    strings.TrimSpace(richText.Sanitize(in.Content)),
		excerpt:    strings.TrimSpace(in.Excerpt),
		coverImage: strings.TrimSpace(in.CoverImage),
		tags:       normalizeTags(in.Tags),
	}

	var violations []string
	if utf8.RuneCountInString(n.title) < MinTitleLength {
		violations = append(violations, fmt.Sprintf("title must be at least %d characters", MinTitleLength))
	}
	if utf8.RuneCountInString(n.content) < MinContentLength {
		violations = append(violations, fmt.Sprintf("content must be at least %d characters", MinContentLength))
	}
	if utf8.RuneCountInString(n.excerpt) < MinExcerptLength {
		violations = append(violations, fmt.Sprintf("excerpt must be at least %d characters", MinExcerptLength))
	}
	if len(n.tags) == 0 {
		violations = append(violations, "at least one tag is required")
	}
	if n.coverImage != "" && validate.Var(n.coverImage, "url") != nil {
		violations = append(violations, "coverImage must be a valid URL")
	}
	return n, violations
}

// ValidatePost builds a new post: date is now, views start at zero.
func ValidatePost(in PostInput, now time.Time) (*models.Post, error) {
	n, violations := normalize(in)
	if len(violations) > 0 {
		return nil, errs.NewValidationError(violations)
	}

	return &models.Post{
		Title:      n.title,
		Content:    n.content,
		Excerpt:    n.excerpt,
		Tags:       n.tags,
		CoverImage: n.coverImage,
		Date:       now.UTC(),
		Views:      0,
	}, nil
}

// ValidatePostUpdate applies the same rules but only returns the editable fields.
func ValidatePostUpdate(in PostInput, now time.Time) (models.PostUpdate, error) {
	n, violations := normalize(in)
	if len(violations) > 0 {
		return models.PostUpdate{}, errs.NewValidationError(violations)
	}

	return models.PostUpdate{
		Title:       n.title,
		Content:     n.content,
		Excerpt:     n.excerpt,
		Tags:        n.tags,
		CoverImage:  n.coverImage,
		LastUpdated: now.UTC(),
	}, nil
}
