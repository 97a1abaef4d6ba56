package validation

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Amar2502/portfolio-backend/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func validInput() PostInput {
	return PostInput{
		Title:   "Hello World",
		Content: "<p>This is a blog post body.</p>",
		Excerpt: "A short summary here.",
		Tags:    TagList{"test"},
	}
}

func violationsOf(t *testing.T, err error) []string {
	t.Helper()
	var verr *errs.ValidationError
	require.True(t, errors.As(err, &verr), "expected a validation error, got %v", err)
	assert.True(t, errs.IsValidationError(err))
	return verr.Violations
}

func TestValidatePostNormalizes(t *testing.T) {
	in := PostInput{
		Title:      "  Hello World  ",
		Content:    "  <p>This is a blog post body.</p>\n",
		Excerpt:    "\tA short summary here. ",
		Tags:       TagList{" Go ", "", "React", "Go"},
		CoverImage: " https://cdn.example.com/cover.png ",
	}

	post, err := ValidatePost(in, now)
	require.NoError(t, err)

	assert.Equal(t, "Hello World", post.Title)
	assert.Equal(t, "<p>This is a blog post body.</p>", post.Content)
	assert.Equal(t, "A short summary here.", post.Excerpt)
	assert.Equal(t, []string{"Go", "React", "Go"}, []string(post.Tags))
	assert.Equal(t, "https://cdn.example.com/cover.png", post.CoverImage)
	assert.Equal(t, now, post.Date)
	assert.Equal(t, int64(0), post.Views)
	assert.Empty(t, post.ID)
	assert.Nil(t, post.LastUpdated)
}

func TestValidatePostSingleViolation(t *testing.T) {
	tests := map[string]struct {
		mutate func(*PostInput)
		want   string
	}{
		"short title": {
			mutate: func(in *PostInput) { in.Title = "Hi" },
			want:   "title must be at least 3 characters",
		},
		"title of spaces": {
			mutate: func(in *PostInput) { in.Title = "  ab   " },
			want:   "title must be at least 3 characters",
		},
		"short content": {
			mutate: func(in *PostInput) { in.Content = "  tiny  " },
			want:   "content must be at least 10 characters",
		},
		"short excerpt": {
			mutate: func(in *PostInput) { in.Excerpt = "too short" },
			want:   "excerpt must be at least 10 characters",
		},
		"no tags": {
			mutate: func(in *PostInput) { in.Tags = TagList{} },
			want:   "at least one tag is required",
		},
		"only blank tags": {
			mutate: func(in *PostInput) { in.Tags = TagList{" ", ""} },
			want:   "at least one tag is required",
		},
		"bad cover image": {
			mutate: func(in *PostInput) { in.CoverImage = "not a url" },
			want:   "coverImage must be a valid URL",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)

			_, err := ValidatePost(in, now)
			require.Error(t, err)
			assert.Equal(t, []string{tc.want}, violationsOf(t, err))
			assert.Equal(t, tc.want, err.(*errs.ValidationError).Message())
		})
	}
}

func TestValidatePostCombinesViolations(t *testing.T) {
	_, err := ValidatePost(PostInput{Title: "x", Content: "", Excerpt: "short"}, now)
	require.Error(t, err)

	violations := violationsOf(t, err)
	assert.Equal(t, []string{
		"title must be at least 3 characters",
		"content must be at least 10 characters",
		"excerpt must be at least 10 characters",
		"at least one tag is required",
	}, violations)
	assert.Equal(t, strings.Join(violations, "; "), err.(*errs.ValidationError).Message())
}

func TestValidatePostCountsCharactersNotBytes(t *testing.T) {
	in := validInput()
	in.Title = "日本語"

	post, err := ValidatePost(in, now)
	require.NoError(t, err)
	assert.Equal(t, "日本語", post.Title)
}

func TestValidatePostStripsScripts(t *testing.T) {
	in := validInput()
	in.Content = `<p onclick="steal()">Readable paragraph</p><script>alert(1)</script>`

	post, err := ValidatePost(in, now)
	require.NoError(t, err)
	assert.Equal(t, "<p>Readable paragraph</p>", post.Content)

	in.Content = "<script>alert('only a script')</script>"
	_, err = ValidatePost(in, now)
	assert.Equal(t, []string{"content must be at least 10 characters"}, violationsOf(t, err))
}

func TestValidatePostKeepsPlainTextExcerpt(t *testing.T) {
	in := validInput()
	in.Title = `Tom & Jerry's "best"`
	in.Excerpt = ` Tom & Jerry's "best" 5 < 10 moments `

	post, err := ValidatePost(in, now)
	require.NoError(t, err)
	assert.Equal(t, `Tom & Jerry's "best"`, post.Title)
	assert.Equal(t, `Tom & Jerry's "best" 5 < 10 moments`, post.Excerpt)

	update, err := ValidatePostUpdate(in, now)
	require.NoError(t, err)
	assert.Equal(t, `Tom & Jerry's "best" 5 < 10 moments`, update.Excerpt)
}

func TestValidatePostUpdate(t *testing.T) {
	in := validInput()
	in.Tags = TagList{"Go", "Databases"}

	update, err := ValidatePostUpdate(in, now)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", update.Title)
	assert.Equal(t, []string{"Go", "Databases"}, update.Tags)
	assert.Equal(t, now, update.LastUpdated)

	in.Tags = nil
	_, err = ValidatePostUpdate(in, now)
	assert.Equal(t, []string{"at least one tag is required"}, violationsOf(t, err))
}

func TestTagListUnmarshal(t *testing.T) {
	tests := map[string]struct {
		body    string
		want    TagList
		wantErr bool
	}{
		"array":          {body: `{"tags":["Go"," React ",""]}`, want: TagList{"Go", "React"}},
		"comma string":   {body: `{"tags":"Go, React ,, CSS"}`, want: TagList{"Go", "React", "CSS"}},
		"empty string":   {body: `{"tags":""}`, want: TagList{}},
		"null":           {body: `{"tags":null}`, want: nil},
		"missing":        {body: `{}`, want: nil},
		"numbers":        {body: `{"tags":[1,2]}`, wantErr: true},
		"object":         {body: `{"tags":{"a":"b"}}`, wantErr: true},
		"duplicate kept": {body: `{"tags":"Go,Go"}`, want: TagList{"Go", "Go"}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var in PostInput
			err := json.Unmarshal([]byte(tc.body), &in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, in.Tags)
		})
	}
}

func TestValidateContact(t *testing.T) {
	in, err := ValidateContact(ContactInput{
		Name:    "  Ada Lovelace ",
		Email:   " ada@example.com ",
		Message: "I would like to talk about your projects.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", in.Name)
	assert.Equal(t, "ada@example.com", in.Email)

	_, err = ValidateContact(ContactInput{Name: "", Email: "nope", Message: "short"})
	require.Error(t, err)
	assert.Equal(t, []string{
		"name is required",
		"email must be a valid email address",
		"message must be at least 10 characters",
	}, violationsOf(t, err))
}
