package database

import (
	"context"
	"sort"
	"time"

	"github.com/Amar2502/portfolio-backend/models"
)

const DefaultListTimeout = 10 * time.Second

// ListQuery selects one page of posts. A zero Limit means no limit.
type ListQuery struct {
	Tag       string
	Search    string
	Ascending bool
	Offset    int
	Limit     int
}

// PostPage is one page of posts plus the size of the whole filtered set.
type PostPage struct {
	Items []models.Post
	Total int64
}

// PostStore is the storage contract for the blogs collection.
// Implementations report the errs taxonomy: NotFound, InvalidID, Persistence,
// DatabaseTimeout and Connection errors.
type PostStore interface {
	Insert(ctx context.Context, post *models.Post) (string, error)
	ListPage(ctx context.Context, query ListQuery) (PostPage, error)
	// GetByIDAndIncrementViews bumps views by one and returns the post as stored afterwards.
	GetByIDAndIncrementViews(ctx context.Context, id string) (*models.Post, error)
	Update(ctx context.Context, id string, update models.PostUpdate) (*models.Post, error)
	Delete(ctx context.Context, id string) error
	ListTags(ctx context.Context) ([]models.TagCount, error)
}

// sortTagCounts orders by count desc, then tag asc.
func sortTagCounts(counts []models.TagCount) {
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Tag < counts[j].Tag
	})
}
