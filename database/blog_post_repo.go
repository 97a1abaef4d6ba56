package database

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Amar2502/portfolio-backend/errs"
	"github.com/Amar2502/portfolio-backend/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const postEntity = "post"

// BlogPostRepo stores posts in the blogs table of a SQL database (postgres or sqlite).
type BlogPostRepo struct {
	handle      *Handle[*gorm.DB]
	listTimeout time.Duration
}

func NewBlogPostRepo(handle *Handle[*gorm.DB], listTimeout time.Duration) *BlogPostRepo {
	if listTimeout <= 0 {
		listTimeout = DefaultListTimeout
	}
	return &BlogPostRepo{handle: handle, listTimeout: listTimeout}
}

func (r *BlogPostRepo) conn(ctx context.Context) (*gorm.DB, error) {
	db, err := r.handle.Get(ctx)
	if err != nil {
		return nil, err
	}
	return db.WithContext(ctx), nil
}

// Insert adds a new post and returns its generated id.
func (r *BlogPostRepo) Insert(ctx context.Context, post *models.Post) (string, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return "", err
	}

	post.ID = ""
	if err := db.Create(post).Error; err != nil {
		return "", errs.NewPersistenceError("insert", postEntity, err)
	}
	return post.ID, nil
}

// ListPage returns one page of the filtered set, newest first unless query.Ascending is set.
func (r *BlogPostRepo) ListPage(ctx context.Context, query ListQuery) (PostPage, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return PostPage{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.listTimeout)
	defer cancel()

	filtered := r.applyFilters(db.WithContext(ctx).Model(&models.Post{}), query).Session(&gorm.Session{})

	var page PostPage
	if err := filtered.Count(&page.Total).Error; err != nil {
		return PostPage{}, r.listError(ctx, err)
	}

	find := filtered.Order(clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: "date"}, Desc: !query.Ascending},
		{Column: clause.Column{Name: "id"}, Desc: !query.Ascending},
	}})
	if query.Limit > 0 {
		find = find.Limit(query.Limit)
		if query.Offset > 0 {
			find = find.Offset(query.Offset)
		}
	}

	page.Items = []models.Post{}
	if err := find.Find(&page.Items).Error; err != nil {
		return PostPage{}, r.listError(ctx, err)
	}
	return page, nil
}

func (r *BlogPostRepo) applyFilters(tx *gorm.DB, query ListQuery) *gorm.DB {
	if query.Tag != "" {
		switch tx.Dialector.Name() {
		case "sqlite":
			tx = tx.Where("EXISTS (SELECT 1 FROM json_each(blogs.tags) WHERE json_each.value = ?)", query.Tag)
		default:
			contains, _ := json.Marshal([]string{query.Tag})
			tx = tx.Where("tags @> ?::jsonb", string(contains))
		}
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		tagMatch := `EXISTS (SELECT 1 FROM jsonb_array_elements_text(blogs.tags) AS t(tag) WHERE LOWER(t.tag) LIKE ? ESCAPE '\')`
		if tx.Dialector.Name() == "sqlite" {
			tagMatch = `EXISTS (SELECT 1 FROM json_each(blogs.tags) WHERE LOWER(json_each.value) LIKE ? ESCAPE '\')`
		}
		tx = tx.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(excerpt) LIKE ? ESCAPE '\' OR `+tagMatch+`)`,
			pattern, pattern, pattern)
	}
	return tx
}

// likeEscaper makes LIKE metacharacters in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *BlogPostRepo) listError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errs.NewDatabaseTimeoutError("list posts", r.listTimeout)
	}
	return errs.NewDatabaseError("list", "posts", err)
}

// GetByIDAndIncrementViews runs the increment and the read in one transaction,
// so the returned views value is the one this call produced.
func (r *BlogPostRepo) GetByIDAndIncrementViews(ctx context.Context, id string) (*models.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errs.NewInvalidIDError(postEntity, id)
	}

	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var post models.Post
	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).
			Where("id = ?", id).
			UpdateColumn("views", gorm.Expr("views + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.NewNotFound(postEntity)
		}
		return tx.First(&post, "id = ?", id).Error
	})
	if err != nil {
		return nil, errs.NewDatabaseError("get", postEntity, err)
	}
	return &post, nil
}

// Update replaces the editable fields and stamps last_updated. Date and views are left alone.
func (r *BlogPostRepo) Update(ctx context.Context, id string, update models.PostUpdate) (*models.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errs.NewInvalidIDError(postEntity, id)
	}

	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var post models.Post
	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).Where("id = ?", id).Updates(map[string]any{
			"title":        update.Title,
			"content":      update.Content,
			"excerpt":      update.Excerpt,
			"tags":         datatypes.JSONSlice[string](update.Tags),
			"cover_image":  update.CoverImage,
			"last_updated": update.LastUpdated,
		})
		if res.Error != nil {
			return errs.NewPersistenceError("update", postEntity, res.Error)
		}
		if res.RowsAffected == 0 {
			return errs.NewNotFound(postEntity)
		}
		return tx.First(&post, "id = ?", id).Error
	})
	if err != nil {
		return nil, errs.NewDatabaseError("update", postEntity, err)
	}
	return &post, nil
}

// Delete removes the post permanently.
func (r *BlogPostRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errs.NewInvalidIDError(postEntity, id)
	}

	db, err := r.conn(ctx)
	if err != nil {
		return err
	}

	res := db.Delete(&models.Post{}, "id = ?", id)
	if res.Error != nil {
		return errs.NewPersistenceError("delete", postEntity, res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NewNotFound(postEntity)
	}
	return nil
}

// ListTags counts how many posts carry each tag.
func (r *BlogPostRepo) ListTags(ctx context.Context) ([]models.TagCount, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var rows []datatypes.JSONSlice[string]
	if err := db.Model(&models.Post{}).Pluck("tags", &rows).Error; err != nil {
		return nil, errs.NewDatabaseError("list", "tags", err)
	}

	counts := map[string]int{}
	for _, tags := range rows {
		seen := map[string]bool{}
		for _, tag := range tags {
			if !seen[tag] {
				seen[tag] = true
				counts[tag]++
			}
		}
	}

	result := make([]models.TagCount, 0, len(counts))
	for tag, count := range counts {
		result = append(result, models.TagCount{Tag: tag, Count: count})
	}
	sortTagCounts(result)
	return result, nil
}
