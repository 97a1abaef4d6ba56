package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Post is a single blog entry stored in the "blogs" collection.
type Post struct {
	ID          string                      `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Title       string                      `json:"title" db:"title" gorm:"type:text;not null"`
	Content     string                      `json:"content" db:"content" gorm:"type:text;not null"`
	Excerpt     string                      `json:"excerpt" db:"excerpt" gorm:"type:text;not null"`
	Tags        datatypes.JSONSlice[string] `json:"tags" db:"tags" gorm:"not null"`
	CoverImage  string                      `json:"coverImage,omitempty" db:"cover_image" gorm:"type:text"`
	Date        time.Time                   `json:"date" db:"date" gorm:"not null;index:idx_blogs_date"`
	LastUpdated *time.Time                  `json:"lastUpdated,omitempty" db:"last_updated"`
	Views       int64                       `json:"views" db:"views" gorm:"not null;default:0"`
}

func (Post) TableName() string {
	return "blogs"
}

// BeforeCreate assigns the id exactly once, on insert.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// TagCount is one entry of the tag index.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// PostUpdate is the set of fields an edit replaces. Date and Views are never part of it.
type PostUpdate struct {
	Title       string
	Content     string
	Excerpt     string
	Tags        []string
	CoverImage  string
	LastUpdated time.Time
}
