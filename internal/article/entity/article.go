package entity

import (
	"time"

	tagentity "github.com/zhangyu-521/blog-system/internal/tag/entity"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusArchived  Status = "ARCHIVED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

type Article struct {
	ID              string     `db:"id" json:"id"`
	Title           string     `db:"title" json:"title"`
	Slug            string     `db:"slug" json:"slug"`
	Content         string     `db:"content" json:"content"`
	Excerpt         string     `db:"excerpt" json:"excerpt"`
	CoverImage      string     `db:"cover_image" json:"coverImage"`
	Status          Status     `db:"status" json:"status"`
	ViewCount       int64      `db:"view_count" json:"viewCount"`
	LikeCount       int64      `db:"like_count" json:"likeCount"`
	MetaTitle       string     `db:"meta_title" json:"metaTitle"`
	MetaDescription string     `db:"meta_description" json:"metaDescription"`
	MetaKeywords    string     `db:"meta_keywords" json:"metaKeywords"`
	PublishedAt     *time.Time `db:"published_at" json:"publishedAt"`
	AllowComments   bool       `db:"allow_comments" json:"allowComments"`
	IsPinned        bool       `db:"is_pinned" json:"isPinned"`
	IsFeatured      bool       `db:"is_featured" json:"isFeatured"`
	AuthorID        string     `db:"author_id" json:"authorId"`
	CategoryID      *string    `db:"category_id" json:"categoryId"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`

	// Tags is loaded from the article_tags join table, not a column.
	Tags []*tagentity.Tag `db:"-" json:"tags"`
}
