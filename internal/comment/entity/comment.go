package entity

import "time"

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

type Comment struct {
	ID        string    `db:"id" json:"id"`
	Content   string    `db:"content" json:"content"`
	Status    Status    `db:"status" json:"status"`
	ArticleID string    `db:"article_id" json:"articleId"`
	AuthorID  string    `db:"author_id" json:"authorId"`
	ParentID  *string   `db:"parent_id" json:"parentId"`
	IPAddress string    `db:"ip_address" json:"-"`
	UserAgent string    `db:"user_agent" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// Replies is filled for top-level comments on the article read path.
	Replies []*Comment `db:"-" json:"replies,omitempty"`
}
