package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BlogPost struct {
	gorm.Model
	AuthorID uint `json:"authorID" gorm:"not null;index"`
	Author   User `json:"author" gorm:"foreignKey:AuthorID;references:ID"`

	Title         string         `json:"title" gorm:"not null"`
	Slug          string         `json:"slug" gorm:"uniqueIndex;not null"`
	Body          string         `json:"body" gorm:"type:text"`
	CoverImageURL string         `json:"coverImageURL"`
	Tags          datatypes.JSON `json:"tags"`
	Published     *bool          `json:"published" gorm:"default:true;index"`

	CategoryID *uint         `json:"categoryID" gorm:"index"`
	Category   *BlogCategory `json:"category,omitempty" gorm:"foreignKey:CategoryID"`

	LikesCount    int64 `json:"likesCount" gorm:"default:0"`
	CommentsCount int64 `json:"commentsCount" gorm:"default:0"`
}

type BlogCategory struct {
	gorm.Model
	Name      string `json:"name" gorm:"not null"`
	Slug      string `json:"slug" gorm:"uniqueIndex;not null"`
	SortOrder int    `json:"sortOrder" gorm:"default:0"`
}

type BlogComment struct {
	gorm.Model
	PostID   uint          `json:"postID" gorm:"index;not null"`
	UserID   uint          `json:"userID" gorm:"index;not null"`
	User     User          `json:"user" gorm:"foreignKey:UserID;references:ID"`
	Content  string        `json:"content" gorm:"type:text;not null"`
	Edited   bool          `json:"edited" gorm:"default:false"`
	ParentID *uint         `json:"parentID" gorm:"index"` // For replies
	Replies  []BlogComment `json:"replies" gorm:"foreignKey:ParentID;references:ID"`
	// For ordering by recency separate from UpdatedAt when edits occur
	PostedAt time.Time `json:"postedAt"`
}

type BlogLike struct {
	gorm.Model
	PostID uint `json:"postID" gorm:"index:idx_blog_like,unique;not null"`
	UserID uint `json:"userID" gorm:"index:idx_blog_like,unique;not null"`
}

func (bc *BlogComment) BeforeCreate(tx *gorm.DB) (err error) {
	if bc.PostedAt.IsZero() {
		bc.PostedAt = time.Now()
	}
	return
}
