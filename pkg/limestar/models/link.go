package models

import (
	"time"
)

// Link represents a bookmarked URL
type Link struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	URL         string `gorm:"uniqueIndex;not null;size:2048" json:"url"`
	Title       string `gorm:"size:500" json:"title"`
	Description string `json:"description"`
	UserNote    string `json:"user_note,omitempty"`

	FaviconURL string `gorm:"size:2048" json:"favicon_url,omitempty"`
	OGImageURL string `gorm:"size:2048" json:"og_image_url,omitempty"`
	Domain     string `gorm:"index;size:255" json:"domain"`

	SubmittedBy string `gorm:"size:100" json:"submitted_by,omitempty"`
	IsProcessed bool   `gorm:"default:false" json:"is_processed"`

	// Relationships
	Tags []Tag `gorm:"many2many:link_tags;" json:"tags,omitempty"`
}
