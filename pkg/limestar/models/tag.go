package models

import (
	"time"
)

// DefaultTagColor is the color assigned to tags created outside the palette cycle.
const DefaultTagColor = "#007AFF"

// Tag represents a taxonomy node. Categories are top-level (no parent);
// sub-tags always hang off exactly one category.
type Tag struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name  string `gorm:"index;not null;size:50" json:"name"`
	Color string `gorm:"size:7;default:#007AFF" json:"color"`

	ParentID   *uint `gorm:"index" json:"parent_id,omitempty"`
	IsCategory bool  `gorm:"default:false" json:"is_category"`
	SortOrder  int   `gorm:"default:0" json:"sort_order"`

	// Relationships
	Links []Link `gorm:"many2many:link_tags;" json:"links,omitempty"`
}
