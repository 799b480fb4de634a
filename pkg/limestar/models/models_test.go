package models

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func TestLinkURLUnique(t *testing.T) {
	db := setupTestDB(t)

	if err := db.Create(&Link{URL: "https://example.com", Title: "a", Domain: "example.com"}).Error; err != nil {
		t.Fatalf("Failed to create link: %v", err)
	}
	if err := db.Create(&Link{URL: "https://example.com", Title: "b", Domain: "example.com"}).Error; err == nil {
		t.Error("Expected unique constraint violation on duplicate URL")
	}
}

func TestLinkTagAssociation(t *testing.T) {
	db := setupTestDB(t)

	link := Link{URL: "https://example.com", Title: "t", Domain: "example.com"}
	if err := db.Create(&link).Error; err != nil {
		t.Fatalf("Failed to create link: %v", err)
	}

	cat := Tag{Name: "前端开发", Color: "#007AFF", IsCategory: true}
	db.Create(&cat)
	sub := Tag{Name: "React", Color: cat.Color, ParentID: &cat.ID}
	db.Create(&sub)

	if err := db.Model(&link).Association("Tags").Append(&cat, &sub); err != nil {
		t.Fatalf("Failed to attach tags: %v", err)
	}

	var loaded Link
	if err := db.Preload("Tags").First(&loaded, link.ID).Error; err != nil {
		t.Fatalf("Failed to load link: %v", err)
	}
	if len(loaded.Tags) != 2 {
		t.Errorf("Expected 2 tags, got %d", len(loaded.Tags))
	}

	// Reverse direction through the same join table
	var loadedTag Tag
	if err := db.Preload("Links").First(&loadedTag, cat.ID).Error; err != nil {
		t.Fatalf("Failed to load tag: %v", err)
	}
	if len(loadedTag.Links) != 1 {
		t.Errorf("Expected 1 link on tag, got %d", len(loadedTag.Links))
	}
}

func TestTagHierarchy(t *testing.T) {
	db := setupTestDB(t)

	cat := Tag{Name: "前端开发", Color: "#007AFF", IsCategory: true}
	db.Create(&cat)
	sub := Tag{Name: "React", Color: cat.Color, ParentID: &cat.ID}
	db.Create(&sub)

	var loaded Tag
	if err := db.First(&loaded, sub.ID).Error; err != nil {
		t.Fatalf("Failed to load sub-tag: %v", err)
	}
	if loaded.ParentID == nil || *loaded.ParentID != cat.ID {
		t.Error("Expected sub-tag to reference its category")
	}
	if loaded.IsCategory {
		t.Error("Expected sub-tag not to be a category")
	}
}
