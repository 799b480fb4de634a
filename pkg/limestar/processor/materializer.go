package processor

import (
	"errors"
	"strings"

	"github.com/limestar/limestar/pkg/limestar/models"
	"gorm.io/gorm"
)

// categoryPalette cycles deterministically as new categories are created,
// indexed by the current category count. #007AFF first to match the legacy
// default color.
var categoryPalette = []string{
	"#007AFF", // blue
	"#34C759", // green
	"#FF9500", // orange
	"#FF3B30", // red
	"#AF52DE", // purple
	"#5AC8FA", // teal
	"#FFCC00", // yellow
	"#FF2D55", // pink
	"#5856D6", // indigo
	"#00C7BE", // mint
}

// materializeTags maps a reconciliation decision onto concrete taxonomy
// nodes: exactly one category plus its sub-tags, creating nodes only when no
// equivalent exists. Safe to call repeatedly for the same link.
func (p *Processor) materializeTags(link *models.Link, category string, tags []string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		category = "未分类"
	}

	cat, err := p.findOrCreateCategory(category)
	if err != nil {
		return err
	}

	final := []models.Tag{*cat}
	seen := map[string]bool{strings.ToLower(cat.Name): true}
	for _, name := range tags {
		name = strings.TrimSpace(name)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true

		sub, err := p.findOrCreateSubTag(name, cat)
		if err != nil {
			return err
		}
		final = append(final, *sub)
	}

	if err := p.db.Model(link).Association("Tags").Replace(&final); err != nil {
		return err
	}
	link.Tags = final
	return nil
}

// findOrCreateCategory looks up a category by name, creating it with the
// next palette color when missing
func (p *Processor) findOrCreateCategory(name string) (*models.Tag, error) {
	var tag models.Tag
	err := p.db.Where("name = ? AND is_category = ?", name, true).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var count int64
	if err := p.db.Model(&models.Tag{}).Where("is_category = ?", true).Count(&count).Error; err != nil {
		return nil, err
	}

	tag = models.Tag{
		Name:       name,
		Color:      categoryPalette[int(count)%len(categoryPalette)],
		IsCategory: true,
	}
	if err := p.db.Create(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// findOrCreateSubTag looks up a sub-tag scoped under its parent category,
// creating it with the category's color when missing. The same name under a
// different category is a distinct node.
func (p *Processor) findOrCreateSubTag(name string, parent *models.Tag) (*models.Tag, error) {
	var tag models.Tag
	err := p.db.Where("name = ? AND parent_id = ?", name, parent.ID).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	parentID := parent.ID
	tag = models.Tag{
		Name:       name,
		Color:      parent.Color,
		ParentID:   &parentID,
		IsCategory: false,
	}
	if err := p.db.Create(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}
