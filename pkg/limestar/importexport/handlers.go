package importexport

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/limestar/limestar/pkg/limestar/models"
	"gorm.io/gorm"
)

// Handler handles bookmark import/export
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new import/export handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// ExportedTag is a taxonomy node in an export file
type ExportedTag struct {
	Name       string `json:"name"`
	Color      string `json:"color"`
	Parent     string `json:"parent,omitempty"`
	IsCategory bool   `json:"is_category"`
}

// ExportedLink is a bookmark in an export file
type ExportedLink struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	UserNote    string   `json:"user_note,omitempty"`
	FaviconURL  string   `json:"favicon_url,omitempty"`
	OGImageURL  string   `json:"og_image_url,omitempty"`
	Domain      string   `json:"domain"`
	SubmittedBy string   `json:"submitted_by,omitempty"`
	IsProcessed bool     `json:"is_processed"`
	CreatedAt   string   `json:"created_at"`
	Tags        []string `json:"tags,omitempty"`
}

// ExportFile is the full JSON dump format
type ExportFile struct {
	Version    int            `json:"version"`
	ExportedAt string         `json:"exported_at"`
	Tags       []ExportedTag  `json:"tags"`
	Links      []ExportedLink `json:"links"`
}

// Export dumps all links and the taxonomy as JSON
// @Summary Export bookmarks
// @Produce json
// @Success 200 {object} ExportFile
// @Security BearerAuth
// @Router /export [get]
func (h *Handler) Export(c *gin.Context) {
	var tags []models.Tag
	if err := h.db.Order("is_category DESC, sort_order, name").Find(&tags).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export tags"})
		return
	}

	nameByID := make(map[uint]string, len(tags))
	for _, t := range tags {
		nameByID[t.ID] = t.Name
	}

	exportedTags := make([]ExportedTag, len(tags))
	for i, t := range tags {
		et := ExportedTag{Name: t.Name, Color: t.Color, IsCategory: t.IsCategory}
		if t.ParentID != nil {
			et.Parent = nameByID[*t.ParentID]
		}
		exportedTags[i] = et
	}

	var linkRows []models.Link
	if err := h.db.Preload("Tags").Order("created_at").Find(&linkRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export links"})
		return
	}

	exportedLinks := make([]ExportedLink, len(linkRows))
	for i, l := range linkRows {
		tagNames := make([]string, len(l.Tags))
		for j, t := range l.Tags {
			tagNames[j] = t.Name
		}
		exportedLinks[i] = ExportedLink{
			URL:         l.URL,
			Title:       l.Title,
			Description: l.Description,
			UserNote:    l.UserNote,
			FaviconURL:  l.FaviconURL,
			OGImageURL:  l.OGImageURL,
			Domain:      l.Domain,
			SubmittedBy: l.SubmittedBy,
			IsProcessed: l.IsProcessed,
			CreatedAt:   l.CreatedAt.UTC().Format(time.RFC3339),
			Tags:        tagNames,
		}
	}

	c.Header("Content-Disposition", `attachment; filename="limestar-export.json"`)
	c.JSON(http.StatusOK, ExportFile{
		Version:    1,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Tags:       exportedTags,
		Links:      exportedLinks,
	})
}

// ImportResult summarizes an import run
type ImportResult struct {
	LinksImported int `json:"links_imported"`
	LinksSkipped  int `json:"links_skipped"`
	TagsImported  int `json:"tags_imported"`
}

// Import restores links and taxonomy from an export file. Existing URLs are
// skipped; tags are matched by (name, parent) so re-imports are idempotent.
// @Summary Import bookmarks
// @Accept json
// @Produce json
// @Success 200 {object} ImportResult
// @Security BearerAuth
// @Router /import [post]
func (h *Handler) Import(c *gin.Context) {
	var file ExportFile
	if err := c.ShouldBindJSON(&file); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var result ImportResult

	// Categories first so sub-tags can resolve their parents
	tagByName := make(map[string]*models.Tag)
	for _, et := range file.Tags {
		if !et.IsCategory {
			continue
		}
		tag, created, err := h.findOrCreateTag(et.Name, et.Color, nil, true)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import tags"})
			return
		}
		if created {
			result.TagsImported++
		}
		tagByName[et.Name] = tag
	}
	for _, et := range file.Tags {
		if et.IsCategory {
			continue
		}
		var parentID *uint
		if parent, ok := tagByName[et.Parent]; ok {
			parentID = &parent.ID
		}
		tag, created, err := h.findOrCreateTag(et.Name, et.Color, parentID, false)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import tags"})
			return
		}
		if created {
			result.TagsImported++
		}
		tagByName[et.Name] = tag
	}

	for _, el := range file.Links {
		var existing models.Link
		if err := h.db.Where("url = ?", el.URL).First(&existing).Error; err == nil {
			result.LinksSkipped++
			continue
		}

		link := models.Link{
			URL:         el.URL,
			Title:       el.Title,
			Description: el.Description,
			UserNote:    el.UserNote,
			FaviconURL:  el.FaviconURL,
			OGImageURL:  el.OGImageURL,
			Domain:      el.Domain,
			SubmittedBy: el.SubmittedBy,
			IsProcessed: el.IsProcessed,
		}
		if err := h.db.Create(&link).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import links"})
			return
		}

		var linkTags []models.Tag
		for _, name := range el.Tags {
			if tag, ok := tagByName[name]; ok {
				linkTags = append(linkTags, *tag)
			}
		}
		if len(linkTags) > 0 {
			if err := h.db.Model(&link).Association("Tags").Replace(&linkTags); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import links"})
				return
			}
		}
		result.LinksImported++
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) findOrCreateTag(name, color string, parentID *uint, isCategory bool) (*models.Tag, bool, error) {
	query := h.db.Where("name = ? AND is_category = ?", name, isCategory)
	if parentID != nil {
		query = query.Where("parent_id = ?", *parentID)
	}

	var tag models.Tag
	if err := query.First(&tag).Error; err == nil {
		return &tag, false, nil
	}

	if color == "" {
		color = models.DefaultTagColor
	}
	tag = models.Tag{Name: name, Color: color, ParentID: parentID, IsCategory: isCategory}
	if err := h.db.Create(&tag).Error; err != nil {
		return nil, false, err
	}
	return &tag, true, nil
}

// RegisterRoutes registers import/export routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/export", h.Export)
	rg.POST("/import", h.Import)
}
