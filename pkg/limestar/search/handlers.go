package search

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/limestar/limestar/pkg/limestar/links"
	"github.com/limestar/limestar/pkg/limestar/models"
	"gorm.io/gorm"
)

// Handler handles link search requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new search handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// Search searches links by keyword and/or tag names (AND logic)
// @Summary Search links
// @Produce json
// @Param q query string false "Keyword over title, description, note, domain"
// @Param tags query []string false "Tag names the link must all carry"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} links.LinkListResponse
// @Router /search [get]
func (h *Handler) Search(c *gin.Context) {
	page, pageSize := links.ParsePagination(c)

	query := h.db.Model(&models.Link{}).Order("created_at DESC")

	if q := c.Query("q"); q != "" {
		term := "%" + q + "%"
		query = query.Where(
			"title LIKE ? OR description LIKE ? OR user_note LIKE ? OR domain LIKE ?",
			term, term, term, term,
		)
	}

	// AND semantics: one association subquery per requested tag
	for _, tagName := range c.QueryArray("tags") {
		query = query.Where(
			"links.id IN (SELECT link_tags.link_id FROM link_tags JOIN tags ON tags.id = link_tags.tag_id WHERE tags.name = ?)",
			tagName,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	offset := (page - 1) * pageSize
	var results []models.Link
	if err := query.Preload("Tags").Offset(offset).Limit(pageSize).Find(&results).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	items := make([]links.LinkResponse, len(results))
	for i := range results {
		items[i] = links.ToResponse(&results[i])
	}

	c.JSON(http.StatusOK, links.LinkListResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasMore:  int64(offset+len(results)) < total,
	})
}

// RegisterRoutes registers search routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/search", h.Search)
}
