package links

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/limestar/limestar/pkg/limestar/models"
	"gorm.io/gorm"
)

// LinkService is the processing pipeline consumed by the create endpoint
type LinkService interface {
	AddAndProcess(ctx context.Context, rawURL, note, submittedBy string) (*models.Link, error)
}

// Handler handles link-related requests
type Handler struct {
	db      *gorm.DB
	service LinkService
}

// NewHandler creates a new links handler
func NewHandler(db *gorm.DB, service LinkService) *Handler {
	return &Handler{db: db, service: service}
}

// CreateLinkRequest represents the request to create a link
type CreateLinkRequest struct {
	URL      string `json:"url" binding:"required"`
	UserNote string `json:"user_note"`
}

// UpdateLinkRequest represents the request to update a link
type UpdateLinkRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	UserNote    *string `json:"user_note"`
	TagIDs      *[]uint `json:"tag_ids"`
}

// TagResponse represents a tag attached to a link
type TagResponse struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	ParentID   *uint  `json:"parent_id,omitempty"`
	IsCategory bool   `json:"is_category"`
}

// LinkResponse represents a link in API responses
type LinkResponse struct {
	ID          uint          `json:"id"`
	URL         string        `json:"url"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	UserNote    string        `json:"user_note,omitempty"`
	FaviconURL  string        `json:"favicon_url,omitempty"`
	OGImageURL  string        `json:"og_image_url,omitempty"`
	Domain      string        `json:"domain"`
	CreatedAt   string        `json:"created_at"`
	UpdatedAt   string        `json:"updated_at"`
	IsProcessed bool          `json:"is_processed"`
	Tags        []TagResponse `json:"tags"`
}

// LinkListResponse is a paginated page of links
type LinkListResponse struct {
	Items    []LinkResponse `json:"items"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	HasMore  bool           `json:"has_more"`
}

// ToResponse converts a Link model to its API shape
func ToResponse(link *models.Link) LinkResponse {
	tags := make([]TagResponse, len(link.Tags))
	for i, t := range link.Tags {
		tags[i] = TagResponse{
			ID:         t.ID,
			Name:       t.Name,
			Color:      t.Color,
			ParentID:   t.ParentID,
			IsCategory: t.IsCategory,
		}
	}
	return LinkResponse{
		ID:          link.ID,
		URL:         link.URL,
		Title:       link.Title,
		Description: link.Description,
		UserNote:    link.UserNote,
		FaviconURL:  link.FaviconURL,
		OGImageURL:  link.OGImageURL,
		Domain:      link.Domain,
		CreatedAt:   link.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   link.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		IsProcessed: link.IsProcessed,
		Tags:        tags,
	}
}

// ParsePagination reads page/page_size query params with bounds applied
func ParsePagination(c *gin.Context) (page, pageSize int) {
	page = 1
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p >= 1 {
		page = p
	}
	pageSize = 20
	if ps, err := strconv.Atoi(c.Query("page_size")); err == nil && ps >= 1 && ps <= 100 {
		pageSize = ps
	}
	return page, pageSize
}

// List returns a paginated list of links, newest first
// @Summary List links
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Param tag query string false "Filter by tag name"
// @Success 200 {object} LinkListResponse
// @Router /links [get]
func (h *Handler) List(c *gin.Context) {
	page, pageSize := ParsePagination(c)

	query := h.db.Model(&models.Link{}).Order("created_at DESC")
	if tag := c.Query("tag"); tag != "" {
		query = query.Joins("JOIN link_tags ON link_tags.link_id = links.id").
			Joins("JOIN tags ON tags.id = link_tags.tag_id").
			Where("tags.name = ?", tag)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch links"})
		return
	}

	offset := (page - 1) * pageSize
	var links []models.Link
	if err := query.Preload("Tags").Offset(offset).Limit(pageSize).Find(&links).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch links"})
		return
	}

	items := make([]LinkResponse, len(links))
	for i := range links {
		items[i] = ToResponse(&links[i])
	}

	c.JSON(http.StatusOK, LinkListResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasMore:  int64(offset+len(links)) < total,
	})
}

// Get returns a single link by ID
// @Summary Get a link
// @Produce json
// @Param id path int true "Link ID"
// @Success 200 {object} LinkResponse
// @Failure 404 {object} map[string]string "Link not found"
// @Router /links/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid link ID"})
		return
	}

	var link models.Link
	if err := h.db.Preload("Tags").First(&link, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
		return
	}

	c.JSON(http.StatusOK, ToResponse(&link))
}

// Create submits a URL for bookmarking; the link is fetched, summarized, and
// tagged before the response is returned
// @Summary Create a link
// @Accept json
// @Produce json
// @Param request body CreateLinkRequest true "Link details"
// @Success 201 {object} LinkResponse
// @Security BearerAuth
// @Router /links [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	link, err := h.service.AddAndProcess(c.Request.Context(), req.URL, req.UserNote, "web")
	if err != nil {
		// The link record persists in its failure state and stays listed
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ToResponse(link))
}

// Update edits a link's editable fields and, optionally, its tag set
// @Summary Update a link
// @Accept json
// @Produce json
// @Param id path int true "Link ID"
// @Param request body UpdateLinkRequest true "Updated fields"
// @Success 200 {object} LinkResponse
// @Failure 404 {object} map[string]string "Link not found"
// @Security BearerAuth
// @Router /links/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid link ID"})
		return
	}

	var link models.Link
	if err := h.db.First(&link, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
		return
	}

	var req UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Title != nil {
		link.Title = *req.Title
	}
	if req.Description != nil {
		link.Description = *req.Description
	}
	if req.UserNote != nil {
		link.UserNote = *req.UserNote
	}

	if err := h.db.Save(&link).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update link"})
		return
	}

	if req.TagIDs != nil {
		var tags []models.Tag
		if len(*req.TagIDs) > 0 {
			if err := h.db.Find(&tags, *req.TagIDs).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tags"})
				return
			}
		}
		if err := h.db.Model(&link).Association("Tags").Replace(&tags); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update tags"})
			return
		}
	}

	var updated models.Link
	if err := h.db.Preload("Tags").First(&updated, link.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch link"})
		return
	}

	c.JSON(http.StatusOK, ToResponse(&updated))
}

// Delete removes a link
// @Summary Delete a link
// @Param id path int true "Link ID"
// @Success 204
// @Failure 404 {object} map[string]string "Link not found"
// @Security BearerAuth
// @Router /links/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid link ID"})
		return
	}

	var link models.Link
	if err := h.db.First(&link, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
		return
	}

	if err := h.db.Model(&link).Association("Tags").Clear(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete link"})
		return
	}
	if err := h.db.Delete(&link).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete link"})
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers public link routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/links", h.List)
	rg.GET("/links/:id", h.Get)
}

// RegisterProtectedRoutes registers routes requiring authentication
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/links", h.Create)
	rg.PUT("/links/:id", h.Update)
	rg.DELETE("/links/:id", h.Delete)
}
