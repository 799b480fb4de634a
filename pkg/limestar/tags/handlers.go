package tags

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/limestar/limestar/pkg/limestar/models"
	"gorm.io/gorm"
)

// Handler handles tag-related requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new tags handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// TagResponse represents a tag in API responses
type TagResponse struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	ParentID   *uint  `json:"parent_id,omitempty"`
	IsCategory bool   `json:"is_category"`
	LinkCount  int    `json:"link_count,omitempty"`
}

// TagTreeNode is a category with its nested sub-tags
type TagTreeNode struct {
	TagResponse
	Children []TagResponse `json:"children"`
}

// CreateTagRequest represents the request to create or rename a tag
type CreateTagRequest struct {
	Name  string `json:"name" binding:"required,max=50"`
	Color string `json:"color"`
}

// List returns all tags with link counts, most-used first
// @Summary List tags
// @Produce json
// @Success 200 {array} TagResponse
// @Router /tags [get]
func (h *Handler) List(c *gin.Context) {
	type tagWithCount struct {
		ID         uint
		Name       string
		Color      string
		ParentID   *uint
		IsCategory bool
		LinkCount  int
	}

	var results []tagWithCount
	err := h.db.Table("tags").
		Select("tags.id, tags.name, tags.color, tags.parent_id, tags.is_category, COUNT(link_tags.link_id) as link_count").
		Joins("LEFT JOIN link_tags ON tags.id = link_tags.tag_id").
		Group("tags.id").
		Order("link_count DESC").
		Find(&results).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tags"})
		return
	}

	tags := make([]TagResponse, len(results))
	for i, r := range results {
		tags[i] = TagResponse{
			ID:         r.ID,
			Name:       r.Name,
			Color:      r.Color,
			ParentID:   r.ParentID,
			IsCategory: r.IsCategory,
			LinkCount:  r.LinkCount,
		}
	}

	c.JSON(http.StatusOK, tags)
}

// Tree returns the taxonomy as categories with nested sub-tags
// @Summary Tag tree
// @Produce json
// @Success 200 {array} TagTreeNode
// @Router /tags/tree [get]
func (h *Handler) Tree(c *gin.Context) {
	var all []models.Tag
	if err := h.db.Order("sort_order, name").Find(&all).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tags"})
		return
	}

	byParent := make(map[uint][]TagResponse)
	var categories []models.Tag
	for _, t := range all {
		if t.IsCategory {
			categories = append(categories, t)
		} else if t.ParentID != nil {
			byParent[*t.ParentID] = append(byParent[*t.ParentID], toResponse(t))
		}
	}

	tree := make([]TagTreeNode, len(categories))
	for i, cat := range categories {
		children := byParent[cat.ID]
		if children == nil {
			children = []TagResponse{}
		}
		tree[i] = TagTreeNode{TagResponse: toResponse(cat), Children: children}
	}

	c.JSON(http.StatusOK, tree)
}

// Get returns a single tag by ID
// @Summary Get a tag
// @Produce json
// @Param id path int true "Tag ID"
// @Success 200 {object} TagResponse
// @Failure 404 {object} map[string]string "Tag not found"
// @Router /tags/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tag ID"})
		return
	}

	var tag models.Tag
	if err := h.db.First(&tag, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
		return
	}

	c.JSON(http.StatusOK, toResponse(tag))
}

// Create creates a standalone tag
// @Summary Create a tag
// @Accept json
// @Produce json
// @Param request body CreateTagRequest true "Tag details"
// @Success 201 {object} TagResponse
// @Failure 400 {object} map[string]string "Tag already exists"
// @Router /tags [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.Tag
	if err := h.db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tag already exists"})
		return
	}

	color := req.Color
	if color == "" {
		color = models.DefaultTagColor
	}

	tag := models.Tag{Name: req.Name, Color: color}
	if err := h.db.Create(&tag).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tag"})
		return
	}

	c.JSON(http.StatusCreated, toResponse(tag))
}

// Update renames or recolors a tag. Rename collisions are client errors.
// @Summary Update a tag
// @Accept json
// @Produce json
// @Param id path int true "Tag ID"
// @Param request body CreateTagRequest true "Updated tag"
// @Success 200 {object} TagResponse
// @Failure 400 {object} map[string]string "Tag name already exists"
// @Failure 404 {object} map[string]string "Tag not found"
// @Router /tags/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tag ID"})
		return
	}

	var tag models.Tag
	if err := h.db.First(&tag, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
		return
	}

	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != tag.Name {
		if err := h.checkNameCollision(&tag, req.Name); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		tag.Name = req.Name
	}
	if req.Color != "" {
		tag.Color = req.Color
	}

	if err := h.db.Save(&tag).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update tag"})
		return
	}

	c.JSON(http.StatusOK, toResponse(tag))
}

// checkNameCollision enforces scoped name uniqueness: category names are
// unique among categories, sub-tag names unique within their parent
func (h *Handler) checkNameCollision(tag *models.Tag, newName string) error {
	query := h.db.Where("name = ? AND id != ?", newName, tag.ID)
	if tag.IsCategory {
		query = query.Where("is_category = ?", true)
	} else if tag.ParentID != nil {
		query = query.Where("parent_id = ?", *tag.ParentID)
	}

	var existing models.Tag
	if err := query.First(&existing).Error; err == nil {
		return errors.New("Tag name already exists")
	}
	return nil
}

// Delete removes a tag and its link associations
// @Summary Delete a tag
// @Param id path int true "Tag ID"
// @Success 204
// @Failure 404 {object} map[string]string "Tag not found"
// @Router /tags/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tag ID"})
		return
	}

	var tag models.Tag
	if err := h.db.First(&tag, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
		return
	}

	if err := h.db.Model(&tag).Association("Links").Clear(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete tag"})
		return
	}
	if err := h.db.Delete(&tag).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete tag"})
		return
	}

	c.Status(http.StatusNoContent)
}

func toResponse(tag models.Tag) TagResponse {
	return TagResponse{
		ID:         tag.ID,
		Name:       tag.Name,
		Color:      tag.Color,
		ParentID:   tag.ParentID,
		IsCategory: tag.IsCategory,
	}
}

// RegisterRoutes registers public tag routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tags", h.List)
	rg.GET("/tags/tree", h.Tree)
	rg.GET("/tags/:id", h.Get)
}

// RegisterProtectedRoutes registers routes requiring authentication
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/tags", h.Create)
	rg.PUT("/tags/:id", h.Update)
	rg.DELETE("/tags/:id", h.Delete)
}
