package redirect

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/limestar/limestar/pkg/limestar/models"
	"gorm.io/gorm"
)

// Handler serves public redirects from a bookmark id to its URL,
// so bookmarks can be shared without exposing the API
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new redirect handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// Redirect sends the client to the bookmarked URL
func (h *Handler) Redirect(c *gin.Context) {
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

	c.Redirect(http.StatusFound, link.URL)
}

// RegisterRoutes registers redirect routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/r/:id", h.Redirect)
}
