package admin

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/limestar/limestar/pkg/limestar/processor"
)

// Handler handles administrative operations
type Handler struct {
	proc *processor.Processor
}

// NewHandler creates a new admin handler
func NewHandler(proc *processor.Processor) *Handler {
	return &Handler{proc: proc}
}

// ReprocessResponse reports the outcome of a reprocess-all request
type ReprocessResponse struct {
	Status  string `json:"status"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

// ReprocessAll starts a background batch re-run over every link
// @Summary Reprocess all links
// @Produce json
// @Success 200 {object} ReprocessResponse
// @Security BearerAuth
// @Router /admin/reprocess-all [post]
func (h *Handler) ReprocessAll(c *gin.Context) {
	total, err := h.proc.ReprocessAll()
	if err != nil {
		if errors.Is(err, processor.ErrAlreadyRunning) {
			status := h.proc.ReprocessStatus()
			c.JSON(http.StatusOK, ReprocessResponse{
				Status:  "already_running",
				Total:   status.Total,
				Message: "批量重处理已在运行中，请等待完成",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if total == 0 {
		c.JSON(http.StatusOK, ReprocessResponse{
			Status:  "empty",
			Total:   0,
			Message: "没有需要处理的链接",
		})
		return
	}

	c.JSON(http.StatusOK, ReprocessResponse{
		Status:  "started",
		Total:   total,
		Message: fmt.Sprintf("批量重处理已开始，共 %d 条链接。可通过 /api/admin/reprocess-status 查看进度", total),
	})
}

// ReprocessStatus reports progress of an in-flight batch run
// @Summary Batch reprocess status
// @Produce json
// @Success 200 {object} processor.JobStatus
// @Router /admin/reprocess-status [get]
func (h *Handler) ReprocessStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.proc.ReprocessStatus())
}

// ClearTags deletes the whole taxonomy and all link-tag associations
// @Summary Clear all tags
// @Produce json
// @Security BearerAuth
// @Router /admin/clear-tags [post]
func (h *Handler) ClearTags(c *gin.Context) {
	if err := h.proc.ClearTaxonomy(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "所有标签已清除"})
}

// RegisterRoutes registers admin routes. Status polling is public; the
// mutating operations require authentication.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/reprocess-status", h.ReprocessStatus)
	protected.POST("/reprocess-all", h.ReprocessAll)
	protected.POST("/clear-tags", h.ClearTags)
}
