package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Handler handles auth requests for the single-admin web surface
type Handler struct {
	// bcrypt hash of the configured admin password; nil disables web admin
	passwordHash []byte
}

// NewHandler creates an auth handler. An empty password disables login.
func NewHandler(adminPassword string) *Handler {
	h := &Handler{}
	if adminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err == nil {
			h.passwordHash = hash
		}
	}
	return h
}

// Enabled reports whether the web admin surface is configured
func (h *Handler) Enabled() bool {
	return h.passwordHash != nil
}

// LoginRequest represents the login request
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
}

// VerifyRequest represents the token verify request
type VerifyRequest struct {
	Token string `json:"token" binding:"required"`
}

// Login verifies the admin password and issues a session token
func (h *Handler) Login(c *gin.Context) {
	if !h.Enabled() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Web 管理功能未启用"})
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := bcrypt.CompareHashAndPassword(h.passwordHash, []byte(req.Password)); err != nil {
		c.JSON(http.StatusOK, LoginResponse{Success: false, Message: "密码错误"})
		return
	}

	token, err := GenerateToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Success: true, Token: token, Message: "登录成功"})
}

// Verify reports whether a session token is still valid
func (h *Handler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, err := ValidateToken(req.Token)
	c.JSON(http.StatusOK, gin.H{"valid": err == nil})
}

// RegisterRoutes registers auth routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.Login)
	rg.POST("/verify", h.Verify)
}
