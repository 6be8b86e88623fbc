// internal/interfaces/http/handlers/auth.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/vardan-naturals/storefront/internal/config"
	"github.com/vardan-naturals/storefront/internal/pkg/auth"
)

// AuthHandler handles administrator login
type AuthHandler struct {
	admin     config.AdminConfig
	passwords *auth.PasswordManager
	tokens    *auth.JWTManager
	logger    logrus.FieldLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(admin config.AdminConfig, passwords *auth.PasswordManager, tokens *auth.JWTManager, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		admin:     admin,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger,
	}
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := h.passwords.Authenticate(req.Email, req.Password, h.admin.Email, h.admin.PasswordHash); err != nil {
		h.logger.WithField("email", req.Email).Warn("Failed admin login")
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid email or password",
		})
		return
	}

	token, expiresAt, err := h.tokens.GenerateAccessToken(h.admin.Email, auth.RoleAdmin)
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue admin token")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to log in",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"data": gin.H{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_at":   expiresAt,
		},
	})
}
