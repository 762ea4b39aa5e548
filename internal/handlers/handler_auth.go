package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/proudcore/economy_ledger/internal/middleware"
	"github.com/proudcore/economy_ledger/internal/platform/config"
	"golang.org/x/crypto/bcrypt"
)

// authHandler exchanges the configured admin bootstrap secret for a JWT.
type authHandler struct {
	cfg *config.Config
}

func newAuthHandler(cfg *config.Config) *authHandler {
	return &authHandler{cfg: cfg}
}

func registerAuthRoutes(r *gin.Engine, cfg *config.Config) {
	h := newAuthHandler(cfg)
	r.POST("/auth/token", h.issueToken)
}

type tokenRequest struct {
	Secret string `json:"secret" binding:"required"`
}

func (h *authHandler) issueToken(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if h.cfg.AdminSecretHash == "" {
		logger.Warn("Admin token requested but no admin secret is configured")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Admin access is not configured"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.cfg.AdminSecretHash), []byte(req.Secret)); err != nil {
		logger.Warn("Admin token request with invalid secret")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid secret"})
		return
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		Issuer:    h.cfg.AdminJWTIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(h.cfg.AdminJWTExpiry)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.cfg.AdminJWTSecret))
	if err != nil {
		logger.Error("Failed to sign admin token", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": signed, "expiresAt": claims.ExpiresAt.Time})
}
