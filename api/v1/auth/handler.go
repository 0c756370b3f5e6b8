package auth

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"siteforge/internal/auth"
	"siteforge/internal/config"
	"siteforge/internal/httpx"
	"siteforge/internal/model"
)

// LoginRequest is the login request body
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the session token
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	ExpireAt int64  `json:"expireAt"`
}

// LoginHandler handles POST /api/v1/auth/login
func LoginHandler(db *gorm.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.FailErr(c, httpx.ErrParamInvalid("invalid request: "+err.Error()))
			return
		}

		var user model.User
		if err := db.Where("username = ? AND status = ?", req.Username, model.UserStatusActive).First(&user).Error; err != nil {
			httpx.FailErr(c, httpx.ErrUnauthorized("invalid username or password"))
			return
		}

		if err := auth.ComparePassword(user.PasswordHash, req.Password); err != nil {
			httpx.FailErr(c, httpx.ErrUnauthorized("invalid username or password"))
			return
		}

		expireAt := time.Now().Add(time.Duration(cfg.JWT.ExpireMinutes) * time.Minute)
		token, err := auth.GenerateToken(user.ID, user.Username, expireAt, cfg.JWT.Issuer)
		if err != nil {
			httpx.FailErr(c, httpx.ErrInternalError("failed to issue token", err))
			return
		}

		httpx.OK(c, LoginResponse{
			Token:    token,
			Username: user.Username,
			ExpireAt: expireAt.Unix(),
		})
	}
}
