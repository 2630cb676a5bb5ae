package middleware

import (
	"strings"

	"budayana_backend/internal/config"
	"budayana_backend/internal/repository"
	"budayana_backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			zap.L().Debug("token rejected", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

// ActivityMiddleware stamps the user's last-seen time on authenticated
// requests, best effort.
func ActivityMiddleware(users *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims := util.GetUserFromContext(c); claims != nil {
			if err := users.UpdateLastSeen(claims.UserID); err != nil {
				zap.L().Debug("last-seen update failed", zap.Uint("userId", claims.UserID), zap.Error(err))
			}
		}
		c.Next()
	}
}
