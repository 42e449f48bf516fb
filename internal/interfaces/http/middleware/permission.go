package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PermissionConfig holds configuration for permission middleware
type PermissionConfig struct {
	Logger *zap.Logger
}

// RequirePermission creates middleware that requires a specific permission
func RequirePermission(permission string) gin.HandlerFunc {
	return RequireAnyPermissionWithConfig(PermissionConfig{}, permission)
}

// RequireAnyPermission passes when the token carries at least one of permissions
func RequireAnyPermission(permissions ...string) gin.HandlerFunc {
	return RequireAnyPermissionWithConfig(PermissionConfig{}, permissions...)
}

// RequireAnyPermissionWithConfig is RequireAnyPermission with logging of denials
func RequireAnyPermissionWithConfig(cfg PermissionConfig, permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			denyPermission(c, cfg, permissions, "No authentication claims found")
			return
		}
		for _, p := range permissions {
			if claims.HasPermission(p) {
				c.Next()
				return
			}
		}
		denyPermission(c, cfg, permissions, "User lacks required permission")
	}
}

func denyPermission(c *gin.Context, cfg PermissionConfig, required []string, reason string) {
	if cfg.Logger != nil {
		fields := []zap.Field{
			zap.String("reason", reason),
			zap.Strings("required_permissions", required),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		}
		if claims := GetJWTClaims(c); claims != nil {
			fields = append(fields,
				zap.String("user_id", claims.UserID),
				zap.Strings("user_permissions", claims.Permissions))
		}
		cfg.Logger.Warn("Permission denied", fields...)
	}

	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":       "ERR_FORBIDDEN",
			"message":    "Access denied: insufficient permissions",
			"request_id": c.GetString("request_id"),
		},
	})
}
