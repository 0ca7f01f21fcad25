package middlewares

import (
	"net/http"
	"strings"

	"github.com/FaithCommunity/initializers"
	"github.com/FaithCommunity/models"
	"github.com/FaithCommunity/services"

	"github.com/gin-gonic/gin"
)

// CheckAuth validates the bearer token and loads the admin it names. The role
// stored on the admin row wins over the role claim in the token.
func CheckAuth(cfg initializers.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authorization header is missing"})
			return
		}

		authToken := strings.Split(authHeader, " ")
		if len(authToken) != 2 || authToken[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid token format"})
			return
		}

		claims, err := services.ParseAdminToken(cfg, authToken[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or expired token"})
			return
		}

		admin, found, err := services.GetActiveAdmin(c.Request.Context(), claims.Admin_ID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load admin", "error": err.Error()})
			return
		}
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Admin account not found or inactive"})
			return
		}

		c.Set("currentAdmin", admin)
		c.Set("superadmin", admin.IsSuperadmin())

		c.Next()
	}
}

// CurrentAdmin returns the admin loaded by CheckAuth.
func CurrentAdmin(c *gin.Context) (models.Admin, bool) {
	v, exists := c.Get("currentAdmin")
	if !exists {
		return models.Admin{}, false
	}
	admin, ok := v.(models.Admin)
	return admin, ok
}
