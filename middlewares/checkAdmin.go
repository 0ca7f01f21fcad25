package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func CheckSuperadmin(c *gin.Context) {
	isSuperadmin := c.GetBool("superadmin")

	if !isSuperadmin {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Superadmin access required", "errorCode": "FORBIDDEN"})
		return
	}
}

// CheckOrganizationAdmin rejects admins that are not attached to an organization.
func CheckOrganizationAdmin(c *gin.Context) {
	admin, ok := CurrentAdmin(c)
	if !ok || admin.Organization_ID == nil {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Organization admin access required", "errorCode": "FORBIDDEN"})
		return
	}
}
