package controllers

import (
	"net/http"

	"github.com/FaithCommunity/initializers"
	"github.com/FaithCommunity/models"
	"github.com/FaithCommunity/services"

	"github.com/gin-gonic/gin"
)

func AdminLogin(cfg initializers.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoginRequest
		if err := bindNormalizedJSON(c, &req); err != nil {
			respondBindingError(c, err)
			return
		}

		admin, err := services.AuthenticateAdmin(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondServiceError(c, err, "Failed to log in")
			return
		}

		token, expires, err := services.IssueAdminToken(cfg, admin)
		if err != nil {
			respondInternalError(c, "Failed to generate token", err)
			return
		}

		respondSuccess(c, http.StatusOK, "Login successful", gin.H{
			"token":      token,
			"expires_at": expires,
			"admin":      admin,
		})
	}
}

func GetCurrentAdmin(c *gin.Context) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)
	respondSuccess(c, http.StatusOK, "Admin fetched", currentAdmin)
}

// GetAdminDirectory lists admins of other organizations that can be invited
// as program collaborators.
func GetAdminDirectory(c *gin.Context) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)

	excludeOrgID := 0
	if currentAdmin.Organization_ID != nil {
		excludeOrgID = *currentAdmin.Organization_ID
	}

	entries, err := services.ListAdminDirectory(c.Request.Context(), excludeOrgID)
	if err != nil {
		respondInternalError(c, "Failed to fetch admin directory", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Admins fetched", entries)
}

func CreateInvitation(c *gin.Context) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)

	var req models.InvitationCreate
	if err := bindNormalizedJSON(c, &req); err != nil {
		respondBindingError(c, err)
		return
	}

	invitation, err := services.CreateInvitation(c.Request.Context(), currentAdmin.ID, req.Email)
	if err != nil {
		respondServiceError(c, err, "Failed to create invitation")
		return
	}

	services.PublishEvent(c.Request.Context(), models.NotificationEvent{
		Type:           models.EventAdminInvitation,
		Actor_Admin_ID: currentAdmin.ID,
		Email:          invitation.Email,
		Token:          invitation.Token,
	})

	respondSuccess(c, http.StatusCreated, "Invitation sent", invitation)
}

func AcceptInvitation(c *gin.Context) {
	var req models.InvitationAccept
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	admin, err := services.AcceptInvitation(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Failed to accept invitation")
		return
	}

	respondSuccess(c, http.StatusCreated, "Organization account created", admin)
}
