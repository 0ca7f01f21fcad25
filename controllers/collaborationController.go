package controllers

import (
	"net/http"

	"github.com/FaithCommunity/models"
	"github.com/FaithCommunity/services"

	"github.com/gin-gonic/gin"
)

func GetCollaborationInvitations(c *gin.Context) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)

	status := c.Query("status")
	switch status {
	case "", models.CollaborationStatusPending, models.CollaborationStatusAccepted, models.CollaborationStatusDeclined:
	default:
		respondError(c, http.StatusBadRequest, ErrCodeValidation, "Invalid status filter")
		return
	}

	invitations, err := services.ListInvitations(c.Request.Context(), currentAdmin.ID, status)
	if err != nil {
		respondInternalError(c, "Failed to fetch invitations", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Invitations fetched", invitations)
}

func AcceptCollaboration(c *gin.Context) {
	respondToCollaboration(c, true)
}

func DeclineCollaboration(c *gin.Context) {
	respondToCollaboration(c, false)
}

func respondToCollaboration(c *gin.Context, accept bool) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	collab, err := services.RespondToInvitation(c.Request.Context(), currentAdmin, id, accept)
	if err != nil {
		respondServiceError(c, err, "Failed to respond to invitation")
		return
	}

	respondSuccess(c, http.StatusOK, "Invitation "+collab.Status, collab)
}
