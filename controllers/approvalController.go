package controllers

import (
	"net/http"
	"strings"

	"github.com/FaithCommunity/models"
	"github.com/FaithCommunity/services"

	"github.com/gin-gonic/gin"
)

func GetPendingApprovals(c *gin.Context) {
	submissions, err := services.ListPendingSubmissions(c.Request.Context())
	if err != nil {
		respondInternalError(c, "Failed to fetch pending approvals", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Pending approvals fetched", submissions)
}

// GetMySubmissions lists the current organization's submissions with their
// review outcome and rejection comment.
func GetMySubmissions(c *gin.Context) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)

	submissions, err := services.ListOrganizationSubmissions(c.Request.Context(), *currentAdmin.Organization_ID)
	if err != nil {
		respondInternalError(c, "Failed to fetch submissions", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Submissions fetched", submissions)
}

func ApproveSubmission(c *gin.Context) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	submission, err := services.ApproveSubmission(c.Request.Context(), id, currentAdmin.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to approve submission")
		return
	}

	respondSuccess(c, http.StatusOK, "Submission approved", submission)
}

func RejectSubmission(c *gin.Context) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	submission, err := services.RejectSubmission(c.Request.Context(), id, currentAdmin.ID, req.Rejection_Comment)
	if err != nil {
		respondServiceError(c, err, "Failed to reject submission")
		return
	}

	respondSuccess(c, http.StatusOK, "Submission rejected", submission)
}

func DeleteSubmission(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if _, err := services.DeleteSubmission(c.Request.Context(), id, nil); err != nil {
		respondServiceError(c, err, "Failed to delete submission")
		return
	}

	respondSuccess(c, http.StatusOK, "Submission deleted", nil)
}

// BulkReviewSubmissions runs approve, reject or delete over a list of ids. Each
// id succeeds or fails on its own; the response reports both counts.
func BulkReviewSubmissions(c *gin.Context) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)

	action := c.Param("action")
	switch action {
	case models.BulkActionApprove, models.BulkActionReject, models.BulkActionDelete:
	default:
		respondError(c, http.StatusBadRequest, ErrCodeValidation, "Unknown bulk action: "+action)
		return
	}

	var req models.BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	if action == models.BulkActionReject && strings.TrimSpace(req.Rejection_Comment) == "" {
		respondError(c, http.StatusBadRequest, ErrCodeValidation, services.ErrRejectionCommentRequired.Error())
		return
	}

	result := services.BulkReview(c.Request.Context(), action, req.IDs, currentAdmin.ID, req.Rejection_Comment)

	c.JSON(http.StatusOK, gin.H{
		"success": result.ErrorCount == 0,
		"message": "Bulk " + action + " completed",
		"details": result,
	})
}

func SubmitHighlight(c *gin.Context) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)

	var proposal models.HighlightProposal
	if err := c.ShouldBindJSON(&proposal); err != nil {
		respondBindingError(c, err)
		return
	}

	id, err := services.SubmitHighlight(c.Request.Context(), currentAdmin, *currentAdmin.Organization_ID, proposal)
	if err != nil {
		respondServiceError(c, err, "Failed to submit highlight")
		return
	}

	respondSuccess(c, http.StatusCreated, "Highlight submitted for approval", gin.H{"submission_id": id})
}
