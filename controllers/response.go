package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/FaithCommunity/services"
	"github.com/gin-gonic/gin"
)

// Error codes returned in the errorCode field.
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeDuplicateTitle   = "DUPLICATE_TITLE"
	ErrCodeDuplicateSlug    = "DUPLICATE_SLUG"
	ErrCodeDuplicateAcronym = "DUPLICATE_ACRONYM"
	ErrCodeDuplicateEmail   = "DUPLICATE_EMAIL"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeNotPending       = "NOT_PENDING"
	ErrCodeForbidden        = "FORBIDDEN"
)

func respondSuccess(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func respondError(c *gin.Context, status int, code string, message string) {
	body := gin.H{"success": false, "message": message}
	if code != "" {
		body["errorCode"] = code
	}
	c.JSON(status, body)
}

func respondInternalError(c *gin.Context, message string, err error) {
	log.Printf("[%s] %s: %v", c.GetString("requestId"), message, err)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": message, "error": err.Error()})
}

// respondServiceError maps service sentinel errors onto status codes and error codes.
func respondServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrSubmissionNotFound),
		errors.Is(err, services.ErrProgramNotFound),
		errors.Is(err, services.ErrCollaborationNotFound),
		errors.Is(err, services.ErrNewsNotFound),
		errors.Is(err, services.ErrOrganizationNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrSubmissionNotPending),
		errors.Is(err, services.ErrCollaborationNotPending):
		respondError(c, http.StatusConflict, ErrCodeNotPending, err.Error())
	case errors.Is(err, services.ErrNewsNotDeleted):
		respondError(c, http.StatusConflict, "", err.Error())
	case errors.Is(err, services.ErrRejectionCommentRequired),
		errors.Is(err, services.ErrInvalidDateRange),
		errors.Is(err, services.ErrUnknownCollaborator),
		errors.Is(err, services.ErrUnknownSection):
		respondError(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, services.ErrNotProgramOwner):
		respondError(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, services.ErrDuplicateTitle):
		respondError(c, http.StatusConflict, ErrCodeDuplicateTitle, err.Error())
	case errors.Is(err, services.ErrDuplicateSlug):
		respondError(c, http.StatusConflict, ErrCodeDuplicateSlug, err.Error())
	case errors.Is(err, services.ErrDuplicateAcronym):
		respondError(c, http.StatusConflict, ErrCodeDuplicateAcronym, err.Error())
	case errors.Is(err, services.ErrDuplicateEmail):
		respondError(c, http.StatusConflict, ErrCodeDuplicateEmail, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "", err.Error())
	case errors.Is(err, services.ErrInvitationInvalid):
		respondError(c, http.StatusBadRequest, "", err.Error())
	default:
		respondInternalError(c, fallback, err)
	}
}

func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, ErrCodeValidation, "Invalid "+name)
		return 0, false
	}
	return id, true
}
