package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/FaithCommunity/models"
	"github.com/FaithCommunity/services"

	"github.com/gin-gonic/gin"
)

// uploadOptionalImage stores the multipart file in field, if one was sent.
// It writes the error response itself and reports ok=false on failure.
func uploadOptionalImage(c *gin.Context, folder, field string) (*string, bool) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, true
	}

	file, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, true
	}
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidation, "Invalid image upload: "+err.Error())
		return nil, false
	}

	store := services.GetImageService()
	if store == nil {
		respondError(c, http.StatusServiceUnavailable, "", "Image uploads are not available")
		return nil, false
	}

	url, err := store.Upload(c.Request.Context(), folder, file)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return nil, false
	}
	return &url, true
}

// CreateProgram accepts JSON or multipart (with an optional "image" file). The
// program is stored unapproved whatever the client sends.
func CreateProgram(c *gin.Context) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)

	var input models.ProgramInput
	if err := c.ShouldBind(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	image, ok := uploadOptionalImage(c, "programs", "image")
	if !ok {
		return
	}

	program, err := services.CreateProgram(c.Request.Context(), currentAdmin, input, image)
	if err != nil {
		services.DeleteImageQuietly(c.Request.Context(), image)
		respondServiceError(c, err, "Failed to create program")
		return
	}

	respondSuccess(c, http.StatusCreated, "Program submitted for approval", program)
}

func UpdateProgram(c *gin.Context) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input models.ProgramInput
	if err := c.ShouldBind(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	image, ok := uploadOptionalImage(c, "programs", "image")
	if !ok {
		return
	}

	program, err := services.UpdateProgram(c.Request.Context(), currentAdmin, id, input, image)
	if err != nil {
		services.DeleteImageQuietly(c.Request.Context(), image)
		respondServiceError(c, err, "Failed to update program")
		return
	}

	respondSuccess(c, http.StatusOK, "Program updated", program)
}

func MarkProgramActive(c *gin.Context) {
	setProgramStatus(c, models.ProgramStatusActive)
}

func MarkProgramCompleted(c *gin.Context) {
	setProgramStatus(c, models.ProgramStatusCompleted)
}

func setProgramStatus(c *gin.Context, status string) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := services.SetProgramStatus(c.Request.Context(), currentAdmin, id, status); err != nil {
		respondServiceError(c, err, "Failed to update program status")
		return
	}

	respondSuccess(c, http.StatusOK, "Program marked as "+status, gin.H{"id": id, "status": status})
}

func ToggleProgramFeatured(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	featured, err := services.ToggleFeatured(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to toggle featured flag")
		return
	}

	respondSuccess(c, http.StatusOK, "Featured flag updated", gin.H{"id": id, "is_featured": featured})
}

func ToggleProgramVolunteers(c *gin.Context) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	accepts, err := services.ToggleVolunteers(c.Request.Context(), currentAdmin, id)
	if err != nil {
		respondServiceError(c, err, "Failed to toggle volunteer sign-ups")
		return
	}

	respondSuccess(c, http.StatusOK, "Volunteer sign-ups updated", gin.H{"id": id, "accepts_volunteers": accepts})
}

// DeleteProgram takes ?kind=program (default) or ?kind=submission to say which
// row the id refers to.
func DeleteProgram(c *gin.Context) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	kind := c.DefaultQuery("kind", models.DeleteKindProgram)
	if kind != models.DeleteKindProgram && kind != models.DeleteKindSubmission {
		respondError(c, http.StatusBadRequest, ErrCodeValidation, "kind must be program or submission")
		return
	}

	target := models.ProgramDeleteTarget{Kind: kind, ID: id}
	if err := services.DeleteProgram(c.Request.Context(), currentAdmin, target); err != nil {
		respondServiceError(c, err, "Failed to delete program")
		return
	}

	respondSuccess(c, http.StatusOK, "Program deleted", nil)
}

func GetPublicPrograms(c *gin.Context) {
	filter := services.ProgramFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Featured: c.Query("featured") == "true",
	}

	programs, err := services.ListPublicPrograms(c.Request.Context(), filter)
	if err != nil {
		respondInternalError(c, "Failed to fetch programs", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Programs fetched", programs)
}

func GetPublicProgram(c *gin.Context) {
	program, err := services.GetPublicProgramBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondServiceError(c, err, "Failed to fetch program")
		return
	}

	respondSuccess(c, http.StatusOK, "Program fetched", program)
}

func GetManagedPrograms(c *gin.Context) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)

	programs, err := services.ListManagedPrograms(c.Request.Context(), currentAdmin)
	if err != nil {
		respondInternalError(c, "Failed to fetch programs", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Programs fetched", programs)
}

func GetAllPrograms(c *gin.Context) {
	programs, err := services.ListAllPrograms(c.Request.Context())
	if err != nil {
		respondInternalError(c, "Failed to fetch programs", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Programs fetched", programs)
}
