package controllers

import (
	"net/http"
	"strings"

	"github.com/FaithCommunity/initializers"
	"github.com/FaithCommunity/models"
	"github.com/FaithCommunity/services"

	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
)

func GetOrganizations(c *gin.Context) {
	organizations := []models.Organization{}
	err := initializers.DB.From("organizations").
		Where(goqu.C("status").Eq("ACTIVE")).
		Order(goqu.C("name").Asc()).
		ScanStructsContext(c.Request.Context(), &organizations)
	if err != nil {
		respondInternalError(c, "Failed to fetch organizations", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Organizations fetched", organizations)
}

func GetOrganizationByAcronym(c *gin.Context) {
	var profile models.OrganizationProfile
	found, err := initializers.DB.From("organizations").
		Select(
			goqu.T("organizations").All(),
			goqu.COALESCE(goqu.I("advocacies.advocacy"), "").As("advocacy"),
			goqu.COALESCE(goqu.I("competencies.competency"), "").As("competency"),
		).
		LeftJoin(goqu.T("advocacies"), goqu.On(goqu.Ex{"advocacies.organization_id": goqu.I("organizations.id")})).
		LeftJoin(goqu.T("competencies"), goqu.On(goqu.Ex{"competencies.organization_id": goqu.I("organizations.id")})).
		Where(goqu.L("upper(organizations.acronym)").Eq(strings.ToUpper(c.Param("acronym")))).
		ScanStructContext(c.Request.Context(), &profile)
	if err != nil {
		respondInternalError(c, "Failed to fetch organization", err)
		return
	}
	if !found {
		respondServiceError(c, services.ErrOrganizationNotFound, "")
		return
	}

	respondSuccess(c, http.StatusOK, "Organization fetched", profile)
}

// ownedOrganizationID returns the :id param when the current admin belongs to
// that organization.
func ownedOrganizationID(c *gin.Context) (models.Admin, int, bool) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)

	orgID, ok := paramID(c, "id")
	if !ok {
		return currentAdmin, 0, false
	}
	if !currentAdmin.OwnsOrganization(orgID) {
		respondError(c, http.StatusForbidden, ErrCodeForbidden, "You can only edit your own organization")
		return currentAdmin, 0, false
	}
	return currentAdmin, orgID, true
}

// SubmitOrganizationProfile records a profile edit for superadmin review; the
// live organization row is not changed here.
func SubmitOrganizationProfile(c *gin.Context) {
	currentAdmin, orgID, ok := ownedOrganizationID(c)
	if !ok {
		return
	}

	var update models.OrganizationProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondBindingError(c, err)
		return
	}
	if update.IsEmpty() {
		respondError(c, http.StatusBadRequest, ErrCodeValidation, "No changes submitted")
		return
	}

	id, err := services.SubmitOrganizationProfile(c.Request.Context(), currentAdmin, orgID, update)
	if err != nil {
		respondServiceError(c, err, "Failed to submit organization changes")
		return
	}

	respondSuccess(c, http.StatusAccepted, "Changes submitted for approval", gin.H{"submission_id": id})
}

func SubmitAdvocacy(c *gin.Context) {
	submitTextSection(c, models.SubmissionSectionAdvocacy)
}

func SubmitCompetency(c *gin.Context) {
	submitTextSection(c, models.SubmissionSectionCompetency)
}

func submitTextSection(c *gin.Context, section string) {
	currentAdmin, orgID, ok := ownedOrganizationID(c)
	if !ok {
		return
	}

	var proposal models.TextProposal
	if err := c.ShouldBindJSON(&proposal); err != nil {
		respondBindingError(c, err)
		return
	}

	id, err := services.SubmitTextChange(c.Request.Context(), currentAdmin, orgID, section, proposal.Text)
	if err != nil {
		respondServiceError(c, err, "Failed to submit "+section)
		return
	}

	respondSuccess(c, http.StatusAccepted, "Changes submitted for approval", gin.H{"submission_id": id})
}

func UpdateOrganizationInfo(c *gin.Context) {
	orgID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var update models.OrganizationInfoUpdate
	if err := bindNormalizedJSON(c, &update); err != nil {
		respondBindingError(c, err)
		return
	}

	org, err := services.UpdateOrganizationInfo(c.Request.Context(), orgID, update)
	if err != nil {
		respondServiceError(c, err, "Failed to update organization")
		return
	}

	respondSuccess(c, http.StatusOK, "Organization updated", org)
}
