package models

import "time"

// Submission sections
const (
	SubmissionSectionOrganization = "organization"
	SubmissionSectionAdvocacy     = "advocacy"
	SubmissionSectionCompetency   = "competency"
	SubmissionSectionPrograms     = "programs"
	SubmissionSectionHighlights   = "highlights"
)

// Submission statuses. SubmissionStatusPendingSuperadmin is treated exactly like
// SubmissionStatusPending by the approval engine.
const (
	SubmissionStatusPending           = "pending"
	SubmissionStatusPendingSuperadmin = "pending_superadmin_approval"
	SubmissionStatusApproved          = "approved"
	SubmissionStatusRejected          = "rejected"
)

// Bulk review actions
const (
	BulkActionApprove = "approve"
	BulkActionReject  = "reject"
	BulkActionDelete  = "delete"
)

var PendingSubmissionStatuses = []string{SubmissionStatusPending, SubmissionStatusPendingSuperadmin}

func IsPendingStatus(status string) bool {
	return status == SubmissionStatusPending || status == SubmissionStatusPendingSuperadmin
}

type Submission struct {
	ID                int        `json:"id" goqu:"skipinsert"`
	Section           string     `json:"section"`
	Organization_ID   int        `json:"organization_id"`
	Submitted_By      *int       `json:"submitted_by"`
	Submitted_At      time.Time  `json:"submitted_at" goqu:"skipinsert"`
	Status            string     `json:"status"`
	Previous_Data     JSONData   `json:"previous_data"`
	Proposed_Data     JSONData   `json:"proposed_data"`
	Rejection_Comment *string    `json:"rejection_comment"`
	Reviewed_By       *int       `json:"reviewed_by"`
	Reviewed_At       *time.Time `json:"reviewed_at"`
}

type SubmissionWithOrganization struct {
	Submission
	Org_Name    string `json:"org_name"`
	Org_Acronym string `json:"org_acronym"`
}

// ProgramProposal is the proposed_data of a programs submission.
type ProgramProposal struct {
	Program_ID int    `json:"program_id"`
	Title      string `json:"title"`
	Slug       string `json:"slug"`
}

type HighlightProposal struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"required"`
	Image       string `json:"image" binding:"omitempty,url"`
}

type RejectRequest struct {
	Rejection_Comment string `json:"rejection_comment"`
}

type BulkRequest struct {
	IDs               []int  `json:"ids" binding:"required,min=1,dive,gt=0"`
	Rejection_Comment string `json:"rejection_comment"`
}

type BulkFailure struct {
	ID    int    `json:"id"`
	Error string `json:"error"`
}

type BulkResult struct {
	SuccessCount int           `json:"successCount"`
	ErrorCount   int           `json:"errorCount"`
	Failures     []BulkFailure `json:"failures,omitempty"`
}
