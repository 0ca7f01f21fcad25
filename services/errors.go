package services

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrSubmissionNotFound       = errors.New("submission not found")
	ErrSubmissionNotPending     = errors.New("submission is not pending")
	ErrRejectionCommentRequired = errors.New("rejection comment is required")
	ErrUnknownSection           = errors.New("unknown submission section")

	ErrProgramNotFound  = errors.New("program not found")
	ErrNotProgramOwner  = errors.New("program belongs to another organization")
	ErrInvalidDateRange = errors.New("event_end_date must not be before event_start_date")

	ErrUnknownCollaborator = errors.New("collaborators must be active admins")

	ErrCollaborationNotFound   = errors.New("collaboration invitation not found")
	ErrCollaborationNotPending = errors.New("collaboration invitation already answered")

	ErrNewsNotFound   = errors.New("news article not found")
	ErrNewsNotDeleted = errors.New("news article must be deleted before it can be permanently removed")
	ErrDuplicateTitle = errors.New("an article with this title already exists for this organization")
	ErrDuplicateSlug  = errors.New("slug is already in use")

	ErrOrganizationNotFound = errors.New("organization not found")
	ErrDuplicateAcronym     = errors.New("acronym is already in use")
	ErrDuplicateEmail       = errors.New("email is already in use")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvitationInvalid  = errors.New("invitation is invalid or has expired")
)

const pqUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// UniqueConstraint returns the violated unique constraint or index name, if any.
func UniqueConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return pqErr.Constraint
	}
	return ""
}
