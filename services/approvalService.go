package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/FaithCommunity/initializers"
	"github.com/FaithCommunity/models"
	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

type inserter interface {
	Insert(table interface{}) *goqu.InsertDataset
}

// sectionApplier writes an approved submission's proposed_data onto the live tables.
type sectionApplier func(ctx context.Context, tx *goqu.TxDatabase, sub models.Submission) error

var sectionAppliers = map[string]sectionApplier{
	models.SubmissionSectionOrganization: applyOrganizationProfile,
	models.SubmissionSectionAdvocacy:     applyTextSection("advocacies", "advocacy"),
	models.SubmissionSectionCompetency:   applyTextSection("competencies", "competency"),
	models.SubmissionSectionPrograms:     applyProgramApproval,
	models.SubmissionSectionHighlights:   func(context.Context, *goqu.TxDatabase, models.Submission) error { return nil },
}

func submissionColumns() []interface{} {
	return []interface{}{
		goqu.I("submissions.id"),
		goqu.I("submissions.section"),
		goqu.I("submissions.organization_id"),
		goqu.I("submissions.submitted_by"),
		goqu.I("submissions.submitted_at"),
		goqu.I("submissions.status"),
		goqu.I("submissions.previous_data"),
		goqu.I("submissions.proposed_data"),
		goqu.I("submissions.rejection_comment"),
		goqu.I("submissions.reviewed_by"),
		goqu.I("submissions.reviewed_at"),
	}
}

func submissionsWithOrganization() *goqu.SelectDataset {
	columns := append(submissionColumns(),
		goqu.I("organizations.name").As("org_name"),
		goqu.I("organizations.acronym").As("org_acronym"),
	)
	return initializers.DB.From("submissions").
		Select(columns...).
		Join(goqu.T("organizations"), goqu.On(goqu.Ex{"submissions.organization_id": goqu.I("organizations.id")}))
}

// ListPendingSubmissions returns every submission awaiting review, newest first.
func ListPendingSubmissions(ctx context.Context) ([]models.SubmissionWithOrganization, error) {
	submissions := []models.SubmissionWithOrganization{}
	err := submissionsWithOrganization().
		Where(goqu.I("submissions.status").In(models.PendingSubmissionStatuses)).
		Order(goqu.I("submissions.submitted_at").Desc()).
		ScanStructsContext(ctx, &submissions)
	return submissions, err
}

// ListOrganizationSubmissions returns one organization's submissions in any state.
func ListOrganizationSubmissions(ctx context.Context, orgID int) ([]models.SubmissionWithOrganization, error) {
	submissions := []models.SubmissionWithOrganization{}
	err := submissionsWithOrganization().
		Where(goqu.I("submissions.organization_id").Eq(orgID)).
		Order(goqu.I("submissions.submitted_at").Desc()).
		ScanStructsContext(ctx, &submissions)
	return submissions, err
}

func GetSubmission(ctx context.Context, id int) (models.Submission, error) {
	var sub models.Submission
	found, err := initializers.DB.From("submissions").
		Select(submissionColumns()...).
		Where(goqu.I("submissions.id").Eq(id)).
		ScanStructContext(ctx, &sub)
	if err != nil {
		return models.Submission{}, err
	}
	if !found {
		return models.Submission{}, ErrSubmissionNotFound
	}
	return sub, nil
}

// RecordSubmission stores a proposed change as pending.
func RecordSubmission(ctx context.Context, db inserter, sub models.Submission) (int, error) {
	if sub.Status == "" {
		sub.Status = models.SubmissionStatusPending
	}

	var id int
	_, err := db.Insert("submissions").
		Rows(sub).
		Returning("id").
		Executor().ScanValContext(ctx, &id)
	return id, err
}

// SubmitOrganizationProfile records an org profile edit with a snapshot of the live row.
func SubmitOrganizationProfile(ctx context.Context, admin models.Admin, orgID int, update models.OrganizationProfileUpdate) (int, error) {
	var current models.Organization
	found, err := initializers.DB.From("organizations").
		Where(goqu.C("id").Eq(orgID)).
		ScanStructContext(ctx, &current)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, ErrOrganizationNotFound
	}

	previous, err := models.NewJSONData(current)
	if err != nil {
		return 0, err
	}
	proposed, err := models.NewJSONData(update)
	if err != nil {
		return 0, err
	}

	return RecordSubmission(ctx, initializers.DB, models.Submission{
		Section:         models.SubmissionSectionOrganization,
		Organization_ID: orgID,
		Submitted_By:    &admin.ID,
		Previous_Data:   previous,
		Proposed_Data:   proposed,
	})
}

// SubmitTextChange records an advocacy or competency edit.
func SubmitTextChange(ctx context.Context, admin models.Admin, orgID int, section string, text string) (int, error) {
	table, column, err := textSectionTarget(section)
	if err != nil {
		return 0, err
	}

	var previous models.JSONData
	var currentText string
	found, err := initializers.DB.From(table).
		Select(column).
		Where(goqu.C("organization_id").Eq(orgID)).
		ScanValContext(ctx, &currentText)
	if err != nil {
		return 0, err
	}
	if found {
		if previous, err = models.NewJSONData(models.TextProposal{Text: currentText}); err != nil {
			return 0, err
		}
	}

	proposed, err := models.NewJSONData(models.TextProposal{Text: strings.TrimSpace(text)})
	if err != nil {
		return 0, err
	}

	return RecordSubmission(ctx, initializers.DB, models.Submission{
		Section:         section,
		Organization_ID: orgID,
		Submitted_By:    &admin.ID,
		Previous_Data:   previous,
		Proposed_Data:   proposed,
	})
}

func SubmitHighlight(ctx context.Context, admin models.Admin, orgID int, proposal models.HighlightProposal) (int, error) {
	proposed, err := models.NewJSONData(proposal)
	if err != nil {
		return 0, err
	}
	return RecordSubmission(ctx, initializers.DB, models.Submission{
		Section:         models.SubmissionSectionHighlights,
		Organization_ID: orgID,
		Submitted_By:    &admin.ID,
		Proposed_Data:   proposed,
	})
}

// ApproveSubmission applies the proposed change and marks the submission approved,
// atomically. Missing or already reviewed submissions leave every row untouched.
func ApproveSubmission(ctx context.Context, id int, reviewerID int) (models.Submission, error) {
	var sub models.Submission
	err := inTransaction(ctx, func(tx *goqu.TxDatabase) error {
		var err error
		sub, err = lockPendingSubmission(ctx, tx, id)
		if err != nil {
			return err
		}

		apply, ok := sectionAppliers[sub.Section]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSection, sub.Section)
		}
		if err := apply(ctx, tx, sub); err != nil {
			return err
		}

		return markReviewed(ctx, tx, &sub, models.SubmissionStatusApproved, reviewerID, nil)
	})
	if err != nil {
		return models.Submission{}, err
	}

	afterReview(ctx, sub, reviewerID)
	return sub, nil
}

// RejectSubmission stores the reviewer's comment and discards the proposed change.
func RejectSubmission(ctx context.Context, id int, reviewerID int, comment string) (models.Submission, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return models.Submission{}, ErrRejectionCommentRequired
	}

	var sub models.Submission
	err := inTransaction(ctx, func(tx *goqu.TxDatabase) error {
		var err error
		sub, err = lockPendingSubmission(ctx, tx, id)
		if err != nil {
			return err
		}
		return markReviewed(ctx, tx, &sub, models.SubmissionStatusRejected, reviewerID, &comment)
	})
	if err != nil {
		return models.Submission{}, err
	}

	afterReview(ctx, sub, reviewerID)
	return sub, nil
}

// SubmissionGuard vetoes a delete after the submission has been loaded.
type SubmissionGuard func(sub models.Submission) error

// DeleteSubmission hard-removes a submission in any state. Deleting a pending
// programs submission also removes the never-approved program it proposed.
func DeleteSubmission(ctx context.Context, id int, guard SubmissionGuard) (models.Submission, error) {
	var sub models.Submission
	err := inTransaction(ctx, func(tx *goqu.TxDatabase) error {
		var err error
		sub, err = lockSubmission(ctx, tx, id)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(sub); err != nil {
				return err
			}
		}

		if _, err := tx.Delete("submissions").
			Where(goqu.C("id").Eq(id)).
			Executor().ExecContext(ctx); err != nil {
			return err
		}

		if sub.Section != models.SubmissionSectionPrograms || !models.IsPendingStatus(sub.Status) {
			return nil
		}

		var proposal models.ProgramProposal
		if err := sub.Proposed_Data.Decode(&proposal); err != nil || proposal.Program_ID == 0 {
			return nil
		}
		_, err = tx.Delete("programs_projects").
			Where(
				goqu.C("id").Eq(proposal.Program_ID),
				goqu.C("is_approved").IsFalse(),
			).
			Executor().ExecContext(ctx)
		return err
	})
	if err != nil {
		return models.Submission{}, err
	}
	return sub, nil
}

// BulkReview runs the single-item operation for each id in order. A failing id
// is recorded and processing continues; there is no batch-wide transaction.
func BulkReview(ctx context.Context, action string, ids []int, reviewerID int, comment string) models.BulkResult {
	result := models.BulkResult{Failures: []models.BulkFailure{}}

	for _, id := range ids {
		var err error
		switch action {
		case models.BulkActionApprove:
			_, err = ApproveSubmission(ctx, id, reviewerID)
		case models.BulkActionReject:
			_, err = RejectSubmission(ctx, id, reviewerID, comment)
		case models.BulkActionDelete:
			_, err = DeleteSubmission(ctx, id, nil)
		default:
			err = fmt.Errorf("unknown bulk action %q", action)
		}

		if err != nil {
			result.ErrorCount++
			result.Failures = append(result.Failures, models.BulkFailure{ID: id, Error: err.Error()})
			continue
		}
		result.SuccessCount++
	}

	return result
}

func inTransaction(ctx context.Context, fn func(tx *goqu.TxDatabase) error) error {
	tx, err := initializers.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	return tx.Wrap(func() error { return fn(tx) })
}

func lockSubmission(ctx context.Context, tx *goqu.TxDatabase, id int) (models.Submission, error) {
	var sub models.Submission
	found, err := tx.From("submissions").
		Select(submissionColumns()...).
		Where(goqu.I("submissions.id").Eq(id)).
		ForUpdate(exp.Wait).
		ScanStructContext(ctx, &sub)
	if err != nil {
		return models.Submission{}, err
	}
	if !found {
		return models.Submission{}, ErrSubmissionNotFound
	}
	return sub, nil
}

func lockPendingSubmission(ctx context.Context, tx *goqu.TxDatabase, id int) (models.Submission, error) {
	sub, err := lockSubmission(ctx, tx, id)
	if err != nil {
		return models.Submission{}, err
	}
	if !models.IsPendingStatus(sub.Status) {
		return models.Submission{}, fmt.Errorf("%w (status %s)", ErrSubmissionNotPending, sub.Status)
	}
	return sub, nil
}

func markReviewed(ctx context.Context, tx *goqu.TxDatabase, sub *models.Submission, status string, reviewerID int, comment *string) error {
	now := time.Now()
	record := goqu.Record{
		"status":      status,
		"reviewed_by": reviewerID,
		"reviewed_at": now,
	}
	if comment != nil {
		record["rejection_comment"] = *comment
	}

	result, err := tx.Update("submissions").
		Set(record).
		Where(
			goqu.C("id").Eq(sub.ID),
			goqu.C("status").In(models.PendingSubmissionStatuses),
		).
		Executor().ExecContext(ctx)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrSubmissionNotPending
	}

	sub.Status = status
	sub.Reviewed_By = &reviewerID
	sub.Reviewed_At = &now
	sub.Rejection_Comment = comment
	return nil
}

func afterReview(ctx context.Context, sub models.Submission, reviewerID int) {
	approvalTransitionsTotal.WithLabelValues(sub.Section, sub.Status).Inc()

	evt := models.NotificationEvent{
		Type:            models.EventSubmissionReviewed,
		Submission_ID:   sub.ID,
		Organization_ID: sub.Organization_ID,
		Actor_Admin_ID:  reviewerID,
		Section:         sub.Section,
		Status:          sub.Status,
	}
	if sub.Rejection_Comment != nil {
		evt.Comment = *sub.Rejection_Comment
	}
	if sub.Section == models.SubmissionSectionPrograms {
		var proposal models.ProgramProposal
		if err := sub.Proposed_Data.Decode(&proposal); err == nil {
			evt.Program_ID = proposal.Program_ID
		}
	}
	notifyOrganizationAdmins(ctx, sub.Organization_ID, models.Notification{
		Type:      reviewNotificationType(sub.Status),
		Message:   reviewMessage(sub),
		Section:   sub.Section,
		Target_ID: reviewTarget(sub, evt.Program_ID),
	})
	PublishEvent(ctx, evt)
}

func reviewNotificationType(status string) string {
	if status == models.SubmissionStatusApproved {
		return models.NotificationTypeSubmissionApproved
	}
	return models.NotificationTypeSubmissionRejected
}

func reviewMessage(sub models.Submission) string {
	if sub.Status == models.SubmissionStatusApproved {
		return fmt.Sprintf("Your %s submission was approved", sub.Section)
	}
	if sub.Rejection_Comment != nil {
		return fmt.Sprintf("Your %s submission was rejected: %s", sub.Section, *sub.Rejection_Comment)
	}
	return fmt.Sprintf("Your %s submission was rejected", sub.Section)
}

func reviewTarget(sub models.Submission, programID int) *int {
	if programID > 0 {
		return &programID
	}
	id := sub.ID
	return &id
}

func applyOrganizationProfile(ctx context.Context, tx *goqu.TxDatabase, sub models.Submission) error {
	var update models.OrganizationProfileUpdate
	if err := sub.Proposed_Data.Decode(&update); err != nil {
		return fmt.Errorf("invalid organization proposal: %w", err)
	}

	record := goqu.Record{"updated_at": goqu.L("NOW()")}
	setIfPresent := func(column string, v *string) {
		if v != nil {
			record[column] = *v
		}
	}
	setIfPresent("name", update.Name)
	setIfPresent("description", update.Description)
	setIfPresent("logo", update.Logo)
	setIfPresent("email", update.Email)
	setIfPresent("facebook", update.Facebook)
	setIfPresent("mission", update.Mission)
	setIfPresent("vision", update.Vision)
	setIfPresent("org_color", update.Org_Color)

	result, err := tx.Update("organizations").
		Set(record).
		Where(goqu.C("id").Eq(sub.Organization_ID)).
		Executor().ExecContext(ctx)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrOrganizationNotFound
	}
	return nil
}

func applyTextSection(table, column string) sectionApplier {
	return func(ctx context.Context, tx *goqu.TxDatabase, sub models.Submission) error {
		var proposal models.TextProposal
		if err := sub.Proposed_Data.Decode(&proposal); err != nil {
			return fmt.Errorf("invalid %s proposal: %w", column, err)
		}

		_, err := tx.Insert(table).
			Rows(goqu.Record{
				"organization_id": sub.Organization_ID,
				column:            proposal.Text,
			}).
			OnConflict(goqu.DoUpdate("organization_id", goqu.Record{
				column:       proposal.Text,
				"updated_at": goqu.L("NOW()"),
			})).
			Executor().ExecContext(ctx)
		return err
	}
}

func applyProgramApproval(ctx context.Context, tx *goqu.TxDatabase, sub models.Submission) error {
	var proposal models.ProgramProposal
	if err := sub.Proposed_Data.Decode(&proposal); err != nil {
		return fmt.Errorf("invalid program proposal: %w", err)
	}

	result, err := tx.Update("programs_projects").
		Set(goqu.Record{
			"is_approved": true,
			"updated_at":  goqu.L("NOW()"),
		}).
		Where(
			goqu.C("id").Eq(proposal.Program_ID),
			goqu.C("organization_id").Eq(sub.Organization_ID),
		).
		Executor().ExecContext(ctx)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrProgramNotFound
	}
	return nil
}

func textSectionTarget(section string) (table string, column string, err error) {
	switch section {
	case models.SubmissionSectionAdvocacy:
		return "advocacies", "advocacy", nil
	case models.SubmissionSectionCompetency:
		return "competencies", "competency", nil
	}
	return "", "", fmt.Errorf("%w: %s", ErrUnknownSection, section)
}

// deletePendingProgramSubmissions removes the approval requests of a program
// that is itself being deleted.
func deletePendingProgramSubmissions(ctx context.Context, tx *goqu.TxDatabase, programID int) error {
	_, err := tx.Delete("submissions").
		Where(
			goqu.C("section").Eq(models.SubmissionSectionPrograms),
			goqu.C("status").In(models.PendingSubmissionStatuses),
			goqu.L("proposed_data->>'program_id'").Eq(strconv.Itoa(programID)),
		).
		Executor().ExecContext(ctx)
	return err
}
