package services

import (
	"context"
	"fmt"
	"time"

	"github.com/FaithCommunity/initializers"
	"github.com/FaithCommunity/models"
	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

// ListInvitations returns the admin's collaboration invitations, newest first.
func ListInvitations(ctx context.Context, adminID int, status string) ([]models.CollaborationInvitation, error) {
	query := initializers.DB.From("program_collaborations").
		Select(
			goqu.I("program_collaborations.id"),
			goqu.I("program_collaborations.program_id"),
			goqu.I("program_collaborations.program_title"),
			goqu.I("program_collaborations.status"),
			goqu.I("program_collaborations.invited_by_admin_id"),
			goqu.I("program_collaborations.created_at"),
			goqu.COALESCE(goqu.I("organizations.name"), "").As("inviter_org_name"),
			goqu.COALESCE(goqu.I("organizations.acronym"), "").As("inviter_org_acronym"),
		).
		LeftJoin(goqu.T("admins"), goqu.On(goqu.Ex{"program_collaborations.invited_by_admin_id": goqu.I("admins.id")})).
		LeftJoin(goqu.T("organizations"), goqu.On(goqu.Ex{"admins.organization_id": goqu.I("organizations.id")})).
		Where(goqu.I("program_collaborations.collaborator_admin_id").Eq(adminID)).
		Order(goqu.I("program_collaborations.created_at").Desc())

	if status != "" {
		query = query.Where(goqu.I("program_collaborations.status").Eq(status))
	}

	invitations := []models.CollaborationInvitation{}
	err := query.ScanStructsContext(ctx, &invitations)
	return invitations, err
}

// RespondToInvitation accepts or declines a pending invitation addressed to admin.
// Invitations addressed to someone else are reported as not found.
func RespondToInvitation(ctx context.Context, admin models.Admin, collaborationID int, accept bool) (models.ProgramCollaboration, error) {
	status := models.CollaborationStatusDeclined
	if accept {
		status = models.CollaborationStatusAccepted
	}

	var collab models.ProgramCollaboration
	err := inTransaction(ctx, func(tx *goqu.TxDatabase) error {
		found, err := tx.From("program_collaborations").
			Where(
				goqu.C("id").Eq(collaborationID),
				goqu.C("collaborator_admin_id").Eq(admin.ID),
			).
			ForUpdate(exp.Wait).
			ScanStructContext(ctx, &collab)
		if err != nil {
			return err
		}
		if !found {
			return ErrCollaborationNotFound
		}
		if collab.Status != models.CollaborationStatusPending {
			return ErrCollaborationNotPending
		}

		now := time.Now()
		if _, err := tx.Update("program_collaborations").
			Set(goqu.Record{"status": status, "responded_at": now}).
			Where(goqu.C("id").Eq(collaborationID)).
			Executor().ExecContext(ctx); err != nil {
			return err
		}
		collab.Status = status
		collab.Responded_At = &now
		return nil
	})
	if err != nil {
		return models.ProgramCollaboration{}, err
	}

	evt := models.NotificationEvent{
		Type:             models.EventCollaborationResponded,
		Program_ID:       collab.Program_ID,
		Collaboration_ID: collab.ID,
		Actor_Admin_ID:   admin.ID,
		Status:           status,
	}
	if collab.Invited_By_Admin_ID != nil {
		evt.Target_Admin_ID = *collab.Invited_By_Admin_ID
		CreateNotification(ctx, models.Notification{
			Admin_ID:  *collab.Invited_By_Admin_ID,
			Type:      models.NotificationTypeCollaborationResponse,
			Message:   fmt.Sprintf("%s %s your invitation to collaborate on %q", admin.Email, status, collab.Program_Title),
			Section:   models.SubmissionSectionPrograms,
			Target_ID: &collab.Program_ID,
		})
	}
	PublishEvent(ctx, evt)

	return collab, nil
}
