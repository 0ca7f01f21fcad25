package models

import "time"

const (
	CollaborationStatusPending  = "pending"
	CollaborationStatusAccepted = "accepted"
	CollaborationStatusDeclined = "declined"
)

type ProgramCollaboration struct {
	ID                    int        `json:"id" goqu:"skipinsert"`
	Program_ID            int        `json:"program_id"`
	Collaborator_Admin_ID int        `json:"collaborator_admin_id"`
	Invited_By_Admin_ID   *int       `json:"invited_by_admin_id"`
	Status                string     `json:"status"`
	Program_Title         string     `json:"program_title"`
	Created_At            time.Time  `json:"created_at" goqu:"skipinsert"`
	Responded_At          *time.Time `json:"responded_at" goqu:"skipinsert"`
}

// ProgramCollaborator is a collaboration row joined with the collaborator's organization.
type ProgramCollaborator struct {
	Collaboration_ID      int    `json:"collaboration_id"`
	Program_ID            int    `json:"program_id"`
	Collaborator_Admin_ID int    `json:"collaborator_admin_id"`
	Status                string `json:"status"`
	Org_Name              string `json:"org_name"`
	Org_Acronym           string `json:"org_acronym"`
	Org_Logo              string `json:"org_logo"`
}

// CollaborationInvitation is what an invitee sees in their inbox.
type CollaborationInvitation struct {
	ID                  int       `json:"id"`
	Program_ID          int       `json:"program_id"`
	Program_Title       string    `json:"program_title"`
	Status              string    `json:"status"`
	Invited_By_Admin_ID *int      `json:"invited_by_admin_id"`
	Inviter_Org_Name    string    `json:"inviter_org_name"`
	Inviter_Org_Acronym string    `json:"inviter_org_acronym"`
	Created_At          time.Time `json:"created_at"`
}
