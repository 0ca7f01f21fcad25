package models

import "time"

// Notification type constants
const (
	NotificationTypeCollaborationInvite   = "COLLABORATION_INVITE"
	NotificationTypeCollaborationResponse = "COLLABORATION_RESPONSE"
	NotificationTypeSubmissionApproved    = "SUBMISSION_APPROVED"
	NotificationTypeSubmissionRejected    = "SUBMISSION_REJECTED"
)

type Notification struct {
	ID         int       `json:"id" goqu:"skipinsert"`
	Admin_ID   int       `json:"admin_id"`
	Type       string    `json:"type"`
	Message    string    `json:"message"`
	Section    string    `json:"section"`
	Target_ID  *int      `json:"target_id"`
	Is_Read    bool      `json:"is_read"`
	Created_At time.Time `json:"created_at" goqu:"skipinsert"`
}

// Outbound event types handed to the notifier after the primary write commits.
const (
	EventProgramCreated         = "program.created"
	EventProgramUpdated         = "program.updated"
	EventCollaborationInvited   = "collaboration.invited"
	EventCollaborationResponded = "collaboration.responded"
	EventSubmissionReviewed     = "submission.reviewed"
	EventSubscriberVerification = "subscriber.verification"
	EventAdminInvitation        = "admin.invitation"
)

type NotificationEvent struct {
	Type             string `json:"type"`
	Program_ID       int    `json:"program_id,omitempty"`
	Submission_ID    int    `json:"submission_id,omitempty"`
	Organization_ID  int    `json:"organization_id,omitempty"`
	Collaboration_ID int    `json:"collaboration_id,omitempty"`
	Actor_Admin_ID   int    `json:"actor_admin_id,omitempty"`
	Target_Admin_ID  int    `json:"target_admin_id,omitempty"`
	Section          string `json:"section,omitempty"`
	Status           string `json:"status,omitempty"`
	Comment          string `json:"comment,omitempty"`
	Email            string `json:"email,omitempty"`
	Token            string `json:"token,omitempty"`
	Request_ID       string `json:"request_id,omitempty"`
}
