package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"

	"github.com/FaithCommunity/initializers"
	"github.com/FaithCommunity/models"
	"github.com/doug-martin/goqu/v9"
)

var errNotifierUnavailable = errors.New("delivery channel not configured")

type eventHandler func(ctx context.Context, evt models.NotificationEvent) error

var eventHandlers = map[string]eventHandler{
	models.EventProgramCreated:         broadcastProgram,
	models.EventProgramUpdated:         broadcastProgram,
	models.EventCollaborationInvited:   emailCollaborationInvite,
	models.EventCollaborationResponded: emailCollaborationResponse,
	models.EventSubmissionReviewed:     emailSubmissionReview,
	models.EventSubscriberVerification: emailSubscriberVerification,
	models.EventAdminInvitation:        emailAdminInvitation,
}

// DispatchEvent delivers one event. Errors are returned so a queue worker can
// retry; the inline publisher only logs them.
func DispatchEvent(ctx context.Context, evt models.NotificationEvent) error {
	handler, ok := eventHandlers[evt.Type]
	if !ok {
		notificationDispatchTotal.WithLabelValues(evt.Type, "unknown").Inc()
		return fmt.Errorf("no handler for event type %q", evt.Type)
	}

	err := handler(ctx, evt)
	switch {
	case errors.Is(err, errNotifierUnavailable):
		notificationDispatchTotal.WithLabelValues(evt.Type, "skipped").Inc()
		log.Printf("[%s] Skipped %s notification: %v", evt.Request_ID, evt.Type, err)
		return nil
	case err != nil:
		notificationDispatchTotal.WithLabelValues(evt.Type, "error").Inc()
		return err
	}

	notificationDispatchTotal.WithLabelValues(evt.Type, "success").Inc()
	return nil
}

// CreateNotification inserts an in-app notification row. Failures are logged
// and never propagate to the caller's write.
func CreateNotification(ctx context.Context, n models.Notification) {
	_, err := initializers.DB.Insert("notifications").
		Rows(n).
		Executor().ExecContext(ctx)
	if err != nil {
		log.Printf("[%s] Failed to create %s notification for admin %d: %v", RequestIDFromContext(ctx), n.Type, n.Admin_ID, err)
	}
}

// notifyOrganizationAdmins creates one notification row per active admin of orgID.
func notifyOrganizationAdmins(ctx context.Context, orgID int, n models.Notification) {
	adminIDs, err := organizationAdminIDs(ctx, orgID)
	if err != nil {
		log.Printf("[%s] Failed to get admins of organization %d for notification: %v", RequestIDFromContext(ctx), orgID, err)
		return
	}

	for _, adminID := range adminIDs {
		row := n
		row.Admin_ID = adminID
		CreateNotification(ctx, row)
	}
}

func organizationAdminIDs(ctx context.Context, orgID int) ([]int, error) {
	var ids []int
	err := initializers.DB.From("admins").
		Select("id").
		Where(
			goqu.C("organization_id").Eq(orgID),
			goqu.C("is_active").IsTrue(),
		).
		ScanValsContext(ctx, &ids)
	return ids, err
}

func adminEmail(ctx context.Context, adminID int) (string, error) {
	var email string
	found, err := initializers.DB.From("admins").
		Select("email").
		Where(goqu.C("id").Eq(adminID)).
		ScanValContext(ctx, &email)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("admin %d not found", adminID)
	}
	return email, nil
}

type programSummary struct {
	ID          int    `db:"id"`
	Title       string `db:"title"`
	Slug        string `db:"slug"`
	Description string `db:"description"`
	Is_Approved bool   `db:"is_approved"`
	Org_Name    string `db:"org_name"`
}

func loadProgramSummary(ctx context.Context, programID int) (programSummary, error) {
	var p programSummary
	found, err := initializers.DB.From("programs_projects").
		Select(
			goqu.I("programs_projects.id"),
			goqu.I("programs_projects.title"),
			goqu.I("programs_projects.slug"),
			goqu.I("programs_projects.description"),
			goqu.I("programs_projects.is_approved"),
			goqu.I("organizations.name").As("org_name"),
		).
		Join(goqu.T("organizations"), goqu.On(goqu.Ex{"programs_projects.organization_id": goqu.I("organizations.id")})).
		Where(goqu.I("programs_projects.id").Eq(programID)).
		ScanStructContext(ctx, &p)
	if err != nil {
		return p, err
	}
	if !found {
		return p, fmt.Errorf("%w: %d", ErrProgramNotFound, programID)
	}
	return p, nil
}

func programLink(slug string) string {
	return fmt.Sprintf("%s/programs/%s", links.frontendBaseURL, url.PathEscape(slug))
}

// broadcastProgram mails every verified subscriber and pushes to the programs topic.
// A failed recipient is logged; the event fails only when the program or the
// subscriber list cannot be loaded.
type programAnnouncement struct {
	subject    string
	paragraphs []string
	link       string
}

// announceProgram words the subscriber broadcast. Unapproved programs have no
// public page yet, so they go out without a link.
func announceProgram(eventType string, program programSummary) programAnnouncement {
	verb := "added a new program"
	a := programAnnouncement{subject: fmt.Sprintf("New program: %s", program.Title)}
	if eventType == models.EventProgramUpdated {
		verb = "updated a program"
		a.subject = fmt.Sprintf("Program updated: %s", program.Title)
	}

	a.paragraphs = []string{fmt.Sprintf("%s %s on FAITH CommUNITY.", program.Org_Name, verb)}
	if program.Is_Approved {
		a.link = programLink(program.Slug)
	} else {
		a.paragraphs = append(a.paragraphs, "The program is awaiting approval and will appear on the site once it has been reviewed.")
	}
	a.paragraphs = append(a.paragraphs, program.Description)
	return a
}

func broadcastProgram(ctx context.Context, evt models.NotificationEvent) error {
	program, err := loadProgramSummary(ctx, evt.Program_ID)
	if err != nil {
		return err
	}

	announcement := announceProgram(evt.Type, program)

	var subscribers []models.Subscriber
	if err := initializers.DB.From("subscribers").
		Where(goqu.C("is_verified").IsTrue()).
		ScanStructsContext(ctx, &subscribers); err != nil {
		return fmt.Errorf("failed to load subscribers: %w", err)
	}

	if emailer := GetEmailService(); emailer != nil {
		sent := 0
		for _, s := range subscribers {
			msg := Email{
				To:          s.Email,
				Subject:     announcement.subject,
				Heading:     program.Title,
				Paragraphs:  announcement.paragraphs,
				ActionLabel: "View program",
				ActionURL:   announcement.link,
				FooterNote: fmt.Sprintf("You are receiving this because you subscribed to FAITH CommUNITY updates. Unsubscribe: %s/api/subscribers/unsubscribe?token=%s",
					links.apiBaseURL, url.QueryEscape(s.Unsubscribe_Token)),
			}
			if err := emailer.Send(msg); err != nil {
				log.Printf("[%s] Failed to send program broadcast to subscriber %d: %v", evt.Request_ID, s.ID, err)
				continue
			}
			sent++
		}
		log.Printf("[%s] Program %d broadcast sent to %d of %d subscribers", evt.Request_ID, program.ID, sent, len(subscribers))
	} else {
		log.Println("Email service not available")
	}

	pushService := GetPushNotificationService()
	if pushService == nil || links.programsTopic == "" {
		log.Println("Push notification service not available")
		return nil
	}

	payload := NotificationPayload{
		Title: program.Org_Name,
		Body:  announcement.subject,
		Link:  announcement.link,
		Data: map[string]string{
			"type":      evt.Type,
			"programId": strconv.Itoa(program.ID),
			"slug":      program.Slug,
		},
	}
	if err := pushService.SendToTopic(ctx, links.programsTopic, payload); err != nil {
		log.Printf("[%s] Failed to send %s push notification: %v", evt.Request_ID, evt.Type, err)
	}
	return nil
}

func emailCollaborationInvite(ctx context.Context, evt models.NotificationEvent) error {
	emailer := GetEmailService()
	if emailer == nil {
		return errNotifierUnavailable
	}

	program, err := loadProgramSummary(ctx, evt.Program_ID)
	if err != nil {
		return err
	}
	to, err := adminEmail(ctx, evt.Target_Admin_ID)
	if err != nil {
		return err
	}

	return emailer.Send(Email{
		To:      to,
		Subject: fmt.Sprintf("Collaboration invitation: %s", program.Title),
		Heading: "You have been invited to collaborate",
		Paragraphs: []string{
			fmt.Sprintf("%s invited your organization to collaborate on %q.", program.Org_Name, program.Title),
			"Open your dashboard to accept or decline the invitation.",
		},
		ActionLabel: "Review invitation",
		ActionURL:   links.frontendBaseURL + "/admin/collaborations",
	})
}

func emailCollaborationResponse(ctx context.Context, evt models.NotificationEvent) error {
	emailer := GetEmailService()
	if emailer == nil {
		return errNotifierUnavailable
	}
	if evt.Target_Admin_ID == 0 {
		return nil
	}

	program, err := loadProgramSummary(ctx, evt.Program_ID)
	if err != nil {
		return err
	}
	to, err := adminEmail(ctx, evt.Target_Admin_ID)
	if err != nil {
		return err
	}
	collaborator, err := adminEmail(ctx, evt.Actor_Admin_ID)
	if err != nil {
		return err
	}

	return emailer.Send(Email{
		To:      to,
		Subject: fmt.Sprintf("Collaboration %s: %s", evt.Status, program.Title),
		Heading: fmt.Sprintf("Invitation %s", evt.Status),
		Paragraphs: []string{
			fmt.Sprintf("%s has %s your invitation to collaborate on %q.", collaborator, evt.Status, program.Title),
		},
		ActionLabel: "Open dashboard",
		ActionURL:   links.frontendBaseURL + "/admin/programs",
	})
}

func emailSubmissionReview(ctx context.Context, evt models.NotificationEvent) error {
	emailer := GetEmailService()
	if emailer == nil {
		return errNotifierUnavailable
	}

	var recipients []string
	if err := initializers.DB.From("admins").
		Select("email").
		Where(
			goqu.C("organization_id").Eq(evt.Organization_ID),
			goqu.C("is_active").IsTrue(),
		).
		ScanValsContext(ctx, &recipients); err != nil {
		return err
	}

	paragraphs := []string{fmt.Sprintf("Your %s submission has been %s.", evt.Section, evt.Status)}
	if evt.Comment != "" {
		paragraphs = append(paragraphs, "Reviewer comment: "+evt.Comment)
	}

	var errs []error
	for _, to := range recipients {
		err := emailer.Send(Email{
			To:          to,
			Subject:     fmt.Sprintf("Submission %s", evt.Status),
			Heading:     fmt.Sprintf("Your %s submission was %s", evt.Section, evt.Status),
			Paragraphs:  paragraphs,
			ActionLabel: "Open dashboard",
			ActionURL:   links.frontendBaseURL + "/admin",
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func emailSubscriberVerification(ctx context.Context, evt models.NotificationEvent) error {
	emailer := GetEmailService()
	if emailer == nil {
		return errNotifierUnavailable
	}

	return emailer.Send(Email{
		To:      evt.Email,
		Subject: "Confirm your FAITH CommUNITY subscription",
		Heading: "Confirm your subscription",
		Paragraphs: []string{
			"Thanks for subscribing to FAITH CommUNITY program updates.",
			"Please confirm your email address to start receiving announcements.",
		},
		ActionLabel: "Confirm subscription",
		ActionURL:   fmt.Sprintf("%s/api/subscribers/verify?token=%s", links.apiBaseURL, url.QueryEscape(evt.Token)),
		FooterNote:  "If you did not request this, you can ignore this email.",
	})
}

func emailAdminInvitation(ctx context.Context, evt models.NotificationEvent) error {
	emailer := GetEmailService()
	if emailer == nil {
		return errNotifierUnavailable
	}

	return emailer.Send(Email{
		To:      evt.Email,
		Subject: "You're invited to FAITH CommUNITY",
		Heading: "Set up your organization",
		Paragraphs: []string{
			"You have been invited to manage an organization on FAITH CommUNITY.",
			"The invitation link expires in 7 days.",
		},
		ActionLabel: "Accept invitation",
		ActionURL:   fmt.Sprintf("%s/admin/invitation?token=%s", links.frontendBaseURL, url.QueryEscape(evt.Token)),
	})
}
