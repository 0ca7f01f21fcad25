package services

import (
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/resend/resend-go/v2"
)

type EmailService struct {
	client *resend.Client
	from   string
}

var emailService *EmailService

// InitEmailService initializes the email service with Resend API
func InitEmailService(apiKey, from string) {
	if apiKey == "" {
		log.Println("WARNING: RESEND_API_KEY not set. Email service will not be available.")
		return
	}

	emailService = &EmailService{
		client: resend.NewClient(apiKey),
		from:   from,
	}

	log.Println("Email service initialized successfully with Resend")
}

// GetEmailService returns the singleton email service instance
func GetEmailService() *EmailService {
	return emailService
}

// Email is one outgoing message.
type Email struct {
	To      string
	Subject string
	Heading string
	// Paragraphs are plain text and escaped before rendering.
	Paragraphs  []string
	ActionLabel string
	ActionURL   string
	FooterNote  string
}

func (s *EmailService) Send(msg Email) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("email service not initialized")
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    renderEmailHTML(msg),
		Text:    renderEmailText(msg),
	}

	sent, err := s.client.Emails.Send(params)
	if err != nil {
		log.Printf("Failed to send %q email to %s: %v", msg.Subject, msg.To, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("Successfully sent %q email to %s. Email ID: %s", msg.Subject, msg.To, sent.Id)
	return nil
}

func renderEmailHTML(msg Email) string {
	var body strings.Builder
	for _, p := range msg.Paragraphs {
		body.WriteString("<p>")
		body.WriteString(html.EscapeString(p))
		body.WriteString("</p>\n")
	}

	action := ""
	if msg.ActionURL != "" {
		action = fmt.Sprintf(`<p class="action"><a href="%s">%s</a></p>`,
			html.EscapeString(msg.ActionURL), html.EscapeString(msg.ActionLabel))
	}

	footer := "This is an automated message from FAITH CommUNITY."
	if msg.FooterNote != "" {
		footer = msg.FooterNote
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
        }
        .header {
            text-align: center;
            padding: 20px 0;
            border-bottom: 2px solid #167c59;
        }
        .header h1 {
            color: #167c59;
            margin: 0;
        }
        .content {
            padding: 30px 0;
        }
        .action a {
            display: inline-block;
            background-color: #167c59;
            color: #fff;
            padding: 12px 24px;
            border-radius: 6px;
            text-decoration: none;
        }
        .footer {
            text-align: center;
            padding: 20px 0;
            border-top: 1px solid #ddd;
            font-size: 12px;
            color: #666;
        }
    </style>
</head>
<body>
    <div class="header">
        <h1>FAITH CommUNITY</h1>
    </div>

    <div class="content">
        <h2>%s</h2>
        %s
        %s
    </div>

    <div class="footer">
        <p>%s</p>
    </div>
</body>
</html>
`, html.EscapeString(msg.Heading), body.String(), action, footer)
}

func renderEmailText(msg Email) string {
	var b strings.Builder
	b.WriteString(msg.Heading)
	b.WriteString("\n\n")
	for _, p := range msg.Paragraphs {
		b.WriteString(p)
		b.WriteString("\n\n")
	}
	if msg.ActionURL != "" {
		fmt.Fprintf(&b, "%s: %s\n\n", msg.ActionLabel, msg.ActionURL)
	}
	b.WriteString("FAITH CommUNITY\n")
	return b.String()
}
