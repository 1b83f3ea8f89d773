package services

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"

	"github.com/vennapp/venner/internal/config"
	"github.com/vennapp/venner/internal/logging"
)

// Email is one outbound message.
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// EmailProvider is the interface for sending emails
type EmailProvider interface {
	Send(ctx context.Context, email *Email) error
}

// EmailService sends the friend-request notification mails. Mail is a side
// channel only; no user flow depends on delivery.
type EmailService struct {
	provider    EmailProvider
	db          DBConn
	fromAddress string
	fromName    string
}

// NewEmailService creates an email service based on configuration.
func NewEmailService(cfg *config.EmailConfig, db DBConn) *EmailService {
	var provider EmailProvider

	switch cfg.Provider {
	case "resend":
		provider = NewResendProvider(cfg.ResendAPIKey, cfg.FromName, cfg.FromAddress)
	case "smtp":
		provider = NewSMTPProvider(cfg.SMTPHost, cfg.SMTPPort, cfg.FromName, cfg.FromAddress)
	default:
		provider = NewConsoleProvider()
	}

	return &EmailService{
		provider:    provider,
		db:          db,
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
	}
}

// SendFriendRequestEmail mails the recipient that requesterName wants to be
// friends. Failures are returned for logging but never block the request.
func (s *EmailService) SendFriendRequestEmail(ctx context.Context, recipientID uuid.UUID, requesterName string) error {
	var email string
	err := s.db.QueryRow(ctx, "SELECT email FROM users WHERE id = $1", recipientID).Scan(&email)
	if err != nil {
		return fmt.Errorf("looking up recipient email: %w", err)
	}

	subject := fmt.Sprintf("%s har sendt dig en venneanmodning", requesterName)
	text := fmt.Sprintf("Hej!\n\n%s vil gerne være venner med dig på Venner.\n\nLog ind for at svare på anmodningen.\n", requesterName)
	html := fmt.Sprintf(
		"<p>Hej!</p><p><strong>%s</strong> vil gerne være venner med dig på Venner.</p><p>Log ind for at svare på anmodningen.</p>",
		requesterName,
	)

	return s.provider.Send(ctx, &Email{
		To:      email,
		Subject: subject,
		HTML:    html,
		Text:    text,
	})
}

// ResendProvider delivers through the Resend API.
type ResendProvider struct {
	client *resend.Client
	from   string
}

func NewResendProvider(apiKey, fromName, fromAddress string) *ResendProvider {
	return &ResendProvider{
		client: resend.NewClient(apiKey),
		from:   fmt.Sprintf("%s <%s>", fromName, fromAddress),
	}
}

func (p *ResendProvider) Send(ctx context.Context, email *Email) error {
	_, err := p.client.Emails.Send(&resend.SendEmailRequest{
		From:    p.from,
		To:      []string{email.To},
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
	})
	if err != nil {
		return fmt.Errorf("sending email via Resend: %w", err)
	}

	logging.Info("Email sent", map[string]interface{}{
		"provider": "resend", "to": email.To, "subject": email.Subject,
	})
	return nil
}

// SMTPProvider delivers over plain SMTP, pointed at Mailpit in local dev.
type SMTPProvider struct {
	host        string
	port        int
	fromName    string
	fromAddress string
}

func NewSMTPProvider(host string, port int, fromName, fromAddress string) *SMTPProvider {
	return &SMTPProvider{host: host, port: port, fromName: fromName, fromAddress: fromAddress}
}

func (p *SMTPProvider) Send(ctx context.Context, email *Email) error {
	headers := []string{
		fmt.Sprintf("From: %s <%s>", p.fromName, p.fromAddress),
		"To: " + email.To,
		"Subject: " + email.Subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=utf-8",
	}

	var msg bytes.Buffer
	for _, h := range headers {
		msg.WriteString(h)
		msg.WriteString("\r\n")
	}
	msg.WriteString("\r\n")
	msg.WriteString(email.HTML)

	addr := fmt.Sprintf("%s:%d", p.host, p.port)
	if err := smtp.SendMail(addr, nil, p.fromAddress, []string{email.To}, msg.Bytes()); err != nil {
		return fmt.Errorf("sending email via SMTP: %w", err)
	}

	logging.Info("Email sent", map[string]interface{}{
		"provider": "smtp", "to": email.To, "subject": email.Subject,
	})
	return nil
}

// ConsoleProvider prints mails to stdout instead of sending them.
type ConsoleProvider struct{}

func NewConsoleProvider() *ConsoleProvider {
	return &ConsoleProvider{}
}

func (p *ConsoleProvider) Send(ctx context.Context, email *Email) error {
	fmt.Printf("\n--- email to %s ---\nSubject: %s\n\n%s\n--- end ---\n\n", email.To, email.Subject, email.Text)
	return nil
}
