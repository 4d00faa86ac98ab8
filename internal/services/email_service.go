package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v2"

	"github.com/glotta/agency-api/internal/config"
	"github.com/glotta/agency-api/internal/models"
	"github.com/glotta/agency-api/pkg/logger"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

type EmailService struct {
	config       *config.Config
	resendClient *resend.Client
}

func NewEmailService(cfg *config.Config) *EmailService {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &EmailService{
		config:       cfg,
		resendClient: client,
	}
}

// SendPaymentInitiated notifies the designated receiver that a payment awaits
// their confirmation
func (s *EmailService) SendPaymentInitiated(ctx context.Context, receiver *models.User, record *models.PaymentRecord, project *models.Project) error {
	data := struct {
		Name        string
		ProjectName string
		Amount      float64
		Method      string
	}{
		Name:        receiver.FullName,
		ProjectName: project.Name,
		Amount:      record.Amount,
		Method:      record.Method,
	}

	body, err := s.renderTemplate("payment_initiated.html", data)
	if err != nil {
		return err
	}
	return s.send(receiver.Email, "收款待确认 / Payment awaiting confirmation", body)
}

// SendPaymentResult notifies the initiating user of the receiver's decision
func (s *EmailService) SendPaymentResult(ctx context.Context, initiator *models.User, record *models.PaymentRecord, project *models.Project, confirmed bool) error {
	data := struct {
		Name        string
		ProjectName string
		Amount      float64
		Confirmed   bool
	}{
		Name:        initiator.FullName,
		ProjectName: project.Name,
		Amount:      record.Amount,
		Confirmed:   confirmed,
	}

	body, err := s.renderTemplate("payment_result.html", data)
	if err != nil {
		return err
	}

	subject := "收款已确认 / Payment confirmed"
	if !confirmed {
		subject = "收款被拒绝 / Payment rejected"
	}
	return s.send(initiator.Email, subject, body)
}

func (s *EmailService) send(to, subject, html string) error {
	if s.config.ResendAPIKey == "" {
		logger.Debug(fmt.Sprintf("[Email] Resend disabled, skipping email to %s", to))
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}
	if _, err := s.resendClient.Emails.Send(params); err != nil {
		logger.Error(fmt.Sprintf("Failed to send email to %s: %v", to, err))
		return err
	}
	return nil
}

func (s *EmailService) renderTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/email/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}
