package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lulus/backend/internal/models"
	"github.com/lulus/backend/internal/roster"
)

type SendGridMailer struct {
	APIKey     string
	FromEmail  string
	ToEmail    string
	HTTPClient *http.Client
	Endpoint   string
}

func NewSendGridMailer(apiKey string, fromEmail string, toEmail string) *SendGridMailer {
	return &SendGridMailer{
		APIKey:    strings.TrimSpace(apiKey),
		FromEmail: strings.TrimSpace(fromEmail),
		ToEmail:   strings.TrimSpace(toEmail),
		Endpoint:  "https://api.sendgrid.com/v3/mail/send",
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type sendGridEmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridPersonalization struct {
	To      []sendGridEmailAddress `json:"to"`
	Subject string                 `json:"subject"`
}

type sendGridMailSendRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridEmailAddress      `json:"from"`
	Content          []sendGridContent         `json:"content"`
}

// SendBirthdayReminder mails the group about an upcoming birthday. daysUntil
// of 0 means the birthday is today.
func (m *SendGridMailer) SendBirthdayReminder(ctx context.Context, p models.Participant, daysUntil int) error {
	if m == nil {
		return fmt.Errorf("sendgrid mailer not configured")
	}
	if m.APIKey == "" {
		return fmt.Errorf("missing SENDGRID_API_KEY")
	}
	if m.FromEmail == "" {
		return fmt.Errorf("missing REMINDER_FROM_EMAIL")
	}
	if m.ToEmail == "" {
		return fmt.Errorf("missing REMINDER_TO_EMAIL")
	}

	var subject string
	switch daysUntil {
	case 0:
		subject = fmt.Sprintf("🎂 Hoje é aniversário de %s!", p.Name)
	case 1:
		subject = fmt.Sprintf("Amanhã é aniversário de %s", p.Name)
	default:
		subject = fmt.Sprintf("Faltam %d dias para o aniversário de %s", daysUntil, p.Name)
	}

	sign := roster.SignFor(p.Date)
	plain := fmt.Sprintf(
		"%s (%s) faz aniversário em %s.\nSigno: %s %s\n",
		p.FullName,
		p.City,
		roster.FormatDayMonth(p.Date),
		sign.Label,
		sign.Icon,
	)

	reqBody := sendGridMailSendRequest{
		Personalizations: []sendGridPersonalization{
			{
				To:      []sendGridEmailAddress{{Email: m.ToEmail}},
				Subject: subject,
			},
		},
		From: sendGridEmailAddress{
			Email: m.FromEmail,
			Name:  "Lembrete de Aniversários",
		},
		Content: []sendGridContent{
			{Type: "text/plain", Value: plain},
		},
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := m.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// SendGrid returns 202 Accepted on success.
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("sendgrid mail send http %d", resp.StatusCode)
	}
	return nil
}
