package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/vitrinelabs/vitrine/internal/models"
)

// AlertMailer sends critical security event notifications using AWS SES
type AlertMailer struct {
	sesClient   *ses.Client
	fromAddress string
	toAddress   string
	logger      *slog.Logger
}

// NewAlertMailer creates a new AWS SES alert mailer
func NewAlertMailer(region, fromAddress, toAddress string, logger *slog.Logger) (*AlertMailer, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AlertMailer{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		toAddress:   toAddress,
		logger:      logger,
	}, nil
}

// NotifyCriticalEvent sends an email describing the event
func (m *AlertMailer) NotifyCriticalEvent(ctx context.Context, event *models.SecurityEvent) error {
	userAgent := "N/A"
	if event.UserAgent != nil {
		userAgent = *event.UserAgent
	}

	subject := fmt.Sprintf("[SECURITY ALERT] %s from %s", event.EventType, event.IP)
	textBody := fmt.Sprintf(`A critical security event was recorded.

Event Type:  %s
Severity:    %s
IP Address:  %s
User Agent:  %s
Endpoint:    %s %s
Blocked:     %t
Description: %s
Recorded At: %s

This is an automated message.
`,
		event.EventType,
		event.Severity,
		event.IP,
		userAgent,
		event.Method,
		event.Endpoint,
		event.Blocked,
		event.Description,
		event.CreatedAt.Format(time.RFC3339),
	)

	input := &ses.SendEmailInput{
		Source: aws.String(m.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{m.toAddress},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := m.sesClient.SendEmail(ctx, input)
	if err != nil {
		m.logger.Error("failed to send security alert via SES",
			slog.String("event_type", event.EventType),
			slog.Any("error", err))
		return fmt.Errorf("failed to send alert email: %w", err)
	}

	m.logger.Info("security alert email sent",
		slog.String("event_type", event.EventType),
		slog.String("message_id", *result.MessageId))

	return nil
}
