package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"gopkg.in/gomail.v2"

	"eventticketing/internal/domain"
)

// SESConfig holds configuration for AWS SES.
type SESConfig struct {
	Region             string
	AccessKeyID        string
	SecretAccessKey    string
	InsecureSkipVerify bool
}

// SMTPConfig holds configuration for an SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// MailerConfig holds configuration for creating a mailer.
type MailerConfig struct {
	Provider    string
	FromAddress string
	FromName    string
	SES         SESConfig
	SMTP        SMTPConfig
}

// NewMailer creates a mailer from config. Provider "ses" uses AWS SES, "smtp" an
// SMTP relay; "noop" or unknown uses a no-op mailer.
func NewMailer(config MailerConfig, logger *slog.Logger) (domain.Mailer, error) {
	switch config.Provider {
	case "ses":
		sesConfig := config.SES
		if sesConfig.InsecureSkipVerify {
			logger.Warn("TLS certificate verification is disabled for SES. Use only in development.")
		}
		httpClient := &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: sesConfig.InsecureSkipVerify,
					MinVersion:         tls.VersionTLS12,
				},
			},
		}
		awsCfg := aws.Config{
			Region: sesConfig.Region,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(
					sesConfig.AccessKeyID,
					sesConfig.SecretAccessKey,
					"",
				),
			),
			HTTPClient: httpClient,
		}
		return &sesMailer{
			client:      ses.NewFromConfig(awsCfg),
			fromAddress: config.FromAddress,
			fromName:    config.FromName,
			logger:      logger,
		}, nil
	case "smtp":
		if config.SMTP.Host == "" {
			return nil, fmt.Errorf("smtp provider requires a host")
		}
		return &smtpMailer{
			dialer:      gomail.NewDialer(config.SMTP.Host, config.SMTP.Port, config.SMTP.Username, config.SMTP.Password),
			fromAddress: config.FromAddress,
			fromName:    config.FromName,
			logger:      logger,
		}, nil
	case "noop":
		return &noopMailer{logger: logger}, nil
	default:
		logger.Warn("unknown email provider, using noop", "provider", config.Provider)
		return &noopMailer{logger: logger}, nil
	}
}

// sesAPI is the subset of the SES client used by sesMailer.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

type sesMailer struct {
	client      sesAPI
	fromAddress string
	fromName    string
	logger      *slog.Logger
}

// Send uses SendEmail for plain messages and SendRawEmail when attachments are present.
func (s *sesMailer) Send(ctx context.Context, msg *domain.EmailMessage) error {
	if len(msg.Attachments) > 0 {
		raw, err := buildMIME(s.fromAddress, s.fromName, msg)
		if err != nil {
			return err
		}
		result, err := s.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
			RawMessage: &types.RawMessage{Data: raw},
		})
		if err != nil {
			return fmt.Errorf("failed to send raw email via SES: %w", err)
		}
		s.logger.InfoContext(ctx, "email sent via SES", "message_id", aws.ToString(result.MessageId), "to", msg.To)
		return nil
	}

	source := s.fromAddress
	if s.fromName != "" {
		source = fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
	}
	input := &ses.SendEmailInput{
		Source: aws.String(source),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(msg.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{},
		},
	}
	if msg.HTML != "" {
		input.Message.Body.Html = &types.Content{
			Data:    aws.String(msg.HTML),
			Charset: aws.String("UTF-8"),
		}
	}
	if msg.Text != "" {
		input.Message.Body.Text = &types.Content{
			Data:    aws.String(msg.Text),
			Charset: aws.String("UTF-8"),
		}
	}
	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email via SES: %w", err)
	}
	s.logger.InfoContext(ctx, "email sent via SES", "message_id", aws.ToString(result.MessageId), "to", msg.To)
	return nil
}

type smtpMailer struct {
	dialer      *gomail.Dialer
	fromAddress string
	fromName    string
	logger      *slog.Logger
}

func (s *smtpMailer) Send(ctx context.Context, msg *domain.EmailMessage) error {
	m := newGomailMessage(s.fromAddress, s.fromName, msg)
	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email via SMTP: %w", err)
		}
		s.logger.InfoContext(ctx, "email sent via SMTP", "to", msg.To)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send email via SMTP: %w", ctx.Err())
	}
}

type noopMailer struct {
	logger *slog.Logger
}

func (n *noopMailer) Send(ctx context.Context, msg *domain.EmailMessage) error {
	n.logger.InfoContext(ctx, "email would be sent (noop)", "to", msg.To, "subject", msg.Subject, "attachments", len(msg.Attachments))
	return nil
}

// newGomailMessage builds a multipart message: text with an HTML alternative,
// and attachments with a ContentID embedded inline.
func newGomailMessage(fromAddress, fromName string, msg *domain.EmailMessage) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", fromAddress, fromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	switch {
	case msg.Text != "" && msg.HTML != "":
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		m.SetBody("text/html", msg.HTML)
	default:
		m.SetBody("text/plain", msg.Text)
	}
	for _, att := range msg.Attachments {
		data := att.Data
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		}
		header := map[string][]string{}
		if att.ContentType != "" {
			header["Content-Type"] = []string{att.ContentType}
		}
		if att.ContentID != "" {
			header["Content-ID"] = []string{"<" + att.ContentID + ">"}
			settings = append(settings, gomail.SetHeader(header))
			m.Embed(att.Filename, settings...)
			continue
		}
		settings = append(settings, gomail.SetHeader(header))
		m.Attach(att.Filename, settings...)
	}
	return m
}

func buildMIME(fromAddress, fromName string, msg *domain.EmailMessage) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := newGomailMessage(fromAddress, fromName, msg).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("build MIME message: %w", err)
	}
	return buf.Bytes(), nil
}
