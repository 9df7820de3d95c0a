package provider

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"regexp"

	"github.com/google/uuid"
	"github.com/mrz1836/postmark"

	"github.com/yapplr/notify"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	// ErrInvalidEmailConfig indicates missing or malformed email
	// provider configuration.
	ErrInvalidEmailConfig = errors.New("provider: invalid email configuration")

	// ErrEmailSendFailed wraps postmark delivery failures.
	ErrEmailSendFailed = errors.New("provider: email send failed")
)

// EmailConfig configures the postmark-backed mailer.
type EmailConfig struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL"`
	SupportEmail         string `env:"SUPPORT_EMAIL"`
}

// Mailer sends one rendered notification email.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

// Directory resolves a user id to their email address. The API's user
// service implements this against its own storage.
type Directory interface {
	EmailFor(ctx context.Context, userID uuid.UUID) (string, error)
}

// PostmarkMailer delivers through Postmark's transactional API.
type PostmarkMailer struct {
	client *postmark.Client
	cfg    EmailConfig
}

// NewPostmarkMailer validates the config and builds the mailer.
func NewPostmarkMailer(cfg EmailConfig) (*PostmarkMailer, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidEmailConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", ErrInvalidEmailConfig)
	}
	if !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid address", ErrInvalidEmailConfig)
	}
	if cfg.SupportEmail != "" && !emailRegex.MatchString(cfg.SupportEmail) {
		return nil, fmt.Errorf("%w: SupportEmail must be a valid address", ErrInvalidEmailConfig)
	}

	return &PostmarkMailer{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		cfg:    cfg,
	}, nil
}

func (m *PostmarkMailer) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	resp, err := m.client.SendEmail(ctx, postmark.Email{
		From:       m.cfg.SenderEmail,
		ReplyTo:    m.cfg.SupportEmail,
		To:         to,
		Subject:    subject,
		Tag:        "notification",
		HTMLBody:   htmlBody,
		TrackOpens: true,
	})
	if err != nil {
		return errors.Join(ErrEmailSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrEmailSendFailed,
			fmt.Errorf("postmark error %d: %s", resp.ErrorCode, resp.Message))
	}
	return nil
}

// EmailProvider is the fallback channel for notifications important
// enough to interrupt someone's inbox. It only handles High and
// Critical priorities; everything else returns false untouched.
type EmailProvider struct {
	mailer    Mailer
	directory Directory
	log       *slog.Logger
}

// EmailOption configures the provider.
type EmailOption func(*EmailProvider)

// WithEmailLogger attaches a logger for delivery diagnostics.
func WithEmailLogger(log *slog.Logger) EmailOption {
	return func(p *EmailProvider) {
		if log != nil {
			p.log = log
		}
	}
}

// NewEmailProvider creates the provider. A nil mailer (no postmark
// tokens configured) makes it report unavailable.
func NewEmailProvider(mailer Mailer, directory Directory, opts ...EmailOption) *EmailProvider {
	p := &EmailProvider{
		mailer:    mailer,
		directory: directory,
		log:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *EmailProvider) Name() string {
	return "email"
}

func (p *EmailProvider) Available(ctx context.Context) bool {
	return p.mailer != nil && p.directory != nil
}

func (p *EmailProvider) Send(ctx context.Context, req notify.DeliveryRequest) bool {
	if p.mailer == nil || p.directory == nil {
		return false
	}
	if req.Priority < notify.PriorityHigh {
		return false
	}

	to, err := p.directory.EmailFor(ctx, req.UserID)
	if err != nil || to == "" {
		p.log.DebugContext(ctx, "no email address for user",
			slog.String("user_id", req.UserID.String()),
			slog.Any("error", err),
		)
		return false
	}

	if err := p.mailer.SendEmail(ctx, to, req.Title, renderEmailBody(req)); err != nil {
		p.log.DebugContext(ctx, "email delivery failed",
			slog.String("user_id", req.UserID.String()),
			slog.Any("error", err),
		)
		return false
	}
	return true
}

func renderEmailBody(req notify.DeliveryRequest) string {
	return fmt.Sprintf(
		"<h2>%s</h2><p>%s</p><p style=\"color:#666;font-size:12px\">Notification type: %s</p>",
		html.EscapeString(req.Title),
		html.EscapeString(req.Body),
		html.EscapeString(req.Type),
	)
}
