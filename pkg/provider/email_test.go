package provider_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yapplr/notify"
	"github.com/yapplr/notify/pkg/provider"
)

type fakeMailer struct {
	sent []sentEmail
	err  error
}

type sentEmail struct {
	to      string
	subject string
	body    string
}

func (m *fakeMailer) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{to: to, subject: subject, body: htmlBody})
	return nil
}

type fakeDirectory struct {
	emails map[uuid.UUID]string
	err    error
}

func (d *fakeDirectory) EmailFor(ctx context.Context, userID uuid.UUID) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	return d.emails[userID], nil
}

func TestEmailProviderSendsHighPriority(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	mailer := &fakeMailer{}
	dir := &fakeDirectory{emails: map[uuid.UUID]string{userID: "user@example.com"}}
	p := provider.NewEmailProvider(mailer, dir)

	req := notify.DeliveryRequest{
		UserID:   userID,
		Type:     notify.TypeSystem,
		Title:    "Account security alert",
		Body:     "A new device signed in to your account.",
		Priority: notify.PriorityCritical,
	}

	require.True(t, p.Send(context.Background(), req))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "user@example.com", mailer.sent[0].to)
	assert.Equal(t, "Account security alert", mailer.sent[0].subject)
	assert.Contains(t, mailer.sent[0].body, "A new device signed in")
}

func TestEmailProviderSkipsLowerPriorities(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	mailer := &fakeMailer{}
	dir := &fakeDirectory{emails: map[uuid.UUID]string{userID: "user@example.com"}}
	p := provider.NewEmailProvider(mailer, dir)

	for _, prio := range []notify.Priority{notify.PriorityLow, notify.PriorityNormal} {
		req := notify.DeliveryRequest{UserID: userID, Type: notify.TypeLike, Title: "like", Priority: prio}
		assert.False(t, p.Send(context.Background(), req), "priority %s must not email", prio)
	}
	assert.Empty(t, mailer.sent)
}

func TestEmailProviderEscapesContent(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	mailer := &fakeMailer{}
	dir := &fakeDirectory{emails: map[uuid.UUID]string{userID: "user@example.com"}}
	p := provider.NewEmailProvider(mailer, dir)

	req := notify.DeliveryRequest{
		UserID:   userID,
		Type:     notify.TypeSystem,
		Title:    `<b>bold</b>`,
		Body:     `a & b < c`,
		Priority: notify.PriorityHigh,
	}

	require.True(t, p.Send(context.Background(), req))
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].body, "&lt;b&gt;bold&lt;/b&gt;")
	assert.Contains(t, mailer.sent[0].body, "a &amp; b &lt; c")
}

func TestEmailProviderNoAddress(t *testing.T) {
	t.Parallel()

	mailer := &fakeMailer{}
	p := provider.NewEmailProvider(mailer, &fakeDirectory{emails: map[uuid.UUID]string{}})

	req := notify.DeliveryRequest{UserID: uuid.New(), Type: notify.TypeSystem, Priority: notify.PriorityHigh}
	assert.False(t, p.Send(context.Background(), req))
	assert.Empty(t, mailer.sent)
}

func TestEmailProviderDirectoryError(t *testing.T) {
	t.Parallel()

	p := provider.NewEmailProvider(&fakeMailer{}, &fakeDirectory{err: errors.New("user service down")})
	req := notify.DeliveryRequest{UserID: uuid.New(), Type: notify.TypeSystem, Priority: notify.PriorityHigh}
	assert.False(t, p.Send(context.Background(), req))
}

func TestEmailProviderAvailability(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.False(t, provider.NewEmailProvider(nil, nil).Available(ctx))
	assert.False(t, provider.NewEmailProvider(&fakeMailer{}, nil).Available(ctx))
	assert.True(t, provider.NewEmailProvider(&fakeMailer{}, &fakeDirectory{}).Available(ctx))
	assert.Equal(t, "email", provider.NewEmailProvider(nil, nil).Name())
}

func TestNewPostmarkMailerValidation(t *testing.T) {
	t.Parallel()

	_, err := provider.NewPostmarkMailer(provider.EmailConfig{})
	assert.ErrorIs(t, err, provider.ErrInvalidEmailConfig)

	_, err = provider.NewPostmarkMailer(provider.EmailConfig{
		PostmarkServerToken:  "server",
		PostmarkAccountToken: "account",
		SenderEmail:          "not-an-email",
	})
	assert.ErrorIs(t, err, provider.ErrInvalidEmailConfig)

	m, err := provider.NewPostmarkMailer(provider.EmailConfig{
		PostmarkServerToken:  "server",
		PostmarkAccountToken: "account",
		SenderEmail:          "notifications@yapplr.com",
		SupportEmail:         "support@yapplr.com",
	})
	require.NoError(t, err)
	assert.NotNil(t, m)
}
