package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/goshen/internal/pkg/clock"
	"github.com/shandysiswandi/goshen/internal/pkg/config"
	"github.com/shandysiswandi/goshen/internal/pkg/instrument"
	"github.com/shandysiswandi/goshen/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentAlert struct {
	kind    string
	to      string
	subject string
	body    string
}

type captureMail struct {
	msgs []sentAlert
	err  error
}

func (c *captureMail) SendAlert(_ context.Context, kind, to, subject, body string) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, sentAlert{kind: kind, to: to, subject: subject, body: body})
	return nil
}

func newUsecase(t *testing.T, m *captureMail) *Usecase {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
app:
  name: Goshen
modules:
  notification:
    support_email: support@goshen.test
`))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	return NewNotification(Dependency{
		Config:     cfg,
		Clock:      clock.NewManual(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)),
		Validator:  v,
		RepoMail:   m,
		Instrument: instrument.NewNoop(),
	})
}

func TestConsumeSecurityAlert_Lockout(t *testing.T) {
	m := &captureMail{}
	uc := newUsecase(t, m)

	require.NoError(t, uc.ConsumeSecurityAlert(context.Background(), ConsumeSecurityAlertInput{
		Kind:       "lockout",
		IdentityID: "user-1",
		Email:      "user1@goshen.test",
		OccurredAt: time.Date(2026, 3, 1, 9, 58, 0, 0, time.UTC),
	}))

	require.Len(t, m.msgs, 1)
	msg := m.msgs[0]
	assert.Equal(t, "lockout", msg.kind)
	assert.Equal(t, "user1@goshen.test", msg.to)
	assert.Equal(t, "Your account is temporarily locked", msg.subject)
	assert.Contains(t, msg.body, "Goshen account")
	assert.Contains(t, msg.body, "1 Mar 2026 09:58 UTC")
	assert.Contains(t, msg.body, "in 15 minutes")
	assert.Contains(t, msg.body, "support@goshen.test")
}

func TestConsumeSecurityAlert_Skipped(t *testing.T) {
	tests := []struct {
		name string
		in   ConsumeSecurityAlertInput
	}{
		{
			name: "kind without email",
			in:   ConsumeSecurityAlertInput{Kind: "verified", IdentityID: "user-1", Email: "user1@goshen.test", OccurredAt: time.Now()},
		},
		{
			name: "invalid email",
			in:   ConsumeSecurityAlertInput{Kind: "lockout", IdentityID: "user-1", Email: "nope", OccurredAt: time.Now()},
		},
		{
			name: "blank identity",
			in:   ConsumeSecurityAlertInput{Kind: "lockout", IdentityID: "  ", Email: "user1@goshen.test", OccurredAt: time.Now()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &captureMail{}
			require.NoError(t, newUsecase(t, m).ConsumeSecurityAlert(context.Background(), tt.in))
			assert.Empty(t, m.msgs)
		})
	}
}

func TestConsumeSecurityAlert_SendError(t *testing.T) {
	m := &captureMail{err: errors.New("smtp: 421 try later")}

	err := newUsecase(t, m).ConsumeSecurityAlert(context.Background(), ConsumeSecurityAlertInput{
		Kind:       "lockout",
		IdentityID: "user-1",
		Email:      "user1@goshen.test",
		OccurredAt: time.Now(),
	})
	assert.EqualError(t, err, "smtp: 421 try later")
}
