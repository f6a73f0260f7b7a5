package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromDriver(t *testing.T) {
	m, err := NewFromDriver("log", SMTPConfig{From: "no-reply@goshen.test"})
	require.NoError(t, err)
	assert.IsType(t, &Log{}, m)

	m, err = NewFromDriver("SMTP", SMTPConfig{Host: "localhost", Port: 1025})
	require.NoError(t, err)
	assert.IsType(t, &SMTP{}, m)

	_, err = NewFromDriver("smtp", SMTPConfig{})
	assert.ErrorIs(t, err, ErrSMTPHostPortRequired)

	_, err = NewFromDriver("carrier-pigeon", SMTPConfig{})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestSMTP_Send(t *testing.T) {
	s, err := NewSMTP(SMTPConfig{Host: "mail.goshen.test", Port: 587, From: "no-reply@goshen.test"})
	require.NoError(t, err)

	var gotAddr, gotFrom string
	var gotTo []string
	var gotRaw []byte
	s.send = func(addr string, _ smtp.Auth, from string, to []string, raw []byte) error {
		gotAddr, gotFrom, gotTo, gotRaw = addr, from, to, raw
		return nil
	}

	err = s.Send(context.Background(), Message{
		To:       []string{"ada@goshen.test"},
		Bcc:      []string{"audit@goshen.test"},
		Subject:  "Your verification PIN",
		TextBody: "Your PIN is 4821",
	})
	require.NoError(t, err)

	assert.Equal(t, "mail.goshen.test:587", gotAddr)
	assert.Equal(t, "no-reply@goshen.test", gotFrom)
	assert.Equal(t, []string{"ada@goshen.test", "audit@goshen.test"}, gotTo)

	raw := string(gotRaw)
	assert.Contains(t, raw, "Subject: Your verification PIN\r\n")
	assert.Contains(t, raw, "Content-Type: text/plain; charset=UTF-8")
	assert.NotContains(t, raw, "audit@goshen.test")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\nYour PIN is 4821"))
}

func TestSMTP_SendErrors(t *testing.T) {
	s, err := NewSMTP(SMTPConfig{Host: "mail.goshen.test", Port: 587})
	require.NoError(t, err)

	relayErr := errors.New("relay down")
	s.send = func(string, smtp.Auth, string, []string, []byte) error { return relayErr }

	assert.ErrorIs(t, s.Send(context.Background(), Message{}), ErrNoRecipients)
	assert.ErrorIs(t, s.Send(context.Background(), Message{To: []string{"a@b.c"}}), ErrSMTPNoSender)
	assert.ErrorIs(t, s.Send(context.Background(), Message{From: "x@y.z", To: []string{"a@b.c"}}), relayErr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, Message{To: []string{"a@b.c"}}), context.Canceled)
}

func TestBuildBody_Multipart(t *testing.T) {
	body, ct := buildBody(Message{TextBody: "plain", HTMLBody: "<b>html</b>"})

	require.True(t, strings.HasPrefix(ct, "multipart/alternative; boundary=goshen-boundary-"))
	boundary := strings.TrimPrefix(ct, "multipart/alternative; boundary=")
	assert.Equal(t, 3, strings.Count(body, "--"+boundary))
	assert.Contains(t, body, "plain")
	assert.Contains(t, body, "<b>html</b>")
}

func TestLog_Send(t *testing.T) {
	l := NewLog("no-reply@goshen.test")

	assert.NoError(t, l.Send(context.Background(), Message{To: []string{"ada@goshen.test"}, TextBody: "hi"}))
	assert.ErrorIs(t, l.Send(context.Background(), Message{}), ErrNoRecipients)
	assert.NoError(t, l.Close())
}
