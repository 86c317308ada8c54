package contact

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-site/internal/logging"
)

type recordingMailer struct {
	mu    sync.Mutex
	sent  []Email
	errAt map[int]error
}

func (m *recordingMailer) Send(_ context.Context, email Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := len(m.sent)
	m.sent = append(m.sent, email)
	return m.errAt[idx]
}

func validSubmission() Submission {
	return Submission{Name: "Ada Lovelace", Email: "ada@example.com", Message: "Hello there,\nlet's <build> something."}
}

func newTestService(m Mailer, autoReply bool) *Service {
	return NewService(m, Options{From: "Portfolio <site@example.com>", Owner: "owner@example.com", AutoReply: autoReply}, logging.Nop())
}

func TestSubmitSendsNotificationAndAutoReply(t *testing.T) {
	t.Parallel()

	m := &recordingMailer{}
	res := newTestService(m, true).Submit(context.Background(), validSubmission())

	assert.Equal(t, Result{Success: true, Message: MessageSent, Outcome: "sent"}, res)
	require.Len(t, m.sent, 2)

	owner := m.sent[0]
	assert.Equal(t, []string{"owner@example.com"}, owner.To)
	assert.Equal(t, "ada@example.com", owner.ReplyTo)
	assert.Equal(t, "New contact form submission from Ada Lovelace", owner.Subject)
	assert.Contains(t, owner.Text, "Email: ada@example.com")
	assert.Contains(t, owner.HTML, "Hello there,<br>let&#39;s &lt;build&gt; something.")

	reply := m.sent[1]
	assert.Equal(t, []string{"ada@example.com"}, reply.To)
	assert.Equal(t, "owner@example.com", reply.ReplyTo)
}

func TestSubmitAutoReplyFailureStillSucceeds(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := logging.New(logging.Options{Writer: buf})
	require.NoError(t, err)

	m := &recordingMailer{errAt: map[int]error{1: errors.New("bounced")}}
	svc := NewService(m, Options{From: "a@example.com", Owner: "o@example.com", AutoReply: true}, log)
	res := svc.Submit(context.Background(), validSubmission())

	assert.True(t, res.Success)
	assert.Contains(t, buf.String(), "contact_auto_reply_failed")
}

func TestSubmitNotificationFailure(t *testing.T) {
	t.Parallel()

	m := &recordingMailer{errAt: map[int]error{0: errors.New("provider down")}}
	res := newTestService(m, true).Submit(context.Background(), validSubmission())

	assert.Equal(t, Result{Success: false, Message: MessageFailed, Outcome: "error"}, res)
	assert.Len(t, m.sent, 1)
}

func TestSubmitWithoutAutoReply(t *testing.T) {
	t.Parallel()

	m := &recordingMailer{}
	res := newTestService(m, false).Submit(context.Background(), validSubmission())
	assert.True(t, res.Success)
	assert.Len(t, m.sent, 1)
}

func TestSubmitValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Submission)
		wantOK  bool
		wantMsg string
	}{
		{name: "name one char", mutate: func(s *Submission) { s.Name = "A" }, wantMsg: "Name must be at least 2 characters"},
		{name: "name two chars", mutate: func(s *Submission) { s.Name = "Al" }, wantOK: true},
		{name: "empty name", mutate: func(s *Submission) { s.Name = "" }, wantMsg: "Name must be at least 2 characters"},
		{name: "invalid email", mutate: func(s *Submission) { s.Email = "not-an-email" }, wantMsg: "Please enter a valid email"},
		{name: "email missing domain", mutate: func(s *Submission) { s.Email = "ada@" }, wantMsg: "Please enter a valid email"},
		{name: "message nine chars", mutate: func(s *Submission) { s.Message = strings.Repeat("x", 9) }, wantMsg: "Message must be at least 10 characters"},
		{name: "message ten chars", mutate: func(s *Submission) { s.Message = strings.Repeat("x", 10) }, wantOK: true},
		{name: "first failing field wins", mutate: func(s *Submission) { s.Name = "A"; s.Message = "short" }, wantMsg: "Name must be at least 2 characters"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sub := validSubmission()
			tt.mutate(&sub)
			m := &recordingMailer{}
			res := newTestService(m, false).Submit(context.Background(), sub)

			if tt.wantOK {
				assert.True(t, res.Success)
				assert.Len(t, m.sent, 1)
				return
			}
			assert.False(t, res.Success)
			assert.Equal(t, "invalid", res.Outcome)
			assert.Equal(t, tt.wantMsg, res.Message)
			assert.Empty(t, m.sent)
		})
	}
}

func TestLogMailer(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := logging.New(logging.Options{Writer: buf})
	require.NoError(t, err)

	m := NewLogMailer(log)
	require.NoError(t, m.Send(context.Background(), Email{To: []string{"x@example.com"}, Subject: "hi"}))
	assert.Contains(t, buf.String(), "email_logged")
	assert.ErrorIs(t, m.Send(context.Background(), Email{}), ErrNoRecipient)
}

func TestResendMailerRejectsMissingRecipient(t *testing.T) {
	t.Parallel()

	err := NewResendMailer("re_test").Send(context.Background(), Email{})
	assert.ErrorIs(t, err, ErrNoRecipient)
}
