package queue

import (
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	sent []EmailNotification
	err  error
}

func (m *recordingMailer) Send(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, EmailNotification{To: to, Subject: subject, Body: body})
	return nil
}

func TestHandleMessage_DeliversEvent(t *testing.T) {
	ev := EmailNotification{
		Kind:     KindPriceAlert,
		To:       "a@x.com",
		Subject:  "Price drop",
		Body:     "Cheese is 4.99",
		QueuedAt: time.Now().UTC().Format(time.RFC3339),
	}
	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	m := &recordingMailer{}
	require.NoError(t, handleMessage(raw, m))

	require.Len(t, m.sent, 1)
	assert.Equal(t, "a@x.com", m.sent[0].To)
	assert.Equal(t, "Price drop", m.sent[0].Subject)
	assert.Equal(t, "Cheese is 4.99", m.sent[0].Body)
}

func TestHandleMessage_BadPayload(t *testing.T) {
	m := &recordingMailer{}
	err := handleMessage([]byte("{not json"), m)
	assert.Error(t, err)
	assert.Empty(t, m.sent)
}

func TestHandleMessage_MailerFailurePropagates(t *testing.T) {
	raw, err := json.Marshal(EmailNotification{Kind: KindPasswordReset, To: "a@x.com"})
	require.NoError(t, err)

	m := &recordingMailer{err: errors.New("smtp down")}
	assert.Error(t, handleMessage(raw, m))
}

func TestLogMailer_WritesFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, LogMailer{}.Send("a@x.com", "Hello", "body"))
	require.NoError(t, LogMailer{}.Send("b@x.com", "Again", "body"))
}
