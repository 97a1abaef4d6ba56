package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Amar2502/portfolio-backend/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResendServer(t *testing.T, status int, response string, got *ResendEmailRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if got != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)
	return server
}

func testSenderConfig(endpoint string) map[string]string {
	return map[string]string{
		"RESEND_API_KEY":    "re_test",
		"RESEND_FROM_EMAIL": "Portfolio <hello@example.com>",
		"RESEND_ENDPOINT":   endpoint,
	}
}

func TestEmailSenderSend(t *testing.T) {
	var got ResendEmailRequest
	server := newResendServer(t, http.StatusOK, `{"id":"email_123"}`, &got)

	sender, err := NewEmailSender(testSenderConfig(server.URL))
	require.NoError(t, err)

	id, err := sender.Send(context.Background(), Email{
		To:      []string{"owner@example.com"},
		Subject: "Hi",
		HTML:    "<p>Hello</p>",
		ReplyTo: "visitor@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "email_123", id)

	assert.Equal(t, "Portfolio <hello@example.com>", got.From)
	assert.Equal(t, []string{"owner@example.com"}, got.To)
	assert.Equal(t, []string{"visitor@example.com"}, got.ReplyTo)
	assert.Equal(t, "<p>Hello</p>", got.Html)
}

func TestEmailSenderAPIError(t *testing.T) {
	server := newResendServer(t, http.StatusUnprocessableEntity, `{"message":"invalid from address"}`, nil)

	sender, err := NewEmailSender(testSenderConfig(server.URL))
	require.NoError(t, err)

	_, err = sender.Send(context.Background(), Email{To: []string{"owner@example.com"}, Subject: "Hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")
	assert.Contains(t, err.Error(), "invalid from address")
}

func TestEmailSenderRequiresRecipient(t *testing.T) {
	sender, err := NewEmailSender(testSenderConfig("http://127.0.0.1:0"))
	require.NoError(t, err)

	_, err = sender.Send(context.Background(), Email{Subject: "Hi"})
	assert.Error(t, err)
}

func TestNewEmailSenderConfig(t *testing.T) {
	_, err := NewEmailSender(map[string]string{"RESEND_FROM_EMAIL": "a@example.com"})
	require.Error(t, err)
	assert.True(t, errs.IsEnvironmentVariableError(err))

	_, err = NewEmailSender(map[string]string{"RESEND_API_KEY": "re_test"})
	require.Error(t, err)
	assert.True(t, errs.IsEnvironmentVariableError(err))
}
