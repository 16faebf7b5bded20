package mailer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/discussion-den/den/internal/config"
)

func TestSendOTPWithoutSMTPLogsOnly(t *testing.T) {
	m := New(&config.Config{})
	assert.NoError(t, m.SendOTP("demo@example.com", "123456"))
}

func TestBuildOTPMessage(t *testing.T) {
	msg := string(buildOTPMessage("no-reply@discussionden.local", "demo@example.com", "123456"))

	assert.Contains(t, msg, "To: demo@example.com\r\n")
	assert.Contains(t, msg, "From: Discussion Den <no-reply@discussionden.local>\r\n")
	assert.Contains(t, msg, "123456")

	// Headers and body must be separated by a blank line.
	header, _, found := strings.Cut(msg, "\r\n\r\n")
	assert.True(t, found)
	assert.NotContains(t, header, "123456")
}
