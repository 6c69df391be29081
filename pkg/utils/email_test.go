package utils

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailerDisabled(t *testing.T) {
	var m *Mailer
	assert.False(t, m.Enabled())

	m = NewMailer(SMTPConfig{}, "http://localhost:3000")
	assert.Error(t, m.SendProofUploadedEmail("a@example.com", "1", "http://x/y.png"))
}

func TestSendProofUploadedEmail(t *testing.T) {
	m := NewMailer(SMTPConfig{From: "noreply@shipit.test", Password: "pw", Host: "smtp.shipit.test", Port: "587"}, "http://app.shipit.test")

	var gotAddr string
	var gotTo []string
	var gotMsg string
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	require.NoError(t, m.SendProofUploadedEmail("sender@example.com", "42", "http://app.shipit.test/uploads/proofs/a.png"))
	assert.Equal(t, "smtp.shipit.test:587", gotAddr)
	assert.Equal(t, []string{"sender@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Proof of delivery uploaded - ShipIT\r\n")
	assert.Contains(t, gotMsg, "#42")
	assert.Contains(t, gotMsg, "http://app.shipit.test/uploads/proofs/a.png")
	assert.True(t, strings.Index(gotMsg, "\r\n\r\n") > 0)
}

func TestSendEmailPropagatesError(t *testing.T) {
	m := NewMailer(SMTPConfig{From: "f@x", Password: "pw", Host: "h", Port: "25"}, "")
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("dial failed") }

	assert.EqualError(t, m.SendParcelAcceptedEmail("s@x", "3", "0xabc"), "dial failed")
}

func TestEmailBodiesEscapeParcelValues(t *testing.T) {
	m := NewMailer(SMTPConfig{From: "noreply@shipit.test", Password: "pw", Host: "smtp.shipit.test", Port: "587"}, "http://app.shipit.test")

	var gotMsg string
	m.send = func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		gotMsg = string(msg)
		return nil
	}

	ref := `<script>alert("x")</script>`
	require.NoError(t, m.SendParcelAcceptedEmail("sender@example.com", ref, `0xabc"><b>`))
	assert.NotContains(t, gotMsg, "<script>")
	assert.Contains(t, gotMsg, "#&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;")
	assert.Contains(t, gotMsg, "0xabc&#34;&gt;&lt;b&gt;")

	require.NoError(t, m.SendProofUploadedEmail("sender@example.com", ref, `http://x/a.png" onerror="alert(1)`))
	assert.NotContains(t, gotMsg, "<script>")
	assert.NotContains(t, gotMsg, `" onerror="`)
	assert.Contains(t, gotMsg, `src="http://x/a.png&#34; onerror=&#34;alert(1)"`)
}
