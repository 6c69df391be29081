package utils

import (
	"fmt"
	"html"
	"net/smtp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const companyName = "ShipIT"

// Common header template for all emails
const emailHeader = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<div style="text-align: center; margin-bottom: 30px; background-color: #f9f9f9; padding: 20px;">
			<h2 style="color: #e84142; margin: 0;">ShipIT</h2>
		</div>
`

// Common footer template for all emails
const emailFooter = `
		<div style="text-align: center; margin-top: 20px; font-size: 12px; color: #666; border-top: 1px solid #eee; padding-top: 20px;">
			<p>This is an automated message, please do not reply to this email.</p>
		</div>
	</div>
</body>
</html>
`

// SMTPConfig holds outgoing mail settings.
type SMTPConfig struct {
	From     string
	Password string
	Host     string
	Port     string
}

// Mailer sends notification emails. A zero Mailer is disabled and drops mail.
type Mailer struct {
	cfg     SMTPConfig
	baseURL string
	send    func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(cfg SMTPConfig, baseURL string) *Mailer {
	return &Mailer{cfg: cfg, baseURL: baseURL, send: smtp.SendMail}
}

// Enabled reports whether the mailer has a usable SMTP configuration.
func (m *Mailer) Enabled() bool {
	return m != nil && m.cfg.From != "" && m.cfg.Password != "" && m.cfg.Host != "" && m.cfg.Port != ""
}

func (m *Mailer) sendEmail(to []string, subject, body string) error {
	if !m.Enabled() {
		return fmt.Errorf("email configuration not set")
	}

	msg := buildMessage(m.cfg.From, to, subject, body)
	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)

	if err := m.send(m.cfg.Host+":"+m.cfg.Port, auth, m.cfg.From, to, msg); err != nil {
		zap.L().Error("failed to send email", zap.Strings("to", to), zap.Error(err))
		return err
	}

	zap.L().Info("sent email", zap.Strings("to", to), zap.String("subject", subject))
	return nil
}

func buildMessage(from string, to []string, subject, body string) []byte {
	headers := map[string]string{
		"From":         fmt.Sprintf("%s <%s>", companyName, from),
		"To":           strings.Join(to, ","),
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
		"X-Mailer":     "ShipIT-Mailer",
	}

	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", key, headers[key])
	}
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// SendProofUploadedEmail tells the sender a driver uploaded proof of delivery
// and that funds stay in escrow until the sender confirms.
func (m *Mailer) SendProofUploadedEmail(senderEmail, parcelRef, photoURL string) error {
	subject := "Proof of delivery uploaded - ShipIT"
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">Proof of Delivery</h1>
					<p>Hello,</p>
					<p>The driver for parcel <strong>#%s</strong> uploaded a proof of delivery photo.</p>
					<p><img src="%s" alt="Proof of delivery" style="max-width: 100%%; border-radius: 5px;"></p>
					<p>Review the photo and release the escrowed fee from your dashboard once you are satisfied.</p>
					<div style="text-align: center; margin: 30px 0;">
						<a href="%s/sender" style="background-color: #e84142; color: white; padding: 12px 25px; text-decoration: none; border-radius: 5px;">Open Dashboard</a>
					</div>
				</div>`+emailFooter,
		html.EscapeString(parcelRef), html.EscapeString(photoURL), html.EscapeString(m.baseURL))

	return m.sendEmail([]string{senderEmail}, subject, body)
}

// SendParcelAcceptedEmail tells the sender a driver picked up their request.
func (m *Mailer) SendParcelAcceptedEmail(senderEmail, parcelRef, driverAddress string) error {
	subject := "Parcel accepted - ShipIT"
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">Parcel Accepted</h1>
					<p>Hello,</p>
					<p>Your parcel <strong>#%s</strong> was accepted by driver <code>%s</code>.</p>
					<p>You will receive updates as the delivery progresses.</p>
				</div>`+emailFooter,
		html.EscapeString(parcelRef), html.EscapeString(driverAddress))

	return m.sendEmail([]string{senderEmail}, subject, body)
}
