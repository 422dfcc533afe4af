package mail

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/gomail.v2"
)

// Mailer sends transactional email (verification, password reset) over SMTP.
// All methods are nil-safe; the server degrades to logging when SMTP is not
// configured.
type Mailer struct {
	host     string
	port     int
	user     string
	password string
	from     string
	appURL   string
}

func LoadMailerFromEnv() (*Mailer, error) {
	host := strings.TrimSpace(os.Getenv("SMTP_HOST"))
	if host == "" {
		return nil, errors.New("missing SMTP_HOST")
	}
	port := 587
	if portStr := strings.TrimSpace(os.Getenv("SMTP_PORT")); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
		}
		port = p
	}
	from := strings.TrimSpace(os.Getenv("SMTP_FROM"))
	if from == "" {
		return nil, errors.New("missing SMTP_FROM")
	}
	appURL := strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_APP_URL")), "/")
	if appURL == "" {
		appURL = "http://localhost:3000"
	}

	return &Mailer{
		host:     host,
		port:     port,
		user:     strings.TrimSpace(os.Getenv("SMTP_USER")),
		password: os.Getenv("SMTP_PASSWORD"),
		from:     from,
		appURL:   appURL,
	}, nil
}

func (m *Mailer) send(to, subject, body string) error {
	if m == nil {
		return errors.New("mailer not configured")
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	d := gomail.NewDialer(m.host, m.port, m.user, m.password)
	return d.DialAndSend(msg)
}

func (m *Mailer) SendVerification(to, displayName, token string) error {
	link := fmt.Sprintf("%s/verify?token=%s", m.appURL, token)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Welcome to Chatify. Please verify your email address by clicking the link below:</p><p><a href=%q>Verify email</a></p>",
		displayName, link,
	)
	return m.send(to, "Verify your Chatify email", body)
}

func (m *Mailer) SendPasswordReset(to, token string) error {
	link := fmt.Sprintf("%s/resetPassword?token=%s", m.appURL, token)
	body := fmt.Sprintf(
		"<p>We received a request to reset your Chatify password.</p><p><a href=%q>Reset password</a></p><p>If you did not request this, you can ignore this email.</p>",
		link,
	)
	return m.send(to, "Reset your Chatify password", body)
}
