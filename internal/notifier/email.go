package notifier

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Message is a rendered notification ready for dispatch.
type Message struct {
	Subject    string
	Body       string
	Recipients []string
}

// Mailer delivers a rendered message to its recipients.
type Mailer interface {
	SendMessage(msg Message) error
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends plain-text email through an SMTP relay.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string

	send sendMailFunc
}

func NewSMTPMailer(host string, port int, username, password, sender string) *SMTPMailer {
	return &SMTPMailer{Host: host, Port: port, Username: username, Password: password, Sender: sender, send: smtp.SendMail}
}

// Configured reports whether enough settings are present to send mail.
func (m *SMTPMailer) Configured() bool {
	return m.Host != "" && m.Sender != ""
}

// SendMessage sends one email per recipient so addresses are not disclosed
// to each other. The first failure aborts the remaining sends.
func (m *SMTPMailer) SendMessage(msg Message) error {
	if !m.Configured() {
		return fmt.Errorf("email not configured: set email.smtp_host and email.sender")
	}
	if len(msg.Recipients) == 0 {
		return fmt.Errorf("missing email recipient")
	}
	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	send := m.send
	if send == nil {
		send = smtp.SendMail
	}
	for _, to := range msg.Recipients {
		raw := strings.Join([]string{
			"From: " + m.Sender,
			"To: " + to,
			"Subject: " + msg.Subject,
			"MIME-Version: 1.0",
			"Content-Type: text/plain; charset=UTF-8",
			"",
			msg.Body,
		}, "\r\n")
		if err := send(addr, auth, m.Sender, []string{to}, []byte(raw)); err != nil {
			return fmt.Errorf("send email to %s: %w", to, err)
		}
	}
	return nil
}
