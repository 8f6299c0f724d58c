package integration

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

const defaultMailFrom = "S6S Automation <no-reply@s6s.local>"

// Mail sends a message over SMTP. Connection details come from the
// credential fields host, port, user/username and pass/password. A send
// failure is recorded as FAILED output rather than failing the node, so
// a flaky mail server does not abort the rest of the workflow.
type Mail struct {
	// send allows tests to stub the SMTP dial. Defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMail() *Mail {
	return &Mail{send: smtp.SendMail}
}

// NewMailWithSender swaps the SMTP send function, for tests.
func NewMailWithSender(send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error) *Mail {
	return &Mail{send: send}
}

func (m *Mail) Execute(_ context.Context, config map[string]any, credentials map[string]string) (map[string]any, error) {
	to := configString(config, "to")
	subject := configString(config, "subject")
	body := configString(config, "body")

	host := credentials["host"]
	if host == "" {
		return nil, fmt.Errorf("mail: no smtp host in credentials")
	}
	port := credentials["port"]
	if port == "" {
		port = "587"
	}

	user := credentials["user"]
	if user == "" {
		user = credentials["username"]
	}
	pass := credentials["pass"]
	if pass == "" {
		pass = credentials["password"]
	}

	from := credentials["from"]
	if from == "" {
		from = user
	}
	if from == "" {
		from = defaultMailFrom
	}

	recipients := splitAddresses(to)
	msg := buildMessage(from, to, subject, body, configString(config, "htmlBody"))

	var auth smtp.Auth
	if user != "" && pass != "" {
		auth = smtp.PlainAuth("", user, pass, host)
	}

	if err := m.send(net.JoinHostPort(host, port), auth, from, recipients, msg); err != nil {
		return map[string]any{
			"status": "FAILED",
			"error":  err.Error(),
		}, nil
	}

	return map[string]any{
		"status":   "SUCCESS",
		"accepted": recipients,
	}, nil
}

func splitAddresses(to string) []string {
	parts := strings.Split(to, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

func buildMessage(from, to, subject, body, htmlBody string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", from)
	fmt.Fprintf(&sb, "To: %s\r\n", to)
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	if htmlBody != "" {
		sb.WriteString("MIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n")
		sb.WriteString(htmlBody)
	} else {
		sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		sb.WriteString(body)
	}
	return []byte(sb.String())
}
