package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mizusaki/procureflow-backend/pkg/config"
	"github.com/mizusaki/procureflow-backend/pkg/env"
)

// Attachment is a file carried on an outgoing message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is one outgoing mail. CC is optional.
type Message struct {
	To          string
	CC          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Transport delivers messages over SMTP with STARTTLS.
type Transport struct {
	host        string
	port        int
	sender      string
	passwordEnv string
	timeout     time.Duration
}

// NewTransport builds a transport from config. Credentials are read
// lazily at send time so a rotated password does not need a restart.
func NewTransport(cfg config.SMTPConfig) *Transport {
	return &Transport{
		host:        cfg.Host,
		port:        cfg.Port,
		sender:      cfg.Sender,
		passwordEnv: cfg.PasswordEnv,
		timeout:     cfg.Timeout,
	}
}

// Sender returns the configured from address.
func (t *Transport) Sender() string {
	return t.sender
}

// Configured reports whether host and sender are present.
func (t *Transport) Configured() bool {
	return t.host != "" && t.sender != ""
}

// CredentialsPresent reports whether the password env var is populated.
// Checked before acquiring a send lock so a misconfigured box fails
// fast without holding the lock.
func (t *Transport) CredentialsPresent() bool {
	return env.IsSet(t.passwordEnv)
}

// Send delivers the message. The context deadline bounds the whole
// exchange including dial and TLS negotiation.
func (t *Transport) Send(ctx context.Context, msg Message) error {
	if !t.Configured() {
		return errors.New("smtp transport is not configured")
	}
	if msg.To == "" {
		return errors.New("recipient is required")
	}

	password := os.Getenv(t.passwordEnv)
	if password == "" {
		return fmt.Errorf("smtp password env %s is empty", t.passwordEnv)
	}

	addr := net.JoinHostPort(t.host, strconv.Itoa(t.port))

	dialer := &net.Dialer{Timeout: t.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dialing smtp %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else if t.timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(t.timeout))
	}

	client, err := smtp.NewClient(conn, t.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: t.host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	auth := smtp.PlainAuth("", t.sender, password, t.host)
	if ok, _ := client.Extension("AUTH"); ok {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(t.sender); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}
	if msg.CC != "" {
		if err := client.Rcpt(msg.CC); err != nil {
			return fmt.Errorf("smtp rcpt cc: %w", err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := writer.Write(buildMIME(t.sender, msg)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing message body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finishing message body: %w", err)
	}

	return client.Quit()
}

const mimeBoundary = "procureflow-mail-boundary"

func buildMIME(from string, msg Message) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	if msg.CC != "" {
		fmt.Fprintf(&buf, "Cc: %s\r\n", msg.CC)
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if len(msg.Attachments) == 0 {
		buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		buf.WriteString(msg.Body)
		buf.WriteString("\r\n")
		return buf.Bytes()
	}

	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mimeBoundary)

	fmt.Fprintf(&buf, "--%s\r\n", mimeBoundary)
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(msg.Body)
	buf.WriteString("\r\n")

	for _, att := range msg.Attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		fmt.Fprintf(&buf, "--%s\r\n", mimeBoundary)
		fmt.Fprintf(&buf, "Content-Type: %s\r\n", contentType)
		buf.WriteString("Content-Transfer-Encoding: base64\r\n")
		fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n\r\n", att.Filename)
		buf.WriteString(wrapBase64(base64.StdEncoding.EncodeToString(att.Content)))
		buf.WriteString("\r\n")
	}
	fmt.Fprintf(&buf, "--%s--\r\n", mimeBoundary)

	return buf.Bytes()
}

func wrapBase64(encoded string) string {
	const lineLen = 76
	var b strings.Builder
	for len(encoded) > lineLen {
		b.WriteString(encoded[:lineLen])
		b.WriteString("\r\n")
		encoded = encoded[lineLen:]
	}
	b.WriteString(encoded)
	return b.String()
}
