package smtp

import (
	"strings"
	"testing"

	"github.com/mizusaki/procureflow-backend/pkg/config"
)

func TestConfigured(t *testing.T) {
	tr := NewTransport(config.SMTPConfig{})
	if tr.Configured() {
		t.Fatal("empty transport should not be configured")
	}
	tr = NewTransport(config.SMTPConfig{Host: "smtp.example.com", Sender: "po@example.com"})
	if !tr.Configured() {
		t.Fatal("expected configured transport")
	}
}

func TestBuildMIMEPlainText(t *testing.T) {
	raw := string(buildMIME("po@example.com", Message{
		To:      "orders@acme.test",
		Subject: "Purchase order",
		Body:    "see attached",
	}))
	for _, want := range []string{
		"From: po@example.com",
		"To: orders@acme.test",
		"Content-Type: text/plain",
		"see attached",
	} {
		if !strings.Contains(raw, want) {
			t.Fatalf("message missing %q:\n%s", want, raw)
		}
	}
	if strings.Contains(raw, "multipart/mixed") {
		t.Fatal("plain message should not be multipart")
	}
}

func TestBuildMIMEWithAttachment(t *testing.T) {
	raw := string(buildMIME("po@example.com", Message{
		To:      "orders@acme.test",
		Subject: "Purchase order",
		Body:    "see attached",
		Attachments: []Attachment{
			{Filename: "po_1.html", ContentType: "text/html", Content: []byte("<html></html>")},
		},
	}))
	for _, want := range []string{
		"multipart/mixed",
		`filename="po_1.html"`,
		"Content-Transfer-Encoding: base64",
		"--procureflow-mail-boundary--",
	} {
		if !strings.Contains(raw, want) {
			t.Fatalf("message missing %q:\n%s", want, raw)
		}
	}
}

func TestWrapBase64LineLength(t *testing.T) {
	wrapped := wrapBase64(strings.Repeat("A", 200))
	for _, line := range strings.Split(wrapped, "\r\n") {
		if len(line) > 76 {
			t.Fatalf("line exceeds 76 chars: %d", len(line))
		}
	}
}
