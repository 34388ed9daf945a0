// Package email defines the outbound mail message and the SMTP transport.
package email

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"time"
)

// Message is one transactional email. TextBody is required; HTMLBody is
// sent as an alternative part when present.
type Message struct {
	From     string
	To       string
	ReplyTo  string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers a Message and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Validate checks the addresses a provider would otherwise reject.
func (m Message) Validate() error {
	if !isValidAddress(m.From) {
		return fmt.Errorf("invalid 'from' email address: %s", m.From)
	}
	if !isValidAddress(m.To) {
		return fmt.Errorf("invalid 'to' email address: %s", m.To)
	}
	if m.ReplyTo != "" && !isValidAddress(m.ReplyTo) {
		return fmt.Errorf("invalid 'replyTo' email address: %s", m.ReplyTo)
	}
	return nil
}

func isValidAddress(addr string) bool {
	addr = strings.TrimSpace(addr)
	local, domain, ok := strings.Cut(addr, "@")
	if !ok || local == "" || domain == "" {
		return false
	}
	return strings.Contains(domain, ".") && !strings.Contains(domain, "@")
}

const mimeBoundary = "lead-notification-boundary"

// buildMIME renders the RFC 5322 message handed to the SMTP DATA command.
func buildMIME(m Message, messageID string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", m.To)
	if m.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", m.ReplyTo)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", encodeHeader(m.Subject))
	fmt.Fprintf(&b, "Message-ID: %s\r\n", messageID)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")

	if m.HTMLBody == "" {
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		b.WriteString(m.TextBody)
		return b.String()
	}

	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mimeBoundary)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", mimeBoundary, m.TextBody)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", mimeBoundary, m.HTMLBody)
	fmt.Fprintf(&b, "--%s--\r\n", mimeBoundary)
	return b.String()
}

// encodeHeader folds a header value onto one line and RFC 2047 encodes it
// when it carries anything outside printable ASCII.
func encodeHeader(v string) string {
	v = strings.Join(strings.FieldsFunc(v, func(r rune) bool { return r == '\r' || r == '\n' }), " ")
	return mime.QEncoding.Encode("utf-8", v)
}

func generateMessageID(to, host string) string {
	local, _, _ := strings.Cut(to, "@")
	local = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, local)
	if len(local) > 10 {
		local = local[:10]
	}
	if local == "" {
		local = "user"
	}
	return fmt.Sprintf("<%d.%s@%s>", time.Now().UnixNano(), local, host)
}
