package engine

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"
	"time"
)

// OutgoingAttachment is a file attached to an outgoing message.
type OutgoingAttachment struct {
	Filename    string
	Content     []byte
	ContentType string
}

// OutgoingMessage holds everything BuildMessage needs to assemble one raw RFC 5322
// message, for both the Sender and ForwardExecutor paths.
type OutgoingMessage struct {
	From        string
	To          []string
	Cc          []string
	ReplyTo     string
	Subject     string
	TextBody    string
	HTMLBody    string
	Headers     map[string]string // additional headers, e.g. In-Reply-To, References
	Attachments []OutgoingAttachment
	MessageID   string
}

// BuildMessage constructs an RFC 5322 MIME message: multipart/
// alternative when both text and HTML are present, multipart/mixed wrapping that
// when attachments are present, single-part otherwise. Adapted nearly unchanged
// from mailit's direct-to-MX sender, which built the same message shape before
// handing it to net/smtp; here the bytes go to the cloud mailer's raw-send API
// instead.
func BuildMessage(msg *OutgoingMessage) ([]byte, error) {
	var buf bytes.Buffer
	headers := textproto.MIMEHeader{}

	headers.Set("From", msg.From)
	headers.Set("Subject", encodeSubject(msg.Subject))
	headers.Set("Date", time.Now().UTC().Format("Mon, 02 Jan 2006 15:04:05 -0700"))
	headers.Set("MIME-Version", "1.0")

	if msg.MessageID != "" {
		headers.Set("Message-ID", "<"+msg.MessageID+">")
	}
	if len(msg.To) > 0 {
		headers.Set("To", strings.Join(msg.To, ", "))
	}
	if len(msg.Cc) > 0 {
		headers.Set("Cc", strings.Join(msg.Cc, ", "))
	}
	if msg.ReplyTo != "" {
		headers.Set("Reply-To", msg.ReplyTo)
	}
	for key, value := range msg.Headers {
		headers.Set(key, value)
	}

	hasText := msg.TextBody != ""
	hasHTML := msg.HTMLBody != ""
	hasAttachments := len(msg.Attachments) > 0

	switch {
	case hasAttachments:
		if err := buildMultipartMixed(&buf, headers, msg); err != nil {
			return nil, err
		}
	case hasText && hasHTML:
		if err := buildMultipartAlternative(&buf, headers, msg.TextBody, msg.HTMLBody); err != nil {
			return nil, err
		}
	case hasHTML:
		buildSinglePart(&buf, headers, "text/html; charset=utf-8", msg.HTMLBody)
	default:
		buildSinglePart(&buf, headers, "text/plain; charset=utf-8", msg.TextBody)
	}

	return buf.Bytes(), nil
}

func writeHeaders(buf *bytes.Buffer, headers textproto.MIMEHeader) {
	orderedKeys := []string{
		"From", "To", "Cc", "Reply-To", "Subject",
		"Date", "Message-Id", "In-Reply-To", "References", "Mime-Version", "Content-Type",
	}
	written := make(map[string]bool)

	for _, key := range orderedKeys {
		canon := textproto.CanonicalMIMEHeaderKey(key)
		if values, ok := headers[canon]; ok {
			for _, v := range values {
				fmt.Fprintf(buf, "%s: %s\r\n", canon, v)
			}
			written[canon] = true
		}
	}

	for key, values := range headers {
		if written[key] {
			continue
		}
		for _, v := range values {
			fmt.Fprintf(buf, "%s: %s\r\n", key, v)
		}
	}

	buf.WriteString("\r\n")
}

func buildSinglePart(buf *bytes.Buffer, headers textproto.MIMEHeader, contentType, body string) {
	headers.Set("Content-Type", contentType)
	headers.Set("Content-Transfer-Encoding", "quoted-printable")
	writeHeaders(buf, headers)

	w := quotedprintable.NewWriter(buf)
	_, _ = w.Write([]byte(body))
	_ = w.Close()
}

func buildMultipartAlternative(buf *bytes.Buffer, headers textproto.MIMEHeader, textBody, htmlBody string) error {
	w := multipart.NewWriter(buf)
	headers.Set("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%s", w.Boundary()))
	writeHeaders(buf, headers)

	textHeaders := textproto.MIMEHeader{}
	textHeaders.Set("Content-Type", "text/plain; charset=utf-8")
	textHeaders.Set("Content-Transfer-Encoding", "quoted-printable")
	textPart, err := w.CreatePart(textHeaders)
	if err != nil {
		return fmt.Errorf("creating text part: %w", err)
	}
	qw := quotedprintable.NewWriter(textPart)
	_, _ = qw.Write([]byte(textBody))
	_ = qw.Close()

	htmlHeaders := textproto.MIMEHeader{}
	htmlHeaders.Set("Content-Type", "text/html; charset=utf-8")
	htmlHeaders.Set("Content-Transfer-Encoding", "quoted-printable")
	htmlPart, err := w.CreatePart(htmlHeaders)
	if err != nil {
		return fmt.Errorf("creating HTML part: %w", err)
	}
	qw = quotedprintable.NewWriter(htmlPart)
	_, _ = qw.Write([]byte(htmlBody))
	_ = qw.Close()

	return w.Close()
}

func buildMultipartMixed(buf *bytes.Buffer, headers textproto.MIMEHeader, msg *OutgoingMessage) error {
	mixedWriter := multipart.NewWriter(buf)
	headers.Set("Content-Type", fmt.Sprintf("multipart/mixed; boundary=%s", mixedWriter.Boundary()))
	writeHeaders(buf, headers)

	hasText := msg.TextBody != ""
	hasHTML := msg.HTMLBody != ""

	switch {
	case hasText && hasHTML:
		boundary := multipart.NewWriter(nil).Boundary()
		altHeaders := textproto.MIMEHeader{}
		altHeaders.Set("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%s", boundary))
		altPart, err := mixedWriter.CreatePart(altHeaders)
		if err != nil {
			return fmt.Errorf("creating alternative part: %w", err)
		}

		nestedAlt := multipart.NewWriter(altPart)
		_ = nestedAlt.SetBoundary(boundary)

		textHeaders := textproto.MIMEHeader{}
		textHeaders.Set("Content-Type", "text/plain; charset=utf-8")
		textHeaders.Set("Content-Transfer-Encoding", "quoted-printable")
		textPart, err := nestedAlt.CreatePart(textHeaders)
		if err != nil {
			return fmt.Errorf("creating text part: %w", err)
		}
		qw := quotedprintable.NewWriter(textPart)
		_, _ = qw.Write([]byte(msg.TextBody))
		_ = qw.Close()

		htmlHeaders := textproto.MIMEHeader{}
		htmlHeaders.Set("Content-Type", "text/html; charset=utf-8")
		htmlHeaders.Set("Content-Transfer-Encoding", "quoted-printable")
		htmlPart, err := nestedAlt.CreatePart(htmlHeaders)
		if err != nil {
			return fmt.Errorf("creating HTML part: %w", err)
		}
		qw = quotedprintable.NewWriter(htmlPart)
		_, _ = qw.Write([]byte(msg.HTMLBody))
		_ = qw.Close()

		if err := nestedAlt.Close(); err != nil {
			return fmt.Errorf("closing alternative writer: %w", err)
		}
	case hasHTML:
		htmlHeaders := textproto.MIMEHeader{}
		htmlHeaders.Set("Content-Type", "text/html; charset=utf-8")
		htmlHeaders.Set("Content-Transfer-Encoding", "quoted-printable")
		htmlPart, err := mixedWriter.CreatePart(htmlHeaders)
		if err != nil {
			return fmt.Errorf("creating HTML part: %w", err)
		}
		qw := quotedprintable.NewWriter(htmlPart)
		_, _ = qw.Write([]byte(msg.HTMLBody))
		_ = qw.Close()
	case hasText:
		textHeaders := textproto.MIMEHeader{}
		textHeaders.Set("Content-Type", "text/plain; charset=utf-8")
		textHeaders.Set("Content-Transfer-Encoding", "quoted-printable")
		textPart, err := mixedWriter.CreatePart(textHeaders)
		if err != nil {
			return fmt.Errorf("creating text part: %w", err)
		}
		qw := quotedprintable.NewWriter(textPart)
		_, _ = qw.Write([]byte(msg.TextBody))
		_ = qw.Close()
	}

	for _, att := range msg.Attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		attHeaders := textproto.MIMEHeader{}
		attHeaders.Set("Content-Type", contentType+"; name=\""+att.Filename+"\"")
		attHeaders.Set("Content-Transfer-Encoding", "base64")
		attHeaders.Set("Content-Disposition",
			mime.FormatMediaType("attachment", map[string]string{"filename": att.Filename}))

		attPart, err := mixedWriter.CreatePart(attHeaders)
		if err != nil {
			return fmt.Errorf("creating attachment part for %s: %w", att.Filename, err)
		}

		encoder := base64.NewEncoder(base64.StdEncoding, &lineWrapper{writer: attPart, lineLen: 76})
		if _, err := encoder.Write(att.Content); err != nil {
			return fmt.Errorf("encoding attachment %s: %w", att.Filename, err)
		}
		_ = encoder.Close()
	}

	return mixedWriter.Close()
}

// lineWrapper wraps base64 output at the specified line length with CRLF.
type lineWrapper struct {
	writer  io.Writer
	lineLen int
	current int
}

func (lw *lineWrapper) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		remaining := lw.lineLen - lw.current
		if remaining <= 0 {
			if _, err := lw.writer.Write([]byte("\r\n")); err != nil {
				return total, err
			}
			lw.current = 0
			remaining = lw.lineLen
		}

		chunk := p
		if len(chunk) > remaining {
			chunk = p[:remaining]
		}

		n, err := lw.writer.Write(chunk)
		total += n
		lw.current += n
		p = p[n:]
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// encodeSubject encodes a subject line using RFC 2047 if it contains non-ASCII.
func encodeSubject(subject string) string {
	for _, r := range subject {
		if r > 127 {
			return mime.QEncoding.Encode("utf-8", subject)
		}
	}
	return subject
}
