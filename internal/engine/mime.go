package engine

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/inboundemail/inbound-core/internal/model"
)

// MimeParser decodes raw RFC 5322 bytes into a ParsedEmail. It is
// referentially transparent: identical input always produces identical output,
// since it holds no state and touches nothing outside the byte slice it's given.
type MimeParser struct{}

// NewMimeParser creates a MimeParser. It has no dependencies; the type exists so
// callers can hold it behind an interface the way they hold other engine components.
func NewMimeParser() *MimeParser {
	return &MimeParser{}
}

// Parse decodes raw into a ParsedEmail. On structural failure it
// returns a ParsedEmail with ParseSuccess=false and ParseError set, carrying
// whatever subset of fields were extracted before the failure — it never
// returns a bare error, since a parse failure must never block ingestion.
func (p *MimeParser) Parse(raw []byte) *model.ParsedEmail {
	out := &model.ParsedEmail{
		RawBody:      string(raw),
		ParseSuccess: true,
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		out.ParseSuccess = false
		out.ParseError = ptrString(fmt.Sprintf("reading message: %v", err))
		return out
	}

	out.Headers = headerMap(msg.Header)
	out.From = parseAddressGroup(msg.Header.Get("From"))
	out.To = parseAddressGroup(msg.Header.Get("To"))
	out.Cc = parseAddressGroup(msg.Header.Get("Cc"))
	out.Bcc = parseAddressGroup(msg.Header.Get("Bcc"))
	out.ReplyTo = parseAddressGroup(msg.Header.Get("Reply-To"))
	out.MessageID = strings.Trim(msg.Header.Get("Message-Id"), "<>")
	out.InReplyTo = strings.Trim(msg.Header.Get("In-Reply-To"), "<>")
	out.References = parseReferences(msg.Header.Get("References"))
	out.Priority = msg.Header.Get("X-Priority")
	if out.Priority == "" {
		out.Priority = msg.Header.Get("Importance")
	}

	if dateStr := msg.Header.Get("Date"); dateStr != "" {
		if t, err := mail.ParseDate(dateStr); err == nil {
			out.Date = &t
		}
	}

	body, err := io.ReadAll(msg.Body)
	if err != nil {
		out.ParseSuccess = false
		out.ParseError = ptrString(fmt.Sprintf("reading body: %v", err))
		return out
	}

	contentType := msg.Header.Get("Content-Type")
	mediaType, params, mtErr := mime.ParseMediaType(contentType)
	if mtErr != nil || mediaType == "" {
		mediaType = "text/plain"
	}

	cte := strings.ToLower(strings.TrimSpace(msg.Header.Get("Content-Transfer-Encoding")))

	if strings.HasPrefix(mediaType, "multipart/") {
		text, html, attachments, perr := parseMultipart(bytes.NewReader(body), params["boundary"])
		if perr != nil {
			out.ParseSuccess = false
			out.ParseError = ptrString(fmt.Sprintf("parsing multipart body: %v", perr))
		}
		out.TextBody = text
		out.HTMLBody = html
		out.Attachments = attachments
	} else {
		decoded := decodeTransferEncoding(body, cte)
		if strings.HasPrefix(mediaType, "text/html") {
			out.HTMLBody = ptrString(string(decoded))
		} else {
			out.TextBody = ptrString(string(decoded))
		}
	}

	return out
}

// parseMultipart walks a multipart body, preferring the richest part of a
// multipart/alternative and descending into multipart/mixed/related.
func parseMultipart(body io.Reader, boundary string) (text, html *string, attachments []model.Attachment, err error) {
	if boundary == "" {
		return nil, nil, nil, fmt.Errorf("multipart body missing boundary parameter")
	}

	mr := multipart.NewReader(body, boundary)
	attachments = make([]model.Attachment, 0)

	for {
		part, perr := mr.NextPart()
		if perr == io.EOF {
			break
		}
		if perr != nil {
			return text, html, attachments, perr
		}

		partContentType := part.Header.Get("Content-Type")
		mediaType, params, _ := mime.ParseMediaType(partContentType)
		disposition, dparams, _ := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
		cte := strings.ToLower(strings.TrimSpace(part.Header.Get("Content-Transfer-Encoding")))

		if strings.HasPrefix(mediaType, "multipart/") {
			nestedText, nestedHTML, nestedAttachments, nerr := parseMultipart(part, params["boundary"])
			if text == nil {
				text = nestedText
			}
			if html == nil {
				html = nestedHTML
			}
			attachments = append(attachments, nestedAttachments...)
			if nerr != nil {
				err = nerr
			}
			continue
		}

		filename := dparams["filename"]
		if filename == "" {
			filename = params["name"]
		}

		if disposition == "attachment" || (filename != "" && disposition == "inline") {
			content, rerr := io.ReadAll(part)
			if rerr != nil {
				continue
			}
			decoded := decodeTransferEncoding(content, cte)
			attachments = append(attachments, model.Attachment{
				Filename:    filename,
				ContentType: mediaType,
				Size:        len(decoded),
				ContentID:   strings.Trim(part.Header.Get("Content-Id"), "<>"),
				Disposition: dispositionOrDefault(disposition),
				Content:     decoded,
			})
			continue
		}

		content, rerr := io.ReadAll(part)
		if rerr != nil {
			continue
		}
		decoded := decodeTransferEncoding(content, cte)

		switch {
		case strings.HasPrefix(mediaType, "text/html"):
			if html == nil {
				html = ptrString(string(decoded))
			}
		case strings.HasPrefix(mediaType, "text/plain"):
			if text == nil {
				text = ptrString(string(decoded))
			}
		}
	}

	return text, html, attachments, err
}

func dispositionOrDefault(d string) string {
	if d == "" {
		return "attachment"
	}
	return d
}

// decodeTransferEncoding undoes quoted-printable or base64 Content-Transfer-Encoding.
// mail.ReadMessage and multipart.Reader do not decode these themselves.
func decodeTransferEncoding(content []byte, cte string) []byte {
	switch cte {
	case "quoted-printable":
		decoded, err := io.ReadAll(quotedprintable.NewReader(bytes.NewReader(content)))
		if err != nil {
			return content
		}
		return decoded
	case "base64":
		decoded, err := io.ReadAll(base64.NewDecoder(base64.StdEncoding, bytes.NewReader(content)))
		if err != nil {
			return content
		}
		return decoded
	default:
		return content
	}
}

// parseAddressGroup parses a header's literal address-list text into an
// AddressGroup, keeping both the literal header text and the parsed
// {name?,address} tuples. An unparseable header still keeps its literal text.
func parseAddressGroup(headerText string) model.AddressGroup {
	group := model.AddressGroup{Text: headerText}
	if headerText == "" {
		return group
	}

	addrs, err := mail.ParseAddressList(headerText)
	if err != nil {
		return group
	}

	refs := make([]model.EmailAddressRef, 0, len(addrs))
	for _, a := range addrs {
		refs = append(refs, model.EmailAddressRef{Name: a.Name, Address: a.Address})
	}
	group.Addresses = refs
	return group
}

// parseReferences splits the whitespace-separated References header into its
// individual angle-bracket-stripped Message-ID tokens, used for thread resolution.
func parseReferences(header string) []string {
	if header == "" {
		return nil
	}
	fields := strings.Fields(header)
	refs := make([]string, 0, len(fields))
	for _, f := range fields {
		refs = append(refs, strings.Trim(f, "<>"))
	}
	return refs
}

// headerMap converts mail.Header into a multi-value map. Keys are in the
// canonical MIME form mail.Header gives them (e.g. "Message-Id"); the original
// case of a header name is not kept.
func headerMap(h mail.Header) model.JSONMap {
	out := make(model.JSONMap, len(h))
	for key, values := range h {
		if len(values) == 1 {
			out[key] = values[0]
		} else {
			out[key] = values
		}
	}
	return out
}

func ptrString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
