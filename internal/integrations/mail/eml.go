package mail

import (
	"encoding/base64"
	"fmt"
	"html"
	"mime"
	"regexp"
	"strings"
	"time"
)

const (
	mixedBoundary = "timereport-mixed"
	altBoundary   = "timereport-alt"
)

type attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type envelope struct {
	From    string
	To      []string
	Subject string
	Date    time.Time
	Body    string // light markdown
	Attach  *attachment
}

// buildEML renders a multipart message: a plain/html alternative part and,
// when present, one base64 attachment.
func buildEML(e envelope) string {
	headers := []string{
		"MIME-Version: 1.0",
		"From: " + e.From,
		"To: " + strings.Join(e.To, ", "),
		"Subject: " + mime.QEncoding.Encode("utf-8", e.Subject),
		"Date: " + e.Date.Format(time.RFC1123Z),
	}

	var out strings.Builder
	out.WriteString(strings.Join(headers, "\r\n"))
	out.WriteString("\r\n")
	if e.Attach == nil {
		writeAlternative(&out, e.Body)
		return out.String()
	}

	fmt.Fprintf(&out, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mixedBoundary)
	out.WriteString("--" + mixedBoundary + "\r\n")
	writeAlternative(&out, e.Body)
	out.WriteString("\r\n--" + mixedBoundary + "\r\n")
	fmt.Fprintf(&out, "Content-Type: %s; name=%q\r\n", e.Attach.ContentType, e.Attach.Filename)
	out.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&out, "Content-Disposition: attachment; filename=%q\r\n\r\n", e.Attach.Filename)
	out.WriteString(wrapBase64(e.Attach.Data))
	out.WriteString("\r\n--" + mixedBoundary + "--\r\n")
	return out.String()
}

func writeAlternative(out *strings.Builder, body string) {
	plain := normalizeCRLF(markdownToEmailPlain(body))
	fmt.Fprintf(out, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", altBoundary)
	out.WriteString("--" + altBoundary + "\r\n")
	out.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	out.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	out.WriteString(plain)
	if !strings.HasSuffix(plain, "\r\n") {
		out.WriteString("\r\n")
	}
	out.WriteString("\r\n--" + altBoundary + "\r\n")
	out.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	out.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	out.WriteString(markdownToEmailHTML(body))
	out.WriteString("\r\n--" + altBoundary + "--\r\n")
}

// RFC 2045 caps encoded lines at 76 characters.
func wrapBase64(data []byte) string {
	enc := base64.StdEncoding.EncodeToString(data)
	var b strings.Builder
	for len(enc) > 76 {
		b.WriteString(enc[:76])
		b.WriteString("\r\n")
		enc = enc[76:]
	}
	b.WriteString(enc)
	return b.String()
}

func normalizeCRLF(s string) string {
	normalized := strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(normalized, "\n", "\r\n")
}

func markdownToEmailPlain(body string) string {
	var out []string
	prevBlank := false
	for _, line := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "### ") {
			line = strings.TrimPrefix(trimmed, "### ")
		}
		line = strings.ReplaceAll(line, "**", "")
		if strings.TrimSpace(line) == "" {
			if !prevBlank {
				out = append(out, "")
			}
			prevBlank = true
			continue
		}
		prevBlank = false
		out = append(out, line)
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n") + "\n"
}

const emailBodyStyle = `font-family: Calibri, Arial, sans-serif; font-size: 11pt; color: #1f1f1f; line-height: 1.35;`

// markdownToEmailHTML handles the subset FormatText emits: ### headings,
// single-level "- " bullets, **bold** and plain lines.
func markdownToEmailHTML(body string) string {
	var b strings.Builder
	b.WriteString(`<html><body style="` + emailBodyStyle + `">`)
	inList := false
	closeList := func() {
		if inList {
			b.WriteString(`</ul>`)
			inList = false
		}
	}

	for _, raw := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(raw)
		switch {
		case trimmed == "":
			closeList()
			b.WriteString(`<div style="height: 10px;"></div>`)
		case strings.HasPrefix(trimmed, "### "):
			closeList()
			b.WriteString(`<div style="font-weight: 700; margin: 12px 0 6px 0;">` + renderInlineBold(strings.TrimPrefix(trimmed, "### ")) + `</div>`)
		case strings.HasPrefix(trimmed, "- "):
			if !inList {
				b.WriteString(`<ul style="margin: 0 0 0 18px; padding-left: 18px;">`)
				inList = true
			}
			b.WriteString(`<li style="margin: 2px 0;">` + renderInlineBold(strings.TrimPrefix(trimmed, "- ")) + `</li>`)
		default:
			closeList()
			b.WriteString(`<div style="margin: 2px 0;">` + renderInlineBold(trimmed) + `</div>`)
		}
	}
	closeList()
	b.WriteString(`</body></html>`)
	return b.String()
}

var boldTokenRe = regexp.MustCompile(`\*\*([^*]+)\*\*`)

func renderInlineBold(s string) string {
	var out strings.Builder
	last := 0
	for _, m := range boldTokenRe.FindAllStringSubmatchIndex(s, -1) {
		out.WriteString(html.EscapeString(s[last:m[0]]))
		out.WriteString("<strong>" + html.EscapeString(s[m[2]:m[3]]) + "</strong>")
		last = m[1]
	}
	out.WriteString(html.EscapeString(s[last:]))
	return out.String()
}
