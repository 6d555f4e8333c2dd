// Package mailer delivers the HTML report with CSV attachments over SMTP,
// a direct port of the original's smtplib + email.message flow onto
// net/smtp + mime/multipart.
package mailer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Settings configures SMTP delivery. Enabled gates every send; when false,
// Send is a no-op that reports false, not an error.
type Settings struct {
	Enabled   bool
	Host      string
	Port      int
	Username  string
	Password  string
	Sender    string
	Recipient string
}

// Attachment is one file to embed in the outgoing message, keyed by the
// label the caller uses for logging.
type Attachment struct {
	Label string
	Path  string
}

// Client sends the rendered report by SMTP.
type Client struct {
	Settings Settings
}

// Send builds a multipart/alternative message (plaintext fallback + HTML
// body) with the given attachments and delivers it over STARTTLS. Returns
// false without error when email is disabled.
func (c *Client) Send(subject, htmlBody string, attachments []Attachment) (bool, error) {
	if !c.Settings.Enabled {
		log.Info().Msg("email disabled; skipping send")
		return false, nil
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", c.Settings.Sender)
	fmt.Fprintf(&buf, "To: %s\r\n", c.Settings.Recipient)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", writer.Boundary())

	altWriter := multipart.NewWriter(&buf)
	altHeader := make(map[string][]string)
	altHeader["Content-Type"] = []string{fmt.Sprintf("multipart/alternative; boundary=%s", altWriter.Boundary())}

	part, err := writer.CreatePart(mimeHeader(altHeader))
	if err != nil {
		return false, fmt.Errorf("mailer: create alternative part: %w", err)
	}
	altBuf := &bytes.Buffer{}
	altW := multipart.NewWriter(altBuf)
	altW.SetBoundary(extractBoundary(altHeader["Content-Type"][0]))

	textPart, _ := altW.CreatePart(mimeHeader(map[string][]string{"Content-Type": {"text/plain; charset=utf-8"}}))
	textPart.Write([]byte("This email requires an HTML-capable client."))

	htmlPart, _ := altW.CreatePart(mimeHeader(map[string][]string{"Content-Type": {"text/html; charset=utf-8"}}))
	htmlPart.Write([]byte(htmlBody))
	altW.Close()
	part.Write(altBuf.Bytes())

	for _, att := range attachments {
		data, err := os.ReadFile(att.Path)
		if err != nil {
			return false, fmt.Errorf("mailer: read attachment %s: %w", att.Label, err)
		}
		subtype := "html"
		if strings.EqualFold(filepath.Ext(att.Path), ".csv") {
			subtype = "csv"
		}
		name := filepath.Base(att.Path)
		header := mimeHeader(map[string][]string{
			"Content-Type":              {fmt.Sprintf("text/%s; name=%q", subtype, name)},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", name)},
			"Content-Transfer-Encoding": {"base64"},
		})
		attPart, err := writer.CreatePart(header)
		if err != nil {
			return false, fmt.Errorf("mailer: create attachment part %s: %w", att.Label, err)
		}
		encoder := base64.NewEncoder(base64.StdEncoding, attPart)
		encoder.Write(data)
		encoder.Close()
	}
	writer.Close()

	addr := fmt.Sprintf("%s:%d", c.Settings.Host, c.Settings.Port)
	var auth smtp.Auth
	if c.Settings.Username != "" {
		auth = smtp.PlainAuth("", c.Settings.Username, c.Settings.Password, c.Settings.Host)
	}
	if err := smtp.SendMail(addr, auth, c.Settings.Sender, []string{c.Settings.Recipient}, buf.Bytes()); err != nil {
		return false, fmt.Errorf("mailer: send: %w", err)
	}
	log.Info().Str("recipient", c.Settings.Recipient).Msg("email delivered")
	return true, nil
}

func mimeHeader(fields map[string][]string) map[string][]string {
	out := make(map[string][]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func extractBoundary(contentType string) string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["boundary"]
}
