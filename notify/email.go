// notify/email.go
package notify

import (
	"context"
	"encoding/base64"
	"log"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/gewnthar/flightbrief/config"
)

const sendGridMailPath = "/v3/mail/send"

// Attachment is a file carried by an email. A non-empty ContentID makes it
// an inline attachment referenced from the template as cid:<ContentID>.
type Attachment struct {
	Filename  string
	Type      string
	Content   []byte
	ContentID string
}

// Email is one message for the configured recipient. With a TemplateID the
// provider renders TemplateData; otherwise Subject, Text and HTML are sent
// as is.
type Email struct {
	RunID        string
	TemplateID   string
	TemplateData map[string]interface{}
	Subject      string
	Text         string
	HTML         string
	Attachments  []Attachment
}

// EmailSender delivers through the SendGrid v3 mail API.
type EmailSender struct {
	apiKey    string
	host      string
	from      string
	to        string
	firstName string
	client    *rest.Client
}

// NewEmailSender builds a sender from the email section of the config.
func NewEmailSender(cfg config.EmailConfig) *EmailSender {
	return &EmailSender{
		apiKey:    cfg.APIKey,
		host:      cfg.Host,
		from:      cfg.From,
		to:        cfg.To,
		firstName: cfg.FirstName,
		client:    &rest.Client{HTTPClient: &http.Client{Timeout: timeoutOr(cfg.Timeout)}},
	}
}

// Build assembles the SendGrid message without sending it.
func (s *EmailSender) Build(msg Email) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail("", s.from))

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail(s.firstName, s.to))
	if msg.RunID != "" {
		p.SetCustomArg("run_id", msg.RunID)
	}

	if msg.TemplateID != "" {
		m.SetTemplateID(msg.TemplateID)
		for key, value := range msg.TemplateData {
			p.SetDynamicTemplateData(key, value)
		}
	} else {
		p.Subject = msg.Subject
		m.Subject = msg.Subject
		// SendGrid requires text/plain before text/html
		if msg.Text != "" {
			m.AddContent(mail.NewContent("text/plain", msg.Text))
		}
		if msg.HTML != "" {
			m.AddContent(mail.NewContent("text/html", msg.HTML))
		}
	}
	m.AddPersonalizations(p)

	for _, a := range msg.Attachments {
		att := mail.NewAttachment()
		att.SetFilename(a.Filename)
		att.SetType(a.Type)
		att.SetContent(base64.StdEncoding.EncodeToString(a.Content))
		if a.ContentID != "" {
			att.SetDisposition("inline")
			att.SetContentID(a.ContentID)
		} else {
			att.SetDisposition("attachment")
		}
		m.AddAttachment(att)
	}
	return m
}

// Send delivers msg and reports the provider's answer. Cancelling ctx aborts
// an in-flight request. Provider errors end up in the Result.
func (s *EmailSender) Send(ctx context.Context, msg Email) Result {
	request := sendgrid.GetRequest(s.apiKey, sendGridMailPath, s.host)
	request.Method = http.MethodPost
	request.Body = mail.GetRequestBody(s.Build(msg))

	response, err := s.client.SendWithContext(ctx, request)
	if err != nil {
		log.Printf("ERROR Notify: SendGrid request failed: %v\n", err)
		return failed(ChannelEmail, 0, "SendGrid request failed: %v", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		log.Printf("ERROR Notify: SendGrid rejected message (status %d): %s\n", response.StatusCode, response.Body)
		return failed(ChannelEmail, response.StatusCode, "SendGrid rejected message: %s", response.Body)
	}

	id := ""
	if ids, ok := response.Headers["X-Message-Id"]; ok && len(ids) > 0 {
		id = ids[0]
	}
	return Result{Channel: ChannelEmail, OK: true, StatusCode: response.StatusCode, ID: id, Message: "email accepted for " + s.to}
}
