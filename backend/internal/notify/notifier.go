// Package notify renders named email templates and delivers them through a
// Mailer. Delivery is always detached from the request path via Dispatcher.
package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// Result is the outcome of a single send.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Notifier renders a template with vars and transmits it to recipient.
type Notifier interface {
	Send(ctx context.Context, template, recipient string, vars map[string]string) Result
}

// Message is a rendered email.
type Message struct {
	Template string
	To       string
	Subject  string
	HTML     string
}

// Mailer transmits rendered messages.
type Mailer interface {
	Deliver(ctx context.Context, msg Message) error
}

// Defaults are injected into every template unless the caller overrides them.
type Defaults struct {
	SchoolName   string
	SupportEmail string
	SupportPhone string
	AppURL       string
}

func (d Defaults) vars() map[string]string {
	return map[string]string{
		"SCHOOL_NAME":   d.SchoolName,
		"SUPPORT_EMAIL": d.SupportEmail,
		"SUPPORT_PHONE": d.SupportPhone,
		"APP_URL":       d.AppURL,
	}
}

// TemplateNotifier is the Notifier backed by the embedded templates.
type TemplateNotifier struct {
	mailer   Mailer
	defaults Defaults
	html     *template.Template
	subjects map[string]*texttemplate.Template
}

// NewTemplateNotifier parses the embedded templates and subjects.
func NewTemplateNotifier(mailer Mailer, defaults Defaults) (*TemplateNotifier, error) {
	html, err := template.New("mail").Option("missingkey=zero").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}

	parsed := make(map[string]*texttemplate.Template, len(subjects))
	for name, subject := range subjects {
		if html.Lookup(name) == nil {
			return nil, fmt.Errorf("mail template %q has a subject but no body", name)
		}
		t, err := texttemplate.New(name).Option("missingkey=zero").Parse(subject)
		if err != nil {
			return nil, fmt.Errorf("parse subject of %q: %w", name, err)
		}
		parsed[name] = t
	}

	return &TemplateNotifier{mailer: mailer, defaults: defaults, html: html, subjects: parsed}, nil
}

// Render produces the message without sending it.
func (n *TemplateNotifier) Render(name, recipient string, vars map[string]string) (Message, error) {
	subject, ok := n.subjects[name]
	if !ok {
		return Message{}, fmt.Errorf("unknown mail template %q", name)
	}

	data := n.defaults.vars()
	for k, v := range vars {
		data[k] = v
	}

	var subj strings.Builder
	if err := subject.Execute(&subj, data); err != nil {
		return Message{}, fmt.Errorf("render subject of %q: %w", name, err)
	}
	var body bytes.Buffer
	if err := n.html.ExecuteTemplate(&body, name, data); err != nil {
		return Message{}, fmt.Errorf("render %q: %w", name, err)
	}

	return Message{Template: name, To: recipient, Subject: subj.String(), HTML: body.String()}, nil
}

func (n *TemplateNotifier) Send(ctx context.Context, name, recipient string, vars map[string]string) Result {
	if strings.TrimSpace(recipient) == "" {
		return Result{Error: "recipient is empty"}
	}
	msg, err := n.Render(name, recipient, vars)
	if err != nil {
		return Result{Error: err.Error()}
	}
	if err := n.mailer.Deliver(ctx, msg); err != nil {
		return Result{Error: err.Error()}
	}
	return Result{Success: true}
}
