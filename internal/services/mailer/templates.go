// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package mailer

import (
	"fmt"
	"html/template"
	"strings"
)

// The three lifecycle messages differ only in template content. Subjects and
// bodies are data; rendering is the only behavior here.

const (
	verificationSubject = "Verify Your Email - BMV"
	welcomeSubject      = "Welcome to Our Service - BMV!"
	resetSubject        = "Password Reset Request - BMV"
)

var verificationBody = template.Must(template.New("verification").Parse(`
<h1>Email Verification</h1>
<p>Hello {{.Name}},</p>
<p>Please verify your email address by clicking the link below:</p>
<a href="{{.URL}}">Verify Email</a>
<p>This link will expire in 24 hours.</p>
<br>
<p>Best regards,<br>The BMV Team</p>
`))

var welcomeBody = template.Must(template.New("welcome").Parse(`
<h1>Welcome, {{.Name}}!</h1>
<p>Thank you for registering with our service.</p>
<p>We're excited to have you on board!</p>
<br>
<p>Best regards,<br>The BMV Team</p>
`))

var resetBody = template.Must(template.New("reset").Parse(`
<h1>Password Reset</h1>
<p>Hello {{.Name}},</p>
<p>You requested a password reset. Click the link below to reset your password:</p>
<a href="{{.URL}}">Reset Password</a>
<p>This link will expire in 1 hour.</p>
<p>If you didn't request this reset, please ignore this email.</p>
<br>
<p>Best regards,<br>The BMV Team</p>
`))

type templateData struct {
	Name string
	URL  string
}

func render(tmpl *template.Template, data templateData) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("mailer: render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

func renderVerification(name, url string) (subject, body string, err error) {
	body, err = render(verificationBody, templateData{Name: name, URL: url})
	return verificationSubject, body, err
}

func renderWelcome(name string) (subject, body string, err error) {
	body, err = render(welcomeBody, templateData{Name: name})
	return welcomeSubject, body, err
}

func renderPasswordReset(name, url string) (subject, body string, err error) {
	body, err = render(resetBody, templateData{Name: name, URL: url})
	return resetSubject, body, err
}
