package services

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

const (
	templateVerification  = "verification"
	templatePasswordReset = "password_reset"
)

type emailContent struct {
	Name      string
	Link      string
	ExpiresIn string
}

var emailTemplates = template.Must(template.New("emails").Parse(`
{{define "layout_start"}}<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; background-color: #f5f5f5; margin: 0; padding: 24px;">
<div style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 8px; padding: 32px;">{{end}}

{{define "layout_end"}}<p style="color: #9ca3af; font-size: 14px; margin-top: 32px;">If you did not request this email, you can safely ignore it.</p>
</div>
</body>
</html>{{end}}

{{define "verification"}}{{template "layout_start"}}
<h1 style="color: #111827;">Verify your email address</h1>
<p>Hi {{.Name}},</p>
<p>Thanks for signing up! Please verify your email address by clicking the button below:</p>
<p style="text-align: center; margin: 30px 0;"><a href="{{.Link}}" style="background: #3b82f6; color: #ffffff; text-decoration: none; padding: 14px 32px; border-radius: 8px; font-weight: 600;">Verify Email Address</a></p>
<p>Or copy and paste this link into your browser:</p>
<p style="background-color: #f3f4f6; border-radius: 6px; padding: 15px; word-break: break-all; font-size: 14px; color: #6b7280;">{{.Link}}</p>
<p style="color: #ef4444; font-size: 14px;">This link will expire in {{.ExpiresIn}}.</p>
{{template "layout_end"}}{{end}}

{{define "password_reset"}}{{template "layout_start"}}
<h1 style="color: #111827;">Reset your password</h1>
<p>Hi {{.Name}},</p>
<p>We received a request to reset the password for your account. Click the button below to choose a new one:</p>
<p style="text-align: center; margin: 30px 0;"><a href="{{.Link}}" style="background: #3b82f6; color: #ffffff; text-decoration: none; padding: 14px 32px; border-radius: 8px; font-weight: 600;">Reset Password</a></p>
<p>Or copy and paste this link into your browser:</p>
<p style="background-color: #f3f4f6; border-radius: 6px; padding: 15px; word-break: break-all; font-size: 14px; color: #6b7280;">{{.Link}}</p>
<p style="color: #ef4444; font-size: 14px;">This link will expire in {{.ExpiresIn}}.</p>
{{template "layout_end"}}{{end}}
`))

func renderEmail(name string, content emailContent) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, content); err != nil {
		return "", fmt.Errorf("render %s email: %w", name, err)
	}
	return buf.String(), nil
}

// humanDuration renders whole hours or minutes, e.g. "24 hours" or "1 hour".
func humanDuration(d time.Duration) string {
	plural := func(n int64, unit string) string {
		if n == 1 {
			return fmt.Sprintf("1 %s", unit)
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}
	if d >= time.Hour && d%time.Hour == 0 {
		return plural(int64(d/time.Hour), "hour")
	}
	if d >= time.Minute {
		return plural(int64(d/time.Minute), "minute")
	}
	return d.String()
}
