package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// WelcomeData fills the visitor welcome email.
type WelcomeData struct {
	Name        string
	ServiceName string
	ChurchName  string
}

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<!doctype html>
<html><body style="font-family:sans-serif;line-height:1.5">
<p>Hi {{.Name}},</p>
<p>Thank you for worshipping with us{{if .ServiceName}} at {{.ServiceName}}{{end}}. It was a joy to have you.</p>
<p>If you have a prayer request or would like to know more about {{.ChurchName}}, just reply to this email.</p>
<p>Blessings,<br>{{.ChurchName}}</p>
</body></html>`))

// RenderWelcome builds the subject and HTML body of a visitor welcome email.
// Values are HTML-escaped.
func RenderWelcome(d WelcomeData) (subject, html string, err error) {
	if d.ChurchName == "" {
		d.ChurchName = "our church"
	}
	var buf bytes.Buffer
	if err := welcomeTmpl.Execute(&buf, d); err != nil {
		return "", "", fmt.Errorf("render welcome: %w", err)
	}
	return "Welcome, " + d.Name, buf.String(), nil
}
