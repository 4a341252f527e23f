package mail

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(htmlrenderer.WithHardWraps()),
)

// Notification templates are authored in markdown and rendered to HTML at
// send time. {{.Field}} placeholders are substituted before rendering.
const newReferralTemplate = `## New referral received

**{{.PatientName}}** was referred to {{.AgencyName}}{{if .SourceName}} by {{.SourceName}}{{end}}.

- Status: {{.Status}}
- Received: {{.ReceivedAt}}

[Open the referral in your portal]({{.PortalURL}})
`

// NewReferralData feeds the new-referral notification template.
type NewReferralData struct {
	PatientName string
	AgencyName  string
	SourceName  string
	Status      string
	ReceivedAt  string
	PortalURL   string
}

// RenderNewReferral produces subject, HTML body, and plain-text fallback for
// a new-referral notification.
func RenderNewReferral(data NewReferralData) (subject, html, text string, err error) {
	tmpl, err := template.New("new_referral").Parse(newReferralTemplate)
	if err != nil {
		return "", "", "", err
	}
	var raw bytes.Buffer
	if err := tmpl.Execute(&raw, data); err != nil {
		return "", "", "", err
	}

	var out bytes.Buffer
	if err := md.Convert(raw.Bytes(), &out); err != nil {
		return "", "", "", err
	}

	subject = fmt.Sprintf("New referral: %s", data.PatientName)
	return subject, out.String(), raw.String(), nil
}
