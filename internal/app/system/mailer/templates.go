// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"html/template"
)

// CommunicationEmailData holds data for the communication email template.
// BodyHTML is sanitized at write time (htmlsanitize), so embedding it
// unescaped here is safe.
type CommunicationEmailData struct {
	OrgName        string
	HeaderImageURL string
	Subject        string
	BodyHTML       template.HTML
}

// BuildCommunicationEmail renders the fixed communication template around
// the message body. From and To are set by the caller.
func BuildCommunicationEmail(data CommunicationEmailData) Email {
	return Email{
		Subject:  data.Subject,
		HTMLBody: buildCommunicationHTML(data),
	}
}

func buildCommunicationHTML(data CommunicationEmailData) string {
	tmpl := template.Must(template.New("communication").Parse(communicationHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

const communicationHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Subject}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 600px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 0; text-align: center; border-bottom: 1px solid #e5e7eb;">
              {{if .HeaderImageURL}}<img src="{{.HeaderImageURL}}" alt="{{.OrgName}}" width="600" style="display: block; width: 100%; border-radius: 8px 8px 0 0;">{{else}}<h1 style="margin: 0; padding: 32px; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.OrgName}}</h1>{{end}}
            </td>
          </tr>

          <!-- Content -->
          <tr>
            <td style="padding: 32px; font-size: 16px; color: #374151; line-height: 1.5;">
              {{.BodyHTML}}
            </td>
          </tr>

          <!-- Footer -->
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                You are receiving this message because of your communication preferences with {{.OrgName}}. You can change them in your member account at any time.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
