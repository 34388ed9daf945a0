package sendleadnotifications

import (
	"fmt"
	"html"
	"strings"

	"franchise-leads/internal/models"
)

var templates = map[string]models.NotificationTemplate{
	TemplateSubmitterConfirmation: {
		ID:      TemplateSubmitterConfirmation,
		Subject: "Thanks for your interest in {{brandName}}",
		Body: "Hi {{fullName}},\n\n" +
			"Thanks for reaching out about owning a {{brandName}} franchise in {{cityState}}. " +
			"Our team has your inquiry and will be in touch soon.\n\n" +
			"The {{brandName}} Franchise Team",
		HTMLBody: "<p>Hi {{fullName}},</p>" +
			"<p>Thanks for reaching out about owning a {{brandName}} franchise in {{cityState}}. " +
			"Our team has your inquiry and will be in touch soon.</p>" +
			"<p>The {{brandName}} Franchise Team</p>",
	},
	TemplateOperatorAlert: {
		ID:      TemplateOperatorAlert,
		Subject: "New franchise lead: {{fullName}} ({{cityState}})",
		Body: "Lead ID: {{leadId}}\n" +
			"Name: {{fullName}}\n" +
			"Email: {{email}}\n" +
			"Phone: {{phone}}\n" +
			"City/State: {{cityState}}\n" +
			"Owns a business: {{ownsBusiness}} {{businessNameIndustry}}\n" +
			"Why: {{interestReason}}\n" +
			"Budget: {{estimatedBudget}}\n" +
			"Has space: {{hasSpace}} {{spaceLocationSize}}\n" +
			"Timeline: {{startTimeline}}\n" +
			"Heard about us: {{heardAboutUs}}\n" +
			"Submitted: {{createdAt}}\n",
		HTMLBody: "<h2>New franchise lead</h2><table>" +
			"<tr><td>Lead ID</td><td>{{leadId}}</td></tr>" +
			"<tr><td>Name</td><td>{{fullName}}</td></tr>" +
			"<tr><td>Email</td><td>{{email}}</td></tr>" +
			"<tr><td>Phone</td><td>{{phone}}</td></tr>" +
			"<tr><td>City/State</td><td>{{cityState}}</td></tr>" +
			"<tr><td>Owns a business</td><td>{{ownsBusiness}} {{businessNameIndustry}}</td></tr>" +
			"<tr><td>Why</td><td>{{interestReason}}</td></tr>" +
			"<tr><td>Budget</td><td>{{estimatedBudget}}</td></tr>" +
			"<tr><td>Has space</td><td>{{hasSpace}} {{spaceLocationSize}}</td></tr>" +
			"<tr><td>Timeline</td><td>{{startTimeline}}</td></tr>" +
			"<tr><td>Heard about us</td><td>{{heardAboutUs}}</td></tr>" +
			"<tr><td>Submitted</td><td>{{createdAt}}</td></tr>" +
			"</table>",
	},
	TemplateOperatorSMS: {
		ID:   TemplateOperatorSMS,
		Body: "New {{brandName}} lead: {{fullName}}, {{cityState}}, {{phone}}",
	},
}

func templateData(lead models.Lead, brandName string) map[string]interface{} {
	data := lead.Document()
	data["leadId"] = lead.ID
	data["createdAt"] = lead.CreatedAt.UTC().Format("2006-01-02 15:04 MST")
	data["brandName"] = brandName
	return data
}

// renderTemplate substitutes {{key}} placeholders in a single pass over tmpl.
// Substituted values are written as-is and never scanned again. Unknown
// placeholders render as empty. escape, when set, is applied to every
// substituted value.
func renderTemplate(tmpl string, data map[string]interface{}, escape func(string) string) string {
	var b strings.Builder
	rest := tmpl
	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(rest[start+2:], "}}")
		if end == -1 {
			break
		}
		b.WriteString(rest[:start])
		key := rest[start+2 : start+2+end]
		rest = rest[start+2+end+2:]

		value := templateValue(data[key])
		if escape != nil {
			value = escape(value)
		}
		b.WriteString(value)
	}
	b.WriteString(rest)
	return b.String()
}

func templateValue(v interface{}) string {
	switch tv := v.(type) {
	case string:
		return tv
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", tv)
	}
}

type rendered struct {
	Subject string
	Text    string
	HTML    string
}

func render(id string, data map[string]interface{}) (rendered, error) {
	t, ok := templates[id]
	if !ok {
		return rendered{}, fmt.Errorf("template not found: %s", id)
	}
	return rendered{
		Subject: strings.TrimSpace(renderTemplate(t.Subject, data, nil)),
		Text:    renderTemplate(t.Body, data, nil),
		HTML:    renderTemplate(t.HTMLBody, data, html.EscapeString),
	}, nil
}
