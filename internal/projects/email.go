package projects

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/ecstatics-spaces/backoffice/internal/mail"
	"github.com/ecstatics-spaces/backoffice/internal/pdf"
)

// projectMailer composes and dispatches project summary emails, recording
// every attempt in the email log.
type projectMailer struct {
	sender mail.Sender
	emails mail.LogRepository
	logger *slog.Logger
}

// NewMailer wires the summary-email dependencies for the projects service.
func NewMailer(sender mail.Sender, emails mail.LogRepository, logger *slog.Logger) *projectMailer {
	return &projectMailer{sender: sender, emails: emails, logger: logger}
}

var emailIntros = map[string]string{
	"created":  "A new quotation has been prepared for you.",
	"sent":     "Please find your quotation summary below.",
	"revised":  "Your quotation has been revised. The updated summary is below.",
	"approved": "Your quotation has been approved. Thank you for your confirmation.",
}

func (m *projectMailer) sendSummary(ctx context.Context, p *Project, req SendEmailRequest, userID string) error {
	emailType := req.Type
	if _, ok := emailIntros[emailType]; !ok {
		emailType = "sent"
	}

	subject := fmt.Sprintf("Project %s - Ecstatics Spaces", p.ProjectNo)
	if req.Subject != nil && *req.Subject != "" {
		subject = *req.Subject
	}

	msg := mail.Message{
		To:      req.To,
		Subject: subject,
		HTML:    summaryHTML(p, emailType, req.Message),
		Text:    summaryText(p, emailType),
	}
	if req.CC != nil {
		msg.CC = *req.CC
	}

	sent := m.sender.Send(ctx, msg)

	status := mail.StatusSent
	if !sent {
		status = mail.StatusFailed
	}
	entry := mail.Log{
		ToEmail:       req.To,
		Subject:       subject,
		Type:          "project_" + emailType,
		ReferenceID:   &p.ID,
		ReferenceType: refType("project"),
		Status:        status,
	}
	if userID != "" {
		entry.SentBy = &userID
	}
	if err := m.emails.Record(ctx, entry); err != nil {
		m.logger.Error("projects: record email log", slog.String("error", err.Error()))
	}

	if !sent {
		return fmt.Errorf("projects: email delivery to %s failed", req.To)
	}
	return nil
}

func summaryHTML(p *Project, emailType string, message *string) string {
	var b strings.Builder

	recipient := "Customer"
	if p.Customer != nil {
		recipient = p.Customer.Name
	}

	b.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 640px; margin: 0 auto; color: #1a1a1a;">`)
	fmt.Fprintf(&b, `<h2 style="margin-bottom: 4px;">Project %s</h2>`, html.EscapeString(p.ProjectNo))
	fmt.Fprintf(&b, `<p>Dear %s,</p>`, html.EscapeString(recipient))
	fmt.Fprintf(&b, `<p>%s</p>`, emailIntros[emailType])
	if message != nil && *message != "" {
		fmt.Fprintf(&b, `<p>%s</p>`, html.EscapeString(*message))
	}

	fmt.Fprintf(&b, `<p style="color: #555;">Date: %s`, pdf.FormatDate(p.Date))
	if p.SalesPerson != nil {
		fmt.Fprintf(&b, ` &middot; Sales Manager: %s`, html.EscapeString(p.SalesPerson.Name))
	}
	b.WriteString(`</p>`)

	b.WriteString(`<table style="width: 100%; border-collapse: collapse; margin: 16px 0;">`)
	b.WriteString(`<tr style="background: #f4f4f4;">
		<th style="border: 1px solid #ddd; padding: 8px; text-align: left;">Code</th>
		<th style="border: 1px solid #ddd; padding: 8px; text-align: left;">Product</th>
		<th style="border: 1px solid #ddd; padding: 8px; text-align: right;">Price</th>
		<th style="border: 1px solid #ddd; padding: 8px; text-align: right;">Qty</th>
		<th style="border: 1px solid #ddd; padding: 8px; text-align: right;">Total</th>
	</tr>`)
	for _, it := range p.Items {
		fmt.Fprintf(&b, `<tr>
			<td style="border: 1px solid #ddd; padding: 8px;">%s</td>
			<td style="border: 1px solid #ddd; padding: 8px;">%s</td>
			<td style="border: 1px solid #ddd; padding: 8px; text-align: right;">%s</td>
			<td style="border: 1px solid #ddd; padding: 8px; text-align: right;">%d</td>
			<td style="border: 1px solid #ddd; padding: 8px; text-align: right;">%s</td>
		</tr>`,
			html.EscapeString(it.QuotationCode), html.EscapeString(it.QuotationName),
			pdf.FormatCurrency(it.FinalPrice), it.Quantity, pdf.FormatCurrency(it.Total))
	}
	b.WriteString(`</table>`)

	b.WriteString(`<table style="margin-left: auto; border-collapse: collapse;">`)
	fmt.Fprintf(&b, `<tr><td style="padding: 4px 16px 4px 0;">Grand Total</td><td style="text-align: right;">%s</td></tr>`, pdf.FormatCurrency(p.GrandTotal))
	fmt.Fprintf(&b, `<tr><td style="padding: 4px 16px 4px 0;">CGST</td><td style="text-align: right;">%s</td></tr>`, pdf.FormatCurrency(p.CGST))
	fmt.Fprintf(&b, `<tr><td style="padding: 4px 16px 4px 0;">SGST</td><td style="text-align: right;">%s</td></tr>`, pdf.FormatCurrency(p.SGST))
	fmt.Fprintf(&b, `<tr><td style="padding: 4px 16px 4px 0;"><strong>Grand Total With GST</strong></td><td style="text-align: right;"><strong>%s</strong></td></tr>`, pdf.FormatCurrency(p.GrandTotalWithGST))
	b.WriteString(`</table>`)

	b.WriteString(`<p style="color: #888; font-size: 12px;">Ecstatics Spaces India Pvt. Ltd.</p></div>`)
	return b.String()
}

func summaryText(p *Project, emailType string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project %s\n\n%s\n\n", p.ProjectNo, emailIntros[emailType])
	for _, it := range p.Items {
		fmt.Fprintf(&b, "%s  %s  x%d  %s\n", it.QuotationCode, it.QuotationName, it.Quantity, pdf.FormatCurrency(it.Total))
	}
	fmt.Fprintf(&b, "\nGrand Total With GST: %s\n", pdf.FormatCurrency(p.GrandTotalWithGST))
	return b.String()
}

func refType(s string) *string { return &s }
