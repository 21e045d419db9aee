package pdf

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/ecstatics-spaces/backoffice/web"
)

// Renderer executes the quotation document template. It is a pure view-model
// to string transformation with no I/O, so fragments can be asserted against
// fixtures without a browser.
type Renderer struct {
	tpl *template.Template
}

// NewRenderer parses the embedded quotation template.
func NewRenderer() (*Renderer, error) {
	tpl, err := template.ParseFS(web.Templates, "templates/quotation_pdf.html")
	if err != nil {
		return nil, fmt.Errorf("pdf: parse template: %w", err)
	}
	return &Renderer{tpl: tpl}, nil
}

// Render produces the complete multi-page HTML document: one summary page,
// one page per item, one terms page.
func (r *Renderer) Render(view View) (string, error) {
	buf := &bytes.Buffer{}
	if err := r.tpl.Execute(buf, view); err != nil {
		return "", fmt.Errorf("pdf: execute template: %w", err)
	}
	return buf.String(), nil
}
