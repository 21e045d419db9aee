package pdf

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderDocument(t *testing.T, doc Document) string {
	t.Helper()
	b := testBuilder(t)
	r, err := NewRenderer()
	require.NoError(t, err)
	html, err := r.Render(b.Build(doc))
	require.NoError(t, err)
	return html
}

func TestRenderPageCount(t *testing.T) {
	doc := Document{
		ProjectNo:    "PJ1234567890",
		Date:         time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC),
		CustomerName: "Acme Interiors",
		Items: []DocumentItem{
			{Name: "Lounge Chair", Code: "LC-01", Quantity: 2},
			{Name: "Coffee Table", Code: "CT-09", Quantity: 1},
			{Name: "Sofa", Code: "SF-03", Quantity: 1},
		},
	}
	html := renderDocument(t, doc)

	// Summary page + one page per item + terms page.
	assert.Equal(t, len(doc.Items)+2, strings.Count(html, `class="pdf-page"`))
}

func TestRenderGrandTotalDigits(t *testing.T) {
	doc := Document{
		Date:              time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC),
		CustomerName:      "Acme Interiors",
		GrandTotal:        225250,
		GrandTotalWithGST: 265795,
		Items:             []DocumentItem{{Name: "Lounge Chair", Quantity: 1}},
	}
	html := renderDocument(t, doc)

	flat := strings.ReplaceAll(html, ",", "")
	assert.Contains(t, flat, "225250")
	assert.Contains(t, flat, "265795")
}

func TestRenderPlaceholderWithoutImage(t *testing.T) {
	doc := Document{
		Date:  time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC),
		Items: []DocumentItem{{Name: "Lounge Chair", Quantity: 1}},
	}
	html := renderDocument(t, doc)

	assert.Contains(t, html, "No Image Available")
}

func TestRenderTermsPage(t *testing.T) {
	doc := Document{
		Date:  time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC),
		Items: []DocumentItem{{Name: "Lounge Chair", Quantity: 1}},
	}
	html := renderDocument(t, doc)

	assert.Contains(t, html, "valid for a period of 30 days")
	assert.Contains(t, html, "Pune jurisdiction")
}
