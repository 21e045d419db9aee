// Package pdf renders quotation documents to print-accurate A4 PDFs using a
// pooled headless Chrome process. The pipeline is split so each stage stays
// testable on its own: Build (data -> view model), Render (view model ->
// HTML), Generate (HTML -> PDF file).
package pdf

import (
	"fmt"
	"sort"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Document is the fully-hydrated project snapshot handed to the renderer.
// All catalog names are denormalized copies taken when the item was added,
// so a document re-rendered years later still reads the same.
type Document struct {
	ProjectID         string
	ProjectNo         string
	Date              time.Time
	CustomerName      string
	CustomerMobile    string
	SalesPersonName   string
	GrandTotal        float64
	CGST              float64
	SGST              float64
	GrandTotalWithGST float64
	Items             []DocumentItem
}

// DocumentItem is one priced line of the document.
type DocumentItem struct {
	Name            string
	Code            string
	Images          []string
	WoodName        string
	PolishName      string
	FabricName      string
	LengthMM        float64
	WidthMM         float64
	SpecialNote     string
	Notes           []string
	BasePrice       float64
	DiscountPercent float64
	DiscountAmount  float64
	FinalPrice      float64
	Quantity        int
	Total           float64
	CGST            float64
	TotalWithGST    float64
	SortOrder       int
}

// View is the fully-formatted model the HTML template executes against.
type View struct {
	Logo              string
	ClientName        string
	ClientMobile      string
	Date              string
	SalesPerson       string
	Rows              []SummaryRow
	GrandTotal        string
	CGST              string
	SGST              string
	GrandTotalWithGST string
	Pages             []ItemPage
	Terms             []string
}

// SummaryRow is one line of the page-1 summary table.
type SummaryRow struct {
	Index      int
	Label      string
	FinalPrice string
	Quantity   int
	Total      string
}

// ItemPage is one per-item detail page.
type ItemPage struct {
	Index           int
	Name            string
	Code            string
	ImageSrc        string
	NoteLines       []string
	DescRows        []DescRow
	BasePrice       string
	DiscountPercent string
	DiscountAmount  string
	FinalPrice      string
	Quantity        int
	Total           string
	CGST            string
	TotalWithGST    string
}

// DescRow is one label/value line of the description block.
type DescRow struct {
	Label string
	Value string
}

// terms is the fixed Terms & Conditions page content.
var terms = []string{
	"The quotation is valid for a period of 30 days from the date of this offer.",
	"The order shall be processed only after receipt of the purchase order and 70% advance payment from the client.",
	"The order shall be dispatched only after receipt of the remaining 30% balance payment.",
	"The order shall be dispatched within 3 working days after receipt of the final payment.",
	"Transfer of property in goods shall occur once the goods are dispatched to the customer. Ecstatics shall ensure repair or replacement in case of transit damage.",
	"In case of cancellation of the order at any stage for any reason, the amount collected shall stand forfeited.",
	"After delivery, if the customer is unable to accept the products at site for any reason, the client shall be responsible for any damages to the products.",
	"Godown demurrage charges of ₹3,000 per week shall be levied if delivery is not accepted after intimation. Products will be held for a maximum of 4 weeks, post which the order will be cancelled and the amount collected will be forfeited.",
	"Invoice shall be issued in the name mentioned in the purchase order received from the client.",
	"All rights related to photography, videography, and promotional activities of the products before and after delivery are reserved with Ecstatics Spaces India Pvt. Ltd.",
	"Expenses related to logistics, transportation, unloading, and on-site placement of products shall be in the client's scope.",
	"A tolerance of up to 50mm shall be acceptable in the gross dimensions of the products.",
	"All products shall be dispatched from the Sangamner godown.",
	"All disputes are subject to Pune jurisdiction only.",
	"All prices are mentioned in INR.",
}

// inr formats integers with Indian digit grouping (en-IN locale).
var inr = message.NewPrinter(language.MustParse("en-IN"))

// FormatCurrency renders an amount as a grouped integer, no decimals.
func FormatCurrency(v float64) string {
	return inr.Sprint(number.Decimal(v, number.MaxFractionDigits(0)))
}

// FormatDate renders a date in d/m/yyyy numeric form.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year())
}

// Builder turns a Document into a View. Image references are resolved
// through the supplied Assets so the build step itself stays free of I/O
// decisions; resolution degrades to URL fallbacks and never fails.
type Builder struct {
	assets *Assets
}

// NewBuilder constructs a Builder.
func NewBuilder(assets *Assets) *Builder {
	return &Builder{assets: assets}
}

// Build produces the formatted view model. Items render in non-decreasing
// SortOrder; the sort is stable so equal ranks keep their input order.
func (b *Builder) Build(doc Document) View {
	items := make([]DocumentItem, len(doc.Items))
	copy(items, doc.Items)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].SortOrder < items[j].SortOrder
	})

	salesPerson := doc.SalesPersonName
	if salesPerson == "" {
		salesPerson = "—"
	}

	view := View{
		Logo:              b.assets.Logo(),
		ClientName:        doc.CustomerName,
		ClientMobile:      doc.CustomerMobile,
		Date:              FormatDate(doc.Date),
		SalesPerson:       salesPerson,
		GrandTotal:        FormatCurrency(doc.GrandTotal),
		CGST:              FormatCurrency(doc.CGST),
		SGST:              FormatCurrency(doc.SGST),
		GrandTotalWithGST: FormatCurrency(doc.GrandTotalWithGST),
		Terms:             terms,
	}

	for i, item := range items {
		view.Rows = append(view.Rows, SummaryRow{
			Index:      i + 1,
			Label:      fmt.Sprintf("%s  (%s)", item.Name, item.Code),
			FinalPrice: FormatCurrency(item.FinalPrice),
			Quantity:   item.Quantity,
			Total:      FormatCurrency(item.Total),
		})
		view.Pages = append(view.Pages, b.buildItemPage(i, item))
	}

	return view
}

func (b *Builder) buildItemPage(index int, item DocumentItem) ItemPage {
	page := ItemPage{
		Index:           index + 1,
		Name:            item.Name,
		Code:            item.Code,
		NoteLines:       noteLines(item),
		DescRows:        descRows(item),
		BasePrice:       FormatCurrency(item.BasePrice),
		DiscountPercent: fmt.Sprintf("%g", item.DiscountPercent),
		DiscountAmount:  FormatCurrency(item.DiscountAmount),
		FinalPrice:      FormatCurrency(item.FinalPrice),
		Quantity:        item.Quantity,
		Total:           FormatCurrency(item.Total),
		CGST:            FormatCurrency(item.CGST),
		TotalWithGST:    FormatCurrency(item.TotalWithGST),
	}
	if len(item.Images) > 0 && item.Images[0] != "" {
		page.ImageSrc = b.assets.ResolveImage(item.Images[0])
	}
	return page
}

// noteLines numbers the descriptive notes sequentially, adapting to which
// optional attributes are present. Free-form notes appear only when neither
// wood nor fabric is set, matching how the documents have always printed.
func noteLines(item DocumentItem) []string {
	lines := []string{fmt.Sprintf("1. %s", item.Name)}
	if item.WoodName != "" {
		lines = append(lines, fmt.Sprintf("2. Base frame & support : %s with %s", item.WoodName, item.PolishName))
	}
	if item.FabricName != "" {
		n := 2
		if item.WoodName != "" {
			n = 3
		}
		lines = append(lines, fmt.Sprintf("%d. Upholstery : %s", n, item.FabricName))
	}
	if len(item.Notes) > 0 && item.WoodName == "" && item.FabricName == "" {
		for _, note := range item.Notes {
			lines = append(lines, fmt.Sprintf("%d. %s", len(lines)+1, note))
		}
	}
	return lines
}

// descRows builds the description block. Material rows appear for whichever
// of wood/polish/fabric is set; only when all three are absent does the
// block fall back to raw dimensions and the special note.
func descRows(item DocumentItem) []DescRow {
	var rows []DescRow
	if item.WoodName != "" {
		rows = append(rows, DescRow{Label: "Wood", Value: ": " + item.WoodName})
	}
	if item.PolishName != "" {
		rows = append(rows, DescRow{Label: "Polish", Value: ": " + item.PolishName})
	}
	if item.FabricName != "" {
		rows = append(rows, DescRow{Label: "Fabric", Value: ": " + item.FabricName})
	}
	if len(rows) == 0 {
		rows = append(rows,
			DescRow{Label: "Length", Value: dimension(item.LengthMM)},
			DescRow{Label: "Width", Value: dimension(item.WidthMM)},
			DescRow{Label: "Special Note", Value: fallback(item.SpecialNote)},
		)
	}
	return rows
}

func dimension(mm float64) string {
	if mm <= 0 {
		return "—"
	}
	return fmt.Sprintf("%g (mm)", mm)
}

func fallback(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
