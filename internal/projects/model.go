// Package projects owns quotation projects: multi-item priced quotes that
// turn into formatted PDF documents. Catalog attributes on items are
// denormalized snapshots, so documents stay stable after catalog edits.
package projects

import "time"

// Status is a project's lifecycle state.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusApproved Status = "approved"
	StatusExpired  Status = "expired"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusApproved, StatusExpired:
		return true
	}
	return false
}

// Project is a quotation project header. Monetary fields are totals over
// the items; the items themselves carry the per-line breakdown.
type Project struct {
	ID        string    `json:"id"`
	ProjectNo string    `json:"projectNo"`
	Date      time.Time `json:"date"`

	CustomerID    string  `json:"customerId"`
	SalesPersonID *string `json:"salesPersonId,omitempty"`

	Subtotal          float64 `json:"subtotal"`
	TotalDiscount     float64 `json:"totalDiscount"`
	IGST              float64 `json:"igst"`
	CGST              float64 `json:"cgst"`
	SGST              float64 `json:"sgst"`
	GrandTotal        float64 `json:"grandTotal"`
	GrandTotalWithGST float64 `json:"grandTotalWithGst"`

	ProjectName      *string `json:"projectName,omitempty"`
	DeliveryAddress  *string `json:"deliveryAddress,omitempty"`
	DeliveryLandmark *string `json:"deliveryLandmark,omitempty"`
	DeliveryCity     *string `json:"deliveryCity,omitempty"`
	DeliveryState    *string `json:"deliveryState,omitempty"`
	DeliveryPincode  *string `json:"deliveryPincode,omitempty"`

	Status Status `json:"status"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"-"`

	// Hydrated on point lookups.
	Customer    *CustomerSummary `json:"customer,omitempty"`
	SalesPerson *PersonSummary   `json:"salesPerson,omitempty"`
	Items       []ProjectItem    `json:"items,omitempty"`
}

// CustomerSummary is the customer slice embedded in project reads.
type CustomerSummary struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Mobile string  `json:"mobile"`
	Email  *string `json:"email,omitempty"`
	City   *string `json:"city,omitempty"`
	State  *string `json:"state,omitempty"`
	GSTIN  *string `json:"gstin,omitempty"`
}

// PersonSummary is the sales person slice embedded in project reads.
type PersonSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ProjectItem is one priced line. Pricing is supplied by the client and
// validated against the line-total identities at write time.
type ProjectItem struct {
	ID                 string `json:"id"`
	ProjectID          string `json:"projectId"`
	ProjectQuotationNo string `json:"projectQuotationNo"`

	QuotationID   string  `json:"quotationId"`
	QuotationCode string  `json:"quotationCode"`
	QuotationName string  `json:"quotationName"`
	Description   *string `json:"description,omitempty"`
	SpecialNote   *string `json:"specialNote,omitempty"`

	Images []string `json:"images"`

	WoodID     *string `json:"woodId,omitempty"`
	WoodName   *string `json:"woodName,omitempty"`
	PolishID   *string `json:"polishId,omitempty"`
	PolishName *string `json:"polishName,omitempty"`
	FabricID   *string `json:"fabricId,omitempty"`
	FabricName *string `json:"fabricName,omitempty"`

	LengthMM *float64 `json:"length,omitempty"`
	WidthMM  *float64 `json:"width,omitempty"`

	BasePrice       float64 `json:"basePrice"`
	DiscountPercent float64 `json:"discountPercent"`
	DiscountAmount  float64 `json:"discountAmount"`
	FinalPrice      float64 `json:"finalPrice"`
	Quantity        int     `json:"quantity"`
	Total           float64 `json:"total"`
	GSTPercent      float64 `json:"gstPercent"`
	IGST            float64 `json:"igst"`
	CGST            float64 `json:"cgst"`
	SGST            float64 `json:"sgst"`
	TotalWithGST    float64 `json:"totalWithGst"`

	Notes     []string `json:"notes"`
	SortOrder int      `json:"sortOrder"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Stats is the dashboard aggregate over all live projects.
type Stats struct {
	TotalProjects int     `json:"totalProjects"`
	DraftCount    int     `json:"draftCount"`
	SentCount     int     `json:"sentCount"`
	ApprovedCount int     `json:"approvedCount"`
	ExpiredCount  int     `json:"expiredCount"`
	TotalValue    float64 `json:"totalValue"`
	ApprovedValue float64 `json:"approvedValue"`
}
