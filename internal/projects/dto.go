package projects

import "time"

// ItemRequest is one line of a create/update payload. Catalog names are
// snapshots supplied by the client; pricing must satisfy the line-total
// identities or the write is rejected.
type ItemRequest struct {
	QuotationID   string  `json:"quotationId" validate:"required,uuid4"`
	QuotationCode string  `json:"quotationCode" validate:"required,max=50"`
	QuotationName string  `json:"quotationName" validate:"required,max=255"`
	Description   *string `json:"description"`
	SpecialNote   *string `json:"specialNote"`

	Images []string `json:"images" validate:"omitempty,dive,max=512"`

	WoodID     *string `json:"woodId" validate:"omitempty,uuid4"`
	WoodName   *string `json:"woodName" validate:"omitempty,max=100"`
	PolishID   *string `json:"polishId" validate:"omitempty,uuid4"`
	PolishName *string `json:"polishName" validate:"omitempty,max=100"`
	FabricID   *string `json:"fabricId" validate:"omitempty,uuid4"`
	FabricName *string `json:"fabricName" validate:"omitempty,max=100"`

	LengthMM *float64 `json:"length" validate:"omitempty,gt=0"`
	WidthMM  *float64 `json:"width" validate:"omitempty,gt=0"`

	BasePrice       float64 `json:"basePrice" validate:"gte=0"`
	DiscountPercent float64 `json:"discountPercent" validate:"gte=0,lte=100"`
	DiscountAmount  float64 `json:"discountAmount" validate:"gte=0"`
	FinalPrice      float64 `json:"finalPrice" validate:"gte=0"`
	Quantity        int     `json:"quantity" validate:"required,gte=1"`
	Total           float64 `json:"total" validate:"gte=0"`
	GSTPercent      float64 `json:"gstPercent" validate:"gte=0,lte=100"`
	IGST            float64 `json:"igst" validate:"gte=0"`
	CGST            float64 `json:"cgst" validate:"gte=0"`
	SGST            float64 `json:"sgst" validate:"gte=0"`
	TotalWithGST    float64 `json:"totalWithGst" validate:"gte=0"`

	Notes []string `json:"notes"`
}

// ProjectRequest is the create/update payload. On update the item list
// fully replaces the existing lines.
type ProjectRequest struct {
	Date          string  `json:"date" validate:"required,datetime=2006-01-02"`
	CustomerID    string  `json:"customerId" validate:"required,uuid4"`
	SalesPersonID *string `json:"salesPersonId" validate:"omitempty,uuid4"`

	Subtotal          float64 `json:"subtotal" validate:"gte=0"`
	TotalDiscount     float64 `json:"totalDiscount" validate:"gte=0"`
	IGST              float64 `json:"igst" validate:"gte=0"`
	CGST              float64 `json:"cgst" validate:"gte=0"`
	SGST              float64 `json:"sgst" validate:"gte=0"`
	GrandTotal        float64 `json:"grandTotal" validate:"gte=0"`
	GrandTotalWithGST float64 `json:"grandTotalWithGst" validate:"gte=0"`

	ProjectName      *string `json:"projectName" validate:"omitempty,max=255"`
	DeliveryAddress  *string `json:"deliveryAddress"`
	DeliveryLandmark *string `json:"deliveryLandmark" validate:"omitempty,max=255"`
	DeliveryCity     *string `json:"deliveryCity" validate:"omitempty,max=100"`
	DeliveryState    *string `json:"deliveryState" validate:"omitempty,max=100"`
	DeliveryPincode  *string `json:"deliveryPincode" validate:"omitempty,max=10"`

	Items []ItemRequest `json:"items" validate:"required,min=1,dive"`
}

// StatusRequest updates only the lifecycle state.
type StatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=draft sent approved expired"`
}

// SendEmailRequest dispatches the project summary email.
type SendEmailRequest struct {
	To      string  `json:"to" validate:"required,email"`
	CC      *string `json:"cc" validate:"omitempty,email"`
	Subject *string `json:"subject" validate:"omitempty,max=255"`
	Message *string `json:"message" validate:"omitempty,max=2000"`
	Type    string  `json:"type" validate:"omitempty,oneof=created sent revised approved"`
}

// ListFilter narrows the project listing.
type ListFilter struct {
	Search     string
	Status     *Status
	CustomerID string
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}
