package customers

// CustomerRequest is the create/update payload. Update replaces the full
// record; omitted optional fields clear their columns.
type CustomerRequest struct {
	Name                  string  `json:"name" validate:"required,max=150"`
	Mobile                string  `json:"mobile" validate:"required,max=20"`
	Email                 *string `json:"email" validate:"omitempty,email,max=255"`
	Address               *string `json:"address"`
	Landmark              *string `json:"landmark" validate:"omitempty,max=255"`
	GSTIN                 *string `json:"gstin" validate:"omitempty,len=15"`
	ContactPerson         *string `json:"contactPerson" validate:"omitempty,max=150"`
	City                  *string `json:"city" validate:"omitempty,max=100"`
	State                 *string `json:"state" validate:"omitempty,max=100"`
	Region                *string `json:"region" validate:"omitempty,max=50"`
	Pincode               *string `json:"pincode" validate:"omitempty,max=10"`
	DeliveryAddress       *string `json:"deliveryAddress"`
	DeliveryLandmark      *string `json:"deliveryLandmark" validate:"omitempty,max=255"`
	DeliveryCity          *string `json:"deliveryCity" validate:"omitempty,max=100"`
	DeliveryState         *string `json:"deliveryState" validate:"omitempty,max=100"`
	DeliveryPincode       *string `json:"deliveryPincode" validate:"omitempty,max=10"`
	DeliverySameAsBilling *bool   `json:"deliverySameAsBilling"`
}

// ListFilter narrows the customer listing.
type ListFilter struct {
	Search string
	City   string
	State  string
	Region string
	Limit  int
	Offset int
}
