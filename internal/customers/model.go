// Package customers holds the customer master used by projects. Customers
// are soft-deleted; historical projects keep their references.
package customers

import "time"

// Customer carries a billing address plus an optional separate delivery
// address. When DeliverySameAsBilling is set the delivery block is ignored.
type Customer struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	Mobile                string     `json:"mobile"`
	Email                 *string    `json:"email,omitempty"`
	Address               *string    `json:"address,omitempty"`
	Landmark              *string    `json:"landmark,omitempty"`
	GSTIN                 *string    `json:"gstin,omitempty"`
	ContactPerson         *string    `json:"contactPerson,omitempty"`
	City                  *string    `json:"city,omitempty"`
	State                 *string    `json:"state,omitempty"`
	Region                *string    `json:"region,omitempty"`
	Pincode               *string    `json:"pincode,omitempty"`
	DeliveryAddress       *string    `json:"deliveryAddress,omitempty"`
	DeliveryLandmark      *string    `json:"deliveryLandmark,omitempty"`
	DeliveryCity          *string    `json:"deliveryCity,omitempty"`
	DeliveryState         *string    `json:"deliveryState,omitempty"`
	DeliveryPincode       *string    `json:"deliveryPincode,omitempty"`
	DeliverySameAsBilling bool       `json:"deliverySameAsBilling"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
	DeletedAt             *time.Time `json:"-"`
}
