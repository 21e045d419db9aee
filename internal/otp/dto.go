package otp

// RequestOTPRequest is the issuance payload.
type RequestOTPRequest struct {
	Type       Type    `json:"type" validate:"required,oneof=login discount master_activation"`
	Email      string  `json:"email" validate:"required,email"`
	EntityID   *string `json:"entityId,omitempty" validate:"omitempty,uuid4"`
	EntityType *string `json:"entityType,omitempty" validate:"omitempty,max=64"`
}

// ApproveOTPRequest carries the code under verification.
type ApproveOTPRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}
