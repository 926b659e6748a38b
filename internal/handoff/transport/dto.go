package transport

// ResolveRequest is the query of the JSON and QR endpoints.
type ResolveRequest struct {
	Num         string `form:"num" validate:"required,max=64"`
	CallingCode string `form:"callingCode" validate:"omitempty,callingcode"`
}

// QRRequest extends ResolveRequest with the image size in pixels.
type QRRequest struct {
	ResolveRequest
	Size int `form:"size" validate:"omitempty,min=64,max=1024"`
}

// ResolveResponse describes a successful handoff.
type ResolveResponse struct {
	Number      string `json:"number"`
	WhatsAppURL string `json:"whatsappUrl"`
	Region      string `json:"region,omitempty"`
	LineType    string `json:"lineType"`
	CallingCode string `json:"callingCode,omitempty"`
	Source      string `json:"source,omitempty"`
}

// UnresolvedDetails is attached to 422 responses.
type UnresolvedDetails struct {
	Reason string `json:"reason"`
}
