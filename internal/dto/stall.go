package dto

// StallResponse represents one priced, occupancy-annotated stall on the
// public floor map.
type StallResponse struct {
	ID              string  `json:"id"`
	EventID         string  `json:"event_id"`
	TemplateID      string  `json:"template_id"`
	Name            string  `json:"name"`
	Size            string  `json:"size"`
	Category        string  `json:"category,omitempty"`
	HallID          string  `json:"hall_id"`
	HallName        string  `json:"hall_name"`
	Status          string  `json:"status"`
	FinalPriceCents int64   `json:"final_price_cents"`
	ProximityScore  int     `json:"proximity_score"`
	ScaledScore     int     `json:"scaled_score"`
	PriceFallback   bool    `json:"price_fallback,omitempty"`
	Reserved        bool    `json:"reserved"`
	OccupiedBy      string  `json:"occupied_by,omitempty"`
	GeometryX       float64 `json:"geometry_x"`
	GeometryY       float64 `json:"geometry_y"`
	GeometryW       float64 `json:"geometry_w"`
	GeometryH       float64 `json:"geometry_h"`
}

// StallListResponse represents the floor map for one event
type StallListResponse struct {
	EventID string           `json:"event_id"`
	Stalls  []*StallResponse `json:"stalls"`
	Total   int              `json:"total"`
}

// BulkRepriceRequest represents an operator's percentage price adjustment
type BulkRepriceRequest struct {
	Percentage float64 `json:"percentage" binding:"required,gte=-90,lte=500"`
}

// BulkRepriceResponse represents the result of a bulk price adjustment
type BulkRepriceResponse struct {
	EventID        string `json:"event_id"`
	Repriced       int64  `json:"repriced"`
	PricingVersion string `json:"pricing_version"`
}

// SetAvailabilityRequest represents an operator block/unblock action
type SetAvailabilityRequest struct {
	Available bool `json:"available"`
}
