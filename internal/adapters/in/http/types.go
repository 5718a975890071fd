package http

import "time"

// Error is the body of every non-2xx response.
type Error struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type NewOrder struct {
	ID        string  `json:"id"`
	DisplayID string  `json:"displayId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Status    string  `json:"status,omitempty"`
}

type DispatchOptions struct {
	MaxRadiusKm    float64 `json:"maxRadiusKm,omitempty"`
	BatchSize      int     `json:"batchSize,omitempty"`
	TimeoutSeconds int     `json:"timeoutSeconds,omitempty"`
}

type Candidate struct {
	VendorID   string  `json:"vendorId"`
	DistanceKm float64 `json:"distanceKm"`
}

type Batch struct {
	OrderID    string      `json:"orderId"`
	Batch      int         `json:"batch"`
	ExpiresAt  time.Time   `json:"expiresAt"`
	Candidates []Candidate `json:"candidates"`
}

type AcceptResult struct {
	Success bool   `json:"success"`
	Winner  bool   `json:"winner"`
	Reason  string `json:"reason,omitempty"`
}

type RejectResult struct {
	NextBatch        *Batch `json:"nextBatch,omitempty"`
	AssignmentFailed bool   `json:"assignmentFailed"`
}

type Reason struct {
	Reason string `json:"reason"`
}

type ForceAssign struct {
	VendorID string `json:"vendorId"`
}

type AdvanceOrder struct {
	VendorID string `json:"vendorId"`
	Status   string `json:"status"`
}

type VendorUpsert struct {
	AccountID string  `json:"accountId"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Status    string  `json:"status"`
}

type AssignmentRow struct {
	ID              string     `json:"id"`
	VendorID        string     `json:"vendorId"`
	Status          string     `json:"status"`
	Batch           int        `json:"batch"`
	DistanceKm      float64    `json:"distanceKm"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	ForceAssigned   bool       `json:"forceAssigned"`
	PushedAt        time.Time  `json:"pushedAt"`
	RespondedAt     *time.Time `json:"respondedAt,omitempty"`
	ExpiresAt       time.Time  `json:"expiresAt"`
}

type VendorOffer struct {
	AssignmentID string    `json:"assignmentId"`
	OrderID      string    `json:"orderId"`
	DisplayID    string    `json:"displayId"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	DistanceKm   float64   `json:"distanceKm"`
	Batch        int       `json:"batch"`
	PushedAt     time.Time `json:"pushedAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type SweepResult struct {
	OrdersChecked   int `json:"ordersChecked"`
	OffersExpired   int `json:"offersExpired"`
	BatchesPushed   int `json:"batchesPushed"`
	OrdersFailed    int `json:"ordersFailed"`
	StrandedHandled int `json:"strandedHandled"`
}

// ExpireOffersParams are the query parameters of POST /api/v1/offers/expire.
type ExpireOffersParams struct {
	Limit *int `form:"limit" json:"limit,omitempty"`
}
