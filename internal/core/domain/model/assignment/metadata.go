package assignment

// Rejection reasons written by the system. Vendor supplied reasons are stored verbatim.
const (
	ReasonOrderAlreadyAccepted = "ORDER_ALREADY_ACCEPTED"
	ReasonForceAssigned        = "FORCE_ASSIGNED"
	ReasonOrderCancelled       = "ORDER_CANCELLED"
	ReasonDeclined             = "DECLINED"
)

// Metadata is the free-form annotation stored with each ledger row.
// The dispatch options are copied into every row of a batch so that a
// fallback batch can reuse them.
type Metadata struct {
	DistanceKm      float64
	Batch           int
	RejectionReason string
	ForceAssigned   bool
	MaxRadiusKm     float64
	TimeoutSeconds  int
	BatchSize       int
}
