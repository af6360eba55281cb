package recon

import (
	"encoding/json"
	"strconv"
	"time"
)

const (
	EventOrderValidated         = "OrderValidated"
	EventShipmentSubmitted      = "ShipmentSubmitted"
	EventShipmentLineUpserted   = "ShipmentLineUpserted"
	EventReconciliationApplied  = "ReconciliationApplied"
	EventReconciliationRejected = "ReconciliationRejected"
)

const (
	TopicOrderValidated       = "erp.order.validated"
	TopicShipmentSubmitted    = "erp.shipment.submitted"
	TopicShipmentLineUpserted = "erp.shipment.line.upserted"
	TopicReconApplied         = "recon.applied"
	TopicReconRejected        = "recon.rejected"
)

// Partition key = document id, so every event for one order/shipment
// keeps its order. In-submission sequencing depends on this.
func PartitionKey(docID int64) []byte {
	return []byte(strconv.FormatInt(docID, 10))
}

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // document id
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload types per event ----

type OrderValidatedPayload struct {
	OrderID int64  `json:"order_id"`
	UserRef string `json:"user_ref,omitempty"`
}

type ShipmentSubmittedPayload struct {
	ShipmentID int64  `json:"shipment_id"`
	UserRef    string `json:"user_ref,omitempty"`
}

type ShipmentLineUpsertedPayload struct {
	LineID     int64 `json:"line_id"`
	ShipmentID int64 `json:"shipment_id"`
}

// LineOutcome mirrors LineResult on the wire, with the validation
// context flattened so the host can render a message directly.
type LineOutcome struct {
	LineID int64  `json:"line_id"`
	MORef  string `json:"mo_ref,omitempty"`
	State  string `json:"state"`
	Reason string `json:"reason,omitempty"`
	Detail string `json:"detail,omitempty"`
}

type ReconAppliedPayload struct {
	DocKind string        `json:"doc_kind"` // order | shipment
	DocID   int64         `json:"doc_id"`
	Lines   []LineOutcome `json:"lines"`
}

type ReconRejectedPayload struct {
	DocKind string        `json:"doc_kind"`
	DocID   int64         `json:"doc_id"`
	Reason  string        `json:"reason"`
	Lines   []LineOutcome `json:"lines,omitempty"`
}

// Outcomes converts trigger results for publication.
func Outcomes(results []LineResult) []LineOutcome {
	out := make([]LineOutcome, 0, len(results))
	for _, r := range results {
		o := LineOutcome{LineID: r.LineID, MORef: r.MORef, State: string(r.State)}
		if r.Err != nil {
			o.Reason = ReasonCode(r.Err)
			o.Detail = r.Err.Error()
		}
		out = append(out, o)
	}
	return out
}
