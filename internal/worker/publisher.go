package worker

import (
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/stocklink/mo-reconcile/internal/kafka"
	"github.com/stocklink/mo-reconcile/internal/recon"
)

// Publisher emits reconciliation results. Shared by the consumer service
// and the synchronous HTTP handlers so both paths produce the same wire
// events.
type Publisher struct {
	Applied     *kafkax.Producer
	Rejected    *kafkax.Producer
	ServiceName string
}

func (p *Publisher) PublishApplied(docKind string, docID int64, results []recon.LineResult, trace string) {
	payload := recon.ReconAppliedPayload{
		DocKind: docKind,
		DocID:   docID,
		Lines:   recon.Outcomes(results),
	}
	p.publish(p.Applied, recon.EventReconciliationApplied, docID, kafkax.MustMarshal(payload), trace)
}

func (p *Publisher) PublishRejected(docKind string, docID int64, reason string, results []recon.LineResult, trace string) {
	payload := recon.ReconRejectedPayload{
		DocKind: docKind,
		DocID:   docID,
		Reason:  reason,
		Lines:   recon.Outcomes(results),
	}
	p.publish(p.Rejected, recon.EventReconciliationRejected, docID, kafkax.MustMarshal(payload), trace)
}

func (p *Publisher) publish(prod *kafkax.Producer, eventType string, docID int64, payload []byte, trace string) {
	ev := recon.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.ServiceName,
		TraceID:       trace,
		CorrelationID: string(recon.PartitionKey(docID)),
		Payload:       payload,
	}
	prod.Publish(recon.PartitionKey(docID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
