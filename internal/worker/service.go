package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/stocklink/mo-reconcile/internal/kafka"
	"github.com/stocklink/mo-reconcile/internal/recon"
	"github.com/stocklink/mo-reconcile/internal/redisx"
)

// Service consumes the host's business events and runs the trigger.
// Handlers return nil when the offset may be committed: a rejected
// submission is a final outcome (published on the rejected topic), only
// storage failures are retried via the consumer's error path.
type Service struct {
	Trigger *recon.Trigger
	Redis   *redis.Client
	Pub     *Publisher
}

func (s *Service) HandleOrderValidated(ctx context.Context, m kafkago.Message) error {
	env, ok, err := s.decode(ctx, m, recon.EventOrderValidated)
	if err != nil || !ok {
		return err
	}
	p, err := kafkax.UnwrapPayload[recon.OrderValidatedPayload](env.Payload)
	if err != nil {
		return err
	}

	status, results, err := s.Trigger.OrderValidated(ctx, p.OrderID)
	if status == recon.StatusFailed {
		return err // storage failure, retry
	}
	s.report(ctx, "order", p.OrderID, status, results, env.TraceID)
	return nil
}

func (s *Service) HandleShipmentSubmitted(ctx context.Context, m kafkago.Message) error {
	env, ok, err := s.decode(ctx, m, recon.EventShipmentSubmitted)
	if err != nil || !ok {
		return err
	}
	p, err := kafkax.UnwrapPayload[recon.ShipmentSubmittedPayload](env.Payload)
	if err != nil {
		return err
	}

	status, results, err := s.Trigger.ShipmentSubmitted(ctx, p.ShipmentID)
	if status == recon.StatusFailed && !recon.IsValidation(err) {
		return err // storage failure, retry
	}
	if status == recon.StatusFailed {
		// final rejection: the host rolls back the submission on our
		// negative status, nothing to retry here
		s.Pub.PublishRejected("shipment", p.ShipmentID, recon.ReasonCode(err), results, env.TraceID)
		s.cacheOutcome(ctx, "shipment", p.ShipmentID, results)
		return nil
	}
	s.report(ctx, "shipment", p.ShipmentID, status, results, env.TraceID)
	return nil
}

func (s *Service) HandleShipmentLineUpserted(ctx context.Context, m kafkago.Message) error {
	env, ok, err := s.decode(ctx, m, recon.EventShipmentLineUpserted)
	if err != nil || !ok {
		return err
	}
	p, err := kafkax.UnwrapPayload[recon.ShipmentLineUpsertedPayload](env.Payload)
	if err != nil {
		return err
	}

	status, result, err := s.Trigger.ShipmentLineUpserted(ctx, p.LineID)
	var results []recon.LineResult
	if result != nil {
		results = []recon.LineResult{*result}
	}
	if status == recon.StatusFailed && !recon.IsValidation(err) {
		return err
	}
	if status == recon.StatusFailed {
		s.Pub.PublishRejected("shipment", p.ShipmentID, recon.ReasonCode(err), results, env.TraceID)
		s.cacheOutcome(ctx, "shipment", p.ShipmentID, results)
		return nil
	}
	s.report(ctx, "shipment", p.ShipmentID, status, results, env.TraceID)
	return nil
}

// decode unmarshals the envelope, filters by event type, and dedups by
// event id so redeliveries do not re-run the trigger.
func (s *Service) decode(ctx context.Context, m kafkago.Message, wantType string) (recon.Envelope, bool, error) {
	var env recon.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		return env, false, err
	}
	if env.EventType != wantType {
		return env, false, nil
	}
	dkey := fmt.Sprintf(redisx.KeyDedup, s.Pub.ServiceName, env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return env, false, nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	return env, true, nil
}

func (s *Service) report(ctx context.Context, docKind string, docID int64, status int, results []recon.LineResult, trace string) {
	if status == recon.StatusApplied {
		s.Pub.PublishApplied(docKind, docID, results, trace)
		// the consumed lots' resolution previews are stale now
		if keys := MOPreviewKeys(results); len(keys) > 0 {
			_ = s.Redis.Del(ctx, keys...).Err()
		}
	}
	// flagged lines (order context keeps going past them) still surface
	for _, r := range results {
		if r.State == recon.StateRejected {
			s.Pub.PublishRejected(docKind, docID, recon.ReasonCode(r.Err), results, trace)
			break
		}
	}
	if len(results) > 0 {
		s.cacheOutcome(ctx, docKind, docID, results)
	}
}

func (s *Service) cacheOutcome(ctx context.Context, docKind string, docID int64, results []recon.LineResult) {
	key := fmt.Sprintf(redisx.KeyReconStatus, docKind, docID)
	b, err := json.Marshal(recon.Outcomes(results))
	if err != nil {
		return
	}
	_ = s.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
}
