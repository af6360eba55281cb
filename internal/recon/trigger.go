package recon

import (
	"context"
	"log"
)

// Config replaces the host's global flags with an explicit value object,
// fixed at construction time.
type Config struct {
	EnableAutoReplace    bool
	LogReplacements      bool
	PlaceholderProductID int64
}

// Dispatch status codes per the host event contract: negative rolls back
// the surrounding transaction, zero is a no-op, positive means the
// replacement was applied.
const (
	StatusFailed  = -1
	StatusNoop    = 0
	StatusApplied = 1
)

// LineResult reports the terminal state of one line. Err is set for
// Rejected lines and carries the full validation context.
type LineResult struct {
	LineID int64
	MORef  string
	State  LineState
	Err    error
}

// Trigger sequences classifier, resolver, validator and rewriter for one
// business event. It never panics past its boundary: every outcome is a
// status code plus per-line results.
type Trigger struct {
	store    Store
	cfg      Config
	resolver *Resolver
	rewriter *Rewriter
}

func NewTrigger(store Store, cfg Config) *Trigger {
	return &Trigger{
		store:    store,
		cfg:      cfg,
		resolver: &Resolver{PlaceholderProductID: cfg.PlaceholderProductID},
		rewriter: &Rewriter{PlaceholderProductID: cfg.PlaceholderProductID, LogReplacements: cfg.LogReplacements},
	}
}

func step(from, to LineState) LineState {
	if !CanTransition(from, to) {
		log.Printf("invalid line state transition %s -> %s", from, to)
	}
	return to
}

// OrderValidated reconciles every MO-pending line of a validated order.
// Order context is per-line best effort: a line that cannot resolve is
// flagged Rejected and the remaining lines still reconcile, so the order
// validation itself succeeds.
func (t *Trigger) OrderValidated(ctx context.Context, orderID int64) (int, []LineResult, error) {
	if !t.cfg.EnableAutoReplace {
		return StatusNoop, nil, nil
	}
	tx, err := t.store.Begin(ctx)
	if err != nil {
		return StatusFailed, nil, persistErr("begin", err)
	}
	defer tx.Rollback(ctx)

	lines, err := tx.OrderLines(ctx, orderID)
	if err != nil {
		return StatusFailed, nil, persistErr("order lines", err)
	}

	var results []LineResult
	applied := 0
	for i := range lines {
		line := &lines[i]
		state := StateInspecting
		cls := Classify(line.ProductID, line.Description)
		if cls.Class == RegularLine {
			results = append(results, LineResult{LineID: line.ID, State: step(state, StateCommitted)})
			continue
		}

		state = step(state, StateResolving)
		res, err := t.resolver.Resolve(ctx, tx, cls.MORef)
		if err != nil {
			if IsValidation(err) {
				results = append(results, LineResult{LineID: line.ID, MORef: cls.MORef, State: step(state, StateRejected), Err: err})
				continue
			}
			return StatusFailed, results, err
		}

		state = step(state, StateValidating)
		state = step(state, StateRewriting)
		if err := t.rewriter.RewriteOrderLine(ctx, tx, line, res); err != nil {
			return StatusFailed, results, err
		}
		results = append(results, LineResult{LineID: line.ID, MORef: cls.MORef, State: step(state, StateCommitted)})
		applied++
	}

	if applied == 0 {
		return StatusNoop, results, nil
	}
	if err := tx.Commit(ctx); err != nil {
		return StatusFailed, results, persistErr("commit", err)
	}
	return StatusApplied, results, nil
}

// ShipmentSubmitted reconciles a whole shipment submission. Shipment
// context is all-or-nothing: the first rule violation aborts the
// transaction, so no stock movement or rewrite from an earlier line in
// the same submission survives.
func (t *Trigger) ShipmentSubmitted(ctx context.Context, shipmentID int64) (int, []LineResult, error) {
	if !t.cfg.EnableAutoReplace {
		return StatusNoop, nil, nil
	}
	tx, err := t.store.Begin(ctx)
	if err != nil {
		return StatusFailed, nil, persistErr("begin", err)
	}
	defer tx.Rollback(ctx)

	lines, err := tx.ShipmentLines(ctx, shipmentID)
	if err != nil {
		return StatusFailed, nil, persistErr("shipment lines", err)
	}

	v := NewValidator()
	var results []LineResult
	applied := 0
	for i := range lines {
		line := &lines[i]
		status, result, err := t.reconcileShipmentLine(ctx, tx, v, line)
		results = append(results, result)
		if err != nil {
			return StatusFailed, results, err
		}
		if status == StatusApplied {
			applied++
		}
	}

	if applied == 0 {
		return StatusNoop, results, nil
	}
	if err := tx.Commit(ctx); err != nil {
		return StatusFailed, results, persistErr("commit", err)
	}
	return StatusApplied, results, nil
}

// ShipmentLineUpserted handles hosts that dispatch per-line insert or
// update events: a one-line submission under the same rules.
func (t *Trigger) ShipmentLineUpserted(ctx context.Context, lineID int64) (int, *LineResult, error) {
	if !t.cfg.EnableAutoReplace {
		return StatusNoop, nil, nil
	}
	tx, err := t.store.Begin(ctx)
	if err != nil {
		return StatusFailed, nil, persistErr("begin", err)
	}
	defer tx.Rollback(ctx)

	line, err := tx.ShipmentLine(ctx, lineID)
	if err != nil {
		return StatusFailed, nil, persistErr("shipment line", err)
	}
	if line == nil {
		return StatusNoop, nil, nil
	}

	status, result, err := t.reconcileShipmentLine(ctx, tx, NewValidator(), line)
	if err != nil {
		return StatusFailed, &result, err
	}
	if status == StatusApplied {
		if err := tx.Commit(ctx); err != nil {
			return StatusFailed, &result, persistErr("commit", err)
		}
		return StatusApplied, &result, nil
	}
	return StatusNoop, &result, nil
}

// reconcileShipmentLine runs one shipment line through the state machine.
// A returned error means the whole submission must abort; the result is
// still filled in so the caller can report which line failed.
func (t *Trigger) reconcileShipmentLine(ctx context.Context, tx Tx, v *Validator, line *ShipmentLine) (int, LineResult, error) {
	state := StateInspecting

	if line.ProductID != t.cfg.PlaceholderProductID {
		// ordinary line: generic serialized rules still apply when a lot
		// was chosen, but nothing is rewritten
		if line.LotSerial != "" {
			if err := v.ValidateSerialized(*line); err != nil {
				return StatusFailed, LineResult{LineID: line.ID, State: StateRejected, Err: err}, err
			}
		}
		return StatusNoop, LineResult{LineID: line.ID, State: step(state, StateCommitted)}, nil
	}

	moRef, err := t.moRefForShipmentLine(ctx, tx, line)
	if err != nil {
		return StatusFailed, LineResult{LineID: line.ID, State: StateRejected, Err: err}, err
	}

	state = step(state, StateResolving)
	res, err := t.resolver.Resolve(ctx, tx, moRef)
	if err != nil {
		return StatusFailed, LineResult{LineID: line.ID, MORef: moRef, State: step(state, StateRejected), Err: err}, err
	}

	state = step(state, StateValidating)
	if err := v.ValidateMO(*line, res); err != nil {
		return StatusFailed, LineResult{LineID: line.ID, MORef: moRef, State: step(state, StateRejected), Err: err}, err
	}

	state = step(state, StateRewriting)
	if err := t.rewriter.RewriteShipmentLine(ctx, tx, line, res); err != nil {
		return StatusFailed, LineResult{LineID: line.ID, MORef: moRef, State: step(state, StateRejected), Err: err}, err
	}
	return StatusApplied, LineResult{LineID: line.ID, MORef: moRef, State: step(state, StateCommitted)}, nil
}

// moRefForShipmentLine recovers the MO reference a placeholder shipment
// line stands for. The origin order line's description is authoritative
// (it survives the order-time rewrite); the chosen lot serial is the
// fallback when the origin is unavailable.
func (t *Trigger) moRefForShipmentLine(ctx context.Context, tx Tx, line *ShipmentLine) (string, error) {
	if line.OriginLineID != 0 {
		origin, err := tx.OrderLine(ctx, line.OriginLineID)
		if err != nil {
			return "", persistErr("origin line", err)
		}
		if origin != nil {
			if ref := ExtractMORef(origin.Description); ref != "" {
				return ref, nil
			}
		}
	}
	return line.LotSerial, nil
}
