package recon

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// Rewriter swaps a validated placeholder line to the produced product and
// persists the change. Shipment-time rewrites additionally consume the
// lot and record a compensating stock movement, since those lines were
// already committed against the placeholder.
type Rewriter struct {
	PlaceholderProductID int64
	LogReplacements      bool
}

// RewriteOrderLine points the order line at the produced product and
// clears the stale label cache. No-op when the line already carries the
// produced product.
func (w *Rewriter) RewriteOrderLine(ctx context.Context, tx Tx, line *OrderLine, res *Resolution) error {
	if line.ProductID == res.MO.ProductID {
		return nil
	}
	if line.ProductID != 0 && line.ProductID != w.PlaceholderProductID {
		// some other real product, not ours to touch
		return nil
	}
	if err := tx.UpdateOrderLineProduct(ctx, line.ID, res.MO.ProductID, res.MO.ProductRef); err != nil {
		return persistErr("order line rewrite", err)
	}
	line.ProductID = res.MO.ProductID
	line.ProductRef = res.MO.ProductRef
	line.Label = ""
	if w.LogReplacements {
		log.Printf("replaced order line %d with product %s (mo %s)", line.ID, res.MO.ProductRef, res.MO.Ref)
	}
	return nil
}

// RewriteShipmentLine substitutes the produced product on a committed
// shipment line, decrements the lot, and writes the compensating
// movement. No-op when the line no longer points at the placeholder.
func (w *Rewriter) RewriteShipmentLine(ctx context.Context, tx Tx, line *ShipmentLine, res *Resolution) error {
	if line.ProductID != w.PlaceholderProductID {
		return nil
	}
	if err := tx.UpdateShipmentLineProduct(ctx, line.ID, res.MO.ProductID, res.MO.ProductRef); err != nil {
		return persistErr("shipment line rewrite", err)
	}
	if err := tx.DecrementLot(ctx, res.Lot.ID, line.Qty); err != nil {
		return persistErr("lot decrement", err)
	}
	mv := StockMovement{
		ID:         uuid.NewString(),
		ProductID:  res.Lot.ProductID,
		LotID:      res.Lot.ID,
		Serial:     res.Lot.Serial,
		Qty:        -line.Qty,
		Reason:     "MO reconcile " + res.MO.Ref,
		OccurredAt: time.Now().UTC(),
	}
	if err := tx.InsertStockMovement(ctx, mv); err != nil {
		return persistErr("stock movement", err)
	}
	line.ProductID = res.MO.ProductID
	line.ProductRef = res.MO.ProductRef
	line.Label = ""
	if w.LogReplacements {
		log.Printf("replaced shipment line %d with product %s (mo %s, lot %d)", line.ID, res.MO.ProductRef, res.MO.Ref, res.Lot.ID)
	}
	return nil
}
