package recon

import "context"

// Resolution is the outcome of a successful MO lookup: the order record
// and the single candidate lot whose serial equals the MO reference.
type Resolution struct {
	MO  *ManufacturingOrder
	Lot *ProductLot
}

// Resolver turns an extracted MO reference into the produced product and
// its one consumable lot on the placeholder product.
type Resolver struct {
	PlaceholderProductID int64
}

// Resolve looks up the MO by reference and the placeholder lot carrying
// that reference as its serial. Never returns more than one candidate:
// lots with other serials on the placeholder product are out of scope,
// which is what distinguishes MO-backed lines from ordinary serialized
// handling.
func (r *Resolver) Resolve(ctx context.Context, tx Tx, moRef string) (*Resolution, error) {
	mo, err := tx.MOByRef(ctx, moRef)
	if err != nil {
		return nil, persistErr("mo lookup", err)
	}
	if mo == nil {
		return nil, &NotFoundError{MORef: moRef}
	}
	if !mo.Status.Ready() {
		return nil, &NotReadyError{MORef: moRef, Status: mo.Status}
	}

	lot, err := tx.LotBySerial(ctx, r.PlaceholderProductID, moRef)
	if err != nil {
		return nil, persistErr("lot lookup", err)
	}
	if lot == nil || lot.Qty < 1 {
		return nil, &InsufficientStockError{MORef: moRef, ProductID: r.PlaceholderProductID}
	}
	return &Resolution{MO: mo, Lot: lot}, nil
}
