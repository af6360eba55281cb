package recon

import "context"

// Store opens transactions against the host ERP's tables. All reads and
// writes of one trigger invocation share a single Tx so that a rejection
// rolls back every pending write of the submission.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is the row-level access this subsystem needs. Lookups that miss
// return (nil, nil); errors are reserved for storage failures.
// LotBySerial must lock the row for the duration of the transaction.
type Tx interface {
	OrderLines(ctx context.Context, orderID int64) ([]OrderLine, error)
	OrderLine(ctx context.Context, lineID int64) (*OrderLine, error)
	ShipmentLines(ctx context.Context, shipmentID int64) ([]ShipmentLine, error)
	ShipmentLine(ctx context.Context, lineID int64) (*ShipmentLine, error)
	MOByRef(ctx context.Context, ref string) (*ManufacturingOrder, error)
	ListReadyMOs(ctx context.Context) ([]ManufacturingOrder, error)
	LotBySerial(ctx context.Context, productID int64, serial string) (*ProductLot, error)

	UpdateOrderLineProduct(ctx context.Context, lineID, productID int64, productRef string) error
	UpdateShipmentLineProduct(ctx context.Context, lineID, productID int64, productRef string) error
	DecrementLot(ctx context.Context, lotID int64, qty int) error
	InsertStockMovement(ctx context.Context, mv StockMovement) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
