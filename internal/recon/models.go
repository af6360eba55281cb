package recon

import "time"

// OrderLine is a sales-order line as stored by the host ERP.
// ProductID == 0 means the line has no product reference yet.
type OrderLine struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductRef  string
	Description string
	Label       string
	Qty         int
	PriceCents  int
}

// ShipmentLine references its origin order line; OriginLineID is a weak
// back-reference used for lookup only.
type ShipmentLine struct {
	ID           int64
	ShipmentID   int64
	OriginLineID int64
	ProductID    int64
	ProductRef   string
	Label        string
	Qty          int
	LotSerial    string
}

// ManufacturingOrder is owned by the host's manufacturing subsystem;
// this service only reads it. ProductID/ProductRef identify the
// produced product, not the placeholder.
type ManufacturingOrder struct {
	ID         int64
	Ref        string
	Label      string
	ProductID  int64
	ProductRef string
	Status     MOStatus
}

// ProductLot is an inventory sub-unit identified by its serial token.
// For the placeholder product, the serial carries the MO reference.
type ProductLot struct {
	ID        int64
	ProductID int64
	Serial    string
	Qty       int
}

// StockMovement compensates a shipment-time product substitution.
// Qty is negative for consumption.
type StockMovement struct {
	ID         string
	ProductID  int64
	LotID      int64
	Serial     string
	Qty        int
	Reason     string
	OccurredAt time.Time
}
