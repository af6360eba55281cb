package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stocklink/mo-reconcile/internal/recon"
)

// Store implements recon.Store against the host ERP's tables. It owns no
// schema: the tables are the host's, this service only reads and rewrites
// the columns the reconciliation touches.
type Store struct{ DB *pgxpool.Pool }

func (s *Store) Begin(ctx context.Context) (recon.Tx, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}

type Tx struct{ tx pgx.Tx }

func (t *Tx) OrderLines(ctx context.Context, orderID int64) ([]recon.OrderLine, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, order_id, COALESCE(product_id, 0), COALESCE(product_ref, ''),
		       COALESCE(description, ''), COALESCE(label, ''), qty, price_cents
		FROM order_lines WHERE order_id=$1 ORDER BY ordinal, id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []recon.OrderLine
	for rows.Next() {
		var l recon.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductRef, &l.Description, &l.Label, &l.Qty, &l.PriceCents); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (t *Tx) OrderLine(ctx context.Context, lineID int64) (*recon.OrderLine, error) {
	var l recon.OrderLine
	err := t.tx.QueryRow(ctx, `
		SELECT id, order_id, COALESCE(product_id, 0), COALESCE(product_ref, ''),
		       COALESCE(description, ''), COALESCE(label, ''), qty, price_cents
		FROM order_lines WHERE id=$1`, lineID).
		Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductRef, &l.Description, &l.Label, &l.Qty, &l.PriceCents)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (t *Tx) ShipmentLines(ctx context.Context, shipmentID int64) ([]recon.ShipmentLine, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, shipment_id, COALESCE(origin_line_id, 0), COALESCE(product_id, 0),
		       COALESCE(product_ref, ''), COALESCE(label, ''), qty, COALESCE(lot_serial, '')
		FROM shipment_lines WHERE shipment_id=$1 ORDER BY ordinal, id`, shipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []recon.ShipmentLine
	for rows.Next() {
		var l recon.ShipmentLine
		if err := rows.Scan(&l.ID, &l.ShipmentID, &l.OriginLineID, &l.ProductID, &l.ProductRef, &l.Label, &l.Qty, &l.LotSerial); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (t *Tx) ShipmentLine(ctx context.Context, lineID int64) (*recon.ShipmentLine, error) {
	var l recon.ShipmentLine
	err := t.tx.QueryRow(ctx, `
		SELECT id, shipment_id, COALESCE(origin_line_id, 0), COALESCE(product_id, 0),
		       COALESCE(product_ref, ''), COALESCE(label, ''), qty, COALESCE(lot_serial, '')
		FROM shipment_lines WHERE id=$1`, lineID).
		Scan(&l.ID, &l.ShipmentID, &l.OriginLineID, &l.ProductID, &l.ProductRef, &l.Label, &l.Qty, &l.LotSerial)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (t *Tx) MOByRef(ctx context.Context, ref string) (*recon.ManufacturingOrder, error) {
	var mo recon.ManufacturingOrder
	var status string
	err := t.tx.QueryRow(ctx, `
		SELECT id, ref, COALESCE(label, ''), product_id, product_ref, status
		FROM manufacturing_orders WHERE ref=$1`, ref).
		Scan(&mo.ID, &mo.Ref, &mo.Label, &mo.ProductID, &mo.ProductRef, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	mo.Status = recon.MOStatus(status)
	return &mo, nil
}

func (t *Tx) ListReadyMOs(ctx context.Context) ([]recon.ManufacturingOrder, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, ref, COALESCE(label, ''), product_id, product_ref, status
		FROM manufacturing_orders WHERE status = ANY($1) ORDER BY ref`, recon.ReadyStatuses())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []recon.ManufacturingOrder
	for rows.Next() {
		var mo recon.ManufacturingOrder
		var status string
		if err := rows.Scan(&mo.ID, &mo.Ref, &mo.Label, &mo.ProductID, &mo.ProductRef, &status); err != nil {
			return nil, err
		}
		mo.Status = recon.MOStatus(status)
		out = append(out, mo)
	}
	return out, rows.Err()
}

// LotBySerial locks the row so the decrement later in the same tx cannot
// race another submission's read of the same lot.
func (t *Tx) LotBySerial(ctx context.Context, productID int64, serial string) (*recon.ProductLot, error) {
	var l recon.ProductLot
	err := t.tx.QueryRow(ctx, `
		SELECT id, product_id, serial, qty FROM product_lots
		WHERE product_id=$1 AND serial=$2 FOR UPDATE`, productID, serial).
		Scan(&l.ID, &l.ProductID, &l.Serial, &l.Qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (t *Tx) UpdateOrderLineProduct(ctx context.Context, lineID, productID int64, productRef string) error {
	// label is cleared so the host refetches the produced product's name
	_, err := t.tx.Exec(ctx, `
		UPDATE order_lines SET product_id=$2, product_ref=$3, label=NULL
		WHERE id=$1`, lineID, productID, productRef)
	return err
}

func (t *Tx) UpdateShipmentLineProduct(ctx context.Context, lineID, productID int64, productRef string) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE shipment_lines SET product_id=$2, product_ref=$3, label=NULL
		WHERE id=$1`, lineID, productID, productRef)
	return err
}

func (t *Tx) DecrementLot(ctx context.Context, lotID int64, qty int) error {
	ct, err := t.tx.Exec(ctx, `UPDATE product_lots SET qty = qty - $2 WHERE id=$1`, lotID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return errors.New("lot row missing")
	}
	return nil
}

func (t *Tx) InsertStockMovement(ctx context.Context, mv recon.StockMovement) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO stock_movements(id, product_id, lot_id, serial, qty, reason, occurred_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		mv.ID, mv.ProductID, mv.LotID, mv.Serial, mv.Qty, mv.Reason, mv.OccurredAt)
	return err
}

func (t *Tx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *Tx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }
