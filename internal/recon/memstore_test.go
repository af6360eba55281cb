package recon

import (
	"context"
	"sort"
	"sync"
)

// memStore is an in-memory Store for tests. Writes are staged on the tx
// and applied at Commit, so all-or-nothing behavior is observable.
type memStore struct {
	mu         sync.Mutex
	orderLines map[int64]*OrderLine
	shipLines  map[int64]*ShipmentLine
	mos        map[string]*ManufacturingOrder
	lots       map[int64]*ProductLot
	movements  []StockMovement

	errOn  string // method name that should fail
	errVal error
}

func newMemStore() *memStore {
	return &memStore{
		orderLines: map[int64]*OrderLine{},
		shipLines:  map[int64]*ShipmentLine{},
		mos:        map[string]*ManufacturingOrder{},
		lots:       map[int64]*ProductLot{},
	}
}

func (s *memStore) addOrderLine(l OrderLine) { s.orderLines[l.ID] = &l }

func (s *memStore) addShipmentLine(l ShipmentLine) { s.shipLines[l.ID] = &l }

func (s *memStore) addMO(mo ManufacturingOrder) { s.mos[mo.Ref] = &mo }

func (s *memStore) addLot(l ProductLot) { s.lots[l.ID] = &l }

func (s *memStore) Begin(ctx context.Context) (Tx, error) {
	return &memTx{s: s}, nil
}

type memTx struct {
	s      *memStore
	staged []func()
	done   bool
}

func (t *memTx) fail(method string) error {
	if t.s.errOn == method {
		return t.s.errVal
	}
	return nil
}

func (t *memTx) OrderLines(ctx context.Context, orderID int64) ([]OrderLine, error) {
	if err := t.fail("OrderLines"); err != nil {
		return nil, err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var out []OrderLine
	for _, l := range t.s.orderLines {
		if l.OrderID == orderID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) OrderLine(ctx context.Context, lineID int64) (*OrderLine, error) {
	if err := t.fail("OrderLine"); err != nil {
		return nil, err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	l, ok := t.s.orderLines[lineID]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (t *memTx) ShipmentLines(ctx context.Context, shipmentID int64) ([]ShipmentLine, error) {
	if err := t.fail("ShipmentLines"); err != nil {
		return nil, err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var out []ShipmentLine
	for _, l := range t.s.shipLines {
		if l.ShipmentID == shipmentID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) ShipmentLine(ctx context.Context, lineID int64) (*ShipmentLine, error) {
	if err := t.fail("ShipmentLine"); err != nil {
		return nil, err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	l, ok := t.s.shipLines[lineID]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (t *memTx) MOByRef(ctx context.Context, ref string) (*ManufacturingOrder, error) {
	if err := t.fail("MOByRef"); err != nil {
		return nil, err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	mo, ok := t.s.mos[ref]
	if !ok {
		return nil, nil
	}
	cp := *mo
	return &cp, nil
}

func (t *memTx) ListReadyMOs(ctx context.Context) ([]ManufacturingOrder, error) {
	if err := t.fail("ListReadyMOs"); err != nil {
		return nil, err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var out []ManufacturingOrder
	for _, mo := range t.s.mos {
		if mo.Status.Ready() {
			out = append(out, *mo)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ref < out[j].Ref })
	return out, nil
}

func (t *memTx) LotBySerial(ctx context.Context, productID int64, serial string) (*ProductLot, error) {
	if err := t.fail("LotBySerial"); err != nil {
		return nil, err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, l := range t.s.lots {
		if l.ProductID == productID && l.Serial == serial {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (t *memTx) UpdateOrderLineProduct(ctx context.Context, lineID, productID int64, productRef string) error {
	if err := t.fail("UpdateOrderLineProduct"); err != nil {
		return err
	}
	t.staged = append(t.staged, func() {
		if l, ok := t.s.orderLines[lineID]; ok {
			l.ProductID = productID
			l.ProductRef = productRef
			l.Label = ""
		}
	})
	return nil
}

func (t *memTx) UpdateShipmentLineProduct(ctx context.Context, lineID, productID int64, productRef string) error {
	if err := t.fail("UpdateShipmentLineProduct"); err != nil {
		return err
	}
	t.staged = append(t.staged, func() {
		if l, ok := t.s.shipLines[lineID]; ok {
			l.ProductID = productID
			l.ProductRef = productRef
			l.Label = ""
		}
	})
	return nil
}

func (t *memTx) DecrementLot(ctx context.Context, lotID int64, qty int) error {
	if err := t.fail("DecrementLot"); err != nil {
		return err
	}
	t.staged = append(t.staged, func() {
		if l, ok := t.s.lots[lotID]; ok {
			l.Qty -= qty
		}
	})
	return nil
}

func (t *memTx) InsertStockMovement(ctx context.Context, mv StockMovement) error {
	if err := t.fail("InsertStockMovement"); err != nil {
		return err
	}
	t.staged = append(t.staged, func() {
		t.s.movements = append(t.s.movements, mv)
	})
	return nil
}

func (t *memTx) Commit(ctx context.Context) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.done {
		return nil
	}
	for _, f := range t.staged {
		f()
	}
	t.staged = nil
	t.done = true
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.staged = nil
	t.done = true
	return nil
}
