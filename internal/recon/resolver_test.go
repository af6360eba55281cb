package recon

import (
	"context"
	"errors"
	"testing"
)

const placeholderID = int64(31)

func resolveFixture() *memStore {
	s := newMemStore()
	s.addMO(ManufacturingOrder{ID: 101, Ref: "MO00001", Label: "Widget build", ProductID: 500, ProductRef: "P500", Status: MOValidated})
	s.addMO(ManufacturingOrder{ID: 102, Ref: "MO00002", Label: "Widget build 2", ProductID: 501, ProductRef: "P501", Status: MOValidated})
	s.addMO(ManufacturingOrder{ID: 103, Ref: "MO00003", Label: "Rack build", ProductID: 502, ProductRef: "P502", Status: MOValidated})
	s.addMO(ManufacturingOrder{ID: 104, Ref: "MO00004", Label: "Draft build", ProductID: 503, ProductRef: "P503", Status: MODraft})
	s.addLot(ProductLot{ID: 1, ProductID: placeholderID, Serial: "MO00001", Qty: 5})
	s.addLot(ProductLot{ID: 2, ProductID: placeholderID, Serial: "MO00002", Qty: 3})
	s.addLot(ProductLot{ID: 3, ProductID: placeholderID, Serial: "MO00003", Qty: 0})
	s.addLot(ProductLot{ID: 4, ProductID: placeholderID, Serial: "UNRELATED", Qty: 9})
	return s
}

func beginTx(t *testing.T, s *memStore) Tx {
	t.Helper()
	tx, err := s.Begin(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return tx
}

func TestResolveScopesToTheOneMatchingLot(t *testing.T) {
	s := resolveFixture()
	tx := beginTx(t, s)
	defer tx.Rollback(context.Background())

	r := &Resolver{PlaceholderProductID: placeholderID}
	res, err := r.Resolve(context.Background(), tx, "MO00001")
	if err != nil {
		t.Fatal(err)
	}
	// always exactly one candidate, the lot whose serial equals the ref,
	// no matter how many other lots the placeholder product holds
	if res.Lot.Serial != "MO00001" || res.Lot.Qty != 5 {
		t.Fatalf("wrong candidate lot: %+v", res.Lot)
	}
	if res.MO.ProductRef != "P500" {
		t.Fatalf("wrong produced product: %+v", res.MO)
	}
}

func TestResolveNotFound(t *testing.T) {
	s := resolveFixture()
	tx := beginTx(t, s)
	defer tx.Rollback(context.Background())

	r := &Resolver{PlaceholderProductID: placeholderID}
	_, err := r.Resolve(context.Background(), tx, "MO99999")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if !IsValidation(err) {
		t.Fatal("NotFound must be a recoverable validation error")
	}
}

func TestResolveNotReady(t *testing.T) {
	s := resolveFixture()
	tx := beginTx(t, s)
	defer tx.Rollback(context.Background())

	r := &Resolver{PlaceholderProductID: placeholderID}
	_, err := r.Resolve(context.Background(), tx, "MO00004")
	var nr *NotReadyError
	if !errors.As(err, &nr) {
		t.Fatalf("expected NotReadyError, got %v", err)
	}
	if nr.Status != MODraft {
		t.Fatalf("expected draft status in error, got %s", nr.Status)
	}
}

func TestResolveInsufficientStock(t *testing.T) {
	s := resolveFixture()
	r := &Resolver{PlaceholderProductID: placeholderID}

	// zero-quantity lot
	tx := beginTx(t, s)
	_, err := r.Resolve(context.Background(), tx, "MO00003")
	tx.Rollback(context.Background())
	var is *InsufficientStockError
	if !errors.As(err, &is) {
		t.Fatalf("expected InsufficientStockError for qty 0, got %v", err)
	}
	if is.MORef != "MO00003" || is.ProductID != placeholderID {
		t.Fatalf("error missing context: %+v", is)
	}

	// missing lot entirely
	s.addMO(ManufacturingOrder{ID: 105, Ref: "MO00005", ProductID: 504, ProductRef: "P504", Status: MOProduced})
	tx = beginTx(t, s)
	defer tx.Rollback(context.Background())
	_, err = r.Resolve(context.Background(), tx, "MO00005")
	if !errors.As(err, &is) {
		t.Fatalf("expected InsufficientStockError for missing lot, got %v", err)
	}
}

func TestResolvePersistenceFailure(t *testing.T) {
	s := resolveFixture()
	s.errOn = "MOByRef"
	s.errVal = errors.New("connection reset")
	tx := beginTx(t, s)
	defer tx.Rollback(context.Background())

	r := &Resolver{PlaceholderProductID: placeholderID}
	_, err := r.Resolve(context.Background(), tx, "MO00001")
	var pe *PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if IsValidation(err) {
		t.Fatal("persistence failures are not validation errors")
	}
}

func TestOrderEntryOptions(t *testing.T) {
	s := resolveFixture()
	tx := beginTx(t, s)
	defer tx.Rollback(context.Background())

	opts, err := OrderEntryOptions(context.Background(), tx)
	if err != nil {
		t.Fatal(err)
	}
	if got := opts["MO:101"]; got != "MO: MO00001 - Widget build" {
		t.Fatalf("unexpected option label: %q", got)
	}
	if _, ok := opts["MO:104"]; ok {
		t.Fatal("draft MO must not be offered in the dropdown")
	}
}
