package recon

import (
	"errors"
	"testing"
)

func moResolution() *Resolution {
	return &Resolution{
		MO:  &ManufacturingOrder{ID: 101, Ref: "MO00001", ProductID: 500, ProductRef: "P500", Status: MOValidated},
		Lot: &ProductLot{ID: 1, ProductID: placeholderID, Serial: "MO00001", Qty: 5},
	}
}

func TestValidateMOAcceptsSingleMatchingUnit(t *testing.T) {
	v := NewValidator()
	line := ShipmentLine{ID: 2001, Qty: 1, LotSerial: "MO00001"}
	if err := v.ValidateMO(line, moResolution()); err != nil {
		t.Fatal(err)
	}
}

func TestValidateMOQuantityCap(t *testing.T) {
	v := NewValidator()
	line := ShipmentLine{ID: 2001, Qty: 2, LotSerial: "MO00001"}
	err := v.ValidateMO(line, moResolution())
	var qe *QuantityExceededError
	if !errors.As(err, &qe) {
		t.Fatalf("expected QuantityExceededError, got %v", err)
	}
	if qe.ProductRef != "P500" || qe.MORef != "MO00001" {
		t.Fatalf("error missing context: %+v", qe)
	}
}

func TestValidateMORejectsZeroQuantity(t *testing.T) {
	// quantity must equal 1 exactly: a zero-qty line would otherwise be
	// rewritten and record a zero-qty stock movement
	v := NewValidator()
	line := ShipmentLine{ID: 2001, Qty: 0, LotSerial: "MO00001"}
	err := v.ValidateMO(line, moResolution())
	var qe *QuantityExceededError
	if !errors.As(err, &qe) {
		t.Fatalf("expected QuantityExceededError, got %v", err)
	}
	if qe.Qty != 0 {
		t.Fatalf("error should carry the offending quantity: %+v", qe)
	}

	v = NewValidator()
	err = v.ValidateSerialized(ShipmentLine{ID: 1, ProductID: 700, ProductRef: "P700", Qty: 0, LotSerial: "SN-1"})
	if !errors.As(err, &qe) {
		t.Fatalf("expected QuantityExceededError for serialized line, got %v", err)
	}
}

func TestValidateMOSerialMismatch(t *testing.T) {
	v := NewValidator()
	// MO00002 has stock of its own, but this line's MO demands MO00001
	line := ShipmentLine{ID: 2001, Qty: 1, LotSerial: "MO00002"}
	err := v.ValidateMO(line, moResolution())
	var sm *SerialMismatchError
	if !errors.As(err, &sm) {
		t.Fatalf("expected SerialMismatchError, got %v", err)
	}
	if sm.Serial != "MO00002" || sm.MORef != "MO00001" || sm.ProductRef != "P500" {
		t.Fatalf("error missing context: %+v", sm)
	}
}

func TestValidateMODoubleUse(t *testing.T) {
	v := NewValidator()
	line := ShipmentLine{ID: 2001, Qty: 1, LotSerial: "MO00001"}
	if err := v.ValidateMO(line, moResolution()); err != nil {
		t.Fatal(err)
	}
	line2 := ShipmentLine{ID: 2002, Qty: 1, LotSerial: "MO00001"}
	err := v.ValidateMO(line2, moResolution())
	var du *DuplicateSerialUseError
	if !errors.As(err, &du) {
		t.Fatalf("expected DuplicateSerialUseError, got %v", err)
	}
}

func TestValidateSerializedGenericRules(t *testing.T) {
	v := NewValidator()

	// quantity cap applies to ordinary serialized products too
	err := v.ValidateSerialized(ShipmentLine{ID: 1, ProductID: 700, ProductRef: "P700", Qty: 3, LotSerial: "SN-1"})
	var qe *QuantityExceededError
	if !errors.As(err, &qe) {
		t.Fatalf("expected QuantityExceededError, got %v", err)
	}

	// and so does double-use
	if err := v.ValidateSerialized(ShipmentLine{ID: 2, ProductID: 700, ProductRef: "P700", Qty: 1, LotSerial: "SN-1"}); err != nil {
		t.Fatal(err)
	}
	err = v.ValidateSerialized(ShipmentLine{ID: 3, ProductID: 700, ProductRef: "P700", Qty: 1, LotSerial: "SN-1"})
	var du *DuplicateSerialUseError
	if !errors.As(err, &du) {
		t.Fatalf("expected DuplicateSerialUseError, got %v", err)
	}

	// same serial on a different product is a different lot
	if err := v.ValidateSerialized(ShipmentLine{ID: 4, ProductID: 701, ProductRef: "P701", Qty: 1, LotSerial: "SN-1"}); err != nil {
		t.Fatal(err)
	}
}

func TestLineStateTransitions(t *testing.T) {
	valid := [][2]LineState{
		{StateInspecting, StateCommitted},
		{StateInspecting, StateResolving},
		{StateResolving, StateValidating},
		{StateResolving, StateRejected},
		{StateValidating, StateRewriting},
		{StateValidating, StateRejected},
		{StateRewriting, StateCommitted},
		{StateRewriting, StateRejected},
	}
	for _, v := range valid {
		if !CanTransition(v[0], v[1]) {
			t.Errorf("%s -> %s should be allowed", v[0], v[1])
		}
	}
	invalid := [][2]LineState{
		{StateCommitted, StateRejected},
		{StateRejected, StateCommitted},
		{StateInspecting, StateRewriting},
		{StateRewriting, StateResolving},
	}
	for _, v := range invalid {
		if CanTransition(v[0], v[1]) {
			t.Errorf("%s -> %s should not be allowed", v[0], v[1])
		}
	}
}
