package recon

// Validator enforces the per-submission shipping rules. One Validator
// instance covers one submission: the double-use set is built
// incrementally as lines are processed in stored order, so lines must be
// fed sequentially, never concurrently.
type Validator struct {
	used map[lotUse]bool
}

type lotUse struct {
	productID int64
	serial    string
}

func NewValidator() *Validator {
	return &Validator{used: make(map[lotUse]bool)}
}

// ValidateMO applies all three rules to an MO-backed line: exactly one unit,
// the chosen serial must equal the MO reference, and the (product, lot)
// pair must not have been consumed earlier in the submission. The first
// violation aborts the whole submission upstream.
func (v *Validator) ValidateMO(line ShipmentLine, res *Resolution) error {
	if line.Qty != 1 {
		return &QuantityExceededError{ProductRef: res.MO.ProductRef, MORef: res.MO.Ref, Qty: line.Qty}
	}
	if line.LotSerial != res.MO.Ref {
		return &SerialMismatchError{ProductRef: res.MO.ProductRef, Serial: line.LotSerial, MORef: res.MO.Ref}
	}
	return v.consume(res.Lot.ProductID, res.Lot.Serial, res.MO.ProductRef)
}

// ValidateSerialized applies the generic rules (quantity cap and
// double-use, not the serial match) to an ordinary serialized line.
func (v *Validator) ValidateSerialized(line ShipmentLine) error {
	if line.Qty != 1 {
		return &QuantityExceededError{ProductRef: line.ProductRef, Qty: line.Qty}
	}
	return v.consume(line.ProductID, line.LotSerial, line.ProductRef)
}

func (v *Validator) consume(productID int64, serial, productRef string) error {
	k := lotUse{productID: productID, serial: serial}
	if v.used[k] {
		return &DuplicateSerialUseError{ProductRef: productRef, Serial: serial}
	}
	v.used[k] = true
	return nil
}
