package recon

import (
	"errors"
	"fmt"
)

// Reason codes carried on result events so the host can render messages
// without re-querying.
const (
	ReasonNotFound           = "MO_NOT_FOUND"
	ReasonNotReady           = "MO_NOT_READY"
	ReasonInsufficientStock  = "INSUFFICIENT_STOCK"
	ReasonQuantityExceeded   = "QUANTITY_EXCEEDED"
	ReasonSerialMismatch     = "SERIAL_MISMATCH"
	ReasonDuplicateSerialUse = "DUPLICATE_SERIAL_USE"
	ReasonPersistence        = "PERSISTENCE_FAILURE"
)

// NotFoundError: the MO reference does not resolve to any record.
type NotFoundError struct {
	MORef string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("manufacturing order %s not found", e.MORef)
}

// NotReadyError: the MO exists but is not in a producible status.
type NotReadyError struct {
	MORef  string
	Status MOStatus
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("manufacturing order %s not ready (status %s)", e.MORef, e.Status)
}

// InsufficientStockError: no placeholder lot with the MO serial, or its
// quantity is below 1.
type InsufficientStockError struct {
	MORef     string
	ProductID int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("no stock for serial %s on placeholder product %d", e.MORef, e.ProductID)
}

// QuantityExceededError: an MO-backed (or serialized) line asked for more
// than one unit.
type QuantityExceededError struct {
	ProductRef string
	MORef      string
	Qty        int
}

func (e *QuantityExceededError) Error() string {
	if e.MORef != "" {
		return fmt.Sprintf("too many units (%d) of %s for manufacturing order %s", e.Qty, e.ProductRef, e.MORef)
	}
	return fmt.Sprintf("too many units (%d) of serialized product %s", e.Qty, e.ProductRef)
}

// SerialMismatchError: the chosen lot is not the one the MO demands.
type SerialMismatchError struct {
	ProductRef string
	Serial     string
	MORef      string
}

func (e *SerialMismatchError) Error() string {
	return fmt.Sprintf("serial %s on product %s does not match manufacturing order %s", e.Serial, e.ProductRef, e.MORef)
}

// DuplicateSerialUseError: the same (product, lot) pair consumed twice in
// one submission.
type DuplicateSerialUseError struct {
	ProductRef string
	Serial     string
}

func (e *DuplicateSerialUseError) Error() string {
	return fmt.Sprintf("serial %s on product %s already used in this submission", e.Serial, e.ProductRef)
}

// PersistenceError wraps a storage failure. Fatal for the submission.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistErr(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// IsValidation reports whether err belongs to the recoverable validation
// category: it aborts the current line/submission but is not fatal to the
// host application.
func IsValidation(err error) bool {
	var (
		nf *NotFoundError
		nr *NotReadyError
		is *InsufficientStockError
		qe *QuantityExceededError
		sm *SerialMismatchError
		du *DuplicateSerialUseError
	)
	return errors.As(err, &nf) || errors.As(err, &nr) || errors.As(err, &is) ||
		errors.As(err, &qe) || errors.As(err, &sm) || errors.As(err, &du)
}

// ReasonCode maps an error to its wire reason code.
func ReasonCode(err error) string {
	var (
		nf *NotFoundError
		nr *NotReadyError
		is *InsufficientStockError
		qe *QuantityExceededError
		sm *SerialMismatchError
		du *DuplicateSerialUseError
	)
	switch {
	case errors.As(err, &nf):
		return ReasonNotFound
	case errors.As(err, &nr):
		return ReasonNotReady
	case errors.As(err, &is):
		return ReasonInsufficientStock
	case errors.As(err, &qe):
		return ReasonQuantityExceeded
	case errors.As(err, &sm):
		return ReasonSerialMismatch
	case errors.As(err, &du):
		return ReasonDuplicateSerialUse
	default:
		return ReasonPersistence
	}
}
