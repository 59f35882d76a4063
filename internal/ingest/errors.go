package ingest

import (
	"errors"
	"fmt"

	"newsdiet/internal/services"
)

// ErrBusy is returned when a cycle or reprocess run is already in flight.
var ErrBusy = errors.New("ingestion already running")

// StorageError reports a store failure that stopped a cycle.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{services.ErrStorage, e.Err}
}

func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *StorageError
	if errors.As(err, &existing) {
		return existing
	}
	return &StorageError{Op: op, Err: err}
}
