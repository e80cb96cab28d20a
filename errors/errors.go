package errors

import "errors"

var (
	ErrLockTimeout   = errors.New("timeout waiting for the file lock")
	ErrRegionSize    = errors.New("region size is not a multiple of the page size")
	ErrMisaligned    = errors.New("region base address is not page aligned")
	ErrRegionOverlap = errors.New("region overlaps an already mapped region")
	ErrNotMapped     = errors.New("address does not belong to a mapped region")
	ErrNilStore      = errors.New("region requires a backing store")
	ErrStoreBounds   = errors.New("offset outside the backing store")
	ErrStopped       = errors.New("fault manager is shutting down")
)
