package orders

import (
	"errors"
	"fmt"
)

// Sentinel kinds for the order core's error taxonomy. Concrete errors wrap
// one of these so callers can branch with errors.Is without caring about the
// message text.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrPermission        = errors.New("permission denied")
	ErrConflict          = errors.New("conflict")
	ErrStorage           = errors.New("storage failure")
)

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func stockErr(listingID int64, requested, available int) error {
	return fmt.Errorf("%w: listing %d has %d available, %d requested",
		ErrInsufficientStock, listingID, available, requested)
}

func permissionErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPermission, fmt.Sprintf(format, args...))
}

func conflictErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// storageErr wraps an underlying store failure. The cause stays on the chain
// for logging; callers only see the ErrStorage kind.
func storageErr(op string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, cause)
}

// isDomainErr reports whether err already carries one of the taxonomy kinds.
func isDomainErr(err error) bool {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrInsufficientStock, ErrPermission, ErrConflict, ErrStorage} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
