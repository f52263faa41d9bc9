package database

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks errors coming from the store itself rather than from
// a domain precondition. Handlers map it to 503; everything wrapped with
// StorageError matches errors.Is(err, ErrUnavailable).
var ErrUnavailable = errors.New("storage unavailable")

func StorageError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
