package domain

import "errors"

// Error kinds shared by every service. Wrap them with fmt.Errorf("%w: ...")
// and match with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnavailable     = errors.New("unavailable")
	ErrUpstream        = errors.New("upstream error")
)
