package host

import "errors"

// Lifecycle errors returned at the Init/Quit API boundary (spec §7:
// "typed lifecycle errors" rather than raw wrapped errors crossing that
// boundary).
var (
	ErrAlreadyInitialized   = errors.New("host: already initialized")
	ErrNotInitialized       = errors.New("host: not initialized")
	ErrInvalidConfiguration = errors.New("host: invalid configuration")
	ErrInvalidDeviceDescription = errors.New("host: invalid device description")
)
