package control

import "errors"

// Lifecycle and remote-invocation errors returned at the Init/Quit and
// Invoke API boundary.
var (
	ErrAlreadyInitialized = errors.New("control: already initialized")
	ErrNotInitialized     = errors.New("control: not initialized")
	ErrUnknownDevice      = errors.New("control: unknown device")
	ErrUnknownService     = errors.New("control: unknown service")
	ErrUnknownAction      = errors.New("control: unknown action")
)
