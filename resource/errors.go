package resource

import "errors"

// Sentinel errors for the taxonomy in spec §7. None of these unwind across
// the loader or stream thread boundary; they are converted into a proxy
// Invalid state, an invalid handle, or a boolean return at the boundary.
var (
	ErrInvalidName   = errors.New("resource: empty or invalid name")
	ErrTypeMismatch  = errors.New("resource: name already registered under a different type")
	ErrInvalidArea   = errors.New("resource: area id is zero or already freed")
	ErrPathUnresolved = errors.New("resource: path does not resolve under any root")
	ErrFormatMismatch = errors.New("resource: bad magic or unsupported version")
	ErrDecodeFailure  = errors.New("resource: decoder rejected the byte stream")
)
