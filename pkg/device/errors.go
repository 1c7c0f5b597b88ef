package device

import "errors"

// Common errors returned by the device package.
var (
	// ErrNotVideoDevice is returned when a path is not a videoN node.
	ErrNotVideoDevice = errors.New("not a video device")

	// ErrProbeUnavailable is returned when v4l2-ctl cannot be run.
	ErrProbeUnavailable = errors.New("v4l2-ctl not available")
)

// Platform error names reported by Provider.
const (
	nameNotSupported = "NotSupportedError"
	nameNotFound     = "NotFoundError"
	nameNotAllowed   = "NotAllowedError"
	nameNotReadable  = "NotReadableError"
	nameConstraint   = "OverconstrainedError"
	nameAbort        = "AbortError"
)
