package capture

import (
	"errors"
	"fmt"
)

// Common errors returned by the capture package.
var (
	// ErrInvalidTrigger is returned when an operation is not accepted in the
	// current state. The session is left unchanged.
	ErrInvalidTrigger = errors.New("operation not allowed in current state")

	// ErrBusy is returned while a camera request is still pending.
	ErrBusy = errors.New("camera request already in progress")

	// ErrDismissRejected is returned when closing is attempted during upload.
	ErrDismissRejected = errors.New("cannot close while uploading")

	// ErrSessionReset is returned when the session was dismissed while a
	// camera request was in flight. The late stream has been released.
	ErrSessionReset = errors.New("session was reset during camera request")

	// ErrNameRequired is returned by Submit when the product name is empty.
	ErrNameRequired = errors.New("product name is required")

	// ErrNoCapture is returned by Submit when there is no recording.
	ErrNoCapture = errors.New("no recording to upload")

	// ErrNoTenant is returned by New when Config.TenantID is empty.
	ErrNoTenant = errors.New("tenant id is required")

	// ErrNoModel is returned by Submit when the uploader reported success
	// without a model.
	ErrNoModel = errors.New("upload response carried no model")

	// ErrMediaInconsistent is wrapped by Recording.Stop when the chunks
	// delivered no longer match what the recorder wrote. The recording is
	// discarded.
	ErrMediaInconsistent = errors.New("delivered media does not match the recorder output")

	// ErrMissingCollaborator is returned by New when a collaborator is nil.
	ErrMissingCollaborator = errors.New("media devices, recorder and uploader are required")
)

// User-facing messages that do not come from an AccessReason.
const (
	MessageNameRequired    = "Please enter a product name."
	MessageNoCapture       = "There is no recording to upload. Record a video first."
	MessageRecordingFailed = "Recording failed. Please try again."
	MessageUploadFailed    = "Model upload failed. Please try again."
)

// AccessReason classifies why the camera could not be acquired.
type AccessReason int

// Access reasons.
const (
	ReasonUnclassified AccessReason = iota
	ReasonInsecureContext
	ReasonUnsupported
	ReasonPermissionDenied
	ReasonDeviceNotFound
	ReasonDeviceBusy
	ReasonConstraintsUnsatisfiable
)

var reasonNames = map[AccessReason]string{
	ReasonUnclassified:             "unclassified",
	ReasonInsecureContext:          "insecure-context",
	ReasonUnsupported:              "unsupported",
	ReasonPermissionDenied:         "permission-denied",
	ReasonDeviceNotFound:           "device-not-found",
	ReasonDeviceBusy:               "device-busy",
	ReasonConstraintsUnsatisfiable: "constraints-unsatisfiable",
}

var reasonMessages = map[AccessReason]string{
	ReasonInsecureContext:          "Camera access requires a secure (HTTPS) connection.",
	ReasonUnsupported:              "This device does not support camera capture.",
	ReasonPermissionDenied:         "Camera permission was denied. Allow camera access and try again.",
	ReasonDeviceNotFound:           "No camera was found on this device.",
	ReasonDeviceBusy:               "The camera is being used by another application.",
	ReasonConstraintsUnsatisfiable: "The camera does not support the requested settings.",
}

// String returns the reason's identifier.
func (r AccessReason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// platformNames maps platform error names to reasons.
var platformNames = map[string]AccessReason{
	"NotAllowedError":             ReasonPermissionDenied,
	"PermissionDeniedError":       ReasonPermissionDenied,
	"SecurityError":               ReasonInsecureContext,
	"InsecureContextError":        ReasonInsecureContext,
	"NotSupportedError":           ReasonUnsupported,
	"NotFoundError":               ReasonDeviceNotFound,
	"DevicesNotFoundError":        ReasonDeviceNotFound,
	"NotReadableError":            ReasonDeviceBusy,
	"TrackStartError":             ReasonDeviceBusy,
	"OverconstrainedError":        ReasonConstraintsUnsatisfiable,
	"ConstraintNotSatisfiedError": ReasonConstraintsUnsatisfiable,
}

// PlatformError is a raw error reported by a media platform, identified by
// name (e.g. "NotAllowedError").
type PlatformError struct {
	Name    string
	Message string
}

// Error implements error.
func (e *PlatformError) Error() string {
	if e.Message == "" {
		return e.Name
	}
	return e.Name + ": " + e.Message
}

// AccessError is a classified camera acquisition failure.
type AccessError struct {
	Reason AccessReason

	// Name is the raw platform error name, used in the unclassified message.
	Name string

	Err error
}

// Error implements error.
func (e *AccessError) Error() string {
	return e.Message()
}

// Unwrap returns the underlying platform error.
func (e *AccessError) Unwrap() error {
	return e.Err
}

// Message returns the user-facing text for the failure.
func (e *AccessError) Message() string {
	if msg, ok := reasonMessages[e.Reason]; ok {
		return msg
	}
	name := e.Name
	if name == "" {
		name = "unknown error"
	}
	return fmt.Sprintf("Could not start camera (%s).", name)
}

// ClassifyAccessError maps any acquisition failure to an *AccessError.
// It returns nil for a nil error.
func ClassifyAccessError(err error) *AccessError {
	if err == nil {
		return nil
	}

	var ae *AccessError
	if errors.As(err, &ae) {
		return ae
	}

	var pe *PlatformError
	if errors.As(err, &pe) {
		return &AccessError{Reason: platformNames[pe.Name], Name: pe.Name, Err: err}
	}

	return &AccessError{Reason: ReasonUnclassified, Name: err.Error(), Err: err}
}

// ErrorKind is the category of a SessionError.
type ErrorKind string

// Error kinds.
const (
	KindAccess     ErrorKind = "access"
	KindValidation ErrorKind = "validation"
	KindTransport  ErrorKind = "transport"
	KindUnexpected ErrorKind = "unexpected"
)

// SessionError is the user-visible error held by a session.
type SessionError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements error.
func (e *SessionError) Error() string {
	return e.Message
}

// Unwrap returns the cause.
func (e *SessionError) Unwrap() error {
	return e.Err
}
