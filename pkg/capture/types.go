// Package capture implements the camera capture session behind the
// "add product" dialog: acquire a camera, record a short video, review it,
// enter product metadata and submit it for 3D reconstruction.
//
// A Session is a state machine. The current State is the only thing that
// decides which trigger is accepted; a trigger in the wrong state is a no-op
// that returns ErrInvalidTrigger. Hardware and network work is delegated to
// collaborators (MediaDevices, Recorder, Uploader) so the controller itself
// stays free of platform code and can be driven by tests with fakes.
//
// State flow:
//
//	idle -> camera-ready -> recording -> review -> metadata-entry -> uploading -> closed
//	review --retake--> idle
//	metadata-entry --back--> idle
//	uploading --failure--> metadata-entry
//
// Example usage:
//
//	s, err := capture.New(capture.Config{TenantID: tenant.ID}, devices, rec, client, log)
//	if err != nil {
//	    return err
//	}
//	go render(s.Events())
//	if err := s.RequestCamera(ctx); err != nil {
//	    // s.Snapshot().LastError holds the user-facing message
//	}
package capture

import (
	"context"
	"time"

	"github.com/0xmhha/armenu-panel/pkg/api"
)

// State is the lifecycle state of a capture session.
type State string

// Session states.
const (
	StateIdle          State = "idle"
	StateCameraReady   State = "camera-ready"
	StateRecording     State = "recording"
	StateReview        State = "review"
	StateMetadataEntry State = "metadata-entry"
	StateUploading     State = "uploading"
	StateClosed        State = "closed"
)

// IsTerminal reports whether no further trigger is accepted.
func (s State) IsTerminal() bool {
	return s == StateClosed
}

// Permission is the outcome of the last camera permission request.
type Permission string

// Permission values.
const (
	PermissionUnrequested Permission = "unrequested"
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
)

// DismissSource identifies what asked to close the dialog.
type DismissSource string

// Dismiss sources.
const (
	DismissCloseButton DismissSource = "close-button"
	DismissEscape      DismissSource = "escape"
	DismissBackdrop    DismissSource = "backdrop"
)

// Constraints describe the requested camera configuration.
// Zero values leave the choice to the device.
type Constraints struct {
	Device     string
	Width      int
	Height     int
	FPS        int
	FacingMode string
}

// MediaDevices acquires live camera streams.
//
// Failures should be *AccessError or *PlatformError values; anything else is
// classified as ReasonUnclassified.
type MediaDevices interface {
	Acquire(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is a live camera stream made of one or more tracks.
type Stream interface {
	Tracks() []Track
}

// Track is a single media track. Stop releases the underlying device.
type Track interface {
	Kind() string
	Stop()
}

// Recorder turns a live stream into encoded media delivered in chunks.
type Recorder interface {
	// Start begins recording stream. onChunk may be called from any
	// goroutine, including synchronously from Recording.Stop.
	Start(stream Stream, onChunk func([]byte)) (Recording, error)
}

// Recording is an active recording.
type Recording interface {
	// Stop ends the recording and flushes all remaining data through
	// onChunk before returning. An error wrapping ErrMediaInconsistent
	// means the delivered chunks cannot be used.
	Stop() error

	// MIMEType of the produced media, e.g. "video/webm".
	MIMEType() string
}

// Uploader submits a finished capture. *api.Client implements it.
type Uploader interface {
	UploadModel(ctx context.Context, req api.UploadRequest) (*api.Model, error)
}

// Clock creates tickers. Tests substitute a manual clock.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Metadata is the product information entered before upload.
type Metadata struct {
	Name        string
	Description string
	Category    string
}

// CapturedMedia is a finished recording. It is never modified after creation.
type CapturedMedia struct {
	Blob     []byte
	Ref      string
	MIMEType string
	Duration int
}

// Size returns the media size in bytes.
func (m *CapturedMedia) Size() int64 {
	return int64(len(m.Blob))
}

// Snapshot is a point-in-time copy of a session's observable state.
type Snapshot struct {
	ID         string
	State      State
	Permission Permission
	HasStream  bool
	Captured   *CapturedMedia
	Elapsed    int
	Metadata   Metadata
	LastError  *SessionError
	Acquiring  bool
}

// ElapsedLabel returns the elapsed time as MM:SS.
func (s Snapshot) ElapsedLabel() string {
	return FormatDuration(s.Elapsed)
}

// EventType identifies the kind of Event.
type EventType int

// Event types.
const (
	EventStateChanged EventType = iota
	EventTick
	EventError
	EventModelAdded
)

// Event is published on Session.Events. Sends never block; a slow reader
// misses events rather than stalling the session.
type Event struct {
	Type    EventType
	State   State
	Elapsed int
	Err     *SessionError
	Model   *api.Model
}

// Config contains session configuration.
type Config struct {
	// TenantID owns the uploaded model. Required.
	TenantID string

	// Constraints passed to MediaDevices.Acquire.
	Constraints Constraints

	// Insecure marks the host context as not secure. Camera requests then
	// fail with ReasonInsecureContext without touching the device.
	Insecure bool

	// MaxDuration stops a recording automatically (0 = unlimited).
	MaxDuration time.Duration

	// Clock drives the 1 Hz elapsed counter.
	// Default: the system clock
	Clock Clock

	// Refs creates playable references for review.
	// Default: temp files under os.TempDir()
	Refs MediaRefs

	// OnModelAdded is called exactly once after a successful upload.
	OnModelAdded func(*api.Model)

	// EventBuffer is the capacity of the Events channel.
	// Default: 64
	EventBuffer int
}
