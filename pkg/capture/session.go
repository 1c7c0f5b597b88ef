package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/0xmhha/armenu-panel/pkg/api"
	"github.com/0xmhha/armenu-panel/pkg/logger"
)

const tickInterval = time.Second

// Session is one capture dialog. It is safe for concurrent use.
type Session struct {
	id       string
	cfg      Config
	devices  MediaDevices
	recorder Recorder
	uploader Uploader
	logger   logger.Logger

	mu         sync.Mutex
	state      State
	permission Permission
	stream     Stream
	recording  Recording
	captured   *CapturedMedia
	metadata   Metadata
	lastErr    *SessionError
	elapsed    int
	acquiring  bool
	epoch      uint64
	tickStop   chan struct{}
	ticker     Ticker
	events     chan Event
	eventsDone bool

	// bufMu guards chunks separately so that Recording.Stop can flush
	// synchronously while mu is held.
	bufMu  sync.Mutex
	chunks [][]byte
}

// New creates a capture session in the idle state.
//
// Parameters:
//   - cfg: Session configuration (TenantID is required)
//   - devices: Camera provider
//   - rec: Recorder backend
//   - up: Upload collaborator
//   - log: Logger instance
//
// Returns:
//   - *Session: Session in StateIdle
//   - error: ErrNoTenant or ErrMissingCollaborator
func New(cfg Config, devices MediaDevices, rec Recorder, up Uploader, log logger.Logger) (*Session, error) {
	if cfg.TenantID == "" {
		return nil, ErrNoTenant
	}
	if devices == nil || rec == nil || up == nil {
		return nil, ErrMissingCollaborator
	}

	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}
	if cfg.Refs == nil {
		cfg.Refs = TempFileRefs{}
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 64
	}

	id := uuid.NewString()
	log = log.With("session_id", id)
	log.Info("capture session created", "tenant", cfg.TenantID)

	return &Session{
		id:         id,
		cfg:        cfg,
		devices:    devices,
		recorder:   rec,
		uploader:   up,
		logger:     log,
		state:      StateIdle,
		permission: PermissionUnrequested,
		events:     make(chan Event, cfg.EventBuffer),
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Events returns the channel of session events. It is closed when the
// session reaches StateClosed.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Snapshot returns a copy of the observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:         s.id,
		State:      s.state,
		Permission: s.permission,
		HasStream:  s.stream != nil,
		Captured:   s.captured,
		Elapsed:    s.elapsed,
		Metadata:   s.metadata,
		LastError:  s.lastErr,
		Acquiring:  s.acquiring,
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RequestCamera acquires a camera stream. Accepted in StateIdle.
//
// On success the session moves to StateCameraReady. On failure it stays
// idle and LastError carries the classified message; the returned error is
// the *AccessError.
func (s *Session) RequestCamera(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		defer s.mu.Unlock()
		return s.invalid("request camera")
	}
	if s.acquiring {
		s.mu.Unlock()
		return ErrBusy
	}
	s.lastErr = nil

	if s.cfg.Insecure {
		defer s.mu.Unlock()
		ae := &AccessError{Reason: ReasonInsecureContext}
		s.setError(KindAccess, ae.Message(), ae)
		return ae
	}

	s.acquiring = true
	epoch := s.epoch
	s.mu.Unlock()

	stream, err := s.devices.Acquire(ctx, s.cfg.Constraints)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquiring = false

	if s.epoch != epoch || s.state != StateIdle {
		if stream != nil {
			stopTracks(stream)
		}
		s.logger.Debug("late camera stream released")
		return ErrSessionReset
	}

	if err != nil {
		ae := ClassifyAccessError(err)
		if ae.Reason == ReasonPermissionDenied {
			s.permission = PermissionDenied
		}
		s.logger.Warn("camera request failed", "reason", ae.Reason.String(), "error", err)
		s.setError(KindAccess, ae.Message(), ae)
		return ae
	}

	s.stream = stream
	s.permission = PermissionGranted
	s.setState(StateCameraReady)
	return nil
}

// StartRecording starts recording the live stream. Accepted in
// StateCameraReady. The elapsed counter restarts from zero.
func (s *Session) StartRecording() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCameraReady || s.stream == nil {
		return s.invalid("start recording")
	}
	s.lastErr = nil
	s.resetBuffer()

	rec, err := s.recorder.Start(s.stream, s.appendChunk)
	if err != nil {
		s.logger.Error("recorder failed to start", "error", err)
		s.setError(KindUnexpected, MessageRecordingFailed, err)
		return fmt.Errorf("starting recorder: %w", err)
	}

	s.recording = rec
	s.elapsed = 0
	s.setState(StateRecording)
	s.startTicker()
	return nil
}

// StopRecording finalizes the recording and releases the camera. Accepted
// in StateRecording; moves to StateReview.
func (s *Session) StopRecording() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording {
		return s.invalid("stop recording")
	}
	s.lastErr = nil
	return s.finishRecording()
}

// Retake discards the recording and returns to StateIdle. Accepted in
// StateReview. The caller requests the camera again.
func (s *Session) Retake() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReview {
		return s.invalid("retake")
	}
	s.lastErr = nil
	s.discardCapture()
	s.setState(StateIdle)
	return nil
}

// Approve accepts the recording and moves to StateMetadataEntry.
func (s *Session) Approve() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReview {
		return s.invalid("approve")
	}
	s.lastErr = nil
	s.setState(StateMetadataEntry)
	return nil
}

// SetMetadata replaces the product metadata. Accepted in StateMetadataEntry.
func (s *Session) SetMetadata(m Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateMetadataEntry {
		return s.invalid("set metadata")
	}
	s.metadata = m
	return nil
}

// Back discards the recording and returns to StateIdle so the camera can be
// requested again. Entered metadata is kept.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateMetadataEntry {
		return s.invalid("back")
	}
	s.lastErr = nil
	s.discardCapture()
	s.setState(StateIdle)
	return nil
}

// Submit uploads the recording with its metadata. Accepted in
// StateMetadataEntry with a non-empty name.
//
// The call blocks for the duration of the upload. On success the session
// is closed and Config.OnModelAdded is invoked once. On failure the session
// returns to StateMetadataEntry with the recording and metadata intact.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateMetadataEntry {
		defer s.mu.Unlock()
		return s.invalid("submit")
	}
	s.lastErr = nil

	if strings.TrimSpace(s.metadata.Name) == "" {
		defer s.mu.Unlock()
		s.setError(KindValidation, MessageNameRequired, ErrNameRequired)
		return ErrNameRequired
	}
	if s.captured == nil {
		defer s.mu.Unlock()
		s.setError(KindValidation, MessageNoCapture, ErrNoCapture)
		return ErrNoCapture
	}

	media, meta := s.captured, s.metadata
	s.setState(StateUploading)
	s.mu.Unlock()

	model, err := s.uploader.UploadModel(ctx, api.UploadRequest{
		TenantID:    s.cfg.TenantID,
		Name:        strings.TrimSpace(meta.Name),
		Description: meta.Description,
		Category:    meta.Category,
		Video:       bytes.NewReader(media.Blob),
		Size:        media.Size(),
		Filename:    "capture" + FileExtension(media.MIMEType),
		ContentType: media.MIMEType,
	})

	if err == nil && model == nil {
		err = ErrNoModel
	}

	s.mu.Lock()
	if err != nil {
		defer s.mu.Unlock()
		msg := MessageUploadFailed
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" && apiErr.Message != api.GenericFailureMessage {
			msg = apiErr.Message
		}
		s.logger.Warn("upload failed", "error", err)
		s.setError(KindTransport, msg, err)
		s.setState(StateMetadataEntry)
		return err
	}

	s.logger.Info("model submitted", "model_id", model.ID, "duration", media.Duration, "bytes", media.Size())
	s.discardCapture()
	s.metadata = Metadata{}
	s.setState(StateClosed)
	s.emit(Event{Type: EventModelAdded, State: StateClosed, Model: model})
	s.closeEvents()
	cb := s.cfg.OnModelAdded
	s.mu.Unlock()

	if cb != nil {
		cb(model)
	}
	return nil
}

// Dismiss handles a close request from the dialog chrome. It is rejected
// with ErrDismissRejected while uploading; otherwise every held resource is
// released and the session returns to StateIdle.
func (s *Session) Dismiss(source DismissSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateUploading:
		s.logger.Debug("dismiss rejected during upload", "source", source)
		return ErrDismissRejected
	case StateClosed:
		return nil
	}

	s.logger.Debug("session dismissed", "source", source, "from", s.state)
	s.teardown()
	s.setState(StateIdle)
	return nil
}

// Close tears the session down for good. It is rejected with
// ErrDismissRejected while uploading. Closing twice is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateUploading:
		return ErrDismissRejected
	case StateClosed:
		return nil
	}

	s.teardown()
	s.setState(StateClosed)
	s.closeEvents()
	s.logger.Info("capture session closed")
	return nil
}

// finishRecording stops the recorder, releases the camera and moves to
// review. Called with mu held.
func (s *Session) finishRecording() error {
	s.stopTicker()

	rec := s.recording
	s.recording = nil
	var stopErr error
	if rec != nil {
		stopErr = rec.Stop()
	}
	blob := s.takeBuffer()
	s.releaseStream()

	if len(blob) == 0 || errors.Is(stopErr, ErrMediaInconsistent) {
		err := stopErr
		if err == nil {
			err = errors.New("recorder produced no data")
		}
		s.logger.Error("recording produced no usable media", "error", err, "bytes", len(blob))
		s.setError(KindUnexpected, MessageRecordingFailed, err)
		s.setState(StateIdle)
		return err
	}
	if stopErr != nil {
		s.logger.Warn("recorder stopped with error", "error", stopErr, "bytes", len(blob))
	}

	mimeType := ""
	if rec != nil {
		mimeType = rec.MIMEType()
	}
	ref, err := s.cfg.Refs.Create(blob, mimeType)
	if err != nil {
		s.logger.Warn("review copy unavailable", "error", err)
		ref = ""
	}

	s.captured = &CapturedMedia{
		Blob:     blob,
		Ref:      ref,
		MIMEType: mimeType,
		Duration: s.elapsed,
	}
	s.logger.Info("recording finished", "duration", s.elapsed, "bytes", len(blob))
	s.setState(StateReview)
	return nil
}

// teardown releases everything. Called with mu held.
func (s *Session) teardown() {
	s.epoch++
	s.stopTicker()
	if s.recording != nil {
		if err := s.recording.Stop(); err != nil {
			s.logger.Warn("recorder stop failed during teardown", "error", err)
		}
		s.recording = nil
	}
	s.resetBuffer()
	s.releaseStream()
	s.discardCapture()
	s.metadata = Metadata{}
	s.lastErr = nil
	s.elapsed = 0
}

func (s *Session) releaseStream() {
	if s.stream == nil {
		return
	}
	stopTracks(s.stream)
	s.stream = nil
}

func stopTracks(st Stream) {
	for _, t := range st.Tracks() {
		t.Stop()
	}
}

func (s *Session) discardCapture() {
	if s.captured == nil {
		return
	}
	if s.captured.Ref != "" {
		if err := s.cfg.Refs.Revoke(s.captured.Ref); err != nil {
			s.logger.Warn("failed to revoke review copy", "ref", s.captured.Ref, "error", err)
		}
	}
	s.captured = nil
}

func (s *Session) startTicker() {
	stop := make(chan struct{})
	t := s.cfg.Clock.NewTicker(tickInterval)
	s.ticker = t
	s.tickStop = stop
	go s.tickLoop(t, stop)
}

func (s *Session) stopTicker() {
	if s.tickStop == nil {
		return
	}
	s.ticker.Stop()
	close(s.tickStop)
	s.ticker = nil
	s.tickStop = nil
}

func (s *Session) tickLoop(t Ticker, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-t.C():
			s.onTick(stop)
		}
	}
}

func (s *Session) onTick(stop chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A tick from a stopped ticker must not touch a newer recording.
	if s.tickStop != stop || s.state != StateRecording {
		return
	}

	s.elapsed++
	s.emit(Event{Type: EventTick, State: s.state, Elapsed: s.elapsed})

	if s.cfg.MaxDuration > 0 && time.Duration(s.elapsed)*time.Second >= s.cfg.MaxDuration {
		s.logger.Info("maximum recording duration reached", "elapsed", s.elapsed)
		s.lastErr = nil
		_ = s.finishRecording()
	}
}

func (s *Session) appendChunk(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	c := make([]byte, len(chunk))
	copy(c, chunk)

	s.bufMu.Lock()
	s.chunks = append(s.chunks, c)
	s.bufMu.Unlock()
}

func (s *Session) resetBuffer() {
	s.bufMu.Lock()
	s.chunks = nil
	s.bufMu.Unlock()
}

func (s *Session) takeBuffer() []byte {
	s.bufMu.Lock()
	defer s.bufMu.Unlock()

	blob := bytes.Join(s.chunks, nil)
	s.chunks = nil
	return blob
}

func (s *Session) setState(to State) {
	if s.state == to {
		return
	}
	s.logger.Debug("state changed", "from", s.state, "to", to)
	s.state = to
	s.emit(Event{Type: EventStateChanged, State: to, Elapsed: s.elapsed})
}

func (s *Session) setError(kind ErrorKind, msg string, cause error) {
	s.lastErr = &SessionError{Kind: kind, Message: msg, Err: cause}
	s.emit(Event{Type: EventError, State: s.state, Err: s.lastErr})
}

func (s *Session) invalid(op string) error {
	s.logger.Debug("trigger ignored", "op", op, "state", s.state)
	return fmt.Errorf("%w: %s in state %s", ErrInvalidTrigger, op, s.state)
}

func (s *Session) emit(e Event) {
	if s.eventsDone {
		return
	}
	select {
	case s.events <- e:
	default:
		s.logger.Warn("event channel full, dropping event", "type", e.Type)
	}
}

func (s *Session) closeEvents() {
	if s.eventsDone {
		return
	}
	s.eventsDone = true
	close(s.events)
}
