package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/armenu-panel/pkg/api"
	"github.com/0xmhha/armenu-panel/pkg/logger"
)

// mockTrack records whether it was stopped.
type mockTrack struct {
	mu      sync.Mutex
	stopped int
}

func (t *mockTrack) Kind() string { return "video" }

func (t *mockTrack) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped++
}

func (t *mockTrack) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped > 0
}

type mockStream struct {
	track *mockTrack
}

func (s *mockStream) Tracks() []Track { return []Track{s.track} }

// mockDevices hands out streams or a configured error. When gate is set,
// Acquire blocks until it is closed.
type mockDevices struct {
	mu      sync.Mutex
	err     error
	gate    chan struct{}
	calls   int
	streams []*mockStream
}

func (d *mockDevices) Acquire(ctx context.Context, c Constraints) (Stream, error) {
	d.mu.Lock()
	d.calls++
	gate, err := d.gate, d.err
	d.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	st := &mockStream{track: &mockTrack{}}
	d.mu.Lock()
	d.streams = append(d.streams, st)
	d.mu.Unlock()
	return st, nil
}

func (d *mockDevices) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *mockDevices) LastStream() *mockStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.streams) == 0 {
		return nil
	}
	return d.streams[len(d.streams)-1]
}

// mockRecorder emits one chunk on start and a final chunk on stop.
type mockRecorder struct {
	mu       sync.Mutex
	startErr error
	stopErr  error
	empty    bool
	starts   int
}

func (r *mockRecorder) Start(stream Stream, onChunk func([]byte)) (Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return nil, r.startErr
	}
	r.starts++
	if !r.empty {
		onChunk([]byte("head-"))
	}
	return &mockRecording{onChunk: onChunk, empty: r.empty, stopErr: r.stopErr}, nil
}

type mockRecording struct {
	onChunk func([]byte)
	empty   bool
	stopErr error
}

func (r *mockRecording) Stop() error {
	if !r.empty {
		r.onChunk([]byte("tail"))
	}
	return r.stopErr
}

func (r *mockRecording) MIMEType() string { return "video/webm" }

// mockUploader records requests. When gate is set, uploads block until it
// is closed.
type mockUploader struct {
	mu       sync.Mutex
	err      error
	noModel  bool
	gate     chan struct{}
	requests []uploadCall
}

type uploadCall struct {
	req   api.UploadRequest
	video []byte
}

func (u *mockUploader) UploadModel(ctx context.Context, req api.UploadRequest) (*api.Model, error) {
	u.mu.Lock()
	gate, err, noModel := u.gate, u.err, u.noModel
	u.mu.Unlock()

	if gate != nil {
		<-gate
	}

	buf := make([]byte, req.Size)
	_, _ = req.Video.Read(buf)

	u.mu.Lock()
	defer u.mu.Unlock()
	u.requests = append(u.requests, uploadCall{req: req, video: buf})
	if err != nil || noModel {
		return nil, err
	}
	return &api.Model{ID: "m-1", TenantID: req.TenantID, Name: req.Name}, nil
}

func (u *mockUploader) Calls() []uploadCall {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]uploadCall(nil), u.requests...)
}

func (u *mockUploader) SetErr(err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.err = err
}

func (u *mockUploader) SetNoModel(v bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.noModel = v
}

// manualClock hands out tickers that only fire when the test says so.
type manualClock struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

type manualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *manualTicker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

func (c *manualClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *manualClock) Last() *manualTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickers[len(c.tickers)-1]
}

type fixture struct {
	session  *Session
	devices  *mockDevices
	recorder *mockRecorder
	uploader *mockUploader
	clock    *manualClock
	added    *[]*api.Model
}

func setupTestSession(t *testing.T, mutate func(cfg *Config)) *fixture {
	t.Helper()

	f := &fixture{
		devices:  &mockDevices{},
		recorder: &mockRecorder{},
		uploader: &mockUploader{},
		clock:    &manualClock{},
	}
	var mu sync.Mutex
	added := []*api.Model{}
	f.added = &added

	cfg := Config{
		TenantID: "t1",
		Clock:    f.clock,
		Refs:     TempFileRefs{Dir: t.TempDir()},
		OnModelAdded: func(m *api.Model) {
			mu.Lock()
			defer mu.Unlock()
			added = append(added, m)
		},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	s, err := New(cfg, f.devices, f.recorder, f.uploader, logger.Noop())
	require.NoError(t, err)
	f.session = s
	return f
}

// tick fires one tick and waits until the session counted it.
func (f *fixture) tick(t *testing.T) {
	t.Helper()
	before := f.session.Snapshot().Elapsed
	f.clock.Last().ch <- time.Now()
	require.Eventually(t, func() bool {
		snap := f.session.Snapshot()
		return snap.Elapsed == before+1 || snap.State != StateRecording
	}, time.Second, time.Millisecond)
}

// toReview drives a fresh session to StateReview with n ticks recorded.
func (f *fixture) toReview(t *testing.T, n int) {
	t.Helper()
	require.NoError(t, f.session.RequestCamera(context.Background()))
	require.NoError(t, f.session.StartRecording())
	for i := 0; i < n; i++ {
		f.tick(t)
	}
	require.NoError(t, f.session.StopRecording())
}

func assertExclusive(t *testing.T, s *Session) {
	t.Helper()
	snap := s.Snapshot()
	assert.False(t, snap.HasStream && snap.Captured != nil, "stream and capture held together in %s", snap.State)
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{}, &mockDevices{}, &mockRecorder{}, &mockUploader{}, logger.Noop())
	assert.ErrorIs(t, err, ErrNoTenant)

	_, err = New(Config{TenantID: "t1"}, nil, &mockRecorder{}, &mockUploader{}, logger.Noop())
	assert.ErrorIs(t, err, ErrMissingCollaborator)

	s, err := New(Config{TenantID: "t1"}, &mockDevices{}, &mockRecorder{}, &mockUploader{}, logger.Noop())
	require.NoError(t, err)
	snap := s.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, PermissionUnrequested, snap.Permission)
	assert.Len(t, s.ID(), 36)
}

func TestHappyPath(t *testing.T) {
	f := setupTestSession(t, nil)
	s := f.session
	ctx := context.Background()

	require.NoError(t, s.RequestCamera(ctx))
	snap := s.Snapshot()
	assert.Equal(t, StateCameraReady, snap.State)
	assert.Equal(t, PermissionGranted, snap.Permission)
	assert.True(t, snap.HasStream)

	require.NoError(t, s.StartRecording())
	assert.Equal(t, StateRecording, s.State())
	for i := 0; i < 3; i++ {
		f.tick(t)
		assertExclusive(t, s)
	}
	assert.Equal(t, "00:03", s.Snapshot().ElapsedLabel())

	require.NoError(t, s.StopRecording())
	snap = s.Snapshot()
	assert.Equal(t, StateReview, snap.State)
	assert.False(t, snap.HasStream)
	assert.True(t, f.devices.LastStream().track.Stopped(), "camera released on stop")
	assert.True(t, f.clock.Last().Stopped(), "ticker stopped")
	require.NotNil(t, snap.Captured)
	assert.Equal(t, "head-tail", string(snap.Captured.Blob))
	assert.Equal(t, 3, snap.Captured.Duration)
	assert.Equal(t, "video/webm", snap.Captured.MIMEType)
	assert.Equal(t, 3, snap.Elapsed, "elapsed frozen at stop")

	ref := snap.Captured.Ref
	data, err := os.ReadFile(ref) // nolint:gosec
	require.NoError(t, err)
	assert.Equal(t, "head-tail", string(data))

	require.NoError(t, s.Approve())
	assert.Equal(t, StateMetadataEntry, s.State())
	require.NoError(t, s.SetMetadata(Metadata{Name: " Adana Kebap ", Description: "acılı", Category: "Ana Yemek"}))

	require.NoError(t, s.Submit(ctx))
	assert.Equal(t, StateClosed, s.State())
	assert.True(t, s.State().IsTerminal())

	calls := f.uploader.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "t1", calls[0].req.TenantID)
	assert.Equal(t, "Adana Kebap", calls[0].req.Name)
	assert.Equal(t, "acılı", calls[0].req.Description)
	assert.Equal(t, "Ana Yemek", calls[0].req.Category)
	assert.Equal(t, "capture.webm", calls[0].req.Filename)
	assert.Equal(t, "head-tail", string(calls[0].video))

	require.Len(t, *f.added, 1)
	assert.Equal(t, "m-1", (*f.added)[0].ID)

	_, err = os.Stat(ref)
	assert.True(t, os.IsNotExist(err), "review copy revoked after upload")

	var sawModel bool
	for e := range s.Events() {
		if e.Type == EventModelAdded {
			sawModel = true
		}
	}
	assert.True(t, sawModel, "events channel delivers model and is closed")

	assert.ErrorIs(t, s.RequestCamera(ctx), ErrInvalidTrigger, "closed session accepts nothing")
}

func TestCameraAccessFailures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantReason AccessReason
		wantMsg    string
		wantPerm   Permission
	}{
		{"not allowed", &PlatformError{Name: "NotAllowedError"}, ReasonPermissionDenied, reasonMessages[ReasonPermissionDenied], PermissionDenied},
		{"legacy permission denied", &PlatformError{Name: "PermissionDeniedError"}, ReasonPermissionDenied, reasonMessages[ReasonPermissionDenied], PermissionDenied},
		{"not found", &PlatformError{Name: "NotFoundError"}, ReasonDeviceNotFound, reasonMessages[ReasonDeviceNotFound], PermissionUnrequested},
		{"devices not found", &PlatformError{Name: "DevicesNotFoundError"}, ReasonDeviceNotFound, reasonMessages[ReasonDeviceNotFound], PermissionUnrequested},
		{"not readable", &PlatformError{Name: "NotReadableError"}, ReasonDeviceBusy, reasonMessages[ReasonDeviceBusy], PermissionUnrequested},
		{"track start", &PlatformError{Name: "TrackStartError"}, ReasonDeviceBusy, reasonMessages[ReasonDeviceBusy], PermissionUnrequested},
		{"overconstrained", &PlatformError{Name: "OverconstrainedError"}, ReasonConstraintsUnsatisfiable, reasonMessages[ReasonConstraintsUnsatisfiable], PermissionUnrequested},
		{"constraint not satisfied", &PlatformError{Name: "ConstraintNotSatisfiedError"}, ReasonConstraintsUnsatisfiable, reasonMessages[ReasonConstraintsUnsatisfiable], PermissionUnrequested},
		{"unsupported", &AccessError{Reason: ReasonUnsupported}, ReasonUnsupported, reasonMessages[ReasonUnsupported], PermissionUnrequested},
		{"unknown platform name", &PlatformError{Name: "AbortError"}, ReasonUnclassified, "Could not start camera (AbortError).", PermissionUnrequested},
		{"plain error", errors.New("boom"), ReasonUnclassified, "Could not start camera (boom).", PermissionUnrequested},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestSession(t, nil)
			f.devices.err = tt.err

			err := f.session.RequestCamera(context.Background())
			var ae *AccessError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tt.wantReason, ae.Reason)

			snap := f.session.Snapshot()
			assert.Equal(t, StateIdle, snap.State)
			assert.False(t, snap.HasStream)
			assert.Equal(t, tt.wantPerm, snap.Permission)
			require.NotNil(t, snap.LastError)
			assert.Equal(t, KindAccess, snap.LastError.Kind)
			assert.Equal(t, tt.wantMsg, snap.LastError.Message)
		})
	}
}

func TestAccessMessagesAreDistinct(t *testing.T) {
	seen := map[string]AccessReason{}
	for r := ReasonUnclassified; r <= ReasonConstraintsUnsatisfiable; r++ {
		msg := (&AccessError{Reason: r, Name: "X"}).Message()
		prev, dup := seen[msg]
		assert.False(t, dup, "%s and %s share a message", r, prev)
		seen[msg] = r
	}
}

func TestInsecureContextSkipsDevice(t *testing.T) {
	f := setupTestSession(t, func(cfg *Config) { cfg.Insecure = true })

	err := f.session.RequestCamera(context.Background())
	var ae *AccessError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, ReasonInsecureContext, ae.Reason)
	assert.Zero(t, f.devices.Calls())
	assert.Equal(t, StateIdle, f.session.State())
}

func TestRetryAfterAccessFailureClearsError(t *testing.T) {
	f := setupTestSession(t, nil)
	f.devices.err = &PlatformError{Name: "NotReadableError"}
	require.Error(t, f.session.RequestCamera(context.Background()))
	require.NotNil(t, f.session.Snapshot().LastError)

	f.devices.mu.Lock()
	f.devices.err = nil
	f.devices.mu.Unlock()

	require.NoError(t, f.session.RequestCamera(context.Background()))
	snap := f.session.Snapshot()
	assert.Nil(t, snap.LastError)
	assert.Equal(t, StateCameraReady, snap.State)
}

func TestInvalidTriggersAreNoops(t *testing.T) {
	ctx := context.Background()
	triggers := map[string]func(s *Session) error{
		"start":    func(s *Session) error { return s.StartRecording() },
		"stop":     func(s *Session) error { return s.StopRecording() },
		"retake":   func(s *Session) error { return s.Retake() },
		"approve":  func(s *Session) error { return s.Approve() },
		"metadata": func(s *Session) error { return s.SetMetadata(Metadata{Name: "x"}) },
		"back":     func(s *Session) error { return s.Back() },
		"submit":   func(s *Session) error { return s.Submit(ctx) },
	}

	for name, trigger := range triggers {
		t.Run("idle/"+name, func(t *testing.T) {
			f := setupTestSession(t, nil)
			before := f.session.Snapshot()
			assert.ErrorIs(t, trigger(f.session), ErrInvalidTrigger)
			assert.Equal(t, before, f.session.Snapshot())
		})
	}

	t.Run("camera-ready/request", func(t *testing.T) {
		f := setupTestSession(t, nil)
		require.NoError(t, f.session.RequestCamera(ctx))
		assert.ErrorIs(t, f.session.RequestCamera(ctx), ErrInvalidTrigger)
		assert.Equal(t, 1, f.devices.Calls())
	})

	t.Run("review/stop", func(t *testing.T) {
		f := setupTestSession(t, nil)
		f.toReview(t, 1)
		assert.ErrorIs(t, f.session.StopRecording(), ErrInvalidTrigger)
		assert.ErrorIs(t, f.session.StartRecording(), ErrInvalidTrigger)
		assert.Equal(t, StateReview, f.session.State())
	})
}

func TestRetakeDiscardsCaptureAndResetsElapsed(t *testing.T) {
	f := setupTestSession(t, nil)
	s := f.session
	f.toReview(t, 2)

	ref := s.Snapshot().Captured.Ref
	require.NoError(t, s.Retake())

	snap := s.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Captured)
	assert.False(t, snap.HasStream)
	_, err := os.Stat(ref)
	assert.True(t, os.IsNotExist(err), "review copy revoked on retake")

	require.NoError(t, s.RequestCamera(context.Background()))
	assertExclusive(t, s)
	require.NoError(t, s.StartRecording())
	assert.Equal(t, 0, s.Snapshot().Elapsed, "elapsed restarts at zero")
	f.tick(t)
	require.NoError(t, s.StopRecording())
	assert.Equal(t, 1, s.Snapshot().Captured.Duration)
	assert.Equal(t, 2, f.devices.Calls())
}

func TestBackKeepsMetadata(t *testing.T) {
	f := setupTestSession(t, nil)
	s := f.session
	f.toReview(t, 1)
	require.NoError(t, s.Approve())
	require.NoError(t, s.SetMetadata(Metadata{Name: "Lahmacun"}))

	require.NoError(t, s.Back())
	snap := s.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Captured)
	assert.Equal(t, "Lahmacun", snap.Metadata.Name)
}

func TestSubmitValidation(t *testing.T) {
	f := setupTestSession(t, nil)
	s := f.session
	f.toReview(t, 1)
	require.NoError(t, s.Approve())
	require.NoError(t, s.SetMetadata(Metadata{Name: "   ", Category: "Tatlı"}))

	err := s.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNameRequired)

	snap := s.Snapshot()
	assert.Equal(t, StateMetadataEntry, snap.State)
	require.NotNil(t, snap.LastError)
	assert.Equal(t, KindValidation, snap.LastError.Kind)
	assert.Equal(t, MessageNameRequired, snap.LastError.Message)
	assert.NotNil(t, snap.Captured)
	assert.Empty(t, f.uploader.Calls())
}

func TestUploadFailureKeepsCapture(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"backend message", &api.APIError{StatusCode: 413, Message: "Dosya çok büyük"}, "Dosya çok büyük"},
		{"generic backend failure", &api.APIError{StatusCode: 500, Message: api.GenericFailureMessage}, MessageUploadFailed},
		{"network failure", errors.New("dial tcp: connection refused"), MessageUploadFailed},
		{"success without a model", nil, MessageUploadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestSession(t, nil)
			s := f.session
			f.toReview(t, 2)
			require.NoError(t, s.Approve())
			meta := Metadata{Name: "Künefe", Description: "sıcak", Category: "Tatlı"}
			require.NoError(t, s.SetMetadata(meta))

			f.uploader.SetErr(tt.err)
			f.uploader.SetNoModel(tt.err == nil)
			require.Error(t, s.Submit(context.Background()))

			snap := s.Snapshot()
			assert.Equal(t, StateMetadataEntry, snap.State)
			require.NotNil(t, snap.LastError)
			assert.Equal(t, KindTransport, snap.LastError.Kind)
			assert.Equal(t, tt.wantMsg, snap.LastError.Message)
			assert.Equal(t, meta, snap.Metadata)
			require.NotNil(t, snap.Captured)
			assert.Equal(t, "head-tail", string(snap.Captured.Blob))
			assert.Empty(t, *f.added)

			// A user-initiated retry goes through and clears the error.
			f.uploader.SetErr(nil)
			f.uploader.SetNoModel(false)
			require.NoError(t, s.Submit(context.Background()))
			assert.Equal(t, StateClosed, s.State())
			assert.Len(t, *f.added, 1)
			assert.Len(t, f.uploader.Calls(), 2)
		})
	}
}

func TestDismissRejectedWhileUploading(t *testing.T) {
	f := setupTestSession(t, nil)
	s := f.session
	f.toReview(t, 1)
	require.NoError(t, s.Approve())
	require.NoError(t, s.SetMetadata(Metadata{Name: "Pide"}))

	gate := make(chan struct{})
	f.uploader.mu.Lock()
	f.uploader.gate = gate
	f.uploader.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- s.Submit(context.Background()) }()

	require.Eventually(t, func() bool { return s.State() == StateUploading }, time.Second, time.Millisecond)

	for _, src := range []DismissSource{DismissCloseButton, DismissEscape, DismissBackdrop} {
		assert.ErrorIs(t, s.Dismiss(src), ErrDismissRejected)
	}
	assert.ErrorIs(t, s.Close(), ErrDismissRejected)
	assert.ErrorIs(t, s.Back(), ErrInvalidTrigger)
	assert.Equal(t, StateUploading, s.State())

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, StateClosed, s.State())
}

func TestDismissWhileRecordingReleasesEverything(t *testing.T) {
	f := setupTestSession(t, nil)
	s := f.session
	require.NoError(t, s.RequestCamera(context.Background()))
	require.NoError(t, s.StartRecording())
	f.tick(t)

	require.NoError(t, s.Dismiss(DismissEscape))

	snap := s.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.False(t, snap.HasStream)
	assert.Nil(t, snap.Captured)
	assert.Zero(t, snap.Elapsed)
	assert.True(t, f.devices.LastStream().track.Stopped())
	assert.True(t, f.clock.Last().Stopped())
}

func TestDismissDuringCameraRequest(t *testing.T) {
	f := setupTestSession(t, nil)
	s := f.session

	gate := make(chan struct{})
	f.devices.gate = gate

	done := make(chan error, 1)
	go func() { done <- s.RequestCamera(context.Background()) }()

	require.Eventually(t, func() bool { return s.Snapshot().Acquiring }, time.Second, time.Millisecond)
	assert.ErrorIs(t, s.RequestCamera(context.Background()), ErrBusy)

	require.NoError(t, s.Dismiss(DismissBackdrop))
	close(gate)

	assert.ErrorIs(t, <-done, ErrSessionReset)
	snap := s.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.False(t, snap.HasStream)
	assert.True(t, f.devices.LastStream().track.Stopped(), "late stream released")
}

func TestMaxDurationStopsRecording(t *testing.T) {
	f := setupTestSession(t, func(cfg *Config) { cfg.MaxDuration = 2 * time.Second })
	s := f.session
	require.NoError(t, s.RequestCamera(context.Background()))
	require.NoError(t, s.StartRecording())

	f.tick(t)
	assert.Equal(t, StateRecording, s.State())
	f.tick(t)

	require.Eventually(t, func() bool { return s.State() == StateReview }, time.Second, time.Millisecond)
	snap := s.Snapshot()
	assert.Equal(t, 2, snap.Captured.Duration)
	assert.False(t, snap.HasStream)
}

func TestRecorderStartFailure(t *testing.T) {
	f := setupTestSession(t, nil)
	f.recorder.startErr = errors.New("ffmpeg exited")
	s := f.session

	require.NoError(t, s.RequestCamera(context.Background()))
	require.Error(t, s.StartRecording())

	snap := s.Snapshot()
	assert.Equal(t, StateCameraReady, snap.State)
	assert.True(t, snap.HasStream)
	require.NotNil(t, snap.LastError)
	assert.Equal(t, KindUnexpected, snap.LastError.Kind)
}

func TestEmptyRecordingReturnsToIdle(t *testing.T) {
	f := setupTestSession(t, nil)
	f.recorder.empty = true
	s := f.session

	require.NoError(t, s.RequestCamera(context.Background()))
	require.NoError(t, s.StartRecording())
	require.Error(t, s.StopRecording())

	snap := s.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Captured)
	assert.False(t, snap.HasStream)
	require.NotNil(t, snap.LastError)
	assert.Equal(t, MessageRecordingFailed, snap.LastError.Message)
}

func TestInconsistentRecordingIsDiscarded(t *testing.T) {
	f := setupTestSession(t, nil)
	f.recorder.stopErr = fmt.Errorf("tail: %w", ErrMediaInconsistent)
	s := f.session

	require.NoError(t, s.RequestCamera(context.Background()))
	require.NoError(t, s.StartRecording())
	err := s.StopRecording()
	assert.ErrorIs(t, err, ErrMediaInconsistent)

	snap := s.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Captured, "chunks were delivered but are not kept")
	assert.False(t, snap.HasStream)
	require.NotNil(t, snap.LastError)
	assert.Equal(t, MessageRecordingFailed, snap.LastError.Message)
}

func TestCloseIsIdempotent(t *testing.T) {
	f := setupTestSession(t, nil)
	s := f.session
	f.toReview(t, 1)
	ref := s.Snapshot().Captured.Ref

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, StateClosed, s.State())

	_, err := os.Stat(ref)
	assert.True(t, os.IsNotExist(err))

	for range s.Events() {
	}
	assert.Empty(t, *f.added, "closing never reports a model")
}
