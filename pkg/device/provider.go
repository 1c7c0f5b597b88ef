package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"github.com/0xmhha/armenu-panel/pkg/capture"
	"github.com/0xmhha/armenu-panel/pkg/logger"
)

// Provider opens cameras for capture sessions.
type Provider struct {
	cfg       Config
	discovery Discoverer
	logger    logger.Logger

	lookPath func(string) (string, error)
	open     func(string) (io.Closer, error)
	command  commandFunc
}

type commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// NewProvider creates a Provider.
//
// Parameters:
//   - cfg: Device configuration
//   - log: Logger instance
//
// Returns a Provider that satisfies capture.MediaDevices.
func NewProvider(cfg Config, log logger.Logger) *Provider {
	cfg.applyDefaults()
	log = log.With("component", "device")
	return &Provider{
		cfg:       cfg,
		discovery: NewDiscovery(cfg, log),
		logger:    log,
		lookPath:  exec.LookPath,
		open:      openDevice,
		command:   exec.CommandContext,
	}
}

func openDevice(path string) (io.Closer, error) {
	return os.OpenFile(path, os.O_RDWR, 0) // nolint:gosec
}

// Discovery returns the provider's Discoverer.
func (p *Provider) Discovery() Discoverer {
	return p.discovery
}

// Acquire implements capture.MediaDevices.Acquire.
//
// The device node stays open until the returned stream's track is stopped.
func (p *Provider) Acquire(ctx context.Context, c capture.Constraints) (capture.Stream, error) {
	if _, err := p.lookPath(p.cfg.FFmpegPath); err != nil {
		return nil, &capture.PlatformError{Name: nameNotSupported, Message: "ffmpeg not found: " + err.Error()}
	}

	path := c.Device
	if path == "" {
		devices, err := p.discovery.ScanDevices(ctx)
		if err != nil || len(devices) == 0 {
			return nil, &capture.PlatformError{Name: nameNotFound, Message: "no video devices"}
		}
		path = devices[0]
	}

	f, err := p.open(path)
	if err != nil {
		return nil, classifyOpenError(path, err)
	}

	if c.Width > 0 && c.Height > 0 {
		info, infoErr := p.discovery.Info(ctx, path)
		if infoErr == nil && !info.Supports(c.Width, c.Height) {
			_ = f.Close()
			return nil, &capture.PlatformError{
				Name:    nameConstraint,
				Message: fmt.Sprintf("%s does not offer %dx%d", path, c.Width, c.Height),
			}
		}
	}

	if err := p.grabFrame(ctx, path, c); err != nil {
		_ = f.Close()
		return nil, err
	}

	p.logger.Info("camera acquired", "device", path)

	s := &Stream{
		device:      path,
		constraints: c,
	}
	s.track = &videoTrack{closer: f, logger: p.logger, device: path}
	return s, nil
}

// grabFrame reads a single frame with ffmpeg. Opening a V4L2 node succeeds
// while another process streams from it; the conflict only shows once
// buffers are requested.
func (p *Provider) grabFrame(ctx context.Context, path string, c capture.Constraints) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.ProbeTimeout)
	defer cancel()

	args := []string{"-hide_banner", "-loglevel", "error", "-f", "v4l2"}
	if c.Width > 0 && c.Height > 0 {
		args = append(args, "-video_size", fmt.Sprintf("%dx%d", c.Width, c.Height))
	}
	args = append(args, "-i", path, "-frames:v", "1", "-f", "null", "-")

	var stderr bytes.Buffer
	cmd := p.command(ctx, p.cfg.FFmpegPath, args...)
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err == nil {
		return nil
	}

	p.logger.Debug("frame grab failed", "device", path, "error", err, "stderr", stderr.String())
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &capture.PlatformError{Name: nameNotReadable, Message: path + ": no frame within " + p.cfg.ProbeTimeout.String()}
	}
	if parentErr := ctx.Err(); parentErr != nil {
		return parentErr
	}
	return classifyGrabError(path, stderr.String())
}

// classifyGrabError maps ffmpeg's v4l2 error output to a platform error name.
func classifyGrabError(path, stderr string) error {
	name := nameAbort
	switch {
	case strings.Contains(stderr, "Device or resource busy"):
		name = nameNotReadable
	case strings.Contains(stderr, "Permission denied"):
		name = nameNotAllowed
	case strings.Contains(stderr, "No such file or directory"), strings.Contains(stderr, "No such device"):
		name = nameNotFound
	case strings.Contains(stderr, "Invalid argument"):
		name = nameConstraint
	}
	msg := path
	if line := lastLine(stderr); line != "" {
		msg += ": " + line
	}
	return &capture.PlatformError{Name: name, Message: msg}
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// classifyOpenError maps an open(2) failure to a platform error name.
func classifyOpenError(path string, err error) error {
	name := ""
	switch {
	case errors.Is(err, fs.ErrNotExist):
		name = nameNotFound
	case errors.Is(err, fs.ErrPermission):
		name = nameNotAllowed
	case errors.Is(err, syscall.EBUSY):
		name = nameNotReadable
	default:
		var errno syscall.Errno
		if errors.As(err, &errno) {
			name = errno.Error()
		} else {
			name = err.Error()
		}
	}
	return &capture.PlatformError{Name: name, Message: path}
}

// Stream is an acquired camera. It satisfies capture.Stream and carries
// what the recorder needs to open the same device.
type Stream struct {
	device      string
	constraints capture.Constraints
	track       *videoTrack
}

// Tracks implements capture.Stream.
func (s *Stream) Tracks() []capture.Track {
	return []capture.Track{s.track}
}

// Device returns the device path.
func (s *Stream) Device() string {
	return s.device
}

// Constraints returns the constraints the stream was opened with.
func (s *Stream) Constraints() capture.Constraints {
	return s.constraints
}

// Active reports whether the track has not been stopped.
func (s *Stream) Active() bool {
	return !s.track.isStopped()
}

type videoTrack struct {
	closer  io.Closer
	device  string
	logger  logger.Logger
	once    sync.Once
	mu      sync.Mutex
	stopped bool
}

func (t *videoTrack) Kind() string { return "video" }

func (t *videoTrack) Stop() {
	t.once.Do(func() {
		if err := t.closer.Close(); err != nil {
			t.logger.Warn("failed to close camera", "device", t.device, "error", err)
		}
		t.mu.Lock()
		t.stopped = true
		t.mu.Unlock()
		t.logger.Info("camera released", "device", t.device)
	})
}

func (t *videoTrack) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
