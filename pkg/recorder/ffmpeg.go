package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/0xmhha/armenu-panel/pkg/capture"
	"github.com/0xmhha/armenu-panel/pkg/logger"
)

// deviceStream is what the recorder needs from a capture stream.
// *device.Stream implements it.
type deviceStream interface {
	Device() string
	Constraints() capture.Constraints
	Active() bool
}

type commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Recorder implements capture.Recorder with ffmpeg.
type Recorder struct {
	cfg     Config
	logger  logger.Logger
	command commandFunc
}

// New creates a Recorder.
//
// Parameters:
//   - cfg: Recorder configuration
//   - log: Logger instance
func New(cfg Config, log logger.Logger) *Recorder {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.DebounceInterval == 0 {
		cfg.DebounceInterval = 100 * time.Millisecond
	}
	if cfg.StopTimeout == 0 {
		cfg.StopTimeout = 5 * time.Second
	}
	if cfg.MaxChunkSize == 0 {
		cfg.MaxChunkSize = 1 << 20
	}

	return &Recorder{
		cfg:     cfg,
		logger:  log.With("component", "recorder"),
		command: exec.CommandContext,
	}
}

// Start implements capture.Recorder.Start.
func (r *Recorder) Start(stream capture.Stream, onChunk func([]byte)) (capture.Recording, error) {
	ds, ok := stream.(deviceStream)
	if !ok {
		return nil, ErrUnsupportedStream
	}
	if !ds.Active() {
		return nil, ErrInactiveStream
	}

	if err := os.MkdirAll(r.cfg.TempDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	out := filepath.Join(r.cfg.TempDir, "rec-"+uuid.NewString()+".mkv")

	t, err := newTailer(out, r.cfg.DebounceInterval, r.cfg.MaxChunkSize, onChunk, r.logger)
	if err != nil {
		return nil, err
	}

	args := buildArgs(ds.Device(), ds.Constraints(), out)
	cmd := r.command(context.Background(), r.cfg.FFmpegPath, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		_ = t.flush()
		return nil, fmt.Errorf("failed to open ffmpeg stdin: %w", err)
	}
	stderr := &limitedBuffer{max: 4096}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		_ = t.flush()
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	rec := &recording{
		cmd:     cmd,
		stdin:   stdin,
		stderr:  stderr,
		tail:    t,
		path:    out,
		timeout: r.cfg.StopTimeout,
		logger:  r.logger.With("file", filepath.Base(out)),
		exited:  make(chan struct{}),
	}
	go rec.wait()

	r.logger.Info("recording started", "device", ds.Device(), "pid", cmd.Process.Pid)
	return rec, nil
}

// buildArgs returns the ffmpeg arguments for recording device into out.
func buildArgs(device string, c capture.Constraints, out string) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-f", "v4l2"}
	if c.Width > 0 && c.Height > 0 {
		args = append(args, "-video_size", fmt.Sprintf("%dx%d", c.Width, c.Height))
	}
	if c.FPS > 0 {
		args = append(args, "-framerate", strconv.Itoa(c.FPS))
	}
	args = append(args,
		"-i", device,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-pix_fmt", "yuv420p",
		"-f", "matroska",
		"-live", "1",
		"-flush_packets", "1",
		"-y", out,
	)
	return args
}

type recording struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stderr  *limitedBuffer
	tail    *tailer
	path    string
	timeout time.Duration
	logger  logger.Logger

	exited  chan struct{}
	waitErr error

	mu      sync.Mutex
	stopped bool
}

func (r *recording) wait() {
	r.waitErr = r.cmd.Wait()
	close(r.exited)
}

// MIMEType implements capture.Recording.MIMEType.
func (r *recording) MIMEType() string {
	return MIMEType
}

// Stop implements capture.Recording.Stop.
//
// ffmpeg is asked to quit with "q" on stdin. If it has not exited after
// StopTimeout it is interrupted, and killed after another StopTimeout.
func (r *recording) Stop() error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return ErrAlreadyStopped
	}
	r.stopped = true
	r.mu.Unlock()

	_, _ = io.WriteString(r.stdin, "q")
	_ = r.stdin.Close()

	exitErr := r.awaitExit()

	flushErr := r.tail.flush()
	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		r.logger.Warn("failed to remove recording file", "error", err)
	}

	r.logger.Info("recording stopped", "bytes", r.tail.Offset())

	if errors.Is(flushErr, ErrFileRewritten) {
		return flushErr
	}
	if exitErr != nil {
		return fmt.Errorf("ffmpeg: %w: %s", exitErr, r.stderr.String())
	}
	return flushErr
}

func (r *recording) awaitExit() error {
	select {
	case <-r.exited:
		return r.waitErr
	case <-time.After(r.timeout):
	}

	r.logger.Warn("ffmpeg did not quit, interrupting")
	_ = r.cmd.Process.Signal(os.Interrupt)
	select {
	case <-r.exited:
		// Interrupted ffmpeg still finalizes the file.
		return nil
	case <-time.After(r.timeout):
	}

	r.logger.Error("ffmpeg did not exit, killing")
	_ = r.cmd.Process.Kill()
	<-r.exited
	return errors.New("killed after stop timeout")
}

// limitedBuffer keeps the first max bytes written to it.
type limitedBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.max - len(b.buf); room > 0 {
		if len(p) > room {
			b.buf = append(b.buf, p[:room]...)
		} else {
			b.buf = append(b.buf, p...)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
