// Package recorder records a camera stream to encoded video with ffmpeg and
// hands the output to the caller in chunks while recording is in progress.
//
// ffmpeg writes a live (append-only) matroska stream to a temp file. A
// tailer watches that file with fsnotify and, after each debounced write,
// reads everything past the last offset and delivers it as chunks. Stopping
// the recording asks ffmpeg to finish, flushes the rest of the file and
// checks that the delivered bytes still match the file before removing it.
//
// Example usage:
//
//	rec := recorder.New(recorder.Config{TempDir: cfg.Capture.TempDir}, log)
//	session, _ := capture.New(capCfg, devices, rec, client, log)
package recorder

import (
	"errors"
	"fmt"
	"time"

	"github.com/0xmhha/armenu-panel/pkg/capture"
)

// Config contains recorder configuration.
type Config struct {
	// FFmpegPath is the ffmpeg binary.
	// Default: ffmpeg
	FFmpegPath string

	// TempDir holds in-progress recordings.
	// Default: os.TempDir()
	TempDir string

	// DebounceInterval coalesces bursts of writes into one chunk.
	// Default: 100ms
	DebounceInterval time.Duration

	// StopTimeout is how long ffmpeg gets to finish after being asked to quit
	// before it is interrupted, and again before it is killed.
	// Default: 5s
	StopTimeout time.Duration

	// MaxChunkSize caps a single delivered chunk.
	// Default: 1MB
	MaxChunkSize int
}

// MIMEType of recordings produced by this package.
const MIMEType = "video/x-matroska"

// Common errors returned by the recorder package.
var (
	// ErrUnsupportedStream is returned when the stream does not expose a device path.
	ErrUnsupportedStream = errors.New("stream does not expose a capture device")

	// ErrInactiveStream is returned when the stream's tracks were already stopped.
	ErrInactiveStream = errors.New("stream is no longer active")

	// ErrAlreadyStopped is returned by Stop after the first call.
	ErrAlreadyStopped = errors.New("recording already stopped")

	// ErrFileRewritten is returned when bytes already delivered were changed
	// in the recording file, or the file shrank.
	ErrFileRewritten = fmt.Errorf("recording file rewritten after delivery: %w", capture.ErrMediaInconsistent)
)
