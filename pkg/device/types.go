// Package device finds local cameras and opens them for capture.
//
// Cameras are V4L2 devices (/dev/videoN). Discovery lists them and, when
// v4l2-ctl is installed, reads their name and supported frame sizes.
// Provider implements capture.MediaDevices: it opens the device node so the
// camera is held for the session, grabs one frame with ffmpeg to find out
// whether another application is streaming from it, and reports failures as
// capture.PlatformError values named after the platform conditions
// ("NotAllowedError", "NotFoundError", ...) so the capture package can
// classify them.
//
// Example usage:
//
//	p := device.NewProvider(device.Config{FFmpegPath: "ffmpeg"}, log)
//	stream, err := p.Acquire(ctx, capture.Constraints{Width: 1280, Height: 720})
package device

import (
	"context"
	"fmt"
	"time"
)

// Resolution is a frame size supported by a device.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// String returns WxH.
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// DeviceInfo describes a camera.
type DeviceInfo struct {
	Path        string       `json:"path"`
	Name        string       `json:"name,omitempty"`
	Driver      string       `json:"driver,omitempty"`
	Formats     []string     `json:"formats,omitempty"`
	Resolutions []Resolution `json:"resolutions,omitempty"`
}

// Supports reports whether w x h is listed. An empty list is treated as
// "unknown" and supports everything.
func (d *DeviceInfo) Supports(w, h int) bool {
	if len(d.Resolutions) == 0 {
		return true
	}
	for _, r := range d.Resolutions {
		if r.Width == w && r.Height == h {
			return true
		}
	}
	return false
}

// Discoverer lists cameras.
type Discoverer interface {
	// ScanDevices returns device paths ordered by device number.
	ScanDevices(ctx context.Context) ([]string, error)

	// Info returns details for one device. Fields that cannot be probed
	// are left empty.
	Info(ctx context.Context, path string) (*DeviceInfo, error)
}

// Config contains device configuration.
type Config struct {
	// DevDir is scanned for videoN nodes.
	// Default: /dev
	DevDir string

	// FFmpegPath must resolve for capture to be supported.
	// Default: ffmpeg
	FFmpegPath string

	// V4L2CtlPath is used to probe device details. Optional.
	// Default: v4l2-ctl
	V4L2CtlPath string

	// ProbeTimeout bounds each v4l2-ctl call and the frame grab done when
	// a camera is acquired.
	// Default: 5s
	ProbeTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.DevDir == "" {
		c.DevDir = "/dev"
	}
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
	if c.V4L2CtlPath == "" {
		c.V4L2CtlPath = "v4l2-ctl"
	}
	if c.ProbeTimeout == 0 {
		c.ProbeTimeout = 5 * time.Second
	}
}
