package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/0xmhha/armenu-panel/pkg/device"
)

const timeLayout = "2006-01-02 15:04"

// New creates a new formatter based on configuration.
//
// Parameters:
//   - cfg: Formatter configuration
//
// Returns a configured Formatter.
func New(cfg Config) Formatter {
	if cfg.Format == "" {
		cfg.Format = FormatTable
	}

	switch cfg.Format {
	case FormatJSON:
		return &jsonFormatter{config: cfg}
	case FormatSimple:
		return &simpleFormatter{config: cfg}
	case FormatTable:
		fallthrough
	default:
		return &tableFormatter{config: cfg}
	}
}

// ParseFormat converts a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatSimple:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// formatNumber formats a number with thousand separators.
func formatNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	if n < 1000 {
		return s
	}

	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// formatBytes formats a size in binary units.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

// largestResolution returns the frame size with the most pixels, or "-".
func largestResolution(rs []device.Resolution) string {
	if len(rs) == 0 {
		return "-"
	}
	best := rs[0]
	for _, r := range rs[1:] {
		if r.Width*r.Height > best.Width*best.Height {
			best = r
		}
	}
	return best.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

// writeHeader writes a section header.
func writeHeader(w io.Writer, title string, compact bool) error {
	if compact {
		_, err := fmt.Fprintf(w, "%s\n", title)
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s\n%s\n\n", title, strings.Repeat("=", len(title)))
	return err
}
