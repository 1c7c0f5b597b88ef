package capture

import (
	"fmt"
	"os"
	"strings"
)

// MediaRefs creates and revokes playable references to captured media.
type MediaRefs interface {
	// Create stores blob and returns a reference a player can open.
	Create(blob []byte, mimeType string) (string, error)

	// Revoke invalidates a reference returned by Create.
	Revoke(ref string) error
}

// TempFileRefs keeps review copies as files in Dir. The reference is the path.
type TempFileRefs struct {
	Dir string
}

// Create implements MediaRefs.Create.
func (r TempFileRefs) Create(blob []byte, mimeType string) (string, error) {
	dir := r.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create review directory: %w", err)
	}

	f, err := os.CreateTemp(dir, "review-*"+FileExtension(mimeType))
	if err != nil {
		return "", fmt.Errorf("failed to create review file: %w", err)
	}
	if _, err := f.Write(blob); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write review file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// Revoke implements MediaRefs.Revoke.
func (r TempFileRefs) Revoke(ref string) error {
	if err := os.Remove(ref); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// FileExtension returns the file extension for a video MIME type.
func FileExtension(mimeType string) string {
	base := strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
	switch base {
	case "video/webm":
		return ".webm"
	case "video/x-matroska":
		return ".mkv"
	case "video/mp4":
		return ".mp4"
	case "video/quicktime":
		return ".mov"
	default:
		return ".bin"
	}
}
