package recorder

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/0xmhha/armenu-panel/pkg/logger"
)

// tailer delivers data appended to a file as chunks.
type tailer struct {
	path     string
	fsw      *fsnotify.Watcher
	onChunk  func([]byte)
	debounce time.Duration
	maxChunk int
	logger   logger.Logger

	// readMu serializes reads so chunks are delivered in file order.
	readMu    sync.Mutex
	offset    int64
	finished  bool
	rewritten bool
	sum       hash.Hash

	mu       sync.Mutex
	timer    *time.Timer
	closed   bool
	stopChan chan struct{}
	done     chan struct{}
}

// newTailer starts watching the directory containing path. The file may
// not exist yet.
func newTailer(path string, debounce time.Duration, maxChunk int, onChunk func([]byte), log logger.Logger) (*tailer, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	t := &tailer{
		path:     filepath.Clean(path),
		fsw:      fsw,
		onChunk:  onChunk,
		debounce: debounce,
		maxChunk: maxChunk,
		logger:   log,
		sum:      sha256.New(),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
	go t.processEvents()
	return t, nil
}

func (t *tailer) processEvents() {
	defer close(t.done)
	for {
		select {
		case <-t.stopChan:
			return

		case event, ok := <-t.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != t.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				t.schedule()
			}

		case err, ok := <-t.fsw.Errors:
			if !ok {
				return
			}
			t.logger.Warn("fsnotify error while recording", "error", err)
		}
	}
}

// schedule restarts the debounce timer.
func (t *tailer) schedule() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.debounce, func() {
		if err := t.readAvailable(false); err != nil {
			t.logger.Warn("failed to read recording", "path", t.path, "error", err)
		}
	})
}

// readAvailable reads from the last offset to EOF. After the final read
// nothing more is delivered, and the file prefix that was delivered is
// compared with what is on disk. Once the file is found rewritten no more
// chunks are delivered and ErrFileRewritten is returned.
func (t *tailer) readAvailable(final bool) error {
	t.readMu.Lock()
	defer t.readMu.Unlock()

	if t.finished {
		return nil
	}
	if final {
		t.finished = true
	}
	if t.rewritten {
		return ErrFileRewritten
	}

	f, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() < t.offset {
		t.logger.Error("recording file shrank", "size", info.Size(), "offset", t.offset)
		t.rewritten = true
		return ErrFileRewritten
	}
	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return err
	}

	buf := make([]byte, t.maxChunk)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			t.offset += int64(n)
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			t.sum.Write(chunk)
			t.onChunk(chunk)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	if final {
		return t.verify(f)
	}
	return nil
}

// verify hashes the first offset bytes of f and compares them with what
// was delivered. Called with readMu held.
func (t *tailer) verify(f *os.File) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	h := sha256.New()
	n, err := io.Copy(h, io.LimitReader(f, t.offset))
	if err != nil {
		return err
	}
	if n != t.offset || !bytes.Equal(h.Sum(nil), t.sum.Sum(nil)) {
		t.logger.Error("recording file changed after delivery", "offset", t.offset)
		t.rewritten = true
		return ErrFileRewritten
	}
	return nil
}

// flush stops watching, waits for pending reads and reads what is left.
func (t *tailer) flush() error {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		if t.timer != nil {
			t.timer.Stop()
		}
		close(t.stopChan)
	}
	t.mu.Unlock()

	<-t.done
	closeErr := t.fsw.Close()

	if err := t.readAvailable(true); err != nil {
		return err
	}
	return closeErr
}

// Offset returns the number of bytes delivered so far.
func (t *tailer) Offset() int64 {
	t.readMu.Lock()
	defer t.readMu.Unlock()
	return t.offset
}
