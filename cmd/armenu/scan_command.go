package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xmhha/armenu-panel/pkg/api"
	"github.com/0xmhha/armenu-panel/pkg/capture"
	"github.com/0xmhha/armenu-panel/pkg/recorder"
	"github.com/0xmhha/armenu-panel/pkg/store"
)

const scanHelp = `Commands:
  record                 start recording
  stop                   stop recording and review
  retake                 discard the recording and start over
  approve                keep the recording and enter details
  back                   discard the recording from the details step
  name <text>            set the product name (required)
  description <text>     set the description
  category <text>        set the category
  submit                 upload the recording
  status                 show the current state
  help                   show this help
  quit                   close the scanner
`

func newScanCmd(a *app) *cobra.Command {
	var devicePath string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Record a dish and upload it as a 3D model",
		Long:  "Open the camera, record a short video around a dish and upload it.\n\n" + scanHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := a.requireAuth()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			capCfg := a.cfg.Capture
			if devicePath != "" {
				capCfg.Device = devicePath
			}

			devices := a.deviceProvider()
			rec := recorder.New(recorder.Config{
				FFmpegPath: capCfg.FFmpegPath,
				TempDir:    capCfg.TempDir,
			}, a.log)

			d := &scanDriver{
				out:     &syncWriter{w: a.stdout},
				tty:     a.tty,
				onAdded: a.modelAddedHandler(state),
			}

			session, err := capture.New(capture.Config{
				TenantID: state.Tenant.ID,
				Constraints: capture.Constraints{
					Device: capCfg.Device,
					Width:  capCfg.Width,
					Height: capCfg.Height,
					FPS:    capCfg.FPS,
				},
				Insecure:     a.cfg.API.RequireSecure && !capture.SecureOrigin(a.cfg.API.BaseURL),
				MaxDuration:  capCfg.MaxDuration,
				Refs:         capture.TempFileRefs{Dir: capCfg.TempDir},
				OnModelAdded: d.modelAdded,
			}, devices, rec, a.client, a.log)
			if err != nil {
				return err
			}
			d.session = session

			a.printf("Scanning for %s. Type 'help' for commands.\n", state.Tenant.DisplayName)
			return d.run(ctx, lineReader(a.readLine))
		},
	}

	cmd.Flags().StringVarP(&devicePath, "device", "d", "", "video device (default: first found)")
	return cmd
}

// modelAddedHandler records the upload locally and prints the refreshed
// model list to w.
func (a *app) modelAddedHandler(state *store.AuthState) func(io.Writer, *api.Model, capture.Snapshot) {
	return func(w io.Writer, m *api.Model, snap capture.Snapshot) {
		rec := &store.CaptureRecord{
			SessionID:  snap.ID,
			TenantID:   state.Tenant.ID,
			ModelID:    m.ID,
			Name:       snap.Metadata.Name,
			Category:   snap.Metadata.Category,
			UploadedAt: time.Now(),
		}
		if snap.Captured != nil {
			rec.DurationSeconds = snap.Captured.Duration
			rec.SizeBytes = snap.Captured.Size()
		}
		if err := a.store.RecordCapture(rec); err != nil {
			a.log.Warn("failed to record capture", "error", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.API.Timeout)
		defer cancel()
		models, err := a.client.ListModels(ctx, state.Tenant.ID)
		if err != nil {
			fmt.Fprintf(w, "Could not refresh models: %s\n", api.MessageOf(err))
			return
		}
		f, err := a.formatter()
		if err != nil {
			return
		}
		_ = f.FormatModels(w, models)
	}
}

// lineReader turns a blocking line source into a channel closed at EOF.
func lineReader(read func() (string, error)) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := read()
			if err != nil {
				return
			}
			lines <- line
		}
	}()
	return lines
}

// syncWriter serializes writes from the command loop and the event printer.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// Write implements io.Writer.
func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *syncWriter) printf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, args...)
}

// scanDriver runs a capture session from text commands.
type scanDriver struct {
	session *capture.Session
	out     *syncWriter
	tty     bool
	onAdded func(io.Writer, *api.Model, capture.Snapshot)

	mu      sync.Mutex
	pending capture.Snapshot
}

// modelAdded is the session's OnModelAdded callback.
func (d *scanDriver) modelAdded(m *api.Model) {
	d.mu.Lock()
	snap := d.pending
	d.mu.Unlock()

	d.out.printf("Model %q added (%s)\n", m.Name, m.ID)
	if d.onAdded != nil {
		d.onAdded(d.out, m, snap)
	}
}

func (d *scanDriver) run(ctx context.Context, lines <-chan string) error {
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		d.printEvents()
	}()
	finish := func() error {
		if err := d.close(); err != nil {
			return err
		}
		<-printed
		return nil
	}

	d.requestCamera(ctx)

	submitted := make(chan error, 1)
	uploading := false
	quitting := false

	for {
		if d.session.State() == capture.StateClosed {
			<-printed
			return nil
		}

		select {
		case err := <-submitted:
			uploading = false
			if err != nil {
				if quitting {
					return finish()
				}
				continue
			}
			// Closed after a successful upload.

		case <-ctx.Done():
			if uploading {
				d.out.printf("Upload in progress; waiting for it to finish.\n")
				quitting = true
				ctx = context.Background()
				continue
			}
			return finish()

		case line, ok := <-lines:
			if !ok {
				if uploading {
					quitting = true
					lines = nil
					continue
				}
				return finish()
			}

			cmd, arg := splitCommand(line)
			switch cmd {
			case "":
			case "quit", "exit", "cancel":
				if uploading {
					d.out.printf("Upload in progress; please wait.\n")
					continue
				}
				return finish()
			case "submit":
				if uploading {
					d.out.printf("Upload already in progress.\n")
					continue
				}
				d.mu.Lock()
				d.pending = d.session.Snapshot()
				d.mu.Unlock()
				if d.pending.State != capture.StateMetadataEntry || strings.TrimSpace(d.pending.Metadata.Name) == "" {
					d.report(d.session.Submit(ctx))
					continue
				}
				uploading = true
				d.out.printf("Uploading %s...\n", d.pending.Metadata.Name)
				go func() { submitted <- d.session.Submit(context.Background()) }()
			default:
				d.dispatch(ctx, cmd, arg)
			}
		}
	}
}

func (d *scanDriver) dispatch(ctx context.Context, cmd, arg string) {
	s := d.session
	switch cmd {
	case "record":
		d.report(s.StartRecording())
	case "stop":
		if d.report(s.StopRecording()) {
			d.printReview()
		}
	case "retake":
		if d.report(s.Retake()) {
			d.requestCamera(ctx)
		}
	case "approve":
		if d.report(s.Approve()) {
			d.out.printf("Enter details, then 'submit'. A name is required.\n")
		}
	case "back":
		if d.report(s.Back()) {
			d.requestCamera(ctx)
		}
	case "name", "description", "category":
		m := s.Snapshot().Metadata
		switch cmd {
		case "name":
			m.Name = arg
		case "description":
			m.Description = arg
		case "category":
			m.Category = arg
		}
		d.report(s.SetMetadata(m))
	case "camera":
		d.requestCamera(ctx)
	case "status":
		d.printStatus()
	case "help":
		d.out.printf("%s", scanHelp)
	default:
		d.out.printf("Unknown command %q. Type 'help' for commands.\n", cmd)
	}
}

func (d *scanDriver) requestCamera(ctx context.Context) {
	d.out.printf("Starting camera...\n")
	if d.report(d.session.RequestCamera(ctx)) {
		d.out.printf("Camera ready. Type 'record' to start.\n")
	}
}

// report returns true when err is nil. Session failures reach the user as
// error events; only rejected commands are printed here.
func (d *scanDriver) report(err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, capture.ErrInvalidTrigger):
		d.out.printf("Not available while %s.\n", d.session.State())
	case errors.Is(err, capture.ErrBusy):
		d.out.printf("Please wait, the camera is starting.\n")
	case errors.Is(err, capture.ErrSessionReset):
	default:
		if d.session.Snapshot().LastError == nil {
			d.out.printf("Error: %v\n", err)
		}
	}
	return false
}

func (d *scanDriver) printReview() {
	snap := d.session.Snapshot()
	if snap.Captured == nil {
		return
	}
	d.out.printf("Recorded %s (%d bytes). Review: %s\n",
		capture.FormatDuration(snap.Captured.Duration), snap.Captured.Size(), snap.Captured.Ref)
	d.out.printf("Type 'approve' to continue or 'retake' to record again.\n")
}

func (d *scanDriver) printStatus() {
	snap := d.session.Snapshot()
	d.out.printf("State: %s  Elapsed: %s\n", snap.State, snap.ElapsedLabel())
	if snap.Captured != nil {
		d.out.printf("Capture: %s, %d bytes\n", capture.FormatDuration(snap.Captured.Duration), snap.Captured.Size())
	}
	if m := snap.Metadata; m != (capture.Metadata{}) {
		d.out.printf("Details: name=%q description=%q category=%q\n", m.Name, m.Description, m.Category)
	}
	if snap.LastError != nil {
		d.out.printf("Last error: %s\n", snap.LastError.Message)
	}
}

// printEvents prints ticks and errors until the session closes its events.
func (d *scanDriver) printEvents() {
	for ev := range d.session.Events() {
		switch ev.Type {
		case capture.EventTick:
			if d.tty {
				d.out.printf("\r● REC %s ", capture.FormatDuration(ev.Elapsed))
			} else {
				d.out.printf("REC %s\n", capture.FormatDuration(ev.Elapsed))
			}
		case capture.EventError:
			if d.tty {
				d.out.printf("\r")
			}
			d.out.printf("Error: %s\n", ev.Err.Message)
		case capture.EventStateChanged:
			if ev.State == capture.StateReview && d.tty {
				d.out.printf("\n")
			}
		}
	}
}

func (d *scanDriver) close() error {
	if err := d.session.Close(); err != nil {
		if errors.Is(err, capture.ErrDismissRejected) {
			return errors.New("upload in progress")
		}
		return err
	}
	return nil
}

func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	cmd, arg, _ := strings.Cut(line, " ")
	return strings.ToLower(cmd), strings.TrimSpace(arg)
}
