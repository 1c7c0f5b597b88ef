package viewer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/0xmhha/armenu-panel/pkg/logger"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

// Viewer launches the web viewer for models.
type Viewer struct {
	cfg    Config
	base   *url.URL
	http   *http.Client
	logger logger.Logger
	launch func(ctx context.Context, name string, args ...string) error
}

// New creates a Viewer.
//
// Parameters:
//   - cfg: Viewer configuration (URLTemplate is required)
//   - log: Logger instance
func New(cfg Config, log logger.Logger) (*Viewer, error) {
	if cfg.URLTemplate == "" {
		return nil, ErrNoTemplate
	}
	var base *url.URL
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL: %w", err)
		}
		base = u
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 10 * time.Second
	}

	return &Viewer{
		cfg:    cfg,
		base:   base,
		http:   &http.Client{},
		logger: log.With("component", "viewer"),
		launch: runCommand,
	}, nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Start() // #nosec G204
}

// Open checks the model asset and launches the viewer. It returns true when
// the viewer was opened. Every failure is passed to Config.OnError.
func (v *Viewer) Open(ctx context.Context, req Request) bool {
	asset, err := v.ResolveAsset(req.AssetURL)
	if err != nil {
		v.fail(err)
		return false
	}

	stop := v.startIndicator(req.Title)
	err = v.probe(ctx, asset)
	stop()
	if err != nil {
		v.fail(err)
		return false
	}

	page := v.PageURL(asset, req)
	name, args := v.openerCommand(page)
	if err := v.launch(ctx, name, args...); err != nil {
		v.fail(fmt.Errorf("%w: %v", ErrLaunchFailed, err))
		return false
	}

	v.logger.Info("viewer opened", "asset", asset)
	if v.cfg.OnLoad != nil {
		v.cfg.OnLoad(page)
	}
	return true
}

// ResolveAsset returns the absolute asset URL.
func (v *Viewer) ResolveAsset(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrNoAsset
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAssetUnavailable, err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if v.cfg.Resolver != nil {
		resolved, err := v.cfg.Resolver.ResolveURL(ref)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrAssetUnavailable, err)
		}
		return resolved, nil
	}
	if v.base == nil {
		return "", fmt.Errorf("%w: relative url %q without base", ErrAssetUnavailable, ref)
	}
	return v.base.ResolveReference(u).String(), nil
}

// PageURL fills the viewer template for asset.
func (v *Viewer) PageURL(asset string, req Request) string {
	r := strings.NewReplacer(
		"{src}", url.QueryEscape(asset),
		"{title}", url.QueryEscape(req.Title),
		"{autorotate}", strconv.FormatBool(req.AutoRotate),
	)
	return r.Replace(v.cfg.URLTemplate)
}

// probe checks the asset responds with 2xx. Servers that refuse HEAD get a
// one-byte ranged GET.
func (v *Viewer) probe(ctx context.Context, asset string) error {
	ctx, cancel := context.WithTimeout(ctx, v.cfg.ProbeTimeout)
	defer cancel()

	status, err := v.request(ctx, http.MethodHead, asset)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		status, err = v.request(ctx, http.MethodGet, asset)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAssetUnavailable, err)
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("%w: HTTP %d", ErrAssetUnavailable, status)
	}
	return nil
}

func (v *Viewer) request(ctx context.Context, method, asset string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, asset, nil)
	if err != nil {
		return 0, err
	}
	if method == http.MethodGet {
		req.Header.Set("Range", "bytes=0-0")
	}
	resp, err := v.http.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode, nil
}

func (v *Viewer) openerCommand(page string) (string, []string) {
	if fields := strings.Fields(v.cfg.Opener); len(fields) > 0 {
		return fields[0], append(fields[1:], page)
	}
	switch runtime.GOOS {
	case "darwin":
		return "open", []string{page}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", page}
	default:
		return "xdg-open", []string{page}
	}
}

// startIndicator animates a spinner on Progress until the returned func is
// called.
func (v *Viewer) startIndicator(title string) func() {
	if v.cfg.Progress == nil {
		return func() {}
	}
	label := "Loading model"
	if title != "" {
		label = "Loading " + title
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(120 * time.Millisecond)
		defer t.Stop()
		for i := 0; ; i++ {
			fmt.Fprintf(v.cfg.Progress, "\r%s %s", spinnerFrames[i%len(spinnerFrames)], label)
			select {
			case <-done:
				fmt.Fprintf(v.cfg.Progress, "\r%s\r", strings.Repeat(" ", len(label)+2))
				return
			case <-t.C:
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}

func (v *Viewer) fail(err error) {
	v.logger.Warn("model could not be shown", "error", err)
	if v.cfg.OnError != nil {
		v.cfg.OnError(err)
	}
}
