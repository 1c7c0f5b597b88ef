package viewer

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/armenu-panel/pkg/api"
	"github.com/0xmhha/armenu-panel/pkg/logger"
)

const testTemplate = "https://viewer.test/?src={src}&title={title}&auto-rotate={autorotate}"

type launchRecorder struct {
	mu    sync.Mutex
	name  string
	args  []string
	calls int
	err   error
}

func (l *launchRecorder) launch(_ context.Context, name string, args ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	l.name = name
	l.args = args
	return l.err
}

type errorSink struct {
	mu   sync.Mutex
	errs []error
}

func (s *errorSink) add(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func setupTestViewer(t *testing.T, base string, cfg Config) (*Viewer, *launchRecorder, *errorSink) {
	t.Helper()
	sink := &errorSink{}
	cfg.BaseURL = base
	if cfg.URLTemplate == "" {
		cfg.URLTemplate = testTemplate
	}
	cfg.OnError = sink.add

	v, err := New(cfg, logger.Noop())
	require.NoError(t, err)

	l := &launchRecorder{}
	v.launch = l.launch
	return v, l, sink
}

func assetServer(t *testing.T, headStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/uploads/pizza.glb", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(headStatus)
			return
		}
		assert.Equal(t, "bytes=0-0", r.Header.Get("Range"))
		w.Header().Set("Content-Type", "model/gltf-binary")
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("g"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewRequiresTemplate(t *testing.T) {
	_, err := New(Config{}, logger.Noop())
	assert.ErrorIs(t, err, ErrNoTemplate)
}

func TestOpenLaunchesViewer(t *testing.T) {
	srv := assetServer(t, http.StatusOK)
	var loaded string
	v, l, sink := setupTestViewer(t, srv.URL+"/api/", Config{
		Opener: "firefox --new-window",
		OnLoad: func(u string) { loaded = u },
	})

	ok := v.Open(context.Background(), Request{
		AssetURL:   "/uploads/pizza.glb",
		Title:      "Margherita Pizza",
		AutoRotate: true,
	})

	require.True(t, ok)
	assert.Empty(t, sink.errs)
	assert.Equal(t, 1, l.calls)
	assert.Equal(t, "firefox", l.name)
	require.Len(t, l.args, 2)
	assert.Equal(t, "--new-window", l.args[0])

	page := l.args[1]
	assert.Equal(t, page, loaded)
	assert.True(t, strings.HasPrefix(page, "https://viewer.test/?src="))
	assert.Contains(t, page, "src="+strings.ReplaceAll(strings.ReplaceAll(srv.URL, ":", "%3A"), "/", "%2F")+"%2Fuploads%2Fpizza.glb")
	assert.Contains(t, page, "title=Margherita+Pizza")
	assert.Contains(t, page, "auto-rotate=true")
}

func TestOpenFallsBackToRangedGet(t *testing.T) {
	srv := assetServer(t, http.StatusMethodNotAllowed)
	v, l, sink := setupTestViewer(t, srv.URL, Config{})

	assert.True(t, v.Open(context.Background(), Request{AssetURL: srv.URL + "/uploads/pizza.glb"}))
	assert.Empty(t, sink.errs)
	assert.Equal(t, 1, l.calls)
}

func TestOpenReportsFailures(t *testing.T) {
	srv := assetServer(t, http.StatusOK)

	tests := []struct {
		name      string
		base      string
		asset     string
		launchErr error
		wantErr   error
	}{
		{name: "no asset", base: srv.URL, asset: "  ", wantErr: ErrNoAsset},
		{name: "missing asset", base: srv.URL, asset: "/uploads/gone.glb", wantErr: ErrAssetUnavailable},
		{name: "relative without base", asset: "/uploads/pizza.glb", wantErr: ErrAssetUnavailable},
		{name: "unreachable host", asset: "http://127.0.0.1:1/model.glb", wantErr: ErrAssetUnavailable},
		{name: "launch failure", base: srv.URL, asset: "/uploads/pizza.glb", launchErr: errors.New("exec: not found"), wantErr: ErrLaunchFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, l, sink := setupTestViewer(t, tt.base, Config{})
			l.err = tt.launchErr

			var ok bool
			assert.NotPanics(t, func() {
				ok = v.Open(context.Background(), Request{AssetURL: tt.asset})
			})
			assert.False(t, ok)
			require.Len(t, sink.errs, 1)
			assert.ErrorIs(t, sink.errs[0], tt.wantErr)
		})
	}
}

func TestResolveAsset(t *testing.T) {
	v, _, _ := setupTestViewer(t, "https://api.example.com/api/", Config{})

	got, err := v.ResolveAsset("https://cdn.example.com/a.glb")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.glb", got)

	got, err = v.ResolveAsset("/uploads/a.glb")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/uploads/a.glb", got)

	got, err = v.ResolveAsset("models/a.glb")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/api/models/a.glb", got)
}

func TestResolveAssetWithResolver(t *testing.T) {
	srv := assetServer(t, http.StatusOK)
	client, err := api.New(api.Config{BaseURL: srv.URL + "/api"}, api.StaticToken(""), logger.Noop())
	require.NoError(t, err)
	v, launches, sink := setupTestViewer(t, "", Config{Resolver: client})

	got, err := v.ResolveAsset("/uploads/pizza.glb")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/uploads/pizza.glb", got)

	require.True(t, v.Open(context.Background(), Request{AssetURL: "/uploads/pizza.glb"}))
	assert.Equal(t, 1, launches.calls)
	assert.Empty(t, sink.errs)
}

func TestOpenerCommandBlank(t *testing.T) {
	v, _, _ := setupTestViewer(t, "", Config{Opener: "   \t"})
	assert.NotPanics(t, func() {
		name, args := v.openerCommand("https://viewer.test/")
		assert.NotEmpty(t, name, "blank opener falls back to the platform default")
		assert.Equal(t, []string{"https://viewer.test/"}, args[len(args)-1:])
	})
}

func TestPageURLEscapesValues(t *testing.T) {
	v, _, _ := setupTestViewer(t, "", Config{})
	page := v.PageURL("https://cdn.example.com/a b.glb?x=1&y=2", Request{Title: "Fish & Chips"})

	assert.Contains(t, page, "src=https%3A%2F%2Fcdn.example.com%2Fa+b.glb%3Fx%3D1%26y%3D2")
	assert.Contains(t, page, "title=Fish+%26+Chips")
	assert.Contains(t, page, "auto-rotate=false")
}

func TestLoadingIndicator(t *testing.T) {
	srv := assetServer(t, http.StatusOK)
	var progress bytes.Buffer
	v, _, _ := setupTestViewer(t, srv.URL, Config{Progress: &progress})

	require.True(t, v.Open(context.Background(), Request{AssetURL: "/uploads/pizza.glb", Title: "Pizza"}))
	assert.Contains(t, progress.String(), "Loading Pizza")
	assert.True(t, strings.HasSuffix(progress.String(), "\r"), "indicator is cleared")
}

func TestOpenerCommandDefault(t *testing.T) {
	v, _, _ := setupTestViewer(t, "", Config{})
	name, args := v.openerCommand("https://viewer.test/")
	assert.NotEmpty(t, name)
	assert.Equal(t, "https://viewer.test/", args[len(args)-1])
}
