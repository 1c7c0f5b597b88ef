// Package viewer opens 3D models in an interactive web viewer.
//
// The viewer page does the rendering: it centers and fits the model, offers
// orbit, pan and zoom, and optionally rotates it. This package resolves the
// model's asset URL against the backend, checks that the asset can be
// fetched while showing a loading indicator, and launches the page. Failures
// are reported through Config.OnError; Open never panics on a bad asset.
//
// Example usage:
//
//	v, err := viewer.New(viewer.Config{
//	    Resolver:    client,
//	    URLTemplate: cfg.Viewer.URLTemplate,
//	    Progress:    os.Stderr,
//	    OnError:     func(err error) { fmt.Fprintln(os.Stderr, err) },
//	}, log)
//	v.Open(ctx, viewer.Request{AssetURL: model.ModelURL, Title: model.Name, AutoRotate: true})
package viewer

import (
	"errors"
	"io"
	"time"
)

// Request describes one model to show.
type Request struct {
	// AssetURL is absolute or relative to the backend.
	AssetURL string

	// Title is shown by the viewer when set.
	Title string

	// AutoRotate turns on continuous rotation.
	AutoRotate bool
}

// URLResolver turns a relative asset reference into an absolute URL.
// *api.Client implements it.
type URLResolver interface {
	ResolveURL(ref string) (string, error)
}

// Config contains viewer configuration.
type Config struct {
	// Resolver resolves relative asset URLs. When nil, BaseURL is used.
	Resolver URLResolver

	// BaseURL resolves relative asset URLs when no Resolver is set.
	BaseURL string

	// URLTemplate is the viewer page. {src}, {title} and {autorotate} are
	// replaced with query-escaped values.
	URLTemplate string

	// Opener launches the viewer URL. Empty selects the platform default.
	Opener string

	// ProbeTimeout bounds the asset availability check.
	// Default: 10s
	ProbeTimeout time.Duration

	// Progress receives the loading indicator. Nil disables it.
	Progress io.Writer

	// OnError is called when the model cannot be shown.
	OnError func(error)

	// OnLoad is called with the viewer URL after it was launched.
	OnLoad func(viewerURL string)
}

// Common errors reported by the viewer package.
var (
	// ErrNoAsset is reported when a request has no asset URL.
	ErrNoAsset = errors.New("model has no asset URL")

	// ErrNoTemplate is returned by New when no viewer template is configured.
	ErrNoTemplate = errors.New("viewer url template not configured")

	// ErrAssetUnavailable is reported when the asset cannot be fetched.
	ErrAssetUnavailable = errors.New("model asset unavailable")

	// ErrLaunchFailed is reported when the viewer could not be opened.
	ErrLaunchFailed = errors.New("failed to open viewer")
)
