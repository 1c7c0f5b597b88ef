// Package display renders tenants, models, capture history and cameras.
//
// It supports multiple output formats (table, JSON, simple text).
package display

import (
	"errors"
	"io"

	"github.com/0xmhha/armenu-panel/pkg/api"
	"github.com/0xmhha/armenu-panel/pkg/device"
	"github.com/0xmhha/armenu-panel/pkg/store"
)

// Format represents an output format.
type Format string

const (
	// FormatTable displays records in an aligned table.
	FormatTable Format = "table"

	// FormatJSON displays records as JSON.
	FormatJSON Format = "json"

	// FormatSimple displays one line per record.
	FormatSimple Format = "simple"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown output format")

// Formatter writes panel records to w.
type Formatter interface {
	// FormatTenants formats a tenant list.
	FormatTenants(w io.Writer, tenants []api.Tenant) error

	// FormatTenant formats a single tenant with all of its fields.
	FormatTenant(w io.Writer, tenant *api.Tenant) error

	// FormatModels formats a model list.
	//
	// Parameters:
	//   - w: Output writer
	//   - models: Models to format, in backend order
	//
	// Returns error if writing fails.
	FormatModels(w io.Writer, models []api.Model) error

	// FormatCaptures formats the local capture history.
	FormatCaptures(w io.Writer, captures []*store.CaptureRecord) error

	// FormatDevices formats local cameras.
	FormatDevices(w io.Writer, devices []*device.DeviceInfo) error
}

// Config contains formatter configuration.
type Config struct {
	// Format specifies the output format.
	// Default: FormatTable.
	Format Format

	// Compact enables compact output (less whitespace).
	// Default: false.
	Compact bool
}
