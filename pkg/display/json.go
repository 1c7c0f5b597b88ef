package display

import (
	"encoding/json"
	"io"

	"github.com/0xmhha/armenu-panel/pkg/api"
	"github.com/0xmhha/armenu-panel/pkg/device"
	"github.com/0xmhha/armenu-panel/pkg/store"
)

// jsonFormatter formats output as JSON.
type jsonFormatter struct {
	config Config
}

// FormatTenants implements Formatter.FormatTenants.
func (f *jsonFormatter) FormatTenants(w io.Writer, tenants []api.Tenant) error {
	if tenants == nil {
		tenants = []api.Tenant{}
	}
	return f.encode(w, tenants)
}

// FormatTenant implements Formatter.FormatTenant.
func (f *jsonFormatter) FormatTenant(w io.Writer, tenant *api.Tenant) error {
	return f.encode(w, tenant)
}

// FormatModels implements Formatter.FormatModels.
func (f *jsonFormatter) FormatModels(w io.Writer, models []api.Model) error {
	if models == nil {
		models = []api.Model{}
	}
	return f.encode(w, models)
}

// FormatCaptures implements Formatter.FormatCaptures.
func (f *jsonFormatter) FormatCaptures(w io.Writer, captures []*store.CaptureRecord) error {
	if captures == nil {
		captures = []*store.CaptureRecord{}
	}
	return f.encode(w, captures)
}

// FormatDevices implements Formatter.FormatDevices.
func (f *jsonFormatter) FormatDevices(w io.Writer, devices []*device.DeviceInfo) error {
	if devices == nil {
		devices = []*device.DeviceInfo{}
	}
	return f.encode(w, devices)
}

func (f *jsonFormatter) encode(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	if !f.config.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}
