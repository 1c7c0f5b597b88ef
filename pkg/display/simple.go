package display

import (
	"fmt"
	"io"

	"github.com/0xmhha/armenu-panel/pkg/api"
	"github.com/0xmhha/armenu-panel/pkg/capture"
	"github.com/0xmhha/armenu-panel/pkg/device"
	"github.com/0xmhha/armenu-panel/pkg/store"
)

// simpleFormatter formats output as simple text.
type simpleFormatter struct {
	config Config
}

// FormatTenants implements Formatter.FormatTenants.
func (f *simpleFormatter) FormatTenants(w io.Writer, tenants []api.Tenant) error {
	for _, t := range tenants {
		if _, err := fmt.Fprintf(w, "%s %s (%s) - %s\n",
			t.ID, t.Name, t.DisplayName, activeLabel(t.IsActive)); err != nil {
			return err
		}
	}
	return nil
}

// FormatTenant implements Formatter.FormatTenant.
func (f *simpleFormatter) FormatTenant(w io.Writer, t *api.Tenant) error {
	_, err := fmt.Fprintf(w, "%s | %s | %s | user: %s | email: %s | phone: %s | %s\n",
		t.ID, t.Name, t.DisplayName, t.Username, orDash(t.Email), orDash(t.Phone), activeLabel(t.IsActive))
	return err
}

// FormatModels implements Formatter.FormatModels.
func (f *simpleFormatter) FormatModels(w io.Writer, models []api.Model) error {
	for _, m := range models {
		if _, err := fmt.Fprintf(w, "%s %s [%s] %s\n",
			m.ID, m.Name, orDash(m.Category), orDash(m.Status)); err != nil {
			return err
		}
	}
	return nil
}

// FormatDevices implements Formatter.FormatDevices.
func (f *simpleFormatter) FormatDevices(w io.Writer, devices []*device.DeviceInfo) error {
	for _, d := range devices {
		if _, err := fmt.Fprintf(w, "%s %s (%s) %s\n",
			d.Path, orDash(d.Name), orDash(d.Driver), largestResolution(d.Resolutions)); err != nil {
			return err
		}
	}
	return nil
}

// FormatCaptures implements Formatter.FormatCaptures.
func (f *simpleFormatter) FormatCaptures(w io.Writer, captures []*store.CaptureRecord) error {
	for _, c := range captures {
		if _, err := fmt.Fprintf(w, "%s %s - %s, %s -> model %s\n",
			formatTime(c.UploadedAt),
			c.Name,
			capture.FormatDuration(c.DurationSeconds),
			formatBytes(c.SizeBytes),
			orDash(c.ModelID)); err != nil {
			return err
		}
	}
	return nil
}
