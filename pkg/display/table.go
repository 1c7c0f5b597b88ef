package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/0xmhha/armenu-panel/pkg/api"
	"github.com/0xmhha/armenu-panel/pkg/capture"
	"github.com/0xmhha/armenu-panel/pkg/device"
	"github.com/0xmhha/armenu-panel/pkg/store"
)

// tableFormatter formats output as tables.
type tableFormatter struct {
	config Config
}

// FormatTenants implements Formatter.FormatTenants.
func (f *tableFormatter) FormatTenants(w io.Writer, tenants []api.Tenant) error {
	if err := writeHeader(w, "Restaurants", f.config.Compact); err != nil {
		return err
	}

	header := []string{"ID", "Name", "Display Name", "Username", "Status", "Created"}
	rows := make([][]string, len(tenants))
	for i, t := range tenants {
		rows[i] = []string{
			t.ID,
			t.Name,
			t.DisplayName,
			t.Username,
			activeLabel(t.IsActive),
			formatTime(t.CreatedAt),
		}
	}

	return f.writeTable(w, header, rows)
}

// FormatTenant implements Formatter.FormatTenant.
func (f *tableFormatter) FormatTenant(w io.Writer, t *api.Tenant) error {
	if err := writeHeader(w, t.DisplayName, f.config.Compact); err != nil {
		return err
	}

	rows := [][]string{
		{"ID", t.ID},
		{"Name", t.Name},
		{"Display Name", t.DisplayName},
		{"Username", t.Username},
		{"Email", orDash(t.Email)},
		{"Phone", orDash(t.Phone)},
		{"Address", orDash(t.Address)},
		{"Status", activeLabel(t.IsActive)},
		{"Created", formatTime(t.CreatedAt)},
	}

	return f.writeTable(w, []string{"Field", "Value"}, rows)
}

// FormatModels implements Formatter.FormatModels.
func (f *tableFormatter) FormatModels(w io.Writer, models []api.Model) error {
	if err := writeHeader(w, "Menu Models", f.config.Compact); err != nil {
		return err
	}

	header := []string{"ID", "Name", "Category", "Status", "Created"}
	rows := make([][]string, len(models))
	for i, m := range models {
		rows[i] = []string{
			m.ID,
			m.Name,
			orDash(m.Category),
			orDash(m.Status),
			formatTime(m.CreatedAt),
		}
	}

	return f.writeTable(w, header, rows)
}

// FormatCaptures implements Formatter.FormatCaptures.
func (f *tableFormatter) FormatCaptures(w io.Writer, captures []*store.CaptureRecord) error {
	if err := writeHeader(w, "Capture History", f.config.Compact); err != nil {
		return err
	}

	header := []string{"Uploaded", "Name", "Category", "Duration", "Size", "Model ID"}
	rows := make([][]string, len(captures))
	var total int64
	for i, c := range captures {
		total += c.SizeBytes
		rows[i] = []string{
			formatTime(c.UploadedAt),
			c.Name,
			orDash(c.Category),
			capture.FormatDuration(c.DurationSeconds),
			formatBytes(c.SizeBytes),
			orDash(c.ModelID),
		}
	}

	if err := f.writeTable(w, header, rows); err != nil {
		return err
	}
	if len(captures) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "%s captures, %s uploaded\n",
		formatNumber(int64(len(captures))), formatBytes(total))
	return err
}

// FormatDevices implements Formatter.FormatDevices.
func (f *tableFormatter) FormatDevices(w io.Writer, devices []*device.DeviceInfo) error {
	if err := writeHeader(w, "Cameras", f.config.Compact); err != nil {
		return err
	}

	header := []string{"Device", "Name", "Driver", "Formats", "Max Size"}
	rows := make([][]string, len(devices))
	for i, d := range devices {
		rows[i] = []string{
			d.Path,
			orDash(d.Name),
			orDash(d.Driver),
			orDash(strings.Join(d.Formats, ",")),
			largestResolution(d.Resolutions),
		}
	}

	return f.writeTable(w, header, rows)
}

// writeTable writes a formatted table.
func (f *tableFormatter) writeTable(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No data")
		return err
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	if err := f.writeRow(w, header, widths); err != nil {
		return err
	}

	if !f.config.Compact {
		separator := make([]string, len(header))
		for i, width := range widths {
			separator[i] = strings.Repeat("-", width)
		}
		if err := f.writeRow(w, separator, widths); err != nil {
			return err
		}
	}

	for _, row := range rows {
		if err := f.writeRow(w, row, widths); err != nil {
			return err
		}
	}

	if !f.config.Compact {
		_, err := fmt.Fprintln(w)
		return err
	}

	return nil
}

// writeRow writes a single table row.
func (f *tableFormatter) writeRow(w io.Writer, cells []string, widths []int) error {
	gap := "  "
	if f.config.Compact {
		gap = " "
	}

	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(gap)
		}
		if i == len(cells)-1 {
			b.WriteString(cell)
			continue
		}
		fmt.Fprintf(&b, "%-*s", widths[i], cell)
	}
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}
