package device

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/0xmhha/armenu-panel/pkg/logger"
)

var (
	videoNodePattern = regexp.MustCompile(`^video(\d+)$`)
	formatPattern    = regexp.MustCompile(`\[\d+\]:\s+'(\w+)'`)
	sizePattern      = regexp.MustCompile(`Size:\s+\w+\s+(\d+)x(\d+)`)
)

// runFunc runs a command and returns its stdout.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output() // #nosec G204
}

type linuxDiscovery struct {
	cfg    Config
	run    runFunc
	logger logger.Logger
}

// NewDiscovery creates a Discoverer for V4L2 devices.
func NewDiscovery(cfg Config, log logger.Logger) Discoverer {
	cfg.applyDefaults()
	return &linuxDiscovery{cfg: cfg, run: execRun, logger: log}
}

// ScanDevices implements Discoverer.ScanDevices.
func (d *linuxDiscovery) ScanDevices(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.cfg.DevDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", d.cfg.DevDir, err)
	}

	type node struct {
		path string
		num  int
	}
	var nodes []node
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m := videoNodePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		nodes = append(nodes, node{path: filepath.Join(d.cfg.DevDir, e.Name()), num: n})
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].num < nodes[j].num })

	paths := make([]string, len(nodes))
	for i, n := range nodes {
		paths[i] = n.path
	}
	d.logger.Debug("video devices scanned", "dir", d.cfg.DevDir, "count", len(paths))
	return paths, nil
}

// Info implements Discoverer.Info.
func (d *linuxDiscovery) Info(ctx context.Context, path string) (*DeviceInfo, error) {
	if !videoNodePattern.MatchString(filepath.Base(path)) {
		return nil, fmt.Errorf("%w: %s", ErrNotVideoDevice, path)
	}

	info := &DeviceInfo{Path: path, Name: filepath.Base(path)}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.ProbeTimeout)
	defer cancel()

	out, err := d.run(ctx, d.cfg.V4L2CtlPath, "--device", path, "--info", "--list-formats-ext")
	if err != nil {
		d.logger.Debug("device probe failed", "device", path, "error", err)
		return info, fmt.Errorf("%w: %v", ErrProbeUnavailable, err)
	}

	parseV4L2Output(out, info)
	return info, nil
}

// parseV4L2Output fills info from `v4l2-ctl --info --list-formats-ext`.
func parseV4L2Output(out []byte, info *DeviceInfo) {
	seenFormat := map[string]bool{}
	seenSize := map[Resolution]bool{}

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())

		if k, v, ok := strings.Cut(line, ":"); ok {
			switch strings.TrimSpace(k) {
			case "Card type":
				if v = strings.TrimSpace(v); v != "" {
					info.Name = v
				}
				continue
			case "Driver name":
				info.Driver = strings.TrimSpace(v)
				continue
			}
		}

		if m := formatPattern.FindStringSubmatch(line); m != nil && !seenFormat[m[1]] {
			seenFormat[m[1]] = true
			info.Formats = append(info.Formats, m[1])
			continue
		}
		if m := sizePattern.FindStringSubmatch(line); m != nil {
			w, _ := strconv.Atoi(m[1])
			h, _ := strconv.Atoi(m[2])
			r := Resolution{Width: w, Height: h}
			if !seenSize[r] {
				seenSize[r] = true
				info.Resolutions = append(info.Resolutions, r)
			}
		}
	}
}
