package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xmhha/armenu-panel/pkg/device"
)

func newDevicesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List cameras available for scanning",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			discovery := a.deviceProvider().Discovery()
			paths, err := discovery.ScanDevices(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list cameras: %w", err)
			}

			infos := make([]*device.DeviceInfo, 0, len(paths))
			for _, path := range paths {
				info, err := discovery.Info(cmd.Context(), path)
				if err != nil {
					a.log.Debug("camera details unavailable", "device", path, "error", err)
				}
				if info == nil {
					info = &device.DeviceInfo{Path: path}
				}
				infos = append(infos, info)
			}

			f, err := a.formatter()
			if err != nil {
				return err
			}
			return f.FormatDevices(a.stdout, infos)
		},
	}
}
