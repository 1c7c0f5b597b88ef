package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xmhha/armenu-panel/pkg/store"
)

func newCapturesCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "captures",
		Short: "Show captures uploaded from this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var tenantID string
			if all {
				if err := a.open(); err != nil {
					return err
				}
			} else {
				state, err := a.requireAuth()
				if err != nil {
					return err
				}
				tenantID = state.Tenant.ID
			}

			records, err := a.store.ListCaptures(tenantID)
			if err != nil {
				return fmt.Errorf("failed to read capture history: %w", err)
			}
			f, err := a.formatter()
			if err != nil {
				return err
			}
			return f.FormatCaptures(a.stdout, records)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include every restaurant")
	cmd.AddCommand(newCapturesDeleteCmd(a))
	return cmd
}

func newCapturesDeleteCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an entry from the local capture history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if !force && !a.confirm(fmt.Sprintf("Remove capture %s from history?", args[0])) {
				a.printf("Cancelled\n")
				return nil
			}
			err := a.store.DeleteCapture(args[0])
			if errors.Is(err, store.ErrCaptureNotFound) {
				return fmt.Errorf("capture %s not found", args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to delete capture: %w", err)
			}
			a.printf("Removed capture %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")
	return cmd
}
