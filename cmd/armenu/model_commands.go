package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xmhha/armenu-panel/pkg/viewer"
)

func newModelCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage the logged in restaurant's 3D models",
	}
	cmd.AddCommand(newModelListCmd(a), newModelDeleteCmd(a), newModelViewCmd(a))
	return cmd
}

func newModelListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List 3D models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := a.requireAuth()
			if err != nil {
				return err
			}
			models, err := a.client.ListModels(cmd.Context(), state.Tenant.ID)
			if err != nil {
				return apiFailure("list models", err)
			}
			f, err := a.formatter()
			if err != nil {
				return err
			}
			return f.FormatModels(a.stdout, models)
		},
	}
}

func newModelDeleteCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a 3D model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireAuth(); err != nil {
				return err
			}
			if !force && !a.confirm(fmt.Sprintf("Delete model %s?", args[0])) {
				a.printf("Cancelled\n")
				return nil
			}
			if err := a.client.DeleteModel(cmd.Context(), args[0]); err != nil {
				return apiFailure("delete model", err)
			}
			a.printf("Deleted model %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")
	return cmd
}

func newModelViewCmd(a *app) *cobra.Command {
	var autoRotate bool

	cmd := &cobra.Command{
		Use:   "view <id>",
		Short: "Open a 3D model in the web viewer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireAuth(); err != nil {
				return err
			}
			m, err := a.client.GetModel(cmd.Context(), args[0])
			if err != nil {
				return apiFailure("load model", err)
			}

			if !cmd.Flags().Changed("auto-rotate") {
				autoRotate = a.cfg.Viewer.AutoRotate
			}

			var viewErr error
			v, err := viewer.New(viewer.Config{
				Resolver:    a.client,
				URLTemplate: a.cfg.Viewer.URLTemplate,
				Opener:      a.cfg.Viewer.Opener,
				Progress:    a.progressWriter(),
				OnError:     func(err error) { viewErr = err },
				OnLoad:      func(page string) { a.printf("Opened %s\n", page) },
			}, a.log)
			if err != nil {
				return err
			}

			if !v.Open(cmd.Context(), viewer.Request{
				AssetURL:   m.ModelURL,
				Title:      m.Name,
				AutoRotate: autoRotate,
			}) {
				return fmt.Errorf("could not show %s: %w", m.Name, viewErr)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&autoRotate, "auto-rotate", true, "rotate the model continuously")
	return cmd
}
