package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xmhha/armenu-panel/pkg/api"
	"github.com/0xmhha/armenu-panel/pkg/store"
)

func newLoginCmd(a *app) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login <restaurant>",
		Short: "Log in to a restaurant panel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			ctx := cmd.Context()

			tenant, err := a.client.GetTenantByName(ctx, args[0])
			if err != nil {
				if api.IsNotFound(err) {
					return fmt.Errorf("restaurant %q not found", args[0])
				}
				return fmt.Errorf("failed to load restaurant: %s", api.MessageOf(err))
			}

			if username == "" {
				if username, err = a.prompt("Username"); err != nil {
					return err
				}
			}
			password, err := a.readPassword("Password")
			if err != nil {
				return err
			}

			res, err := a.client.Login(ctx, strings.TrimSpace(username), password)
			if err != nil {
				return fmt.Errorf("login failed: %s", api.MessageOf(err))
			}
			if res.Tenant.ID == "" {
				res.Tenant = *tenant
			}

			if err := a.store.SaveAuth(&store.AuthState{
				Token:      res.Token,
				Tenant:     res.Tenant,
				Username:   username,
				BaseURL:    a.client.BaseURL().String(),
				LoggedInAt: time.Now(),
			}); err != nil {
				return fmt.Errorf("failed to save login: %w", err)
			}

			a.printf("Welcome, %s!\n", res.Tenant.DisplayName)
			a.printf("Menu URL: %s\n", publicURL(res.Tenant.Name))
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "panel username (prompted when empty)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if err := a.store.ClearAuth(); err != nil {
				return fmt.Errorf("failed to clear login: %w", err)
			}
			a.printf("Logged out\n")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in restaurant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := a.requireAuth()
			if err != nil {
				return err
			}
			t := state.Tenant
			a.printf("Restaurant: %s\n", t.DisplayName)
			a.printf("Menu URL:   %s\n", publicURL(t.Name))
			a.printf("Username:   %s\n", state.Username)
			a.printf("Since:      %s\n", state.LoggedInAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
}
