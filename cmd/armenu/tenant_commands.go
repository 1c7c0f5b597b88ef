package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/0xmhha/armenu-panel/pkg/api"
)

func newTenantCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tenant",
		Aliases: []string{"restaurant"},
		Short:   "Manage restaurants",
	}

	cmd.AddCommand(
		newTenantListCmd(a),
		newTenantShowCmd(a),
		newTenantCreateCmd(a),
		newTenantUpdateCmd(a),
		newTenantDeleteCmd(a),
	)
	return cmd
}

func newTenantListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List restaurants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			tenants, err := a.client.ListTenants(cmd.Context())
			if err != nil {
				return apiFailure("list restaurants", err)
			}
			f, err := a.formatter()
			if err != nil {
				return err
			}
			return f.FormatTenants(a.stdout, tenants)
		},
	}
}

func newTenantShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|name>",
		Short: "Show one restaurant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			t, err := a.findTenant(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			f, err := a.formatter()
			if err != nil {
				return err
			}
			return f.FormatTenant(a.stdout, t)
		},
	}
}

// findTenant looks ref up as an id and then as a public name.
func (a *app) findTenant(ctx context.Context, ref string) (*api.Tenant, error) {
	t, err := a.client.GetTenant(ctx, ref)
	if err == nil {
		return t, nil
	}
	if !api.IsNotFound(err) || api.ValidateTenantName(ref) != nil {
		return nil, apiFailure("load restaurant", err)
	}
	t, err = a.client.GetTenantByName(ctx, ref)
	if err != nil {
		if api.IsNotFound(err) {
			return nil, fmt.Errorf("restaurant %q not found", ref)
		}
		return nil, apiFailure("load restaurant", err)
	}
	return t, nil
}

// tenantFlags binds the editable tenant fields.
type tenantFlags struct {
	input       api.TenantInput
	setPassword bool
}

func (f *tenantFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.input.Name, "name", "", "public name (lowercase letters, digits and hyphens)")
	fs.StringVar(&f.input.DisplayName, "display-name", "", "name shown to guests")
	fs.StringVar(&f.input.Username, "username", "", "panel login username")
	fs.StringVar(&f.input.Email, "email", "", "contact email")
	fs.StringVar(&f.input.Phone, "phone", "", "contact phone")
	fs.StringVar(&f.input.Address, "address", "", "street address")
}

// apply copies the flags that were set on cmd onto in.
func (f *tenantFlags) apply(cmd *cobra.Command, in *api.TenantInput) {
	set := map[string]func(){
		"name":         func() { in.Name = f.input.Name },
		"display-name": func() { in.DisplayName = f.input.DisplayName },
		"username":     func() { in.Username = f.input.Username },
		"email":        func() { in.Email = f.input.Email },
		"phone":        func() { in.Phone = f.input.Phone },
		"address":      func() { in.Address = f.input.Address },
	}
	for name, fn := range set {
		if cmd.Flags().Changed(name) {
			fn()
		}
	}
}

func newTenantCreateCmd(a *app) *cobra.Command {
	var flags tenantFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a restaurant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := flags.input
			in.Name = strings.TrimSpace(in.Name)
			if err := api.ValidateTenantName(in.Name); err != nil {
				return err
			}

			password, err := a.readPassword("Password")
			if err != nil {
				return err
			}
			in.Password = password
			if err := in.Validate(false); err != nil {
				return err
			}

			if err := a.open(); err != nil {
				return err
			}
			t, err := a.client.CreateTenant(cmd.Context(), in)
			if err != nil {
				return apiFailure("create restaurant", err)
			}

			a.printf("Created restaurant %s (%s)\n", t.DisplayName, t.ID)
			a.printf("Menu URL: %s\n", publicURL(t.Name))
			return nil
		},
	}

	flags.register(cmd)
	for _, name := range []string{"name", "display-name", "username"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newTenantUpdateCmd(a *app) *cobra.Command {
	var flags tenantFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a restaurant",
		Long:  "Update a restaurant. Only the given flags change; the password is kept unless --set-password is used.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			current, err := a.client.GetTenant(cmd.Context(), args[0])
			if err != nil {
				return apiFailure("load restaurant", err)
			}

			in := api.TenantInput{
				Name:        current.Name,
				DisplayName: current.DisplayName,
				Username:    current.Username,
				Email:       current.Email,
				Phone:       current.Phone,
				Address:     current.Address,
			}
			flags.apply(cmd, &in)

			if flags.setPassword {
				if in.Password, err = a.readPassword("New password"); err != nil {
					return err
				}
			}
			if err := in.Validate(true); err != nil {
				return err
			}

			t, err := a.client.UpdateTenant(cmd.Context(), current.ID, in)
			if err != nil {
				return apiFailure("update restaurant", err)
			}
			a.printf("Updated restaurant %s (%s)\n", t.DisplayName, t.ID)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.setPassword, "set-password", false, "prompt for a new password")
	return cmd
}

func newTenantDeleteCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a restaurant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			id := args[0]
			if !force && !a.confirm(fmt.Sprintf("Delete restaurant %s?", id)) {
				a.printf("Cancelled\n")
				return nil
			}
			if err := a.client.DeleteTenant(cmd.Context(), id); err != nil {
				return apiFailure("delete restaurant", err)
			}
			a.printf("Deleted restaurant %s\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")
	return cmd
}
