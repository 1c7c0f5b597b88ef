package api

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

var tenantNamePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidateTenantName checks that name can be used in a public URL.
func ValidateTenantName(name string) error {
	if !tenantNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidTenantName, name)
	}
	return nil
}

// Validate checks the fields required for creation. With update set the
// password may be left empty to keep the current one.
func (in TenantInput) Validate(update bool) error {
	required := []struct{ field, value string }{
		{"name", in.Name},
		{"displayName", in.DisplayName},
		{"username", in.Username},
	}
	if !update {
		required = append(required, struct{ field, value string }{"password", in.Password})
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, r.field)
		}
	}
	return ValidateTenantName(in.Name)
}

// ListTenants returns every tenant.
func (c *Client) ListTenants(ctx context.Context) ([]Tenant, error) {
	var tenants []Tenant
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("restaurants"), nil, &tenants); err != nil {
		return nil, err
	}
	return tenants, nil
}

// GetTenant returns the tenant with the given id.
func (c *Client) GetTenant(ctx context.Context, id string) (*Tenant, error) {
	var t Tenant
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("restaurants", id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTenantByName returns the tenant with the given public name.
func (c *Client) GetTenantByName(ctx context.Context, name string) (*Tenant, error) {
	var t Tenant
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("restaurants", "name", name), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTenant validates in and creates a tenant.
func (c *Client) CreateTenant(ctx context.Context, in TenantInput) (*Tenant, error) {
	if err := in.Validate(false); err != nil {
		return nil, err
	}
	var t Tenant
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("restaurants"), in, &t); err != nil {
		return nil, err
	}
	c.logger.Info("tenant created", "id", t.ID, "name", t.Name)
	return &t, nil
}

// UpdateTenant replaces the editable fields of tenant id.
func (c *Client) UpdateTenant(ctx context.Context, id string, in TenantInput) (*Tenant, error) {
	if err := in.Validate(true); err != nil {
		return nil, err
	}
	var t Tenant
	if err := c.doJSON(ctx, http.MethodPut, c.endpoint("restaurants", id), in, &t); err != nil {
		return nil, err
	}
	c.logger.Info("tenant updated", "id", id)
	return &t, nil
}

// DeleteTenant removes tenant id. Deleting a missing id returns an APIError
// for which IsNotFound is true.
func (c *Client) DeleteTenant(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, http.MethodDelete, c.endpoint("restaurants", id), nil, nil); err != nil {
		return err
	}
	c.logger.Info("tenant deleted", "id", id)
	return nil
}
