// Package api is the client for the armenu REST backend.
//
// It covers tenant (restaurant) administration, tenant login, 3D model
// listing and deletion, and the multipart model upload that the capture
// session submits. The backend owns persistence and reconstruction; this
// package only speaks its wire format.
//
// Every request carries the bearer token returned by TokenSource, so a token
// stored after login is attached without callers passing it around.
//
// Example usage:
//
//	client, err := api.New(api.Config{BaseURL: cfg.API.BaseURL}, tokens, log)
//	if err != nil {
//	    return err
//	}
//	models, err := client.ListModels(ctx, tenantID)
package api

import (
	"io"
	"time"
)

// Tenant is a restaurant account as stored by the backend.
type Tenant struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Address     string    `json:"address,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TenantInput is the payload for creating or updating a tenant.
type TenantInput struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Username    string `json:"username"`
	Password    string `json:"password,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token  string `json:"token"`
	Tenant Tenant `json:"restaurant"`
}

// Model is a reconstructed 3D asset belonging to a tenant.
type Model struct {
	ID          string    `json:"_id"`
	TenantID    string    `json:"restaurantId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	ModelURL    string    `json:"modelUrl,omitempty"`
	Status      string    `json:"status,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UploadRequest is one model submission: a recorded video plus metadata.
type UploadRequest struct {
	TenantID    string
	Name        string
	Description string
	Category    string

	// Video is read once. Size is optional and only used for logging.
	Video       io.Reader
	Size        int64
	Filename    string
	ContentType string
}

// TokenSource supplies the bearer token for each request.
// An empty token means the request is sent without Authorization.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token() (string, error) {
	return string(s), nil
}

// Config contains client configuration.
type Config struct {
	// BaseURL of the REST API, without trailing slash.
	BaseURL string

	// Timeout for regular requests.
	// Default: 15s
	Timeout time.Duration

	// UploadTimeout bounds a whole model upload.
	// Default: 10m
	UploadTimeout time.Duration

	// UserAgent sent with every request.
	// Default: "armenu"
	UserAgent string
}
