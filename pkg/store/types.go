// Package store persists armenu client state in a BoltDB file.
//
// Two kinds of data live here:
//   - the authenticated tenant and its bearer token, written at login and
//     removed at logout
//   - a local history of captures that were uploaded from this machine
//
// Example usage:
//
//	st, err := store.New(store.Config{Path: cfg.Storage.StatePath}, log)
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	client, _ := api.New(apiCfg, st, log) // st is the TokenSource
package store

import (
	"time"

	"github.com/0xmhha/armenu-panel/pkg/api"
)

// Store provides access to persisted client state.
type Store interface {
	// SaveAuth stores the current login, replacing any previous one.
	SaveAuth(state *AuthState) error

	// LoadAuth returns the current login or ErrNotLoggedIn.
	LoadAuth() (*AuthState, error)

	// ClearAuth removes the current login. Clearing when logged out is not an error.
	ClearAuth() error

	// Token returns the stored bearer token, or "" when logged out.
	// It satisfies api.TokenSource.
	Token() (string, error)

	// RecordCapture appends an uploaded capture to the history.
	// An empty ID is filled with a new UUID.
	RecordCapture(rec *CaptureRecord) error

	// ListCaptures returns the history for tenantID, newest first.
	// An empty tenantID lists every tenant.
	ListCaptures(tenantID string) ([]*CaptureRecord, error)

	// DeleteCapture removes one history entry.
	DeleteCapture(id string) error

	// Close closes the database.
	Close() error
}

// AuthState is the persisted login.
type AuthState struct {
	Token      string     `json:"token"`
	Tenant     api.Tenant `json:"tenant"`
	Username   string     `json:"username"`
	BaseURL    string     `json:"base_url"`
	LoggedInAt time.Time  `json:"logged_in_at"`
}

// CaptureRecord is one uploaded capture.
type CaptureRecord struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"session_id"`
	TenantID        string    `json:"tenant_id"`
	ModelID         string    `json:"model_id"`
	Name            string    `json:"name"`
	Category        string    `json:"category,omitempty"`
	DurationSeconds int       `json:"duration_seconds"`
	SizeBytes       int64     `json:"size_bytes"`
	UploadedAt      time.Time `json:"uploaded_at"`
}

// Config contains store configuration.
type Config struct {
	// Path to the BoltDB file. A leading ~ is expanded.
	Path string

	// Timeout for acquiring the file lock.
	// Default: 1s
	Timeout time.Duration
}
