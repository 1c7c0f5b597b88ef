package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/0xmhha/armenu-panel/pkg/logger"
)

// Bucket names.
var (
	bucketAuth     = []byte("auth")      // "current" -> AuthState
	bucketCaptures = []byte("captures")  // capture id -> CaptureRecord
	bucketByTenant = []byte("by_tenant") // tenantID/captureID -> nil (index)

	keyCurrent = []byte("current")
)

type boltStore struct {
	db     *bolt.DB
	logger logger.Logger
}

// New opens (creating if needed) the state database.
//
// Parameters:
//   - cfg: Store configuration
//   - log: Logger instance
//
// Returns:
//   - Store backed by BoltDB
//   - Error if the database cannot be opened
func New(cfg Config, log logger.Logger) (Store, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}

	path := expandHome(cfg.Path)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: cfg.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketAuth, bucketCaptures, bucketByTenant} {
			if _, createErr := tx.CreateBucketIfNotExists(name); createErr != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, createErr)
			}
		}
		return nil
	}); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database after initialization error", "error", closeErr)
		}
		return nil, err
	}

	log.Debug("state store opened", "path", path)

	return &boltStore{db: db, logger: log}, nil
}

// SaveAuth implements Store.SaveAuth.
func (s *boltStore) SaveAuth(state *AuthState) error {
	if state == nil || state.Token == "" {
		return ErrInvalidAuth
	}
	if state.LoggedInAt.IsZero() {
		state.LoggedInAt = time.Now()
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal auth state: %w", err)
	}

	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAuth).Put(keyCurrent, data)
	}); err != nil {
		return fmt.Errorf("failed to store auth state: %w", err)
	}

	s.logger.Info("auth state saved", "tenant", state.Tenant.Name)
	return nil
}

// LoadAuth implements Store.LoadAuth.
func (s *boltStore) LoadAuth() (*AuthState, error) {
	var state AuthState
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketAuth).Get(keyCurrent)
		if data == nil {
			return ErrNotLoggedIn
		}
		if err := json.Unmarshal(data, &state); err != nil {
			return fmt.Errorf("failed to unmarshal auth state: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// ClearAuth implements Store.ClearAuth.
func (s *boltStore) ClearAuth() error {
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAuth).Delete(keyCurrent)
	}); err != nil {
		return fmt.Errorf("failed to clear auth state: %w", err)
	}
	s.logger.Info("auth state cleared")
	return nil
}

// Token implements Store.Token.
func (s *boltStore) Token() (string, error) {
	state, err := s.LoadAuth()
	if errors.Is(err, ErrNotLoggedIn) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return state.Token, nil
}

// RecordCapture implements Store.RecordCapture.
func (s *boltStore) RecordCapture(rec *CaptureRecord) error {
	if rec == nil || rec.TenantID == "" {
		return ErrInvalidRecord
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	} else if _, err := uuid.Parse(rec.ID); err != nil {
		return ErrInvalidID
	}
	if rec.UploadedAt.IsZero() {
		rec.UploadedAt = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal capture: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketCaptures).Put([]byte(rec.ID), data); err != nil {
			return fmt.Errorf("failed to store capture: %w", err)
		}
		if err := tx.Bucket(bucketByTenant).Put(tenantKey(rec.TenantID, rec.ID), nil); err != nil {
			return fmt.Errorf("failed to store tenant index: %w", err)
		}

		s.logger.Debug("capture recorded", "id", rec.ID, "tenant", rec.TenantID, "model", rec.ModelID)
		return nil
	})
}

// ListCaptures implements Store.ListCaptures.
func (s *boltStore) ListCaptures(tenantID string) ([]*CaptureRecord, error) {
	var records []*CaptureRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		captures := tx.Bucket(bucketCaptures)

		decode := func(data []byte) error {
			var rec CaptureRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				return fmt.Errorf("failed to unmarshal capture: %w", err)
			}
			records = append(records, &rec)
			return nil
		}

		if tenantID == "" {
			return captures.ForEach(func(_, v []byte) error { return decode(v) })
		}

		prefix := tenantKey(tenantID, "")
		c := tx.Bucket(bucketByTenant).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			id := k[len(prefix):]
			if data := captures.Get(id); data != nil {
				if err := decode(data); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].UploadedAt.After(records[j].UploadedAt)
	})
	return records, nil
}

// DeleteCapture implements Store.DeleteCapture.
func (s *boltStore) DeleteCapture(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		captures := tx.Bucket(bucketCaptures)
		data := captures.Get([]byte(id))
		if data == nil {
			return ErrCaptureNotFound
		}

		var rec CaptureRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("failed to unmarshal capture: %w", err)
		}
		if err := tx.Bucket(bucketByTenant).Delete(tenantKey(rec.TenantID, id)); err != nil {
			return fmt.Errorf("failed to delete tenant index: %w", err)
		}
		return captures.Delete([]byte(id))
	})
}

// Close implements Store.Close.
func (s *boltStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close state database: %w", err)
	}
	return nil
}

// tenantKey builds "<tenant>\x00<capture>" index keys.
func tenantKey(tenantID, captureID string) []byte {
	return []byte(tenantID + "\x00" + captureID)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
