package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/armenu-panel/pkg/api"
	"github.com/0xmhha/armenu-panel/pkg/logger"
)

func setupTestStore(t *testing.T) (Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	st, err := New(Config{Path: path}, logger.Noop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st, path
}

func TestNewCreatesFile(t *testing.T) {
	_, path := setupTestStore(t)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestAuthLifecycle(t *testing.T) {
	st, _ := setupTestStore(t)

	_, err := st.LoadAuth()
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	tok, err := st.Token()
	require.NoError(t, err)
	assert.Empty(t, tok, "logged out token is empty")

	require.NoError(t, st.SaveAuth(&AuthState{
		Token:    "tok-1",
		Tenant:   api.Tenant{ID: "t1", Name: "kebapci", DisplayName: "Kebapçı"},
		Username: "ali",
	}))

	state, err := st.LoadAuth()
	require.NoError(t, err)
	assert.Equal(t, "kebapci", state.Tenant.Name)
	assert.Equal(t, "ali", state.Username)
	assert.False(t, state.LoggedInAt.IsZero())

	tok, err = st.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	require.NoError(t, st.ClearAuth())
	_, err = st.LoadAuth()
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	assert.NoError(t, st.ClearAuth(), "clearing twice is fine")
}

func TestSaveAuthRequiresToken(t *testing.T) {
	st, _ := setupTestStore(t)
	assert.ErrorIs(t, st.SaveAuth(nil), ErrInvalidAuth)
	assert.ErrorIs(t, st.SaveAuth(&AuthState{}), ErrInvalidAuth)
}

func TestAuthSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	st, err := New(Config{Path: path}, logger.Noop())
	require.NoError(t, err)
	require.NoError(t, st.SaveAuth(&AuthState{Token: "persisted"}))
	require.NoError(t, st.Close())

	st, err = New(Config{Path: path}, logger.Noop())
	require.NoError(t, err)
	defer st.Close()

	tok, err := st.Token()
	require.NoError(t, err)
	assert.Equal(t, "persisted", tok)
}

func TestCaptureHistory(t *testing.T) {
	st, _ := setupTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	records := []*CaptureRecord{
		{TenantID: "t1", ModelID: "m1", Name: "Adana", UploadedAt: base},
		{TenantID: "t1", ModelID: "m2", Name: "Urfa", UploadedAt: base.Add(time.Hour)},
		{TenantID: "t2", ModelID: "m3", Name: "Baklava", UploadedAt: base.Add(2 * time.Hour)},
	}
	for _, r := range records {
		require.NoError(t, st.RecordCapture(r))
		_, err := uuid.Parse(r.ID)
		require.NoError(t, err, "generated id is a uuid")
	}

	t1, err := st.ListCaptures("t1")
	require.NoError(t, err)
	require.Len(t, t1, 2)
	assert.Equal(t, "Urfa", t1[0].Name, "newest first")
	assert.Equal(t, "Adana", t1[1].Name)

	all, err := st.ListCaptures("")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "Baklava", all[0].Name)

	require.NoError(t, st.DeleteCapture(records[0].ID))
	t1, err = st.ListCaptures("t1")
	require.NoError(t, err)
	require.Len(t, t1, 1)
	assert.Equal(t, "Urfa", t1[0].Name)

	assert.ErrorIs(t, st.DeleteCapture(records[0].ID), ErrCaptureNotFound)
}

func TestTenantPrefixIsolation(t *testing.T) {
	st, _ := setupTestStore(t)

	require.NoError(t, st.RecordCapture(&CaptureRecord{TenantID: "t1", Name: "a"}))
	require.NoError(t, st.RecordCapture(&CaptureRecord{TenantID: "t10", Name: "b"}))

	list, err := st.ListCaptures("t1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].Name)
}

func TestRecordCaptureValidation(t *testing.T) {
	st, _ := setupTestStore(t)

	assert.ErrorIs(t, st.RecordCapture(nil), ErrInvalidRecord)
	assert.ErrorIs(t, st.RecordCapture(&CaptureRecord{}), ErrInvalidRecord)
	assert.ErrorIs(t, st.RecordCapture(&CaptureRecord{ID: "not-a-uuid", TenantID: "t1"}), ErrInvalidID)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	assert.Equal(t, filepath.Join(home, ".config", "armenu", "state.db"), expandHome("~/.config/armenu/state.db"))
	assert.Equal(t, "/abs/state.db", expandHome("/abs/state.db"))
}
