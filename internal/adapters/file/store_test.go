package file_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialgraph/callflow/internal/adapters/file"
	"github.com/dialgraph/callflow/pkg/domain"
	"github.com/dialgraph/callflow/pkg/ports/tests"
)

func TestFileStore_Contract(t *testing.T) {
	tests.SessionStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store := file.New(dir)
	session := domain.NewCallSession("call-restart", "campaign_002")
	session.Stage = "options"
	session.Data["current_rate"] = "5.5"
	require.NoError(t, store.Save(ctx, session.CallID, session))

	// A fresh store over the same directory simulates a process restart.
	reopened := file.New(dir)
	loaded, err := reopened.Load(ctx, "call-restart")
	require.NoError(t, err)
	assert.Equal(t, "options", loaded.Stage)
	assert.Equal(t, "5.5", loaded.Data["current_rate"])
}

func TestFileStore_List(t *testing.T) {
	ctx := context.Background()
	store := file.New(filepath.Join(t.TempDir(), "sessions"))

	calls, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, calls)

	require.NoError(t, store.Save(ctx, "a", domain.NewCallSession("a", "")))
	require.NoError(t, store.Save(ctx, "b", domain.NewCallSession("b", "")))

	calls, err = store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, calls)
}
