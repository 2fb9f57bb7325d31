package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialgraph/callflow/pkg/domain"
	"github.com/dialgraph/callflow/pkg/ports"
)

// SessionStoreContract is a reusable test suite that verifies an adapter
// complies with ports.SessionStore.
func SessionStoreContract(t *testing.T, store ports.SessionStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := store.Load(ctx, "no-such-call")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Save_Load_Roundtrip", func(t *testing.T) {
		session := domain.NewCallSession("call-contract", "campaign_001")
		session.Data["bedrooms"] = "3"
		session.PreviousStages = append(session.PreviousStages, domain.StageGreeting)
		session.Stage = "timeframe"

		require.NoError(t, store.Save(ctx, session.CallID, session))

		loaded, err := store.Load(ctx, session.CallID)
		require.NoError(t, err)
		assert.Equal(t, "timeframe", loaded.Stage)
		assert.Equal(t, "3", loaded.Data["bedrooms"])
		assert.Equal(t, []string{domain.StageGreeting}, loaded.PreviousStages)
		assert.Equal(t, "campaign_001", loaded.CampaignID)
	})

	t.Run("Save_Overwrites", func(t *testing.T) {
		first := domain.NewCallSession("call-overwrite", "")
		require.NoError(t, store.Save(ctx, first.CallID, first))

		second := domain.NewCallSession("call-overwrite", "")
		second.Stage = "estimate"
		require.NoError(t, store.Save(ctx, second.CallID, second))

		loaded, err := store.Load(ctx, "call-overwrite")
		require.NoError(t, err)
		assert.Equal(t, "estimate", loaded.Stage)
	})

	t.Run("Delete", func(t *testing.T) {
		session := domain.NewCallSession("call-delete", "")
		require.NoError(t, store.Save(ctx, session.CallID, session))
		require.NoError(t, store.Delete(ctx, session.CallID))

		_, err := store.Load(ctx, session.CallID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete_Missing_IsNoop", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "never-existed"))
	})
}
