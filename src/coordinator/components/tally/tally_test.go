package tally

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torchfund/voteexec/src/coordinator/data"
	"github.com/torchfund/voteexec/src/coordinator/types"
)

func seedPending(t *testing.T, store *data.MemoryStore, id string) {
	t.Helper()
	now := time.Now().UTC()
	err := store.MoveToPending(context.Background(), []data.Move{{
		FromProposalID: "0xaaa",
		Pending: types.PendingCampaign{
			ID:         id,
			ProposalID: "0xaaa",
			Status:     types.StatusPending,
			Votes:      types.VoteSet{},
			QueuedAt:   now,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}})
	require.NoError(t, err)
}

func TestRecordVoteUnknownCampaign(t *testing.T) {
	svc := New(data.NewMemoryStore())
	err := svc.RecordVote(context.Background(), "missing", "0xA0B86991c6218b36c1d19D4a2e9Eb0cE3606eB48", true)
	assert.ErrorIs(t, err, data.ErrNotFound)
}

func TestRevoteOverwritesPriorChoice(t *testing.T) {
	store := data.NewMemoryStore()
	seedPending(t, store, "c1")
	svc := New(store)
	voter := "0xA0B86991c6218b36c1d19D4a2e9Eb0cE3606eB48"

	require.NoError(t, svc.RecordVote(context.Background(), "c1", voter, true))
	require.NoError(t, svc.RecordVote(context.Background(), "c1", voter, false))

	res, err := svc.Tally(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, Result{TotalVoters: 1, Approve: 0, Reject: 1}, res)
}

func TestVoterKeyIsCaseInsensitive(t *testing.T) {
	store := data.NewMemoryStore()
	seedPending(t, store, "c1")
	svc := New(store)

	require.NoError(t, svc.RecordVote(context.Background(), "c1", "0xA0B86991c6218b36c1d19D4a2e9Eb0cE3606eB48", true))
	require.NoError(t, svc.RecordVote(context.Background(), "c1", "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", false))

	res, err := svc.Tally(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalVoters, "same voter in different casing counts once")
}

func TestTallyIsPure(t *testing.T) {
	store := data.NewMemoryStore()
	seedPending(t, store, "c1")
	svc := New(store)

	require.NoError(t, svc.RecordVote(context.Background(), "c1", "0xA0B86991c6218b36c1d19D4a2e9Eb0cE3606eB48", true))
	require.NoError(t, svc.RecordVote(context.Background(), "c1", "0xdAC17F958D2ee523a2206206994597C13D831ec7", false))

	first, err := svc.Tally(context.Background(), "c1")
	require.NoError(t, err)
	second, err := svc.Tally(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, Result{TotalVoters: 2, Approve: 1, Reject: 1}, first)
}
