package migrate

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/torchfund/voteexec/src/coordinator/data"
	"github.com/torchfund/voteexec/src/coordinator/types"
	"github.com/torchfund/voteexec/src/shared/evm"
)

// Chain is the slice of the chain client the migrator needs.
type Chain interface {
	RegisterProposal(ctx context.Context, proposalID common.Hash, startTime, endTime int64, d types.CampaignFields) (string, error)
}

// Migrator moves a bounded batch of queued campaigns into the pending
// collection, registering each on-chain first. Registration failures
// keep the campaign queued for the next cycle.
type Migrator struct {
	store        data.Store
	chain        Chain
	batchSize    int
	startOffset  time.Duration
	votingWindow time.Duration
	now          func() time.Time
}

// Report is the aggregate outcome of one migration cycle. Failed lists
// proposal ids whose on-chain registration did not complete.
type Report struct {
	Moved  int
	Failed []string
}

func New(store data.Store, chain Chain, batchSize int, startOffset, votingWindow time.Duration) *Migrator {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Migrator{
		store:        store,
		chain:        chain,
		batchSize:    batchSize,
		startOffset:  startOffset,
		votingWindow: votingWindow,
		now:          time.Now,
	}
}

// MigrateBatch selects the oldest queued campaigns, registers each
// on-chain, and commits the registered subset as one atomic move.
// Per-campaign failures are isolated; only a store failure propagates.
func (m *Migrator) MigrateBatch(ctx context.Context) (Report, error) {
	queued, err := m.store.OldestQueued(ctx, m.batchSize)
	if err != nil {
		return Report{}, fmt.Errorf("select queue: %w", err)
	}
	if len(queued) == 0 {
		return Report{}, nil
	}

	now := m.now().UTC()
	startTime := now.Add(m.startOffset).Unix()
	endTime := now.Add(m.startOffset + m.votingWindow).Unix()

	var rep Report
	moves := make([]data.Move, 0, len(queued))
	for _, q := range queued {
		proposalID := common.HexToHash(q.ProposalID)
		_, err := m.chain.RegisterProposal(ctx, proposalID, startTime, endTime, q.CampaignFields)
		if err != nil {
			if !evm.IsAlreadyKnown(err) {
				log.Printf("migrate: registration failed for %s: %v", q.ProposalID, err)
				rep.Failed = append(rep.Failed, q.ProposalID)
				continue
			}
			// Registered in a previous cycle that failed before the
			// store commit; the chain side is already done.
			log.Printf("migrate: %s already registered on-chain", q.ProposalID)
		}
		moves = append(moves, data.Move{
			FromProposalID: q.ProposalID,
			Pending: types.PendingCampaign{
				ID:             uuid.NewString(),
				ProposalID:     q.ProposalID,
				CampaignFields: q.CampaignFields,
				Status:         types.StatusPending,
				Votes:          types.VoteSet{},
				QueuedAt:       q.CreatedAt,
				CreatedAt:      q.CreatedAt,
				UpdatedAt:      now,
			},
		})
	}

	if err := m.store.MoveToPending(ctx, moves); err != nil {
		return rep, fmt.Errorf("commit migration batch: %w", err)
	}
	rep.Moved = len(moves)
	if rep.Moved > 0 || len(rep.Failed) > 0 {
		log.Printf("migrate: moved %d campaign(s) to pending, %d registration failure(s)", rep.Moved, len(rep.Failed))
	}
	return rep, nil
}
