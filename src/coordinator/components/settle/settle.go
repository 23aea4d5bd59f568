package settle

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/torchfund/voteexec/src/coordinator/data"
	"github.com/torchfund/voteexec/src/coordinator/types"
	"github.com/torchfund/voteexec/src/shared/evm"
)

// Chain is the slice of the chain client the coordinator needs.
type Chain interface {
	GetVoteResult(ctx context.Context, proposalID common.Hash) (bool, error)
	ExecuteResult(ctx context.Context, proposalID common.Hash, passed bool, resultHash common.Hash, signatures [][]byte) (string, error)
}

// Quorum produces the validator signature set over a result digest.
type Quorum interface {
	Collect(digest common.Hash) ([][]byte, error)
}

// Coordinator settles pending campaigns: it reads the authoritative
// on-chain result, collects quorum signatures over the canonical
// digest, submits execution, and routes each campaign to its terminal
// collection.
type Coordinator struct {
	store      data.Store
	chain      Chain
	quorum     Quorum
	resultHash common.Hash
	now        func() time.Time
}

// Report is the aggregate outcome of one resolution cycle. Skipped
// campaigns stay pending and are retried next cycle.
type Report struct {
	Active   int
	Rejected int
	Errored  int
	Skipped  int
}

func New(store data.Store, chain Chain, quorum Quorum, resultHash common.Hash) *Coordinator {
	return &Coordinator{
		store:      store,
		chain:      chain,
		quorum:     quorum,
		resultHash: resultHash,
		now:        time.Now,
	}
}

// ResolvePending drives one settlement cycle. Campaigns resolved this
// cycle commit as one atomic batch; an execution failure flags the
// campaign individually so it cannot block the others. A quorum or
// result-query failure leaves the campaign pending without a flag:
// error is reserved for on-chain execution faults, whose signatures are
// bound to a digest and must not be silently retried.
func (c *Coordinator) ResolvePending(ctx context.Context) (Report, error) {
	pendings, err := c.store.ListPending(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("select pending: %w", err)
	}
	if len(pendings) == 0 {
		return Report{}, nil
	}

	var rep Report
	staged := make([]data.Resolution, 0, len(pendings))
	for i := range pendings {
		p := &pendings[i]
		proposalID := common.HexToHash(p.ProposalID)

		passed, err := c.chain.GetVoteResult(ctx, proposalID)
		if err != nil {
			log.Printf("settle: vote result unavailable for %s, retrying next cycle: %v", p.ProposalID, err)
			rep.Skipped++
			continue
		}

		digest := evm.ResultDigest(proposalID, c.resultHash)
		signatures, err := c.quorum.Collect(digest)
		if err != nil {
			log.Printf("settle: %v for %s, retrying next cycle", err, p.ProposalID)
			rep.Skipped++
			continue
		}

		if _, err := c.chain.ExecuteResult(ctx, proposalID, passed, c.resultHash, signatures); err != nil {
			if !evm.IsAlreadyKnown(err) {
				c.flag(ctx, p.ID, p.ProposalID, err)
				rep.Errored++
				continue
			}
			// Executed in a previous cycle that failed before the
			// store commit; the chain state is final.
			log.Printf("settle: %s already executed on-chain", p.ProposalID)
		}

		now := c.now().UTC()
		status := types.StatusRejected
		if passed {
			status = types.StatusActive
		}
		staged = append(staged, data.Resolution{
			PendingID: p.ID,
			Passed:    passed,
			Campaign: types.ResolvedCampaign{
				ID:             p.ID,
				ProposalID:     p.ProposalID,
				CampaignFields: p.CampaignFields,
				Status:         status,
				VotePassed:     passed,
				Votes:          p.Votes,
				QueuedAt:       p.QueuedAt,
				ResolvedAt:     now,
				CreatedAt:      p.CreatedAt,
				UpdatedAt:      now,
			},
		})
		if passed {
			rep.Active++
		} else {
			rep.Rejected++
		}
	}

	if err := c.store.Resolve(ctx, staged); err != nil {
		return rep, fmt.Errorf("commit resolution batch: %w", err)
	}
	if rep != (Report{}) {
		log.Printf("settle: %d active, %d rejected, %d errored, %d skipped", rep.Active, rep.Rejected, rep.Errored, rep.Skipped)
	}
	return rep, nil
}

// flag commits the error individually, outside the cycle batch.
func (c *Coordinator) flag(ctx context.Context, id, proposalID string, cause error) {
	log.Printf("settle: execution failed for %s, flagging for operator review: %v", proposalID, cause)
	if err := c.store.FlagError(ctx, id, cause.Error()); err != nil {
		log.Printf("settle: flagging %s failed: %v", proposalID, err)
	}
}
