package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/torchfund/voteexec/src/coordinator/data"
	"github.com/torchfund/voteexec/src/coordinator/types"
	"github.com/torchfund/voteexec/src/shared/evm"
)

// Gate admits new campaigns into the queue. Submission is idempotent:
// the proposal id derived from (owner, title) is the queue's primary
// key, so a concurrent duplicate fails at the store even when both
// requests pass the pre-check.
type Gate struct {
	store  data.Store
	policy *bluemonday.Policy
	now    func() time.Time
}

// Ack reports the derived proposal id of an admitted campaign.
type Ack struct {
	ProposalID string `json:"proposalId"`
}

func New(store data.Store) *Gate {
	return &Gate{
		store:  store,
		policy: bluemonday.StrictPolicy(),
		now:    time.Now,
	}
}

// Submit sanitizes the payload, derives the proposal id, and inserts a
// queued record. Returns data.ErrDuplicate when the same proposal is
// already queued. No on-chain interaction happens here; registration is
// deferred until the campaign is actually scheduled.
func (g *Gate) Submit(ctx context.Context, payload types.CampaignFields) (Ack, error) {
	payload.Title = strings.TrimSpace(g.policy.Sanitize(payload.Title))
	payload.Description = strings.TrimSpace(g.policy.Sanitize(payload.Description))

	proposalID := evm.ProposalID(payload.Owner, payload.Title).Hex()
	ack := Ack{ProposalID: proposalID}

	exists, err := g.store.QueuedExists(ctx, proposalID)
	if err != nil {
		return ack, fmt.Errorf("queue lookup: %w", err)
	}
	if exists {
		return ack, data.ErrDuplicate
	}

	now := g.now().UTC()
	campaign := types.QueuedCampaign{
		ProposalID:     proposalID,
		CampaignFields: payload,
		Status:         types.StatusQueued,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := g.store.InsertQueued(ctx, &campaign); err != nil {
		return ack, err
	}
	return ack, nil
}
