package tally

import (
	"context"
	"strings"

	"github.com/torchfund/voteexec/src/coordinator/data"
)

// Service records per-voter choices on pending campaigns and computes
// aggregate counts. The tally is advisory only: settlement reads the
// authoritative result from the chain, never from here.
type Service struct {
	store data.Store
}

// Result aggregates the votes map of one campaign.
type Result struct {
	TotalVoters int `json:"totalVoters"`
	Approve     int `json:"approve"`
	Reject      int `json:"reject"`
}

func New(store data.Store) *Service {
	return &Service{store: store}
}

// RecordVote sets the voter's choice on a pending campaign. Re-voting
// before resolution overwrites the prior choice: last write per voter
// wins. Returns data.ErrNotFound when the campaign does not exist or is
// no longer pending.
func (s *Service) RecordVote(ctx context.Context, campaignID, voter string, choice bool) error {
	return s.store.RecordVote(ctx, campaignID, strings.ToLower(voter), choice)
}

// Tally computes the aggregate counts from the stored votes map. Pure
// read; calling it twice without an intervening RecordVote yields the
// same result.
func (s *Service) Tally(ctx context.Context, campaignID string) (Result, error) {
	campaign, err := s.store.GetPending(ctx, campaignID)
	if err != nil {
		return Result{}, err
	}
	var res Result
	for _, choice := range campaign.Votes {
		if choice {
			res.Approve++
		} else {
			res.Reject++
		}
	}
	res.TotalVoters = len(campaign.Votes)
	return res, nil
}
