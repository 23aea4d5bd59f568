package data

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/torchfund/voteexec/src/coordinator/types"
)

// MemoryStore implements Store with in-process maps. Used by tests and
// by local development without a MySQL instance.
type MemoryStore struct {
	mu sync.RWMutex

	queued   map[string]types.QueuedCampaign   // by proposal id
	pending  map[string]types.PendingCampaign  // by store id
	active   map[string]types.ResolvedCampaign // by store id
	rejected map[string]types.ResolvedCampaign // by store id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		queued:   make(map[string]types.QueuedCampaign),
		pending:  make(map[string]types.PendingCampaign),
		active:   make(map[string]types.ResolvedCampaign),
		rejected: make(map[string]types.ResolvedCampaign),
	}
}

func (s *MemoryStore) InsertQueued(_ context.Context, c *types.QueuedCampaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.queued[c.ProposalID]; exists {
		return ErrDuplicate
	}
	s.queued[c.ProposalID] = *c
	return nil
}

func (s *MemoryStore) QueuedExists(_ context.Context, proposalID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.queued[proposalID]
	return exists, nil
}

func (s *MemoryStore) ListQueued(_ context.Context) ([]types.QueuedCampaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedQueued(), nil
}

func (s *MemoryStore) OldestQueued(_ context.Context, limit int) ([]types.QueuedCampaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.sortedQueued()
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) sortedQueued() []types.QueuedCampaign {
	out := make([]types.QueuedCampaign, 0, len(s.queued))
	for _, c := range s.queued {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *MemoryStore) MoveToPending(_ context.Context, moves []Move) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, mv := range moves {
		s.pending[mv.Pending.ID] = mv.Pending
		delete(s.queued, mv.FromProposalID)
	}
	return nil
}

func (s *MemoryStore) GetPending(_ context.Context, id string) (*types.PendingCampaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pc, exists := s.pending[id]
	if !exists {
		return nil, ErrNotFound
	}
	return &pc, nil
}

func (s *MemoryStore) ListPending(_ context.Context) ([]types.PendingCampaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.PendingCampaign, 0, len(s.pending))
	for _, pc := range s.pending {
		if pc.Status == types.StatusPending {
			out = append(out, pc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) RecordVote(_ context.Context, id, voter string, choice bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pc, exists := s.pending[id]
	if !exists || pc.Status != types.StatusPending {
		return ErrNotFound
	}
	if pc.Votes == nil {
		pc.Votes = types.VoteSet{}
	}
	pc.Votes[voter] = choice
	pc.UpdatedAt = time.Now().UTC()
	s.pending[id] = pc
	return nil
}

func (s *MemoryStore) Resolve(_ context.Context, resolutions []Resolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range resolutions {
		if r.Passed {
			s.active[r.Campaign.ID] = r.Campaign
		} else {
			s.rejected[r.Campaign.ID] = r.Campaign
		}
		delete(s.pending, r.PendingID)
	}
	return nil
}

func (s *MemoryStore) FlagError(_ context.Context, id, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pc, exists := s.pending[id]
	if !exists {
		return ErrNotFound
	}
	pc.Status = types.StatusError
	pc.Error = msg
	pc.UpdatedAt = time.Now().UTC()
	s.pending[id] = pc
	return nil
}

func (s *MemoryStore) ClearError(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pc, exists := s.pending[id]
	if !exists || pc.Status != types.StatusError {
		return ErrNotFound
	}
	pc.Status = types.StatusPending
	pc.Error = ""
	pc.UpdatedAt = time.Now().UTC()
	s.pending[id] = pc
	return nil
}

// Active and Rejected expose the terminal collections for listings and
// tests.
func (s *MemoryStore) Active() []types.ResolvedCampaign {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.ResolvedCampaign, 0, len(s.active))
	for _, c := range s.active {
		out = append(out, c)
	}
	return out
}

func (s *MemoryStore) Rejected() []types.ResolvedCampaign {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.ResolvedCampaign, 0, len(s.rejected))
	for _, c := range s.rejected {
		out = append(out, c)
	}
	return out
}
