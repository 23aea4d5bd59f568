package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/torchfund/voteexec/src/coordinator/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Move stages one campaign's migration from the queue into the pending
// collection. The insert and the delete commit together.
type Move struct {
	FromProposalID string
	Pending        types.PendingCampaign
}

// Resolution stages one campaign's move from pending into its terminal
// collection. Passed selects active vs rejected.
type Resolution struct {
	PendingID string
	Passed    bool
	Campaign  types.ResolvedCampaign
}

// Store is the keyed document store consumed by every component. The
// production implementation is SQLStore; tests substitute MemoryStore.
type Store interface {
	InsertQueued(ctx context.Context, c *types.QueuedCampaign) error
	QueuedExists(ctx context.Context, proposalID string) (bool, error)
	ListQueued(ctx context.Context) ([]types.QueuedCampaign, error)
	OldestQueued(ctx context.Context, limit int) ([]types.QueuedCampaign, error)
	MoveToPending(ctx context.Context, moves []Move) error

	GetPending(ctx context.Context, id string) (*types.PendingCampaign, error)
	ListPending(ctx context.Context) ([]types.PendingCampaign, error)
	RecordVote(ctx context.Context, id, voter string, choice bool) error

	Resolve(ctx context.Context, resolutions []Resolution) error
	FlagError(ctx context.Context, id, msg string) error
	ClearError(ctx context.Context, id string) error
}

// SQLStore implements Store on MySQL through gorm. Collections map to
// one table each; atomic batches map to transactions.
type SQLStore struct {
	db *gorm.DB
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) InsertQueued(ctx context.Context, c *types.QueuedCampaign) error {
	err := s.db.WithContext(ctx).Create(c).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert queued: %w", err)
	}
	return nil
}

func (s *SQLStore) QueuedExists(ctx context.Context, proposalID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&types.QueuedCampaign{}).
		Where("proposal_id = ?", proposalID).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("queued exists: %w", err)
	}
	return n > 0, nil
}

func (s *SQLStore) ListQueued(ctx context.Context) ([]types.QueuedCampaign, error) {
	var out []types.QueuedCampaign
	err := s.db.WithContext(ctx).Order("created_at").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list queued: %w", err)
	}
	return out, nil
}

func (s *SQLStore) OldestQueued(ctx context.Context, limit int) ([]types.QueuedCampaign, error) {
	var out []types.QueuedCampaign
	err := s.db.WithContext(ctx).Order("created_at").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("oldest queued: %w", err)
	}
	return out, nil
}

func (s *SQLStore) MoveToPending(ctx context.Context, moves []Move) error {
	if len(moves) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range moves {
			if err := tx.Create(&moves[i].Pending).Error; err != nil {
				return fmt.Errorf("create pending %s: %w", moves[i].Pending.ProposalID, err)
			}
			res := tx.Delete(&types.QueuedCampaign{}, "proposal_id = ?", moves[i].FromProposalID)
			if res.Error != nil {
				return fmt.Errorf("delete queued %s: %w", moves[i].FromProposalID, res.Error)
			}
		}
		return nil
	})
}

func (s *SQLStore) GetPending(ctx context.Context, id string) (*types.PendingCampaign, error) {
	var pc types.PendingCampaign
	err := s.db.WithContext(ctx).First(&pc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pending: %w", err)
	}
	return &pc, nil
}

// ListPending returns campaigns still awaiting resolution. Rows flagged
// error are excluded until an operator clears them.
func (s *SQLStore) ListPending(ctx context.Context) ([]types.PendingCampaign, error) {
	var out []types.PendingCampaign
	err := s.db.WithContext(ctx).Where("status = ?", types.StatusPending).
		Order("created_at").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	return out, nil
}

// RecordVote sets votes[voter] = choice under a row lock. Last write per
// voter wins; re-voting overwrites the prior choice.
func (s *SQLStore) RecordVote(ctx context.Context, id, voter string, choice bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pc types.PendingCampaign
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&pc, "id = ? AND status = ?", id, types.StatusPending).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("record vote: %w", err)
		}
		if pc.Votes == nil {
			pc.Votes = types.VoteSet{}
		}
		pc.Votes[voter] = choice
		pc.UpdatedAt = time.Now().UTC()
		return tx.Save(&pc).Error
	})
}

func (s *SQLStore) Resolve(ctx context.Context, resolutions []Resolution) error {
	if len(resolutions) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range resolutions {
			r := &resolutions[i]
			if r.Passed {
				if err := tx.Create(&types.ActiveCampaign{ResolvedCampaign: r.Campaign}).Error; err != nil {
					return fmt.Errorf("create active %s: %w", r.Campaign.ProposalID, err)
				}
			} else {
				if err := tx.Create(&types.RejectedCampaign{ResolvedCampaign: r.Campaign}).Error; err != nil {
					return fmt.Errorf("create rejected %s: %w", r.Campaign.ProposalID, err)
				}
			}
			if err := tx.Delete(&types.PendingCampaign{}, "id = ?", r.PendingID).Error; err != nil {
				return fmt.Errorf("delete pending %s: %w", r.PendingID, err)
			}
		}
		return nil
	})
}

// FlagError marks a pending campaign for operator review. Committed
// individually so one campaign's fault does not block the cycle batch.
func (s *SQLStore) FlagError(ctx context.Context, id, msg string) error {
	res := s.db.WithContext(ctx).Model(&types.PendingCampaign{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     types.StatusError,
			"error":      msg,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("flag error: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearError puts a flagged campaign back under automatic resolution.
func (s *SQLStore) ClearError(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&types.PendingCampaign{}).
		Where("id = ? AND status = ?", id, types.StatusError).
		Updates(map[string]interface{}{
			"status":     types.StatusPending,
			"error":      "",
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("clear error: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
