// Package repository implements the persistence contracts the core services
// consume — Jackpots, Contributions, Rewards — backed by Postgres via GORM.
// ConfigEntries has no repository of its own: it is a read-only set reached
// through the JackpotConfig graph JackpotRepository preloads. Every
// repository exposes WithTx so a service can compose several repositories
// inside one *gorm.DB transaction.
package repository

import (
	"context"
	"errors"

	"github.com/Asvarisch/Jackpot/pkg/jackpot/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrVersionConflict is returned by JackpotRepository.Save when the row's
// version no longer matches the caller's observed version — another writer
// committed first.
var ErrVersionConflict = errors.New("jackpot: optimistic lock version conflict")

// ErrDuplicateBetID is returned by ContributionRepository.Create when the
// unique constraint on bet_id fires.
var ErrDuplicateBetID = errors.New("jackpot: duplicate bet id")

// ErrDuplicateReward is returned by RewardRepository.Create when the unique
// constraint on bet_id or (jackpot_id, cycle_at_win) fires.
var ErrDuplicateReward = errors.New("jackpot: duplicate reward")

// JackpotRepository is the Jackpots persistence contract from the external
// interfaces section: eager config load, pessimistic row lock, and an
// optimistic-locked save.
type JackpotRepository struct {
	db *gorm.DB
}

func NewJackpotRepository(db *gorm.DB) *JackpotRepository {
	return &JackpotRepository{db: db}
}

// WithTx returns a repository bound to the given transaction. Passing nil
// returns the receiver unchanged, so callers can compose repositories both
// inside and outside an open transaction with the same code path.
func (r *JackpotRepository) WithTx(tx *gorm.DB) *JackpotRepository {
	if tx == nil {
		return r
	}
	return &JackpotRepository{db: tx}
}

// FindByIDWithConfig loads the jackpot with its config and entries available
// without further fetches. Returns (nil, nil) when absent.
func (r *JackpotRepository) FindByIDWithConfig(ctx context.Context, jackpotID int64) (*model.Jackpot, error) {
	var jp model.Jackpot
	err := r.db.WithContext(ctx).
		Preload("Config").
		Preload("Config.Entries").
		First(&jp, "jackpot_id = ?", jackpotID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &jp, nil
}

// FindByIDForUpdate acquires a pessimistic write lock on the jackpot row.
// Must be called inside an open transaction for the lock to hold.
func (r *JackpotRepository) FindByIDForUpdate(ctx context.Context, jackpotID int64) (*model.Jackpot, error) {
	var jp model.Jackpot
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&jp, "jackpot_id = ?", jackpotID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &jp, nil
}

// Save persists jp with optimistic concurrency keyed on Version: the update
// is conditioned on the row still carrying the version the caller observed,
// and the in-memory Version is bumped to match on success. A conflicting
// concurrent writer causes RowsAffected == 0, reported as ErrVersionConflict.
func (r *JackpotRepository) Save(ctx context.Context, jp *model.Jackpot) error {
	observedVersion := jp.Version
	result := r.db.WithContext(ctx).
		Model(&model.Jackpot{}).
		Where("jackpot_id = ? AND version = ?", jp.JackpotID, observedVersion).
		Updates(map[string]interface{}{
			"current_amount": jp.CurrentAmount,
			"cycle":          jp.Cycle,
			"version":        observedVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	jp.Version = observedVersion + 1
	return nil
}

// ContributionRepository is the Contributions persistence contract.
type ContributionRepository struct {
	db *gorm.DB
}

func NewContributionRepository(db *gorm.DB) *ContributionRepository {
	return &ContributionRepository{db: db}
}

func (r *ContributionRepository) WithTx(tx *gorm.DB) *ContributionRepository {
	if tx == nil {
		return r
	}
	return &ContributionRepository{db: tx}
}

// FindByBetID returns the contribution for betID, or (nil, nil) if absent.
func (r *ContributionRepository) FindByBetID(ctx context.Context, betID int64) (*model.Contribution, error) {
	var c model.Contribution
	err := r.db.WithContext(ctx).First(&c, "bet_id = ?", betID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new contribution, enforcing the unique constraint on
// bet_id at the storage layer. A concurrent duplicate insert is reported as
// ErrDuplicateBetID so the caller can re-read and recover idempotently.
func (r *ContributionRepository) Create(ctx context.Context, c *model.Contribution) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateBetID
		}
		return err
	}
	return nil
}

// MarkEvaluated flips the evaluated flag (and, on a win, the winning flag)
// for a contribution. Both transitions are one-way.
func (r *ContributionRepository) MarkEvaluated(ctx context.Context, contributionID int64, winning bool) error {
	updates := map[string]interface{}{"evaluated": true}
	if winning {
		updates["winning"] = true
	}
	return r.db.WithContext(ctx).
		Model(&model.Contribution{}).
		Where("contribution_id = ?", contributionID).
		Updates(updates).Error
}

// RewardRepository is the Rewards persistence contract.
type RewardRepository struct {
	db *gorm.DB
}

func NewRewardRepository(db *gorm.DB) *RewardRepository {
	return &RewardRepository{db: db}
}

func (r *RewardRepository) WithTx(tx *gorm.DB) *RewardRepository {
	if tx == nil {
		return r
	}
	return &RewardRepository{db: tx}
}

// ExistsByJackpotAndCycle reports whether a reward already exists for this
// jackpot's cycle — the finalization path's last-resort guard under lock.
func (r *RewardRepository) ExistsByJackpotAndCycle(ctx context.Context, jackpotID, cycle int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Reward{}).
		Where("jackpot_id = ? AND cycle_at_win = ?", jackpotID, cycle).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new reward, enforcing the unique constraints on bet_id and
// (jackpot_id, cycle_at_win) at the storage layer.
func (r *RewardRepository) Create(ctx context.Context, rw *model.Reward) error {
	if err := r.db.WithContext(ctx).Create(rw).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReward
		}
		return err
	}
	return nil
}
