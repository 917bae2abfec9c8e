package service

import (
	"context"

	apperrors "github.com/Asvarisch/Jackpot/errors"
	"github.com/Asvarisch/Jackpot/pkg/jackpot"
	"github.com/Asvarisch/Jackpot/pkg/jackpot/model"
	"github.com/Asvarisch/Jackpot/pkg/jackpot/policy"
	"github.com/Asvarisch/Jackpot/pkg/jackpot/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ContributionService implements the single public operation contribute,
// run inside one database transaction per call.
type ContributionService struct {
	db       *gorm.DB
	jackpots *repository.JackpotRepository
	contribs *repository.ContributionRepository
	registry *policy.Registry
	notifier *jackpot.Notifier
	logger   zerolog.Logger
}

func NewContributionService(
	db *gorm.DB,
	jackpots *repository.JackpotRepository,
	contribs *repository.ContributionRepository,
	registry *policy.Registry,
	notifier *jackpot.Notifier,
	logger zerolog.Logger,
) *ContributionService {
	return &ContributionService{
		db:       db,
		jackpots: jackpots,
		contribs: contribs,
		registry: registry,
		notifier: notifier,
		logger:   logger.With().Str("component", "contribution_service").Logger(),
	}
}

// Contribute ingests a BetEvent, producing an at-most-one Contribution per
// BetID and atomically adding the computed amount to the jackpot pool.
func (s *ContributionService) Contribute(ctx context.Context, event BetEvent) (Contribution, error) {
	if err := validateBetEvent(event); err != nil {
		return Contribution{}, err
	}

	var result Contribution
	var poolUpdate jackpot.Update
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		jackpots := s.jackpots.WithTx(tx)
		contribs := s.contribs.WithTx(tx)

		if existing, err := contribs.FindByBetID(ctx, event.BetID); err != nil {
			return err
		} else if existing != nil {
			result = toContribution(existing)
			return nil
		}

		jp, err := jackpots.FindByIDWithConfig(ctx, event.JackpotID)
		if err != nil {
			return err
		}
		if jp == nil {
			return apperrors.New(apperrors.ErrJackpotNotFound, "not-found: jackpot does not exist")
		}

		formula, err := s.registry.ContributionFormula(resolvePolicyKey(jp, model.SlotContribution))
		if err != nil {
			return apperrors.WrapWithDebug(err, apperrors.ErrJackpotConfigMissing, "jackpot configuration missing contribution formula", err.Error())
		}
		blob := resolveConfigBlob(jp, model.SlotContribution)

		amount, err := formula.Compute(event.BetAmount, policy.JackpotState{CurrentAmount: jp.CurrentAmount}, blob)
		if err != nil {
			return apperrors.WrapWithDebug(err, apperrors.ErrJackpotPolicyViolation, "policy-violation: contribution formula failed", err.Error())
		}
		if amount.IsNegative() {
			return apperrors.New(apperrors.ErrJackpotPolicyViolation, "policy-violation: contribution formula returned a negative amount")
		}

		poolBefore := jp.CurrentAmount
		cycleSnapshot := jp.Cycle

		contribution := &model.Contribution{
			BetID:              event.BetID,
			UserID:             event.UserID,
			JackpotID:          event.JackpotID,
			StakeAmount:        event.BetAmount,
			ContributionAmount: amount,
			PoolSnapshot:       poolBefore,
			CycleSnapshot:      cycleSnapshot,
			Evaluated:          false,
			Winning:            false,
		}

		if err := contribs.Create(ctx, contribution); err != nil {
			if err == repository.ErrDuplicateBetID {
				existing, readErr := contribs.FindByBetID(ctx, event.BetID)
				if readErr != nil {
					return readErr
				}
				if existing != nil {
					result = toContribution(existing)
					return nil
				}
				return apperrors.Wrap(err, apperrors.ErrJackpotIntegrity, "integrity: duplicate bet id without a recoverable row")
			}
			return err
		}

		jp.CurrentAmount = poolBefore.Add(amount)
		if err := jackpots.Save(ctx, jp); err != nil {
			return err
		}

		result = toContribution(contribution)
		poolUpdate = jackpot.Update{JackpotID: jp.JackpotID, Amount: jp.CurrentAmount, Cycle: jp.Cycle}
		return nil
	})
	if err != nil {
		return Contribution{}, err
	}

	s.logger.Debug().
		Int64("bet_id", event.BetID).
		Int64("jackpot_id", event.JackpotID).
		Str("contribution_amount", result.ContributionAmount.String()).
		Msg("bet contribution recorded")

	if poolUpdate.JackpotID != 0 {
		s.notifier.Notify(poolUpdate)
	}

	return result, nil
}

func validateBetEvent(event BetEvent) error {
	if event.BetID <= 0 {
		return apperrors.New(apperrors.ErrJackpotInvalidInput, "invalid-input: betId must be positive")
	}
	if event.UserID <= 0 {
		return apperrors.New(apperrors.ErrJackpotInvalidInput, "invalid-input: userId must be positive")
	}
	if event.JackpotID <= 0 {
		return apperrors.New(apperrors.ErrJackpotInvalidInput, "invalid-input: jackpotId must be positive")
	}
	if event.BetAmount.Cmp(decimal.Zero) <= 0 {
		return apperrors.New(apperrors.ErrJackpotInvalidInput, "invalid-input: betAmount must be positive")
	}
	return nil
}

func toContribution(c *model.Contribution) Contribution {
	return Contribution{
		ContributionID:     c.ContributionID,
		BetID:              c.BetID,
		UserID:             c.UserID,
		JackpotID:          c.JackpotID,
		StakeAmount:        c.StakeAmount,
		ContributionAmount: c.ContributionAmount,
		PoolSnapshot:       c.PoolSnapshot,
		CycleSnapshot:      c.CycleSnapshot,
		Evaluated:          c.Evaluated,
		Winning:            c.Winning,
	}
}
