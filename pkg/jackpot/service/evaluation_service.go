package service

import (
	"context"
	"time"

	apperrors "github.com/Asvarisch/Jackpot/errors"
	"github.com/Asvarisch/Jackpot/pkg/jackpot"
	"github.com/Asvarisch/Jackpot/pkg/jackpot/model"
	"github.com/Asvarisch/Jackpot/pkg/jackpot/policy"
	"github.com/Asvarisch/Jackpot/pkg/jackpot/repository"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	awaitMaxWait      = 3000 * time.Millisecond
	awaitStartSleep   = 50 * time.Millisecond
	awaitMaxSleep     = 250 * time.Millisecond
)

// EvaluationService implements the single public operation
// evaluateAndReward, run inside one database transaction once a
// Contribution is found.
type EvaluationService struct {
	db       *gorm.DB
	jackpots *repository.JackpotRepository
	contribs *repository.ContributionRepository
	rewards  *repository.RewardRepository
	registry *policy.Registry
	notifier *jackpot.Notifier
	logger   zerolog.Logger

	// clock and sleeper are test seams for the ingestion-await loop.
	now   func() time.Time
	sleep func(context.Context, time.Duration) bool
}

func NewEvaluationService(
	db *gorm.DB,
	jackpots *repository.JackpotRepository,
	contribs *repository.ContributionRepository,
	rewards *repository.RewardRepository,
	registry *policy.Registry,
	notifier *jackpot.Notifier,
	logger zerolog.Logger,
) *EvaluationService {
	return &EvaluationService{
		db:       db,
		jackpots: jackpots,
		contribs: contribs,
		rewards:  rewards,
		registry: registry,
		notifier: notifier,
		logger:   logger.With().Str("component", "evaluation_service").Logger(),
		now:      time.Now,
		sleep:    contextSleep,
	}
}

// contextSleep sleeps for d or until ctx is canceled, returning false if the
// context won the race (the await loop must then stop polling).
func contextSleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// EvaluateAndReward evaluates betID against its jackpot and, on a win,
// performs the single-winner finalization.
func (s *EvaluationService) EvaluateAndReward(ctx context.Context, betID int64) (EvaluateResponse, error) {
	contribution, found := s.awaitContribution(ctx, betID)
	if !found {
		return zeroResponse(betID, OutcomePendingIngestion, "pending-ingestion: no contribution recorded for this bet within the await budget"), nil
	}

	if contribution.Winning {
		return zeroResponse(betID, OutcomeAlreadyRewarded, "already-rewarded: bet was already rewarded for a previous win"), nil
	}
	if contribution.Evaluated {
		return zeroResponse(betID, OutcomeAlreadyEvaluated, "already-evaluated: bet was already evaluated before"), nil
	}

	var response EvaluateResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		jackpots := s.jackpots.WithTx(tx)
		contribs := s.contribs.WithTx(tx)
		rewards := s.rewards.WithTx(tx)

		if markErr := contribs.MarkEvaluated(ctx, contribution.ContributionID, false); markErr != nil {
			return markErr
		}

		jp, err := jackpots.FindByIDWithConfig(ctx, contribution.JackpotID)
		if err != nil {
			return err
		}
		if jp == nil {
			response = zeroResponse(betID, OutcomeJackpotMissing, "jackpot-missing: jackpot not found")
			return nil
		}

		if jp.Cycle != contribution.CycleSnapshot {
			response = zeroResponse(betID, OutcomeCycleClosed, "cycle-closed: another bet already won before evaluation")
			return nil
		}

		formula, err := s.registry.RewardFormula(resolvePolicyKey(jp, model.SlotReward))
		if err != nil {
			return apperrors.WrapWithDebug(err, apperrors.ErrJackpotConfigMissing, "jackpot configuration missing reward formula", err.Error())
		}
		blob := resolveConfigBlob(jp, model.SlotReward)

		if !formula.IsWinner(policy.JackpotState{CurrentAmount: jp.CurrentAmount}, blob) {
			response = zeroResponse(betID, OutcomeLose, "lose: not a winning bet")
			return nil
		}

		win, err := s.finalizeWinUnderLock(ctx, jackpots, contribs, rewards, contribution, betID)
		if err != nil {
			return err
		}
		response = win
		return nil
	})
	if err != nil {
		return EvaluateResponse{}, err
	}

	return response, nil
}

// finalizeWinUnderLock implements the pessimistic critical section (§4.4-6):
// acquire the jackpot row under write lock, re-check fairness, guard the
// single-winner invariant, record the reward, and reset the jackpot.
func (s *EvaluationService) finalizeWinUnderLock(
	ctx context.Context,
	jackpots *repository.JackpotRepository,
	contribs *repository.ContributionRepository,
	rewards *repository.RewardRepository,
	contribution Contribution,
	betID int64,
) (EvaluateResponse, error) {
	locked, err := jackpots.FindByIDForUpdate(ctx, contribution.JackpotID)
	if err != nil {
		return EvaluateResponse{}, err
	}
	if locked == nil {
		return zeroResponse(betID, OutcomeJackpotMissingLocked, "jackpot-missing-under-lock: jackpot not found under lock"), nil
	}

	if locked.Cycle != contribution.CycleSnapshot {
		return zeroResponse(betID, OutcomeCycleClosed, "cycle-closed: someone else won first"), nil
	}

	alreadyRewarded, err := rewards.ExistsByJackpotAndCycle(ctx, contribution.JackpotID, contribution.CycleSnapshot)
	if err != nil {
		return EvaluateResponse{}, err
	}
	if alreadyRewarded {
		return zeroResponse(betID, OutcomeCycleAlreadyRewarded, "cycle-already-rewarded: cycle already has a winner"), nil
	}

	payout := locked.CurrentAmount

	reward := &model.Reward{
		BetID:      betID,
		UserID:     contribution.UserID,
		JackpotID:  contribution.JackpotID,
		Amount:     payout,
		CycleAtWin: contribution.CycleSnapshot,
	}
	if err := rewards.Create(ctx, reward); err != nil {
		if err == repository.ErrDuplicateReward {
			return EvaluateResponse{}, apperrors.Wrap(err, apperrors.ErrJackpotIntegrity, "integrity: reward unique constraint fired despite the under-lock guard")
		}
		return EvaluateResponse{}, err
	}

	if err := contribs.MarkEvaluated(ctx, contribution.ContributionID, true); err != nil {
		return EvaluateResponse{}, err
	}

	locked.CurrentAmount = locked.InitialAmount
	locked.Cycle = locked.Cycle + 1
	if err := jackpots.Save(ctx, locked); err != nil {
		return EvaluateResponse{}, err
	}

	s.notifier.Notify(jackpot.Update{JackpotID: locked.JackpotID, Amount: locked.CurrentAmount, Cycle: locked.Cycle})

	s.logger.Info().
		Int64("bet_id", betID).
		Int64("jackpot_id", contribution.JackpotID).
		Int64("cycle_at_win", contribution.CycleSnapshot).
		Str("payout", payout.String()).
		Msg("jackpot won and reset")

	return EvaluateResponse{
		BetID:     betID,
		JackpotID: contribution.JackpotID,
		UserID:    contribution.UserID,
		Payout:    payout,
		Outcome:   OutcomeWin,
		Message:   "WIN: payout issued and jackpot reset",
	}, nil
}

// awaitContribution implements the ingestion-await loop (§4.4-1): poll with
// exponential backoff starting at 50ms, doubling, capped at 250ms per sleep,
// until a cumulative deadline of 3000ms, honoring context cancellation.
func (s *EvaluationService) awaitContribution(ctx context.Context, betID int64) (Contribution, bool) {
	deadline := s.now().Add(awaitMaxWait)
	sleep := awaitStartSleep

	for {
		c, err := s.contribs.FindByBetID(ctx, betID)
		if err == nil && c != nil {
			return toContribution(c), true
		}

		if s.now().Add(sleep).After(deadline) {
			return Contribution{}, false
		}
		if !s.sleep(ctx, sleep) {
			return Contribution{}, false
		}

		sleep *= 2
		if sleep > awaitMaxSleep {
			sleep = awaitMaxSleep
		}
	}
}
