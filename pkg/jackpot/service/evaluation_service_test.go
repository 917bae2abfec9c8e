package service

import (
	"context"
	"testing"
	"time"

	"github.com/Asvarisch/Jackpot/pkg/jackpot"
	"github.com/Asvarisch/Jackpot/pkg/jackpot/model"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluationService_PendingIngestionTimesOutFast(t *testing.T) {
	db := newTestDB(t)
	seedFixedJackpot(t, db, 1000)

	jackpots, contribs, rewards := newRepos(db)
	registry := newRegistry(t, fixedSource{value: 0.01})
	notifier := jackpot.NewNotifier(4)
	svc := NewEvaluationService(db, jackpots, contribs, rewards, registry, notifier, zerolog.Nop())

	// collapse the await loop's clock so the test doesn't actually sleep 3s:
	// the fake "now" returns the start instant when the deadline is computed,
	// then jumps straight past the deadline on the first check.
	started := time.Now()
	clockCalls := 0
	svc.now = func() time.Time {
		clockCalls++
		if clockCalls == 1 {
			return started
		}
		return started.Add(awaitMaxWait + time.Millisecond)
	}
	svc.sleep = func(context.Context, time.Duration) bool { return true }

	response, err := svc.EvaluateAndReward(context.Background(), 12345)
	require.NoError(t, err)
	assert.Equal(t, OutcomePendingIngestion, response.Outcome)
	assert.True(t, response.Payout.IsZero())
}

func TestEvaluationService_AlreadyEvaluatedShortCircuits(t *testing.T) {
	db := newTestDB(t)
	jp := seedFixedJackpot(t, db, 1000)

	jackpots, contribs, rewards := newRepos(db)
	registry := newRegistry(t, fixedSource{value: 0.01})
	notifier := jackpot.NewNotifier(4)
	svc := NewEvaluationService(db, jackpots, contribs, rewards, registry, notifier, zerolog.Nop())

	c := &model.Contribution{
		BetID: 1, UserID: 1, JackpotID: jp.JackpotID,
		StakeAmount: decimal.NewFromInt(100), ContributionAmount: decimal.NewFromInt(10),
		PoolSnapshot: jp.CurrentAmount, CycleSnapshot: jp.Cycle, Evaluated: true,
	}
	require.NoError(t, contribs.Create(context.Background(), c))

	response, err := svc.EvaluateAndReward(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyEvaluated, response.Outcome)
}

func TestEvaluationService_AlreadyRewardedShortCircuits(t *testing.T) {
	db := newTestDB(t)
	jp := seedFixedJackpot(t, db, 1000)

	jackpots, contribs, rewards := newRepos(db)
	registry := newRegistry(t, fixedSource{value: 0.01})
	notifier := jackpot.NewNotifier(4)
	svc := NewEvaluationService(db, jackpots, contribs, rewards, registry, notifier, zerolog.Nop())

	c := &model.Contribution{
		BetID: 1, UserID: 1, JackpotID: jp.JackpotID,
		StakeAmount: decimal.NewFromInt(100), ContributionAmount: decimal.NewFromInt(10),
		PoolSnapshot: jp.CurrentAmount, CycleSnapshot: jp.Cycle, Evaluated: true, Winning: true,
	}
	require.NoError(t, contribs.Create(context.Background(), c))

	response, err := svc.EvaluateAndReward(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyRewarded, response.Outcome)
}

func TestEvaluationService_LoseLeavesPoolUntouched(t *testing.T) {
	db := newTestDB(t)
	jp := seedFixedJackpot(t, db, 1000)

	jackpots, contribs, rewards := newRepos(db)
	// draw above 100% chance is impossible to force a loss with a 100%-chance
	// reward config, so this jackpot's reward formula is overridden per-call
	// below by reseeding a losing config.
	registry := newRegistry(t, fixedSource{value: 0.99})
	notifier := jackpot.NewNotifier(4)
	svc := NewEvaluationService(db, jackpots, contribs, rewards, registry, notifier, zerolog.Nop())

	require.NoError(t, db.Model(&model.ConfigEntry{}).
		Where("config_id = ? AND slot = ?", jp.ConfigID, model.SlotReward).
		Update("config_blob", `{"chancePercent": 0.001}`).Error)

	c := &model.Contribution{
		BetID: 9, UserID: 1, JackpotID: jp.JackpotID,
		StakeAmount: decimal.NewFromInt(100), ContributionAmount: decimal.NewFromInt(10),
		PoolSnapshot: jp.CurrentAmount, CycleSnapshot: jp.Cycle,
	}
	require.NoError(t, contribs.Create(context.Background(), c))

	response, err := svc.EvaluateAndReward(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, OutcomeLose, response.Outcome)
	assert.True(t, response.Payout.IsZero())

	reloaded, err := jackpots.FindByIDWithConfig(context.Background(), jp.JackpotID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1000).Equal(reloaded.CurrentAmount))
	assert.Equal(t, int64(0), reloaded.Cycle)

	found, err := contribs.FindByBetID(context.Background(), 9)
	require.NoError(t, err)
	assert.True(t, found.Evaluated)
	assert.False(t, found.Winning)
}

func TestEvaluationService_WinPaysOutAndResetsJackpot(t *testing.T) {
	db := newTestDB(t)
	jp := seedFixedJackpot(t, db, 1000)

	jackpots, contribs, rewards := newRepos(db)
	registry := newRegistry(t, fixedSource{value: 0.001})
	notifier := jackpot.NewNotifier(4)
	svc := NewEvaluationService(db, jackpots, contribs, rewards, registry, notifier, zerolog.Nop())

	c := &model.Contribution{
		BetID: 3, UserID: 77, JackpotID: jp.JackpotID,
		StakeAmount: decimal.NewFromInt(100), ContributionAmount: decimal.NewFromInt(10),
		PoolSnapshot: jp.CurrentAmount, CycleSnapshot: jp.Cycle,
	}
	require.NoError(t, contribs.Create(context.Background(), c))

	response, err := svc.EvaluateAndReward(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, OutcomeWin, response.Outcome)
	assert.True(t, decimal.NewFromInt(1000).Equal(response.Payout), "got %s", response.Payout)
	assert.Equal(t, int64(77), response.UserID)

	reloaded, err := jackpots.FindByIDWithConfig(context.Background(), jp.JackpotID)
	require.NoError(t, err)
	assert.True(t, reloaded.CurrentAmount.Equal(reloaded.InitialAmount))
	assert.Equal(t, int64(1), reloaded.Cycle)

	rewarded, err := rewards.ExistsByJackpotAndCycle(context.Background(), jp.JackpotID, 0)
	require.NoError(t, err)
	assert.True(t, rewarded)
}

func TestEvaluationService_CycleClosedBeforeLockSkipsPayout(t *testing.T) {
	db := newTestDB(t)
	jp := seedFixedJackpot(t, db, 1000)

	jackpots, contribs, rewards := newRepos(db)
	registry := newRegistry(t, fixedSource{value: 0.001})
	notifier := jackpot.NewNotifier(4)
	svc := NewEvaluationService(db, jackpots, contribs, rewards, registry, notifier, zerolog.Nop())

	c := &model.Contribution{
		BetID: 4, UserID: 1, JackpotID: jp.JackpotID,
		StakeAmount: decimal.NewFromInt(100), ContributionAmount: decimal.NewFromInt(10),
		PoolSnapshot: jp.CurrentAmount, CycleSnapshot: jp.Cycle,
	}
	require.NoError(t, contribs.Create(context.Background(), c))

	// simulate another bet having already won and rolled the cycle forward
	// between this contribution's snapshot and this evaluation call.
	jp.CurrentAmount = jp.InitialAmount
	jp.Cycle = jp.Cycle + 1
	require.NoError(t, jackpots.Save(context.Background(), jp))

	response, err := svc.EvaluateAndReward(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCycleClosed, response.Outcome)
}

func TestEvaluationService_JackpotMissingReturnsZeroResponse(t *testing.T) {
	db := newTestDB(t)
	jp := seedFixedJackpot(t, db, 1000)

	jackpots, contribs, rewards := newRepos(db)
	registry := newRegistry(t, fixedSource{value: 0.001})
	notifier := jackpot.NewNotifier(4)
	svc := NewEvaluationService(db, jackpots, contribs, rewards, registry, notifier, zerolog.Nop())

	c := &model.Contribution{
		BetID: 6, UserID: 1, JackpotID: jp.JackpotID,
		StakeAmount: decimal.NewFromInt(100), ContributionAmount: decimal.NewFromInt(10),
		PoolSnapshot: jp.CurrentAmount, CycleSnapshot: jp.Cycle,
	}
	require.NoError(t, contribs.Create(context.Background(), c))
	require.NoError(t, db.Delete(&model.Jackpot{}, jp.JackpotID).Error)

	response, err := svc.EvaluateAndReward(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, OutcomeJackpotMissing, response.Outcome)
}
