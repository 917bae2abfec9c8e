package repository

import (
	"context"
	"testing"

	"github.com/Asvarisch/Jackpot/pkg/jackpot/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.JackpotConfig{},
		&model.ConfigEntry{},
		&model.Jackpot{},
		&model.Contribution{},
		&model.Reward{},
	))
	return db
}

func seedJackpotFixture(t *testing.T, db *gorm.DB) *model.Jackpot {
	t.Helper()
	cfg := model.JackpotConfig{ConfigID: "cfg-1", Name: "test config"}
	require.NoError(t, db.Create(&cfg).Error)
	require.NoError(t, db.Create(&model.ConfigEntry{
		EntryID: "cfg-1-contribution", ConfigID: "cfg-1", Slot: model.SlotContribution,
		PolicyKey: model.PolicyFixed, ConfigBlob: `{"percent": 1}`,
	}).Error)
	require.NoError(t, db.Create(&model.ConfigEntry{
		EntryID: "cfg-1-reward", ConfigID: "cfg-1", Slot: model.SlotReward,
		PolicyKey: model.PolicyFixed, ConfigBlob: `{"chancePercent": 1}`,
	}).Error)

	jp := &model.Jackpot{
		Name: "Test Jackpot", ConfigID: "cfg-1",
		InitialAmount: decimal.NewFromInt(1000),
		CurrentAmount: decimal.NewFromInt(1000),
	}
	require.NoError(t, db.Create(jp).Error)
	return jp
}

func TestJackpotRepository_FindByIDWithConfig(t *testing.T) {
	db := newTestDB(t)
	jp := seedJackpotFixture(t, db)
	repo := NewJackpotRepository(db)

	found, err := repo.FindByIDWithConfig(context.Background(), jp.JackpotID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.NotNil(t, found.Config)
	require.Len(t, found.Config.Entries, 2)
}

func TestJackpotRepository_FindByIDWithConfig_Missing(t *testing.T) {
	db := newTestDB(t)
	repo := NewJackpotRepository(db)

	found, err := repo.FindByIDWithConfig(context.Background(), 999)
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestJackpotRepository_Save_DetectsVersionConflict(t *testing.T) {
	db := newTestDB(t)
	jp := seedJackpotFixture(t, db)
	repo := NewJackpotRepository(db)

	stale, err := repo.FindByIDWithConfig(context.Background(), jp.JackpotID)
	require.NoError(t, err)

	fresh, err := repo.FindByIDWithConfig(context.Background(), jp.JackpotID)
	require.NoError(t, err)

	fresh.CurrentAmount = fresh.CurrentAmount.Add(decimal.NewFromInt(10))
	require.NoError(t, repo.Save(context.Background(), fresh))

	stale.CurrentAmount = stale.CurrentAmount.Add(decimal.NewFromInt(20))
	err = repo.Save(context.Background(), stale)
	require.ErrorIs(t, err, ErrVersionConflict)
}

func TestJackpotRepository_FindByIDForUpdate(t *testing.T) {
	db := newTestDB(t)
	jp := seedJackpotFixture(t, db)
	repo := NewJackpotRepository(db)

	locked, err := repo.FindByIDForUpdate(context.Background(), jp.JackpotID)
	require.NoError(t, err)
	require.NotNil(t, locked)
	require.Equal(t, jp.JackpotID, locked.JackpotID)

	missing, err := repo.FindByIDForUpdate(context.Background(), 999)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestContributionRepository_Create_DuplicateBetID(t *testing.T) {
	db := newTestDB(t)
	jp := seedJackpotFixture(t, db)
	repo := NewContributionRepository(db)

	c := &model.Contribution{
		BetID: 42, UserID: 1, JackpotID: jp.JackpotID,
		StakeAmount: decimal.NewFromInt(10), ContributionAmount: decimal.NewFromInt(1),
		PoolSnapshot: jp.CurrentAmount,
	}
	require.NoError(t, repo.Create(context.Background(), c))

	dup := &model.Contribution{
		BetID: 42, UserID: 1, JackpotID: jp.JackpotID,
		StakeAmount: decimal.NewFromInt(10), ContributionAmount: decimal.NewFromInt(1),
		PoolSnapshot: jp.CurrentAmount,
	}
	err := repo.Create(context.Background(), dup)
	require.ErrorIs(t, err, ErrDuplicateBetID)
}

func TestContributionRepository_MarkEvaluated(t *testing.T) {
	db := newTestDB(t)
	jp := seedJackpotFixture(t, db)
	repo := NewContributionRepository(db)

	c := &model.Contribution{
		BetID: 1, UserID: 1, JackpotID: jp.JackpotID,
		StakeAmount: decimal.NewFromInt(10), ContributionAmount: decimal.NewFromInt(1),
		PoolSnapshot: jp.CurrentAmount,
	}
	require.NoError(t, repo.Create(context.Background(), c))
	require.NoError(t, repo.MarkEvaluated(context.Background(), c.ContributionID, true))

	found, err := repo.FindByBetID(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, found.Evaluated)
	require.True(t, found.Winning)
}

func TestRewardRepository_DuplicateCycleDetected(t *testing.T) {
	db := newTestDB(t)
	jp := seedJackpotFixture(t, db)
	repo := NewRewardRepository(db)

	rw := &model.Reward{BetID: 1, UserID: 1, JackpotID: jp.JackpotID, Amount: decimal.NewFromInt(1000), CycleAtWin: 0}
	require.NoError(t, repo.Create(context.Background(), rw))

	dup := &model.Reward{BetID: 2, UserID: 2, JackpotID: jp.JackpotID, Amount: decimal.NewFromInt(1000), CycleAtWin: 0}
	err := repo.Create(context.Background(), dup)
	require.ErrorIs(t, err, ErrDuplicateReward)

	exists, err := repo.ExistsByJackpotAndCycle(context.Background(), jp.JackpotID, 0)
	require.NoError(t, err)
	require.True(t, exists)
}
