package service

import (
	"testing"

	"github.com/Asvarisch/Jackpot/pkg/jackpot/model"
	"github.com/Asvarisch/Jackpot/pkg/jackpot/policy"
	"github.com/Asvarisch/Jackpot/pkg/jackpot/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fixedSource always returns the same draw, letting a test force every
// reward roll to win or to lose.
type fixedSource struct {
	value float64
}

func (f fixedSource) Float64() float64 { return f.value }

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

// seedFixedJackpot creates a jackpot whose contribution formula always
// credits a constant percent, and whose reward formula's win/lose outcome
// is controlled entirely by the injected RandSource.
func seedFixedJackpot(t *testing.T, db *gorm.DB, initialAmount float64) *model.Jackpot {
	t.Helper()
	cfg := model.JackpotConfig{ConfigID: "cfg", Name: "cfg"}
	require.NoError(t, db.Create(&cfg).Error)
	require.NoError(t, db.Create(&model.ConfigEntry{
		EntryID: "cfg-contribution", ConfigID: "cfg", Slot: model.SlotContribution,
		PolicyKey: model.PolicyFixed, ConfigBlob: `{"percent": 10}`,
	}).Error)
	require.NoError(t, db.Create(&model.ConfigEntry{
		EntryID: "cfg-reward", ConfigID: "cfg", Slot: model.SlotReward,
		PolicyKey: model.PolicyFixed, ConfigBlob: `{"chancePercent": 100}`,
	}).Error)

	jp := &model.Jackpot{
		Name: "fixture jackpot", ConfigID: "cfg",
		InitialAmount: decimal.NewFromFloat(initialAmount),
		CurrentAmount: decimal.NewFromFloat(initialAmount),
	}
	require.NoError(t, db.Create(jp).Error)
	return jp
}

func newRegistry(t *testing.T, src policy.RandSource) *policy.Registry {
	t.Helper()
	registry, err := policy.DefaultRegistry(src)
	require.NoError(t, err)
	return registry
}

func newRepos(db *gorm.DB) (*repository.JackpotRepository, *repository.ContributionRepository, *repository.RewardRepository) {
	return repository.NewJackpotRepository(db),
		repository.NewContributionRepository(db),
		repository.NewRewardRepository(db)
}
