// Command seed loads the fixed set of demonstration jackpots (one for each
// FIXED/VARIABLE contribution-reward pairing) through the same GORM models
// the runtime repositories use. Safe to re-run: every row is upserted by its
// natural key rather than blindly inserted.
package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/Asvarisch/Jackpot/config"
	"github.com/Asvarisch/Jackpot/db/postgres"
	"github.com/Asvarisch/Jackpot/logging"
	"github.com/Asvarisch/Jackpot/pkg/jackpot/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const seedInitialAmount = "10000.00"

type seedJackpot struct {
	configID         string
	configName       string
	jackpotName      string
	contributionKey  model.PolicyKey
	contributionBlob string
	rewardKey        model.PolicyKey
	rewardBlob       string
}

func seedData() []seedJackpot {
	return []seedJackpot{
		{
			configID:         "cfg-fixed-fixed",
			configName:       "Fixed contribution, fixed chance",
			jackpotName:      "Fixed/Fixed Jackpot",
			contributionKey:  model.PolicyFixed,
			contributionBlob: `{"percent": 20, "scale": 2}`,
			rewardKey:        model.PolicyFixed,
			rewardBlob:       `{"chancePercent": 0.01}`,
		},
		{
			configID:         "cfg-fixed-variable",
			configName:       "Fixed contribution, variable chance",
			jackpotName:      "Fixed/Variable Jackpot",
			contributionKey:  model.PolicyFixed,
			contributionBlob: `{"percent": 2.0, "scale": 2}`,
			rewardKey:        model.PolicyVariable,
			rewardBlob:       `{"startPercent": 0.001, "endPercent": 0.05, "fromPool": 10000, "toPool": 50000}`,
		},
		{
			configID:         "cfg-variable-variable",
			configName:       "Variable contribution, variable chance",
			jackpotName:      "Variable/Variable Jackpot",
			contributionKey:  model.PolicyVariable,
			contributionBlob: `{"startPercent": 3.0, "endPercent": 1.0, "fromPool": 10000, "toPool": 50000, "scale": 2}`,
			rewardKey:        model.PolicyVariable,
			rewardBlob:       `{"startPercent": 0.001, "endPercent": 0.05, "fromPool": 10000, "toPool": 50000}`,
		},
		{
			configID:         "cfg-variable-fixed",
			configName:       "Variable contribution, fixed chance",
			jackpotName:      "Variable/Fixed Jackpot",
			contributionKey:  model.PolicyVariable,
			contributionBlob: `{"startPercent": 2.5, "endPercent": 0.5, "fromPool": 10000, "toPool": 50000, "scale": 2}`,
			rewardKey:        model.PolicyFixed,
			rewardBlob:       `{"chancePercent": 0.02}`,
		},
	}
}

func main() {
	configFile := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.Logging)

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	if err := postgres.AutoMigrate(db,
		&model.JackpotConfig{},
		&model.ConfigEntry{},
		&model.Jackpot{},
		&model.Contribution{},
		&model.Reward{},
	); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate schema")
	}

	for _, sj := range seedData() {
		if err := seedOne(db, sj); err != nil {
			logger.Fatal().Err(err).Str("jackpot", sj.jackpotName).Msg("failed to seed jackpot")
		}
		logger.Info().Str("jackpot", sj.jackpotName).Str("config_id", sj.configID).Msg("seeded")
	}
}

func seedOne(db *gorm.DB, sj seedJackpot) error {
	return db.Transaction(func(tx *gorm.DB) error {
		jackpotConfig := model.JackpotConfig{ConfigID: sj.configID, Name: sj.configName}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "config_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name"}),
		}).Create(&jackpotConfig).Error; err != nil {
			return fmt.Errorf("upsert config: %w", err)
		}

		entries := []model.ConfigEntry{
			{
				EntryID:    sj.configID + "-contribution",
				ConfigID:   sj.configID,
				Slot:       model.SlotContribution,
				PolicyKey:  sj.contributionKey,
				ConfigBlob: sj.contributionBlob,
			},
			{
				EntryID:    sj.configID + "-reward",
				ConfigID:   sj.configID,
				Slot:       model.SlotReward,
				PolicyKey:  sj.rewardKey,
				ConfigBlob: sj.rewardBlob,
			},
		}
		for _, entry := range entries {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "config_id"}, {Name: "slot"}},
				DoUpdates: clause.AssignmentColumns([]string{"policy_key", "config_blob"}),
			}).Create(&entry).Error; err != nil {
				return fmt.Errorf("upsert config entry %s: %w", entry.Slot, err)
			}
		}

		initialAmount, err := decimal.NewFromString(seedInitialAmount)
		if err != nil {
			return err
		}

		var existing model.Jackpot
		err = tx.Where("name = ?", sj.jackpotName).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			jp := model.Jackpot{
				Name:          sj.jackpotName,
				InitialAmount: initialAmount,
				CurrentAmount: initialAmount,
				Cycle:         0,
				Version:       0,
				ConfigID:      sj.configID,
			}
			return tx.Create(&jp).Error
		case err != nil:
			return fmt.Errorf("lookup jackpot %s: %w", sj.jackpotName, err)
		default:
			return tx.Model(&existing).Update("config_id", sj.configID).Error
		}
	})
}
