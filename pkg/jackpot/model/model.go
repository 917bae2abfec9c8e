// Package model holds the GORM-mapped entities backing the jackpot engine:
// Jackpot, JackpotConfig, ConfigEntry, Contribution and Reward.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Slot is the role a ConfigEntry plays within a JackpotConfig.
type Slot string

const (
	SlotContribution Slot = "CONTRIBUTION"
	SlotReward       Slot = "REWARD"
)

// PolicyKey selects which formula implementation backs a ConfigEntry.
type PolicyKey string

const (
	PolicyFixed    PolicyKey = "FIXED"
	PolicyVariable PolicyKey = "VARIABLE"
)

// JackpotConfig owns the set of ConfigEntry rows that bind a jackpot to its
// contribution and reward formulas. Immutable after seed.
type JackpotConfig struct {
	ConfigID  string `gorm:"column:config_id;type:varchar(64);primaryKey"`
	Name      string `gorm:"column:name;type:varchar(128);not null"`
	Entries   []ConfigEntry `gorm:"foreignKey:ConfigID;references:ConfigID"`
	CreatedAt time.Time
}

func (JackpotConfig) TableName() string { return "jackpot_configs" }

// ConfigEntry binds one slot (CONTRIBUTION or REWARD) of a JackpotConfig to a
// policy key and its free-form JSON parameter blob.
type ConfigEntry struct {
	EntryID    string    `gorm:"column:entry_id;type:varchar(64);primaryKey"`
	ConfigID   string    `gorm:"column:config_id;type:varchar(64);not null;uniqueIndex:idx_config_slot"`
	Slot       Slot      `gorm:"column:slot;type:varchar(16);not null;uniqueIndex:idx_config_slot"`
	PolicyKey  PolicyKey `gorm:"column:policy_key;type:varchar(16);not null"`
	ConfigBlob string    `gorm:"column:config_blob;type:text"`
}

func (ConfigEntry) TableName() string { return "config_entries" }

// Jackpot is a named pool that grows with contributions and resets on a win.
//
// Version is the optimistic-lock column (see repository.JackpotRepository.Save):
// every update to this row must be conditioned on the caller's observed
// Version, and a mismatch means a concurrent writer already advanced it.
type Jackpot struct {
	JackpotID     int64           `gorm:"column:jackpot_id;primaryKey;autoIncrement"`
	Name          string          `gorm:"column:name;type:varchar(128);not null"`
	InitialAmount decimal.Decimal `gorm:"column:initial_amount;type:numeric(19,2);not null"`
	CurrentAmount decimal.Decimal `gorm:"column:current_amount;type:numeric(19,2);not null"`
	Cycle         int64           `gorm:"column:cycle;not null;default:0"`
	Version       int64           `gorm:"column:version;not null;default:0"`
	ConfigID      string          `gorm:"column:config_id;type:varchar(64);not null"`
	Config        *JackpotConfig  `gorm:"foreignKey:ConfigID;references:ConfigID"`
	UpdatedAt     time.Time
}

func (Jackpot) TableName() string { return "jackpots" }

// Contribution is the record of a single bet's credit to a jackpot pool.
// At most one exists per BetID (I2); Evaluated and Winning each flip at most
// once, one-way (see the evaluation state machine).
type Contribution struct {
	ContributionID     int64           `gorm:"column:contribution_id;primaryKey;autoIncrement"`
	BetID              int64           `gorm:"column:bet_id;not null;uniqueIndex"`
	UserID             int64           `gorm:"column:user_id;not null"`
	JackpotID          int64           `gorm:"column:jackpot_id;not null;index"`
	StakeAmount        decimal.Decimal `gorm:"column:stake_amount;type:numeric(19,2);not null"`
	ContributionAmount decimal.Decimal `gorm:"column:contribution_amount;type:numeric(19,2);not null"`
	PoolSnapshot       decimal.Decimal `gorm:"column:pool_snapshot;type:numeric(19,2);not null"`
	CycleSnapshot      int64           `gorm:"column:cycle_snapshot;not null"`
	Evaluated          bool            `gorm:"column:evaluated;not null;default:false"`
	Winning            bool            `gorm:"column:winning;not null;default:false"`
	CreatedAt          time.Time
}

func (Contribution) TableName() string { return "jackpot_contributions" }

// Reward records a single winning finalization. Unique on BetID and on
// (JackpotID, CycleAtWin) — the latter is the ultimate guarantee of I1.
type Reward struct {
	RewardID   int64           `gorm:"column:reward_id;primaryKey;autoIncrement"`
	BetID      int64           `gorm:"column:bet_id;not null;uniqueIndex"`
	UserID     int64           `gorm:"column:user_id;not null"`
	JackpotID  int64           `gorm:"column:jackpot_id;not null;uniqueIndex:idx_jackpot_cycle"`
	Amount     decimal.Decimal `gorm:"column:amount;type:numeric(19,2);not null"`
	CycleAtWin int64           `gorm:"column:cycle_at_win;not null;uniqueIndex:idx_jackpot_cycle"`
	CreatedAt  time.Time
}

func (Reward) TableName() string { return "jackpot_rewards" }
