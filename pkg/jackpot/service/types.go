// Package service implements the Contribution Service and Evaluation
// Service: the two transactional entry points of the jackpot engine.
package service

import (
	"github.com/shopspring/decimal"
)

// BetEvent is the inbound contribution request, delivered either over the
// message bus or synthesized from an HTTP POST /api/bets request.
type BetEvent struct {
	BetID     int64
	UserID    int64
	JackpotID int64
	BetAmount decimal.Decimal
}

// Contribution mirrors model.Contribution for the service's public return
// type, decoupling callers from the persistence model.
type Contribution struct {
	ContributionID     int64
	BetID              int64
	UserID             int64
	JackpotID          int64
	StakeAmount        decimal.Decimal
	ContributionAmount decimal.Decimal
	PoolSnapshot       decimal.Decimal
	CycleSnapshot      int64
	Evaluated          bool
	Winning            bool
}

// Outcome categorizes an EvaluateResponse for machine-parseable branching,
// carried as a stable prefix in EvaluateResponse.Message.
type Outcome string

const (
	OutcomeWin                   Outcome = "WIN"
	OutcomePendingIngestion      Outcome = "pending-ingestion"
	OutcomeAlreadyRewarded       Outcome = "already-rewarded"
	OutcomeAlreadyEvaluated      Outcome = "already-evaluated"
	OutcomeJackpotMissing        Outcome = "jackpot-missing"
	OutcomeJackpotMissingLocked  Outcome = "jackpot-missing-under-lock"
	OutcomeCycleClosed           Outcome = "cycle-closed"
	OutcomeCycleAlreadyRewarded  Outcome = "cycle-already-rewarded"
	OutcomeLose                  Outcome = "lose"
)

// EvaluateResponse is evaluateAndReward's public return type. Payout is zero
// on every outcome but OutcomeWin.
type EvaluateResponse struct {
	BetID     int64
	JackpotID int64
	UserID    int64
	Payout    decimal.Decimal
	Outcome   Outcome
	Message   string
}

func zeroResponse(betID int64, outcome Outcome, message string) EvaluateResponse {
	return EvaluateResponse{
		BetID:   betID,
		Payout:  decimal.Zero,
		Outcome: outcome,
		Message: message,
	}
}
