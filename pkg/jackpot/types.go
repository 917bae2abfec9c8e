// Package jackpot ties the policy, repository and service sub-packages
// together and provides the pool-update broadcast used by the supplemental
// SSE read endpoint (§6, §11).
package jackpot

import (
	"time"

	"github.com/shopspring/decimal"
)

// Update is a jackpot pool value change, pushed to SSE listeners after a
// contribution or a winning finalization.
type Update struct {
	JackpotID int64
	Amount    decimal.Decimal
	Cycle     int64
	Timestamp time.Time
}
