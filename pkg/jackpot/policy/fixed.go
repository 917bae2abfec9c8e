package policy

import (
	"github.com/Asvarisch/Jackpot/pkg/jackpot/model"
	"github.com/shopspring/decimal"
)

const defaultScale = int32(2)

// FixedContribution credits a constant percentage of the stake to the pool.
// Parameters: percent (0..100, clamped), scale (default 2).
type FixedContribution struct{}

func (FixedContribution) PolicyKey() model.PolicyKey { return model.PolicyFixed }

func (FixedContribution) Compute(stake decimal.Decimal, _ JackpotState, configBlob string) (decimal.Decimal, error) {
	p := parseParams(configBlob)
	percent, ok := p.decimalField("percent")
	if !ok {
		return decimal.Zero, nil
	}
	percent = clampPercent(percent)
	scale := p.intField("scale", defaultScale)

	result := stake.Mul(percent).Div(hundred)
	return roundHalfUp(result, scale), nil
}

// FixedReward wins with a constant chance. Parameters: chancePercent (0..100,
// clamped).
type FixedReward struct {
	src RandSource
}

func NewFixedReward(src RandSource) FixedReward {
	return FixedReward{src: src}
}

func (FixedReward) PolicyKey() model.PolicyKey { return model.PolicyFixed }

func (f FixedReward) IsWinner(_ JackpotState, configBlob string) bool {
	p := parseParams(configBlob)
	chance, ok := p.decimalField("chancePercent")
	if !ok {
		return false
	}
	chance = clampPercent(chance)

	u := f.src.Float64() * 100.0
	return u < chance.InexactFloat64()
}
