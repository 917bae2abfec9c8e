package policy

import (
	"github.com/Asvarisch/Jackpot/pkg/jackpot/model"
	"github.com/shopspring/decimal"
)

const interpolationScale = int32(8)

// VariableContribution credits a percentage of the stake that interpolates
// linearly between startPercent and endPercent as the pool grows from
// fromPool to toPool. Parameters: startPercent, endPercent (0..100, clamped
// independently); fromPool (default 0, clamped >= 0); toPool; scale
// (default 2).
type VariableContribution struct{}

func (VariableContribution) PolicyKey() model.PolicyKey { return model.PolicyVariable }

func (VariableContribution) Compute(stake decimal.Decimal, state JackpotState, configBlob string) (decimal.Decimal, error) {
	p := parseParams(configBlob)

	startPercent, ok := p.decimalField("startPercent")
	if !ok {
		return decimal.Zero, nil
	}
	endPercent, ok := p.decimalField("endPercent")
	if !ok {
		return decimal.Zero, nil
	}
	startPercent = clampPercent(startPercent)
	endPercent = clampPercent(endPercent)

	fromPool, ok := p.decimalField("fromPool")
	if !ok {
		fromPool = zero
	}
	fromPool = clampNonNegative(fromPool)

	toPool, hasToPool := p.decimalField("toPool")
	scale := p.intField("scale", defaultScale)

	effective := effectivePercent(state.CurrentAmount, startPercent, endPercent, fromPool, toPool, hasToPool)

	result := stake.Mul(effective).Div(hundred)
	return roundHalfUp(result, scale), nil
}

// effectivePercent implements VariableContribution's linear interpolation
// between its start and end percent. VariableReward computes its chance
// separately (see IsWinner).
func effectivePercent(pool, startPercent, endPercent, fromPool, toPool decimal.Decimal, hasToPool bool) decimal.Decimal {
	if !hasToPool || toPool.LessThanOrEqual(fromPool) {
		return startPercent
	}
	if pool.LessThanOrEqual(fromPool) {
		return startPercent
	}
	if pool.GreaterThanOrEqual(toPool) {
		return endPercent
	}
	fraction := pool.Sub(fromPool).DivRound(toPool.Sub(fromPool), interpolationScale)
	span := endPercent.Sub(startPercent)
	return roundHalfUp(startPercent.Add(span.Mul(fraction)), interpolationScale)
}

// VariableReward wins with a chance that interpolates linearly between
// startPercent and endPercent as the pool grows from fromPool to toPool, and
// becomes 100 once the pool reaches toPool. Parameters:
// startPercent, endPercent (clamped), fromPool (default 0), toPool
// (required).
type VariableReward struct {
	src RandSource
}

func NewVariableReward(src RandSource) VariableReward {
	return VariableReward{src: src}
}

func (VariableReward) PolicyKey() model.PolicyKey { return model.PolicyVariable }

func (v VariableReward) IsWinner(state JackpotState, configBlob string) bool {
	p := parseParams(configBlob)

	startPercent, ok := p.decimalField("startPercent")
	if !ok {
		return false
	}
	endPercent, ok := p.decimalField("endPercent")
	if !ok {
		return false
	}
	startPercent = clampPercent(startPercent)
	endPercent = clampPercent(endPercent)

	fromPool, ok := p.decimalField("fromPool")
	if !ok {
		fromPool = zero
	}
	fromPool = clampNonNegative(fromPool)

	toPool, hasToPool := p.decimalField("toPool")
	if !hasToPool {
		return false
	}

	var effectiveChance decimal.Decimal
	pool := state.CurrentAmount
	switch {
	case toPool.LessThanOrEqual(fromPool), pool.LessThanOrEqual(fromPool):
		effectiveChance = startPercent
	case pool.GreaterThanOrEqual(toPool):
		effectiveChance = hundred
	default:
		fraction := pool.Sub(fromPool).DivRound(toPool.Sub(fromPool), interpolationScale)
		span := endPercent.Sub(startPercent)
		effectiveChance = roundHalfUp(startPercent.Add(span.Mul(fraction)), interpolationScale)
	}

	u := v.src.Float64() * 100.0
	return u < effectiveChance.InexactFloat64()
}
