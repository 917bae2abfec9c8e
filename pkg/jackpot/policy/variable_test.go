package policy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariableContribution_BeforeFromPoolUsesStart(t *testing.T) {
	v := VariableContribution{}

	amount, err := v.Compute(
		decimal.NewFromInt(100),
		JackpotState{CurrentAmount: decimal.NewFromInt(1000)},
		`{"startPercent": 3, "endPercent": 1, "fromPool": 10000, "toPool": 50000}`,
	)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3).Equal(amount), "got %s", amount)
}

func TestVariableContribution_AfterToPoolUsesEnd(t *testing.T) {
	v := VariableContribution{}

	amount, err := v.Compute(
		decimal.NewFromInt(100),
		JackpotState{CurrentAmount: decimal.NewFromInt(60000)},
		`{"startPercent": 3, "endPercent": 1, "fromPool": 10000, "toPool": 50000}`,
	)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1).Equal(amount), "got %s", amount)
}

func TestVariableContribution_MidpointInterpolates(t *testing.T) {
	v := VariableContribution{}

	// pool is exactly midway between fromPool and toPool, so the effective
	// percent is the midpoint of start/end: (3+1)/2 = 2.
	amount, err := v.Compute(
		decimal.NewFromInt(100),
		JackpotState{CurrentAmount: decimal.NewFromInt(30000)},
		`{"startPercent": 3, "endPercent": 1, "fromPool": 10000, "toPool": 50000}`,
	)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2).Equal(amount), "got %s", amount)
}

func TestVariableContribution_MissingToPoolUsesStart(t *testing.T) {
	v := VariableContribution{}

	amount, err := v.Compute(
		decimal.NewFromInt(100),
		JackpotState{CurrentAmount: decimal.NewFromInt(999999)},
		`{"startPercent": 3, "endPercent": 1}`,
	)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3).Equal(amount), "got %s", amount)
}

func TestVariableContribution_MissingStartPercentYieldsZero(t *testing.T) {
	v := VariableContribution{}

	amount, err := v.Compute(decimal.NewFromInt(100), JackpotState{}, `{"endPercent": 1}`)
	require.NoError(t, err)
	assert.True(t, decimal.Zero.Equal(amount))
}

func TestVariableReward_RequiresToPool(t *testing.T) {
	src := &stubSource{values: []float64{0.0}}
	v := NewVariableReward(src)

	won := v.IsWinner(JackpotState{CurrentAmount: decimal.NewFromInt(20000)}, `{"startPercent": 0.01, "endPercent": 1, "fromPool": 10000}`)
	assert.False(t, won)
}

func TestVariableReward_AtOrAboveToPoolUsesHundred(t *testing.T) {
	src := &stubSource{values: []float64{0.99}}
	v := NewVariableReward(src)

	won := v.IsWinner(
		JackpotState{CurrentAmount: decimal.NewFromInt(50000)},
		`{"startPercent": 0.01, "endPercent": 1, "fromPool": 10000, "toPool": 50000}`,
	)
	assert.True(t, won)
}

func TestVariableReward_BelowFromPoolUsesStart(t *testing.T) {
	src := &stubSource{values: []float64{0.00001}}
	v := NewVariableReward(src)

	won := v.IsWinner(
		JackpotState{CurrentAmount: decimal.NewFromInt(1000)},
		`{"startPercent": 0.01, "endPercent": 1, "fromPool": 10000, "toPool": 50000}`,
	)
	assert.True(t, won)
}
