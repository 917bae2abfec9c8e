package policy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource returns a fixed sequence of draws, repeating the last value
// once exhausted, so reward-formula tests can force a win or a loss.
type stubSource struct {
	values []float64
	next   int
}

func (s *stubSource) Float64() float64 {
	if s.next >= len(s.values) {
		return s.values[len(s.values)-1]
	}
	v := s.values[s.next]
	s.next++
	return v
}

func TestFixedContribution_Compute(t *testing.T) {
	f := FixedContribution{}

	amount, err := f.Compute(decimal.NewFromInt(100), JackpotState{}, `{"percent": 1.5}`)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromFloat(1.5).Equal(amount), "got %s", amount)
}

func TestFixedContribution_BlankBlobYieldsZero(t *testing.T) {
	f := FixedContribution{}

	amount, err := f.Compute(decimal.NewFromInt(100), JackpotState{}, "")
	require.NoError(t, err)
	assert.True(t, decimal.Zero.Equal(amount))
}

func TestFixedContribution_ClampsPercent(t *testing.T) {
	f := FixedContribution{}

	amount, err := f.Compute(decimal.NewFromInt(100), JackpotState{}, `{"percent": 500}`)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(amount))
}

func TestFixedContribution_RoundsHalfUp(t *testing.T) {
	f := FixedContribution{}

	// 10.5 * 5 / 100 = 0.525, which rounds up to 0.53 at scale 2.
	amount, err := f.Compute(decimal.NewFromFloat(10.5), JackpotState{}, `{"percent": 5, "scale": 2}`)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromFloat(0.53).Equal(amount), "got %s", amount)
}

func TestFixedReward_AcceptsJSONStringParams(t *testing.T) {
	src := &stubSource{values: []float64{0.0}}
	r := NewFixedReward(src)

	won := r.IsWinner(JackpotState{}, `{"chancePercent": "50"}`)
	assert.True(t, won)
}

func TestFixedReward_BlankBlobNeverWins(t *testing.T) {
	src := &stubSource{values: []float64{0.0}}
	r := NewFixedReward(src)

	won := r.IsWinner(JackpotState{}, "")
	assert.False(t, won)
}

func TestFixedReward_DrawAboveChanceLoses(t *testing.T) {
	src := &stubSource{values: []float64{0.99}}
	r := NewFixedReward(src)

	won := r.IsWinner(JackpotState{}, `{"chancePercent": 1}`)
	assert.False(t, won)
}

func TestFixedReward_DrawBelowChanceWins(t *testing.T) {
	src := &stubSource{values: []float64{0.001}}
	r := NewFixedReward(src)

	won := r.IsWinner(JackpotState{}, `{"chancePercent": 1}`)
	assert.True(t, won)
}
