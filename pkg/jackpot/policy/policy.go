// Package policy implements the contribution and reward formulas and the
// registry that binds a jackpot's ConfigEntry rows to the formula
// implementations keyed by PolicyKey.
package policy

import (
	"github.com/Asvarisch/Jackpot/pkg/jackpot/model"
	"github.com/shopspring/decimal"
)

// JackpotState is the minimal view of a jackpot a formula needs: its current
// pool value. Formulas never mutate state; they only read it.
type JackpotState struct {
	CurrentAmount decimal.Decimal
}

// ContributionFormula computes the amount a stake adds to a jackpot pool.
type ContributionFormula interface {
	PolicyKey() model.PolicyKey
	Compute(stake decimal.Decimal, state JackpotState, configBlob string) (decimal.Decimal, error)
}

// RewardFormula decides whether a bet wins the pool outright.
type RewardFormula interface {
	PolicyKey() model.PolicyKey
	IsWinner(state JackpotState, configBlob string) bool
}

// RandSource draws a uniform float64 in [0, 1). Production code is backed by
// crypto/rand; tests substitute a deterministic stub so scenarios like "force
// the RNG to return 95.0" are reproducible.
type RandSource interface {
	Float64() float64
}

// Registry indexes formulas of each kind by policy key. Duplicate keys
// within a kind, or a lookup against an unregistered key, are configuration
// errors surfaced at startup/resolution time, never as a per-request error.
type Registry struct {
	contributions map[model.PolicyKey]ContributionFormula
	rewards       map[model.PolicyKey]RewardFormula
}

// NewRegistry builds a registry from the given formulas, failing fast if two
// formulas of the same kind declare the same policy key, or if a known policy
// key has no formula of one of the two kinds.
func NewRegistry(contributions []ContributionFormula, rewards []RewardFormula) (*Registry, error) {
	r := &Registry{
		contributions: make(map[model.PolicyKey]ContributionFormula, len(contributions)),
		rewards:       make(map[model.PolicyKey]RewardFormula, len(rewards)),
	}
	for _, f := range contributions {
		key := f.PolicyKey()
		if _, exists := r.contributions[key]; exists {
			return nil, &RegistrationError{Kind: "contribution", PolicyKey: key}
		}
		r.contributions[key] = f
	}
	for _, f := range rewards {
		key := f.PolicyKey()
		if _, exists := r.rewards[key]; exists {
			return nil, &RegistrationError{Kind: "reward", PolicyKey: key}
		}
		r.rewards[key] = f
	}
	for _, key := range []model.PolicyKey{model.PolicyFixed, model.PolicyVariable} {
		if _, ok := r.contributions[key]; !ok {
			return nil, &LookupError{Kind: "contribution", PolicyKey: key}
		}
		if _, ok := r.rewards[key]; !ok {
			return nil, &LookupError{Kind: "reward", PolicyKey: key}
		}
	}
	return r, nil
}

// ContributionFormula looks up a contribution formula by key. An unknown key
// is a startup/configuration error, not a request error.
func (r *Registry) ContributionFormula(key model.PolicyKey) (ContributionFormula, error) {
	f, ok := r.contributions[key]
	if !ok {
		return nil, &LookupError{Kind: "contribution", PolicyKey: key}
	}
	return f, nil
}

// RewardFormula looks up a reward formula by key.
func (r *Registry) RewardFormula(key model.PolicyKey) (RewardFormula, error) {
	f, ok := r.rewards[key]
	if !ok {
		return nil, &LookupError{Kind: "reward", PolicyKey: key}
	}
	return f, nil
}

// RegistrationError reports a duplicate policy key within one formula kind.
type RegistrationError struct {
	Kind      string
	PolicyKey model.PolicyKey
}

func (e *RegistrationError) Error() string {
	return "jackpot policy: duplicate " + e.Kind + " formula for policy key " + string(e.PolicyKey)
}

// LookupError reports a policy key with no registered formula of that kind.
type LookupError struct {
	Kind      string
	PolicyKey model.PolicyKey
}

func (e *LookupError) Error() string {
	return "jackpot policy: no " + e.Kind + " formula registered for policy key " + string(e.PolicyKey)
}

// DefaultRegistry builds the standard registry: fixed and variable formulas
// of each kind, reward formulas drawing from src.
func DefaultRegistry(src RandSource) (*Registry, error) {
	return NewRegistry(
		[]ContributionFormula{FixedContribution{}, VariableContribution{}},
		[]RewardFormula{NewFixedReward(src), NewVariableReward(src)},
	)
}
