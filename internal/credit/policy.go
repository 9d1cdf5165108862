package credit

import (
	"fmt"
	"os"
	"path/filepath"

	"barter-trade-go/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// Policy holds the reputation rules: fixed deltas per change type, tier
// thresholds, and the deposit ratio per tier.
type Policy struct {
	Deltas     map[models.CreditChangeType]int
	Thresholds TierThresholds
	Ratios     map[models.CreditTier]decimal.Decimal
}

// TierThresholds are the lower score bounds of each tier above NEWBIE.
type TierThresholds struct {
	Normal    int `yaml:"normal"`
	Good      int `yaml:"good"`
	Excellent int `yaml:"excellent"`
}

// DefaultPolicy returns the built-in rules.
func DefaultPolicy() Policy {
	return Policy{
		Deltas: map[models.CreditChangeType]int{
			models.CreditTradeComplete:   5,
			models.CreditGoodReview:      3,
			models.CreditOnTimeShip:      1,
			models.CreditTradeCancel:     -10,
			models.CreditLateShip:        -25,
			models.CreditBadReview:       -8,
			models.CreditReportConfirmed: -40,
			models.CreditDepositDefault:  -50,
		},
		Thresholds: TierThresholds{Normal: 60, Good: 151, Excellent: 301},
		Ratios: map[models.CreditTier]decimal.Decimal{
			models.TierNewbie:    decimal.NewFromInt(1),
			models.TierNormal:    decimal.NewFromInt(1),
			models.TierGood:      decimal.RequireFromString("0.5"),
			models.TierExcellent: decimal.Zero,
		},
	}
}

type policyFile struct {
	Deltas     map[string]int    `yaml:"deltas"`
	Thresholds TierThresholds    `yaml:"thresholds"`
	Ratios     map[string]string `yaml:"ratios"`
}

// LoadPolicy reads a YAML override file. Fields left out keep their defaults.
func LoadPolicy(policyPath string) (Policy, error) {
	policy := DefaultPolicy()

	var path string
	if filepath.IsAbs(policyPath) {
		path = policyPath
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return policy, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, policyPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("unable to read %s: %w", policyPath, err)
	}

	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return policy, fmt.Errorf("unable to parse %s: %w", policyPath, err)
	}

	for name, delta := range file.Deltas {
		changeType := models.CreditChangeType(name)
		if _, ok := policy.Deltas[changeType]; !ok {
			return policy, fmt.Errorf("unknown credit change type %q in %s", name, policyPath)
		}
		policy.Deltas[changeType] = delta
	}
	if file.Thresholds.Normal > 0 {
		policy.Thresholds.Normal = file.Thresholds.Normal
	}
	if file.Thresholds.Good > 0 {
		policy.Thresholds.Good = file.Thresholds.Good
	}
	if file.Thresholds.Excellent > 0 {
		policy.Thresholds.Excellent = file.Thresholds.Excellent
	}
	for name, ratio := range file.Ratios {
		tier := models.CreditTier(name)
		if _, ok := policy.Ratios[tier]; !ok {
			return policy, fmt.Errorf("unknown credit tier %q in %s", name, policyPath)
		}
		parsed, err := decimal.NewFromString(ratio)
		if err != nil {
			return policy, fmt.Errorf("invalid ratio %q for tier %s: %w", ratio, name, err)
		}
		policy.Ratios[tier] = parsed
	}

	return policy, nil
}

// TierForScore maps a running score onto a trust tier.
func (p Policy) TierForScore(score int) models.CreditTier {
	switch {
	case score >= p.Thresholds.Excellent:
		return models.TierExcellent
	case score >= p.Thresholds.Good:
		return models.TierGood
	case score >= p.Thresholds.Normal:
		return models.TierNormal
	default:
		return models.TierNewbie
	}
}

// DepositRatio returns the fraction of the estimated value a tier must escrow.
func (p Policy) DepositRatio(tier models.CreditTier) decimal.Decimal {
	return p.Ratios[tier]
}

// CanRemoteTrade reports whether a score is high enough for remote trading.
// NEWBIE is barred entirely regardless of the deposit ratio.
func (p Policy) CanRemoteTrade(score int) bool {
	return p.TierForScore(score) != models.TierNewbie
}
