package balance

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy holds the tunable constants of the balancing formulas.
type Policy struct {
	// Capacities is the shipment capacity per tier. Tiers missing from the
	// map use DefaultCapacity.
	Capacities      map[Tier]int `yaml:"capacities"`
	DefaultCapacity int          `yaml:"default_capacity"`

	// SoftCapPercent excludes tenants whose load is at or above this share of
	// capacity.
	SoftCapPercent int `yaml:"soft_cap_percent"`

	// BalanceHealthUnit is the account balance that maps to a health of 100.
	BalanceHealthUnit float64 `yaml:"balance_health_unit"`

	Performance PerformanceWeights `yaml:"performance"`
	Score       ScoreWeights       `yaml:"score"`

	// BatchSize caps the pending shipments considered per cycle.
	BatchSize int `yaml:"batch_size"`

	// StarvationThreshold is the number of consecutive cycles a shipment may
	// stay unassigned before an alert is raised. Zero disables alerts.
	StarvationThreshold int `yaml:"starvation_threshold"`
}

// PerformanceWeights combine utilization, on-time rate and balance health into
// the performance score.
type PerformanceWeights struct {
	Utilization   float64 `yaml:"utilization"`
	OnTime        float64 `yaml:"on_time"`
	BalanceHealth float64 `yaml:"balance_health"`
	Divisor       float64 `yaml:"divisor"`
}

// ScoreWeights drive the assignment score of a candidate tenant.
type ScoreWeights struct {
	Performance   float64          `yaml:"performance"`
	Availability  float64          `yaml:"availability"`
	BalanceHealth float64          `yaml:"balance_health"`
	TierBonus     map[Tier]float64 `yaml:"tier_bonus"`
	Coverage      float64          `yaml:"coverage"`
}

// DefaultPolicy returns the production constants.
func DefaultPolicy() Policy {
	return Policy{
		Capacities: map[Tier]int{
			TierStarter:      100,
			TierProfessional: 500,
			TierEnterprise:   5000,
		},
		DefaultCapacity:   100,
		SoftCapPercent:    90,
		BalanceHealthUnit: 1000,
		Performance: PerformanceWeights{
			Utilization:   0.3,
			OnTime:        0.5,
			BalanceHealth: 0.2,
			Divisor:       3,
		},
		Score: ScoreWeights{
			Performance:   0.4,
			Availability:  30,
			BalanceHealth: 20,
			TierBonus: map[Tier]float64{
				TierStarter:      0,
				TierProfessional: 5,
				TierEnterprise:   10,
			},
			Coverage: 5,
		},
		BatchSize:           100,
		StarvationThreshold: 4,
	}
}

// Capacity returns the shipment capacity of tier.
func (p Policy) Capacity(t Tier) int {
	if c, ok := p.Capacities[t]; ok && c > 0 {
		return c
	}
	return p.DefaultCapacity
}

// Validate reports values the engine cannot work with.
func (p Policy) Validate() error {
	var errs []error
	if p.DefaultCapacity <= 0 {
		errs = append(errs, errors.New("default_capacity must be positive"))
	}
	for t, c := range p.Capacities {
		if c <= 0 {
			errs = append(errs, fmt.Errorf("capacity for tier %q must be positive", t))
		}
	}
	if p.SoftCapPercent <= 0 || p.SoftCapPercent > 100 {
		errs = append(errs, errors.New("soft_cap_percent must be in (0, 100]"))
	}
	if p.BalanceHealthUnit <= 0 {
		errs = append(errs, errors.New("balance_health_unit must be positive"))
	}
	if p.Performance.Divisor <= 0 {
		errs = append(errs, errors.New("performance.divisor must be positive"))
	}
	if p.BatchSize <= 0 {
		errs = append(errs, errors.New("batch_size must be positive"))
	}
	if p.StarvationThreshold < 0 {
		errs = append(errs, errors.New("starvation_threshold must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return errors.Join(ErrInvalidPolicy, err)
	}
	return nil
}

// ParsePolicy decodes a YAML policy document. Fields absent from the document
// keep their DefaultPolicy values; map entries are merged per tier.
func ParsePolicy(data []byte) (Policy, error) {
	p := DefaultPolicy()

	var doc Policy
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Policy{}, errors.Join(ErrLoadingPolicy, err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, errors.Join(ErrLoadingPolicy, err)
	}

	// Tier keys are normalized the same way stored tier names are.
	p.Capacities = mergeTiers(DefaultPolicy().Capacities, doc.Capacities)
	p.Score.TierBonus = mergeTiers(DefaultPolicy().Score.TierBonus, doc.Score.TierBonus)

	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// LoadPolicy reads and parses a YAML policy file.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, errors.Join(ErrLoadingPolicy, err)
	}
	return ParsePolicy(data)
}

func mergeTiers[V any](base, override map[Tier]V) map[Tier]V {
	out := make(map[Tier]V, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[ParseTier(string(k))] = v
	}
	return out
}
