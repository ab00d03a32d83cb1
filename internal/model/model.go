// Package model defines the snapshot document consumed by the locker-metrics service.
package model

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidSnapshot is wrapped by every error caused by a snapshot that lacks
// required structure (no entities, unknown entity key, ...).
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Snapshot is the root document published by the external data job.
type Snapshot struct {
	// Week is the current governance week
	Week int `json:"week" validate:"gte=0"`

	// UpdatedAt is the unix timestamp (seconds) of publication
	UpdatedAt int64 `json:"updated_at" validate:"required,gt=0"`

	// Entities maps a locker key (e.g. "cvxPrisma") to its weekly series
	Entities map[string]EntitySeries `json:"liquid_lockers" validate:"required,min=2,dive"`

	EmissionsSchedule    []WeekEmission       `json:"emissions_schedule,omitempty" validate:"dive"`
	DistributionSchedule []DistributionPeriod `json:"distribution_schedule,omitempty"`
	BoostDelegates       []BoostDelegate      `json:"boost_delegates,omitempty"`
	TokenPrices          map[string]PriceInfo `json:"token_prices,omitempty"`
}

// Pair names the two entities being compared. A is the left/first side.
type Pair struct {
	A string `json:"a" yaml:"a"`
	B string `json:"b" yaml:"b"`
}

// IsZero reports whether neither side of the pair is set
func (p Pair) IsZero() bool {
	return p.A == "" && p.B == ""
}

// EntitySeries holds the per-locker APRs and weekly history.
type EntitySeries struct {
	// CurrentStakingAPR is a 0-1 fraction
	CurrentStakingAPR float64 `json:"current_staking_apr"`

	// CurrentLpAPR is a 0-1 fraction (boosted)
	CurrentLpAPR float64 `json:"current_lp_apr"`

	// WeeklyData is ordered by ascending week number; the last element is the current week
	WeeklyData []WeekMetrics `json:"weekly_data" validate:"dive"`
}

// RemainingBoostData describes how much of a locker's max boost is still claimable.
type RemainingBoostData struct {
	MaxBoostRemaining  float64 `json:"max_boost_remaining"`
	MaxBoostAllocation float64 `json:"max_boost_allocation"`
}

// BoostDelegate is an account whose boost capacity can be claimed against for a fee.
type BoostDelegate struct {
	Address              string  `json:"address" validate:"required"`
	ENSName              string  `json:"ens_name,omitempty"`
	FeeBps               int     `json:"fee_bps" validate:"gte=0,lte=10000"`
	MaxBoostAllocation   float64 `json:"max_boost_allocation" validate:"gte=0"`
	MaxBoostRemaining    float64 `json:"max_boost_remaining" validate:"gte=0"`
	PctMaxConsumed       float64 `json:"pct_max_consumed"`
	DecayBoostAllocation float64 `json:"decay_boost_allocation" validate:"gte=0"`
	DecayBoostRemaining  float64 `json:"decay_boost_remaining" validate:"gte=0"`
	PctDecayConsumed     float64 `json:"pct_decay_consumed"`
}

// DisplayName returns the ENS name when known, otherwise a shortened checksummed address.
func (d BoostDelegate) DisplayName() string {
	if d.ENSName != "" {
		return d.ENSName
	}
	return ShortAddress(d.Address)
}

// ShortAddress renders 0xAbCd...1234 for hex addresses and returns anything else untouched.
func ShortAddress(addr string) string {
	if !common.IsHexAddress(addr) {
		return addr
	}
	hex := common.HexToAddress(addr).Hex()
	return hex[:6] + "..." + hex[len(hex)-4:]
}

// WeekEmission is one row of the emissions schedule.
type WeekEmission struct {
	SystemWeek           int     `json:"system_week" validate:"gte=0"`
	EmissionsWeek        int     `json:"emissions_week" validate:"gte=0"`
	WeekStartTimestamp   int64   `json:"week_start_timestamp"`
	AllocatedEmissions   float64 `json:"allocated_emissions"`
	NetEmissionsReturned float64 `json:"net_emissions_returned"`

	// NetEmissionsNotes is optional rich text supplied by the publisher
	NetEmissionsNotes string `json:"net_emissions_notes,omitempty"`

	LockWeeks  int     `json:"lock_weeks"`
	PenaltyPct float64 `json:"penalty_pct"`

	// Projected marks estimated, forward-looking rows
	Projected bool `json:"projected"`

	ProtocolFeeDistribution *FeeDistribution `json:"protocol_fee_distribution,omitempty"`
}

// FeeDistribution is the protocol fee payout attached to an emissions week.
type FeeDistribution struct {
	TotalValue    float64             `json:"total_value"`
	Distributions []TokenDistribution `json:"distributions"`
}

// TokenDistribution is a single token's share of a fee distribution.
type TokenDistribution struct {
	Token  string  `json:"token"`
	Symbol string  `json:"symbol,omitempty"`
	Amount float64 `json:"amount"`
	Value  float64 `json:"value"`
}

// DistributionPeriod is one entry of the distribution schedule.
type DistributionPeriod struct {
	Period         int     `json:"period"`
	StartTimestamp int64   `json:"start_timestamp"`
	EndTimestamp   int64   `json:"end_timestamp"`
	Amount         float64 `json:"amount"`
	Token          string  `json:"token,omitempty"`
}

// PriceInfo is the price entry for a token address.
type PriceInfo struct {
	Symbol   string  `json:"symbol"`
	Price    float64 `json:"price"`
	Decimals int     `json:"decimals,omitempty"`
}

// UpdatedTime returns UpdatedAt as a time.Time
func (s *Snapshot) UpdatedTime() time.Time {
	return time.Unix(s.UpdatedAt, 0).UTC()
}

// EntityKeys returns the entity keys in lexical order.
func (s *Snapshot) EntityKeys() []string {
	keys := make([]string, 0, len(s.Entities))
	for k := range s.Entities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ResolvePair fills an unset pair with the first two entity keys in lexical order.
func (s *Snapshot) ResolvePair(p Pair) Pair {
	if !p.IsZero() {
		return p
	}
	keys := s.EntityKeys()
	if len(keys) >= 2 {
		return Pair{A: keys[0], B: keys[1]}
	}
	return p
}

// Series returns both entities of the pair or an error wrapping ErrInvalidSnapshot.
func (s *Snapshot) Series(p Pair) (EntitySeries, EntitySeries, error) {
	if s == nil || s.Entities == nil {
		return EntitySeries{}, EntitySeries{}, fmt.Errorf("%w: no entities", ErrInvalidSnapshot)
	}
	a, ok := s.Entities[p.A]
	if !ok {
		return EntitySeries{}, EntitySeries{}, fmt.Errorf("%w: entity %q not found", ErrInvalidSnapshot, p.A)
	}
	b, ok := s.Entities[p.B]
	if !ok {
		return EntitySeries{}, EntitySeries{}, fmt.Errorf("%w: entity %q not found", ErrInvalidSnapshot, p.B)
	}
	return a, b, nil
}

// TokenSymbol returns the symbol known for a token address, falling back to the short address.
func (s *Snapshot) TokenSymbol(token string) string {
	if p, ok := s.TokenPrices[token]; ok && p.Symbol != "" {
		return p.Symbol
	}
	if common.IsHexAddress(token) {
		// price keys are not always checksummed
		for k, p := range s.TokenPrices {
			if p.Symbol != "" && common.IsHexAddress(k) && common.HexToAddress(k) == common.HexToAddress(token) {
				return p.Symbol
			}
		}
	}
	return ShortAddress(token)
}
