// Package registry is the single lookup table describing every metric the
// service knows how to label, format and compare.
package registry

import "strings"

// Metric identifiers as they appear in the snapshot or are derived from it.
const (
	Peg                   = "peg"
	LockGain              = "lock_gain"
	BoostMultiplier       = "current_boost_multiplier"
	GlobalWeightRatio     = "global_weight_ratio"
	Weight                = "weight"
	GlobalWeight          = "global_weight"
	BoostFeesCollected    = "boost_fees_collected"
	EmissionsClaimed      = "emissions_claimed"
	MaxBoostRemaining     = "max_boost_remaining"
	MaxBoostAllocation    = "max_boost_allocation"
	StakingAPR            = "current_staking_apr"
	LpAPR                 = "current_lp_apr"
	WeeklyDominance       = "weekly_dominance"
	AdjustedWeightCapture = "adjusted_weight_capture"
	FeeBps                = "fee_bps"
	PenaltyPct            = "penalty_pct"
	AllocatedEmissions    = "allocated_emissions"
	NetEmissionsReturned  = "net_emissions_returned"
	DecayBoostAllocation  = "decay_boost_allocation"
	DecayBoostRemaining   = "decay_boost_remaining"
	PctMaxConsumed        = "pct_max_consumed"
	PctDecayConsumed      = "pct_decay_consumed"
	ProtocolFeeTotalValue = "protocol_fee_total_value"
)

// Unit controls how a metric value is rendered.
type Unit int

const (
	UnitNumber     Unit = iota // grouped, two decimals
	UnitPercent                // 0-1 fraction shown as a percentage
	UnitAPR                    // 0-1 fraction shown as a two-decimal percentage
	UnitMultiplier             // two decimals with an "x" suffix
	UnitCount                  // grouped integer
)

func (u Unit) String() string {
	switch u {
	case UnitPercent:
		return "percent"
	case UnitAPR:
		return "apr"
	case UnitMultiplier:
		return "multiplier"
	case UnitCount:
		return "count"
	default:
		return "number"
	}
}

// Direction says which side of a comparison is preferable.
type Direction int

const (
	Neutral Direction = iota
	HigherIsBetter
	LowerIsBetter
)

func (d Direction) String() string {
	switch d {
	case HigherIsBetter:
		return "higherIsBetter"
	case LowerIsBetter:
		return "lowerIsBetter"
	default:
		return "neutral"
	}
}

// MarshalText lets directions appear by name in JSON view-models
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Metric describes one metric id.
type Metric struct {
	ID        string
	Name      string
	Unit      Unit
	Direction Direction

	// HeadToHead is false for governance-internal metrics that are charted but
	// not shown as a comparison row.
	HeadToHead bool
}

var metrics = map[string]Metric{
	Peg:                   {Name: "PEG", Unit: UnitNumber, Direction: HigherIsBetter, HeadToHead: true},
	LockGain:              {Name: "LOCKS BY WEEK", Unit: UnitCount, Direction: HigherIsBetter},
	BoostMultiplier:       {Name: "BOOST MULTIPLIER", Unit: UnitMultiplier, Direction: HigherIsBetter, HeadToHead: true},
	GlobalWeightRatio:     {Name: "GOVERNANCE SHARE", Unit: UnitPercent, Direction: HigherIsBetter, HeadToHead: true},
	Weight:                {Unit: UnitCount, Direction: Neutral},
	GlobalWeight:          {Unit: UnitCount, Direction: Neutral},
	BoostFeesCollected:    {Unit: UnitCount, Direction: Neutral},
	EmissionsClaimed:      {Unit: UnitCount, Direction: HigherIsBetter},
	MaxBoostRemaining:     {Unit: UnitCount, Direction: HigherIsBetter},
	MaxBoostAllocation:    {Unit: UnitCount, Direction: HigherIsBetter},
	StakingAPR:            {Name: "STAKING APR", Unit: UnitAPR, Direction: HigherIsBetter, HeadToHead: true},
	LpAPR:                 {Name: "LP APR", Unit: UnitAPR, Direction: HigherIsBetter, HeadToHead: true},
	WeeklyDominance:       {Unit: UnitPercent, Direction: HigherIsBetter},
	AdjustedWeightCapture: {Unit: UnitPercent, Direction: HigherIsBetter},
	FeeBps:                {Name: "FEE (BPS)", Unit: UnitCount, Direction: LowerIsBetter},
	PenaltyPct:            {Name: "PENALTY", Unit: UnitPercent, Direction: LowerIsBetter},
	AllocatedEmissions:    {Unit: UnitCount, Direction: Neutral},
	NetEmissionsReturned:  {Unit: UnitCount, Direction: Neutral},
	DecayBoostAllocation:  {Unit: UnitCount, Direction: HigherIsBetter},
	DecayBoostRemaining:   {Unit: UnitCount, Direction: HigherIsBetter},
	PctMaxConsumed:        {Name: "MAX CONSUMED", Unit: UnitPercent, Direction: LowerIsBetter},
	PctDecayConsumed:      {Name: "DECAY CONSUMED", Unit: UnitPercent, Direction: LowerIsBetter},
	ProtocolFeeTotalValue: {Name: "PROTOCOL FEES", Unit: UnitNumber, Direction: Neutral},
}

func init() {
	for id, m := range metrics {
		m.ID = id
		if m.Name == "" {
			m.Name = defaultName(id)
		}
		metrics[id] = m
	}
}

// Lookup returns the registry entry for id. Unknown ids get a default entry
// (derived name, UnitNumber, Neutral) and ok=false.
func Lookup(id string) (Metric, bool) {
	if m, ok := metrics[id]; ok {
		return m, true
	}
	return Metric{ID: id, Name: defaultName(id), Unit: UnitNumber, Direction: Neutral}, false
}

// DisplayName returns the upper-case label for id
func DisplayName(id string) string {
	m, _ := Lookup(id)
	return m.Name
}

// DirectionOf returns the comparison polarity for id
func DirectionOf(id string) Direction {
	m, _ := Lookup(id)
	return m.Direction
}

// UnitOf returns the display unit for id
func UnitOf(id string) Unit {
	m, _ := Lookup(id)
	return m.Unit
}

// IsHeadToHead reports whether id is meant for the comparison table.
func IsHeadToHead(id string) bool {
	m, _ := Lookup(id)
	return m.HeadToHead
}

func defaultName(id string) string {
	return strings.ToUpper(strings.ReplaceAll(id, "_", " "))
}
