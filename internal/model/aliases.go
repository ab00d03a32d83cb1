package model

import (
	"encoding/json"
	"fmt"
)

// Older and camelCase field names accepted on input, mapped to the canonical key.
var (
	snapshotAliases = map[string]string{
		"prisma_week":          "week",
		"updatedAt":            "updated_at",
		"entities":             "liquid_lockers",
		"emissionsSchedule":    "emissions_schedule",
		"distributionSchedule": "distribution_schedule",
		"boostDelegates":       "boost_delegates",
		"tokenPrices":          "token_prices",
	}

	seriesAliases = map[string]string{
		"currentStakingApr": "current_staking_apr",
		"currentLpApr":      "current_lp_apr",
		"weeklyData":        "weekly_data",
	}

	weekAliases = map[string]string{
		"weekNumber":         "week_number",
		"remainingBoostData": "remaining_boost_data",
	}

	delegateAliases = map[string]string{
		"ensName":              "ens_name",
		"feeBps":               "fee_bps",
		"maxBoostAllocation":   "max_boost_allocation",
		"maxBoostRemaining":    "max_boost_remaining",
		"pctMaxConsumed":       "pct_max_consumed",
		"decayBoostAllocation": "decay_boost_allocation",
		"decayBoostRemaining":  "decay_boost_remaining",
		"pctDecayConsumed":     "pct_decay_consumed",
	}

	emissionAliases = map[string]string{
		"systemWeek":              "system_week",
		"emissionsWeek":           "emissions_week",
		"weekStartTimestamp":      "week_start_timestamp",
		"allocatedEmissions":      "allocated_emissions",
		"netEmissionsReturned":    "net_emissions_returned",
		"netEmissionsNotes":       "net_emissions_notes",
		"lockWeeks":               "lock_weeks",
		"penaltyPct":              "penalty_pct",
		"protocolFeeDistribution": "protocol_fee_distribution",
	}
)

// renameAliases moves aliased members to their canonical key. A canonical key
// already present wins over its alias.
func renameAliases(raw map[string]json.RawMessage, aliases map[string]string) {
	for alias, canonical := range aliases {
		msg, ok := raw[alias]
		if !ok {
			continue
		}
		if _, exists := raw[canonical]; !exists {
			raw[canonical] = msg
		}
		delete(raw, alias)
	}
}

func canonicalize(data []byte, aliases map[string]string) ([]byte, error) {
	if isNull(data) {
		return data, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	renameAliases(raw, aliases)
	return json.Marshal(raw)
}

// UnmarshalJSON accepts canonical and aliased member names.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	type plain Snapshot
	data, err := canonicalize(data, snapshotAliases)
	if err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}
	return json.Unmarshal(data, (*plain)(s))
}

// UnmarshalJSON accepts canonical and aliased member names.
func (e *EntitySeries) UnmarshalJSON(data []byte) error {
	type plain EntitySeries
	data, err := canonicalize(data, seriesAliases)
	if err != nil {
		return fmt.Errorf("decoding entity series: %w", err)
	}
	return json.Unmarshal(data, (*plain)(e))
}

// UnmarshalJSON accepts canonical and aliased member names.
func (d *BoostDelegate) UnmarshalJSON(data []byte) error {
	type plain BoostDelegate
	data, err := canonicalize(data, delegateAliases)
	if err != nil {
		return fmt.Errorf("decoding boost delegate: %w", err)
	}
	return json.Unmarshal(data, (*plain)(d))
}

// UnmarshalJSON accepts canonical and aliased member names.
func (w *WeekEmission) UnmarshalJSON(data []byte) error {
	type plain WeekEmission
	data, err := canonicalize(data, emissionAliases)
	if err != nil {
		return fmt.Errorf("decoding emission week: %w", err)
	}
	return json.Unmarshal(data, (*plain)(w))
}
