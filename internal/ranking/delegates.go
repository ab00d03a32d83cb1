package ranking

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yourorg/locker-metrics/internal/model"
)

// Delegate sort keys.
const (
	KeyName                 = "name"
	KeyAddress              = "address"
	KeyFeeBps               = "fee_bps"
	KeyMaxBoostAllocation   = "max_boost_allocation"
	KeyMaxBoostRemaining    = "max_boost_remaining"
	KeyPctMaxConsumed       = "pct_max_consumed"
	KeyDecayBoostAllocation = "decay_boost_allocation"
	KeyDecayBoostRemaining  = "decay_boost_remaining"
	KeyPctDecayConsumed     = "pct_decay_consumed"
)

type delegateCompare func(a, b model.BoostDelegate) int

func byFloat(f func(model.BoostDelegate) float64) delegateCompare {
	return func(a, b model.BoostDelegate) int { return Compare(f(a), f(b)) }
}

var delegateKeys = map[string]delegateCompare{
	KeyName: func(a, b model.BoostDelegate) int {
		return Compare(strings.ToLower(a.DisplayName()), strings.ToLower(b.DisplayName()))
	},
	KeyAddress: func(a, b model.BoostDelegate) int {
		return Compare(strings.ToLower(a.Address), strings.ToLower(b.Address))
	},
	KeyFeeBps:               func(a, b model.BoostDelegate) int { return Compare(a.FeeBps, b.FeeBps) },
	KeyMaxBoostAllocation:   byFloat(func(d model.BoostDelegate) float64 { return d.MaxBoostAllocation }),
	KeyMaxBoostRemaining:    byFloat(func(d model.BoostDelegate) float64 { return d.MaxBoostRemaining }),
	KeyPctMaxConsumed:       byFloat(func(d model.BoostDelegate) float64 { return d.PctMaxConsumed }),
	KeyDecayBoostAllocation: byFloat(func(d model.BoostDelegate) float64 { return d.DecayBoostAllocation }),
	KeyDecayBoostRemaining:  byFloat(func(d model.BoostDelegate) float64 { return d.DecayBoostRemaining }),
	KeyPctDecayConsumed:     byFloat(func(d model.BoostDelegate) float64 { return d.PctDecayConsumed }),
}

// DelegateKeys lists the supported delegate sort keys in lexical order.
func DelegateKeys() []string {
	keys := make([]string, 0, len(delegateKeys))
	for k := range delegateKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SortDelegates returns a sorted copy of list ordered by key.
func SortDelegates(list []model.BoostDelegate, key string, dir Direction) ([]model.BoostDelegate, error) {
	c, ok := delegateKeys[key]
	if !ok {
		return nil, fmt.Errorf("unknown delegate sort key %q", key)
	}
	return Sort(list, c, dir), nil
}

// FilterByAllocation keeps delegates with at least minAllocation max boost allocated.
func FilterByAllocation(list []model.BoostDelegate, minAllocation float64, enabled bool) []model.BoostDelegate {
	return FilterByThreshold(list, func(d model.BoostDelegate) float64 { return d.MaxBoostAllocation }, minAllocation, enabled)
}
