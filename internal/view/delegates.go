package view

import (
	"strconv"

	"github.com/yourorg/locker-metrics/internal/format"
	"github.com/yourorg/locker-metrics/internal/model"
	"github.com/yourorg/locker-metrics/internal/ranking"
	"github.com/yourorg/locker-metrics/internal/registry"
)

// DelegateQuery sorts and filters the boost delegate table. An empty Key keeps
// the published order.
type DelegateQuery struct {
	Key       string
	Direction ranking.Direction

	// MinAllocation applies only when Filter is set
	MinAllocation float64
	Filter        bool
}

// DelegateRow is a boost delegate with display strings.
type DelegateRow struct {
	Name                 string `json:"name"`
	Address              string `json:"address"`
	ShortAddress         string `json:"short_address"`
	Fee                  string `json:"fee"`
	MaxBoostAllocation   string `json:"max_boost_allocation"`
	MaxBoostRemaining    string `json:"max_boost_remaining"`
	PctMaxConsumed       string `json:"pct_max_consumed"`
	DecayBoostAllocation string `json:"decay_boost_allocation"`
	DecayBoostRemaining  string `json:"decay_boost_remaining"`
	PctDecayConsumed     string `json:"pct_decay_consumed"`

	Raw model.BoostDelegate `json:"raw"`
}

// Delegates filters then sorts the snapshot's boost delegates.
func Delegates(snap *model.Snapshot, q DelegateQuery) ([]DelegateRow, error) {
	list := ranking.FilterByAllocation(snap.BoostDelegates, q.MinAllocation, q.Filter)
	if q.Key != "" {
		sorted, err := ranking.SortDelegates(list, q.Key, q.Direction)
		if err != nil {
			return nil, err
		}
		list = sorted
	}

	rows := make([]DelegateRow, len(list))
	for i, d := range list {
		rows[i] = delegateRow(d)
	}
	return rows, nil
}

func delegateRow(d model.BoostDelegate) DelegateRow {
	return DelegateRow{
		Name:                 d.DisplayName(),
		Address:              d.Address,
		ShortAddress:         model.ShortAddress(d.Address),
		Fee:                  strconv.Itoa(d.FeeBps) + " bps",
		MaxBoostAllocation:   format.FormatFloat(d.MaxBoostAllocation, registry.MaxBoostAllocation, format.Table),
		MaxBoostRemaining:    format.FormatFloat(d.MaxBoostRemaining, registry.MaxBoostRemaining, format.Table),
		PctMaxConsumed:       format.FormatFloat(d.PctMaxConsumed, registry.PctMaxConsumed, format.Table),
		DecayBoostAllocation: format.FormatFloat(d.DecayBoostAllocation, registry.DecayBoostAllocation, format.Table),
		DecayBoostRemaining:  format.FormatFloat(d.DecayBoostRemaining, registry.DecayBoostRemaining, format.Table),
		PctDecayConsumed:     format.FormatFloat(d.PctDecayConsumed, registry.PctDecayConsumed, format.Table),
		Raw:                  d,
	}
}
