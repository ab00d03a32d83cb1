package view

import (
	"time"

	"github.com/yourorg/locker-metrics/internal/format"
	"github.com/yourorg/locker-metrics/internal/model"
	"github.com/yourorg/locker-metrics/internal/registry"
)

// EmissionRow is one formatted row of the emissions schedule.
type EmissionRow struct {
	SystemWeek    int       `json:"system_week"`
	EmissionsWeek int       `json:"emissions_week"`
	WeekStart     time.Time `json:"week_start"`
	Allocated     string    `json:"allocated"`
	NetReturned   string    `json:"net_returned"`
	Notes         string    `json:"notes,omitempty"`
	LockWeeks     int       `json:"lock_weeks"`
	Penalty       string    `json:"penalty"`
	Projected     bool      `json:"projected"`
	FeeTotal      string    `json:"fee_total,omitempty"`
	Fees          []FeeLine `json:"fees,omitempty"`
}

// FeeLine is a single token of a protocol fee distribution.
type FeeLine struct {
	Token  string `json:"token"`
	Symbol string `json:"symbol"`
	Amount string `json:"amount"`
	Value  string `json:"value"`
}

// Emissions formats the emissions schedule in published order.
func Emissions(snap *model.Snapshot) []EmissionRow {
	rows := make([]EmissionRow, len(snap.EmissionsSchedule))
	for i, e := range snap.EmissionsSchedule {
		row := EmissionRow{
			SystemWeek:    e.SystemWeek,
			EmissionsWeek: e.EmissionsWeek,
			WeekStart:     time.Unix(e.WeekStartTimestamp, 0).UTC(),
			Allocated:     format.FormatFloat(e.AllocatedEmissions, registry.AllocatedEmissions, format.Table),
			NetReturned:   format.FormatFloat(e.NetEmissionsReturned, registry.NetEmissionsReturned, format.Table),
			Notes:         e.NetEmissionsNotes,
			LockWeeks:     e.LockWeeks,
			Penalty:       format.FormatFloat(e.PenaltyPct, registry.PenaltyPct, format.Table),
			Projected:     e.Projected,
		}
		if fd := e.ProtocolFeeDistribution; fd != nil {
			row.FeeTotal = "$" + format.FormatFloat(fd.TotalValue, registry.ProtocolFeeTotalValue, format.Table)
			row.Fees = make([]FeeLine, len(fd.Distributions))
			for j, d := range fd.Distributions {
				symbol := d.Symbol
				if symbol == "" {
					symbol = snap.TokenSymbol(d.Token)
				}
				row.Fees[j] = FeeLine{
					Token:  d.Token,
					Symbol: symbol,
					Amount: format.Grouped(d.Amount, 2),
					Value:  "$" + format.Grouped(d.Value, 2),
				}
			}
		}
		rows[i] = row
	}
	return rows
}
