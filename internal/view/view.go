// Package view assembles the read-only dashboard projections served by the
// HTTP layer: header and freshness, APR and head-to-head rows, charts,
// emissions and boost delegates. Everything here is a pure function of a
// snapshot, the options and the supplied time.
package view

import (
	"fmt"
	"time"

	"github.com/yourorg/locker-metrics/internal/aggregate"
	"github.com/yourorg/locker-metrics/internal/compare"
	"github.com/yourorg/locker-metrics/internal/freshness"
	"github.com/yourorg/locker-metrics/internal/model"
	"github.com/yourorg/locker-metrics/internal/registry"
	"github.com/yourorg/locker-metrics/internal/series"
)

// Options select what Build renders.
type Options struct {
	// Pair to compare; zero means the first two entity keys in lexical order
	Pair model.Pair

	// Metrics are charted and, minus Compare.Exclude, compared head-to-head
	Metrics []string

	Compare compare.Options

	StaleAfter time.Duration
}

// Header is the top of the dashboard.
type Header struct {
	Week      int              `json:"week"`
	Pair      model.Pair       `json:"pair"`
	Freshness freshness.Status `json:"freshness"`
}

// Chart is one metric's aligned weekly series.
type Chart struct {
	MetricID string              `json:"metric_id"`
	Label    string              `json:"label"`
	Derived  bool                `json:"derived"`
	Points   []series.ChartPoint `json:"points"`
}

// Dashboard is the full projection of one snapshot.
type Dashboard struct {
	Header     Header        `json:"header"`
	APR        []compare.Row `json:"apr"`
	Comparison []compare.Row `json:"comparison"`
	Derived    []compare.Row `json:"derived"`
	Charts     []Chart       `json:"charts"`
	Emissions  []EmissionRow `json:"emissions"`
	Delegates  []DelegateRow `json:"delegates"`
}

// Build projects snap into a Dashboard as of now.
func Build(snap *model.Snapshot, opts Options, now time.Time) (*Dashboard, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: no snapshot loaded", model.ErrInvalidSnapshot)
	}
	pair := snap.ResolvePair(opts.Pair)
	a, b, err := snap.Series(pair)
	if err != nil {
		return nil, err
	}

	charts, err := Charts(snap, pair, opts.Metrics)
	if err != nil {
		return nil, err
	}
	derived, err := derivedRows(snap, pair, opts.Compare.Mode)
	if err != nil {
		return nil, err
	}
	delegates, err := Delegates(snap, DelegateQuery{})
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Header:     header(snap, pair, opts.StaleAfter, now),
		APR:        compare.CompareAPR(a, b),
		Comparison: compare.CompareLastWeek(a, b, opts.Metrics, opts.Compare),
		Derived:    derived,
		Charts:     charts,
		Emissions:  Emissions(snap),
		Delegates:  delegates,
	}, nil
}

// Freshness evaluates the snapshot's age at now.
func Freshness(snap *model.Snapshot, staleAfter time.Duration, now time.Time) freshness.Status {
	return freshness.NewChecker(staleAfter, func() time.Time { return now }).Status(snap.UpdatedAt)
}

func header(snap *model.Snapshot, pair model.Pair, staleAfter time.Duration, now time.Time) Header {
	return Header{
		Week:      snap.Week,
		Pair:      pair,
		Freshness: Freshness(snap, staleAfter, now),
	}
}

// Charts builds one chart per metric id followed by the derived-metric charts.
func Charts(snap *model.Snapshot, pair model.Pair, metricIDs []string) ([]Chart, error) {
	charts := make([]Chart, 0, len(metricIDs)+len(aggregate.DerivedMetrics))
	for _, id := range metricIDs {
		rows, err := series.AlignSeries(snap, pair, id)
		if err != nil {
			return nil, err
		}
		charts = append(charts, Chart{
			MetricID: id,
			Label:    registry.DisplayName(id),
			Points:   series.ChartPoints(rows, id),
		})
	}
	for _, id := range aggregate.DerivedMetrics {
		rows, err := aggregate.DerivedSeries(snap, pair, id)
		if err != nil {
			return nil, err
		}
		charts = append(charts, Chart{
			MetricID: id,
			Label:    registry.DisplayName(id),
			Derived:  true,
			Points:   series.ChartPoints(rows, id),
		})
	}
	return charts, nil
}

func derivedRows(snap *model.Snapshot, pair model.Pair, mode compare.Mode) ([]compare.Row, error) {
	rows := make([]compare.Row, 0, len(aggregate.DerivedMetrics))
	for _, id := range aggregate.DerivedMetrics {
		s, err := aggregate.DerivedSeries(snap, pair, id)
		if err != nil {
			return nil, err
		}
		a, b := aggregate.Last(s)
		rows = append(rows, compare.CompareValues(id, a, b, mode))
	}
	return rows, nil
}
