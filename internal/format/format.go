// Package format turns raw metric values into display strings.
//
// Values are rounded half away from zero in decimal space before rendering,
// and thousands are grouped with the English locale.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/yourorg/locker-metrics/internal/registry"
)

// Context is where a formatted value will be shown.
type Context int

const (
	Graph Context = iota
	Table
	Tooltip
	TableTooltip
)

func (c Context) String() string {
	switch c {
	case Table:
		return "table"
	case Tooltip:
		return "tooltip"
	case TableTooltip:
		return "table-tooltip"
	default:
		return "graph"
	}
}

// ParseContext maps a context name to a Context, defaulting to Graph.
func ParseContext(s string) Context {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table":
		return Table
	case "tooltip":
		return Tooltip
	case "table-tooltip", "tabletooltip", "table_tooltip":
		return TableTooltip
	default:
		return Graph
	}
}

var (
	printer = message.NewPrinter(language.English)
	hundred = decimal.NewFromInt(100)
)

// Format renders value for metricID in ctx. A nil value renders as "".
func Format(value *float64, metricID string, ctx Context) string {
	if value == nil {
		return ""
	}
	return FormatFloat(*value, metricID, ctx)
}

// FormatFloat is Format for a known value. NaN and infinities render as "".
func FormatFloat(v float64, metricID string, ctx Context) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}

	switch registry.UnitOf(metricID) {
	case registry.UnitPercent:
		switch ctx {
		case TableTooltip:
			// underlying weight counts, not a percentage
			return Grouped(v, 0)
		case Tooltip:
			return Percent(v, 2)
		default:
			return Percent(v, 0)
		}
	case registry.UnitAPR:
		return Percent(v, 2)
	case registry.UnitMultiplier:
		return Fixed(v, 2) + "x"
	case registry.UnitCount:
		return Grouped(v, 0)
	default:
		return Grouped(v, 2)
	}
}

// Fixed renders v with exactly places decimals and no grouping.
func Fixed(v float64, places int) string {
	return decimal.NewFromFloat(v).StringFixed(int32(places))
}

// Percent renders a 0-1 fraction as a percentage with places decimals.
func Percent(v float64, places int) string {
	return decimal.NewFromFloat(v).Mul(hundred).StringFixed(int32(places)) + "%"
}

// Grouped renders v with thousands separators and exactly places decimals.
func Grouped(v float64, places int) string {
	rounded, _ := decimal.NewFromFloat(v).Round(int32(places)).Float64()
	if rounded == 0 {
		// avoid "-0"
		rounded = 0
	}
	return printer.Sprintf(fmt.Sprintf("%%.%df", places), rounded)
}

// Count renders v as a grouped integer.
func Count(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return Grouped(v, 0)
}
