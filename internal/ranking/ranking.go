// Package ranking provides stable, non-mutating sorting and threshold
// filtering for entity lists such as boost delegates.
package ranking

import (
	"cmp"
	"fmt"
	"sort"
	"strings"
)

// Direction is a sort order.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Reverse returns the opposite direction
func (d Direction) Reverse() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// ParseDirection accepts asc/ascending and desc/descending.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("unknown sort direction %q", s)
	}
}

// Compare is a three-way compare using < and >, returning 0 for equal values.
func Compare[V cmp.Ordered](a, b V) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Sort returns a sorted copy of list. Equal elements keep their input order in
// both directions.
func Sort[T any](list []T, compare func(a, b T) int, dir Direction) []T {
	out := make([]T, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i], out[j])
		if dir == Descending {
			return c > 0
		}
		return c < 0
	})
	return out
}

// SortState is the current sort key and direction of a list view.
type SortState struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// Toggle returns the state after a sort request on key: the same key flips
// direction, a new key starts ascending.
func (s SortState) Toggle(key string) SortState {
	if s.Key == key {
		return SortState{Key: key, Direction: s.Direction.Reverse()}
	}
	return SortState{Key: key, Direction: Ascending}
}

// FilterByThreshold drops entries whose field is below minValue. When enabled
// is false the input slice itself is returned.
func FilterByThreshold[T any](list []T, field func(T) float64, minValue float64, enabled bool) []T {
	if !enabled {
		return list
	}
	out := make([]T, 0, len(list))
	for _, item := range list {
		if field(item) >= minValue {
			out = append(out, item)
		}
	}
	return out
}
