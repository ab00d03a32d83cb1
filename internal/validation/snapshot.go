// Package validation checks fetched snapshots before they are served.
//
// Structural problems (missing entities, week numbers out of order, a zero
// timestamp) reject the whole snapshot. Problems confined to a single boost
// delegate row only drop that row.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/locker-metrics/internal/model"
)

var validate = validator.New()

// InvalidSnapshotError lists every structural problem found in a snapshot.
type InvalidSnapshotError struct {
	Problems []string
}

func (e *InvalidSnapshotError) Error() string {
	return fmt.Sprintf("%s: %s", model.ErrInvalidSnapshot, strings.Join(e.Problems, "; "))
}

// Unwrap lets errors.Is match model.ErrInvalidSnapshot.
func (e *InvalidSnapshotError) Unwrap() error {
	return model.ErrInvalidSnapshot
}

// Snapshot validates s and returns an *InvalidSnapshotError when it is unusable.
func Snapshot(s *model.Snapshot) error {
	if s == nil {
		return &InvalidSnapshotError{Problems: []string{"snapshot is empty"}}
	}

	var problems []string
	if err := validate.Struct(s); err != nil {
		problems = append(problems, describe(err)...)
	}

	for _, key := range s.EntityKeys() {
		if key == "" {
			problems = append(problems, "entity key is empty")
			continue
		}
		if p := checkWeeks(key, s.Entities[key].WeeklyData); p != "" {
			problems = append(problems, p)
		}
	}

	if len(problems) > 0 {
		return &InvalidSnapshotError{Problems: problems}
	}
	return nil
}

// checkWeeks requires strictly ascending week numbers so that the last element
// is the current week.
func checkWeeks(key string, weeks []model.WeekMetrics) string {
	for i := 1; i < len(weeks); i++ {
		if weeks[i].WeekNumber <= weeks[i-1].WeekNumber {
			return fmt.Sprintf("%s: week %d follows week %d", key, weeks[i].WeekNumber, weeks[i-1].WeekNumber)
		}
	}
	return ""
}

// Delegate reports why a single boost delegate row is unusable, or nil.
func Delegate(d model.BoostDelegate) error {
	if err := validate.Struct(d); err != nil {
		return errors.New(strings.Join(describe(err), "; "))
	}
	if !common.IsHexAddress(d.Address) {
		return fmt.Errorf("address %q is not a hex address", d.Address)
	}
	return nil
}

// FilterDelegates drops delegate rows that fail Delegate, keeping input order.
func FilterDelegates(delegates []model.BoostDelegate) []model.BoostDelegate {
	valid := make([]model.BoostDelegate, 0, len(delegates))
	for _, d := range delegates {
		if err := Delegate(d); err != nil {
			logrus.WithFields(logrus.Fields{
				"address": d.Address,
				"reason":  err.Error(),
			}).Debug("Filtered invalid boost delegate")
			continue
		}
		valid = append(valid, d)
	}

	if dropped := len(delegates) - len(valid); dropped > 0 {
		logrus.WithFields(logrus.Fields{
			"total":    len(delegates),
			"filtered": dropped,
		}).Info("Boost delegate filtering complete")
	}
	return valid
}

func describe(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			out = append(out, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			out = append(out, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return out
}
