// Package ranking filters and orders event collections for display.
//
// The pipeline runs in two passes: an optional max-distance filter, then a
// stable sort by the requested criterion. It never mutates its input and is
// idempotent, so callers can re-run it freely as distance data trickles in
// from the enrichment workers.
package ranking

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/volunteerops/volmatch/internal/domain/model"
)

// Criterion selects the sort key for the pipeline.
type Criterion string

// Supported sort criteria.
const (
	ByDistance Criterion = "distance"
	ByDate     Criterion = "date"
	ByPriority Criterion = "priority"
	ByName     Criterion = "name"
)

// Direction selects the sort order.
type Direction string

// Supported sort directions.
const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseCriterion normalizes a criterion label. Unknown labels are returned
// as-is; Rank treats them as "no sort".
func ParseCriterion(s string) Criterion {
	return Criterion(strings.ToLower(strings.TrimSpace(s)))
}

// ParseDirection normalizes a direction label. It also accepts the legacy
// priority option names "high-to-low" and "low-to-high" so call sites do
// not have to special-case priority ordering. Anything unrecognized falls
// back to ascending.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desc", "descending", "high-to-low":
		return Descending
	case "low-to-high":
		return Ascending
	}
	return Ascending
}

// Options configures one ranking pass.
type Options struct {
	Criterion Criterion
	Direction Direction

	// MaxDistance is the inclusive upper bound, in miles, applied when
	// RestrictToMax is set. Events without distance data are dropped by
	// the filter rather than sorted last.
	MaxDistance   float64
	RestrictToMax bool
}

// Rank returns a new, filtered and ordered event list. The input slice and
// its elements are left untouched. An unknown criterion passes the
// (possibly filtered) list through in input order.
func Rank(events []model.Event, opts Options) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if opts.RestrictToMax {
			if e.Distance == nil || e.Distance.DistanceValue > opts.MaxDistance {
				continue
			}
		}
		out = append(out, e)
	}

	less := comparator(opts.Criterion, opts.Direction)
	if less == nil {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// comparator builds the "ranks earlier" predicate for a criterion, or nil
// when the criterion is unknown.
func comparator(c Criterion, dir Direction) func(a, b model.Event) bool {
	desc := dir == Descending
	switch c {
	case ByDistance:
		return func(a, b model.Event) bool {
			// Missing distance sinks last regardless of direction, so the
			// output stays stable while enrichment is still in flight.
			switch {
			case a.Distance == nil && b.Distance == nil:
				return false
			case b.Distance == nil:
				return true
			case a.Distance == nil:
				return false
			}
			if desc {
				return a.Distance.DistanceValue > b.Distance.DistanceValue
			}
			return a.Distance.DistanceValue < b.Distance.DistanceValue
		}
	case ByDate:
		return func(a, b model.Event) bool {
			// Malformed dates decode to the zero time and sort as "oldest".
			if desc {
				return a.Date.After(b.Date)
			}
			return a.Date.Before(b.Date)
		}
	case ByPriority:
		return func(a, b model.Event) bool {
			// Ascending means Low before High.
			if desc {
				return a.Urgency.Rank() > b.Urgency.Rank()
			}
			return a.Urgency.Rank() < b.Urgency.Rank()
		}
	case ByName:
		// A collate.Collator is not safe for concurrent use, so each
		// ranking pass gets its own.
		collator := collate.New(language.English, collate.IgnoreCase)
		return func(a, b model.Event) bool {
			cmp := collator.CompareString(a.Name, b.Name)
			if desc {
				return cmp > 0
			}
			return cmp < 0
		}
	}
	return nil
}
