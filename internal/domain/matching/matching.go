// Package matching decides volunteer eligibility for events and computes
// quantified match scores.
//
// All functions here are pure and total: nil slices are treated as empty
// skill sets and no input can cause a panic or an error. Skill comparison
// is case-insensitive everywhere, for both the eligibility test and the
// percentage intersection.
package matching

import (
	"fmt"
	"math"
	"strings"

	"github.com/volunteerops/volmatch/internal/domain/model"
)

// Default composite score weights and normalization bounds.
const (
	defaultSkillWeight    = 0.5
	defaultDistanceWeight = 0.2
	defaultUrgencyWeight  = 0.3
	distanceNormMiles     = 50.0
	percentageScale       = 100.0
)

// Thresholds for match reason generation.
const (
	strongSkillThreshold   = 50.0
	closeDistanceThreshold = 10.0
)

// Urgency contribution to the composite score.
const (
	urgencyScoreHigh   = 1.0
	urgencyScoreMedium = 0.6
	urgencyScoreLow    = 0.3
)

// Eligible reports whether a volunteer may attempt sign-up for an event.
//
// A volunteer with no declared skills is never eligible, regardless of the
// event's requirements: the profile must be completed first. An event with
// no required skills accepts anyone. Otherwise a single overlapping skill
// is enough (ANY-match, not ALL-match).
func Eligible(required, volunteer []string) bool {
	if len(volunteer) == 0 {
		return false
	}
	if len(required) == 0 {
		return true
	}

	have := foldSet(volunteer)
	for _, skill := range required {
		if _, ok := have[fold(skill)]; ok {
			return true
		}
	}
	return false
}

// Percentage returns the share of an event's required skills the volunteer
// covers, as an integer in [0,100]. An event with no required skills yields
// 0: there is nothing to match against.
func Percentage(required, volunteer []string) int {
	if len(required) == 0 {
		return 0
	}

	want := foldSet(required)
	if len(want) == 0 {
		return 0
	}
	have := foldSet(volunteer)
	matched := 0
	for key := range want {
		if _, ok := have[key]; ok {
			matched++
		}
	}
	return int(math.Round(float64(matched) / float64(len(want)) * percentageScale))
}

// OverlapSkills returns the required skills the volunteer covers, in their
// original spelling and input order. Duplicates within required collapse to
// the first occurrence.
func OverlapSkills(required, volunteer []string) []string {
	have := foldSet(volunteer)
	seen := make(map[string]struct{}, len(required))
	var out []string
	for _, skill := range required {
		key := fold(skill)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := have[key]; ok {
			out = append(out, skill)
		}
	}
	return out
}

// fold normalizes a skill name for comparison.
func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// foldSet builds the case-folded set of a skill list.
func foldSet(skills []string) map[string]struct{} {
	set := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		if key := fold(s); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

// urgencyScore converts an urgency level into its score contribution.
// Unknown labels contribute nothing.
func urgencyScore(u model.Urgency) float64 {
	switch strings.ToLower(string(u)) {
	case "high":
		return urgencyScoreHigh
	case "medium":
		return urgencyScoreMedium
	case "low":
		return urgencyScoreLow
	}
	return 0
}

// ScoreInput carries the ingredients of a composite match score.
type ScoreInput struct {
	SkillPercentage float64 // 0-100
	DistanceMiles   float64 // negative means unknown
	Urgency         model.Urgency
}

// Result is the outcome of evaluating one (volunteer, event) pair.
// It is derived data: recomputed on demand, never persisted.
type Result struct {
	EventID         string   `json:"event_id"`
	EventName       string   `json:"event_name"`
	Eligible        bool     `json:"eligible"`
	SkillPercentage int      `json:"skill_match_percentage"`
	MatchedSkills   []string `json:"matched_skills,omitempty"`
	Score           float64  `json:"match_score"`
	DistanceMiles   float64  `json:"distance_miles,omitempty"`
	Urgency         string   `json:"urgency_level"`
	Reasons         []string `json:"reasons,omitempty"`
}

// Option applies a configuration option to the Evaluator.
type Option func(*Evaluator)

// WithWeights sets the skill/distance/urgency weights for the composite
// score. Non-positive values keep the corresponding default.
func WithWeights(skill, distance, urgency float64) Option {
	return func(e *Evaluator) {
		if skill > 0 {
			e.skillWeight = skill
		}
		if distance > 0 {
			e.distanceWeight = distance
		}
		if urgency > 0 {
			e.urgencyWeight = urgency
		}
	}
}

// Evaluator computes match results with configurable score weights.
type Evaluator struct {
	skillWeight    float64
	distanceWeight float64
	urgencyWeight  float64
}

// NewEvaluator creates an Evaluator with default weights.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		skillWeight:    defaultSkillWeight,
		distanceWeight: defaultDistanceWeight,
		urgencyWeight:  defaultUrgencyWeight,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score computes the weighted composite score in [0,100]. Skill percentage
// is folded back to 0-1; distance contributes more the closer the event is,
// flattening to zero at distanceNormMiles; an unknown distance (negative
// input) contributes nothing.
func (e *Evaluator) Score(in ScoreInput) float64 {
	skill := in.SkillPercentage / percentageScale

	distance := 0.0
	if in.DistanceMiles >= 0 {
		distance = math.Max(0, 1-in.DistanceMiles/distanceNormMiles)
	}

	total := skill*e.skillWeight + distance*e.distanceWeight + urgencyScore(in.Urgency)*e.urgencyWeight
	return math.Round(total*percentageScale*100) / 100
}

// EvaluateEvent produces the full match result for one volunteer/event pair.
// distanceMiles < 0 means the distance is not (yet) known.
func (e *Evaluator) EvaluateEvent(profile model.Profile, event model.Event, distanceMiles float64) Result {
	pct := Percentage(event.RequiredSkills, profile.Skills)
	res := Result{
		EventID:         event.ID,
		EventName:       event.Name,
		Eligible:        Eligible(event.RequiredSkills, profile.Skills),
		SkillPercentage: pct,
		MatchedSkills:   OverlapSkills(event.RequiredSkills, profile.Skills),
		DistanceMiles:   distanceMiles,
		Urgency:         string(event.Urgency),
	}
	res.Score = e.Score(ScoreInput{
		SkillPercentage: float64(pct),
		DistanceMiles:   distanceMiles,
		Urgency:         event.Urgency,
	})
	res.Reasons = reasons(float64(pct), distanceMiles, event.Urgency)
	return res
}

// reasons builds the human-readable explanations shown next to a match.
func reasons(skillPct, distanceMiles float64, urgency model.Urgency) []string {
	var out []string
	if skillPct > strongSkillThreshold {
		out = append(out, fmt.Sprintf("Strong skill match (%.1f%%)", skillPct))
	}
	if distanceMiles >= 0 && distanceMiles < closeDistanceThreshold {
		out = append(out, fmt.Sprintf("Close location (%.1f miles)", distanceMiles))
	}
	if urgency == model.UrgencyHigh {
		out = append(out, "High priority event")
	}
	return out
}
