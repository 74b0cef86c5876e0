package session

import (
	"errors"
	"strconv"
	"strings"

	"github.com/2beens/abtracker/internal/workout"
	"github.com/2beens/abtracker/internal/workout/catalog"
)

// ErrUnparsableNumber is the field level failure. It never reaches the
// caller of Validate, only the aggregate Reason does.
var ErrUnparsableNumber = errors.New("unparsable number")

// RawInput is the text the user typed for one exercise.
type RawInput struct {
	Weight string `json:"weight"`
	Reps   string `json:"reps"`
}

// Reason classifies a rejected submission. The zero value means accepted.
type Reason string

const (
	ReasonNone                       Reason = ""
	ReasonIncompleteStrictSubmission Reason = "incomplete_strict_submission"
	ReasonInconsistentPartialEntry   Reason = "inconsistent_partial_entry"
	ReasonEmptySubmission            Reason = "empty_submission"
)

func (r Reason) String() string {
	return string(r)
}

// Message returns the text shown to the user for the rejection.
func (r Reason) Message() string {
	switch r {
	case ReasonIncompleteStrictSubmission:
		return "Please enter numeric weight and reps for all exercises before saving."
	case ReasonInconsistentPartialEntry:
		return "Enter weight and reps together for the exercises you track, or leave them blank."
	case ReasonEmptySubmission:
		return "Add at least one exercise entry before saving."
	default:
		return ""
	}
}

type Result struct {
	Entries []workout.SetEntry
	Reason  Reason
}

func (r Result) Accepted() bool {
	return r.Reason == ReasonNone
}

type fieldState int

const (
	fieldBlank fieldState = iota
	fieldValid
	fieldInvalid
)

// Validate classifies raw per-exercise inputs of a template submission.
// It has no side effects and never fails on malformed input: malformed
// input is reported through Result.Reason. Accepted entries keep the
// template exercise order.
func Validate(template catalog.Template, inputs map[string]RawInput, allowPartial bool) Result {
	var (
		entries    = make([]workout.SetEntry, 0, len(template.ExerciseIDs))
		hasBlank   bool
		hasInvalid bool
	)

	for _, exerciseID := range template.ExerciseIDs {
		entry, state := classify(exerciseID, inputs[exerciseID])
		switch state {
		case fieldBlank:
			hasBlank = true
		case fieldInvalid:
			hasInvalid = true
		case fieldValid:
			entries = append(entries, entry)
		}
	}

	if !allowPartial {
		if hasBlank || hasInvalid || len(entries) != len(template.ExerciseIDs) {
			return Result{Reason: ReasonIncompleteStrictSubmission}
		}
		return Result{Entries: entries}
	}

	if hasInvalid {
		return Result{Reason: ReasonInconsistentPartialEntry}
	}
	if len(entries) == 0 {
		return Result{Reason: ReasonEmptySubmission}
	}

	return Result{Entries: entries}
}

func classify(exerciseID string, raw RawInput) (workout.SetEntry, fieldState) {
	weightText := strings.TrimSpace(raw.Weight)
	repsText := strings.TrimSpace(raw.Reps)
	if weightText == "" && repsText == "" {
		return workout.SetEntry{}, fieldBlank
	}

	weight, err := ParseWeight(weightText)
	if err != nil {
		return workout.SetEntry{}, fieldInvalid
	}
	reps, err := ParseReps(repsText)
	if err != nil {
		return workout.SetEntry{}, fieldInvalid
	}

	return workout.SetEntry{
		ExerciseID: exerciseID,
		Weight:     weight,
		Reps:       reps,
	}, fieldValid
}

// ParseWeight accepts a non-negative decimal: digits with at most one '.'
// and at least one digit. No sign, exponent or locale separators.
func ParseWeight(text string) (float64, error) {
	digits, dots := 0, 0
	for _, c := range text {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return 0, ErrUnparsableNumber
		}
	}
	if digits == 0 || dots > 1 {
		return 0, ErrUnparsableNumber
	}

	weight, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, ErrUnparsableNumber
	}
	return weight, nil
}

// ParseReps accepts a non-negative whole number that fits in 32 bits.
func ParseReps(text string) (int, error) {
	if text == "" {
		return 0, ErrUnparsableNumber
	}
	for _, c := range text {
		if c < '0' || c > '9' {
			return 0, ErrUnparsableNumber
		}
	}

	// reps are stored as a 32-bit integer
	reps, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return 0, ErrUnparsableNumber
	}
	return int(reps), nil
}
