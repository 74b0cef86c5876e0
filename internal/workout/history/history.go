package history

import (
	"fmt"
	"strconv"

	"github.com/2beens/abtracker/internal/workout"
	"github.com/2beens/abtracker/internal/workout/catalog"
)

// SessionPoint is one logged set of an exercise, placed on the global
// session axis. SessionIndex is the 1-based position of the session in
// the log, regardless of the template used.
type SessionPoint struct {
	SessionIndex int     `json:"sessionIndex"`
	Date         string  `json:"date"`
	Weight       float64 `json:"weight"`
	Reps         int     `json:"reps"`
}

func (p SessionPoint) String() string {
	return fmt.Sprintf("Session %d (%s): %s lbs", p.SessionIndex, p.Date, strconv.FormatFloat(p.Weight, 'f', -1, 64))
}

type ExerciseHistory struct {
	Exercise catalog.Exercise `json:"exercise"`
	Points   []SessionPoint   `json:"points"`
}

// Bounds returns the weight extremes and the range used to normalize them.
// The range is never below 1 unit when all weights are equal, so it is
// always safe to divide by.
func (h ExerciseHistory) Bounds() (minWeight, maxWeight, rng float64) {
	if len(h.Points) == 0 {
		return 0, 0, 1
	}

	minWeight, maxWeight = h.Points[0].Weight, h.Points[0].Weight
	for _, p := range h.Points[1:] {
		if p.Weight < minWeight {
			minWeight = p.Weight
		}
		if p.Weight > maxWeight {
			maxWeight = p.Weight
		}
	}

	rng = maxWeight - minWeight
	if rng <= 0 {
		rng = 1
	}
	return minWeight, maxWeight, rng
}

// Normalized maps every weight into [0, 1] relative to the history bounds.
func (h ExerciseHistory) Normalized() []float64 {
	minWeight, _, rng := h.Bounds()
	normalized := make([]float64, len(h.Points))
	for i, p := range h.Points {
		normalized[i] = (p.Weight - minWeight) / rng
	}
	return normalized
}

// Histories holds only exercises with at least one point, in catalog order.
type Histories struct {
	list []ExerciseHistory
	byID map[string]int
}

// Aggregate projects the log into per exercise histories. Logs must be
// in append order. Sets referencing exercises not in the given list are
// ignored. It keeps no state, callers re-run it whenever the log changes.
func Aggregate(logs []workout.LogEntry, exercises []catalog.Exercise) Histories {
	points := make(map[string][]SessionPoint, len(exercises))
	for _, ex := range exercises {
		points[ex.ID] = nil
	}

	for i, log := range logs {
		sessionIndex := i + 1
		for _, set := range log.Sets {
			exPoints, known := points[set.ExerciseID]
			if !known {
				continue
			}
			points[set.ExerciseID] = append(exPoints, SessionPoint{
				SessionIndex: sessionIndex,
				Date:         log.Date,
				Weight:       set.Weight,
				Reps:         set.Reps,
			})
		}
	}

	h := Histories{
		byID: make(map[string]int),
	}
	for _, ex := range exercises {
		exPoints := points[ex.ID]
		if len(exPoints) == 0 {
			continue
		}
		if _, dup := h.byID[ex.ID]; dup {
			continue
		}
		h.byID[ex.ID] = len(h.list)
		h.list = append(h.list, ExerciseHistory{
			Exercise: ex,
			Points:   exPoints,
		})
	}

	return h
}

func (h Histories) Len() int {
	return len(h.list)
}

func (h Histories) IsEmpty() bool {
	return len(h.list) == 0
}

func (h Histories) Get(exerciseID string) (ExerciseHistory, bool) {
	i, ok := h.byID[exerciseID]
	if !ok {
		return ExerciseHistory{}, false
	}
	return h.list[i], true
}

// List returns all histories in catalog order.
func (h Histories) List() []ExerciseHistory {
	return append([]ExerciseHistory(nil), h.list...)
}

// Exercises lists the exercises that have history, for exercise pickers.
func (h Histories) Exercises() []catalog.Exercise {
	exercises := make([]catalog.Exercise, 0, len(h.list))
	for _, eh := range h.list {
		exercises = append(exercises, eh.Exercise)
	}
	return exercises
}

// Default is the history selected when none was picked yet: the first
// exercise, in catalog order, that has data.
func (h Histories) Default() (ExerciseHistory, bool) {
	if len(h.list) == 0 {
		return ExerciseHistory{}, false
	}
	return h.list[0], true
}

// Select returns the history of exerciseID, falling back to Default when
// that exercise has no data.
func (h Histories) Select(exerciseID string) (ExerciseHistory, bool) {
	if eh, ok := h.Get(exerciseID); ok {
		return eh, true
	}
	return h.Default()
}

// NewHistories rebuilds Histories from an already aggregated list, e.g.
// one read back from a cache. Empty and repeated exercises are dropped.
func NewHistories(list []ExerciseHistory) Histories {
	h := Histories{
		byID: make(map[string]int, len(list)),
	}
	for _, eh := range list {
		if len(eh.Points) == 0 {
			continue
		}
		if _, dup := h.byID[eh.Exercise.ID]; dup {
			continue
		}
		h.byID[eh.Exercise.ID] = len(h.list)
		h.list = append(h.list, eh)
	}
	return h
}
