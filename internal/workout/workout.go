package workout

import "time"

// DateLayout is the calendar date format stored with each logged session.
const DateLayout = "2006-01-02"

type SetEntry struct {
	ExerciseID string  `json:"exerciseId"`
	Weight     float64 `json:"weight"`
	Reps       int     `json:"reps"`
}

// LogEntry is one logged session. ID is the creation timestamp in
// milliseconds and grows with append order.
type LogEntry struct {
	ID         int64      `json:"id"`
	TemplateID string     `json:"templateId"`
	Date       string     `json:"date"`
	Sets       []SetEntry `json:"sets"`
}

func (e LogEntry) CreatedAt() time.Time {
	return time.UnixMilli(e.ID)
}
