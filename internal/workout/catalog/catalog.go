package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateExercise = errors.New("duplicate exercise id")
	ErrDuplicateTemplate = errors.New("duplicate template id")
	ErrUnknownExercise   = errors.New("template references unknown exercise")
)

type Exercise struct {
	ID   string `json:"id" toml:"id"`
	Name string `json:"name" toml:"name"`
}

// Template is one workout variant (A or B). The order of ExerciseIDs
// is the display and validation order.
type Template struct {
	ID          string   `json:"id" toml:"id"`
	Name        string   `json:"name" toml:"name"`
	ExerciseIDs []string `json:"exerciseIds" toml:"exercise_ids"`
}

// Catalog is read only after New returns, and safe for concurrent use.
type Catalog struct {
	exercises     []Exercise
	templates     []Template
	exercisesByID map[string]Exercise
	templatesByID map[string]Template
}

func New(exercises []Exercise, templates []Template) (*Catalog, error) {
	c := &Catalog{
		exercises:     make([]Exercise, 0, len(exercises)),
		templates:     make([]Template, 0, len(templates)),
		exercisesByID: make(map[string]Exercise, len(exercises)),
		templatesByID: make(map[string]Template, len(templates)),
	}

	for _, ex := range exercises {
		if _, ok := c.exercisesByID[ex.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateExercise, ex.ID)
		}
		c.exercisesByID[ex.ID] = ex
		c.exercises = append(c.exercises, ex)
	}

	for _, t := range templates {
		if _, ok := c.templatesByID[t.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTemplate, t.ID)
		}
		seen := make(map[string]bool, len(t.ExerciseIDs))
		for _, exID := range t.ExerciseIDs {
			if _, ok := c.exercisesByID[exID]; !ok {
				return nil, fmt.Errorf("%w: template [%s], exercise [%s]", ErrUnknownExercise, t.ID, exID)
			}
			if seen[exID] {
				return nil, fmt.Errorf("%w: [%s] listed twice in template [%s]", ErrDuplicateExercise, exID, t.ID)
			}
			seen[exID] = true
		}

		// own the slice, callers can't mutate the catalog through it
		t.ExerciseIDs = append([]string(nil), t.ExerciseIDs...)
		c.templatesByID[t.ID] = t
		c.templates = append(c.templates, t)
	}

	return c, nil
}

// Default returns the hard-coded A/B split catalog.
func Default() *Catalog {
	c, err := New(DefaultExercises(), DefaultTemplates())
	if err != nil {
		// static data, can only happen if someone breaks the defaults
		panic(err)
	}
	return c
}

func DefaultExercises() []Exercise {
	return []Exercise{
		{ID: "squat", Name: "Smith Squat"},
		{ID: "deadlift", Name: "Deadlift"},
		{ID: "pulldown", Name: "Close-Grip Palm-Up Pulldown"},
		{ID: "incline_press", Name: "Incline Press"},
		{ID: "dips", Name: "Dips"},
	}
}

func DefaultTemplates() []Template {
	return []Template{
		{
			ID:          "A",
			Name:        "Workout A",
			ExerciseIDs: []string{"squat", "pulldown"},
		},
		{
			ID:          "B",
			Name:        "Workout B",
			ExerciseIDs: []string{"deadlift", "incline_press", "dips"},
		},
	}
}

func (c *Catalog) Exercise(id string) (Exercise, bool) {
	ex, ok := c.exercisesByID[id]
	return ex, ok
}

func (c *Catalog) Template(id string) (Template, bool) {
	t, ok := c.templatesByID[id]
	if !ok {
		return Template{}, false
	}
	t.ExerciseIDs = append([]string(nil), t.ExerciseIDs...)
	return t, true
}

// Exercises returns all exercises in catalog order.
func (c *Catalog) Exercises() []Exercise {
	return append([]Exercise(nil), c.exercises...)
}

func (c *Catalog) Templates() []Template {
	templates := make([]Template, 0, len(c.templates))
	for _, t := range c.templates {
		t.ExerciseIDs = append([]string(nil), t.ExerciseIDs...)
		templates = append(templates, t)
	}
	return templates
}

// TemplateExercises resolves the exercises of a template, in template order.
func (c *Catalog) TemplateExercises(t Template) []Exercise {
	exercises := make([]Exercise, 0, len(t.ExerciseIDs))
	for _, id := range t.ExerciseIDs {
		if ex, ok := c.exercisesByID[id]; ok {
			exercises = append(exercises, ex)
		}
	}
	return exercises
}
