package session

import (
	"strings"

	"github.com/2beens/abtracker/internal/workout/catalog"
)

// Form buffers the text typed for one template until it is submitted.
// Not safe for concurrent use.
type Form struct {
	template catalog.Template
	inputs   map[string]RawInput
}

func NewForm(template catalog.Template) *Form {
	return &Form{
		template: template,
		inputs:   make(map[string]RawInput, len(template.ExerciseIDs)),
	}
}

func (f *Form) Template() catalog.Template {
	return f.template
}

// SetWeight keeps only digits and dots, same as the weight text field does.
func (f *Form) SetWeight(exerciseID, text string) {
	in := f.inputs[exerciseID]
	in.Weight = FilterWeight(text)
	f.inputs[exerciseID] = in
}

// SetReps keeps only digits.
func (f *Form) SetReps(exerciseID, text string) {
	in := f.inputs[exerciseID]
	in.Reps = FilterReps(text)
	f.inputs[exerciseID] = in
}

func (f *Form) Input(exerciseID string) RawInput {
	return f.inputs[exerciseID]
}

// Submit validates the buffered input and, on success, clears every
// field of the template. A rejected submission leaves the input intact.
func (f *Form) Submit(allowPartial bool) Result {
	res := Validate(f.template, f.inputs, allowPartial)
	if res.Accepted() {
		f.Clear()
	}
	return res
}

func (f *Form) Clear() {
	for _, id := range f.template.ExerciseIDs {
		f.inputs[id] = RawInput{}
	}
}

// FilterWeight drops everything but digits and '.'. It does not limit the
// number of dots, validation does.
func FilterWeight(text string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, text)
}

func FilterReps(text string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, text)
}
