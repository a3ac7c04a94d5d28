// Package curriculum holds the step-list operations for a Curriculum.
//
// Every function here is a pure transformation: it takes a Curriculum by
// value and returns a new one whose Steps slice is never shared with the
// input. After every operation the step orders are exactly {0..N-1}.
//
// NO-OPS:
// An unknown step ID, moving the first step up and moving the last step down
// all return the curriculum unchanged, UpdatedAt included.
package curriculum

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/html-scratchpad/internal/model"
)

// Direction is the way ReorderStep moves a step.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection validates a direction from user input.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Up, Down:
		return d, nil
	default:
		return "", fmt.Errorf("curriculum: unknown direction %q", s)
	}
}

// AddStep appends a step pointing at snippetID. The snippet is not looked up:
// steps are weak references.
func AddStep(c model.Curriculum, snippetID, note string, now time.Time) model.Curriculum {
	out := c.Clone()
	out.Steps = append(out.Steps, model.CurriculumStep{
		ID:        xid.New().String(),
		SnippetID: snippetID,
		Order:     len(out.Steps),
		Note:      note,
	})
	out.UpdatedAt = now
	return out
}

// RemoveStep deletes a step and closes the gap it leaves.
func RemoveStep(c model.Curriculum, stepID string, now time.Time) model.Curriculum {
	if indexOf(c.Steps, stepID) < 0 {
		return c
	}

	steps := sortedSteps(c.Steps)
	kept := steps[:0]
	for _, s := range steps {
		if s.ID != stepID {
			kept = append(kept, s)
		}
	}

	out := c
	out.Steps = renumber(kept)
	out.UpdatedAt = now
	return out
}

// ToggleStep flips a step's completion flag.
func ToggleStep(c model.Curriculum, stepID string, now time.Time) model.Curriculum {
	i := indexOf(c.Steps, stepID)
	if i < 0 {
		return c
	}

	out := c.Clone()
	out.Steps[i].IsCompleted = !out.Steps[i].IsCompleted
	out.UpdatedAt = now
	return out
}

// ReorderStep swaps a step with its neighbour in the given direction.
// Moves past either end are clamped, never wrapped.
func ReorderStep(c model.Curriculum, stepID string, dir Direction, now time.Time) model.Curriculum {
	steps := sortedSteps(c.Steps)

	i := indexOf(steps, stepID)
	if i < 0 {
		return c
	}

	var j int
	switch dir {
	case Up:
		j = i - 1
	case Down:
		j = i + 1
	default:
		return c
	}
	if j < 0 || j >= len(steps) {
		return c
	}

	steps[i], steps[j] = steps[j], steps[i]

	out := c
	out.Steps = renumber(steps)
	out.UpdatedAt = now
	return out
}

// Progress is the completed share of steps as a whole percentage, 0 when there
// are no steps.
func Progress(c model.Curriculum) int {
	if len(c.Steps) == 0 {
		return 0
	}
	done := 0
	for _, s := range c.Steps {
		if s.IsCompleted {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(len(c.Steps)) * 100))
}

// Update applies op to the curriculum with the given ID and returns a new
// list. An unknown ID returns the list as-is.
func Update(list []model.Curriculum, curriculumID string, op func(model.Curriculum) model.Curriculum) []model.Curriculum {
	for i := range list {
		if list[i].ID != curriculumID {
			continue
		}
		out := make([]model.Curriculum, len(list))
		copy(out, list)
		out[i] = op(list[i])
		return out
	}
	return list
}

// sortedSteps returns a copy of steps sorted by Order. The sort is stable so
// duplicate orders from bad data keep their slice order.
func sortedSteps(steps []model.CurriculumStep) []model.CurriculumStep {
	out := make([]model.CurriculumStep, len(steps))
	copy(out, steps)
	sort.SliceStable(out, func(a, b int) bool { return out[a].Order < out[b].Order })
	return out
}

func renumber(steps []model.CurriculumStep) []model.CurriculumStep {
	for i := range steps {
		steps[i].Order = i
	}
	return steps
}

func indexOf(steps []model.CurriculumStep, stepID string) int {
	for i, s := range steps {
		if s.ID == stepID {
			return i
		}
	}
	return -1
}
