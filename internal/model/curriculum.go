package model

import "time"

// Curriculum is an ordered learning path through existing snippets.
//
// INVARIANT: for N steps, the set of Step.Order values is exactly {0..N-1}.
// The curriculum package is the only code that reorders steps.
type Curriculum struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	UserID      string           `json:"userId,omitempty"`
	Steps       []CurriculumStep `json:"steps"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// CurriculumStep points at a snippet by ID.
//
// SnippetID is a weak reference: the snippet may have been deleted since the
// step was added. Anything that dereferences it must handle a miss.
type CurriculumStep struct {
	ID          string `json:"id"`
	SnippetID   string `json:"snippetId"`
	Order       int    `json:"order"`
	Note        string `json:"note"`
	IsCompleted bool   `json:"isCompleted"`
}

// Clone returns a deep copy of c; the Steps slice is not shared.
func (c Curriculum) Clone() Curriculum {
	steps := make([]CurriculumStep, len(c.Steps))
	copy(steps, c.Steps)
	c.Steps = steps
	return c
}
