package model

// Category is the closed set of snippet categories.
//
// The string values are part of the stable contract with the persistence and
// UI layers: they are stored verbatim and shown to users.
type Category string

const (
	CategoryLayout            Category = "Layout"
	CategoryAnimation         Category = "Animation"
	CategoryForm              Category = "Form"
	CategoryGame              Category = "Game"
	CategoryAPIIntegration    Category = "API Integration"
	CategoryDataVisualization Category = "Data Visualization"
	CategoryUIComponent       Category = "UI Component"
	CategoryUtility           Category = "Utility"
	CategoryLandingPage       Category = "Landing Page"
	CategoryUncategorized     Category = "Uncategorized"
)

var categories = []Category{
	CategoryLayout,
	CategoryAnimation,
	CategoryForm,
	CategoryGame,
	CategoryAPIIntegration,
	CategoryDataVisualization,
	CategoryUIComponent,
	CategoryUtility,
	CategoryLandingPage,
	CategoryUncategorized,
}

// Categories returns every category in declaration order.
// The returned slice is a copy; callers may modify it.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// Valid reports whether c is one of the ten known categories.
func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// Difficulty is a snippet's estimated skill level.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Difficulties returns every difficulty, easiest first.
func Difficulties() []Difficulty {
	return []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}
}

// Valid reports whether d is one of the three known levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// MaxTags is the maximum number of tags a classification may carry.
const MaxTags = 5

// Classification is the structured metadata produced for one code string,
// either by the heuristic classifier or by a remote model.
type Classification struct {
	Category   Category   `json:"category"`
	Tags       []string   `json:"tags"`
	Difficulty Difficulty `json:"difficulty"`
}
