package model

// CodeStats is the shape summary of a single code string.
// It has no identity and is never stored; it is recomputed on demand.
//
// INVARIANT: HTMLLines + CSSLines + JSLines <= TotalLines.
// Blank lines outside <style>/<script> blocks are not counted as HTML.
type CodeStats struct {
	TotalChars           int  `json:"totalChars"`
	TotalLines           int  `json:"totalLines"`
	HTMLLines            int  `json:"htmlLines"`
	CSSLines             int  `json:"cssLines"`
	JSLines              int  `json:"jsLines"`
	TagCount             int  `json:"tagCount"`
	SelectorCount        int  `json:"selectorCount"`
	FunctionCount        int  `json:"functionCount"`
	HasResponsive        bool `json:"hasResponsive"`
	HasAnimation         bool `json:"hasAnimation"`
	HasExternalResources bool `json:"hasExternalResources"`
}

// ActivityDay is one bucket of the library's recent-activity timeline.
type ActivityDay struct {
	Date  string `json:"date"` // UTC date of the bucket start, YYYY-MM-DD
	Count int    `json:"count"`
}

// LibraryStats is a read-only snapshot of the whole library.
// It is flat (no nested entity references) so it can be encoded directly.
type LibraryStats struct {
	TotalSnippets          int                `json:"totalSnippets"`
	TotalFolders           int                `json:"totalFolders"`
	TotalCurriculums       int                `json:"totalCurriculums"`
	CategoryDistribution   map[Category]int   `json:"categoryDistribution"`
	DifficultyDistribution map[Difficulty]int `json:"difficultyDistribution"`
	AvgCodeLength          int                `json:"avgCodeLength"`
	TotalCodeLines         int                `json:"totalCodeLines"`
	RecentActivity         []ActivityDay      `json:"recentActivity"`
}
