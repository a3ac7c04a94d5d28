// Package library reduces the whole snippet library into a LibraryStats
// snapshot.
package library

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sakif/html-scratchpad/internal/model"
)

// ActivityDays is the length of the RecentActivity timeline.
const ActivityDays = 14

const day = 24 * time.Hour

// Aggregate computes library statistics. It is pure given now and never
// modifies its inputs. A category or difficulty outside the enumeration
// (stale rows) counts as Uncategorized or beginner. Code length is in
// characters, not bytes.
//
// ACTIVITY WINDOW:
// Buckets are anchored to the instant now, not to calendar midnight. With
// i running 13..0 the bucket starts at now - i·24h and covers
// [start, start+24h). A snippet lands in the single bucket containing its
// UpdatedAt, or in none.
func Aggregate(snippets []model.Snippet, folders []model.Folder, curriculums []model.Curriculum, now time.Time) model.LibraryStats {
	stats := model.LibraryStats{
		TotalSnippets:          len(snippets),
		TotalFolders:           len(folders),
		TotalCurriculums:       len(curriculums),
		CategoryDistribution:   make(map[model.Category]int, len(model.Categories())),
		DifficultyDistribution: make(map[model.Difficulty]int, len(model.Difficulties())),
		RecentActivity:         make([]model.ActivityDay, 0, ActivityDays),
	}

	for _, c := range model.Categories() {
		stats.CategoryDistribution[c] = 0
	}
	for _, d := range model.Difficulties() {
		stats.DifficultyDistribution[d] = 0
	}

	totalChars := 0
	for _, s := range snippets {
		category := s.Category
		if !category.Valid() {
			category = model.CategoryUncategorized
		}
		stats.CategoryDistribution[category]++

		difficulty := s.Difficulty
		if !difficulty.Valid() {
			difficulty = model.DifficultyBeginner
		}
		stats.DifficultyDistribution[difficulty]++

		totalChars += utf8.RuneCountInString(s.Code)
		stats.TotalCodeLines += strings.Count(s.Code, "\n") + 1
	}

	if len(snippets) > 0 {
		stats.AvgCodeLength = int(math.Round(float64(totalChars) / float64(len(snippets))))
	}

	for i := ActivityDays - 1; i >= 0; i-- {
		start := now.Add(-time.Duration(i) * day)
		end := start.Add(day)

		count := 0
		for _, s := range snippets {
			if !s.UpdatedAt.Before(start) && s.UpdatedAt.Before(end) {
				count++
			}
		}
		stats.RecentActivity = append(stats.RecentActivity, model.ActivityDay{
			Date:  start.UTC().Format(time.DateOnly),
			Count: count,
		})
	}

	return stats
}
