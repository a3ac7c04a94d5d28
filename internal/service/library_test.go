package service

import (
	"context"
	"testing"
	"time"

	"github.com/sakif/html-scratchpad/internal/model"
)

func TestLibraryStats_OwnerScoped(t *testing.T) {
	snippets := newFakeSnippetRepo()
	folders := newFakeFolderRepo(snippets)
	curriculums := newFakeCurriculumRepo()
	svc := NewLibraryService(snippets, folders, curriculums, newTestLogger())
	svc.now = fixedClock

	snippets.put(model.Snippet{ID: "a", Code: "ab\ncd", Category: model.CategoryGame, UserID: "alice", CreatedAt: testNow.Add(-time.Hour)})
	snippets.put(model.Snippet{ID: "b", Code: "abcdef", UserID: "alice", CreatedAt: testNow.Add(-48 * time.Hour)})
	snippets.put(model.Snippet{ID: "c", Code: "zzz", UserID: "bob", CreatedAt: testNow})
	folders.folders["f"] = model.Folder{ID: "f", Name: "F", UserID: "alice"}
	curriculums.curriculums["k"] = model.Curriculum{ID: "k", Name: "K", UserID: "bob"}

	stats, err := svc.Stats(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}

	if stats.TotalSnippets != 2 || stats.TotalFolders != 1 || stats.TotalCurriculums != 0 {
		t.Errorf("totals = %d/%d/%d, want 2/1/0", stats.TotalSnippets, stats.TotalFolders, stats.TotalCurriculums)
	}
	if stats.CategoryDistribution[model.CategoryGame] != 1 || stats.CategoryDistribution[model.CategoryUncategorized] != 1 {
		t.Errorf("categories = %v", stats.CategoryDistribution)
	}
	if stats.DifficultyDistribution[model.DifficultyBeginner] != 2 {
		t.Errorf("difficulties = %v, want 2 beginner by default", stats.DifficultyDistribution)
	}
	if stats.AvgCodeLength != 6 {
		t.Errorf("AvgCodeLength = %d, want 6", stats.AvgCodeLength)
	}
	if stats.TotalCodeLines != 3 {
		t.Errorf("TotalCodeLines = %d, want 3", stats.TotalCodeLines)
	}
	if len(stats.RecentActivity) != 14 {
		t.Errorf("RecentActivity has %d days, want 14", len(stats.RecentActivity))
	}
}
