// Package classifier assigns a category, tags and a difficulty to a snippet.
//
// TWO CLASSIFIERS:
//   - Heuristic: deterministic pattern rules over the raw code. Pure, total,
//     never fails. It is both the default and the fallback.
//   - Remote: an optional injected capability (e.g. an LLM behind an HTTP API)
//     that may return a richer result, or fail.
//
// Classifier combines them: it asks the remote first (when configured) and
// substitutes the heuristic result on ANY failure. Remote and heuristic
// results are never merged field by field.
package classifier

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sakif/html-scratchpad/internal/analyzer"
	"github.com/sakif/html-scratchpad/internal/model"
)

// Difficulty thresholds. A tier is chosen when ANY of its three limits is
// exceeded; the advanced tier is checked first.
const (
	AdvancedLineCount     = 200
	AdvancedScriptLength  = 2000
	AdvancedTagCount      = 4
	IntermediateLineCount = 80
	IntermediateScriptLen = 500
	IntermediateTagCount  = 2

	// MinKeyframesForAnimation: the Animation category needs MORE than this
	// many @keyframes blocks.
	MinKeyframesForAnimation = 2
)

// tagRule is one entry of the tag checklist.
type tagRule struct {
	tag     string
	pattern *regexp.Regexp
}

// tagChecklist is evaluated in order against the lower-cased code; every
// matching rule appends its tag. The order here is the order tags appear in
// the result.
var tagChecklist = []tagRule{
	{"animation", regexp.MustCompile(`@keyframes|animation:|transition:`)},
	{"responsive", regexp.MustCompile(`@media`)},
	{"flexbox", regexp.MustCompile(`display:\s*flex`)},
	{"css-grid", regexp.MustCompile(`display:\s*grid`)},
	{"canvas", regexp.MustCompile(`<canvas`)},
	{"form", regexp.MustCompile(`<form`)},
	{"api", regexp.MustCompile(`fetch\(|xmlhttprequest|axios`)},
	{"svg", regexp.MustCompile(`<svg`)},
	{"data-viz", regexp.MustCompile(`chart|graph|plot`)},
	{"storage", regexp.MustCompile(`localstorage|sessionstorage`)},
}

var (
	canvasRe    = regexp.MustCompile(`<canvas`)
	gameWordsRe = regexp.MustCompile(`game|score|player|collision`)
	drawWordsRe = regexp.MustCompile(`draw|chart`)
	keyframesRe = regexp.MustCompile(`(?i)@keyframes`)
	formRe      = regexp.MustCompile(`<form`)
	inputRe     = regexp.MustCompile(`<input`)
	landmarkRe  = regexp.MustCompile(`<nav|<header|<footer|<aside`)
	contentRe   = regexp.MustCompile(`<section|<main`)
	layoutRe    = regexp.MustCompile(`@media|display:\s*(flex|grid)`)
	widgetRe    = regexp.MustCompile(`<button|<modal|<dialog|<dropdown`)
)

// Heuristic classifies code with pattern rules only.
//
// CATEGORY PRIORITY CHAIN (first match wins):
//
//  1. <canvas> + game words (game/score/player/collision) → Game
//  2. data-viz tag, or <canvas> + draw/chart              → Data Visualization
//  3. animation tag + more than 2 @keyframes              → Animation
//  4. <form> containing an <input>                        → Form
//  5. api tag                                             → API Integration
//  6. nav/header/footer/aside + section/main              → Landing Page
//  7. @media or display:flex/grid                         → Layout
//  8. button/modal/dialog/dropdown                        → UI Component
//  9. otherwise                                           → Uncategorized
//
// The order is the tie-break: a canvas game is never a visualisation, and a
// responsive form is a Form because rule 4 runs before rule 7.
func Heuristic(code string) model.Classification {
	lower := strings.ToLower(code)

	tags := make([]string, 0, len(tagChecklist))
	for _, rule := range tagChecklist {
		if rule.pattern.MatchString(lower) {
			tags = append(tags, rule.tag)
		}
	}
	has := func(tag string) bool {
		for _, t := range tags {
			if t == tag {
				return true
			}
		}
		return false
	}

	category := model.CategoryUncategorized
	switch {
	case canvasRe.MatchString(lower) && gameWordsRe.MatchString(lower):
		category = model.CategoryGame
	case has("data-viz") || (canvasRe.MatchString(lower) && drawWordsRe.MatchString(lower)):
		category = model.CategoryDataVisualization
	case has("animation") && len(keyframesRe.FindAllStringIndex(code, -1)) > MinKeyframesForAnimation:
		category = model.CategoryAnimation
	case formRe.MatchString(lower) && inputRe.MatchString(lower):
		category = model.CategoryForm
	case has("api"):
		category = model.CategoryAPIIntegration
	case landmarkRe.MatchString(lower) && contentRe.MatchString(lower):
		category = model.CategoryLandingPage
	case layoutRe.MatchString(lower):
		category = model.CategoryLayout
	case widgetRe.MatchString(lower):
		category = model.CategoryUIComponent
	}

	difficulty := estimateDifficulty(code, len(tags))

	if len(tags) > model.MaxTags {
		tags = tags[:model.MaxTags]
	}

	return model.Classification{
		Category:   category,
		Tags:       tags,
		Difficulty: difficulty,
	}
}

// estimateDifficulty uses the line count, the summed character length of
// all script blocks and the number of detected tags (before truncation to MaxTags).
func estimateDifficulty(code string, tagCount int) model.Difficulty {
	lineCount := strings.Count(code, "\n") + 1

	scriptLength := 0
	for _, block := range analyzer.ScriptBlocks(code) {
		scriptLength += utf8.RuneCountInString(block)
	}

	switch {
	case lineCount > AdvancedLineCount || scriptLength > AdvancedScriptLength || tagCount > AdvancedTagCount:
		return model.DifficultyAdvanced
	case lineCount > IntermediateLineCount || scriptLength > IntermediateScriptLen || tagCount > IntermediateTagCount:
		return model.DifficultyIntermediate
	default:
		return model.DifficultyBeginner
	}
}
