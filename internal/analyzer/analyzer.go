// Package analyzer computes shape statistics for a single HTML document.
//
// Everything here is approximate by intent: tags, selectors and functions are
// counted with regular expressions over the raw text, not with an HTML, CSS or
// JavaScript parser. The numbers feed the library statistics view and the
// difficulty estimate, where "roughly right" is all that is needed.
//
// Analyze is pure and total: any string, including "", produces a result.
package analyzer

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sakif/html-scratchpad/internal/model"
)

// PRECOMPILED PATTERNS:
// regexp.MustCompile panics on a bad pattern, so compiling at package init
// means a typo fails the very first test run instead of a live request.
var (
	styleOpenRe   = regexp.MustCompile(`(?i)<style[\s>]`)
	styleCloseRe  = regexp.MustCompile(`(?i)</style>`)
	scriptOpenRe  = regexp.MustCompile(`(?i)<script[\s>]`)
	scriptCloseRe = regexp.MustCompile(`(?i)</script>`)

	tagRe = regexp.MustCompile(`(?i)<[a-z][a-z0-9-]*`)

	styleBlockRe  = regexp.MustCompile(`(?i)<style[\s\S]*?</style>`)
	scriptBlockRe = regexp.MustCompile(`(?i)<script[\s\S]*?</script>`)

	// A run of non-brace characters directly followed by "{" is one rule.
	// "a, b { }" therefore counts once, not twice.
	selectorRe = regexp.MustCompile(`[^{}]+\{`)
	functionRe = regexp.MustCompile(`function\s+\w+|=>\s*[({]|\.addEventListener`)

	responsiveRe = regexp.MustCompile(`(?i)@media`)
	animationRe  = regexp.MustCompile(`(?i)@keyframes|animation:|transition:`)
	externalRe   = regexp.MustCompile(`(?i)src=["']https?:|href=["']https?:`)
)

// Analyze returns line, tag, selector and function counts for code plus three
// feature flags.
//
// LINE CLASSIFICATION:
// Lines are scanned top to bottom with two flags, inStyle and inScript.
// A line holding a closing tag belongs to the block it closes:
//
//	<style>          ← css (opening line is inside the block)
//	  body {}        ← css
//	</style>         ← css, then inStyle = false
//	<p>hi</p>        ← html
//
// Blank lines outside a block are not counted, which is what keeps
// HTMLLines + CSSLines + JSLines <= TotalLines.
func Analyze(code string) model.CodeStats {
	lines := strings.Split(code, "\n")
	stats := model.CodeStats{
		TotalChars: utf8.RuneCountInString(code),
		TotalLines: len(lines),
	}

	inStyle, inScript := false, false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if styleOpenRe.MatchString(trimmed) {
			inStyle = true
		}
		if styleCloseRe.MatchString(trimmed) {
			inStyle = false
			stats.CSSLines++
			continue
		}
		if scriptOpenRe.MatchString(trimmed) {
			inScript = true
		}
		if scriptCloseRe.MatchString(trimmed) {
			inScript = false
			stats.JSLines++
			continue
		}

		switch {
		case inStyle:
			stats.CSSLines++
		case inScript:
			stats.JSLines++
		case trimmed != "":
			stats.HTMLLines++
		}
	}

	stats.TagCount = len(tagRe.FindAllStringIndex(code, -1))

	css := strings.Join(StyleBlocks(code), "\n")
	stats.SelectorCount = len(selectorRe.FindAllStringIndex(css, -1))

	js := strings.Join(ScriptBlocks(code), "\n")
	stats.FunctionCount = len(functionRe.FindAllStringIndex(js, -1))

	stats.HasResponsive = responsiveRe.MatchString(code)
	stats.HasAnimation = animationRe.MatchString(code)
	stats.HasExternalResources = externalRe.MatchString(code)

	return stats
}

// StyleBlocks returns every <style>…</style> block in code, tags included.
func StyleBlocks(code string) []string {
	return styleBlockRe.FindAllString(code, -1)
}

// ScriptBlocks returns every <script>…</script> block in code, tags included.
// The heuristic classifier sums their lengths to estimate difficulty.
func ScriptBlocks(code string) []string {
	return scriptBlockRe.FindAllString(code, -1)
}
