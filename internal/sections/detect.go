package sections

import (
	"regexp"
	"strings"

	"github.com/glossarion/glossarion/internal/models"
)

// fencePattern matches fenced code block delimiters (``` or ~~~) at the
// start of a line, allowing 0-3 spaces of indentation per CommonMark.
var fencePattern = regexp.MustCompile("(?m)^[ ]{0,3}(`{3,}|~{3,})")

// diagramMarkers are keywords whose presence classifies content as a
// diagram specification (mermaid and friends).
var diagramMarkers = []string{
	"```mermaid",
	"graph TD",
	"graph LR",
	"flowchart ",
	"sequenceDiagram",
	"classDiagram",
	"stateDiagram",
}

// quizPattern matches quiz-like structured content: question/answer pairs
// in either "Q:/A:" or "Question:/Answer:" form.
var quizPattern = regexp.MustCompile(`(?mi)^\s*(?:Q\d*|Question\s*\d*)\s*[:.]`)

// answerPattern matches an answer line accompanying a question line.
var answerPattern = regexp.MustCompile(`(?mi)^\s*(?:A\d*|Answer\s*\d*|Correct)\s*[:.]`)

// markdownPattern matches structure that distinguishes markdown from plain
// text: headers, list items, emphasis, or links.
var markdownPattern = regexp.MustCompile(`(?m)^#{1,6}\s|^\s*[-*+]\s|\*\*[^*]+\*\*|\[[^\]]+\]\([^)]+\)`)

// DetectKind classifies content by inspecting its markers. Detection order
// matters: diagram markers may sit inside a fence, so they are checked
// before generic code fences.
func DetectKind(content string, fallback models.ContentKind) models.ContentKind {
	if strings.TrimSpace(content) == "" {
		return fallback
	}

	for _, m := range diagramMarkers {
		if strings.Contains(content, m) {
			return models.KindDiagram
		}
	}

	if quizPattern.MatchString(content) && answerPattern.MatchString(content) {
		return models.KindInteractive
	}

	if fencePattern.MatchString(content) {
		return models.KindCode
	}

	if fallback == models.KindText || fallback == models.KindMedia {
		return fallback
	}

	if markdownPattern.MatchString(content) {
		return models.KindMarkdown
	}

	return fallback
}
