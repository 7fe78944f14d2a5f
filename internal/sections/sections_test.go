package sections

import (
	"testing"

	"github.com/glossarion/glossarion/internal/models"
)

func TestCatalogShape(t *testing.T) {
	cat := Catalog()

	if len(cat) != CatalogSize {
		t.Fatalf("catalog size = %d, want %d", len(cat), CatalogSize)
	}

	seen := make(map[string]struct{}, len(cat))
	for _, s := range cat {
		if s.Name == "" {
			t.Error("section with empty name")
		}
		if _, dup := seen[s.Name]; dup {
			t.Errorf("duplicate section name %q", s.Name)
		}
		seen[s.Name] = struct{}{}

		if len(s.SourceColumns) == 0 {
			t.Errorf("section %q has no source columns", s.Name)
		}
		switch s.DefaultKind {
		case models.KindText, models.KindMarkdown, models.KindCode,
			models.KindDiagram, models.KindInteractive, models.KindMedia:
		default:
			t.Errorf("section %q has unknown kind %q", s.Name, s.DefaultKind)
		}
	}
}

func TestSourceColumnsDisjoint(t *testing.T) {
	// No source column may feed two sections; the catalog would otherwise
	// silently duplicate content.
	owner := make(map[string]string)

	for _, s := range Catalog() {
		for _, col := range s.SourceColumns {
			if prev, dup := owner[col]; dup {
				t.Errorf("column %q feeds both %q and %q", col, prev, s.Name)
			}
			owner[col] = s.Name
		}
	}
}

func TestByName(t *testing.T) {
	s, ok := ByName("Code Examples")
	if !ok {
		t.Fatal("Code Examples not found in catalog")
	}
	if s.DefaultKind != models.KindCode {
		t.Errorf("Code Examples kind = %q, want %q", s.DefaultKind, models.KindCode)
	}

	if _, ok := ByName("Nonexistent"); ok {
		t.Error("expected lookup miss for unknown section")
	}
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		fallback models.ContentKind
		want     models.ContentKind
	}{
		{
			name:     "fenced code",
			content:  "Example:\n```python\nprint(1)\n```",
			fallback: models.KindMarkdown,
			want:     models.KindCode,
		},
		{
			name:     "mermaid diagram beats fence",
			content:  "```mermaid\ngraph TD\nA-->B\n```",
			fallback: models.KindMarkdown,
			want:     models.KindDiagram,
		},
		{
			name:     "bare flowchart marker",
			content:  "flowchart LR\nStart --> End",
			fallback: models.KindMarkdown,
			want:     models.KindDiagram,
		},
		{
			name:     "quiz pairs",
			content:  "Q1: What is overfitting?\nA1: Memorizing noise.\nQ2: Fix?\nA2: Regularize.",
			fallback: models.KindMarkdown,
			want:     models.KindInteractive,
		},
		{
			name:     "question without answers stays markdown",
			content:  "Question: what could go wrong?\n- many things",
			fallback: models.KindMarkdown,
			want:     models.KindMarkdown,
		},
		{
			name:     "markdown structure",
			content:  "## Overview\n- point one\n- point two",
			fallback: models.KindMarkdown,
			want:     models.KindMarkdown,
		},
		{
			name:     "plain text fallback preserved",
			content:  "linear algebra, probability",
			fallback: models.KindText,
			want:     models.KindText,
		},
		{
			name:     "empty returns fallback",
			content:  "  ",
			fallback: models.KindMarkdown,
			want:     models.KindMarkdown,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectKind(tc.content, tc.fallback); got != tc.want {
				t.Errorf("DetectKind() = %q, want %q", got, tc.want)
			}
		})
	}
}
