package models

import (
	"strings"
	"time"
)

// Category is a top-level grouping of glossary terms. The name is globally
// unique under case normalization; NameKey holds the normalized form used
// for the uniqueness constraint.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	NameKey   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Subcategory is a grouping nested under one category. Name uniqueness is
// scoped to the parent category, case-normalized.
type Subcategory struct {
	ID         string    `json:"id"`
	CategoryID string    `json:"category_id"`
	Name       string    `json:"name"`
	NameKey    string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// NormalizeCategoryName produces the case-normalized key under which
// category and subcategory names are unique. "Machine Learning" and
// "machine learning" map to the same key.
func NormalizeCategoryName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
