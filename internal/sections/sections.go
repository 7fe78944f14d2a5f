// Package sections defines the static catalog of glossary content sections
// and the mapping from raw source-file columns into them.
//
// The catalog is the single declarative table that answers "which columns
// feed which section". Parsing logic never inspects raw column names
// directly; it walks this catalog.
package sections

import (
	"fmt"
	"sort"

	"github.com/glossarion/glossarion/internal/models"
)

// Spec describes one content section: its display name, the content kind it
// defaults to when detection is inconclusive, and the ordered source columns
// that feed it. The first non-empty column wins; later columns are appended
// as supplementary paragraphs.
type Spec struct {
	Name          string
	DefaultKind   models.ContentKind
	SourceColumns []string
}

// Identity and classification columns. These feed term metadata, not
// sections, and are therefore not part of the catalog itself.
const (
	ColumnTerm            = "Term"
	ColumnShortDefinition = "Short Definition"
	ColumnMainCategory    = "Main Category"
	ColumnSubCategory     = "Sub-category"
	ColumnDifficulty      = "Difficulty Level"
)

// catalog is the fixed, ordered set of the 42 glossary sections. Order is
// presentation order and must not change between runs; persisted section
// ordering depends on it.
var catalog = []Spec{
	{Name: "Introduction", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Introduction – Definition and Overview",
		"Introduction – Key Takeaways",
		"Introduction – Why It Matters",
		"Introduction – Scope and Context",
	}},
	{Name: "Definition", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Definition – Formal Definition",
		"Definition – Plain-Language Explanation",
		"Definition – Alternate Names",
	}},
	{Name: "How It Works", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"How It Works – Step-by-Step Explanation",
		"How It Works – Input and Output",
		"How It Works – Worked Example",
		"How It Works – Intuition",
	}},
	{Name: "Key Concepts", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Key Concepts – Core Ideas",
		"Key Concepts – Terminology",
		"Key Concepts – Mental Models",
	}},
	{Name: "Theoretical Foundations", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Theory – Underlying Principles",
		"Theory – Assumptions",
		"Theory – Proof Sketches",
	}},
	{Name: "Mathematical Formulation", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Math – Formal Notation",
		"Math – Key Equations",
		"Math – Derivations",
		"Math – Complexity Analysis",
	}},
	{Name: "Algorithms", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Algorithms – Pseudocode",
		"Algorithms – Variants",
		"Algorithms – Convergence Properties",
	}},
	{Name: "Types and Variants", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Variants – Major Types",
		"Variants – Extensions",
		"Variants – Hybrid Approaches",
	}},
	{Name: "Historical Context", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"History – Origin and Timeline",
		"History – Key Contributors",
		"History – Evolution of the Field",
	}},
	{Name: "Applications", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Applications – Common Use Cases",
		"Applications – Industry Examples",
		"Applications – Emerging Applications",
	}},
	{Name: "Real-World Examples", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Examples – Case Studies",
		"Examples – Production Systems",
		"Examples – Notable Deployments",
	}},
	{Name: "Advantages", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Advantages – Strengths",
		"Advantages – When to Use",
	}},
	{Name: "Limitations", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Limitations – Weaknesses",
		"Limitations – Failure Modes",
		"Limitations – When Not to Use",
	}},
	{Name: "Ethical Considerations", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Ethics – Bias and Fairness",
		"Ethics – Privacy Implications",
		"Ethics – Societal Impact",
		"Ethics – Responsible Use Guidelines",
	}},
	{Name: "Implementation Notes", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Implementation – Practical Considerations",
		"Implementation – Libraries and APIs",
		"Implementation – Performance Tips",
	}},
	{Name: "Code Examples", DefaultKind: models.KindCode, SourceColumns: []string{
		"Code – Python Example",
		"Code – Minimal Working Example",
		"Code – Advanced Example",
		"Code – Common Snippets",
	}},
	{Name: "Common Pitfalls", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Pitfalls – Frequent Mistakes",
		"Pitfalls – Debugging Tips",
	}},
	{Name: "Best Practices", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Best Practices – Recommendations",
		"Best Practices – Industry Standards",
	}},
	{Name: "Evaluation Metrics", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Evaluation – Relevant Metrics",
		"Evaluation – Benchmarks",
		"Evaluation – Interpretation of Results",
	}},
	{Name: "Hyperparameters", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Hyperparameters – Key Parameters",
		"Hyperparameters – Tuning Strategies",
		"Hyperparameters – Sensible Defaults",
	}},
	{Name: "Optimization Techniques", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Optimization – Training Techniques",
		"Optimization – Efficiency Improvements",
		"Optimization – Scaling Considerations",
	}},
	{Name: "Comparison With Alternatives", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Comparison – Similar Techniques",
		"Comparison – Trade-off Analysis",
		"Comparison – Decision Criteria",
	}},
	{Name: "Prerequisites", DefaultKind: models.KindText, SourceColumns: []string{
		"Prerequisites – Required Knowledge",
		"Prerequisites – Recommended Background",
	}},
	{Name: "Related Terms", DefaultKind: models.KindText, SourceColumns: []string{
		"Related – Closely Related Terms",
		"Related – Broader Concepts",
		"Related – Narrower Concepts",
	}},
	{Name: "Tools and Frameworks", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Tools – Popular Frameworks",
		"Tools – Cloud Services",
		"Tools – Tooling Ecosystem",
	}},
	{Name: "Datasets", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Datasets – Standard Datasets",
		"Datasets – Data Requirements",
	}},
	{Name: "Research Papers", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Research – Seminal Papers",
		"Research – Recent Publications",
		"Research – Survey Articles",
	}},
	{Name: "Further Reading", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Reading – Books",
		"Reading – Articles and Blogs",
		"Reading – Official Documentation",
	}},
	{Name: "Tutorials", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Tutorials – Beginner Tutorials",
		"Tutorials – Advanced Tutorials",
		"Tutorials – Courses",
	}},
	{Name: "Interview Questions", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Interview – Common Questions",
		"Interview – Sample Answers",
	}},
	{Name: "Interactive Quiz", DefaultKind: models.KindInteractive, SourceColumns: []string{
		"Quiz – Questions and Answers",
		"Quiz – Multiple Choice",
		"Quiz – Difficulty Progression",
	}},
	{Name: "Hands-On Exercise", DefaultKind: models.KindInteractive, SourceColumns: []string{
		"Exercise – Guided Exercise",
		"Exercise – Challenge Problem",
		"Exercise – Solution Walkthrough",
	}},
	{Name: "Architecture Diagram", DefaultKind: models.KindDiagram, SourceColumns: []string{
		"Diagram – Architecture Specification",
		"Diagram – Component Breakdown",
	}},
	{Name: "Process Flowchart", DefaultKind: models.KindDiagram, SourceColumns: []string{
		"Flowchart – Process Specification",
		"Flowchart – Decision Points",
	}},
	{Name: "Visual Explanation", DefaultKind: models.KindMedia, SourceColumns: []string{
		"Media – Illustration References",
		"Media – Animation References",
	}},
	{Name: "Video Resources", DefaultKind: models.KindMedia, SourceColumns: []string{
		"Media – Video Links",
		"Media – Lecture Recordings",
	}},
	{Name: "Industry Relevance", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Industry – Adoption Landscape",
		"Industry – Market Impact",
	}},
	{Name: "Career Guidance", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Career – Relevant Roles",
		"Career – Skill Development Path",
	}},
	{Name: "Future Directions", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Future – Open Problems",
		"Future – Research Trends",
		"Future – Predicted Developments",
	}},
	{Name: "Frequently Asked Questions", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"FAQ – Common Questions",
		"FAQ – Misconceptions",
	}},
	{Name: "Glossary Cross-References", DefaultKind: models.KindText, SourceColumns: []string{
		"Cross-Ref – See Also",
		"Cross-Ref – Contrast With",
	}},
	{Name: "Summary", DefaultKind: models.KindMarkdown, SourceColumns: []string{
		"Summary – Key Points Recap",
		"Summary – One-Line Takeaway",
	}},
}

// CatalogSize is the fixed number of content sections per term.
const CatalogSize = 42

var byName map[string]*Spec

func init() {
	if len(catalog) != CatalogSize {
		panic(fmt.Sprintf("section catalog has %d entries, want %d", len(catalog), CatalogSize))
	}

	byName = make(map[string]*Spec, len(catalog))
	for i := range catalog {
		if _, dup := byName[catalog[i].Name]; dup {
			panic("duplicate section name: " + catalog[i].Name)
		}

		byName[catalog[i].Name] = &catalog[i]
	}
}

// Catalog returns the ordered section catalog. Callers must not mutate the
// returned slice.
func Catalog() []Spec {
	return catalog
}

// ByName looks up a section spec by its display name.
func ByName(name string) (*Spec, bool) {
	s, ok := byName[name]

	return s, ok
}

// Names returns the section names in catalog order.
func Names() []string {
	names := make([]string, len(catalog))
	for i, s := range catalog {
		names[i] = s.Name
	}

	return names
}

// AllSourceColumns returns every section source column plus the identity
// columns, sorted. Used by tests and by the converter's header diagnostics.
func AllSourceColumns() []string {
	cols := []string{
		ColumnTerm, ColumnShortDefinition, ColumnMainCategory,
		ColumnSubCategory, ColumnDifficulty,
	}
	for _, s := range catalog {
		cols = append(cols, s.SourceColumns...)
	}

	sort.Strings(cols)

	return cols
}
