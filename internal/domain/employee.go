package domain

// Employee is a single directory entry. Records carry no identifier; they are
// told apart by position in the collection and by name.
type Employee struct {
	Name       string `json:"name"`
	Department string `json:"department"`
	Role       string `json:"role"`
}

// SearchKind tags a SearchResult.
type SearchKind string

const (
	SearchFound SearchKind = "found"
	SearchEmpty SearchKind = "empty"
)

// SearchResult is either a non-empty set of matches or an explicit empty outcome.
type SearchResult struct {
	Kind    SearchKind `json:"kind"`
	Records []Employee `json:"records,omitempty"`
}

// Found reports whether the search matched at least one record.
func (r SearchResult) Found() bool {
	return r.Kind == SearchFound
}

// NewSearchResult tags matches as found, or empty when there are none.
func NewSearchResult(matches []Employee) SearchResult {
	if len(matches) == 0 {
		return SearchResult{Kind: SearchEmpty}
	}
	return SearchResult{Kind: SearchFound, Records: matches}
}

// HydrationSource records where the initial collection came from.
type HydrationSource string

const (
	HydratedFromPersisted HydrationSource = "persisted"
	HydratedFromSeed      HydrationSource = "seed"
	HydratedFromNone      HydrationSource = "none"
)

// MutationResult is the outcome of a write. Persisted is false when nothing
// reached the store; Warning is set only when a write was attempted and failed.
type MutationResult struct {
	Employees []Employee
	Persisted bool
	Warning   string
}
