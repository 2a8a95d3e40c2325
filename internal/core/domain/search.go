package domain

// DefaultTopK is the number of matches returned when no limit is given.
const DefaultTopK = 5

// SearchOptions configures a search query.
type SearchOptions struct {
	// TopK is the maximum number of results.
	TopK int
}

// SearchResult represents a single search hit.
type SearchResult struct {
	// Match is the raw store hit.
	Match Match

	// Title is the stored document title.
	Title string

	// Preview is the stored content preview.
	Preview string

	// Origin is where the document came from.
	Origin Origin
}

// ResultFromMatch projects a store match into a search result.
func ResultFromMatch(m Match) SearchResult {
	return SearchResult{
		Match:   m,
		Title:   m.MetaString(MetaTitle),
		Preview: m.MetaString(MetaPreview),
		Origin:  Origin(m.MetaString(MetaOrigin)),
	}
}
