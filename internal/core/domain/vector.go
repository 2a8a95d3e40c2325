package domain

// VectorRecord is a single (key, vector, metadata) entry in a vector store.
type VectorRecord struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// Match is a scored hit returned by a vector store.
type Match struct {
	// ID is the stored key.
	ID string

	// Score is the store's similarity score; higher is more similar.
	Score float64

	// Metadata is the map stored with the vector.
	Metadata map[string]any
}

// MetaString returns a string metadata value, or "" when absent or not a string.
func (m Match) MetaString(key string) string {
	if m.Metadata == nil {
		return ""
	}
	s, _ := m.Metadata[key].(string)
	return s
}
