package db

// TagFilter restricts results to documents whose Field equals one of Values.
// Multiple filters are ANDed.
type TagFilter struct {
	Field  string
	Values []string
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Filters      []TagFilter
	Vector       []float32
	K            int
	ReturnFields []string
}

// TextQuery is the input for full-text search.
type TextQuery struct {
	IndexName    string
	Query        string
	Filters      []TagFilter
	TopK         int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search. For KNN searches
// Score is a cosine similarity in [0,1]; for text searches it is the
// backend's relevance rank.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// MatchesFilters reports whether fields satisfy every filter.
func MatchesFilters(fields map[string]string, filters []TagFilter) bool {
	for _, f := range filters {
		if len(f.Values) == 0 {
			continue
		}
		v, ok := fields[f.Field]
		if !ok {
			return false
		}
		hit := false
		for _, want := range f.Values {
			if v == want {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// Project returns the subset of fields named in names, or all fields when
// names is empty.
func Project(fields map[string]string, names []string) map[string]string {
	if len(names) == 0 {
		out := make(map[string]string, len(fields))
		for k, v := range fields {
			out[k] = v
		}
		return out
	}
	out := make(map[string]string, len(names))
	for _, n := range names {
		if v, ok := fields[n]; ok {
			out[n] = v
		}
	}
	return out
}
