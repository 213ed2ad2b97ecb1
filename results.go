package pagex

// Match is a single ranked page.
type Match struct {
	// ID is the page identifier.
	ID string `json:"id"`

	// Score is the similarity between the query and the page text, in [0,1].
	Score float64 `json:"score"`
}

// Results is the outcome of one ranking pass. An empty Items slice means
// nothing relevant was found; it is not an error.
type Results struct {
	// Items contains the ranked matches, best first.
	Items []Match `json:"items"`

	// Query is the original query string for reference.
	Query string `json:"query"`

	// Took is the time taken to rank in milliseconds.
	Took int64 `json:"took_ms"`

	// Confident is true when the best match reached the high threshold and
	// was returned alone.
	Confident bool `json:"confident"`

	// Revision identifies the corpus index the results were computed against.
	Revision string `json:"revision"`

	// Scanned is the number of corpus entries considered.
	Scanned int `json:"scanned"`
}

// Empty reports whether no page cleared the floor threshold.
func (r *Results) Empty() bool {
	return r == nil || len(r.Items) == 0
}

// Best returns the highest ranked match, if any.
func (r *Results) Best() (Match, bool) {
	if r.Empty() {
		return Match{}, false
	}
	return r.Items[0], true
}
