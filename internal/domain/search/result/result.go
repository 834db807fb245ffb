package result

// Result is a single search hit.
type Result struct {
	id       string
	title    string
	abstract string
	distance float64
}

// New creates a search result.
func New(id, title, abstract string, distance float64) Result {
	return Result{id: id, title: title, abstract: abstract, distance: distance}
}

// ID returns the document identifier.
func (r *Result) ID() string { return r.id }

// Title returns the document title.
func (r *Result) Title() string { return r.title }

// Abstract returns the document abstract.
func (r *Result) Abstract() string { return r.abstract }

// Distance returns the cosine distance to the query (smaller is more similar).
func (r *Result) Distance() float64 { return r.distance }

// Ranked is a scored candidate before the document join.
type Ranked struct {
	ID       string
	Distance float64
}

// Less orders candidates by ascending distance, then ascending ID.
func Less(a, b Ranked) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.ID < b.ID
}
