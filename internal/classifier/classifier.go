// Package classifier buckets predicates by the number of relations they
// reference and answers subset-membership queries against those buckets.
package classifier

// Predicate is a single atomic filter conjunct together with the set of
// relation aliases it references.
type Predicate struct {
	Text      string
	Relations map[string]bool
}

// Set holds the predicates applicable to a particular relation subset,
// partitioned by arity.
type Set struct {
	Selections []string
	Joins      []string
	Complex    []string
}

// Classifier accumulates predicates in insertion order and classifies them
// into selections (1 relation), joins (2 relations) and complex (3+
// relations) buckets once Finalize is called.
type Classifier struct {
	all        []Predicate
	selections []Predicate
	joins      []Predicate
	complex    []Predicate
}

// New creates an empty Classifier.
func New() *Classifier {
	return &Classifier{}
}

// Add records a predicate with the relations it touches. Call Finalize once
// all predicates have been added.
func (c *Classifier) Add(text string, relations map[string]bool) {
	c.all = append(c.all, Predicate{Text: text, Relations: relations})
}

// Finalize partitions every added predicate into its arity bucket,
// preserving insertion order within each bucket.
func (c *Classifier) Finalize() {
	c.selections = c.selections[:0]
	c.joins = c.joins[:0]
	c.complex = c.complex[:0]
	for _, p := range c.all {
		switch len(p.Relations) {
		case 1:
			c.selections = append(c.selections, p)
		case 2:
			c.joins = append(c.joins, p)
		default:
			c.complex = append(c.complex, p)
		}
	}
}

// Selections returns every finalized single-relation predicate whose
// relation is table, preserving insertion order.
func (c *Classifier) Selections(table string) []string {
	var out []string
	for _, p := range c.selections {
		if p.Relations[table] {
			out = append(out, p.Text)
		}
	}
	return out
}

// ForSubset returns the selections/joins/complex predicates applicable to
// subset: every predicate whose relation set is a subset of subset,
// preserving insertion order within each bucket.
func (c *Classifier) ForSubset(subset map[string]bool) Set {
	var s Set
	s.Selections = appendSubsetMatches(s.Selections, c.selections, subset)
	s.Joins = appendSubsetMatches(s.Joins, c.joins, subset)
	s.Complex = appendSubsetMatches(s.Complex, c.complex, subset)
	return s
}

func appendSubsetMatches(out []string, preds []Predicate, subset map[string]bool) []string {
	for _, p := range preds {
		if isSubsetOf(p.Relations, subset) {
			out = append(out, p.Text)
		}
	}
	return out
}

func isSubsetOf(small, big map[string]bool) bool {
	for r := range small {
		if !big[r] {
			return false
		}
	}
	return true
}
