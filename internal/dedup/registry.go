// Package dedup holds the run-scoped seen-identifier registry.
//
// The registry is an exact string set: the first occurrence of an identifier
// in the input wins, every later occurrence is skipped. It lives for one run,
// is owned by a single goroutine, and is only ever updated after the chunk
// carrying those identifiers has committed. A failed chunk therefore leaves
// the registry exactly as it was, and retrying the chunk cannot double-insert.
package dedup

// Registry is the seen-identifier set of one run.
type Registry struct {
	seen map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{seen: make(map[string]struct{})}
}

// Has reports whether id was marked by an earlier committed chunk.
func (r *Registry) Has(id string) bool {
	_, ok := r.seen[id]
	return ok
}

// MarkAll records ids as seen. Call it only after the chunk that introduced
// them has committed.
func (r *Registry) MarkAll(ids []string) {
	for _, id := range ids {
		r.seen[id] = struct{}{}
	}
}

// Len returns the number of distinct identifiers marked so far.
func (r *Registry) Len() int { return len(r.seen) }
