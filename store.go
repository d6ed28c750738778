package authority

import "github.com/cespare/xxhash/v2"

// ruleStore is the append-only rule sequence. Insertion order is
// semantically significant: higher index means added later, and
// later-added rules take precedence during evaluation. There is no
// removal. Not safe for concurrent use; the engine serializes access.
type ruleStore struct {
	rules []*Rule
}

// add appends a rule.
func (s *ruleStore) add(r *Rule) {
	s.rules = append(s.rules, r)
}

// len returns the number of stored rules.
func (s *ruleStore) len() int {
	return len(s.rules)
}

// all returns the full store in insertion order. The returned slice is a
// copy callers may hold.
func (s *ruleStore) all() []*Rule {
	return append([]*Rule(nil), s.rules...)
}

// relevant filters the store down to rules relevant to the given resource
// type and alias-expanded action set, preserving insertion order. It
// builds a fresh slice on every call; published slices are never mutated.
func (s *ruleStore) relevant(resourceType string, actions []string) []*Rule {
	out := make([]*Rule, 0, len(s.rules))
	for _, r := range s.rules {
		if r.IsRelevant(resourceType, actions...) {
			out = append(out, r)
		}
	}
	return out
}

// cacheKey hashes an (action, resource type) pair into a relevance cache
// key. The key uses the raw queried action, not the expanded set; the
// expansion is part of the cached result.
func cacheKey(action, resourceType string) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(action)
	_, _ = h.Write([]byte{0}) // separator
	_, _ = h.WriteString(resourceType)
	return h.Sum64()
}

// relevanceCache memoizes the relevant-rule list per (action, resource
// type) key. Entries share rule pointers with the store but the slices
// themselves are immutable once published. The engine clears the cache on
// every mutation that can change relevance (rule or alias registration),
// so entries always reflect the store state at last fetch.
type relevanceCache struct {
	entries map[uint64][]*Rule
}

func newRelevanceCache() *relevanceCache {
	return &relevanceCache{entries: make(map[uint64][]*Rule)}
}

// get retrieves a cached list. Returns (list, true) on hit.
func (c *relevanceCache) get(key uint64) ([]*Rule, bool) {
	rules, ok := c.entries[key]
	return rules, ok
}

// put stores a list under the key. Fills are idempotent: two goroutines
// racing to fill the same key compute identical lists, so the loser's
// overwrite is harmless.
func (c *relevanceCache) put(key uint64, rules []*Rule) {
	c.entries[key] = rules
}

// clear drops every entry. Called when relevance may have changed.
func (c *relevanceCache) clear() {
	c.entries = make(map[uint64][]*Rule)
}

// size returns the number of cached keys.
func (c *relevanceCache) size() int {
	return len(c.entries)
}
