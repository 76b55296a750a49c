// Package rerun decides whether a named work item must execute in the current
// batch. The only staleness signal is whether the item's output already
// exists; content hashes, modification times, and upstream changes are
// deliberately not consulted, so behavior stays reproducible across clean and
// incremental runs.
package rerun

// Set is a collection of item identities that must run regardless of
// existing output.
type Set map[string]struct{}

// NewSet builds a Set from the caller-supplied identity list.
func NewSet(ids []string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is in the set.
func (s Set) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// ShouldRun applies the rerun decision table, first match wins:
//
//	forceAll                 -> run
//	id in explicit rerun set -> run
//	output missing           -> run
//	otherwise                -> skip
func ShouldRun(id string, outputExists, forceAll bool, explicit Set) bool {
	if forceAll {
		return true
	}
	if explicit.Contains(id) {
		return true
	}
	return !outputExists
}
