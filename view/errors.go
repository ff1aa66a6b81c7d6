package view

import "fmt"

// CorruptionError is returned by Open when the page table cannot be
// reconstructed into a consistent GroupIndex: an unreachable page, a cycle
// in the prevPageId chain, or a partial traversal.
type CorruptionError struct {
	Group  string
	Reason string
}

func (e *CorruptionError) Error() string {
	if e.Group != "" {
		return fmt.Sprintf("orderedview: group %q: %s", e.Group, e.Reason)
	}
	return fmt.Sprintf("orderedview: %s", e.Reason)
}

// InvariantError reports a runtime invariant violation: a page missing an
// expected rowid, metadata missing for a known page id, a page missing from
// its group's list, or a rowid with no key in the Source. An empty group is
// not an error (it is NoGroup and excludes the row). It is always fatal for
// the transaction in progress.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("orderedview: invariant violation: %s", e.Reason)
}

// MutationDuringEnumerationError is raised when a user callback mutates the
// group being enumerated without requesting the enumeration to stop.
type MutationDuringEnumerationError struct {
	Group string
}

func (e *MutationDuringEnumerationError) Error() string {
	return fmt.Sprintf("orderedview: group %q mutated during enumeration", e.Group)
}
