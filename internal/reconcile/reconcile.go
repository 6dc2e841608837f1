// Package reconcile brings a stored child collection in line with a desired
// list of entries, matching them by identity.
package reconcile

// Mapper tells Reconcile how to identify and copy entries.
//
// T is the stored entry type, D the desired entry type and K the identity.
// DesiredID reports false for entries that have no identity yet.
type Mapper[T, D any, K comparable] struct {
	CurrentID func(T) K
	DesiredID func(D) (K, bool)
	Update    func(*T, D)
	Create    func(D) T
}

// Result lists the entries Reconcile touched, in the order it touched them.
// Updated holds the values after the update.
type Result[T any] struct {
	Added   []T
	Updated []T
	Removed []T
}

// Changed reports whether anything was added or removed. Updates are not
// counted since Update always overwrites matched entries.
func (r Result[T]) Changed() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0
}

// Reconcile mutates *current so that it matches desired:
//   - stored entries whose identity is not carried by any desired entry are removed
//   - desired entries with an identity update the stored entry with that identity;
//     an identity that matches nothing is ignored
//   - desired entries without an identity are appended as new entries
//
// A nil desired list removes every stored entry. Entries without identity
// never protect a stored entry from removal.
func Reconcile[T, D any, K comparable](current *[]T, desired []D, m Mapper[T, D, K]) Result[T] {
	var result Result[T]

	keep := make(map[K]struct{}, len(desired))
	for _, d := range desired {
		if id, ok := m.DesiredID(d); ok {
			keep[id] = struct{}{}
		}
	}

	kept := (*current)[:0]
	for _, entry := range *current {
		if _, ok := keep[m.CurrentID(entry)]; ok {
			kept = append(kept, entry)
			continue
		}
		result.Removed = append(result.Removed, entry)
	}
	// clear the tail so removed entries are not retained by the backing array
	var zero T
	for i := len(kept); i < len(*current); i++ {
		(*current)[i] = zero
	}
	*current = kept

	index := make(map[K]int, len(kept))
	for i, entry := range kept {
		index[m.CurrentID(entry)] = i
	}

	for _, d := range desired {
		id, ok := m.DesiredID(d)
		if !ok {
			entry := m.Create(d)
			*current = append(*current, entry)
			result.Added = append(result.Added, entry)
			continue
		}
		i, found := index[id]
		if !found {
			continue
		}
		m.Update(&(*current)[i], d)
		result.Updated = append(result.Updated, (*current)[i])
	}

	return result
}
