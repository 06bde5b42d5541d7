// Package symtab holds the symbol table lookup primitives shared by
// module export tables, the built-in export table and the global entry
// point table.
package symtab

import (
	"sort"
)

// Entry is one exported (name, value) pair. The name is owned by
// whoever holds the table.
type Entry struct {
	Name  string
	Value uintptr
}

// FindByName scans entries in table order and returns the first match.
// Export tables keep the image's symbol order, so the scan is linear.
func FindByName(entries []Entry, name string) (Entry, bool) {
	for i := range entries {
		if entries[i].Name == name {
			return entries[i], true
		}
	}
	return Entry{}, false
}

// Sorted is a name ordered table resolved by binary search. Both static
// fallback paths (built-in exports and entry points) share it; which of
// them is consulted first is the caller's concern.
type Sorted struct {
	entries []Entry
}

// Sort copies entries into a new Sorted table.
func Sort(entries []Entry) Sorted {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	return Sorted{entries: sorted}
}

// Lookup resolves name by lexicographic binary search.
func (s Sorted) Lookup(name string) (Entry, bool) {
	i := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].Name >= name
	})
	if i < len(s.entries) && s.entries[i].Name == name {
		return s.entries[i], true
	}
	return Entry{}, false
}

// Entries exposes the sorted backing slice; callers must not modify it.
func (s Sorted) Entries() []Entry {
	return s.entries
}

// Len reports the number of entries.
func (s Sorted) Len() int {
	return len(s.entries)
}
