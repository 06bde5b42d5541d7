package modlib

import (
	"debug/elf"
	"sync"

	"github.com/zzby0/modlib/symtab"
)

// The global entry point table serves a narrower bootstrap-time symbol
// class than general undefined-symbol linkage. It is independent of the
// module registry and resolved by binary search over names.

var (
	globalMu sync.RWMutex
	globals  symtab.Sorted
)

// SetGlobalTable installs the entry point table. Entries are copied and
// kept name sorted; the table is expected to be set once at startup.
func SetGlobalTable(entries []symtab.Entry) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globals = symtab.Sort(entries)
}

// LookupGlobal resolves name against the entry point table.
func LookupGlobal(name string) (uintptr, bool) {
	globalMu.RLock()
	defer globalMu.RUnlock()
	entry, ok := globals.Lookup(name)
	return entry.Value, ok
}

// FindGlobal materializes sym's name and resolves it against the entry
// point table. Name failures are returned; an unmatched name is reported
// through the second result, not as an error.
func (l *LoadInfo) FindGlobal(sym *elf.Sym32, strtabOff uint32) (uintptr, bool, error) {
	name, err := l.SymbolName(sym, strtabOff)
	if err != nil {
		return 0, false, err
	}
	addr, ok := LookupGlobal(name)
	return addr, ok, nil
}
