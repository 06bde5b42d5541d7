package modlib

import (
	"sync"

	"github.com/zzby0/modlib/symtab"
)

// The kernel's built-in export table: the statically compiled symbols
// available to every module regardless of install order. Resolution
// against it records no dependency edge.

var (
	builtinMu sync.RWMutex
	builtins  symtab.Sorted
)

// SetExportTable installs the built-in export table. Entries are copied
// and kept name sorted.
func SetExportTable(entries []symtab.Entry) {
	builtinMu.Lock()
	defer builtinMu.Unlock()
	builtins = symtab.Sort(entries)
}

// ExportTable returns the built-in export table in name order.
func ExportTable() []symtab.Entry {
	builtinMu.RLock()
	defer builtinMu.RUnlock()
	return builtins.Entries()
}

func lookupBuiltin(name string) (symtab.Entry, bool) {
	builtinMu.RLock()
	defer builtinMu.RUnlock()
	return builtins.Lookup(name)
}
