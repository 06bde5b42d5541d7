package modlib

import (
	"github.com/zzby0/modlib/symtab"
)

// Registry is the set of currently installed modules, traversed during
// symbol resolution. Synchronization of concurrent install and uninstall
// against a traversal is the registry's responsibility.
type Registry interface {
	// Foreach invokes fn once per installed module, most recently
	// installed first, until fn reports stop or returns an error. An
	// error from fn aborts the traversal and is returned as is.
	Foreach(fn func(m *Module) (stop bool, err error)) error
	// Depend records that importer's load required a symbol exported by
	// exporter.
	Depend(importer, exporter *Module) error
}

// FindExport searches the installed modules for one exporting name.
// The most recently installed exporter wins; on the first match the
// dependency edge from importer is recorded and the traversal stops. A
// failure to record the edge aborts the search.
//
// Not finding an exporter is not an error: the second result reports it.
func FindExport(reg Registry, importer *Module, name string) (symtab.Entry, bool, error) {
	if reg == nil {
		return symtab.Entry{}, false, nil
	}
	var (
		export symtab.Entry
		found  bool
	)
	err := reg.Foreach(func(m *Module) (bool, error) {
		entry, hit := symtab.FindByName(m.Exports, name)
		if !hit {
			return false, nil
		}
		if err := reg.Depend(importer, m); err != nil {
			return true, err
		}
		export, found = entry, true
		return true, nil
	})
	if err != nil {
		return symtab.Entry{}, false, err
	}
	return export, found, nil
}
