// Package registry tracks the currently installed modules, their install
// order and the dependency edges recorded during symbol resolution.
package registry

import (
	"errors"
	"slices"
	"sync"

	"github.com/ZenLiuCN/fn"

	"github.com/zzby0/modlib"
)

var (
	// ErrAlreadyLoaded occurs when installing a module name twice.
	ErrAlreadyLoaded = errors.New("module already installed")
	// ErrNotLoaded occurs when uninstalling a module that is not installed.
	ErrNotLoaded = errors.New("module not installed")
	// ErrBusy occurs when uninstalling a module other modules still depend on.
	ErrBusy = errors.New("module still has dependents")
)

// Registry is an in-memory implementation of [modlib.Registry].
//
// Traversal observes a snapshot taken under the read lock, so concurrent
// install and uninstall cannot corrupt an in-flight resolution.
type Registry struct {
	sync.RWMutex
	modules    map[string]*modlib.Module
	loaded     []*modlib.Module // install order, oldest first
	deps       map[*modlib.Module]map[*modlib.Module]struct{}
	dependents map[*modlib.Module]int
}

// New create an empty registry.
func New() *Registry {
	return &Registry{
		modules:    make(map[string]*modlib.Module),
		deps:       make(map[*modlib.Module]map[*modlib.Module]struct{}),
		dependents: make(map[*modlib.Module]int),
	}
}

// Install publishes a loaded module. The newest installed module takes
// precedence when several export the same symbol name.
func (r *Registry) Install(m *modlib.Module) error {
	r.Lock()
	defer r.Unlock()
	if _, ok := r.modules[m.Name]; ok {
		return ErrAlreadyLoaded
	}
	r.modules[m.Name] = m
	r.loaded = append(r.loaded, m)
	return nil
}

// Uninstall removes a module and releases its export table. It fails
// with ErrBusy while any installed module still depends on it; the
// departing module's own outgoing edges are dropped.
func (r *Registry) Uninstall(name string) error {
	r.Lock()
	defer r.Unlock()
	m, ok := r.modules[name]
	if !ok {
		return ErrNotLoaded
	}
	if r.dependents[m] > 0 {
		return ErrBusy
	}
	r.undepend(m)
	delete(r.modules, name)
	delete(r.dependents, m)
	if i := slices.Index(r.loaded, m); i >= 0 {
		r.loaded = append(r.loaded[:i], r.loaded[i+1:]...)
	}
	m.FreeExports()
	return nil
}

// Foreach invokes fn once per installed module, newest first, until fn
// reports stop or fails. fn may call Depend.
func (r *Registry) Foreach(fn func(m *modlib.Module) (bool, error)) error {
	r.RLock()
	snapshot := make([]*modlib.Module, len(r.loaded))
	copy(snapshot, r.loaded)
	r.RUnlock()
	for i := len(snapshot) - 1; i >= 0; i-- {
		stop, err := fn(snapshot[i])
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

// Depend records that importer's load required a symbol exported by
// exporter. Re-recording an existing edge is a no-op, so the dependent
// counter driving unload ordering counts each relation once.
func (r *Registry) Depend(importer, exporter *modlib.Module) error {
	if importer == nil || exporter == nil || importer == exporter {
		return nil
	}
	r.Lock()
	defer r.Unlock()
	edges := r.deps[importer]
	if edges == nil {
		edges = make(map[*modlib.Module]struct{})
		r.deps[importer] = edges
	}
	if _, ok := edges[exporter]; ok {
		return nil
	}
	edges[exporter] = struct{}{}
	r.dependents[exporter]++
	return nil
}

// Undepend drops every outgoing edge of importer, releasing its
// exporters for unload. Used when a load fails after resolution started.
func (r *Registry) Undepend(importer *modlib.Module) {
	r.Lock()
	defer r.Unlock()
	r.undepend(importer)
}

func (r *Registry) undepend(importer *modlib.Module) {
	for exporter := range r.deps[importer] {
		if r.dependents[exporter] > 0 {
			r.dependents[exporter]--
		}
	}
	delete(r.deps, importer)
}

// Dependents reports how many installed modules hold an edge to m.
func (r *Registry) Dependents(m *modlib.Module) int {
	r.RLock()
	defer r.RUnlock()
	return r.dependents[m]
}

// Get fetch an installed module by name.
func (r *Registry) Get(name string) (*modlib.Module, bool) {
	r.RLock()
	defer r.RUnlock()
	m, ok := r.modules[name]
	return m, ok
}

// Names dump the installed module names.
func (r *Registry) Names() []string {
	r.RLock()
	defer r.RUnlock()
	return fn.MapKeys(r.modules)
}
