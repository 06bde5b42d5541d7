package modlib

import (
	"debug/elf"
	"fmt"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/zzby0/modlib/symtab"
)

type (
	// ModuleOption configures a Module.
	ModuleOption func(*Module)

	// Module is one installed loadable unit. It exclusively owns its
	// export table; the table is built by [LoadInfo.BuildExports] and
	// released by [Module.FreeExports] on unload or before a rebuild.
	Module struct {
		Name    string
		Exports []symtab.Entry
		alloc   Allocator
		logger  log.Logger
	}

	// Allocator owns export name storage. DupName copies a name out of
	// the session buffer into storage the module owns; ReleaseName gives
	// it back. The default allocator is the heap and ReleaseName is a
	// no-op there.
	Allocator interface {
		DupName(name string) (string, error)
		ReleaseName(name string)
	}

	heapAllocator struct{}
)

func (heapAllocator) DupName(name string) (string, error) { return strings.Clone(name), nil }
func (heapAllocator) ReleaseName(string)                  {}

// NewModule create a module with the given name.
func NewModule(name string, opts ...ModuleOption) *Module {
	m := &Module{
		Name:   name,
		alloc:  heapAllocator{},
		logger: log.NewNopLogger(),
	}
	for _, o := range opts {
		if o != nil {
			o(m)
		}
	}
	return m
}

// WithAllocator sets the allocator owning the module's export names.
func WithAllocator(alloc Allocator) ModuleOption {
	return func(m *Module) {
		if alloc != nil {
			m.alloc = alloc
		}
	}
}

// WithModuleLogger sets the module diagnostics logger.
func WithModuleLogger(logger log.Logger) ModuleOption {
	return func(m *Module) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// BuildExports builds modp's export table from the symbol table section
// and its parsed symbol records. Symbols with a zero name offset are
// excluded; zero qualifying symbols yield an empty table, not an absent
// one. An existing table is torn down first, with a diagnostic. If any
// name fails to materialize the whole build is abandoned and nothing
// stays attached to the module.
func (l *LoadInfo) BuildExports(modp *Module, shdr *elf.Section32, syms []elf.Sym32) error {
	if modp.Exports != nil {
		level.Warn(modp.logger).Log("msg", "module exports already present, replacing",
			"module", modp.Name)
		modp.FreeExports()
	}
	if int(shdr.Link) >= len(l.shdrs) {
		return fmt.Errorf("%w: symbol table links bad string table %d",
			ErrCorruptFormat, shdr.Link)
	}
	strtabOff := l.shdrs[shdr.Link].Off
	count := 0
	for i := range syms {
		if syms[i].Name != 0 {
			count++
		}
	}
	exports := make([]symtab.Entry, 0, count)
	for i := range syms {
		if syms[i].Name == 0 {
			continue
		}
		name, err := l.SymbolName(&syms[i], strtabOff)
		if err == nil {
			name, err = modp.alloc.DupName(name)
		}
		if err != nil {
			for j := range exports {
				modp.alloc.ReleaseName(exports[j].Name)
			}
			return err
		}
		exports = append(exports, symtab.Entry{Name: name, Value: uintptr(syms[i].Value)})
	}
	modp.Exports = exports
	level.Debug(l.logger).Log("msg", "exports built", "module", modp.Name, "count", count)
	return nil
}

// FreeExports releases every owned export name exactly once and detaches
// the table. Safe to call on a module without exports.
func (m *Module) FreeExports() {
	for i := range m.Exports {
		m.alloc.ReleaseName(m.Exports[i].Name)
		m.Exports[i] = symtab.Entry{}
	}
	m.Exports = nil
}
