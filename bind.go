package modlib

import (
	"debug/elf"
)

// Bind resolves every symbol in the session's image against reg and the
// built-in table, then publishes modp's export table for modules
// installed afterwards. The reserved null symbol at index 0 is skipped.
//
// Any resolution failure aborts the bind; the caller owns releasing the
// session and the module.
func Bind(modp *Module, l *LoadInfo, reg Registry) (err error) {
	if len(l.shdrs) == 0 {
		if err = l.LoadSections(); err != nil {
			return
		}
	}
	if l.symtab == 0 {
		if err = l.FindSymtab(); err != nil {
			return
		}
	}
	shdr := l.Symtab()
	strtabOff := l.Strtab().Off
	count := int(shdr.Size) / SymSize
	syms := make([]elf.Sym32, count)
	for i := 1; i < count; i++ {
		var sym elf.Sym32
		if sym, err = l.ReadSym(shdr, i); err != nil {
			return
		}
		var value uint32
		if value, err = l.SymbolValue(modp, reg, &sym, strtabOff); err != nil {
			return
		}
		sym.Value = value
		syms[i] = sym
	}
	return l.BuildExports(modp, shdr, syms)
}
