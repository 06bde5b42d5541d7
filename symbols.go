package modlib

import (
	"bytes"
	"debug/elf"
	"fmt"

	"github.com/go-kit/log/level"
)

// SymbolName materializes the NUL terminated name of sym from the string
// table at strtabOff into the session buffer.
//
// The name is read in chunks sized to the current buffer capacity; when a
// chunk ends without a terminator the buffer grows by the session's fixed
// increment and the next chunk is appended after the previous one, until
// the terminator or the end of the image is reached.
func (l *LoadInfo) SymbolName(sym *elf.Sym32, strtabOff uint32) (string, error) {
	if sym.Name == 0 {
		return "", ErrNameAbsent
	}
	offset := int64(strtabOff) + int64(sym.Name)
	if offset >= l.filelen {
		return "", fmt.Errorf("%w: name offset %#x at end of image", ErrCorruptFormat, offset)
	}
	read := 0
	for {
		chunk := len(l.buffer) - read
		if offset+int64(read+chunk) > l.filelen {
			chunk = int(l.filelen-offset) - read
		}
		buf := l.buffer[read : read+chunk]
		if err := l.read(buf, offset+int64(read)); err != nil {
			return "", err
		}
		read += chunk
		if i := bytes.IndexByte(buf, 0); i >= 0 {
			return string(l.buffer[:read-chunk+i]), nil
		}
		if offset+int64(read) >= l.filelen {
			return "", fmt.Errorf("%w: unterminated name at %#x", ErrCorruptFormat, offset)
		}
		l.grow(l.bufincr)
	}
}

// SymbolValue computes the final value of sym and returns it; the record
// itself is left untouched and the caller decides where to store the
// result.
//
// Dispatch is on the symbol's section index: common symbols fail with
// ErrUnsupported, absolute symbols keep their value, undefined symbols
// are bound against installed modules first (recording the dependency
// edge on a match) and the built-in table second, and every other index
// is section relative, the value offset by that section's base address.
//
// A nil registry skips the cross-module search and binds against the
// built-in table only.
func (l *LoadInfo) SymbolValue(modp *Module, reg Registry, sym *elf.Sym32, strtabOff uint32) (uint32, error) {
	switch elf.SectionIndex(sym.Shndx) {
	case elf.SHN_COMMON:
		return 0, fmt.Errorf("%w: rebuild with -fno-common", ErrUnsupported)
	case elf.SHN_ABS:
		return sym.Value, nil
	case elf.SHN_UNDEF:
		name, err := l.SymbolName(sym, strtabOff)
		if err != nil {
			return 0, err
		}
		export, found, err := FindExport(reg, modp, name)
		if err != nil {
			return 0, err
		}
		if !found {
			export, found = lookupBuiltin(name)
		}
		if !found {
			return 0, fmt.Errorf("%w: %q", ErrUnresolved, name)
		}
		level.Debug(l.logger).Log("msg", "undefined symbol bound",
			"name", name, "base", fmt.Sprintf("%#x", export.Value),
			"addend", fmt.Sprintf("%#x", sym.Value))
		return sym.Value + uint32(export.Value), nil
	default:
		if int(sym.Shndx) >= len(l.shdrs) {
			return 0, fmt.Errorf("%w: symbol section index %d outside %d sections",
				ErrCorruptFormat, sym.Shndx, len(l.shdrs))
		}
		return sym.Value + l.shdrs[sym.Shndx].Addr, nil
	}
}
