package modlib

import (
	"errors"
)

var (
	// ErrCorruptFormat occurs when the module image is inconsistent: a bad
	// header, a symbol index out of range, no symbol table, or a string
	// table read running past the end of the image.
	ErrCorruptFormat = errors.New("module image corrupted")
	// ErrNameAbsent occurs when a symbol that needs a name has a zero name
	// offset. Callers with nameless-relocation exceptions can test for it.
	ErrNameAbsent = errors.New("symbol has no name")
	// ErrUnsupported occurs on a common symbol; rebuild the module with
	// -fno-common.
	ErrUnsupported = errors.New("common symbols not supported")
	// ErrUnresolved occurs when an undefined symbol is exported neither by
	// an installed module nor by the built-in table.
	ErrUnresolved = errors.New("undefined symbol not found")
	// ErrAllocation occurs when the allocator refuses a request.
	ErrAllocation = errors.New("allocation failed")
)
