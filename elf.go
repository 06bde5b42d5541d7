package modlib

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"unsafe"
)

const (
	ehdrSize = int(unsafe.Sizeof(elf.Header32{}))
	shdrSize = int(unsafe.Sizeof(elf.Section32{}))
	// SymSize is the fixed on-disk size of one symbol record.
	SymSize = elf.Sym32Size
)

var elfMagic = []byte("\177ELF")

// Modules are ELF32 little endian, the layout the embedded toolchains
// emit. Records are decoded bit-exact from the wire form.

func decodeEhdr(b []byte, hdr *elf.Header32) error {
	return binary.Read(bytes.NewReader(b), binary.LittleEndian, hdr)
}

func decodeShdr(b []byte, shdr *elf.Section32) error {
	return binary.Read(bytes.NewReader(b), binary.LittleEndian, shdr)
}

func decodeSym(b []byte, sym *elf.Sym32) error {
	return binary.Read(bytes.NewReader(b), binary.LittleEndian, sym)
}
