package modlib

import (
	"bytes"
	"debug/elf"
	"encoding/binary"

	"github.com/ZenLiuCN/fn"
)

// Test images are assembled in memory: a null section, one progbits
// section standing in for .text, the symbol table and its string table.
// The string table is placed at the very end of the image so that an
// unterminated name genuinely runs off the end of the file.

type testSym struct {
	name  string
	value uint32
	shndx uint16
}

const testTextAddr uint32 = 0x8000

func buildImage(syms ...testSym) []byte {
	return buildImageWith(syms, true, true)
}

// buildImageWith assembles an image; withSymtab=false drops the symbol
// table sections entirely, terminated=false drops the trailing NUL of
// the last string.
func buildImageWith(syms []testSym, withSymtab, terminated bool) []byte {
	strtab := []byte{0}
	offsets := make([]uint32, len(syms))
	for i, s := range syms {
		if s.name == "" {
			continue
		}
		offsets[i] = uint32(len(strtab))
		strtab = append(strtab, s.name...)
		if terminated || i != len(syms)-1 {
			strtab = append(strtab, 0)
		}
	}

	recs := new(bytes.Buffer)
	fn.Panic(binary.Write(recs, binary.LittleEndian, elf.Sym32{})) // reserved null symbol
	for i, s := range syms {
		fn.Panic(binary.Write(recs, binary.LittleEndian, elf.Sym32{
			Name:  offsets[i],
			Value: s.value,
			Shndx: s.shndx,
		}))
	}

	shnum := 4
	if !withSymtab {
		shnum = 2
	}
	shoff := uint32(ehdrSize)
	symtabOff := shoff + uint32(shnum*shdrSize)
	strtabOff := symtabOff + uint32(recs.Len())

	img := new(bytes.Buffer)
	ident := [16]byte{}
	copy(ident[:], elfMagic)
	ident[elf.EI_CLASS] = byte(elf.ELFCLASS32)
	ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	ident[elf.EI_VERSION] = 1
	fn.Panic(binary.Write(img, binary.LittleEndian, elf.Header32{
		Ident:     ident,
		Type:      uint16(elf.ET_REL),
		Machine:   uint16(elf.EM_ARM),
		Version:   1,
		Shoff:     shoff,
		Ehsize:    uint16(ehdrSize),
		Shentsize: uint16(shdrSize),
		Shnum:     uint16(shnum),
	}))

	shdrs := []elf.Section32{
		{},
		{Type: uint32(elf.SHT_PROGBITS), Addr: testTextAddr, Off: uint32(ehdrSize)},
	}
	if withSymtab {
		shdrs = append(shdrs,
			elf.Section32{
				Type:    uint32(elf.SHT_SYMTAB),
				Off:     symtabOff,
				Size:    uint32(recs.Len()),
				Link:    3,
				Entsize: uint32(SymSize),
			},
			elf.Section32{
				Type: uint32(elf.SHT_STRTAB),
				Off:  strtabOff,
				Size: uint32(len(strtab)),
			})
	}
	for _, shdr := range shdrs {
		fn.Panic(binary.Write(img, binary.LittleEndian, shdr))
	}
	if withSymtab {
		img.Write(recs.Bytes())
		img.Write(strtab)
	}
	return img.Bytes()
}

func session(img []byte, opts ...Option) *LoadInfo {
	return NewLoadInfo(bytes.NewReader(img), int64(len(img)), opts...)
}

// load builds a ready session: sections parsed, symbol table located.
func load(img []byte, opts ...Option) *LoadInfo {
	l := session(img, opts...)
	fn.Panic(l.LoadSections())
	fn.Panic(l.FindSymtab())
	return l
}

// readAll fetches every record of the located symbol table.
func readAll(l *LoadInfo) []elf.Sym32 {
	shdr := l.Symtab()
	count := int(shdr.Size) / SymSize
	syms := make([]elf.Sym32, count)
	for i := 0; i < count; i++ {
		syms[i] = fn.Panic1(l.ReadSym(shdr, i))
	}
	return syms
}
