package modlib

import (
	"debug/elf"
	"fmt"
	"io"
	"strings"
)

// Infos is a stringer slice of Info
type Infos []*Info

func (i Infos) String() string {
	s := strings.Builder{}
	for _, v := range i {
		s.WriteString(v.String())
	}
	return s.String()
}

// Info summarizes one module image: its sections and symbol table.
type Info struct {
	File     string
	Sections []SectionInfo
	Symbols  []SymbolInfo
}

// SectionInfo is one section header row.
type SectionInfo struct {
	Index int
	Type  elf.SectionType
	Link  uint32
	Off   uint32
	Size  uint32
	Addr  uint32
}

// SymbolInfo is one symbol table row. Name is empty for symbols with a
// zero name offset.
type SymbolInfo struct {
	Index   int
	Name    string
	Value   uint32
	Binding string
}

func (i Info) String() string {
	s := strings.Builder{}
	for _, sec := range i.Sections {
		s.WriteString(fmt.Sprintf("\t[%2d] %-12v link=%d off=%#x size=%d addr=%#x\n",
			sec.Index, sec.Type, sec.Link, sec.Off, sec.Size, sec.Addr))
	}
	for _, sym := range i.Symbols {
		s.WriteString(fmt.Sprintf("\t[%2d] %-8s value=%#x %s\n",
			sym.Index, sym.Binding, sym.Value, sym.Name))
	}
	return s.String()
}

func bindingName(shndx uint16) string {
	switch elf.SectionIndex(shndx) {
	case elf.SHN_UNDEF:
		return "UNDEF"
	case elf.SHN_ABS:
		return "ABS"
	case elf.SHN_COMMON:
		return "COMMON"
	default:
		return fmt.Sprintf("SECT(%d)", shndx)
	}
}

// Inspect parses a module image and summarizes its sections and symbols.
//
// this use for the modtool command and for debugging module builds
func Inspect(file io.ReaderAt, filelen int64, opts ...Option) (info *Info, err error) {
	l := NewLoadInfo(file, filelen, opts...)
	defer l.Close()
	if err = l.LoadSections(); err != nil {
		return
	}
	info = new(Info)
	for i := range l.shdrs {
		info.Sections = append(info.Sections, SectionInfo{
			Index: i,
			Type:  elf.SectionType(l.shdrs[i].Type),
			Link:  l.shdrs[i].Link,
			Off:   l.shdrs[i].Off,
			Size:  l.shdrs[i].Size,
			Addr:  l.shdrs[i].Addr,
		})
	}
	if err = l.FindSymtab(); err != nil {
		// an image without a symbol table is still inspectable
		return info, nil
	}
	shdr := l.Symtab()
	strtabOff := l.Strtab().Off
	count := int(shdr.Size) / SymSize
	for i := 0; i < count; i++ {
		var sym elf.Sym32
		if sym, err = l.ReadSym(shdr, i); err != nil {
			return nil, err
		}
		var name string
		if sym.Name != 0 {
			if name, err = l.SymbolName(&sym, strtabOff); err != nil {
				return nil, err
			}
		}
		info.Symbols = append(info.Symbols, SymbolInfo{
			Index:   i,
			Name:    name,
			Value:   sym.Value,
			Binding: bindingName(sym.Shndx),
		})
	}
	return info, nil
}
