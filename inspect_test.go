package modlib

import (
	"bytes"
	"debug/elf"
	"strings"
	"testing"
)

func TestInspect(t *testing.T) {
	img := buildImage(
		testSym{name: "fn_a", value: 0x10, shndx: 1},
		testSym{name: "ext", value: 0, shndx: uint16(elf.SHN_UNDEF)},
	)
	info, err := Inspect(bytes.NewReader(img), int64(len(img)))
	if err != nil {
		t.Fatal(err)
	}
	if len(info.Sections) != 4 {
		t.Fatalf("want 4 sections, got %d", len(info.Sections))
	}
	if len(info.Symbols) != 3 {
		t.Fatalf("want 3 symbol rows, got %d", len(info.Symbols))
	}
	if info.Symbols[0].Name != "" {
		t.Fatalf("reserved null symbol must stay nameless: %+v", info.Symbols[0])
	}
	if info.Symbols[2].Binding != "UNDEF" {
		t.Fatalf("want UNDEF binding, got %+v", info.Symbols[2])
	}
	s := Infos{info}.String()
	for _, want := range []string{"fn_a", "UNDEF", "SHT_SYMTAB"} {
		if !strings.Contains(s, want) {
			t.Fatalf("listing misses %q:\n%s", want, s)
		}
	}
}

func TestInspectNoSymtab(t *testing.T) {
	img := buildImageWith(nil, false, true)
	info, err := Inspect(bytes.NewReader(img), int64(len(img)))
	if err != nil {
		t.Fatal(err)
	}
	if len(info.Sections) != 2 || len(info.Symbols) != 0 {
		t.Fatalf("image without a symbol table lists sections only: %+v", info)
	}
}
