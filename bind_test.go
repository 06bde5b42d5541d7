package modlib

import (
	"debug/elf"
	"errors"
	"testing"

	"github.com/zzby0/modlib/symtab"
)

func TestBindEndToEnd(t *testing.T) {
	reg := new(testRegistry)

	provider := NewModule("provider")
	l1 := session(buildImage(testSym{name: "fn_add", value: 0x30, shndx: 1}))
	defer l1.Close()
	if err := Bind(provider, l1, reg); err != nil {
		t.Fatal(err)
	}
	reg.install(provider)

	consumer := NewModule("consumer")
	l2 := session(buildImage(
		testSym{name: "fn_add", value: 4, shndx: uint16(elf.SHN_UNDEF)},
		testSym{name: "fn_local", value: 0x10, shndx: 1},
	))
	defer l2.Close()
	if err := Bind(consumer, l2, reg); err != nil {
		t.Fatal(err)
	}

	want := []symtab.Entry{
		{Name: "fn_add", Value: uintptr(0x30 + testTextAddr + 4)},
		{Name: "fn_local", Value: uintptr(0x10 + testTextAddr)},
	}
	if len(consumer.Exports) != len(want) {
		t.Fatalf("want %d exports, got %v", len(want), consumer.Exports)
	}
	for i := range want {
		if consumer.Exports[i] != want[i] {
			t.Fatalf("export %d: want %+v, got %+v", i, want[i], consumer.Exports[i])
		}
	}
	if len(reg.edges) != 1 || reg.edges[0] != (edge{consumer, provider}) {
		t.Fatalf("want one consumer->provider edge, got %v", reg.edges)
	}
}

func TestBindUnresolvedLeavesNoExports(t *testing.T) {
	reg := new(testRegistry)
	m := NewModule("consumer")
	l := session(buildImage(testSym{name: "missing", value: 0, shndx: uint16(elf.SHN_UNDEF)}))
	defer l.Close()
	if err := Bind(m, l, reg); !errors.Is(err, ErrUnresolved) {
		t.Fatalf("want unresolved, got %v", err)
	}
	if m.Exports != nil {
		t.Fatalf("failed bind must not publish exports, got %v", m.Exports)
	}
}

func TestBindCorruptImage(t *testing.T) {
	img := make([]byte, 128)
	l := session(img)
	defer l.Close()
	if err := Bind(NewModule("m"), l, nil); !errors.Is(err, ErrCorruptFormat) {
		t.Fatalf("want corrupt format, got %v", err)
	}
}

func BenchmarkBind(b *testing.B) {
	reg := new(testRegistry)
	reg.install(exporter("provider", "fn_add", 0x1000))
	img := buildImage(
		testSym{name: "fn_add", value: 0, shndx: uint16(elf.SHN_UNDEF)},
		testSym{name: "fn_a", value: 0x10, shndx: 1},
		testSym{name: "fn_b", value: 0x20, shndx: 1},
	)
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		l := session(img)
		m := NewModule("consumer")
		if err := Bind(m, l, reg); err != nil {
			b.Fatal(err)
		}
		m.FreeExports()
		l.Close()
	}
}
