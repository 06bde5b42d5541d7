package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindByName(t *testing.T) {
	entries := []Entry{
		{Name: "fn_b", Value: 2},
		{Name: "fn_a", Value: 1},
		{Name: "fn_b", Value: 9},
	}
	e, ok := FindByName(entries, "fn_b")
	assert.True(t, ok)
	assert.Equal(t, uintptr(2), e.Value, "first match in table order wins")
	_, ok = FindByName(entries, "fn_c")
	assert.False(t, ok)
	_, ok = FindByName(nil, "fn_a")
	assert.False(t, ok)
}

func TestSortedLookup(t *testing.T) {
	s := Sort([]Entry{
		{Name: "up_putc", Value: 3},
		{Name: "kmm_malloc", Value: 1},
		{Name: "sched_lock", Value: 2},
	})
	assert.Equal(t, 3, s.Len())
	for i := 1; i < s.Len(); i++ {
		assert.Less(t, s.Entries()[i-1].Name, s.Entries()[i].Name)
	}
	e, ok := s.Lookup("sched_lock")
	assert.True(t, ok)
	assert.Equal(t, uintptr(2), e.Value)
	_, ok = s.Lookup("aaa")
	assert.False(t, ok)
	_, ok = s.Lookup("zzz")
	assert.False(t, ok)
}

func TestSortedEmpty(t *testing.T) {
	var s Sorted
	assert.Equal(t, 0, s.Len())
	_, ok := s.Lookup("anything")
	assert.False(t, ok)
	_, ok = Sort(nil).Lookup("anything")
	assert.False(t, ok)
}

func TestSortCopies(t *testing.T) {
	src := []Entry{{Name: "b", Value: 2}, {Name: "a", Value: 1}}
	s := Sort(src)
	src[0].Name = "mutated"
	e, ok := s.Lookup("b")
	assert.True(t, ok)
	assert.Equal(t, uintptr(2), e.Value)
}
