package modlib

import (
	"bytes"
	"debug/elf"
	"fmt"
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const (
	// DefaultBufferSize is the initial capacity of a session's name buffer.
	DefaultBufferSize = 128
	// DefaultBufferIncrement is the fixed amount the name buffer grows by
	// when a symbol name does not fit.
	DefaultBufferIncrement = 32
)

type (
	// Option configures a load session.
	Option func(*LoadInfo)

	/*LoadInfo is the transient state of one module load session.

	Use Steps:

	1. NewLoadInfo over the module image.
	2. [LoadInfo.LoadSections] then [LoadInfo.FindSymtab].
	3. Read and resolve symbols, build the module's exports.
	4. Call [LoadInfo.Close] to release the session buffer.

	Note:

	1. A LoadInfo serves a single load at a time; it is not safe for
	concurrent use.
	2. The name buffer grows monotonically during a load and is released
	only by Close.
	*/
	LoadInfo struct {
		file    io.ReaderAt
		filelen int64
		buffer  []byte
		bufincr int
		ehdr    elf.Header32
		shdrs   []elf.Section32
		symtab  int
		strtab  int
		logger  log.Logger
	}
)

// NewLoadInfo create a load session over a module image of the given
// total length.
func NewLoadInfo(file io.ReaderAt, filelen int64, opts ...Option) *LoadInfo {
	l := &LoadInfo{
		file:    file,
		filelen: filelen,
		bufincr: DefaultBufferIncrement,
		logger:  log.NewNopLogger(),
	}
	for _, o := range opts {
		if o != nil {
			o(l)
		}
	}
	if len(l.buffer) == 0 {
		l.buffer = make([]byte, DefaultBufferSize)
	}
	return l
}

// WithLogger sets the session diagnostics logger.
func WithLogger(logger log.Logger) Option {
	return func(l *LoadInfo) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithBufferSize sets the initial name buffer capacity.
func WithBufferSize(n int) Option {
	return func(l *LoadInfo) {
		if n > 0 {
			l.buffer = make([]byte, n)
		}
	}
}

// WithBufferIncrement sets the fixed growth step of the name buffer.
func WithBufferIncrement(n int) Option {
	return func(l *LoadInfo) {
		if n > 0 {
			l.bufincr = n
		}
	}
}

// Close releases the session buffer. The LoadInfo must not be used
// afterwards.
func (l *LoadInfo) Close() {
	l.buffer = nil
	l.shdrs = nil
	l.symtab = 0
	l.strtab = 0
}

// BufferLen reports the current name buffer capacity.
func (l *LoadInfo) BufferLen() int {
	return len(l.buffer)
}

// Sections exposes the parsed section header table.
func (l *LoadInfo) Sections() []elf.Section32 {
	return l.shdrs
}

// Symtab is the located symbol table section, nil before FindSymtab.
func (l *LoadInfo) Symtab() *elf.Section32 {
	if l.symtab == 0 {
		return nil
	}
	return &l.shdrs[l.symtab]
}

// Strtab is the string table section linked from the symbol table, nil
// before FindSymtab.
func (l *LoadInfo) Strtab() *elf.Section32 {
	if l.symtab == 0 {
		return nil
	}
	return &l.shdrs[l.strtab]
}

// read fills buf from the image at off, refusing any access outside the
// declared image length.
func (l *LoadInfo) read(buf []byte, off int64) error {
	if off < 0 || off+int64(len(buf)) > l.filelen {
		return fmt.Errorf("%w: read %d bytes at %#x beyond image length %d",
			ErrCorruptFormat, len(buf), off, l.filelen)
	}
	if _, err := l.file.ReadAt(buf, off); err != nil {
		return fmt.Errorf("read module image at %#x: %w", off, err)
	}
	return nil
}

// grow extends the name buffer by n bytes, preserving contents.
func (l *LoadInfo) grow(n int) {
	buffer := make([]byte, len(l.buffer)+n)
	copy(buffer, l.buffer)
	l.buffer = buffer
}

// LoadSections reads and verifies the image header, then the whole
// section header table.
func (l *LoadInfo) LoadSections() (err error) {
	buf := make([]byte, ehdrSize)
	if err = l.read(buf, 0); err != nil {
		return
	}
	if err = decodeEhdr(buf, &l.ehdr); err != nil {
		return
	}
	if !bytes.HasPrefix(l.ehdr.Ident[:], elfMagic) {
		return fmt.Errorf("%w: bad magic", ErrCorruptFormat)
	}
	if elf.Class(l.ehdr.Ident[elf.EI_CLASS]) != elf.ELFCLASS32 ||
		elf.Data(l.ehdr.Ident[elf.EI_DATA]) != elf.ELFDATA2LSB {
		return fmt.Errorf("%w: not a 32-bit little endian image", ErrCorruptFormat)
	}
	if elf.Type(l.ehdr.Type) != elf.ET_REL {
		return fmt.Errorf("%w: not a relocatable image", ErrCorruptFormat)
	}
	if int(l.ehdr.Shentsize) != shdrSize || l.ehdr.Shnum == 0 {
		return fmt.Errorf("%w: bad section header table", ErrCorruptFormat)
	}
	l.shdrs = make([]elf.Section32, l.ehdr.Shnum)
	buf = buf[:shdrSize]
	for i := range l.shdrs {
		off := int64(l.ehdr.Shoff) + int64(i*shdrSize)
		if err = l.read(buf, off); err != nil {
			return
		}
		if err = decodeShdr(buf, &l.shdrs[i]); err != nil {
			return
		}
	}
	level.Debug(l.logger).Log("msg", "sections loaded", "count", len(l.shdrs))
	return
}

// FindSymtab locates the symbol table section and its linked string
// table. Section 0 is reserved and skipped; if the image carries more
// than one symbol table only the first is used.
func (l *LoadInfo) FindSymtab() error {
	for i := 1; i < len(l.shdrs); i++ {
		if elf.SectionType(l.shdrs[i].Type) == elf.SHT_SYMTAB {
			l.symtab = i
			l.strtab = int(l.shdrs[i].Link)
			break
		}
	}
	if l.symtab == 0 {
		return fmt.Errorf("%w: no symbol table", ErrCorruptFormat)
	}
	if l.strtab <= 0 || l.strtab >= len(l.shdrs) {
		return fmt.Errorf("%w: symbol table links bad string table %d",
			ErrCorruptFormat, l.strtab)
	}
	level.Debug(l.logger).Log("msg", "symbol table located",
		"symtab", l.symtab, "strtab", l.strtab)
	return nil
}

// ReadSym reads the symbol record at index from the given symbol table
// section.
func (l *LoadInfo) ReadSym(symtab *elf.Section32, index int) (sym elf.Sym32, err error) {
	count := int(symtab.Size) / SymSize
	if index < 0 || index >= count {
		err = fmt.Errorf("%w: symbol index %d outside table of %d entries",
			ErrCorruptFormat, index, count)
		return
	}
	buf := make([]byte, SymSize)
	if err = l.read(buf, int64(symtab.Off)+int64(index*SymSize)); err != nil {
		return
	}
	err = decodeSym(buf, &sym)
	return
}
