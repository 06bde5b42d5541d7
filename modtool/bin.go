package main

import (
	"bufio"
	"debug/elf"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ZenLiuCN/fn"
	"github.com/davecgh/go-spew/spew"
	kitlog "github.com/go-kit/log"
	"github.com/urfave/cli/v2"

	"github.com/zzby0/modlib"
	"github.com/zzby0/modlib/registry"
	"github.com/zzby0/modlib/symtab"
)

func main() {
	app := cli.NewApp()
	app.Usage = "loadable module inspector"
	app.Name = "modtool"
	app.Description = "inspect relocatable module images and dry-run symbol resolution"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"d"},
		},
	}
	app.Args = true
	app.Commands = []*cli.Command{
		{
			Name:   "sections",
			Action: sections,
			Usage:  "display the section header table of module images",
			Args:   true,
		},
		{
			Name:   "symbols",
			Action: symbols,
			Usage:  "display the symbol table of module images",
			Args:   true,
		},
		{
			Name:   "exports",
			Action: exports,
			Usage:  "display the export table a module image would publish",
			Args:   true,
		},
		{
			Name:   "resolve",
			Action: resolve,
			Usage:  "bind module images in order, each against the previously bound ones",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "symtab",
					Aliases: []string{"s"},
					Usage:   "built-in export table file with 'name value' lines",
				},
			},
			Args: true,
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatalf("failure %s", err)
	}
}

func options(ctx *cli.Context) (opts []modlib.Option) {
	if ctx.Bool("debug") {
		opts = append(opts, modlib.WithLogger(kitlog.NewLogfmtLogger(os.Stderr)))
	}
	return
}

func inspect(ctx *cli.Context) (v modlib.Infos, err error) {
	for _, s := range ctx.Args().Slice() {
		var f *os.File
		if f, err = os.Open(s); err != nil {
			return
		}
		st, err := f.Stat()
		if err != nil {
			fn.IgnoreClose(f)
			return nil, err
		}
		info, err := modlib.Inspect(f, st.Size(), options(ctx)...)
		fn.IgnoreClose(f)
		if err != nil {
			return nil, fmt.Errorf("inspect %s: %w", s, err)
		}
		info.File = s
		v = append(v, info)
	}
	return
}

func sections(ctx *cli.Context) (err error) {
	v, err := inspect(ctx)
	if err != nil {
		return
	}
	for _, info := range v {
		log.Printf("%s\n%s", info.File, modlib.Info{Sections: info.Sections}.String())
	}
	return
}

func symbols(ctx *cli.Context) (err error) {
	v, err := inspect(ctx)
	if err != nil {
		return
	}
	for _, info := range v {
		log.Printf("%s\n%s", info.File, modlib.Info{Symbols: info.Symbols}.String())
	}
	return
}

func exports(ctx *cli.Context) (err error) {
	for _, s := range ctx.Args().Slice() {
		var m *modlib.Module
		if m, err = rawExports(ctx, s); err != nil {
			return
		}
		log.Printf("%s exports %d symbols", s, len(m.Exports))
		spew.Dump(m.Exports)
	}
	return
}

// rawExports builds the export table a module would publish, with the
// unresolved on-disk symbol values.
func rawExports(ctx *cli.Context, path string) (m *modlib.Module, err error) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer fn.IgnoreClose(f)
	st, err := f.Stat()
	if err != nil {
		return
	}
	l := modlib.NewLoadInfo(f, st.Size(), options(ctx)...)
	defer l.Close()
	if err = l.LoadSections(); err != nil {
		return
	}
	if err = l.FindSymtab(); err != nil {
		return
	}
	shdr := l.Symtab()
	count := int(shdr.Size) / modlib.SymSize
	syms := make([]elf.Sym32, count)
	for i := 0; i < count; i++ {
		if syms[i], err = l.ReadSym(shdr, i); err != nil {
			return
		}
	}
	m = modlib.NewModule(filepath.Base(path))
	if err = l.BuildExports(m, shdr, syms); err != nil {
		return nil, err
	}
	return
}

func resolve(ctx *cli.Context) (err error) {
	if tab := ctx.String("symtab"); tab != "" {
		var entries []symtab.Entry
		if entries, err = readSymtab(tab); err != nil {
			return
		}
		modlib.SetExportTable(entries)
	}
	reg := registry.New()
	for _, s := range ctx.Args().Slice() {
		var m *modlib.Module
		if m, err = bind(ctx, s, reg); err != nil {
			return
		}
		if err = reg.Install(m); err != nil {
			return
		}
		log.Printf("%s bound, exports %d symbols", s, len(m.Exports))
	}
	log.Printf("installed: %v", reg.Names())
	return
}

func bind(ctx *cli.Context, path string, reg modlib.Registry) (m *modlib.Module, err error) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer fn.IgnoreClose(f)
	st, err := f.Stat()
	if err != nil {
		return
	}
	l := modlib.NewLoadInfo(f, st.Size(), options(ctx)...)
	defer l.Close()
	m = modlib.NewModule(filepath.Base(path))
	if err = modlib.Bind(m, l, reg); err != nil {
		return nil, fmt.Errorf("bind %s: %w", path, err)
	}
	return
}

// readSymtab parses a built-in export table, one "name value" pair per
// line, values in any base strconv accepts.
func readSymtab(path string) (entries []symtab.Entry, err error) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer fn.IgnoreClose(f)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("bad symtab line %q", line)
		}
		value, err := strconv.ParseUint(fields[1], 0, 64)
		if err != nil {
			return nil, fmt.Errorf("bad symtab value %q: %w", fields[1], err)
		}
		entries = append(entries, symtab.Entry{Name: fields[0], Value: uintptr(value)})
	}
	return entries, sc.Err()
}
