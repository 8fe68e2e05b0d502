// Command chtl-cmod packs, unpacks, and inspects .cmod archives.
//
// Usage:
//
//	chtl-cmod pack <dir> <out.cmod>
//	chtl-cmod unpack <in.cmod> <dir>
//	chtl-cmod info <path>
//
// Each subcommand is a thin wrapper over the corresponding library call
// in internal/cmod and internal/cmodarchive.
package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/chtl-lang/chtl/internal/cmod"
	"github.com/chtl-lang/chtl/internal/cmodarchive"
	"github.com/chtl-lang/chtl/internal/fs"
	"github.com/chtl-lang/chtl/internal/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	if len(argv) < 1 {
		printUsage()
		return 1
	}

	switch argv[0] {
	case "pack":
		return runPack(argv[1:])
	case "unpack":
		return runUnpack(argv[1:])
	case "info":
		return runInfo(argv[1:])
	default:
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  chtl-cmod pack <dir> <out.cmod>")
	fmt.Fprintln(os.Stderr, "  chtl-cmod unpack <in.cmod> <dir>")
	fmt.Fprintln(os.Stderr, "  chtl-cmod info <path>")
}

func runPack(args []string) int {
	if len(args) != 2 {
		printUsage()
		return 1
	}
	dir, out := args[0], args[1]
	fsys := fs.Real()
	log := logger.NewDeferLog()

	mod, ok := cmod.Load(fsys, dir, log)
	if !ok {
		reportErrors(log)
		return 1
	}
	if problems := cmod.Validate(mod, baseName(dir), func(string) bool { return true }); len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintln(os.Stderr, "  "+p)
		}
		return 1
	}

	f, err := os.Create(out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot create %s: %v\n", out, err)
		return 1
	}
	defer f.Close()

	if err := cmodarchive.Pack(f, mod, true); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	info, _ := os.Stat(out)
	var size int64
	if info != nil {
		size = info.Size()
	}
	fmt.Printf("Packed %s into %s (%s)\n", dir, out, humanize.Bytes(uint64(size)))
	return 0
}

func runUnpack(args []string) int {
	if len(args) != 2 {
		printUsage()
		return 1
	}
	in, dir := args[0], args[1]

	f, err := os.Open(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot open %s: %v\n", in, err)
		return 1
	}
	defer f.Close()

	mod, err := cmodarchive.Unpack(f, moduleNameFromArchivePath(in))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fsys := fs.Real()
	if err := cmod.Save(fsys, dir, mod); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Unpacked %s into %s\n", in, dir)
	return 0
}

func runInfo(args []string) int {
	if len(args) != 1 {
		printUsage()
		return 1
	}
	path := args[0]
	fsys := fs.Real()
	log := logger.NewDeferLog()

	var mod *cmod.Module
	var ok bool
	if fs.IsDir(fsys, path) {
		mod, ok = cmod.Load(fsys, path, log)
	} else {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot open %s: %v\n", path, err)
			return 1
		}
		defer f.Close()
		m, err := cmodarchive.Unpack(f, moduleNameFromArchivePath(path))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		mod, ok = m, true
	}
	if !ok {
		reportErrors(log)
		return 1
	}

	fmt.Printf("Name:         %s\n", mod.Info.Name)
	fmt.Printf("Version:      %s\n", mod.Info.Version)
	fmt.Printf("Description:  %s\n", mod.Info.Description)
	fmt.Printf("Author:       %s\n", mod.Info.Author)
	fmt.Printf("Dependencies: %s\n", mod.Info.Dependencies)
	fmt.Printf("Sources:      %d files\n", len(mod.SourceKeys))
	fmt.Printf("Sub-modules:  %d\n", len(mod.SubModules))
	return 0
}

func reportErrors(log logger.Log) {
	logger.PrintMessages(os.Stderr, log.Done(), false)
}

func baseName(p string) string {
	for len(p) > 0 && (p[len(p)-1] == '/' || p[len(p)-1] == '\\') {
		p = p[:len(p)-1]
	}
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' || p[i] == '\\' {
			return p[i+1:]
		}
	}
	return p
}

func moduleNameFromArchivePath(p string) string {
	name := p
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' || name[i] == '\\' {
			name = name[i+1:]
			break
		}
	}
	const ext = ".cmod"
	if len(name) > len(ext) && name[len(name)-len(ext):] == ext {
		name = name[:len(name)-len(ext)]
	}
	return name
}
