// Command chtl-simple compiles one CHTL file to HTML.
//
// Usage: chtl-simple <input.chtl> [output.html]
//
// Reads the input, compiles it, and writes the result to the named output
// file ("-" for stdout). Exits 0 on success, 1 on any I/O or compile
// failure.
package main

import (
	"fmt"
	"os"

	"github.com/chtl-lang/chtl/internal/compiler"
	"github.com/chtl-lang/chtl/internal/config"
	"github.com/chtl-lang/chtl/internal/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	cfg, args, err := config.Load(argv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if args.Input == "" {
		fmt.Fprintln(os.Stderr, "Usage: chtl-simple <input.chtl> [output.html]")
		return 1
	}
	outputFile := args.Output
	if outputFile == "" {
		outputFile = "output.html"
	}

	contents, err := os.ReadFile(args.Input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot open file %s\n", args.Input)
		return 1
	}

	html, log := compiler.Compile(string(contents), args.Input, &cfg)
	if log.HasErrors() {
		logger.PrintMessages(os.Stderr, log.Done(), cfg.Verbose)
		return 1
	}

	if outputFile == "-" {
		fmt.Fprint(os.Stdout, html)
		return 0
	}
	if err := os.WriteFile(outputFile, []byte(html), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot write to file %s\n", outputFile)
		return 1
	}
	fmt.Printf("Successfully compiled %s to %s\n", args.Input, outputFile)
	return 0
}
