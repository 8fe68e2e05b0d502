// Package api exposes the compiler's two operations, compiling a file on
// disk and compiling a string of CHTL source already in memory, as a
// library surface a host program can call directly, instead of shelling
// out to the chtl-simple binary.
//
// CompileFile takes an entry point on disk, CompileString takes in-memory
// source; both produce an assembled HTML document plus any diagnostics
// the pipeline collected.
package api

import (
	"os"

	"github.com/chtl-lang/chtl/internal/compiler"
	"github.com/chtl-lang/chtl/internal/config"
	"github.com/chtl-lang/chtl/internal/logger"
)

// Message is one diagnostic, reported as clang-style text rather than the
// compiler's internal logger.Msg so callers outside this module's tree
// don't need to depend on internal/logger directly.
type Message struct {
	Text string
}

// CompileOptions configures a compile run. The zero value disables
// compression and uses no extra module/CJMOD search paths.
type CompileOptions struct {
	ModulePath       []string
	CJModSearchPaths []string
	Compress         bool
	Verbose          bool
}

func (o CompileOptions) toConfig() config.Config {
	cfg := config.Defaults()
	if len(o.ModulePath) > 0 {
		cfg.ModulePath = o.ModulePath
	}
	if len(o.CJModSearchPaths) > 0 {
		cfg.CJModSearchPaths = o.CJModSearchPaths
	}
	cfg.Compress = o.Compress
	cfg.Verbose = o.Verbose
	return cfg
}

// CompileResult is what a compile run produces: the assembled HTML (empty
// on failure) and every diagnostic collected along the way.
type CompileResult struct {
	HTML     string
	Errors   []Message
	Warnings []Message
}

// CompileString compiles in-memory CHTL source. sourceFile names the
// source for diagnostics and relative import resolution; it need not
// exist on disk.
func CompileString(source, sourceFile string, options CompileOptions) CompileResult {
	cfg := options.toConfig()
	html, log := compiler.Compile(source, sourceFile, &cfg)
	return toResult(html, log)
}

// CompileFile reads path from disk and compiles it.
func CompileFile(path string, options CompileOptions) CompileResult {
	contents, err := os.ReadFile(path)
	if err != nil {
		return CompileResult{Errors: []Message{{Text: err.Error()}}}
	}
	return CompileString(string(contents), path, options)
}

// toResult splits the pipeline's flat diagnostic list into errors and
// warnings: every kind but logger.Note is an error, since Note is the
// diagnostic model's only non-fatal kind.
func toResult(html string, log *logger.Log) CompileResult {
	result := CompileResult{HTML: html}
	for _, msg := range log.Done() {
		m := Message{Text: msg.String(false, logger.TerminalInfo{})}
		if msg.Kind == logger.Note {
			result.Warnings = append(result.Warnings, m)
		} else {
			result.Errors = append(result.Errors, m)
		}
	}
	if len(result.Errors) > 0 {
		result.HTML = ""
	}
	return result
}
