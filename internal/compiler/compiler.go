// Package compiler wires the scanner, import resolver, dependency graph,
// namespace store, and CMOD manager into one single-threaded compile job:
// scan, resolve imports, load referenced modules, then assemble a minimal
// HTML document. Code generation beyond that minimal assembly is out of
// scope.
package compiler

import (
	"strings"

	"github.com/chtl-lang/chtl/internal/cjmod"
	"github.com/chtl-lang/chtl/internal/cjmod/stdmacros"
	"github.com/chtl-lang/chtl/internal/cmodmanager"
	"github.com/chtl-lang/chtl/internal/config"
	"github.com/chtl-lang/chtl/internal/depgraph"
	"github.com/chtl-lang/chtl/internal/fs"
	"github.com/chtl-lang/chtl/internal/importresolver"
	"github.com/chtl-lang/chtl/internal/logger"
	"github.com/chtl-lang/chtl/internal/namespace"
	"github.com/chtl-lang/chtl/internal/pathkey"
	"github.com/chtl-lang/chtl/internal/scanner"
	"go.uber.org/zap"
)

// Job holds per-compile-job state that must not be shared across
// concurrently running jobs: its own scanner output, resolver,
// dependency graph, namespace store, and CMOD manager.
type Job struct {
	FileName string
	Config   *config.Config
	Fsys     fs.FS

	Resolver *importresolver.Resolver
	Graph    *depgraph.Graph
	Modules  *cmodmanager.Manager
	Names    *namespace.Store
	Trace    *zap.Logger
}

// newJob builds the per-job component set a Compile call threads its
// fragments through.
func newJob(fileName string, cfg *config.Config, fsys fs.FS) *Job {
	cwd := pathkey.Dir(fileName)
	resolver := importresolver.New(fsys, cwd)
	if len(cfg.ModulePath) > 0 {
		resolver.SetCompilerModulePath(cfg.ModulePath[0])
	}
	resolver.SetCurrentFile(fileName)

	modules := cmodmanager.New(fsys)
	for _, p := range cfg.ModulePath {
		modules.AddSearchPath(p)
	}

	graph := depgraph.New(cwd)
	graph.MarkAsImported(fileName)

	return &Job{
		FileName: fileName,
		Config:   cfg,
		Fsys:     fsys,
		Resolver: resolver,
		Graph:    graph,
		Modules:  modules,
		Names:    namespace.New(),
		Trace:    newTraceLogger(cfg.Verbose),
	}
}

// Compile runs one compile job over src, returning the assembled HTML
// document and the diagnostic log the pipeline accumulated. Callers check
// log.HasErrors() before trusting html, matching the standard exit-code
// contract (0 on success, 1 otherwise).
func Compile(src, fileName string, cfg *config.Config) (string, *logger.Log) {
	fsys := fs.Real()
	job := newJob(fileName, cfg, fsys)
	log := logger.NewDeferLog()

	fragments, scanLog := scanner.Scan(src, fileName)
	for _, msg := range scanLog.Done() {
		log.AddMsg(msg)
	}
	job.Trace.Debug("scanned source", zap.String("file", fileName), zap.Int("fragments", len(fragments)))
	defer job.Trace.Sync()

	registry := cjmod.NewRegistry()
	stdmacros.Register(registry)
	rewriter := cjmod.NewScanner(registry, cjmod.SlidingWindow)

	var chtlText, cssText, jsText strings.Builder
	var prelude []string
	preludeSeen := make(map[string]bool)
	for _, frag := range fragments {
		switch frag.Kind {
		case scanner.CHTL:
			chtlText.WriteString(frag.Text)
			job.processImports(frag, log)
			registerDeclarations(frag.Text, fileName, job.Names, log)
		case scanner.CSS:
			cssText.WriteString(frag.Text)
		case scanner.JS:
			jsText.WriteString(frag.Text)
		case scanner.CHTLJS:
			rewritten, matches := rewriter.ScanAndProcess(frag.Text, log, fileName)
			jsText.WriteString(rewritten)

			// A "vir X = f({...})" statement over a vir-supported function
			// contributes one accessor helper per bound key to the output's
			// global prelude.
			if !strings.HasPrefix(strings.TrimLeft(frag.Text, " \t"), "vir") {
				continue
			}
			for _, match := range matches {
				fn, ok := registry.Lookup(match.FunctionName)
				if !ok || !fn.VirSupported {
					continue
				}
				for _, helper := range fn.VirHelpers() {
					if !preludeSeen[helper] {
						preludeSeen[helper] = true
						prelude = append(prelude, helper)
					}
				}
			}
		}
	}

	js := jsText.String()
	if len(prelude) > 0 {
		js = strings.Join(prelude, "\n") + "\n" + js
	}

	html := assemble(chtlText.String(), cssText.String(), js)
	return html, &log
}

// processImports extracts [Import] declarations from one CHTL fragment of
// the root file and resolves/links each. The graph's imported set tracks
// canonical file paths already walked, so a Chtl import that leads back
// into an already-visited file is still handed to the dependency graph
// (where it surfaces as a cycle) without the compiler re-descending into
// it forever.
func (job *Job) processImports(frag scanner.Fragment, log logger.Log) {
	job.importFrom(job.FileName, frag.Text, frag.StartLine, log)
}

// importFrom extracts, resolves, and links every [Import] declaration
// found in text (the contents of fromFile, or one CHTL fragment of it),
// then, for Chtl imports that resolve to a plain ".chtl" file not yet
// visited, recurses into that file's own declarations. This is what lets
// two mutually-importing files close a cycle: the dependency graph only
// sees both edges once the compiler has actually walked into the
// imported file.
func (job *Job) importFrom(fromFile, text string, startLine int, log logger.Log) {
	job.Resolver.SetCurrentFile(fromFile)
	decls := ExtractImportDecls(text, fromFile, startLine)
	for _, decl := range decls {
		if err := job.Resolver.Resolve(decl); err != nil {
			log.AddWithoutLocation(logger.ResolutionError, err.Error())
			continue
		}
		if decl.ImportAll {
			job.linkWildcardImport(fromFile, decl, log)
			continue
		}
		if !decl.Resolved {
			continue
		}

		switch decl.Kind {
		case importresolver.Chtl, importresolver.CustomElement, importresolver.CustomStyle,
			importresolver.CustomVar, importresolver.TemplateElement, importresolver.TemplateStyle,
			importresolver.TemplateVar, importresolver.OriginHTML, importresolver.OriginStyle,
			importresolver.OriginJavaScript, importresolver.Config, importresolver.CJmod:
			job.linkDependency(fromFile, decl, log)
		}
	}
}

// linkDependency adds an edge from fromFile to a resolved dependency's
// canonical path, surfacing a CycleError diagnostic (naming both
// canonical paths) when the edge would close a
// cycle. ".cmod" dependencies load through the CMOD manager so their
// exported symbols populate the namespace store; plain ".chtl"
// dependencies not yet visited are walked recursively for their own
// [Import] declarations.
func (job *Job) linkDependency(fromFile string, decl *importresolver.Decl, log logger.Log) {
	if !job.Graph.AddDependency(fromFile, decl.ResolvedPath) {
		cycle := job.Graph.CyclePath()
		job.Trace.Debug("import cycle detected", zap.Strings("path", cycle))
		log.AddWithoutLocation(logger.CycleError, "import cycle: "+strings.Join(cycle, " -> "))
		return
	}
	job.Trace.Debug("resolved import", zap.String("from", fromFile), zap.String("to", decl.ResolvedPath))

	if strings.HasSuffix(decl.ResolvedPath, ".cmod") {
		job.loadCMOD(decl.ResolvedPath, log)
		return
	}

	if !strings.HasSuffix(decl.ResolvedPath, ".chtl") || job.Graph.IsImported(decl.ResolvedPath) {
		return
	}
	job.Graph.MarkAsImported(decl.ResolvedPath)
	content, err := fs.ReadFile(job.Fsys, decl.ResolvedPath)
	if err != nil {
		return
	}
	registerImportedDeclarations(decl.ResolvedPath, content, job.Names, log)
	job.importFrom(decl.ResolvedPath, content, 1, log)
	job.Resolver.SetCurrentFile(fromFile)
}

// loadCMOD loads the archive or directory module at path and registers
// its exported Custom/Template/Var symbols into the namespace under the
// module's own name.
func (job *Job) loadCMOD(path string, log logger.Log) {
	dir := pathkey.Dir(path)
	name := moduleNameFromPath(path)
	job.Modules.AddSearchPath(dir)
	mod, ok := job.Modules.Load(name, log)
	if !ok {
		return
	}
	job.Trace.Debug("loaded cmod", zap.String("name", name), zap.String("path", path))
	guard := job.Names.Enter(name)
	defer guard.Exit()
	for _, sym := range mod.Export.CustomElements {
		job.Names.AddSymbol(namespace.Symbol{Name: sym, Kind: namespace.Custom})
	}
	for _, sym := range mod.Export.TemplateElements {
		job.Names.AddSymbol(namespace.Symbol{Name: sym, Kind: namespace.Template})
	}
	for _, sym := range mod.Export.CustomVars {
		job.Names.AddSymbol(namespace.Symbol{Name: sym, Kind: namespace.Var})
	}
}

// linkWildcardImport enumerates every ".chtl" file directly under a
// wildcard import's resolved directory and merges each one's declarations
// into the job's namespace store under the wildcard's own module name, so
// files matched by one "Name/*" import that redeclare the same symbol
// surface as a conflict rather than silently overwriting one another.
func (job *Job) linkWildcardImport(fromFile string, decl *importresolver.Decl, log logger.Log) {
	moduleName := wildcardModuleName(decl.Path)
	for _, name := range fs.ListDir(job.Fsys, decl.ResolvedPath) {
		if !strings.HasSuffix(name, ".chtl") {
			continue
		}
		full := pathkey.Join(decl.ResolvedPath, name)
		content, err := fs.ReadFile(job.Fsys, full)
		if err != nil {
			continue
		}
		if !job.Graph.AddDependency(fromFile, full) {
			cycle := job.Graph.CyclePath()
			log.AddWithoutLocation(logger.CycleError, "import cycle: "+strings.Join(cycle, " -> "))
			continue
		}
		registerWildcardImportDeclarations(full, content, moduleName, job.Names, log)
	}
}

func moduleNameFromPath(p string) string {
	name := p
	if idx := strings.LastIndexByte(name, '/'); idx != -1 {
		name = name[idx+1:]
	}
	return strings.TrimSuffix(name, ".cmod")
}

// assemble builds the minimal HTML document the simple compiler's
// contract promises: the CHTL element tree rendered as markup, a <style>
// block for any local CSS, and a <script> block for any local/CHTL-JS
// script content.
func assemble(chtl, css, js string) string {
	var sb strings.Builder
	sb.WriteString(emitCHTL(chtl))
	if strings.TrimSpace(css) != "" {
		sb.WriteString("<style>")
		sb.WriteString(css)
		sb.WriteString("</style>")
	}
	if strings.TrimSpace(js) != "" {
		sb.WriteString("<script>")
		sb.WriteString(js)
		sb.WriteString("</script>")
	}
	return sb.String()
}
