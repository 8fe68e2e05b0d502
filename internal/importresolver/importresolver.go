// Package importresolver implements the Import Resolver: per-kind path
// resolution for CHTL's [Import] declarations.
//
// Dependency tracking is not duplicated here; callers thread resolved
// paths through internal/depgraph directly.
package importresolver

import (
	"fmt"
	"strings"

	"github.com/chtl-lang/chtl/internal/fs"
	"github.com/chtl-lang/chtl/internal/pathkey"
)

// Kind enumerates the [Import] declaration kinds an ImportDeclaration
// names.
type Kind int

const (
	Html Kind = iota
	Style
	JavaScript
	Chtl
	CJmod
	CustomElement
	CustomStyle
	CustomVar
	TemplateElement
	TemplateStyle
	TemplateVar
	Config
	OriginHTML
	OriginStyle
	OriginJavaScript
)

// Decl is one [Import] declaration, carrying both its raw source form and
// (once resolved) its canonical resolved path.
type Decl struct {
	Kind       Kind
	Path       string
	TargetName string
	Alias      string
	HasAlias   bool
	ImportAll  bool

	SourceFile string
	Line       int
	Col        int

	ResolvedPath string
	Resolved     bool
}

// Resolver resolves Decl.Path against a current file's directory, an
// optional compiler module path, and the filesystem. One Resolver is built
// per compile job; each job owns its own resolver.
type Resolver struct {
	fsys               fs.FS
	cwd                string
	compilerModulePath string
	currentFile        string
	currentDir         string
}

// New builds a Resolver rooted at cwd (used to canonicalize relative paths
// when no current file has been set yet).
func New(fsys fs.FS, cwd string) *Resolver {
	return &Resolver{fsys: fsys, cwd: cwd}
}

// SetCompilerModulePath sets the official/compiler-provided module search
// root, normally seeded from the CHTL_MODULE_PATH environment variable.
func (r *Resolver) SetCompilerModulePath(path string) {
	r.compilerModulePath = path
}

// SetCurrentFile tells the resolver which file's [Import] declarations are
// about to be resolved; relative paths resolve against its directory.
func (r *Resolver) SetCurrentFile(path string) {
	r.currentFile = path
	r.currentDir = pathkey.Dir(pathkey.Canonicalize(r.cwd, path))
}

// Resolve dispatches on decl.Kind to the matching resolution strategy and
// fills in ResolvedPath/Resolved (or returns an error on failure, leaving
// the declaration unresolved).
func (r *Resolver) Resolve(decl *Decl) error {
	switch decl.Kind {
	case Html, Style, JavaScript:
		return r.resolveHTMLStyleJS(decl)
	case Chtl:
		return r.resolveChtl(decl)
	case CJmod:
		return r.resolveCJmod(decl)
	case CustomElement, CustomStyle, CustomVar, TemplateElement, TemplateStyle, TemplateVar,
		OriginHTML, OriginStyle, OriginJavaScript, Config:
		return r.resolveViaChtl(decl)
	default:
		return fmt.Errorf("[ResolutionError %s:%d:%d] unknown import kind", decl.SourceFile, decl.Line, decl.Col)
	}
}

// ResolveAll resolves every declaration, collecting failures instead of
// stopping at the first one, so a single run surfaces as many resolution
// diagnostics as possible.
func (r *Resolver) ResolveAll(decls []*Decl) []error {
	var errs []error
	for _, decl := range decls {
		if err := r.Resolve(decl); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

var htmlExts = []string{".html", ".htm"}
var styleExts = []string{".css"}
var jsExts = []string{".js"}

// resolveHTMLStyleJS implements the rule that Html/Style/JavaScript
// imports succeed with no effect when there's no "as" alias; otherwise the
// path is resolved relative to the current file's directory, probing the
// kind-appropriate extension set when the path has none.
func (r *Resolver) resolveHTMLStyleJS(decl *Decl) error {
	if !decl.HasAlias {
		decl.Resolved = true
		return nil
	}

	var exts []string
	switch decl.Kind {
	case Html:
		exts = htmlExts
	case Style:
		exts = styleExts
	case JavaScript:
		exts = jsExts
	}

	if hasKnownExtension(decl.Path, exts) {
		full := pathkey.Join(r.currentDir, decl.Path)
		if fs.IsFile(r.fsys, full) {
			decl.ResolvedPath = full
			decl.Resolved = true
			return nil
		}
		if fs.IsDir(r.fsys, full) {
			return r.isAFolder(decl, full)
		}
		return r.notFound(decl)
	}

	if found := findWithExtensions(r.fsys, r.currentDir, decl.Path, exts); found != "" {
		decl.ResolvedPath = found
		decl.Resolved = true
		return nil
	}
	if bare := pathkey.Join(r.currentDir, decl.Path); fs.IsDir(r.fsys, bare) {
		return r.isAFolder(decl, bare)
	}
	return r.notFound(decl)
}

// resolveChtl implements the Chtl search order: compiler module path, then
// <currentDir>/module/, then <currentDir>, trying ".cmod" before ".chtl"
// when the path carries no extension. Wildcard paths ("A/*"/"A.*") resolve
// to their containing directory with ImportAll set.
func (r *Resolver) resolveChtl(decl *Decl) error {
	if strings.Contains(decl.Path, "*") {
		return r.resolveWildcard(decl)
	}

	explicit := hasKnownExtension(decl.Path, []string{".cmod", ".chtl"})
	modulePath := decl.Path
	if !explicit {
		modulePath = pathkey.DotPathToSlash(decl.Path)
	}
	for _, searchDir := range r.searchDirs() {
		if explicit {
			full := pathkey.Join(searchDir, modulePath)
			if fs.IsFile(r.fsys, full) {
				decl.ResolvedPath = full
				decl.Resolved = true
				return nil
			}
			continue
		}
		if full := pathkey.Join(searchDir, modulePath+".cmod"); fs.IsFile(r.fsys, full) {
			decl.ResolvedPath = full
			decl.Resolved = true
			return nil
		}
		if full := pathkey.Join(searchDir, modulePath+".chtl"); fs.IsFile(r.fsys, full) {
			decl.ResolvedPath = full
			decl.Resolved = true
			return nil
		}
	}
	return fmt.Errorf("[ResolutionError %s:%d:%d] cannot find CHTL module %q", decl.SourceFile, decl.Line, decl.Col, decl.Path)
}

// resolveCJmod mirrors resolveChtl's search order but only ever probes
// ".cjmod".
func (r *Resolver) resolveCJmod(decl *Decl) error {
	explicit := hasKnownExtension(decl.Path, []string{".cjmod"})
	modulePath := decl.Path
	if !explicit {
		modulePath = pathkey.DotPathToSlash(decl.Path)
	}
	for _, searchDir := range r.searchDirs() {
		name := modulePath
		if !explicit {
			name += ".cjmod"
		}
		full := pathkey.Join(searchDir, name)
		if fs.IsFile(r.fsys, full) {
			decl.ResolvedPath = full
			decl.Resolved = true
			return nil
		}
	}
	return fmt.Errorf("[ResolutionError %s:%d:%d] cannot find CJmod module %q", decl.SourceFile, decl.Line, decl.Col, decl.Path)
}

// resolveViaChtl implements CustomXxx/TemplateXxx/OriginXxx/Config's
// delegation to the Chtl search order: they name a symbol inside a CHTL
// file, found with the same path rules as a plain @Chtl import.
func (r *Resolver) resolveViaChtl(decl *Decl) error {
	asChtl := *decl
	asChtl.Kind = Chtl
	if err := r.resolveChtl(&asChtl); err != nil {
		return err
	}
	decl.ResolvedPath = asChtl.ResolvedPath
	decl.Resolved = true
	return nil
}

func (r *Resolver) resolveWildcard(decl *Decl) error {
	base := decl.Path
	if idx := strings.Index(base, "/*"); idx != -1 {
		base = base[:idx]
	} else if idx := strings.Index(base, ".*"); idx != -1 {
		base = base[:idx]
	}
	base = pathkey.DotPathToSlash(base)

	dir := base
	if !strings.HasPrefix(base, "/") {
		dir = pathkey.Join(r.currentDir, base)
	}
	if !fs.IsDir(r.fsys, dir) {
		return fmt.Errorf("[ResolutionError %s:%d:%d] cannot find directory %q", decl.SourceFile, decl.Line, decl.Col, dir)
	}
	decl.ImportAll = true
	decl.ResolvedPath = dir
	decl.Resolved = true
	return nil
}

// searchDirs returns the Chtl/CJmod search order: compiler module path (if
// set), then <currentDir>/module, then <currentDir>.
func (r *Resolver) searchDirs() []string {
	var dirs []string
	if r.compilerModulePath != "" {
		dirs = append(dirs, r.compilerModulePath)
	}
	dirs = append(dirs, pathkey.Join(r.currentDir, "module"), r.currentDir)
	return dirs
}

func (r *Resolver) notFound(decl *Decl) error {
	return fmt.Errorf("[ResolutionError %s:%d:%d] cannot find file %q", decl.SourceFile, decl.Line, decl.Col, decl.Path)
}

func (r *Resolver) isAFolder(decl *Decl, path string) error {
	return fmt.Errorf("[ResolutionError %s:%d:%d] %q is a folder, expected a file", decl.SourceFile, decl.Line, decl.Col, path)
}

// hasKnownExtension reports whether p ends with one of exts. Import paths
// can use '.' as a submodule separator ("Chtholly.Space"), so a generic
// "does the basename contain a dot" test would misfire; only a recognized
// trailing extension counts as "the caller named a specific file."
func hasKnownExtension(p string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}

func findWithExtensions(fsys fs.FS, dir, basename string, exts []string) string {
	for _, ext := range exts {
		full := pathkey.Join(dir, basename+ext)
		if fs.IsFile(fsys, full) {
			return full
		}
	}
	return ""
}
