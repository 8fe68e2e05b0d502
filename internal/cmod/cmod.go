// Package cmod implements the CMOD module: the on-disk
// src/+info/ module layout, its [Info]/[Export] block grammar, and
// load/save/validate operations.
//
// Block parsing is balanced-brace extraction over [Info]/[Export] bodies:
// quoted key = "value"; pairs inside [Info], comma-separated name lists
// keyed by "[Kind] @Tag" prefixes inside [Export].
package cmod

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chtl-lang/chtl/internal/fs"
	"github.com/chtl-lang/chtl/internal/logger"
)

// Info is the parsed [Info] block: module metadata.
type Info struct {
	Name             string
	Version          string
	Description      string
	Author           string
	License          string
	Dependencies     string
	Category         string
	MinCHTLVersion   string
	MaxCHTLVersion   string
}

// Export is the parsed, optional [Export] block.
type Export struct {
	CustomStyles      []string
	CustomElements    []string
	CustomVars        []string
	TemplateStyles    []string
	TemplateElements  []string
	TemplateVars      []string
	OriginHTML        []string
	OriginStyle       []string
	OriginJavaScript  []string
	OriginCustoms     []string
	Configurations    []string
}

// Module is a loaded CMOD: its metadata, export manifest, source files
// keyed by path relative to the module root, and any sub-modules nested
// under src/.
type Module struct {
	Info       Info
	Export     Export
	Sources    map[string]string // relative path -> contents
	SourceKeys []string          // insertion order, for deterministic Save
	SubModules map[string]*Module
}

func newModule() *Module {
	return &Module{
		Sources:    make(map[string]string),
		SubModules: make(map[string]*Module),
	}
}

// NewModule exposes newModule to internal/cmodarchive, which builds a
// Module up entry-by-entry while unpacking an archive rather than loading
// one from a directory tree.
func NewModule() *Module {
	return newModule()
}

// IngestArchiveEntry folds one decoded archive entry into m, dispatching on
// its archive-relative path: "info/<name>.chtl" populates Info/Export,
// "src/<rel>" adds a source file, and "src/<sub>/..." recurses into (or
// creates) a sub-module, building the same module tree Load builds from a
// directory.
func IngestArchiveEntry(m *Module, name, archivePath string, data []byte) error {
	return ingestArchiveEntry(m, name, archivePath, data)
}

func ingestArchiveEntry(m *Module, name, archivePath string, data []byte) error {
	if archivePath == "info/"+name+".chtl" {
		content := string(data)
		info, ok := parseInfo(content)
		if !ok {
			return fmt.Errorf("cmod archive: malformed [Info] block in %s", archivePath)
		}
		m.Info = info
		m.Export = parseExport(content)
		return nil
	}

	const srcPrefix = "src/"
	if !strings.HasPrefix(archivePath, srcPrefix) {
		return fmt.Errorf("cmod archive: unexpected entry %q", archivePath)
	}
	rest := archivePath[len(srcPrefix):]
	slash := strings.IndexByte(rest, '/')
	if slash == -1 {
		if _, exists := m.Sources[rest]; !exists {
			m.SourceKeys = append(m.SourceKeys, rest)
		}
		m.Sources[rest] = string(data)
		return nil
	}

	subName := rest[:slash]
	sub, ok := m.SubModules[subName]
	if !ok {
		sub = newModule()
		m.SubModules[subName] = sub
	}
	return ingestArchiveEntry(sub, subName, rest[slash+1:], data)
}

// Load reads a CMOD module from a directory: verifies
// src/+info/ exist, parses info/<name>.chtl's [Info] and optional
// [Export] blocks, then recursively reads every regular file under src/,
// recursing into any subdirectory that itself has src/+info/ as a
// sub-module.
func Load(fsys fs.FS, dir string, log logger.Log) (*Module, bool) {
	srcDir := fs.Join2(dir, "src")
	infoDir := fs.Join2(dir, "info")
	if !fs.IsDir(fsys, srcDir) || !fs.IsDir(fsys, infoDir) {
		log.AddWithoutLocation(logger.StructuralError, fmt.Sprintf("%s: missing src/ or info/", dir))
		return nil, false
	}

	name := baseName(dir)
	infoPath := fs.Join2(infoDir, name+".chtl")
	contents, err := fs.ReadFile(fsys, infoPath)
	if err != nil {
		log.AddWithoutLocation(logger.IoError, fmt.Sprintf("%s: %s", infoPath, err))
		return nil, false
	}

	m := newModule()
	info, ok := parseInfo(contents)
	if !ok {
		log.AddWithoutLocation(logger.StructuralError, fmt.Sprintf("%s: missing required [Info] fields", infoPath))
		return nil, false
	}
	m.Info = info
	m.Export = parseExport(contents)

	if !loadSources(fsys, srcDir, "", m, log) {
		return nil, false
	}
	if exportIsEmpty(m.Export) {
		m.Export = AutoExport(m)
	}
	return m, true
}

func baseName(p string) string {
	p = strings.TrimRight(p, "/")
	if idx := strings.LastIndexByte(p, '/'); idx != -1 {
		return p[idx+1:]
	}
	return p
}

func loadSources(fsys fs.FS, srcDir, relPrefix string, m *Module, log logger.Log) bool {
	entries := fs.ListDir(fsys, srcDir)
	sort.Strings(entries)
	for _, entry := range entries {
		abs := fs.Join2(srcDir, entry)
		rel := entry
		if relPrefix != "" {
			rel = relPrefix + "/" + entry
		}
		if fs.IsDir(fsys, abs) {
			subSrc := fs.Join2(abs, "src")
			subInfo := fs.Join2(abs, "info")
			if fs.IsDir(fsys, subSrc) && fs.IsDir(fsys, subInfo) {
				sub, ok := Load(fsys, abs, log)
				if !ok {
					return false
				}
				m.SubModules[entry] = sub
				continue
			}
			if !loadSources(fsys, abs, rel, m, log) {
				return false
			}
			continue
		}
		contents, err := fs.ReadFile(fsys, abs)
		if err != nil {
			log.AddWithoutLocation(logger.IoError, fmt.Sprintf("%s: %s", abs, err))
			return false
		}
		if _, exists := m.Sources[rel]; !exists {
			m.SourceKeys = append(m.SourceKeys, rel)
		}
		m.Sources[rel] = contents
	}
	return true
}

// Save mirrors Load: writes info/<name>.chtl with a canonical [Info] block
// followed by the [Export] block (the declared one, or the auto-generated
// one when none was declared), then every source file.
func Save(fsys fs.FS, dir string, m *Module) error {
	infoDir := fs.Join2(dir, "info")
	srcDir := fs.Join2(dir, "src")

	infoText := m.Info.Serialize() + "\n" + EffectiveExport(m).Serialize()
	if err := fs.WriteFile(fsys, fs.Join2(infoDir, m.Info.Name+".chtl"), infoText); err != nil {
		return err
	}
	for _, rel := range m.SourceKeys {
		if err := fs.WriteFile(fsys, fs.Join2(srcDir, rel), m.Sources[rel]); err != nil {
			return err
		}
	}
	for name, sub := range m.SubModules {
		if err := Save(fsys, fs.Join2(srcDir, name), sub); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks five structural rules: name matches the folder, version
// is present, version strings are well-formed, dependencies are loadable,
// and src/<name>.chtl exists when there are no sub-modules. loadable reports whether a dependency name can be loaded,
// delegated to the caller (the CMOD manager owns the search-path/cache
// logic).
func Validate(m *Module, folderName string, loadable func(name string) bool) []string {
	var errs []string
	if m.Info.Name == "" {
		errs = append(errs, "info.name is empty")
	} else if m.Info.Name != folderName {
		errs = append(errs, fmt.Sprintf("info.name %q does not match folder name %q", m.Info.Name, folderName))
	}
	if m.Info.Version == "" {
		errs = append(errs, "info.version is empty")
	}
	if m.Info.MinCHTLVersion != "" && !isWellFormedVersion(m.Info.MinCHTLVersion) {
		errs = append(errs, fmt.Sprintf("minCHTLVersion %q is not three dot-separated unsigned integers", m.Info.MinCHTLVersion))
	}
	if m.Info.MaxCHTLVersion != "" && !isWellFormedVersion(m.Info.MaxCHTLVersion) {
		errs = append(errs, fmt.Sprintf("maxCHTLVersion %q is not three dot-separated unsigned integers", m.Info.MaxCHTLVersion))
	}
	for _, dep := range splitDependencies(m.Info.Dependencies) {
		if !loadable(dep) {
			errs = append(errs, fmt.Sprintf("dependency %q is not loadable", dep))
		}
	}
	if len(m.SubModules) == 0 {
		mainSource := m.Info.Name + ".chtl"
		if _, ok := m.Sources[mainSource]; !ok {
			errs = append(errs, fmt.Sprintf("src/%s is required when the module has no sub-modules", mainSource))
		}
	}
	return errs
}

func splitDependencies(deps string) []string {
	if strings.TrimSpace(deps) == "" {
		return nil
	}
	var out []string
	for _, d := range strings.Split(deps, ",") {
		d = strings.TrimSpace(d)
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}

func isWellFormedVersion(v string) bool {
	parts := strings.Split(v, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		for _, c := range p {
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}
