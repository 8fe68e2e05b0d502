// Package cmodmanager implements the CMOD Manager: an ordered list of
// search paths, a name-to-module load cache, and recursive dependency
// loading with cycle detection.
package cmodmanager

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/chtl-lang/chtl/internal/cmod"
	"github.com/chtl-lang/chtl/internal/cmodarchive"
	"github.com/chtl-lang/chtl/internal/fs"
	"github.com/chtl-lang/chtl/internal/logger"
)

// Manager owns one job's CMOD load cache and search-path list. It is not
// safe for concurrent mutation; each compile job constructs its own.
type Manager struct {
	fsys        fs.FS
	searchPaths []string
	cache       map[string]*cmod.Module
	loading     map[string]bool // names currently on the dependency-resolution stack, for cycle detection
	jobID       string
}

// New builds a Manager with the default search paths, "./module/" then
// "./". It also draws a fresh job id, available through JobID.
func New(fsys fs.FS) *Manager {
	return &Manager{
		fsys:        fsys,
		searchPaths: []string{"./module", "./"},
		cache:       make(map[string]*cmod.Module),
		loading:     make(map[string]bool),
		jobID:       uuid.NewString(),
	}
}

// JobID returns this manager's correlation id, for a caller that wants to
// thread it into its own trace. The manager's own diagnostics do not
// include it.
func (mgr *Manager) JobID() string {
	return mgr.jobID
}

// AddSearchPath appends a path to the search order. Paths that are not
// directories are silently skipped.
func (mgr *Manager) AddSearchPath(path string) {
	if fs.IsDir(mgr.fsys, path) {
		mgr.searchPaths = append(mgr.searchPaths, path)
	}
}

// ClearSearchPaths empties the search-path list.
func (mgr *Manager) ClearSearchPaths() {
	mgr.searchPaths = nil
}

// Get returns a previously loaded module, or nil if name has not been
// loaded.
func (mgr *Manager) Get(name string) *cmod.Module {
	return mgr.cache[name]
}

// Unload evicts name from the cache. Callers must not retain a *cmod.Module
// obtained before Unload.
func (mgr *Manager) Unload(name string) {
	delete(mgr.cache, name)
}

// Clear empties the entire cache.
func (mgr *Manager) Clear() {
	mgr.cache = make(map[string]*cmod.Module)
}

// found describes where find located a module: either a directory
// (src/+info/ layout) or a .cmod archive file.
type found struct {
	path  string
	isDir bool
}

// find walks the search paths in order, accepting the first hit that is
// either a valid CMOD directory or a ".cmod" archive file.
func (mgr *Manager) find(name string) (found, bool) {
	for _, searchPath := range mgr.searchPaths {
		dirPath := fs.Join2(searchPath, name)
		if fs.IsDir(mgr.fsys, dirPath) &&
			fs.IsDir(mgr.fsys, fs.Join2(dirPath, "src")) &&
			fs.IsDir(mgr.fsys, fs.Join2(dirPath, "info")) {
			return found{path: dirPath, isDir: true}, true
		}

		archivePath := fs.Join2(searchPath, name+".cmod")
		if fs.IsFile(mgr.fsys, archivePath) {
			return found{path: archivePath, isDir: false}, true
		}
	}
	return found{}, false
}

// Load resolves name, loading and validating it (and, recursively, every
// module named in its info.dependencies) if it is not already cached.
// A dependency cycle between modules is fatal: it is reported with the
// full cycle path and the load is aborted.
func (mgr *Manager) Load(name string, log logger.Log) (*cmod.Module, bool) {
	return mgr.load(name, nil, log)
}

func (mgr *Manager) load(name string, chain []string, log logger.Log) (*cmod.Module, bool) {
	if m, ok := mgr.cache[name]; ok {
		return m, true
	}
	if mgr.loading[name] {
		log.AddWithoutLocation(logger.CycleError, fmt.Sprintf("module dependency cycle: %s -> %s", strings.Join(chain, " -> "), name))
		return nil, false
	}

	loc, ok := mgr.find(name)
	if !ok {
		log.AddWithoutLocation(logger.IoError, fmt.Sprintf("cannot find module %q in search paths %v", name, mgr.searchPaths))
		return nil, false
	}

	var m *cmod.Module
	if loc.isDir {
		m, ok = cmod.Load(mgr.fsys, loc.path, log)
	} else {
		m, ok = mgr.loadArchive(loc.path, name, log)
	}
	if !ok {
		return nil, false
	}

	errs := cmod.Validate(m, name, func(dep string) bool {
		return mgr.dependencyLoadable(dep, name, chain, log)
	})
	for _, e := range errs {
		log.AddWithoutLocation(logger.StructuralError, fmt.Sprintf("%s: %s", name, e))
	}
	if len(errs) > 0 {
		return nil, false
	}

	if !cmod.InVersionRange(cmod.CompilerVersion, m.Info.MinCHTLVersion, m.Info.MaxCHTLVersion) {
		log.AddWithoutLocation(logger.VersionError, fmt.Sprintf(
			"%s: compiler version %s outside supported range [%s, %s]",
			name, cmod.CompilerVersion, m.Info.MinCHTLVersion, m.Info.MaxCHTLVersion))
		return nil, false
	}

	mgr.cache[name] = m
	return m, true
}

// dependencyLoadable recursively loads a dependency module, tracking the
// chain of in-progress names so a cycle can be reported with its full path.
func (mgr *Manager) dependencyLoadable(dep, from string, chain []string, log logger.Log) bool {
	mgr.loading[from] = true
	defer delete(mgr.loading, from)

	_, ok := mgr.load(dep, append(append([]string(nil), chain...), from), log)
	return ok
}

func (mgr *Manager) loadArchive(path, name string, log logger.Log) (*cmod.Module, bool) {
	f, err := mgr.fsys.Open(path)
	if err != nil {
		log.AddWithoutLocation(logger.IoError, fmt.Sprintf("%s: %s", path, err))
		return nil, false
	}
	defer f.Close()

	m, err := cmodarchive.Unpack(f, name)
	if err != nil {
		log.AddWithoutLocation(logger.ArchiveError, fmt.Sprintf("%s: %s", path, err))
		return nil, false
	}
	return m, true
}
