package importresolver_test

import (
	"strings"
	"testing"

	"github.com/chtl-lang/chtl/internal/fs"
	"github.com/chtl-lang/chtl/internal/importresolver"
	"github.com/chtl-lang/chtl/internal/test"
)

func TestHtmlImportWithoutAsSucceedsWithNoEffect(t *testing.T) {
	fsys := fs.Mock()
	r := importresolver.New(fsys, "/work")
	r.SetCurrentFile("/work/page.chtl")

	decl := &importresolver.Decl{Kind: importresolver.Html, Path: "missing.html"}
	if err := r.Resolve(decl); err != nil {
		t.Fatalf("expected no-op success, got %v", err)
	}
	test.AssertEqual(t, decl.Resolved, true)
	test.AssertEqual(t, decl.ResolvedPath, "")
}

func TestHtmlImportWithAsProbesExtensions(t *testing.T) {
	fsys := fs.Mock()
	fs.WriteFile(fsys, "/work/widget.html", "<div></div>")
	r := importresolver.New(fsys, "/work")
	r.SetCurrentFile("/work/page.chtl")

	decl := &importresolver.Decl{Kind: importresolver.Html, Path: "widget", HasAlias: true, Alias: "Widget"}
	if err := r.Resolve(decl); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	test.AssertEqual(t, decl.ResolvedPath, "/work/widget.html")
}

func TestHtmlImportWithAsRejectsFolder(t *testing.T) {
	fsys := fs.Mock()
	fs.WriteFile(fsys, "/work/widget/inner.txt", "x")
	r := importresolver.New(fsys, "/work")
	r.SetCurrentFile("/work/page.chtl")

	decl := &importresolver.Decl{Kind: importresolver.Html, Path: "widget", HasAlias: true, Alias: "Widget"}
	err := r.Resolve(decl)
	if err == nil {
		t.Fatalf("expected a folder-instead-of-file resolution error")
	}
	if !strings.Contains(err.Error(), "folder") {
		t.Fatalf("want the diagnostic to name the folder problem, got %v", err)
	}
}

func TestChtlImportPrefersCmodOverChtl(t *testing.T) {
	fsys := fs.Mock()
	fs.WriteFile(fsys, "/work/module/Box.cmod", "binary")
	fs.WriteFile(fsys, "/work/module/Box.chtl", "source")
	r := importresolver.New(fsys, "/work")
	r.SetCurrentFile("/work/page.chtl")

	decl := &importresolver.Decl{Kind: importresolver.Chtl, Path: "Box"}
	if err := r.Resolve(decl); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	test.AssertEqual(t, decl.ResolvedPath, "/work/module/Box.cmod")
}

func TestChtlImportTranslatesDottedSubmodulePath(t *testing.T) {
	fsys := fs.Mock()
	fs.WriteFile(fsys, "/work/Chtholly/Space.chtl", "source")
	r := importresolver.New(fsys, "/work")
	r.SetCurrentFile("/work/page.chtl")

	decl := &importresolver.Decl{Kind: importresolver.Chtl, Path: "Chtholly.Space"}
	if err := r.Resolve(decl); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	test.AssertEqual(t, decl.ResolvedPath, "/work/Chtholly/Space.chtl")
}

func TestChtlWildcardImportSetsImportAll(t *testing.T) {
	fsys := fs.Mock()
	fs.WriteFile(fsys, "/work/Widgets/A.chtl", "a")
	r := importresolver.New(fsys, "/work")
	r.SetCurrentFile("/work/page.chtl")

	decl := &importresolver.Decl{Kind: importresolver.Chtl, Path: "Widgets/*"}
	if err := r.Resolve(decl); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	test.AssertEqual(t, decl.ImportAll, true)
	test.AssertEqual(t, decl.ResolvedPath, "/work/Widgets")
}

func TestCustomElementImportDelegatesToChtlSearch(t *testing.T) {
	fsys := fs.Mock()
	fs.WriteFile(fsys, "/work/module/Box.chtl", "source")
	r := importresolver.New(fsys, "/work")
	r.SetCurrentFile("/work/page.chtl")

	decl := &importresolver.Decl{Kind: importresolver.CustomElement, Path: "Box", TargetName: "Box"}
	if err := r.Resolve(decl); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	test.AssertEqual(t, decl.ResolvedPath, "/work/module/Box.chtl")
}

func TestCJmodImportOnlyProbesCjmodExtension(t *testing.T) {
	fsys := fs.Mock()
	fs.WriteFile(fsys, "/work/Effects.cjmod", "binary")
	r := importresolver.New(fsys, "/work")
	r.SetCurrentFile("/work/page.chtl")

	decl := &importresolver.Decl{Kind: importresolver.CJmod, Path: "Effects"}
	if err := r.Resolve(decl); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	test.AssertEqual(t, decl.ResolvedPath, "/work/Effects.cjmod")
}

func TestChtlImportFailsWhenNotFound(t *testing.T) {
	fsys := fs.Mock()
	r := importresolver.New(fsys, "/work")
	r.SetCurrentFile("/work/page.chtl")

	decl := &importresolver.Decl{Kind: importresolver.Chtl, Path: "Missing"}
	if err := r.Resolve(decl); err == nil {
		t.Fatalf("expected resolution failure")
	}
}

func TestCompilerModulePathSearchedFirst(t *testing.T) {
	fsys := fs.Mock()
	fs.WriteFile(fsys, "/opt/chtl-modules/Box.chtl", "official")
	fs.WriteFile(fsys, "/work/module/Box.chtl", "local")
	r := importresolver.New(fsys, "/work")
	r.SetCompilerModulePath("/opt/chtl-modules")
	r.SetCurrentFile("/work/page.chtl")

	decl := &importresolver.Decl{Kind: importresolver.Chtl, Path: "Box"}
	if err := r.Resolve(decl); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	test.AssertEqual(t, decl.ResolvedPath, "/opt/chtl-modules/Box.chtl")
}
