package compiler_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chtl-lang/chtl/internal/compiler"
	"github.com/chtl-lang/chtl/internal/config"
	"github.com/chtl-lang/chtl/internal/logger"
)

// A plain element tree compiles to matching HTML with no diagnostics.
func TestScenarioPlainElementCompiles(t *testing.T) {
	cfg := config.Defaults()
	html, log := compiler.Compile(`div { text { Hello } }`, "<test>", &cfg)
	if log.HasErrors() {
		t.Fatalf("unexpected errors: %v", log.Done())
	}
	if !strings.Contains(html, "<div>Hello</div>") {
		t.Fatalf("want <div>Hello</div> in output, got %q", html)
	}
}

// An [Import] @Html declaration with no "as" clause succeeds with no
// effect even though the file doesn't exist.
func TestScenarioHtmlImportWithoutAliasIsHarmless(t *testing.T) {
	cfg := config.Defaults()
	src := `[Import] @Html from "header";
div { text { Body } }`
	html, log := compiler.Compile(src, "<test>", &cfg)
	if log.HasErrors() {
		t.Fatalf("unexpected errors: %v", log.Done())
	}
	if !strings.Contains(html, "<div>Body</div>") {
		t.Fatalf("want <div>Body</div> in output, got %q", html)
	}
}

// Two files that import each other trigger a CycleError naming both
// canonical paths; the resolver itself still succeeds for both imports.
func TestScenarioMutualChtlImportIsACycle(t *testing.T) {
	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.chtl")
	bPath := filepath.Join(dir, "b.chtl")
	if err := os.WriteFile(aPath, []byte(`[Import] @Chtl from "b.chtl"`), 0o644); err != nil {
		t.Fatalf("write a.chtl: %v", err)
	}
	if err := os.WriteFile(bPath, []byte(`[Import] @Chtl from "a.chtl"`), 0o644); err != nil {
		t.Fatalf("write b.chtl: %v", err)
	}

	cfg := config.Defaults()
	src, err := os.ReadFile(aPath)
	if err != nil {
		t.Fatalf("read a.chtl: %v", err)
	}
	_, log := compiler.Compile(string(src), aPath, &cfg)
	if !log.HasErrors() {
		t.Fatalf("want a cycle error, got none")
	}

	var sawCycle bool
	for _, msg := range log.Done() {
		if msg.Kind == logger.CycleError && strings.Contains(msg.Data.Text, "a.chtl") {
			sawCycle = true
		}
	}
	if !sawCycle {
		t.Fatalf("want a CycleError diagnostic naming the cyclic path, got %v", log.Done())
	}
}

// Two files each declaring "[Namespace] Shared { ... }" with a colliding
// [Template] name get their namespaces merged, reporting a ConflictError
// for the duplicate and leaving the non-conflicting symbol reachable.
func TestScenarioSameNamedNamespacesAcrossFilesMerge(t *testing.T) {
	dir := t.TempDir()
	mainPath := filepath.Join(dir, "main.chtl")
	otherPath := filepath.Join(dir, "other.chtl")

	mainSrc := `[Import] @Chtl from "other.chtl";
[Namespace] Shared {
    [Template] @Element Box {
        div { text { Box } }
    }
}
div { text { Body } }`
	otherSrc := `[Namespace] Shared {
    [Template] @Element Box {
        div { text { OtherBox } }
    }
    [Template] @Element Card {
        div { text { Card } }
    }
}`
	if err := os.WriteFile(mainPath, []byte(mainSrc), 0o644); err != nil {
		t.Fatalf("write main.chtl: %v", err)
	}
	if err := os.WriteFile(otherPath, []byte(otherSrc), 0o644); err != nil {
		t.Fatalf("write other.chtl: %v", err)
	}

	cfg := config.Defaults()
	src, err := os.ReadFile(mainPath)
	if err != nil {
		t.Fatalf("read main.chtl: %v", err)
	}
	html, log := compiler.Compile(string(src), mainPath, &cfg)
	if !strings.Contains(html, "<div>Body</div>") {
		t.Fatalf("want <div>Body</div> in output, got %q", html)
	}

	var sawConflict bool
	for _, msg := range log.Done() {
		if msg.Kind == logger.ConflictError && strings.Contains(msg.Data.Text, "Box") {
			sawConflict = true
		}
	}
	if !sawConflict {
		t.Fatalf("want a ConflictError diagnostic naming the duplicate Shared::Box template, got %v", log.Done())
	}
}

// A [Template] declaration followed by sibling markup in the same fragment
// still emits the markup: skipNonBlocks must skip the whole declaration
// block (through its matching brace), not stop at its own opening brace.
func TestScenarioDeclarationFollowedByMarkupStillEmits(t *testing.T) {
	cfg := config.Defaults()
	src := `[Template] @Element Box {
    div { text { Boxed } }
}
div { text { Body } }`
	html, log := compiler.Compile(src, "<test>", &cfg)
	if log.HasErrors() {
		t.Fatalf("unexpected errors: %v", log.Done())
	}
	if !strings.Contains(html, "<div>Body</div>") {
		t.Fatalf("want sibling markup <div>Body</div> to still be emitted after a declaration block, got %q", html)
	}
}

// A "vir" declaration over a vir-supported standard macro emits one
// accessor helper per bound key into the output script's prelude.
func TestScenarioVirDeclarationEmitsPreludeHelpers(t *testing.T) {
	cfg := config.Defaults()
	src := `div { script { vir x = iNeverAway({click: () => 1}); } }`
	html, log := compiler.Compile(src, "<test>", &cfg)
	if log.HasErrors() {
		t.Fatalf("unexpected errors: %v", log.Done())
	}
	if !strings.Contains(html, "function __chtl_vir_iNeverAway_click()") {
		t.Fatalf("want a vir accessor helper in the script prelude, got %q", html)
	}
}
