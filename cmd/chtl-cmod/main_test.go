package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFixtureModule(t *testing.T, dir string) {
	t.Helper()
	infoDir := filepath.Join(dir, "info")
	srcDir := filepath.Join(dir, "src")
	if err := os.MkdirAll(infoDir, 0o755); err != nil {
		t.Fatalf("mkdir info: %v", err)
	}
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		t.Fatalf("mkdir src: %v", err)
	}
	info := `[Info]
{
    name = "Box";
    version = "1.0.0";
    description = "";
    author = "a";
    license = "";
    dependencies = "";
    category = "";
    minCHTLVersion = "1.0.0";
    maxCHTLVersion = "2.0.0";
}
`
	if err := os.WriteFile(filepath.Join(infoDir, "Box.chtl"), []byte(info), 0o644); err != nil {
		t.Fatalf("write info: %v", err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "Box.chtl"), []byte(`div { text { Box } }`), 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}
}

func TestPackUnpackInfoRoundTrip(t *testing.T) {
	dir := t.TempDir()
	moduleDir := filepath.Join(dir, "Box")
	if err := os.MkdirAll(moduleDir, 0o755); err != nil {
		t.Fatalf("mkdir module: %v", err)
	}
	writeFixtureModule(t, moduleDir)

	archive := filepath.Join(dir, "Box.cmod")
	if code := run([]string{"pack", moduleDir, archive}); code != 0 {
		t.Fatalf("pack: want exit 0, got %d", code)
	}

	if code := run([]string{"info", archive}); code != 0 {
		t.Fatalf("info: want exit 0, got %d", code)
	}

	unpackDir := filepath.Join(dir, "unpacked")
	if code := run([]string{"unpack", archive, unpackDir}); code != 0 {
		t.Fatalf("unpack: want exit 0, got %d", code)
	}
	if _, err := os.Stat(filepath.Join(unpackDir, "src", "Box.chtl")); err != nil {
		t.Fatalf("want unpacked source file: %v", err)
	}
}

func TestRunRequiresKnownSubcommand(t *testing.T) {
	if code := run([]string{"bogus"}); code != 1 {
		t.Fatalf("want exit 1 for an unknown subcommand, got %d", code)
	}
}
