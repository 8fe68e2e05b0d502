package cmodarchive_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/chtl-lang/chtl/internal/cmod"
	"github.com/chtl-lang/chtl/internal/cmodarchive"
	"github.com/chtl-lang/chtl/internal/fs"
	"github.com/chtl-lang/chtl/internal/logger"
	"github.com/chtl-lang/chtl/internal/test"
)

func buildFixture(t *testing.T) *cmod.Module {
	t.Helper()
	fsys := fs.Mock()
	info := `[Info]
{
    name = "Box";
    version = "1.0.0";
    description = "";
    author = "a";
    license = "MIT";
    dependencies = "";
    category = "";
    minCHTLVersion = "1.0.0";
    maxCHTLVersion = "2.0.0";
}
[Export]
{
    [Custom] @Element Box;
}
`
	fs.WriteFile(fsys, "Box/info/Box.chtl", info)
	fs.WriteFile(fsys, "Box/src/Box.chtl", strings.Repeat("aaaa", 10)+"unique tail bytes")
	m, ok := cmod.Load(fsys, "Box", logger.NewDeferLog())
	if !ok {
		t.Fatalf("fixture failed to load")
	}
	return m
}

func TestPackUnpackRoundTripsUncompressed(t *testing.T) {
	m := buildFixture(t)
	var buf bytes.Buffer
	if err := cmodarchive.Pack(&buf, m, false); err != nil {
		t.Fatalf("pack failed: %v", err)
	}

	out, err := cmodarchive.Unpack(&buf, "Box")
	if err != nil {
		t.Fatalf("unpack failed: %v", err)
	}
	test.AssertEqual(t, out.Info.Name, "Box")
	test.AssertEqual(t, out.Export.CustomElements, []string{"Box"})
	test.AssertEqual(t, out.Sources["Box.chtl"], m.Sources["Box.chtl"])
}

func TestPackUnpackRoundTripsCompressed(t *testing.T) {
	m := buildFixture(t)
	var buf bytes.Buffer
	if err := cmodarchive.Pack(&buf, m, true); err != nil {
		t.Fatalf("pack failed: %v", err)
	}

	out, err := cmodarchive.Unpack(&buf, "Box")
	if err != nil {
		t.Fatalf("unpack failed: %v", err)
	}
	test.AssertEqual(t, out.Sources["Box.chtl"], m.Sources["Box.chtl"])
}

func TestUnpackRejectsBadMagic(t *testing.T) {
	bad := bytes.Repeat([]byte{0}, 24)
	_, err := cmodarchive.Unpack(bytes.NewReader(bad), "Box")
	if err == nil {
		t.Fatalf("expected an error for bad magic")
	}
}

func TestUnpackRejectsCorruptedChecksum(t *testing.T) {
	m := buildFixture(t)
	var buf bytes.Buffer
	if err := cmodarchive.Pack(&buf, m, false); err != nil {
		t.Fatalf("pack failed: %v", err)
	}
	raw := buf.Bytes()
	raw[len(raw)-1] ^= 0xFF // flip a payload byte without touching its checksum

	_, err := cmodarchive.Unpack(bytes.NewReader(raw), "Box")
	if err == nil {
		t.Fatalf("expected a checksum mismatch error")
	}
}
