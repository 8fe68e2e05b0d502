package stdmacros_test

import (
	"testing"

	"github.com/chtl-lang/chtl/internal/cjmod"
	"github.com/chtl-lang/chtl/internal/cjmod/stdmacros"
	"github.com/chtl-lang/chtl/internal/test"
)

func TestRegisterAddsStandardMacros(t *testing.T) {
	registry := cjmod.NewRegistry()
	stdmacros.Register(registry)

	if _, ok := registry.Lookup("printMylove"); !ok {
		t.Fatalf("expected \"printMylove\" to be registered")
	}
	if _, ok := registry.Lookup("iNeverAway"); !ok {
		t.Fatalf("expected \"iNeverAway\" to be registered")
	}
}

func TestINeverAwayIsVirSupportedFunctionCall(t *testing.T) {
	f := stdmacros.INeverAway()
	test.AssertEqual(t, f.VirSupported, true)
	f.BindNamed("click", "() => 1")
	test.AssertEqual(t, f.Render(), "iNeverAway({click: () => 1})")
}

func TestPrintMyloveRendersFixedKeys(t *testing.T) {
	f := stdmacros.PrintMylove()
	f.BindNamed("url", "\"img.png\"")
	f.BindNamed("mode", "\"ASCII\"")
	f.BindNamed("width", "80")
	f.BindNamed("height", "24")
	f.BindNamed("scale", "1.0")
	test.AssertEqual(t, f.Render(), "printMylove({url: \"img.png\", mode: \"ASCII\", width: 80, height: 24, scale: 1})")
}

func TestPrintMyloveVirHelpersOnePerBoundKey(t *testing.T) {
	f := stdmacros.PrintMylove()
	f.BindNamed("url", "\"img.png\"")
	helpers := f.VirHelpers()
	if len(helpers) != 1 {
		t.Fatalf("expected exactly one helper for one bound key, got %v", helpers)
	}
}
