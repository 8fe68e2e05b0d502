package cjmod_test

import (
	"testing"

	"github.com/chtl-lang/chtl/internal/cjmod"
	"github.com/chtl-lang/chtl/internal/logger"
	"github.com/chtl-lang/chtl/internal/test"
)

func TestBindCoercesTypedParams(t *testing.T) {
	v := cjmod.Bind(cjmod.TypeInt, "42")
	test.AssertEqual(t, v.String(), "42")

	v = cjmod.Bind(cjmod.TypeInt, "not-a-number")
	test.AssertEqual(t, v.String(), "0")

	v = cjmod.Bind(cjmod.TypeFloat, "3.5")
	test.AssertEqual(t, v.String(), "3.5")

	v = cjmod.Bind(cjmod.TypeString, "hello")
	test.AssertEqual(t, v.String(), "hello")
}

func TestBindNextPlaceholderFIFO(t *testing.T) {
	f := cjmod.NewFunction("listen", cjmod.FunctionCallMode)
	f.AddParam("$", cjmod.TypeString)
	f.AddParam("$", cjmod.TypeString)

	f.BindNextPlaceholder("click")
	f.BindNextPlaceholder("1")

	test.AssertEqual(t, f.Params[0].Value.String(), "click")
	test.AssertEqual(t, f.Params[1].Value.String(), "1")
}

// With three "$" slots and three BindFunc("$", ...) calls, the i-th
// Match("$", ...) routes its value through the i-th bind function, and a
// fourth match does not rebind any earlier slot.
func TestPlaceholderBindFuncQueueRoutesMatchesInOrder(t *testing.T) {
	f := cjmod.NewFunction("seq", cjmod.PlainMode)
	f.AddParam("$", cjmod.TypeString)
	f.AddParam("$", cjmod.TypeString)
	f.AddParam("$", cjmod.TypeString)

	f.BindFunc("$", func(v string) string { return "a(" + v + ")" })
	f.BindFunc("$", func(v string) string { return "b(" + v + ")" })
	f.BindFunc("$", func(v string) string { return "c(" + v + ")" })

	f.Match("$", "1")
	f.Match("$", "2")
	f.Match("$", "3")
	test.AssertEqual(t, f.Render(), "a(1) b(2) c(3)")

	if f.Match("$", "4") {
		t.Fatalf("a fourth match must not rebind an earlier placeholder")
	}
	test.AssertEqual(t, f.Render(), "a(1) b(2) c(3)")
}

func TestTransformSubstitutesPlaceholders(t *testing.T) {
	f := cjmod.NewFunction("delay", cjmod.PlainMode)
	f.AddParam("ms", cjmod.TypeInt)
	f.BodyTemplate = "setTimeout(fn, ${value})"
	f.BindNamed("ms", "250")

	test.AssertEqual(t, f.Transform(), "setTimeout(fn, 250)")
}

func TestRenderFunctionCallMode(t *testing.T) {
	f := cjmod.NewFunction("listen", cjmod.FunctionCallMode)
	f.AddParam("click", cjmod.TypeString)
	f.BindNamed("click", "handler")

	test.AssertEqual(t, f.Render(), "listen({click: handler})")
}

func TestVirHelpersGeneratedPerKey(t *testing.T) {
	f := cjmod.NewFunction("listen", cjmod.FunctionCallMode)
	f.VirSupported = true
	f.AddParam("click", cjmod.TypeString)
	f.BindNamed("click", "handler")

	helpers := f.VirHelpers()
	if len(helpers) != 1 {
		t.Fatalf("expected one vir helper, got %d: %v", len(helpers), helpers)
	}
	want := "function " + cjmod.VirHelperName("listen", "click") + "() { return handler; }"
	test.AssertEqual(t, helpers[0], want)
}

func TestScannerSlidingWindowRewritesRegisteredKeyword(t *testing.T) {
	registry := cjmod.NewRegistry()
	f := cjmod.NewFunction("delay", cjmod.PlainMode)
	f.AddParam("$", cjmod.TypeInt)
	f.BodyTemplate = "setTimeout(fn, ${value})"
	registry.Register(f)

	scanner := cjmod.NewScanner(registry, cjmod.SlidingWindow)
	source := "delay(250);"
	log := logger.NewDeferLog()

	// The placeholder is bound before scanning; the scan binds call
	// arguments only onto still-unbound placeholders, so this value stays.
	f.BindNextPlaceholder("250")

	out, matches := scanner.ScanAndProcess(source, log, "<test>")
	if log.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", log.Done())
	}
	test.AssertEqual(t, out, "setTimeout(fn, 250);")
	if len(matches) != 1 || matches[0].FunctionName != "delay" {
		t.Fatalf("expected one match for delay, got %+v", matches)
	}
}

func TestScannerLeavesUnregisteredKeywordsUnchanged(t *testing.T) {
	registry := cjmod.NewRegistry()
	scanner := cjmod.NewScanner(registry, cjmod.SlidingWindow)
	source := "someOtherCall(1, 2);"
	log := logger.NewDeferLog()

	out, matches := scanner.ScanAndProcess(source, log, "<test>")
	test.AssertEqual(t, out, source)
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %+v", matches)
	}
}

func TestScannerFrontExtractDiscardsHostText(t *testing.T) {
	registry := cjmod.NewRegistry()
	f := cjmod.NewFunction("delay", cjmod.PlainMode)
	f.AddParam("$", cjmod.TypeInt)
	f.BodyTemplate = "setTimeout(fn, ${value})"
	registry.Register(f)

	scanner := cjmod.NewScanner(registry, cjmod.FrontExtract)
	log := logger.NewDeferLog()

	out, matches := scanner.ScanAndProcess("host preamble; delay(250)", log, "<test>")
	if log.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", log.Done())
	}
	test.AssertEqual(t, out, "setTimeout(fn, 250)")
	if len(matches) != 1 {
		t.Fatalf("expected one match, got %+v", matches)
	}
}

func TestScannerSuffixRulePullsBackPatternIntoSlice(t *testing.T) {
	registry := cjmod.NewRegistry()
	f := cjmod.NewFunction("**", cjmod.PlainMode)
	f.AddParam("$", cjmod.TypeString)
	registry.Register(f)

	scanner := cjmod.NewScanner(registry, cjmod.FrontExtract)
	scanner.AddSuffixRule(cjmod.SuffixRule{Trigger: "**", Pattern: "arg"})
	log := logger.NewDeferLog()

	source := "preamble arg ** (x)"
	_, matches := scanner.ScanAndProcess(source, log, "<test>")
	if len(matches) != 1 {
		t.Fatalf("expected one match, got %+v", matches)
	}
	wantStart := len("preamble ")
	test.AssertEqual(t, matches[0].Start, wantStart)
	test.AssertEqual(t, matches[0].Text, "arg ** (x)")
}
