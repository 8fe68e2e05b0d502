package scanner_test

import (
	"strings"
	"testing"

	"github.com/chtl-lang/chtl/internal/scanner"
)

// roundTrip reconstructs the source by concatenating every fragment's text
// in order, to check that fragments tile the source with no gaps or overlaps.
func roundTrip(fragments []scanner.Fragment) string {
	var out []byte
	for _, f := range fragments {
		out = append(out, f.Text...)
	}
	return string(out)
}

func checkRoundTrip(t *testing.T, source string) []scanner.Fragment {
	t.Helper()
	fragments, log := scanner.Scan(source, "<test>")
	if log.HasErrors() {
		t.Fatalf("unexpected scan errors for %q", source)
	}
	if got := roundTrip(fragments); got != source {
		t.Fatalf("round-trip mismatch:\n  source: %q\n  rebuilt: %q", source, got)
	}
	// Spans must tile [0, len(source)) with no gap or overlap.
	pos := 0
	for _, f := range fragments {
		if f.StartByte != pos {
			t.Fatalf("fragment span gap: want start %d, got %d (%q)", pos, f.StartByte, f.Text)
		}
		pos = f.EndByte
	}
	if pos != len(source) {
		t.Fatalf("fragments cover [0,%d), want [0,%d)", pos, len(source))
	}
	return fragments
}

func TestRoundTripPlainElement(t *testing.T) {
	checkRoundTrip(t, `div { text { Hello } }`)
}

func TestRoundTripWithWhitespaceAndComments(t *testing.T) {
	checkRoundTrip(t, "// a leading comment\ndiv {\n  text { Hi }\n}\n")
	checkRoundTrip(t, "/* block\n comment */ div { text { Hi } }")
}

func TestRoundTripGeneratorComment(t *testing.T) {
	fragments := checkRoundTrip(t, "-- a generator comment\ndiv { text { Hi } }")
	if fragments[0].Kind != scanner.CHTL {
		t.Fatalf("want generator comment as its own CHTL fragment, got %v", fragments[0].Kind)
	}
}

func TestRoundTripLocalStyleBlock(t *testing.T) {
	checkRoundTrip(t, `div { style { color: red; @Style Highlight; } }`)
}

func TestLocalStyleBlockSplitsCSSFromFeatures(t *testing.T) {
	fragments, log := scanner.Scan(`div { style { color: red; @Style Highlight; } }`, "<test>")
	if log.HasErrors() {
		t.Fatalf("unexpected errors")
	}
	var sawCSS, sawFeature bool
	for _, f := range fragments {
		if f.Kind == scanner.CSS {
			sawCSS = true
		}
		if f.Kind == scanner.CHTL && f.Text == "@Style Highlight;" {
			sawFeature = true
		}
	}
	if !sawCSS || !sawFeature {
		t.Fatalf("expected both a CSS run and a CHTL style feature, got %+v", fragments)
	}
}

func TestNestedLocalStyleBlockSplitsCSSFromFeatures(t *testing.T) {
	fragments, log := scanner.Scan(`div { span { style { color: red; @Style Highlight; } } }`, "<test>")
	if log.HasErrors() {
		t.Fatalf("unexpected errors")
	}
	var sawCSS, sawFeature bool
	for _, f := range fragments {
		if f.Kind == scanner.CSS {
			sawCSS = true
		}
		if f.Kind == scanner.CHTL && f.Text == "@Style Highlight;" {
			sawFeature = true
		}
	}
	if !sawCSS || !sawFeature {
		t.Fatalf("expected a nested style block to still split CSS from features, got %+v", fragments)
	}
}

func TestRoundTripLocalScriptBlock(t *testing.T) {
	checkRoundTrip(t, `div { script { let x = 1; } }`)
}

// A "vir" declaration inside a local script block is recognized as a
// single CHTL_JS fragment with no split for the embedded arrow-function
// JS within it.
func TestScenarioVirDeclarationIsOneCHTLJSFragment(t *testing.T) {
	source := `script { vir x = listen({click: () => 1}); }`
	fragments := checkRoundTrip(t, source)

	var virFragments []scanner.Fragment
	for _, f := range fragments {
		if f.Kind == scanner.CHTLJS {
			virFragments = append(virFragments, f)
		}
	}
	if len(virFragments) != 1 {
		t.Fatalf("want exactly one CHTL_JS fragment for the vir statement, got %d: %+v", len(virFragments), virFragments)
	}
	if virFragments[0].Text != `vir x = listen({click: () => 1});` {
		t.Fatalf("unexpected vir fragment text: %q", virFragments[0].Text)
	}
}

func TestEnhancedSelectorIsCHTLJS(t *testing.T) {
	source := `script { {{.box}}.addEventListener('click', fn); }`
	fragments := checkRoundTrip(t, source)

	found := false
	for _, f := range fragments {
		if f.Kind == scanner.CHTLJS && f.Text == "{{.box}}" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected {{.box}} to be recognized as a CHTL_JS fragment, got %+v", fragments)
	}
}

func TestArrowChainIsCHTLJS(t *testing.T) {
	source := `script { obj->method(); }`
	fragments := checkRoundTrip(t, source)

	found := false
	for _, f := range fragments {
		if f.Kind == scanner.CHTLJS {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an arrow chain to be recognized as a CHTL_JS fragment, got %+v", fragments)
	}
}

// "//" inside a string literal is string content, not a comment: the
// closing quote must still be seen, so no unterminated-string diagnostic
// and the element after the string is still recognized.
func TestSlashesInsideStringAreNotAComment(t *testing.T) {
	fragments := checkRoundTrip(t, `"http://example.com"; div { text { Hi } }`)
	var sawText bool
	for _, f := range fragments {
		if strings.Contains(f.Text, "text { Hi }") {
			sawText = true
		}
	}
	if !sawText {
		t.Fatalf("element after the string was not recognized: %+v", fragments)
	}
}

// An identifier that merely ends in "vir" is plain JS, not a vir
// declaration.
func TestIdentifierEndingInVirIsNotAVirDeclaration(t *testing.T) {
	source := `script { let elvir = 1; }`
	fragments := checkRoundTrip(t, source)
	for _, f := range fragments {
		if f.Kind == scanner.CHTLJS {
			t.Fatalf("elvir must not be recognized as a vir declaration, got %+v", fragments)
		}
	}
}

func TestUnterminatedStringReportsSyntaxError(t *testing.T) {
	_, log := scanner.Scan(`div { text { "unterminated } }`, "<test>")
	if !log.HasErrors() {
		t.Fatalf("expected an unterminated-string diagnostic")
	}
}

func TestUnterminatedBlockCommentReportsSyntaxError(t *testing.T) {
	_, log := scanner.Scan("div {} /* never closed", "<test>")
	if !log.HasErrors() {
		t.Fatalf("expected an unterminated-comment diagnostic")
	}
}

func TestCHTLTopLevelImportBlock(t *testing.T) {
	checkRoundTrip(t, `[Import] @Html from "a.html";`)
}

func TestMergeKeepsMinimalUnitsSeparate(t *testing.T) {
	source := `[Namespace] space { } [Namespace] other { }`
	fragments := checkRoundTrip(t, source)
	count := 0
	for _, f := range fragments {
		if f.Kind == scanner.CHTL {
			count++
		}
	}
	if count < 2 {
		t.Fatalf("want two separate [Namespace] fragments, not merged, got %d: %+v", count, fragments)
	}
}

// An element whose style-block body straddles the 4096-byte window
// boundary must still tile [0, len(source)) exactly once. The body is all
// semicolons, so byte 4095 is a ';' and the boundary rule accepts 4096 as
// a window end even though the element is still open: the walk consumes
// the straddling construct whole and the next window resumes where it
// stopped, so no byte range is scanned or emitted twice.
func TestRoundTripWindowBoundaryInsideOpenElement(t *testing.T) {
	source := "div { style { " + strings.Repeat(";", 4200) + " } } div { text { tail } }"
	fragments := checkRoundTrip(t, source)

	tails := 0
	for _, f := range fragments {
		if strings.Contains(f.Text, "tail") {
			tails++
		}
	}
	if tails != 1 {
		t.Fatalf("want the post-boundary element exactly once, got %d occurrences", tails)
	}
}

// A style feature past the window boundary of a straddling style block is
// still split out from the CSS around it.
func TestMultiWindowStyleBlockStillSplitsFeatures(t *testing.T) {
	source := "div { style { " + strings.Repeat(";", 4200) + " @Style Wide; } }"
	fragments := checkRoundTrip(t, source)

	var sawCSS, sawFeature bool
	for _, f := range fragments {
		if f.Kind == scanner.CSS {
			sawCSS = true
		}
		if f.Kind == scanner.CHTL && f.Text == "@Style Wide;" {
			sawFeature = true
		}
	}
	if !sawCSS || !sawFeature {
		t.Fatalf("expected the straddling style block to still split CSS from features")
	}
}

// Several windows of flat complete elements: with 17-byte lines, byte 4095
// is a line's closing '}', so the first boundary lands cleanly between
// constructs and subsequent windows tile without overlap.
func TestRoundTripManyWindowsFlatStatements(t *testing.T) {
	line := "a { text { r } }\n"
	source := strings.Repeat(line, 3*4096/len(line))
	checkRoundTrip(t, source)
}
