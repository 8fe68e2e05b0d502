package api_test

import (
	"strings"
	"testing"

	"github.com/chtl-lang/chtl/pkg/api"
)

func TestCompileStringReturnsAssembledHTML(t *testing.T) {
	result := api.CompileString(`div { text { Hello } }`, "<test>", api.CompileOptions{})
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	if !strings.Contains(result.HTML, "<div>Hello</div>") {
		t.Fatalf("want <div>Hello</div> in %q", result.HTML)
	}
}

func TestCompileFileReportsReadError(t *testing.T) {
	result := api.CompileFile("/does/not/exist.chtl", api.CompileOptions{})
	if len(result.Errors) == 0 {
		t.Fatalf("want an error for a missing file")
	}
	if result.HTML != "" {
		t.Fatalf("want empty HTML on failure, got %q", result.HTML)
	}
}
