package test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chtl-lang/chtl/internal/logger"
)

// AssertEqual compares two values with go-cmp instead of "!=" so it works
// for slices, maps, and structs (Fragment lists, Syntax slot lists, CMOD
// trees) as well as scalars.
func AssertEqual(t *testing.T, a interface{}, b interface{}) {
	t.Helper()
	if diff := cmp.Diff(b, a); diff != "" {
		t.Fatalf("unexpected value (-want +got):\n%s", diff)
	}
}

// AssertEqualWithDiff is for large textual values (generated HTML, archive
// dumps) where a line-by-line diff is more useful than go-cmp's structural
// one.
func AssertEqualWithDiff(t *testing.T, a interface{}, b interface{}) {
	t.Helper()
	if a != b {
		stringA := fmt.Sprintf("%v", a)
		stringB := fmt.Sprintf("%v", b)
		if strings.Contains(stringA, "\n") {
			t.Fatal(Diff(stringB, stringA, true))
		} else {
			t.Fatalf("%s != %s", a, b)
		}
	}
}

// AssertDiagnostics checks that log.Done() produced exactly the given
// ErrorKinds, in order, ignoring message text and location.
func AssertDiagnostics(t *testing.T, log logger.Log, want []logger.ErrorKind) {
	t.Helper()
	msgs := log.Done()
	var got []logger.ErrorKind
	for _, msg := range msgs {
		got = append(got, msg.Kind)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected diagnostics (-want +got):\n%s", diff)
	}
}

func SourceForTest(contents string) logger.Source {
	return logger.Source{
		FileName: "<test>",
		Contents: contents,
	}
}
