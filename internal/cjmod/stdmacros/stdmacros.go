// Package stdmacros registers the two CHTL-JS extensions that ship with the
// compiler itself, rather than a user-authored CJMOD: "printMylove", a
// function-call-mode macro with fixed, pre-declared keys, and
// "iNeverAway", a function-call-mode macro whose recognized keys are the
// event names in INeverAwayKeys. Both serve as documentation for the
// engine's registration API and as an integration-test fixture.
package stdmacros

import "github.com/chtl-lang/chtl/internal/cjmod"

// INeverAwayKeys are the event-name keys "iNeverAway" recognizes out of
// the box; a CJMOD author can register additional keys on the returned
// Function before scanning begins.
var INeverAwayKeys = []string{"click", "mouseenter", "mouseleave", "keydown", "submit"}

// PrintMylove builds the fixed-signature "printMylove({url: ..., mode:
// ..., width: ..., height: ..., scale: ...})" macro: function-call
// rendering, vir support enabled so "vir x = printMylove({...})"
// generates one helper per bound key.
func PrintMylove() *cjmod.Function {
	f := cjmod.NewFunction("printMylove", cjmod.FunctionCallMode)
	f.AddParam("url", cjmod.TypeString)
	f.AddParam("mode", cjmod.TypeString)
	f.AddParam("width", cjmod.TypeInt)
	f.AddParam("height", cjmod.TypeInt)
	f.AddParam("scale", cjmod.TypeFloat)
	f.VirSupported = true
	return f
}

// INeverAway builds "iNeverAway({click: () => ..., ...})": one slot per
// key in INeverAwayKeys, each bound key becoming its own vir helper. A key
// in the object literal that has no registered slot is not bound and does
// not appear in the rendering.
func INeverAway() *cjmod.Function {
	f := cjmod.NewFunction("iNeverAway", cjmod.FunctionCallMode)
	for _, key := range INeverAwayKeys {
		f.AddParam(key, cjmod.TypeString)
	}
	f.VirSupported = true
	return f
}

// Register adds every standard macro to registry. Callers may still
// register user CJMOD functions afterward, as long as it happens before
// scanning begins: the registry is effectively read-only once scanning
// starts.
func Register(registry *cjmod.Registry) {
	registry.Register(PrintMylove())
	registry.Register(INeverAway())
}
