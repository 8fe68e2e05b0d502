// Package cjmod implements the CJMOD DSL-extension engine: syntactic
// recognition of registered CHTL-JS extensions inside
// CHTL_JS fragments, and rewriting them to plain JavaScript.
//
// A module registers a CHTLJSFunction (name, ordered key list, optional
// vir support and body template) against a Registry; scanning then finds
// registered keywords in fragment text, binds their argument slots, and
// renders the rewritten JavaScript.
package cjmod

import (
	"fmt"
	"strconv"
	"strings"
)

// ParamType is the typed bind kind for a registered parameter: string,
// integer, or floating-point.
type ParamType uint8

const (
	TypeString ParamType = iota
	TypeInt
	TypeFloat
)

// ArgValue is the coerced value bound to a parameter slot.
type ArgValue struct {
	Type  ParamType
	Str   string
	Int   int64
	Float float64
}

// String renders the value the way the rewriter needs it: the raw
// token for strings, and the canonical decimal form for numbers.
func (v ArgValue) String() string {
	switch v.Type {
	case TypeInt:
		return strconv.FormatInt(v.Int, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	default:
		return v.Str
	}
}

// Bind coerces a matched source token into an ArgValue of the given type.
// On parse failure for Int/Float it passes a zero-valued default rather
// than propagating the error.
func Bind(paramType ParamType, token string) ArgValue {
	switch paramType {
	case TypeInt:
		n, err := strconv.ParseInt(strings.TrimSpace(token), 10, 64)
		if err != nil {
			return ArgValue{Type: TypeInt, Int: 0}
		}
		return ArgValue{Type: TypeInt, Int: n}
	case TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
		if err != nil {
			return ArgValue{Type: TypeFloat, Float: 0}
		}
		return ArgValue{Type: TypeFloat, Float: f}
	default:
		return ArgValue{Type: TypeString, Str: token}
	}
}

// Param is one registered slot: a key name (or "$" for a positional
// placeholder), its bind type, an optional user bind function applied to
// the coerced value, and the resulting transformed value once matched.
type Param struct {
	Name        string
	Type        ParamType
	Value       ArgValue
	Transformed string
	fn          func(string) string
	fnBound     bool
	bound       bool
}

// bindValue coerces token per the slot's type, routes it through the
// slot's bind function when one is attached, and records the result as
// the slot's transformed value.
func (p *Param) bindValue(token string) {
	p.Value = Bind(p.Type, token)
	out := p.Value.String()
	if p.fn != nil {
		out = p.fn(out)
	}
	p.Transformed = out
	p.bound = true
}

// RenderMode selects the rewriter's two output shapes.
type RenderMode uint8

const (
	PlainMode RenderMode = iota
	FunctionCallMode
)

// Function is a CJMOD-registered CHTL-JS extension: a keyword, its
// ordered parameter slots, and how matches of it render back out.
type Function struct {
	Name         string
	Params       []Param
	BodyTemplate string
	VirSupported bool
	Mode         RenderMode
}

// NewFunction constructs a Function with no parameters registered yet.
func NewFunction(name string, mode RenderMode) *Function {
	return &Function{Name: name, Mode: mode}
}

// AddParam registers a named or positional ("$") parameter slot.
func (f *Function) AddParam(name string, paramType ParamType) *Function {
	f.Params = append(f.Params, Param{Name: name, Type: paramType})
	return f
}

// BindFunc attaches fn to the first slot named name that has no bind
// function yet. Successive calls for "$" queue onto successive
// placeholder slots rather than replacing the first one's binding.
func (f *Function) BindFunc(name string, fn func(string) string) bool {
	for i := range f.Params {
		p := &f.Params[i]
		if p.Name == name && !p.fnBound {
			p.fn = fn
			p.fnBound = true
			return true
		}
	}
	return false
}

// BindNextPlaceholder attaches token to the first "$" placeholder without
// a bound value yet: each call attaches to the first placeholder without
// a binding, so earlier slots are never rebound by later matches.
func (f *Function) BindNextPlaceholder(token string) bool {
	for i := range f.Params {
		if f.Params[i].Name == "$" && !f.Params[i].bound {
			f.Params[i].bindValue(token)
			return true
		}
	}
	return false
}

// BindNamed binds token to the named parameter.
func (f *Function) BindNamed(name, token string) bool {
	for i := range f.Params {
		if f.Params[i].Name == name {
			f.Params[i].bindValue(token)
			return true
		}
	}
	return false
}

// Match routes a matched source token into the slot named name: "$"
// matches go to placeholders in slot order, anything else to the named
// slot. The token flows through the slot's type coercion and bind
// function on the way in.
func (f *Function) Match(name, token string) bool {
	if name == "$" {
		return f.BindNextPlaceholder(token)
	}
	return f.BindNamed(name, token)
}

// Transform applies BodyTemplate, substituting "${value}" with the first
// bound parameter's rendered value and "${name}" with that parameter's
// name. If BodyTemplate is empty, Render is used instead.
func (f *Function) Transform() string {
	if f.BodyTemplate == "" {
		return f.Render()
	}
	out := f.BodyTemplate
	for _, p := range f.Params {
		if !p.bound {
			continue
		}
		out = strings.ReplaceAll(out, "${value}", p.Transformed)
		out = strings.ReplaceAll(out, "${name}", p.Name)
	}
	return out
}

// Render produces the default JavaScript rendering for this function's
// current slot values: PlainMode concatenates transformed values
// space-separated; FunctionCallMode emits name({k1: v1, k2: v2, ...})
// using the registered key names.
func (f *Function) Render() string {
	switch f.Mode {
	case FunctionCallMode:
		var pairs []string
		for _, p := range f.Params {
			if p.Name == "$" || !p.bound {
				continue
			}
			pairs = append(pairs, fmt.Sprintf("%s: %s", p.Name, p.Transformed))
		}
		return fmt.Sprintf("%s({%s})", f.Name, strings.Join(pairs, ", "))
	default:
		var values []string
		for _, p := range f.Params {
			if p.bound {
				values = append(values, p.Transformed)
			}
		}
		return strings.Join(values, " ")
	}
}

// VirHelperName is the name of the global prelude helper generated for
// "vir X = f({...})" statements: "__chtl_vir_f_<key>()".
func VirHelperName(funcName, key string) string {
	return fmt.Sprintf("__chtl_vir_%s_%s", funcName, key)
}

// VirHelpers generates one helper function per recognized key, each
// returning that key's currently bound value. These are emitted into the
// output JavaScript's global prelude.
func (f *Function) VirHelpers() []string {
	if !f.VirSupported {
		return nil
	}
	var helpers []string
	for _, p := range f.Params {
		if p.Name == "$" || !p.bound {
			continue
		}
		helpers = append(helpers, fmt.Sprintf(
			"function %s() { return %s; }",
			VirHelperName(f.Name, p.Name), p.Transformed,
		))
	}
	return helpers
}

// Registry is the process-wide syntax manager: registered functions,
// keyed by name, available to every scan once registration is complete.
// Mutating it once scanning has begun is undefined; callers register all
// CJMOD extensions up front.
type Registry struct {
	functions map[string]*Function
	order     []string
}

func NewRegistry() *Registry {
	return &Registry{functions: make(map[string]*Function)}
}

func (r *Registry) Register(f *Function) {
	if _, exists := r.functions[f.Name]; !exists {
		r.order = append(r.order, f.Name)
	}
	r.functions[f.Name] = f
}

func (r *Registry) Lookup(name string) (*Function, bool) {
	f, ok := r.functions[name]
	return f, ok
}

// Names returns registered function names in registration order.
func (r *Registry) Names() []string {
	return append([]string{}, r.order...)
}
