package cmod

import (
	"fmt"
	"strings"
)

// AutoExport builds an Export by walking every source file of m for
// top-level [Custom]/[Template]/[Origin]/[Configuration] declarations.
// Sub-modules are not descended into; each carries its own export.
// A declaration whose name the walk could not capture is synthesized as
// "<Tag><index>", indexed per list in discovery order, so the generated
// manifest is stable for a given source tree.
func AutoExport(m *Module) Export {
	var e Export
	for _, rel := range m.SourceKeys {
		collectExportDecls(m.Sources[rel], &e)
	}
	return e
}

// EffectiveExport returns m's declared export, or the auto-generated one
// when no [Export] block was declared. Save and the archive packer both
// go through this, so a module authored without a manifest still ships
// one.
func EffectiveExport(m *Module) Export {
	if !exportIsEmpty(m.Export) {
		return m.Export
	}
	return AutoExport(m)
}

func exportIsEmpty(e Export) bool {
	for _, l := range exportLists {
		if len(*l.get(&e)) > 0 {
			return false
		}
	}
	return true
}

// collectExportDecls scans text for declarations at brace depth zero,
// tracking braces and string literals only. Bracketed keywords inside a
// declaration body sit at depth > 0, so names there never leak into the
// manifest.
func collectExportDecls(text string, e *Export) {
	depth := 0
	for i := 0; i < len(text); {
		c := text[i]
		switch c {
		case '"', '\'':
			i = skipString(text, i)
			continue
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case '[':
			if depth == 0 {
				if next := collectOneDecl(text, i, e); next > i {
					i = next
					continue
				}
			}
		}
		i++
	}
}

// collectOneDecl parses "[Keyword] @Tag Name?" at pos, appends the captured
// (or synthesized) name to the matching export list, and returns the index
// just past the declaration head. Returns pos when the bytes at pos are not
// a recognized declaration.
func collectOneDecl(text string, pos int, e *Export) int {
	end := strings.IndexByte(text[pos:], ']')
	if end == -1 {
		return pos
	}
	keyword := text[pos+1 : pos+end]
	i := pos + end + 1
	i = skipSpaces(text, i)

	tag := ""
	if i < len(text) && text[i] == '@' {
		start := i + 1
		i = start
		for i < len(text) && isIdentChar(text[i]) {
			i++
		}
		tag = text[start:i]
		i = skipSpaces(text, i)
	}

	name := ""
	if i < len(text) && isIdentChar(text[i]) && text[i] != '{' {
		start := i
		for i < len(text) && isIdentChar(text[i]) {
			i++
		}
		name = text[start:i]
	}

	list := exportListFor(keyword, tag, e)
	if list == nil {
		return i
	}
	if name == "" {
		prefix := tag
		if prefix == "" {
			prefix = keyword
		}
		name = fmt.Sprintf("%s%d", prefix, len(*list)+1)
	}
	appendUnique(list, name)
	return i
}

// exportListFor maps a declaration's keyword and @Tag to the export list it
// populates. An [Origin] tag outside the three built-in ones lands in
// OriginCustoms, the list for user-defined origin types.
func exportListFor(keyword, tag string, e *Export) *[]string {
	switch keyword {
	case "Custom":
		switch tag {
		case "Style":
			return &e.CustomStyles
		case "Element":
			return &e.CustomElements
		case "Var":
			return &e.CustomVars
		}
	case "Template":
		switch tag {
		case "Style":
			return &e.TemplateStyles
		case "Element":
			return &e.TemplateElements
		case "Var":
			return &e.TemplateVars
		}
	case "Origin":
		switch tag {
		case "Html":
			return &e.OriginHTML
		case "Style":
			return &e.OriginStyle
		case "JavaScript":
			return &e.OriginJavaScript
		case "":
			return nil
		default:
			return &e.OriginCustoms
		}
	case "Configuration":
		return &e.Configurations
	}
	return nil
}

func appendUnique(list *[]string, name string) {
	for _, existing := range *list {
		if existing == name {
			return
		}
	}
	*list = append(*list, name)
}

func skipString(text string, pos int) int {
	delim := text[pos]
	for i := pos + 1; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case delim:
			return i + 1
		}
	}
	return len(text)
}

func skipSpaces(text string, pos int) int {
	for pos < len(text) && (text[pos] == ' ' || text[pos] == '\t' || text[pos] == '\r' || text[pos] == '\n') {
		pos++
	}
	return pos
}

func isIdentChar(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
