package compiler

import (
	"regexp"
	"strings"

	"github.com/chtl-lang/chtl/internal/importresolver"
)

// importLineRe matches one [Import] declaration per source line:
//
//	[Import] [<Qualifier>] @<Kind> [<TargetName>] from <path> [as <Alias>]
//
// <Qualifier> is one of Custom/Template/Origin/Configuration, <path> is
// either a quoted string or a bareword run of non-space characters, and a
// trailing ';' is optional. Both bareword and quoted paths occur in the
// wild, so both are accepted.
var importLineRe = regexp.MustCompile(`(?m)^\s*\[Import\]\s*(?:\[(Custom|Template|Origin|Configuration)\]\s*)?@(\w+)\s*(?:([A-Za-z_][A-Za-z0-9_]*)\s+)?from\s+(?:"([^"]*)"|(\S+?))(?:\s+as\s+([A-Za-z_][A-Za-z0-9_]*))?\s*;?\s*$`)

// ExtractImportDecls scans a CHTL fragment's text line by line for
// [Import] declarations, returning one Decl per match. startLine is the
// fragment's first line number (scanner.Fragment.StartLine) so Decl.Line
// reflects the declaration's position in the original file.
func ExtractImportDecls(fragmentText, sourceFile string, startLine int) []*importresolver.Decl {
	var decls []*importresolver.Decl
	lineNo := startLine
	for _, line := range strings.Split(fragmentText, "\n") {
		if m := importLineRe.FindStringSubmatch(line); m != nil {
			qualifier, kindTok, target, qpath, path, alias := m[1], m[2], m[3], m[4], m[5], m[6]
			if kind, ok := resolveKind(qualifier, kindTok); ok {
				p := qpath
				if p == "" {
					p = path
				}
				decls = append(decls, &importresolver.Decl{
					Kind:       kind,
					Path:       p,
					TargetName: target,
					Alias:      alias,
					HasAlias:   alias != "",
					SourceFile: sourceFile,
					Line:       lineNo,
					Col:        1,
				})
			}
		}
		lineNo++
	}
	return decls
}

// resolveKind maps a declaration's optional bracketed qualifier and @Kind
// token onto a single importresolver.Kind.
func resolveKind(qualifier, kindTok string) (importresolver.Kind, bool) {
	switch strings.ToLower(kindTok) {
	case "html":
		if qualifier == "Origin" {
			return importresolver.OriginHTML, true
		}
		return importresolver.Html, true
	case "style":
		switch qualifier {
		case "Custom":
			return importresolver.CustomStyle, true
		case "Template":
			return importresolver.TemplateStyle, true
		case "Origin":
			return importresolver.OriginStyle, true
		default:
			return importresolver.Style, true
		}
	case "javascript":
		if qualifier == "Origin" {
			return importresolver.OriginJavaScript, true
		}
		return importresolver.JavaScript, true
	case "chtl":
		return importresolver.Chtl, true
	case "cjmod":
		return importresolver.CJmod, true
	case "element":
		if qualifier == "Template" {
			return importresolver.TemplateElement, true
		}
		return importresolver.CustomElement, true
	case "var":
		if qualifier == "Template" {
			return importresolver.TemplateVar, true
		}
		return importresolver.CustomVar, true
	case "config":
		return importresolver.Config, true
	default:
		return 0, false
	}
}
