package compiler

import (
	"strings"

	"github.com/chtl-lang/chtl/internal/logger"
	"github.com/chtl-lang/chtl/internal/namespace"
	"github.com/chtl-lang/chtl/internal/scanner"
)

// registerDeclarations walks text (one CHTL fragment, or the body of a
// [Namespace] block) for local [Namespace]/[Template]/[Custom]/[Origin]
// declarations, adding Template/Custom/Origin symbols to names and
// descending into a [Namespace] block's body so nested declarations land
// in that namespace's own scope rather than the enclosing one.
// [Import]/[Configuration] blocks are left to ExtractImportDecls and the
// CMOD manager; this only registers symbol-bearing declarations.
func registerDeclarations(text, sourceFile string, names *namespace.Store, log logger.Log) {
	pos := 0
	for pos < len(text) {
		rest := text[pos:]
		switch {
		case strings.HasPrefix(rest, "[Namespace]"):
			name, body, next := extractNamedBlock(text, pos, len("[Namespace]"))
			if name == "" {
				pos = next
				continue
			}
			guard := names.Enter(name)
			registerDeclarations(body, sourceFile, names, log)
			guard.Exit()
			pos = next
		case strings.HasPrefix(rest, "[Template]"):
			pos = registerSymbolDecl(text, pos, "[Template]", namespace.Template, sourceFile, names, log)
		case strings.HasPrefix(rest, "[Custom]"):
			pos = registerSymbolDecl(text, pos, "[Custom]", namespace.Custom, sourceFile, names, log)
		case strings.HasPrefix(rest, "[Origin]"):
			pos = registerSymbolDecl(text, pos, "[Origin]", namespace.Origin, sourceFile, names, log)
		default:
			pos++
		}
	}
}

// registerImportedDeclarations re-scans an imported .chtl file's own
// content for its declarations, registering them into a throwaway store
// that mirrors the file's own namespace nesting, then merges that store
// into names with Merge: same-named namespaces declared across
// separately imported files (or an imported file and the root file) get
// reconciled, their children and symbols unioned, with a reported
// conflict wherever both declare the same (name, kind) symbol.
func registerImportedDeclarations(path, content string, names *namespace.Store, log logger.Log) {
	fragments, scanLog := scanner.Scan(content, path)
	for _, msg := range scanLog.Done() {
		log.AddMsg(msg)
	}
	imported := namespace.New()
	for _, frag := range fragments {
		if frag.Kind == scanner.CHTL {
			registerDeclarations(frag.Text, path, imported, log)
		}
	}
	for _, c := range names.Merge(imported) {
		log.AddWithoutLocation(logger.ConflictError,
			path+": duplicate "+symbolKindName(c.Incoming.Kind)+" "+c.Incoming.Name)
	}
}

// registerWildcardImportDeclarations registers one file matched by a
// wildcard import (e.g. "Shapes/*") into a throwaway store scoped under
// moduleName, then merges it into names via MergeNamespace. Every file
// the wildcard matches contributes to the same shared moduleName
// namespace, so two of them redeclaring the same symbol surface as a
// conflict instead of one silently overwriting the other.
func registerWildcardImportDeclarations(path, content, moduleName string, names *namespace.Store, log logger.Log) {
	fragments, scanLog := scanner.Scan(content, path)
	for _, msg := range scanLog.Done() {
		log.AddMsg(msg)
	}
	imported := namespace.New()
	guard := imported.Enter(moduleName)
	for _, frag := range fragments {
		if frag.Kind == scanner.CHTL {
			registerDeclarations(frag.Text, path, imported, log)
		}
	}
	guard.Exit()
	for _, c := range names.MergeNamespace(imported, moduleName) {
		log.AddWithoutLocation(logger.ConflictError,
			path+": namespace "+moduleName+": duplicate "+symbolKindName(c.Incoming.Kind)+" "+c.Incoming.Name)
	}
}

// wildcardModuleName derives the shared namespace name a wildcard
// import's matched files are merged under: the last path segment before
// the wildcard marker ("Shapes/*" and "Shapes.*" both name "Shapes").
func wildcardModuleName(path string) string {
	base := strings.TrimSuffix(path, "/*")
	base = strings.TrimSuffix(base, ".*")
	base = strings.ReplaceAll(base, ".", "/")
	if idx := strings.LastIndexByte(base, '/'); idx != -1 {
		base = base[idx+1:]
	}
	return base
}

// extractNamedBlock parses "[Namespace] Name { ... }" starting at start
// (kwLen is the already-matched keyword's length), returning the
// identifier and its brace-matched body. next is the position just past
// the declaration, including on failure, so callers always make forward
// progress.
func extractNamedBlock(text string, start, kwLen int) (name, body string, next int) {
	pos := skipSpaceAt(text, start+kwLen)
	nameStart := pos
	for pos < len(text) && isIdentByte(text[pos]) {
		pos++
	}
	name = text[nameStart:pos]
	pos = skipSpaceAt(text, pos)
	if pos >= len(text) || text[pos] != '{' {
		return "", "", start + kwLen
	}
	braceEnd := matchBrace(text, pos)
	if braceEnd == -1 {
		return "", "", len(text)
	}
	return name, text[pos+1 : braceEnd], braceEnd + 1
}

// registerSymbolDecl parses "[Kind] @Type Name { ... }" (or, for an
// anonymous [Origin] block, "[Kind] @Type { ... }" with no name) starting
// at start, adds the symbol to names when it has one, and returns the
// position just past the declaration, including on failure.
func registerSymbolDecl(text string, start int, keyword string, kind namespace.SymbolKind, sourceFile string, names *namespace.Store, log logger.Log) int {
	pos := skipSpaceAt(text, start+len(keyword))
	if pos >= len(text) || text[pos] != '@' {
		return start + len(keyword)
	}
	pos++
	for pos < len(text) && isIdentByte(text[pos]) {
		pos++
	}
	pos = skipSpaceAt(text, pos)

	nameStart := pos
	for pos < len(text) && isIdentByte(text[pos]) {
		pos++
	}
	name := text[nameStart:pos]
	pos = skipSpaceAt(text, pos)

	if pos >= len(text) || text[pos] != '{' {
		return start + len(keyword)
	}
	braceEnd := matchBrace(text, pos)
	if braceEnd == -1 {
		return len(text)
	}

	if name != "" {
		if existing, ok := names.AddSymbol(namespace.Symbol{Name: name, Kind: kind}); !ok {
			log.AddWithoutLocation(logger.ConflictError,
				sourceFile+": duplicate "+symbolKindName(existing.Kind)+" "+name)
		}
	}
	return braceEnd + 1
}

func matchBrace(text string, open int) int {
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func skipSpaceAt(text string, pos int) int {
	for pos < len(text) && isSpace(text[pos]) {
		pos++
	}
	return pos
}

func symbolKindName(k namespace.SymbolKind) string {
	switch k {
	case namespace.Element:
		return "element"
	case namespace.Style:
		return "style"
	case namespace.Var:
		return "var"
	case namespace.Template:
		return "template"
	case namespace.Custom:
		return "custom"
	case namespace.Origin:
		return "origin"
	case namespace.Config:
		return "config"
	case namespace.Namespace:
		return "namespace"
	default:
		return "symbol"
	}
}
