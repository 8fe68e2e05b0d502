package compiler

import "strings"

// emitParser turns a CHTL fragment's element tree into HTML. It is
// deliberately thin: full code generation (attributes, styles, and other
// CHTL-specific constructs) is out of scope; this only produces element
// nesting and text content.
type emitParser struct {
	src string
	pos int
}

// emitCHTL renders a CHTL fragment's element tree as HTML. Lines that
// aren't "name { ... }" blocks (import declarations, bare attribute
// statements) are skipped rather than emitted verbatim.
func emitCHTL(text string) string {
	p := &emitParser{src: text}
	var sb strings.Builder
	p.skipNonBlocks()
	for p.pos < len(p.src) {
		if node, ok := p.readNode(); ok {
			sb.WriteString(node)
		} else {
			break
		}
		p.skipNonBlocks()
	}
	return sb.String()
}

func (p *emitParser) skipSpace() {
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

// skipNonBlocks advances past whitespace, attribute lines ("id: box;"),
// and bracketed declaration blocks ([Import], [Template], [Custom],
// [Namespace], [Origin], [Configuration]) so readNode always starts at a
// genuine element or text block (or at end of input). A declaration block
// is skipped as a whole unit, through its matching '}' or its ';' if it
// has no brace body, so markup that follows it in the same fragment is
// still reached rather than dropped.
func (p *emitParser) skipNonBlocks() {
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return
		}
		if p.src[p.pos] == '}' {
			return
		}
		save := p.pos
		_, ok := p.peekIdentThenBrace()
		p.pos = save
		if ok {
			return
		}
		if p.src[p.pos] == '[' {
			p.skipBracketedDecl()
			continue
		}
		// Not "ident {" and not a bracketed declaration: skip to the next
		// statement terminator or brace so we don't loop forever on
		// unrecognized text.
		for p.pos < len(p.src) && p.src[p.pos] != ';' && p.src[p.pos] != '{' && p.src[p.pos] != '}' {
			p.pos++
		}
		if p.pos < len(p.src) && p.src[p.pos] == ';' {
			p.pos++
			continue
		}
		return
	}
}

// skipBracketedDecl advances past one "[Kind] ... { ... }" or
// "[Kind] ... ;" declaration, starting at the opening '['.
func (p *emitParser) skipBracketedDecl() {
	for p.pos < len(p.src) && p.src[p.pos] != '{' && p.src[p.pos] != ';' {
		p.pos++
	}
	if p.pos >= len(p.src) {
		return
	}
	if p.src[p.pos] == ';' {
		p.pos++
		return
	}
	depth := 0
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				p.pos++
				return
			}
		}
		p.pos++
	}
}

// peekIdentThenBrace reports whether the parser is positioned at
// "identifier {" (skipping space between them), consuming through the
// identifier and the opening brace if so, and leaves p.pos unchanged
// (via caller-managed save/restore) otherwise.
func (p *emitParser) peekIdentThenBrace() (string, bool) {
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", false
	}
	name := p.src[start:p.pos]
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '{' {
		p.pos++
		return name, true
	}
	return "", false
}

// readNode consumes one "name { ... }" block at the current position and
// returns its rendered HTML. "text" blocks render their raw body;
// anything else renders as a <name>...</name> element wrapping its
// recursively-emitted body.
func (p *emitParser) readNode() (string, bool) {
	start := p.pos
	name, ok := p.peekIdentThenBrace()
	if !ok {
		p.pos = start
		return "", false
	}

	bodyStart := p.pos
	depth := 1
	for p.pos < len(p.src) && depth > 0 {
		switch p.src[p.pos] {
		case '{':
			depth++
		case '}':
			depth--
		}
		p.pos++
	}
	bodyEnd := p.pos - 1
	if bodyEnd < bodyStart {
		bodyEnd = bodyStart
	}
	body := p.src[bodyStart:bodyEnd]

	if name == "text" {
		return strings.TrimSpace(body), true
	}
	return "<" + name + ">" + emitCHTL(body) + "</" + name + ">", true
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
