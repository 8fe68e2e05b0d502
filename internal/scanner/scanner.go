// Package scanner implements the unified scanner: a context-aware slicer
// that cuts mixed .chtl source into typed fragments of
// CHTL markup, embedded CSS, embedded JavaScript, and CHTL-JS (a DSL
// superset of JavaScript recognized inside local script blocks).
//
// The scan runs a buffered sliding window (default 4KiB, extended 256
// bytes at a time until a legal boundary is found) over a small lexical
// state machine: brace depth, string/comment mode, top-level block
// recognition, and specialized sub-scanners for local style/script block
// bodies.
package scanner

import (
	"strings"

	"github.com/chtl-lang/chtl/internal/logger"
)

// FragmentKind is one of the four textual languages a .chtl source mixes.
type FragmentKind uint8

const (
	CHTL FragmentKind = iota
	CSS
	JS
	CHTLJS
)

func (k FragmentKind) String() string {
	switch k {
	case CHTL:
		return "CHTL"
	case CSS:
		return "CSS"
	case JS:
		return "JS"
	case CHTLJS:
		return "CHTL_JS"
	default:
		return "?"
	}
}

// Fragment is a contiguous slice of source annotated with its language kind
// and position.
type Fragment struct {
	Kind       FragmentKind
	Text       string
	StartByte  int
	EndByte    int
	StartLine  int
	StartCol   int
}

const sliceSize = 4096
const sliceExtend = 256

// state tracks the lexical mode required to decide whether a byte position
// is a legal fragment (and window) boundary.
type state struct {
	braceDepth   int
	bracketDepth int
	parenDepth   int
	inString     bool
	stringDelim  byte
	inComment    bool
}

func (s *state) isBalanced() bool {
	return s.braceDepth == 0 && s.bracketDepth == 0 && s.parenDepth == 0
}

// Scan fragments source left-to-right, returning the fragment list and a
// diagnostic log. The scanner never aborts: malformed input is recorded as
// a diagnostic and scanning continues.
func Scan(source, fileName string) ([]Fragment, *logger.Log) {
	log := logger.NewDeferLog()
	s := &scanner{source: source, fileName: fileName, log: log}
	fragments := s.scan()
	fragments = mergeConsecutiveFragments(fragments)
	s.reportUnterminated()
	return fragments, &log
}

// reportUnterminated handles unterminated strings/comments at end of file:
// the scanner never aborts, but records a
// SyntaxError so the caller can surface that residual text was swallowed.
func (s *scanner) reportUnterminated() {
	src := &logger.Source{FileName: s.fileName, Contents: s.source}
	end := logger.Range{Loc: logger.Loc{Start: int32(len(s.source))}, Len: 0}
	if s.st.inString {
		s.log.Add(logger.SyntaxError, src, end, "unterminated string literal at end of file")
	}
	if s.st.inComment {
		s.log.Add(logger.SyntaxError, src, end, "unterminated block comment at end of file")
	}
}

type scanner struct {
	source   string
	fileName string
	log      logger.Log
	st       state
}

func (s *scanner) scan() []Fragment {
	var fragments []Fragment
	pos := 0
	n := len(s.source)
	for pos < n {
		sliceEnd := pos + sliceSize
		if sliceEnd > n {
			sliceEnd = n
		}
		for sliceEnd < n && !s.isFragmentBoundary(sliceEnd) {
			sliceEnd += sliceExtend
			if sliceEnd > n {
				sliceEnd = n
			}
		}
		// The window end is advisory: a construct that opens before
		// sliceEnd and closes after it is consumed whole, so the next
		// window starts where the walk actually stopped, never before it.
		// Resyncing here is what keeps fragments from overlapping.
		pos = s.processSlice(pos, sliceEnd, &fragments)
	}
	return fragments
}

// isFragmentBoundary reports whether a
// candidate window-end position is legal: only when no string/comment is
// open, all bracket counters are zero, and either the preceding byte closes
// a top-level construct (';' or a brace-depth-zero '}') or we're simply at
// EOF. A position right after "{{" also counts when no "}}" follows it
// anywhere in the source. The counters reflect the state where the previous window stopped,
// so the answer is a placement hint, not a guarantee; correctness does not
// depend on it, because processSlice consumes straddling constructs whole
// and scan resumes from wherever it stopped.
func (s *scanner) isFragmentBoundary(pos int) bool {
	if pos >= len(s.source) {
		return true
	}
	if s.st.inString || s.st.inComment {
		return false
	}
	if !s.st.isBalanced() {
		return false
	}
	if pos >= 2 && s.source[pos-2] == '{' && s.source[pos-1] == '{' {
		end := strings.Index(s.source[pos:], "}}")
		return end == -1
	}
	if pos > 0 && s.source[pos-1] == '}' && s.st.braceDepth == 0 {
		return true
	}
	if pos > 0 && s.source[pos-1] == ';' {
		return true
	}
	return false
}

func (s *scanner) lineCol(byteOffset int) (line, col int) {
	line = 1
	lineStart := 0
	for i := 0; i < byteOffset && i < len(s.source); i++ {
		if s.source[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return line, byteOffset - lineStart
}

func (s *scanner) emit(fragments *[]Fragment, kind FragmentKind, text string, startByte int) {
	if text == "" {
		return
	}
	line, col := s.lineCol(startByte)
	*fragments = append(*fragments, Fragment{
		Kind:      kind,
		Text:      text,
		StartByte: startByte,
		EndByte:   startByte + len(text),
		StartLine: line,
		StartCol:  col,
	})
}

var chtlTopLevelKeywords = []string{
	"[Template]", "[Custom]", "[Configuration]", "[Namespace]", "[Import]", "[Origin]",
}

// processSlice walks one window's bytes, updating lexical state, splitting
// off comments and string-aware CHTL constructs, and deferring to
// processLocalStyleBlock/processLocalScriptBlock for text/style/script
// element bodies.
//
// Bytes that belong to no recognized construct (whitespace between
// elements, "//" and "/* */" comments which are consumed without
// emission) are not dropped: they accumulate in a pending plain
// run and are flushed as a single CHTL fragment whenever a recognized
// construct interrupts them, or at the end of the slice. This keeps the
// scanner's spans tiling [0, len(source)) and concatenation byte-exact,
// while still never emitting "//"/"/* */" comments as their own
// dedicated fragment.
//
// Returns the position the walk actually stopped at. A construct or
// comment that opens before end and closes after it is consumed whole, so
// the return value can exceed end; the caller must resume from it, not
// from end, or the overrun bytes would be scanned and emitted twice.
func (s *scanner) processSlice(start, end int, fragments *[]Fragment) int {
	src := s.source
	pos := start
	plainStart := start

	flush := func(upto int) {
		if upto > plainStart {
			s.emit(fragments, CHTL, src[plainStart:upto], plainStart)
		}
	}

	if s.st.inComment {
		if close := strings.Index(src[pos:], "*/"); close != -1 {
			pos += close + 2
			s.st.inComment = false
		} else {
			pos = end
		}
	}

	for pos < end {
		ch := src[pos]

		// String literals come first: a "//" or "--" inside a string is
		// just string content, not a comment opener.
		if ch == '"' || ch == '\'' {
			if !s.st.inString {
				s.st.inString = true
				s.st.stringDelim = ch
			} else if ch == s.st.stringDelim {
				s.st.inString = false
				s.st.stringDelim = 0
			}
			pos++
			continue
		}
		if s.st.inString {
			pos++
			continue
		}

		// Comments.
		if pos+1 < end {
			if ch == '/' && src[pos+1] == '/' {
				pos = indexOrEnd(src, pos, '\n', end)
				continue
			}
			if ch == '/' && src[pos+1] == '*' {
				close := strings.Index(src[pos+2:], "*/")
				if close == -1 {
					s.st.inComment = true
					pos = end
				} else {
					pos = pos + 2 + close + 2
				}
				continue
			}
			if ch == '-' && src[pos+1] == '-' {
				commentEnd := indexOrEnd(src, pos, '\n', end)
				flush(pos)
				s.emit(fragments, CHTL, src[pos:commentEnd], pos)
				pos = commentEnd
				plainStart = pos
				continue
			}
		}

		// CHTL top-level blocks: [Template], [Custom], [Configuration],
		// [Namespace], [Import], [Origin]. Checked before the counter
		// update: the whole block is consumed here, so its '['/']' pair
		// must not touch the bracket counter. The block is bounded by the
		// source, not the window: a block straddling the window end is
		// consumed whole and the caller resyncs past it.
		if isTopLevelKeywordAt(src, pos, end) {
			blockEnd := findBlockEnd(src, pos, len(src))
			flush(pos)
			s.emit(fragments, CHTL, src[pos:blockEnd], pos)
			pos = blockEnd
			plainStart = pos
			continue
		}

		switch ch {
		case '{':
			s.st.braceDepth++
		case '}':
			if s.st.braceDepth > 0 {
				s.st.braceDepth--
			}
		case '[':
			s.st.bracketDepth++
		case ']':
			if s.st.bracketDepth > 0 {
				s.st.bracketDepth--
			}
		case '(':
			s.st.parenDepth++
		case ')':
			if s.st.parenDepth > 0 {
				s.st.parenDepth--
			}
		}

		// Identifiers: element names, possibly text/style/script.
		if isAlpha(ch) || ch == '_' {
			tokenEnd := pos
			for tokenEnd < end && isAlnum(src[tokenEnd]) {
				tokenEnd++
			}
			token := src[pos:tokenEnd]

			if token == "text" || token == "style" || token == "script" {
				braceStart := strings.IndexByte(src[tokenEnd:end], '{')
				if braceStart != -1 {
					braceStart += tokenEnd
					braceEnd := findMatchingBrace(src, braceStart, len(src))
					if braceEnd != -1 {
						block := src[pos : braceEnd+1]
						flush(pos)
						switch token {
						case "style":
							s.processLocalStyleBlock(block, pos, fragments)
						case "script":
							s.processLocalScriptBlock(block, pos, fragments)
						default:
							s.emit(fragments, CHTL, block, pos)
						}
						pos = braceEnd + 1
						plainStart = pos
						continue
					}
				}
			}

			// Plain element: identifier optionally followed by a balanced
			// body. The body is walked recursively (not swallowed whole) so
			// a nested "style"/"script"/"text" block or top-level keyword
			// several levels deep from the source root still gets split out
			// by the same rules that apply at the root.
			bodyStart := tokenEnd
			for bodyStart < end && isWhitespace(src[bodyStart]) {
				bodyStart++
			}
			if bodyStart < end && src[bodyStart] == '{' {
				braceEnd := findMatchingBrace(src, bodyStart, len(src))
				if braceEnd != -1 {
					flush(pos)
					s.emit(fragments, CHTL, src[pos:bodyStart+1], pos)
					s.processSlice(bodyStart+1, braceEnd, fragments)
					s.emit(fragments, CHTL, src[braceEnd:braceEnd+1], braceEnd)
					pos = braceEnd + 1
					plainStart = pos
					continue
				}
				// The body never closes, usually because an unterminated
				// string swallowed the closing braces. Report it and emit
				// the remainder so residual text still reaches the emitter.
				srcRef := &logger.Source{FileName: s.fileName, Contents: s.source}
				s.log.Add(logger.SyntaxError, srcRef,
					logger.Range{Loc: logger.Loc{Start: int32(bodyStart)}, Len: 1},
					"unterminated element body for \""+token+"\"")
				flush(pos)
				s.emit(fragments, CHTL, src[pos:end], pos)
				pos = end
				plainStart = pos
				continue
			}

			elementEnd := findStatementEnd(src, pos)
			flush(pos)
			s.emit(fragments, CHTL, src[pos:elementEnd], pos)
			pos = elementEnd
			plainStart = pos
			continue
		}

		pos++
	}

	flush(pos)
	return pos
}

func isTopLevelKeywordAt(src string, pos, end int) bool {
	lookahead := src[pos:min(pos+20, end)]
	for _, kw := range chtlTopLevelKeywords {
		if strings.HasPrefix(lookahead, kw) {
			return true
		}
	}
	return false
}

// indexOrEnd finds the next occurrence of b starting at from; a comment
// that runs past the current window's nominal end is fine, since
// processSlice reports how far it advanced and scan resumes from there.
func indexOrEnd(src string, from int, b byte, windowEnd int) int {
	idx := strings.IndexByte(src[from:], b)
	if idx == -1 {
		return len(src)
	}
	return from + idx
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isAlnum(b byte) bool {
	return isAlpha(b) || isDigit(b) || b == '_'
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// findMatchingBrace returns the index of the '}' matching the '{' at
// startPos, tracking nested braces and string literals so a brace inside a
// string is ignored. Returns -1 if unterminated.
func findMatchingBrace(content string, startPos, limit int) int {
	if startPos >= len(content) || content[startPos] != '{' {
		return -1
	}
	depth := 0
	inString := false
	var delim byte
	for i := startPos; i < limit && i < len(content); i++ {
		c := content[i]
		if inString {
			if c == delim {
				inString = false
			}
			continue
		}
		switch c {
		case '"', '\'':
			inString = true
			delim = c
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

// findBlockEnd extends a recognized CHTL top-level block through its
// matching '}', or through the next top-level ';' if no '{' follows (e.g.
// a bare `[Import] @Html from "x";`).
func findBlockEnd(content string, startPos, limit int) int {
	braceIdx := strings.IndexByte(content[startPos:limit], '{')
	semiIdx := strings.IndexByte(content[startPos:limit], ';')
	if braceIdx == -1 && semiIdx == -1 {
		return limit
	}
	if braceIdx == -1 || (semiIdx != -1 && semiIdx < braceIdx) {
		return startPos + semiIdx + 1
	}
	brace := startPos + braceIdx
	end := findMatchingBrace(content, brace, len(content))
	if end == -1 {
		return limit
	}
	return end + 1
}

// findStatementEnd extends to the next ';' at brace depth 0, or EOF.
func findStatementEnd(content string, startPos int) int {
	depth := 0
	for i := startPos; i < len(content); i++ {
		switch content[i] {
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			if depth > 0 {
				depth--
			}
		case ';':
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(content)
}

// processLocalStyleBlock emits a CHTL fragment for the "style" header, then
// walks the block body splitting CHTL style features (prefixed by '@',
// '&', or the keywords "delete"/"inherit") from plain CSS text.
func (s *scanner) processLocalStyleBlock(block string, startPos int, fragments *[]Fragment) {
	braceStart := strings.IndexByte(block, '{')
	if braceStart == -1 {
		return
	}
	braceEnd := findMatchingBrace(block, braceStart, len(block))
	if braceEnd == -1 {
		return
	}
	content := block[braceStart+1 : braceEnd]
	contentStart := startPos + braceStart + 1

	s.emit(fragments, CHTL, block[:braceStart+1], startPos)

	pos := 0
	for pos < len(content) {
		if isStyleFeatureAt(content, pos) {
			featureEnd := findStatementEnd(content, pos)
			s.emit(fragments, CHTL, content[pos:featureEnd], contentStart+pos)
			pos = featureEnd
			continue
		}
		cssEnd := pos
		for cssEnd < len(content) && !isStyleFeatureAt(content, cssEnd) {
			cssEnd++
		}
		s.emit(fragments, CSS, content[pos:cssEnd], contentStart+pos)
		pos = cssEnd
	}

	s.emit(fragments, CHTL, block[braceEnd:], startPos+braceEnd)
}

func isStyleFeatureAt(content string, pos int) bool {
	if content[pos] == '@' || content[pos] == '&' {
		return true
	}
	if strings.HasPrefix(content[pos:], "delete") {
		return true
	}
	if strings.HasPrefix(content[pos:], "inherit") {
		return true
	}
	return false
}

// processLocalScriptBlock emits a CHTL fragment for the "script" header,
// then walks the block body recognizing three CHTL-JS constructs: enhanced
// selectors "{{...}}", "vir" declarations, and "->" arrow chains. Everything
// else is plain JS.
func (s *scanner) processLocalScriptBlock(block string, startPos int, fragments *[]Fragment) {
	braceStart := strings.IndexByte(block, '{')
	if braceStart == -1 {
		return
	}
	braceEnd := findMatchingBrace(block, braceStart, len(block))
	if braceEnd == -1 {
		return
	}
	content := block[braceStart+1 : braceEnd]
	contentStart := startPos + braceStart + 1

	s.emit(fragments, CHTL, block[:braceStart+1], startPos)

	pos := 0
	for pos < len(content) {
		if pos+1 < len(content) && content[pos] == '{' && content[pos+1] == '{' {
			if end := strings.Index(content[pos+2:], "}}"); end != -1 {
				selEnd := pos + 2 + end + 2
				s.emit(fragments, CHTLJS, content[pos:selEnd], contentStart+pos)
				pos = selEnd
				continue
			}
		}

		if isVirKeywordAt(content, pos) {
			virEnd := findStatementEnd(content, pos)
			s.emit(fragments, CHTLJS, content[pos:virEnd], contentStart+pos)
			pos = virEnd
			continue
		}

		if pos+1 < len(content) && content[pos] == '-' && content[pos+1] == '>' {
			// The identifier before "->" was already consumed by the
			// preceding JS run, so the arrow chain fragment starts at the
			// arrow itself: this keeps byte spans from overlapping.
			chainEnd := pos + 2
			for chainEnd < len(content) {
				c := content[chainEnd]
				if c == ';' || c == ',' || c == ')' || isWhitespace(c) {
					break
				}
				chainEnd++
			}
			s.emit(fragments, CHTLJS, content[pos:chainEnd], contentStart+pos)
			pos = chainEnd
			continue
		}

		jsEnd := pos
		for jsEnd < len(content) && !isCHTLJSTriggerAt(content, jsEnd) {
			jsEnd++
		}
		if jsEnd == pos {
			jsEnd++
		}
		s.emit(fragments, JS, content[pos:jsEnd], contentStart+pos)
		pos = jsEnd
	}

	s.emit(fragments, CHTL, block[braceEnd:], startPos+braceEnd)
}

func isVirKeywordAt(content string, pos int) bool {
	if !strings.HasPrefix(content[pos:], "vir") {
		return false
	}
	if pos > 0 && isAlnum(content[pos-1]) {
		return false
	}
	after := pos + 3
	return after == len(content) || isWhitespace(content[after])
}

func isCHTLJSTriggerAt(content string, pos int) bool {
	if pos+1 < len(content) && content[pos] == '{' && content[pos+1] == '{' {
		return true
	}
	if isVirKeywordAt(content, pos) {
		return true
	}
	if pos+1 < len(content) && content[pos] == '-' && content[pos+1] == '>' {
		return true
	}
	return false
}

// mergeConsecutiveFragments merges adjacent same-kind fragments unless the
// earlier one is a CHTL or CHTL-JS "minimal unit": a complete top-level
// block or DSL construct that must not be glued to its neighbor.
func mergeConsecutiveFragments(fragments []Fragment) []Fragment {
	if len(fragments) < 2 {
		return fragments
	}
	merged := []Fragment{fragments[0]}
	for _, cur := range fragments[1:] {
		prev := &merged[len(merged)-1]
		if prev.Kind == cur.Kind && shouldMerge(*prev) {
			prev.Text += cur.Text
			prev.EndByte = cur.EndByte
		} else {
			merged = append(merged, cur)
		}
	}
	return merged
}

func shouldMerge(prev Fragment) bool {
	if prev.Kind == CHTL || prev.Kind == CHTLJS {
		return !isMinimalUnit(prev.Text)
	}
	return true
}

// isMinimalUnit reports whether text is a complete CHTL top-level
// construct (one of the bracketed keyword blocks, or a "vir" declaration)
// that must be kept as its own fragment rather than merged with a
// neighbor.
func isMinimalUnit(text string) bool {
	for _, kw := range chtlTopLevelKeywords {
		if strings.HasPrefix(text, kw) {
			return true
		}
	}
	return strings.HasPrefix(text, "vir ") || strings.HasPrefix(text, "vir\t")
}
