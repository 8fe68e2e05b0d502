package cjmod

import (
	"strings"

	"github.com/chtl-lang/chtl/internal/logger"
)

// ScanStrategy selects one of the two keyword-detection strategies the
// engine supports. Exactly one is active per Scanner.
type ScanStrategy uint8

const (
	SlidingWindow ScanStrategy = iota
	FrontExtract
)

const initialRangeBytes = 100

// SuffixRule implements the "front-extract suffix rule" (distinct from the
// FrontExtract strategy): a trigger keyword that, on match, looks left for
// the last occurrence of Pattern and extracts [patternStart, triggerEnd)
// as the DSL prefix rather than leaving it as host code.
type SuffixRule struct {
	Trigger string
	Pattern string
}

// Match is one recognized DSL construct: which registered function
// produced it, its raw matched text, and its byte span in the scanned
// input.
type Match struct {
	FunctionName string
	Text         string
	Start        int
	End          int
}

// Scanner walks a CHTL_JS fragment's text, detecting registered keywords
// per the active ScanStrategy and collecting each match's full construct
// (balanced call, or up to ';' at depth 0).
type Scanner struct {
	registry    *Registry
	strategy    ScanStrategy
	suffixRules map[string]SuffixRule
}

func NewScanner(registry *Registry, strategy ScanStrategy) *Scanner {
	return &Scanner{registry: registry, strategy: strategy, suffixRules: make(map[string]SuffixRule)}
}

// AddSuffixRule registers a front-extract suffix rule for a trigger
// keyword.
func (s *Scanner) AddSuffixRule(rule SuffixRule) {
	s.suffixRules[rule.Trigger] = rule
}

// ScanAndProcess dispatches to the
// configured strategy and returns the rewritten text (non-DSL spans
// unchanged, DSL spans replaced by their matched function's Render/
// Transform output) plus the matches found, for vir-helper collection.
func (s *Scanner) ScanAndProcess(source string, log logger.Log, fileName string) (string, []Match) {
	if s.strategy == FrontExtract {
		return s.frontExtractScan(source, log, fileName)
	}
	return s.slidingWindowScan(source, log, fileName)
}

// slidingWindowScan implements the dual-pointer strategy: back marks the
// last-emitted boundary, front seeks the next registered keyword. If no
// registered keyword appears anywhere in the first initialRangeBytes,
// front starts past that range (back stays at 0, so those bytes are still
// forwarded); if one does appear there, scanning starts at offset 0 and
// that keyword is rewritten like any other.
func (s *Scanner) slidingWindowScan(source string, log logger.Log, fileName string) (string, []Match) {
	var out strings.Builder
	var matches []Match

	back := 0
	front := 0
	initialRange := initialRangeBytes
	if initialRange > len(source) {
		initialRange = len(source)
	}

	// Initial scan: if no keyword appears anywhere in [0, initialRange),
	// skip past it without treating it as DSL, keeping back at 0.
	foundEarly := false
	for p := 0; p < initialRange; p++ {
		if kw, _ := s.detectKeywordAt(source, p, len(source)); kw != "" {
			foundEarly = true
			break
		}
	}
	if !foundEarly {
		front = initialRange
	}

	for front < len(source) {
		kw, _ := s.detectKeywordAt(source, front, len(source))
		if kw == "" {
			front++
			continue
		}

		out.WriteString(source[back:front])

		constructEnd := findConstructEnd(source, front)
		text := source[front:constructEnd]

		fn, processed := s.process(kw, text, log, fileName, front)
		if processed != "" {
			out.WriteString(processed)
		} else {
			// Unknown keyword (shouldn't happen: detectKeywordAt only
			// matches registered names) or unparseable argument list is
			// left unchanged rather than dropped.
			out.WriteString(text)
		}
		if fn != nil {
			matches = append(matches, Match{FunctionName: fn.Name, Text: text, Start: front, End: constructEnd})
		}

		back = constructEnd
		front = constructEnd
	}
	out.WriteString(source[back:])
	return out.String(), matches
}

// frontExtractScan behaves like slidingWindowScan's keyword detection but
// discards (rather than forwards) the bytes between back and the DSL
// match: used when the host embedding around the DSL construct must not
// reach the JavaScript compiler.
func (s *Scanner) frontExtractScan(source string, log logger.Log, fileName string) (string, []Match) {
	var out strings.Builder
	var matches []Match

	front := 0
	for front < len(source) {
		kw, _ := s.detectKeywordAt(source, front, len(source))
		if kw == "" {
			front++
			continue
		}

		constructEnd := findConstructEnd(source, front)
		text := source[front:constructEnd]

		extractStart := front
		if rule, ok := s.suffixRules[kw]; ok {
			if patStart := strings.LastIndex(source[:front], rule.Pattern); patStart != -1 {
				extractStart = patStart
				text = source[extractStart:constructEnd]
			}
		}

		fn, processed := s.process(kw, text, log, fileName, front)
		if processed != "" {
			out.WriteString(processed)
		} else {
			out.WriteString(text)
		}
		if fn != nil {
			matches = append(matches, Match{FunctionName: fn.Name, Text: text, Start: extractStart, End: constructEnd})
		}

		front = constructEnd
	}
	return out.String(), matches
}

// detectKeywordAt reports the longest registered function name matching
// at position pos within [pos, limit), or "" if none does.
func (s *Scanner) detectKeywordAt(source string, pos, limit int) (string, int) {
	best := ""
	for _, name := range s.registry.Names() {
		if pos+len(name) > limit {
			continue
		}
		if source[pos:pos+len(name)] == name && len(name) > len(best) {
			best = name
		}
	}
	return best, len(best)
}

// process looks up the matched keyword's function, binds the construct's
// argument list onto its slots, and renders it. A keyword with no
// registered function yields a nil function and no rendering. One whose
// argument list never rebalances is reported and yields no rendering;
// both scan strategies then emit the construct's text unchanged.
func (s *Scanner) process(keyword, text string, log logger.Log, fileName string, pos int) (*Function, string) {
	fn, ok := s.registry.Lookup(keyword)
	if !ok {
		return nil, ""
	}
	if !isBalancedCall(text) {
		src := &logger.Source{FileName: fileName, Contents: text}
		log.Add(logger.SyntaxError, src, logger.Range{Loc: logger.Loc{Start: int32(pos)}, Len: int32(len(text))},
			"unbalanced CJMOD argument list at end of file for \""+keyword+"\"")
		return fn, ""
	}
	bindCallArguments(fn, text)
	return fn, fn.Transform()
}

// bindCallArguments binds a matched construct's argument list onto fn's
// slots: "f({k1: v1, k2: v2})" binds each key by name, "f(v1, v2)" binds
// values onto "$" placeholders in first-unbound-first-served order.
// Values are raw source text; Bind's type coercion happens per slot.
func bindCallArguments(fn *Function, text string) {
	open := strings.IndexByte(text, '(')
	if open == -1 {
		return
	}
	end := strings.LastIndexByte(text, ')')
	if end <= open {
		return
	}
	inner := strings.TrimSpace(text[open+1 : end])
	if strings.HasPrefix(inner, "{") && strings.HasSuffix(inner, "}") {
		body := inner[1 : len(inner)-1]
		for _, kv := range splitTopLevel(body, ',') {
			colon := indexTopLevel(kv, ':')
			if colon == -1 {
				continue
			}
			key := strings.TrimSpace(kv[:colon])
			value := strings.TrimSpace(kv[colon+1:])
			if key != "" && value != "" {
				fn.BindNamed(key, value)
			}
		}
		return
	}
	for _, arg := range splitTopLevel(inner, ',') {
		if arg = strings.TrimSpace(arg); arg != "" {
			fn.BindNextPlaceholder(arg)
		}
	}
}

// splitTopLevel splits s on sep occurrences at bracket depth zero, outside
// string literals.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	last := 0
	depth := 0
	inString := false
	var delim byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if c == '\\' {
				i++
			} else if c == delim {
				inString = false
			}
			continue
		}
		switch c {
		case '"', '\'':
			inString = true
			delim = c
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	return append(parts, s[last:])
}

// indexTopLevel returns the index of the first sep at bracket depth zero
// outside string literals, or -1.
func indexTopLevel(s string, sep byte) int {
	depth := 0
	inString := false
	var delim byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if c == '\\' {
				i++
			} else if c == delim {
				inString = false
			}
			continue
		}
		switch c {
		case '"', '\'':
			inString = true
			delim = c
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
		case sep:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// findConstructEnd extends from start through the balanced call that
// follows it, or to the next ';' at brace depth 0 if the construct has no
// parenthesized argument list.
func findConstructEnd(source string, start int) int {
	i := start
	for i < len(source) && source[i] != '(' && source[i] != ';' && source[i] != '\n' {
		i++
	}
	if i >= len(source) || source[i] != '(' {
		if i < len(source) && source[i] == ';' {
			return i + 1
		}
		return i
	}
	depth := 0
	for ; i < len(source); i++ {
		switch source[i] {
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(source)
}

// isBalancedCall reports whether text's brace/paren/bracket nesting
// returns to zero by its end.
func isBalancedCall(text string) bool {
	depth := 0
	for _, c := range text {
		switch c {
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
		}
	}
	return depth == 0
}
