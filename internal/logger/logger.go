// Package logger implements CHTL's diagnostic model: a closure-based Log
// that collects Msg values as a compile job runs and renders them in the
// clang-inspired "[<Kind> <source>:<line>:<col>] <message>" format on
// completion.
package logger

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"
)

const defaultTerminalWidth = 80

// Log is the per-job diagnostic sink. It is built once per compile job by
// NewStderrLog or NewDeferLog and threaded through every component that can
// fail (scanner, resolver, graph, namespace store, cmod loader).
type Log struct {
	AddMsg    func(Msg)
	HasErrors func() bool
	Done      func() []Msg
}

// ErrorKind enumerates the diagnostic kinds named in the error handling
// design: one of the eight failure categories, or Note for a non-fatal
// annotation.
type ErrorKind uint8

const (
	IoError ErrorKind = iota
	SyntaxError
	ResolutionError
	CycleError
	ConflictError
	StructuralError
	ArchiveError
	VersionError
	Note
)

func (k ErrorKind) String() string {
	switch k {
	case IoError:
		return "IoError"
	case SyntaxError:
		return "SyntaxError"
	case ResolutionError:
		return "ResolutionError"
	case CycleError:
		return "CycleError"
	case ConflictError:
		return "ConflictError"
	case StructuralError:
		return "StructuralError"
	case ArchiveError:
		return "ArchiveError"
	case VersionError:
		return "VersionError"
	case Note:
		return "Note"
	default:
		panic("unknown ErrorKind")
	}
}

// Msg is one diagnostic: a kind, optional source location, and text.
type Msg struct {
	Kind ErrorKind
	Data MsgData
}

type MsgData struct {
	Text     string
	Location *MsgLocation
}

// MsgLocation is a (file, line, col) triple, with the
// containing line's text kept around so a clang-style snippet can be shown
// under --verbose.
type MsgLocation struct {
	File     string
	Line     int // 1-based
	Column   int // 0-based, in bytes
	Length   int // in bytes
	LineText string
}

// Loc is a byte offset from the start of a source; Range pairs it with a
// length. Both are used by components that report a span rather than a
// single point (e.g. the scanner reporting an unterminated string).
type Loc struct {
	Start int32
}

type Range struct {
	Loc Loc
	Len int32
}

func (r Range) End() int32 { return r.Loc.Start + r.Len }

// Source is an in-memory source file: its name and full contents, used to
// turn a Loc/Range into a MsgLocation.
type Source struct {
	FileName string
	Contents string
}

func (s *Source) TextForRange(r Range) string {
	return s.Contents[r.Loc.Start : r.Loc.Start+r.Len]
}

// SortableMsgs lets Done() callers produce deterministic output: sorted by
// file, then line, then column, then kind, then text.
type SortableMsgs []Msg

func (a SortableMsgs) Len() int      { return len(a) }
func (a SortableMsgs) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a SortableMsgs) Less(i, j int) bool {
	ai, aj := a[i], a[j]
	aiLoc, ajLoc := ai.Data.Location, aj.Data.Location
	if aiLoc == nil || ajLoc == nil {
		return aiLoc == nil && ajLoc != nil
	}
	if aiLoc.File != ajLoc.File {
		return aiLoc.File < ajLoc.File
	}
	if aiLoc.Line != ajLoc.Line {
		return aiLoc.Line < ajLoc.Line
	}
	if aiLoc.Column != ajLoc.Column {
		return aiLoc.Column < ajLoc.Column
	}
	if ai.Kind != aj.Kind {
		return ai.Kind < aj.Kind
	}
	return ai.Data.Text < aj.Data.Text
}

func computeLineAndColumn(contents string, offset int) (line int, column int, lineStart int, lineEnd int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(contents) {
		offset = len(contents)
	}
	line = 1
	lineStart = 0
	for i := 0; i < offset; i++ {
		if contents[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	lineEnd = len(contents)
	if idx := strings.IndexByte(contents[offset:], '\n'); idx != -1 {
		lineEnd = offset + idx
	}
	column = offset - lineStart
	return
}

// LocationOrNil converts a Range within a Source into a MsgLocation,
// computing line/column/line-text. Returns nil when source is nil, which
// lets callers report diagnostics that have no file association.
func LocationOrNil(source *Source, r Range) *MsgLocation {
	if source == nil {
		return nil
	}
	line, column, lineStart, lineEnd := computeLineAndColumn(source.Contents, int(r.Loc.Start))
	return &MsgLocation{
		File:     source.FileName,
		Line:     line,
		Column:   column,
		Length:   int(r.Len),
		LineText: source.Contents[lineStart:lineEnd],
	}
}

// RangeData builds a MsgData for a given source range, leaving the caller
// to attach an ErrorKind.
func RangeData(source *Source, r Range, text string) MsgData {
	return MsgData{Text: text, Location: LocationOrNil(source, r)}
}

func (log Log) Add(kind ErrorKind, source *Source, r Range, text string) {
	log.AddMsg(Msg{Kind: kind, Data: RangeData(source, r, text)})
}

func (log Log) AddWithoutLocation(kind ErrorKind, text string) {
	log.AddMsg(Msg{Kind: kind, Data: MsgData{Text: text}})
}

// String renders a single diagnostic in the clang-inspired format:
// "[<Kind> <source>:<line>:<col>] <message>". When loc is nil the location
// segment is omitted. verbose additionally appends a clang-style
// caret-under-the-offending-text snippet.
func (msg Msg) String(verbose bool, info TerminalInfo) string {
	loc := msg.Data.Location
	var head string
	if loc != nil {
		head = fmt.Sprintf("[%s %s:%d:%d] %s", msg.Kind.String(), loc.File, loc.Line, loc.Column+1, msg.Data.Text)
	} else {
		head = fmt.Sprintf("[%s] %s", msg.Kind.String(), msg.Data.Text)
	}
	if !verbose || loc == nil || loc.LineText == "" {
		return head
	}
	return head + "\n" + snippet(loc, info)
}

const extraMarginChars = 1

func snippet(loc *MsgLocation, info TerminalInfo) string {
	width := info.Width
	if width <= 0 {
		width = defaultTerminalWidth
	}
	lineText := renderTabStops(loc.LineText, 4)
	caretCol := estimateWidthInTerminal(renderTabStops(loc.LineText[:min(loc.Column, len(loc.LineText))], 4))
	length := loc.Length
	if length < 1 {
		length = 1
	}
	margin := fmt.Sprintf("%d │ ", loc.Line)
	caretLine := strings.Repeat(" ", len(margin)+caretCol) + strings.Repeat("^", length)
	if len(caretLine) > width+extraMarginChars {
		caretLine = caretLine[:width+extraMarginChars]
	}
	return margin + lineText + "\n" + caretLine
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func estimateWidthInTerminal(text string) int {
	width := 0
	for _, c := range text {
		if c == '\t' {
			width += 4
		} else if utf8.RuneLen(c) > 0 {
			width++
		}
	}
	return width
}

func renderTabStops(withTabs string, spacesPerTab int) string {
	if !strings.ContainsRune(withTabs, '\t') {
		return withTabs
	}
	var b strings.Builder
	col := 0
	for _, c := range withTabs {
		if c == '\t' {
			spaces := spacesPerTab - (col % spacesPerTab)
			b.WriteString(strings.Repeat(" ", spaces))
			col += spaces
		} else {
			b.WriteRune(c)
			col++
		}
	}
	return b.String()
}

// TerminalInfo describes the output file's color/width capabilities, as
// detected by the platform-specific GetTerminalInfo.
type TerminalInfo struct {
	IsTTY           bool
	Width           int
	Height          int
	UseColorEscapes bool
}

// OutputOptions controls NewStderrLog's rendering.
type OutputOptions struct {
	Verbose      bool
	TerminalInfo TerminalInfo
}

// NewStderrLog builds a Log that accumulates messages in memory and exposes
// them through Done; the caller (internal/compiler or a CLI driver) is
// responsible for writing Done()'s messages to stderr in the diagnostic
// format. Kept as a constructor (rather than writing directly in AddMsg) so
// callers can sort before printing.
func NewStderrLog(options OutputOptions) Log {
	var msgs SortableMsgs
	hasErrors := false

	return Log{
		AddMsg: func(msg Msg) {
			msgs = append(msgs, msg)
			if msg.Kind != Note {
				hasErrors = true
			}
		},
		HasErrors: func() bool {
			return hasErrors
		},
		Done: func() []Msg {
			sort.Stable(msgs)
			return msgs
		},
	}
}

// NewDeferLog collects messages without ever treating them as fatal to
// the caller's own flow. Used by components under test and by nested
// parses whose diagnostics are reconciled into the outer log later.
func NewDeferLog() Log {
	var msgs []Msg
	return Log{
		AddMsg: func(msg Msg) {
			msgs = append(msgs, msg)
		},
		HasErrors: func() bool {
			for _, msg := range msgs {
				if msg.Kind != Note {
					return true
				}
			}
			return false
		},
		Done: func() []Msg {
			return msgs
		},
	}
}

// PrintMessages writes each message to the given file in the diagnostic
// format, one line (or snippet block, under verbose) at a time. Output
// goes through the platform color shim, which translates ANSI escapes to
// console attributes where the terminal can't interpret them directly.
func PrintMessages(file *os.File, msgs []Msg, verbose bool) {
	info := GetTerminalInfo(file)
	for _, msg := range msgs {
		writeStringWithColor(file, msg.String(verbose, info)+"\n")
	}
}
