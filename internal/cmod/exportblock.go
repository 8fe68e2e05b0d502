package cmod

import (
	"fmt"
	"strings"
)

// exportLists lists the "[Kind] @Tag" prefixes CMODExport recognizes, in
// the canonical order Serialize writes them back out.
var exportLists = []struct {
	prefix string
	get    func(*Export) *[]string
}{
	{"[Custom] @Style", func(e *Export) *[]string { return &e.CustomStyles }},
	{"[Custom] @Element", func(e *Export) *[]string { return &e.CustomElements }},
	{"[Custom] @Var", func(e *Export) *[]string { return &e.CustomVars }},
	{"[Template] @Style", func(e *Export) *[]string { return &e.TemplateStyles }},
	{"[Template] @Element", func(e *Export) *[]string { return &e.TemplateElements }},
	{"[Template] @Var", func(e *Export) *[]string { return &e.TemplateVars }},
	{"[Origin] @Html", func(e *Export) *[]string { return &e.OriginHTML }},
	{"[Origin] @Style", func(e *Export) *[]string { return &e.OriginStyle }},
	{"[Origin] @JavaScript", func(e *Export) *[]string { return &e.OriginJavaScript }},
	{"[Origin] @Custom", func(e *Export) *[]string { return &e.OriginCustoms }},
	{"[Configuration] @Config", func(e *Export) *[]string { return &e.Configurations }},
}

// Serialize writes the [Export] block. The block is omitted entirely when
// every list is empty, keeping it optional on disk the same way parse
// treats a missing block.
func (e Export) Serialize() string {
	var lines []string
	for _, l := range exportLists {
		items := *l.get(&e)
		if len(items) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("    %s %s;", l.prefix, strings.Join(items, ", ")))
	}
	if len(lines) == 0 {
		return ""
	}
	return "[Export]\n{\n" + strings.Join(lines, "\n") + "\n}\n"
}

// parseExport parses the optional [Export] block; a missing block is not
// an error.
func parseExport(content string) Export {
	var export Export
	body, ok := extractBracedBlock(content, "Export")
	if !ok {
		return export
	}
	for _, l := range exportLists {
		*l.get(&export) = parseExportItems(body, l.prefix)
	}
	return export
}

func parseExportItems(body, prefix string) []string {
	idx := strings.Index(body, prefix)
	if idx == -1 {
		return nil
	}
	rest := body[idx+len(prefix):]
	semi := strings.IndexByte(rest, ';')
	if semi == -1 {
		return nil
	}
	items := rest[:semi]
	var out []string
	for _, item := range strings.Split(items, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
