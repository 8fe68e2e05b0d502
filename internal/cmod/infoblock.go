package cmod

import (
	"fmt"
	"strings"
)

// infoFields lists [Info] keys in the canonical order Serialize writes
// them.
var infoFields = []struct {
	key string
	get func(*Info) *string
}{
	{"name", func(i *Info) *string { return &i.Name }},
	{"version", func(i *Info) *string { return &i.Version }},
	{"description", func(i *Info) *string { return &i.Description }},
	{"author", func(i *Info) *string { return &i.Author }},
	{"license", func(i *Info) *string { return &i.License }},
	{"dependencies", func(i *Info) *string { return &i.Dependencies }},
	{"category", func(i *Info) *string { return &i.Category }},
	{"minCHTLVersion", func(i *Info) *string { return &i.MinCHTLVersion }},
	{"maxCHTLVersion", func(i *Info) *string { return &i.MaxCHTLVersion }},
}

// Serialize writes the [Info] block in canonical field order.
func (i Info) Serialize() string {
	var b strings.Builder
	b.WriteString("[Info]\n{\n")
	for _, f := range infoFields {
		fmt.Fprintf(&b, "    %s = %q;\n", f.key, *f.get(&i))
	}
	b.WriteString("}\n")
	return b.String()
}

// extractBracedBlock finds "[name] { ... }" via balanced-brace scan and
// returns the body between the braces. A regex with a non-greedy brace
// match would break on nested braces, which CHTL bodies can contain.
func extractBracedBlock(content, name string) (string, bool) {
	marker := "[" + name + "]"
	idx := strings.Index(content, marker)
	if idx == -1 {
		return "", false
	}
	braceStart := strings.IndexByte(content[idx:], '{')
	if braceStart == -1 {
		return "", false
	}
	braceStart += idx
	depth := 0
	for i := braceStart; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[braceStart+1 : i], true
			}
		}
	}
	return "", false
}

func parseInfo(content string) (Info, bool) {
	body, ok := extractBracedBlock(content, "Info")
	if !ok {
		return Info{}, false
	}
	var info Info
	for _, f := range infoFields {
		*f.get(&info) = parseQuotedField(body, f.key)
	}
	ok = info.Name != "" && info.Version != "" && info.Author != "" &&
		info.MinCHTLVersion != "" && info.MaxCHTLVersion != ""
	return info, ok
}

// parseQuotedField finds `key = "value";` within body.
func parseQuotedField(body, key string) string {
	idx := strings.Index(body, key)
	if idx == -1 {
		return ""
	}
	rest := strings.TrimLeft(body[idx+len(key):], " \t")
	if !strings.HasPrefix(rest, "=") {
		return ""
	}
	rest = strings.TrimLeft(rest[1:], " \t")
	if !strings.HasPrefix(rest, "\"") {
		return ""
	}
	end := strings.IndexByte(rest[1:], '"')
	if end == -1 {
		return ""
	}
	return rest[1 : 1+end]
}
