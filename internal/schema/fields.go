package schema

import (
	"regexp"
	"strings"
)

var (
	entryPattern = regexp.MustCompile(`(?s)^['"]?(\w+)['"]?\s*:\s*(.+)$`)

	typeAttr     = regexp.MustCompile(`\btype['"]?\s*:\s*(?:\[\s*)?(\w+(?:\.\w+){0,3})\s*\]?`)
	arrayAttr    = regexp.MustCompile(`\btype['"]?\s*:\s*\[`)
	refAttr      = regexp.MustCompile(`\bref['"]?\s*:\s*['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]`)
	requiredAttr = regexp.MustCompile(`\brequired['"]?\s*:\s*\[?\s*true\b`)
	defaultAttr  = regexp.MustCompile(`\bdefault['"]?\s*:\s*(?:['"` + "`" + `]([^'"` + "`" + `]*)['"` + "`" + `]|(-?\w[\w.]*))`)
	enumAttr     = regexp.MustCompile(`\benum['"]?\s*:\s*\[([^\]]+)\]`)

	quoteStripper = strings.NewReplacer(`'`, "", `"`, "", "`", "")
)

// parseFields parses the top-level entries of a schema object literal
// (including its outer braces) into fields, in source order.
// Entries that are not `key: value` pairs are skipped.
func parseFields(block string) []Field {
	if len(block) < 2 {
		return nil
	}
	inner := strings.TrimSpace(stripComments(block[1 : len(block)-1]))
	if inner == "" {
		return nil
	}

	var fields []Field
	for _, entry := range splitTopLevel(inner) {
		m := entryPattern.FindStringSubmatch(entry)
		if m == nil {
			continue
		}
		field := parseFieldValue(strings.TrimSpace(m[2]))
		field.Name = m[1]
		fields = append(fields, field)
	}
	return fields
}

// parseFieldValue classifies the value side of a field entry.
// Unrecognized shapes yield a Mixed field rather than an error.
func parseFieldValue(value string) Field {
	field := Field{Type: TypeMixed}

	if tag, ok := ParseTypeTag(value); ok {
		field.Type = tag
		return field
	}

	// [String] or [{ type: ..., ref: ... }]
	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		inner := strings.TrimSpace(value[1 : len(value)-1])
		if tag, ok := ParseTypeTag(inner); ok {
			field.Type = tag
		} else if strings.HasPrefix(inner, "{") {
			field = parseFieldObject(inner)
		}
		field.IsArray = true
		return field
	}

	if strings.HasPrefix(value, "{") {
		return parseFieldObject(value)
	}

	return field
}

// parseFieldObject reads field options from an object literal using
// independent probes. type, ref and required are searched through the whole
// literal; default and enum only at its own level so deeper sub-documents do
// not leak their values.
func parseFieldObject(obj string) Field {
	field := Field{Type: TypeMixed}

	if m := typeAttr.FindStringSubmatch(obj); m != nil {
		field.Type, _ = ParseTypeTag(m[1])
	}
	if arrayAttr.MatchString(obj) {
		field.IsArray = true
	}

	if m := refAttr.FindStringSubmatch(obj); m != nil {
		field.Ref = m[1]
		if field.Type == TypeMixed {
			field.Type = TypeObjectID
		}
	}

	field.Required = requiredAttr.MatchString(obj)

	own := shallow(obj)
	if m := defaultAttr.FindStringSubmatch(own); m != nil {
		value := m[1] // quoted, possibly empty
		if m[2] != "" {
			value = m[2]
		}
		field.DefaultValue = &value
	}

	if m := enumAttr.FindStringSubmatch(own); m != nil {
		field.EnumValues = parseEnumValues(m[1])
	}

	return field
}

func parseEnumValues(list string) []string {
	var values []string
	for _, raw := range strings.Split(list, ",") {
		if v := quoteStripper.Replace(strings.TrimSpace(raw)); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// stripComments removes // and /* */ comments outside string and regex literals.
func stripComments(s string) string {
	if !strings.Contains(s, "/") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	var last byte // last non-space byte written
	emit := func(c byte) {
		b.WriteByte(c)
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			last = c
		}
	}

	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]

		if quote != 0 {
			emit(c)
			if c == '\\' && i+1 < len(s) {
				i++
				emit(s[i])
			} else if c == quote {
				quote = 0
			}
			continue
		}

		switch {
		case c == '\'' || c == '"' || c == '`':
			quote = c
			emit(c)
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			for i < len(s) && s[i] != '\n' {
				i++
			}
			if i < len(s) {
				b.WriteByte('\n')
			}
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return b.String()
			}
			i += end + 3
			b.WriteByte(' ')
		case c == '/' && startsRegex(last):
			end := regexEnd(s, i)
			for ; i < end; i++ {
				emit(s[i])
			}
			i = end - 1
		default:
			emit(c)
		}
	}
	return b.String()
}

// startsRegex reports whether a '/' following prev opens a regex literal
// rather than a division.
func startsRegex(prev byte) bool {
	return prev == 0 || strings.IndexByte(":,[(=!&|?{;", prev) >= 0
}

// regexEnd returns the offset just past the regex literal starting at the
// '/' at start. A literal cut off by a newline or the end of input ends there.
func regexEnd(s string, start int) int {
	inClass := false
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				return i + 1
			}
		case '\n':
			return i
		}
	}
	return len(s)
}
