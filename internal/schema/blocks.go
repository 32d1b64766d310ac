package schema

import (
	"regexp"
	"strings"
)

// new Schema({ / new mongoose.Schema<IUser>({
var blockPattern = regexp.MustCompile(`new\s+(?:mongoose\.)?Schema\s*(?:<[^>]*>)?\s*\(\s*\{`)

// schemaBlock is one balanced object literal passed to a schema constructor.
type schemaBlock struct {
	start int    // offset of the `new` keyword
	text  string // object literal including the outer braces
}

// findSchemaBlocks returns every balanced schema object literal in content.
// Blocks whose braces never balance are dropped.
func findSchemaBlocks(content string) []schemaBlock {
	locs := blockPattern.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		return nil
	}

	closes := matchBraces(content)
	var blocks []schemaBlock
	for _, loc := range locs {
		open := loc[1] - 1 // the pattern ends on the opening brace
		end, ok := closes[open]
		if !ok {
			continue
		}
		blocks = append(blocks, schemaBlock{
			start: loc[0],
			text:  content[open : end+1],
		})
	}

	return blocks
}

// matchBraces maps the offset of every balanced '{' in content to the offset
// of its closing '}'. Braces that never close are absent. Stray '}' with no
// open brace are ignored.
func matchBraces(content string) map[int]int {
	closes := make(map[int]int)
	var stack []int
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '{':
			stack = append(stack, i)
		case '}':
			if len(stack) == 0 {
				continue
			}
			closes[stack[len(stack)-1]] = i
			stack = stack[:len(stack)-1]
		}
	}
	return closes
}

// splitTopLevel splits s on commas that are not nested inside (), [] or {}.
// Entries are trimmed and empty entries dropped.
func splitTopLevel(s string) []string {
	var entries []string
	depth := 0
	last := 0

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			depth--
		case ',':
			if depth == 0 {
				entries = appendEntry(entries, s[last:i])
				last = i + 1
			}
		}
	}
	return appendEntry(entries, s[last:])
}

func appendEntry(entries []string, raw string) []string {
	if entry := strings.TrimSpace(raw); entry != "" {
		return append(entries, entry)
	}
	return entries
}

// shallow returns obj with the contents of nested object literals removed,
// keeping only text at the outermost brace level.
func shallow(obj string) string {
	out := make([]byte, 0, len(obj))
	depth := 0
	for i := 0; i < len(obj); i++ {
		c := obj[i]
		switch c {
		case '{':
			depth++
			if depth > 1 {
				continue
			}
		case '}':
			depth--
			if depth > 0 {
				continue
			}
		default:
			if depth > 1 {
				continue
			}
		}
		out = append(out, c)
	}
	return string(out)
}
