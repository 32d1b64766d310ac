package schema

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-openapi/inflect"
)

// SchemaToken must appear in a file for it to be considered at all.
const SchemaToken = "Schema"

var (
	probePattern    = regexp.MustCompile(`new\s+(?:mongoose\.)?Schema\s*(?:<[^>]*>)?\s*\(`)
	schemaSuffix    = regexp.MustCompile(`(?i)schema$`)
	sourceExtension = regexp.MustCompile(`\.(ts|js|tsx|jsx|mjs|cjs)$`)
)

// HasSchemaContent is a cheap probe for a schema construction call.
// It is used to filter low-confidence files before full parsing.
func HasSchemaContent(content string) bool {
	if !strings.Contains(content, SchemaToken) {
		return false
	}
	return probePattern.MatchString(content)
}

// ParseFile extracts the models declared in a single file. Model names are
// not deduplicated; see NameRegistry. Safe for concurrent use.
func ParseFile(file SourceFile) []Model {
	if !strings.Contains(file.Content, SchemaToken) {
		return nil
	}

	blocks := findSchemaBlocks(file.Content)
	if len(blocks) == 0 {
		return nil
	}
	decls := findModelDeclarations(file.Content)

	var models []Model
	for _, block := range blocks {
		fields := parseFields(block.text)
		if len(fields) == 0 {
			continue
		}
		models = append(models, Model{
			Name:     resolveModelName(file.Content, block.start, decls, file.Path),
			FilePath: file.Path,
			Fields:   fields,
		})
	}
	return models
}

// Extract parses files in order and merges the results into one collection
// with unique model names.
func Extract(files []SourceFile) []Model {
	registry := NewNameRegistry()
	models := []Model{}
	for _, file := range files {
		models = append(models, registry.Merge(ParseFile(file))...)
	}
	return models
}

// resolveModelName picks a name for the block starting at blockStart:
// an explicit model registration for its variable, else the variable name
// without its "Schema" suffix, else the file name.
func resolveModelName(content string, blockStart int, decls map[string]string, filePath string) string {
	variable := findBindingVar(content, blockStart)

	if name, ok := decls[variable]; ok && variable != "" {
		return name
	}

	if variable != "" {
		if stem := schemaSuffix.ReplaceAllString(variable, ""); stem != "" {
			return capitalize(stem)
		}
	}

	return capitalize(sourceExtension.ReplaceAllString(path.Base(filePath), ""))
}

func capitalize(s string) string {
	if s == "" || s == "." || s == "/" {
		return ""
	}
	if s[0] >= utf8.RuneSelf {
		r, size := utf8.DecodeRuneInString(s)
		return string(unicode.ToUpper(r)) + s[size:]
	}
	return inflect.Capitalize(s)
}

// NameRegistry hands out model names that are unique within one extraction run.
// It is not safe for concurrent use; merge per-file results sequentially in
// file order to keep suffixes deterministic.
type NameRegistry struct {
	seen map[string]struct{}
}

// NewNameRegistry returns an empty registry.
func NewNameRegistry() *NameRegistry {
	return &NameRegistry{seen: make(map[string]struct{})}
}

// Claim reserves a unique name. The first claim of a name keeps it; later
// claims are suffixed with "_<file base name>" and, if that is also taken,
// a running counter.
func (r *NameRegistry) Claim(name, filePath string) string {
	unique := name
	if r.taken(unique) {
		unique = name + "_" + path.Base(filePath)
		for n := 2; r.taken(unique); n++ {
			unique = fmt.Sprintf("%s_%s_%d", name, path.Base(filePath), n)
		}
	}
	r.seen[unique] = struct{}{}
	return unique
}

// Merge renames models in place order so that every name is unique across
// everything merged into r so far.
func (r *NameRegistry) Merge(models []Model) []Model {
	for i := range models {
		models[i].Name = r.Claim(models[i].Name, models[i].FilePath)
	}
	return models
}

// Len returns the number of names claimed.
func (r *NameRegistry) Len() int {
	return len(r.seen)
}

func (r *NameRegistry) taken(name string) bool {
	_, ok := r.seen[name]
	return ok
}
