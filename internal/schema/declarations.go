package schema

import "regexp"

var (
	// mongoose.model('Name', schemaVar) or model<IUser>('Name', schemaVar)
	registerPattern = regexp.MustCompile(
		`(?:mongoose\.)?model\s*(?:<[^>]+>)?\s*\(\s*['"]([^'"]+)['"]\s*,\s*(\w+)`)

	// const User = mongoose.model('Name', ...)
	assignPattern = regexp.MustCompile(
		`(?:const|let|var|export)\s+(\w+)\s*=\s*(?:mongoose\.)?model\s*(?:<[^>]+>)?\s*\(\s*['"]([^'"]+)['"]`)

	// Trailing `const userSchema =` (optionally with a TypeScript annotation)
	// immediately before a schema construction.
	bindingPattern = regexp.MustCompile(
		`(?:const|let|var|export\s+(?:const|let|var)?)\s+(\w+)(?:\s*:\s*[^=;{}()\n]+?)?\s*=\s*$`)
)

// bindingWindow bounds how far back from a schema block the binding variable is searched.
const bindingWindow = 200

// findModelDeclarations maps schema-holding identifiers to registered model names.
// Registration calls are indexed first, assignments second; within each pass
// later declarations overwrite earlier ones.
func findModelDeclarations(content string) map[string]string {
	decls := make(map[string]string)

	for _, m := range registerPattern.FindAllStringSubmatch(content, -1) {
		decls[m[2]] = m[1]
	}
	for _, m := range assignPattern.FindAllStringSubmatch(content, -1) {
		decls[m[1]] = m[2]
	}

	return decls
}

// findBindingVar returns the variable a schema block starting at blockStart is
// assigned to, or "" when no binding precedes it.
func findBindingVar(content string, blockStart int) string {
	from := blockStart - bindingWindow
	if from < 0 {
		from = 0
	}
	m := bindingPattern.FindStringSubmatch(content[from:blockStart])
	if m == nil {
		return ""
	}
	return m[1]
}
