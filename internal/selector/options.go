package selector

// Default caps bound the number of remote content fetches per scan.
const (
	DefaultStrongCap = 30
	DefaultWeakCap   = 40
)

// Options configures a Selector. Patterns and substrings are matched against
// the lower-cased path.
type Options struct {
	Include     []string // glob patterns for eligible files
	StrongDirs  []string // directory fragments, e.g. "/models/"
	StrongNames []string // words in the file name, e.g. "schema"
	Exclude     []string // fragments that disqualify a path
	StrongCap   int
	WeakCap     int
}

// DefaultOptions returns the selector configuration for Mongoose projects.
func DefaultOptions() Options {
	return Options{
		Include: []string{
			"**/*.js",
			"**/*.ts",
			"**/*.mjs",
			"**/*.cjs",
		},
		StrongDirs: []string{
			"/models/",
			"/model/",
			"/schemas/",
			"/schema/",
			"/entities/",
			"/entity/",
			"/collections/",
			"/db/",
			"/database/",
		},
		StrongNames: []string{
			"model",
			"schema",
			"entity",
		},
		Exclude: []string{
			"node_modules",
			".test.",
			".spec.",
			"__tests__",
			"__mocks__",
			".d.ts",
			"migrations",
			"seeders",
			"dist/",
			"build/",
			".next/",
			".git/",
		},
		StrongCap: DefaultStrongCap,
		WeakCap:   DefaultWeakCap,
	}
}
