package diagram

import "github.com/mvp-joe/schemagraph/internal/schema"

// Node is one model laid out in the diagram.
type Node struct {
	ID       string         `json:"id"`       // Model name, unique within a collection
	FilePath string         `json:"filePath"` // File the model was declared in
	Fields   []schema.Field `json:"fields"`
}

// Edge is a relationship from a ref field to the model it names.
type Edge struct {
	ID      string `json:"id"`      // "<model>-<field>-<ref>"
	Source  string `json:"source"`  // Model holding the field
	Target  string `json:"target"`  // Referenced model
	Field   string `json:"field"`   // Field carrying the ref
	IsArray bool   `json:"isArray"` // One-to-many when true
}

// UnresolvedRef is a ref naming a model that is not in the collection.
// It is not drawn.
type UnresolvedRef struct {
	Model string `json:"model"`
	Field string `json:"field"`
	Ref   string `json:"ref"`
}
