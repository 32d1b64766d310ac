// Package schema infers document-schema models (Mongoose style) from raw
// JavaScript/TypeScript source text.
//
// The extraction is heuristic: schema blocks are located with regular
// expressions and a brace-depth scanner rather than a language grammar, so
// arbitrary or malformed surrounding code never causes a failure. The worst
// outcome for any file or block is that it contributes no models.
package schema

import "strings"

// TypeTag is the normalized type of a schema field.
type TypeTag string

const (
	TypeString     TypeTag = "String"
	TypeNumber     TypeTag = "Number"
	TypeBoolean    TypeTag = "Boolean"
	TypeDate       TypeTag = "Date"
	TypeBuffer     TypeTag = "Buffer"
	TypeObjectID   TypeTag = "ObjectId"
	TypeMixed      TypeTag = "Mixed"
	TypeMap        TypeTag = "Map"
	TypeDecimal128 TypeTag = "Decimal128"
	TypeUUID       TypeTag = "UUID"
	TypeBigInt     TypeTag = "BigInt"
)

var knownTypes = map[string]TypeTag{
	"String":     TypeString,
	"Number":     TypeNumber,
	"Boolean":    TypeBoolean,
	"Date":       TypeDate,
	"Buffer":     TypeBuffer,
	"ObjectId":   TypeObjectID,
	"Mixed":      TypeMixed,
	"Map":        TypeMap,
	"Decimal128": TypeDecimal128,
	"UUID":       TypeUUID,
	"BigInt":     TypeBigInt,
}

// SourceFile is one input unit: a repository-relative path and its text.
type SourceFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Field is one named attribute of a Model.
type Field struct {
	Name         string   `json:"name"`
	Type         TypeTag  `json:"type"`
	Required     bool     `json:"required"`
	IsArray      bool     `json:"isArray"`
	Ref          string   `json:"ref,omitempty"`          // Target model name, empty when not a relationship
	DefaultValue *string  `json:"defaultValue,omitempty"` // nil when no default was declared
	EnumValues   []string `json:"enumValues,omitempty"`
}

// HasRef reports whether the field points at another model.
func (f Field) HasRef() bool {
	return f.Ref != ""
}

// Model is a named entity reconstructed from one schema block.
type Model struct {
	Name     string  `json:"name"`
	FilePath string  `json:"filePath"`
	Fields   []Field `json:"fields"`
}

// ParseTypeTag resolves a raw type spelling such as "String",
// "Schema.Types.ObjectId" or "mongoose.Schema.Types.Mixed".
// The boolean is false for unrecognized spellings, in which case TypeMixed is returned.
func ParseTypeTag(raw string) (TypeTag, bool) {
	if tag, ok := knownTypes[normalizeType(strings.TrimSpace(raw))]; ok {
		return tag, true
	}
	return TypeMixed, false
}

// IsKnownType reports whether raw names one of the recognized types.
func IsKnownType(raw string) bool {
	_, ok := ParseTypeTag(raw)
	return ok
}

// normalizeType strips namespace prefixes: Schema.Types.ObjectId -> ObjectId.
func normalizeType(raw string) string {
	s := strings.ReplaceAll(raw, "Schema.Types.", "")
	s = strings.ReplaceAll(s, "Schema.", "")
	s = strings.ReplaceAll(s, "mongoose.", "")
	// mongoose.Types.ObjectId
	return strings.TrimPrefix(s, "Types.")
}
