package schema

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Extract / ParseFile:
// - Well-formed block parses to the expected fields (types, required, array, ref)
// - Unbalanced block yields no model and does not affect balanced blocks
// - Explicit model registration wins over variable-name convention
// - Variable name convention strips the "Schema" suffix and capitalizes
// - File name is the fallback when no binding exists
// - Multiple schemas per file are extracted in source order
// - Blocks without fields are discarded
// - Files without the schema token are skipped
// - Duplicate names across files get a "_<file>" suffix in file order
// - Unbalanced blocks cost time linear in the input size
// - Extraction is deterministic across runs
// - HasSchemaContent probe accepts constructor calls and rejects plain mentions

func TestParseFile_RoundTrip(t *testing.T) {
	t.Parallel()

	content := `const mongoose = require('mongoose');
const { Schema } = mongoose;

const petSchema = new Schema({name: {type: String, required: true}, age: Number, tags: [String], owner: {type: ObjectId, ref: 'User'}});
`
	models := ParseFile(SourceFile{Path: "models/pet.js", Content: content})
	require.Len(t, models, 1)

	m := models[0]
	assert.Equal(t, "Pet", m.Name)
	assert.Equal(t, "models/pet.js", m.FilePath)
	require.Len(t, m.Fields, 4)

	assert.Equal(t, Field{Name: "name", Type: TypeString, Required: true}, m.Fields[0])
	assert.Equal(t, Field{Name: "age", Type: TypeNumber}, m.Fields[1])
	assert.Equal(t, Field{Name: "tags", Type: TypeString, IsArray: true}, m.Fields[2])
	assert.Equal(t, Field{Name: "owner", Type: TypeObjectID, Ref: "User"}, m.Fields[3])
}

func TestParseFile_UnbalancedBlock(t *testing.T) {
	t.Parallel()

	models := ParseFile(SourceFile{Path: "broken.js", Content: "const s = new Schema({ foo: String"})
	assert.Empty(t, models)
}

func TestParseFile_UnbalancedBlockDoesNotAffectOthers(t *testing.T) {
	t.Parallel()

	content := `const userSchema = new Schema({ email: String });
const brokenSchema = new Schema({ foo: String`

	models := ParseFile(SourceFile{Path: "models/user.js", Content: content})
	require.Len(t, models, 1)
	assert.Equal(t, "User", models[0].Name)
}

func TestParseFile_RegistrationWinsOverConvention(t *testing.T) {
	t.Parallel()

	content := `const userSchema = new Schema({ email: String });
const User = mongoose.model('Account', userSchema);`

	models := ParseFile(SourceFile{Path: "models/user.js", Content: content})
	require.Len(t, models, 1)
	assert.Equal(t, "Account", models[0].Name)
}

func TestParseFile_NamingConventions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		content  string
		expected string
	}{
		{
			name:     "camel case schema suffix",
			path:     "models/a.js",
			content:  `const orderItemSchema = new Schema({ qty: Number });`,
			expected: "OrderItem",
		},
		{
			name:     "lower case suffix",
			path:     "models/a.js",
			content:  `let invoiceschema = new mongoose.Schema({ total: Number });`,
			expected: "Invoice",
		},
		{
			name:     "no suffix",
			path:     "models/a.js",
			content:  `var Product = new Schema({ sku: String });`,
			expected: "Product",
		},
		{
			name:     "export const",
			path:     "models/a.ts",
			content:  `export const CommentSchema = new Schema({ body: String });`,
			expected: "Comment",
		},
		{
			name:     "typescript annotation",
			path:     "models/a.ts",
			content:  `const PostSchema: Schema<IPost> = new Schema<IPost>({ title: String });`,
			expected: "Post",
		},
		{
			name:     "bare schema variable falls back to file",
			path:     "src/models/category.ts",
			content:  `const schema = new Schema({ label: String });`,
			expected: "Category",
		},
		{
			name:     "module.exports falls back to file",
			path:     "src/models/tag.mjs",
			content:  `module.exports = mongoose.model('x', new Schema({ label: String }));`,
			expected: "Tag",
		},
		{
			name:     "destructured model registration",
			path:     "models/a.ts",
			content:  "const s = new Schema({ a: String });\nexport default model<IThing>('Thing', s);",
			expected: "Thing",
		},
		{
			name:     "assignment form binds variable directly",
			path:     "models/a.js",
			content:  "const Person = new Schema({ a: String });\nconst Person2 = mongoose.model('Human', Person);",
			expected: "Human",
		},
		{
			name:     "non-ascii file name",
			path:     "models/élève.js",
			content:  `module.exports = new Schema({ nom: String });`,
			expected: "Élève",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			models := ParseFile(SourceFile{Path: tt.path, Content: tt.content})
			require.Len(t, models, 1)
			assert.Equal(t, tt.expected, models[0].Name)
		})
	}
}

func TestParseFile_MultipleSchemasInSourceOrder(t *testing.T) {
	t.Parallel()

	content := `
const addressSchema = new Schema({ street: String, city: String });
const customerSchema = new Schema({
  name: { type: String, required: [true, 'Name is required'] },
  addresses: [addressSchema],
  status: { type: String, enum: ['active', 'paused', 'done'], default: 'active' },
}, { timestamps: true });
const emptySchema = new Schema({});
mongoose.model('Customer', customerSchema);
`
	models := ParseFile(SourceFile{Path: "models/customer.js", Content: content})
	require.Len(t, models, 2)

	assert.Equal(t, "Address", models[0].Name)
	assert.Len(t, models[0].Fields, 2)

	customer := models[1]
	assert.Equal(t, "Customer", customer.Name)
	require.Len(t, customer.Fields, 3)
	assert.True(t, customer.Fields[0].Required)
	assert.Equal(t, "addresses", customer.Fields[1].Name)
	assert.True(t, customer.Fields[1].IsArray)
	assert.Equal(t, TypeMixed, customer.Fields[1].Type)
	assert.Equal(t, []string{"active", "paused", "done"}, customer.Fields[2].EnumValues)
	require.NotNil(t, customer.Fields[2].DefaultValue)
	assert.Equal(t, "active", *customer.Fields[2].DefaultValue)
}

func TestParseFile_SkipsFilesWithoutToken(t *testing.T) {
	t.Parallel()

	models := ParseFile(SourceFile{Path: "a.js", Content: "const x = { a: String };"})
	assert.Nil(t, models)
}

func TestParseFile_BlockOfOnlyJunkIsDiscarded(t *testing.T) {
	t.Parallel()

	content := `const s = new Schema({ ...base, [computed]: String });`
	models := ParseFile(SourceFile{Path: "models/junk.js", Content: content})
	assert.Empty(t, models)
}

func TestExtract_DeduplicatesAcrossFiles(t *testing.T) {
	t.Parallel()

	files := []SourceFile{
		{Path: "models/order.js", Content: `const orderSchema = new Schema({ total: Number });`},
		{Path: "legacy/order.ts", Content: `const OrderSchema = new Schema({ amount: Number });`},
		{Path: "src/other.js", Content: `const userSchema = new Schema({ email: String });`},
	}

	models := Extract(files)
	require.Len(t, models, 3)
	assert.Equal(t, "Order", models[0].Name)
	assert.Equal(t, "Order_order.ts", models[1].Name)
	assert.Equal(t, "User", models[2].Name)
}

func TestExtract_EmptyInput(t *testing.T) {
	t.Parallel()

	models := Extract(nil)
	assert.NotNil(t, models)
	assert.Empty(t, models)
}

func TestExtract_Deterministic(t *testing.T) {
	t.Parallel()

	files := []SourceFile{
		{Path: "a/item.js", Content: `const itemSchema = new Schema({ a: String }); const item2Schema = new Schema({ b: [{ type: ObjectId, ref: 'Item' }] });`},
		{Path: "b/item.js", Content: `const itemSchema = new Schema({ c: Boolean });`},
		{Path: "c/item.js", Content: `const itemSchema = new Schema({ d: Date });`},
	}

	first := Extract(files)
	second := Extract(files)
	assert.Equal(t, first, second)

	names := make([]string, 0, len(first))
	for _, m := range first {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"Item", "Item2", "Item_item.js", "Item_item.js_2"}, names)
}

// Not parallel: timing is compared across input sizes.
func TestExtract_UnbalancedBlocksScaleLinearly(t *testing.T) {
	elapsed := func(n int) time.Duration {
		files := []SourceFile{{Path: "x.js", Content: strings.Repeat("new Schema({ a: 1 ", n)}}
		best := time.Duration(1<<63 - 1)
		for i := 0; i < 3; i++ {
			start := time.Now()
			models := Extract(files)
			if d := time.Since(start); d < best {
				best = d
			}
			require.Empty(t, models)
		}
		return best
	}

	small := elapsed(20_000)
	large := elapsed(80_000)

	// Four times the input: linear growth is ~4x, quadratic ~16x.
	assert.Less(t, large, 10*small+100*time.Millisecond,
		"small=%s large=%s", small, large)
}

func TestHasSchemaContent(t *testing.T) {
	t.Parallel()

	assert.True(t, HasSchemaContent(`const s = new mongoose.Schema({})`))
	assert.True(t, HasSchemaContent(`const s = new Schema<IUser>({})`))
	assert.False(t, HasSchemaContent(`// Schema docs live elsewhere`))
	assert.False(t, HasSchemaContent(`const s = new schema({})`))
}
