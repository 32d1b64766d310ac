package selector

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Selector:
// - Only file entries with allow-listed extensions are eligible (root files included)
// - Exclusion substrings drop tests, build output, dependencies, .d.ts and migrations
// - Model directories (including top-level ones) and model-like names are strong
// - Strong candidates come first, each tier in listing order
// - Caps bound both tiers; 1000 weak files yield at most the weak cap
// - Invalid include patterns are rejected by New

func newDefault(t *testing.T) *Selector {
	t.Helper()
	s, err := New(DefaultOptions())
	require.NoError(t, err)
	return s
}

func paths(cands []Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Path)
	}
	return out
}

func TestSelector_Allowed(t *testing.T) {
	t.Parallel()

	s := newDefault(t)

	assert.True(t, s.Allowed("server.js"))
	assert.True(t, s.Allowed("src/models/User.ts"))
	assert.True(t, s.Allowed("lib/db.mjs"))
	assert.True(t, s.Allowed("lib/db.cjs"))
	assert.True(t, s.Allowed("LIB/APP.JS"))
	assert.False(t, s.Allowed("src/App.tsx"))
	assert.False(t, s.Allowed("README.md"))
	assert.False(t, s.Allowed("src/models"))
}

func TestSelector_Excluded(t *testing.T) {
	t.Parallel()

	s := newDefault(t)

	for _, p := range []string{
		"node_modules/mongoose/lib/schema.js",
		"src/models/user.test.ts",
		"src/models/user.spec.js",
		"src/__tests__/models.js",
		"src/__mocks__/model.js",
		"types/models.d.ts",
		"db/migrations/001.js",
		"db/seeders/users.js",
		"dist/models/user.js",
		"packages/api/build/model.js",
		".next/server/model.js",
	} {
		assert.True(t, s.Excluded(p), p)
	}
	assert.False(t, s.Excluded("src/models/user.js"))
}

func TestSelector_IsStrong(t *testing.T) {
	t.Parallel()

	s := newDefault(t)

	strong := []string{
		"src/models/user.js",
		"models/user.js",
		"app/Schemas/Order.ts",
		"server/db/index.js",
		"lib/entity/Account.ts",
		"src/userModel.js",
		"src/order.schema.ts",
		"src/BaseEntity.js",
	}
	for _, p := range strong {
		assert.True(t, s.IsStrong(p), p)
	}

	weak := []string{
		"src/routes/users.js",
		"index.js",
		"src/modeling/x.js", // not a directory match and name lacks the word
	}
	for _, p := range weak {
		assert.False(t, s.IsStrong(p), p)
	}

	assert.False(t, s.IsStrong("src/models/user.test.js"))
}

func TestSelector_Select_OrderAndTiers(t *testing.T) {
	t.Parallel()

	s := newDefault(t)

	entries := []TreeEntry{
		{Path: "src", Type: EntryDir},
		{Path: "src/routes/users.js", Type: EntryFile, SHA: "a1"},
		{Path: "src/models/user.js", Type: EntryFile, SHA: "b2"},
		{Path: "README.md", Type: EntryFile},
		{Path: "src/app.ts", Type: EntryFile},
		{Path: "node_modules/x/model.js", Type: EntryFile},
		{Path: "src/models/post.js", Type: EntryFile},
		{Path: "src/models", Type: EntryDir},
	}

	sel := s.Select(entries)

	assert.Equal(t, []string{"src/models/user.js", "src/models/post.js"}, paths(sel.Strong))
	assert.Equal(t, []string{"src/routes/users.js", "src/app.ts"}, paths(sel.Weak))
	assert.Equal(t, []string{
		"src/models/user.js", "src/models/post.js", "src/routes/users.js", "src/app.ts",
	}, paths(sel.All()))

	assert.Equal(t, 4, sel.Eligible)
	assert.Equal(t, 1, sel.Excluded)
	assert.Equal(t, 0, sel.Overflow)
	assert.Equal(t, 4, sel.Len())

	assert.Equal(t, "b2", sel.Strong[0].SHA)
	assert.Equal(t, TierStrong, sel.Strong[0].Tier)
	assert.Equal(t, TierWeak, sel.Weak[0].Tier)
}

func TestSelector_Select_WeakCapBoundsFetches(t *testing.T) {
	t.Parallel()

	s := newDefault(t)

	entries := make([]TreeEntry, 0, 1000)
	for i := 0; i < 1000; i++ {
		entries = append(entries, TreeEntry{Path: fmt.Sprintf("src/routes/r%d.js", i), Type: EntryFile})
	}

	sel := s.Select(entries)
	assert.Empty(t, sel.Strong)
	assert.Len(t, sel.Weak, DefaultWeakCap)
	assert.Equal(t, 1000-DefaultWeakCap, sel.Overflow)
	assert.Equal(t, "src/routes/r0.js", sel.Weak[0].Path)
}

func TestSelector_Select_StrongCap(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.StrongCap = 2
	opts.WeakCap = 0
	s, err := New(opts)
	require.NoError(t, err)

	entries := []TreeEntry{
		{Path: "models/a.js", Type: EntryFile},
		{Path: "models/b.js", Type: EntryFile},
		{Path: "models/c.js", Type: EntryFile},
		{Path: "routes/d.js", Type: EntryFile},
	}

	sel := s.Select(entries)
	assert.Equal(t, []string{"models/a.js", "models/b.js"}, paths(sel.Strong))
	assert.Empty(t, sel.Weak)
	assert.Equal(t, 2, sel.Overflow)
}

func TestNew_InvalidPattern(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.Include = []string{"[unclosed"}

	_, err := New(opts)
	assert.Error(t, err)
}

func TestTier_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "strong", TierStrong.String())
	assert.Equal(t, "weak", TierWeak.String())
	assert.Equal(t, "tier(7)", Tier(7).String())
}
