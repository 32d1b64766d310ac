package plans

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test Plan for plans:
// - Known plans resolve case-insensitively; unknown names fall back to free
// - Daily and repository limits are enforced, Unlimited never is
// - All lists plans by price

func TestGet(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Pro, Get("PRO").ID)
	assert.Equal(t, Business, Get(" business ").ID)
	assert.Equal(t, Free, Get("enterprise").ID)
	assert.Equal(t, Free, Get("").ID)

	_, ok := Lookup("enterprise")
	assert.False(t, ok)
}

func TestPlan_Limits(t *testing.T) {
	t.Parallel()

	free := Get("free")
	assert.True(t, free.AllowsDiagram(0))
	assert.False(t, free.AllowsDiagram(1))
	assert.True(t, free.AllowsRepository(0))
	assert.False(t, free.AllowsRepository(1))

	pro := Get("pro")
	assert.True(t, pro.AllowsDiagram(19))
	assert.False(t, pro.AllowsDiagram(20))

	business := Get("business")
	assert.True(t, business.AllowsDiagram(1_000_000))
	assert.True(t, business.AllowsRepository(1_000_000))
}

func TestAll(t *testing.T) {
	t.Parallel()

	all := All()
	assert.Len(t, all, 3)
	assert.Equal(t, []ID{Free, Pro, Business}, []ID{all[0].ID, all[1].ID, all[2].ID})
}
