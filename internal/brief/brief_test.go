package brief

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBrief() Brief {
	return Brief{
		ClientName:  "Asha Rao",
		CompanyName: "Rao Textiles",
		Service:     "Website Development",
		Scope: Scope{
			Objectives: []string{"Generate leads", "Sell products online"},
			Features:   []string{"Contact form"},
			BuildType:  "Custom coded build",
		},
		Requirements: []string{"Mobile friendly"},
		Timeline:     "2 months",
	}
}

func TestMerge_ScalarUpdateWinsWhenSet(t *testing.T) {
	out := Merge(sampleBrief(), Brief{Timeline: "  6 weeks  ", CompanyName: "   "})
	assert.Equal(t, "6 weeks", out.Timeline)
	assert.Equal(t, "Rao Textiles", out.CompanyName, "blank update must not clear a set scalar")
}

func TestMerge_NeverRegressesToEmpty(t *testing.T) {
	base := sampleBrief()
	out := Merge(base, Brief{})
	assert.Equal(t, Normalize(base), out)

	out = Merge(base, Brief{Contact: Contact{Email: ""}, Scope: Scope{BuildType: "\t"}})
	assert.Equal(t, "Custom coded build", out.Scope.BuildType)
}

func TestMerge_ListUnionPreservesOrderAndDedupes(t *testing.T) {
	out := Merge(sampleBrief(), Brief{Scope: Scope{
		Objectives: []string{"sell products ONLINE", "Build brand awareness", " ", "Generate  leads"},
	}})
	assert.Equal(t, []string{"Generate leads", "Sell products online", "Build brand awareness"}, out.Scope.Objectives)
}

func TestMerge_NestedContactFieldByField(t *testing.T) {
	base := Brief{Contact: Contact{Email: "a@example.com"}}
	out := Merge(base, Brief{Contact: Contact{Phone: "+91 98765 43210"}})
	assert.Equal(t, Contact{Email: "a@example.com", Phone: "+91 98765 43210"}, out.Contact)
}

func TestMerge_Idempotent(t *testing.T) {
	updates := []Brief{
		{},
		{Timeline: "ASAP"},
		{Scope: Scope{Features: []string{"Blog", "blog", "Search"}}},
		{Budget: "2 lakh", BudgetAmount: 200000, Contact: Contact{Email: "x@y.io"}},
		{Requirements: []string{" mobile friendly ", "SEO"}, Notes: "call after 5pm"},
	}
	for _, u := range updates {
		once := Merge(sampleBrief(), u)
		twice := Merge(once, u)
		assert.Equal(t, once, twice)
	}
}

func TestMerge_DoesNotAliasInputs(t *testing.T) {
	base := sampleBrief()
	update := Brief{Scope: Scope{Features: []string{"Blog"}}}
	out := Merge(base, update)
	out.Scope.Features[0] = "changed"
	out.Scope.Objectives[0] = "changed"

	assert.Equal(t, "Contact form", base.Scope.Features[0])
	assert.Equal(t, "Generate leads", base.Scope.Objectives[0])
	assert.Equal(t, "Blog", update.Scope.Features[0])
}

func TestMerge_BudgetAmount(t *testing.T) {
	out := Merge(Brief{BudgetAmount: 50000}, Brief{})
	assert.Equal(t, int64(50000), out.BudgetAmount)
	out = Merge(out, Brief{BudgetAmount: 75000})
	assert.Equal(t, int64(75000), out.BudgetAmount)
}

func TestNormalize(t *testing.T) {
	b := Normalize(Brief{ClientName: "  Ravi ", Preferences: []string{"", "Dark mode", "dark MODE"}})
	assert.Equal(t, "Ravi", b.ClientName)
	assert.Equal(t, []string{"Dark mode"}, b.Preferences)
	assert.Nil(t, b.Constraints)
}

func TestClone_IsDeep(t *testing.T) {
	b := sampleBrief()
	c := Clone(b)
	c.Requirements[0] = "changed"
	c.Scope.Objectives = append(c.Scope.Objectives[:0], "x")
	assert.Equal(t, "Mobile friendly", b.Requirements[0])
	assert.Equal(t, "Generate leads", b.Scope.Objectives[0])
}

func TestSummary(t *testing.T) {
	b := sampleBrief()
	b.Budget = "2 lakh"
	b.BudgetAmount = 200000
	s := b.Summary()
	assert.Contains(t, s, "**Client:** Asha Rao")
	assert.Contains(t, s, "Generate leads, Sell products online")
	assert.Contains(t, s, "2 lakh (≈ 200,000)")
	assert.NotContains(t, s, "Hosting")
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, New("Website Development").IsEmpty())
	assert.True(t, Brief{Service: "SEO", Requirements: []string{" "}}.IsEmpty())
	assert.False(t, Brief{Timeline: "soon"}.IsEmpty())
}

func TestJSONShape(t *testing.T) {
	raw, err := json.Marshal(Brief{ClientName: "Asha", Scope: Scope{Platform: "Shopify"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"clientName":"Asha","scope":{"platform":"Shopify"},"contact":{}}`, string(raw))
}
