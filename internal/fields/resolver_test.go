package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/intake-agent/internal/brief"
)

const website = "Website Development"

func ids(ds []Descriptor) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.ID)
	}
	return out
}

func TestResolve_EmptyBriefDefersToRemote(t *testing.T) {
	r := NewResolver(nil)
	res := r.Resolve(brief.New(website), website)

	assert.Nil(t, res.Next)
	assert.True(t, res.DeferToRemote())
	assert.Equal(t, []string{FieldName, FieldCompanyName}, res.AwaitingRemote)
	assert.Equal(t, FieldName, res.Missing[0].ID)
	assert.True(t, res.Missing[0].RemoteHandled)
}

func TestResolve_NeverLocalWhileRemoteHandledMissing(t *testing.T) {
	r := NewResolver(nil)
	briefs := []brief.Brief{
		{ClientName: "Asha"},
		{CompanyName: "Rao Textiles"},
		{CompanyName: "Rao Textiles", Timeline: "soon", Scope: brief.Scope{WebsiteRequirement: "New website"}},
	}
	for _, b := range briefs {
		res := r.Resolve(b, website)
		assert.Nil(t, res.Next)
		assert.NotEmpty(t, res.AwaitingRemote)
	}
}

func TestResolve_WebsiteRequirementAfterIdentity(t *testing.T) {
	r := NewResolver(nil)
	b := brief.Brief{ClientName: "Asha", CompanyName: "Rao Textiles"}
	res := r.Resolve(b, website)

	require.NotNil(t, res.Next)
	assert.Equal(t, FieldWebsiteRequirement, res.Next.ID)
	assert.False(t, res.Next.RemoteHandled)
	assert.NotEmpty(t, res.Next.Options)

	missing := ids(res.Missing)
	assert.Equal(t, FieldCompanyBackground, missing[0], "background is listed but optional")
	assert.Less(t, indexOf(missing, FieldWebsiteRequirement), indexOf(missing, FieldTimeline))
	assert.Less(t, indexOf(missing, FieldTimeline), indexOf(missing, FieldBudget))
}

func indexOf(list []string, id string) int {
	for i, v := range list {
		if v == id {
			return i
		}
	}
	return -1
}

func TestResolve_BuildTypeBranch(t *testing.T) {
	r := NewResolver(nil)
	base := brief.Brief{
		ClientName:  "Asha",
		CompanyName: "Rao Textiles",
		Scope: brief.Scope{
			WebsiteRequirement: "New website",
			Objectives:         []string{"Generate leads"},
			WebsiteType:        "E-commerce",
			DesignPreference:   "Minimal and clean",
		},
	}

	res := r.Resolve(base, website)
	missing := ids(res.Missing)
	assert.NotContains(t, missing, FieldPlatform)
	assert.NotContains(t, missing, FieldFramework)
	assert.Equal(t, FieldBuildType, res.Next.ID)

	platform := base
	platform.Scope.BuildType = "Website platform (WordPress, Shopify, Webflow)"
	res = r.Resolve(platform, website)
	assert.Equal(t, FieldPlatform, res.Next.ID)
	assert.NotContains(t, ids(res.Missing), FieldHosting)

	coded := base
	coded.Scope.BuildType = "Custom coded build"
	res = r.Resolve(coded, website)
	assert.Equal(t, FieldFramework, res.Next.ID)
	missing = ids(res.Missing)
	assert.Subset(t, missing, []string{FieldBackend, FieldDatabase, FieldHosting})
	assert.NotContains(t, missing, FieldPlatform)
}

func TestResolve_GenericService(t *testing.T) {
	r := NewResolver(nil)
	b := brief.Brief{ClientName: "Asha", CompanyName: "Rao Textiles", Service: "SEO Audit"}
	res := r.Resolve(b, "")
	require.NotNil(t, res.Next)
	assert.Equal(t, FieldRequirements, res.Next.ID)
	assert.NotContains(t, ids(res.Missing), FieldWebsiteType)
}

func TestResolve_Complete(t *testing.T) {
	r := NewResolver(nil)
	b := brief.Brief{
		ClientName:   "Asha",
		CompanyName:  "Rao Textiles",
		Requirements: []string{"Keyword research"},
		Timeline:     "1 month",
		Budget:       "50k",
		BudgetAmount: 50000,
	}
	res := r.Resolve(b, "SEO Audit")
	assert.Nil(t, res.Next)
	assert.True(t, res.Complete(), "optional background does not block completion")
	assert.Equal(t, []string{FieldCompanyBackground}, ids(res.Missing))
}

func TestIsPlatformBuild(t *testing.T) {
	assert.True(t, IsPlatformBuild("Website platform (WordPress, Shopify, Webflow)"))
	assert.True(t, IsPlatformBuild("shopify please"))
	assert.False(t, IsPlatformBuild("Custom coded build"))
	assert.False(t, IsPlatformBuild("hand-written code"))
}

func TestIsWebsiteService(t *testing.T) {
	assert.True(t, IsWebsiteService("Website Development"))
	assert.True(t, IsWebsiteService("web"))
	assert.False(t, IsWebsiteService("Mobile App Development"))
}

func TestUpdate(t *testing.T) {
	u, ok := Update(FieldFeatures, Value{Items: []string{"Blog", "Search"}})
	require.True(t, ok)
	assert.Equal(t, []string{"Blog", "Search"}, u.Scope.Features)

	u, ok = Update(FieldBudget, Value{Text: "2 lakh", Amount: 200000})
	require.True(t, ok)
	assert.Equal(t, "2 lakh", u.Budget)
	assert.Equal(t, int64(200000), u.BudgetAmount)
	assert.True(t, IsSet(u, FieldBudget))

	u, ok = Update(FieldPlatform, Value{Items: []string{"Shopify"}})
	require.True(t, ok)
	assert.Equal(t, "Shopify", u.Scope.Platform)

	u, ok = Update(FieldRequirements, Value{Text: "Keyword research"})
	require.True(t, ok)
	assert.Equal(t, []string{"Keyword research"}, u.Requirements)

	_, ok = Update("unknown", Value{Text: "x"})
	assert.False(t, ok)
}
