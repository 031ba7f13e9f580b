package fields

import (
	"github.com/p-blackswan/intake-agent/internal/brief"
)

// rule is one row of the fixed precedence table.
type rule struct {
	id       string
	optional bool
	applies  func(b brief.Brief, service string) bool
}

func always(brief.Brief, string) bool { return true }

func websiteOnly(_ brief.Brief, service string) bool { return IsWebsiteService(service) }

func genericOnly(_ brief.Brief, service string) bool { return !IsWebsiteService(service) }

func platformBranch(b brief.Brief, service string) bool {
	return IsWebsiteService(service) && b.Scope.BuildType != "" && IsPlatformBuild(b.Scope.BuildType)
}

func codedBranch(b brief.Brief, service string) bool {
	return IsWebsiteService(service) && b.Scope.BuildType != "" && !IsPlatformBuild(b.Scope.BuildType)
}

// precedence is evaluated top to bottom: identity, service-specific fields,
// scope, timeline, budget.
var precedence = []rule{
	{id: FieldName, applies: always},
	{id: FieldCompanyName, applies: always},
	{id: FieldCompanyBackground, optional: true, applies: always},

	{id: FieldWebsiteRequirement, applies: websiteOnly},
	{id: FieldObjectives, applies: websiteOnly},
	{id: FieldWebsiteType, applies: websiteOnly},
	{id: FieldDesignPreference, applies: websiteOnly},
	{id: FieldBuildType, applies: websiteOnly},
	{id: FieldPlatform, applies: platformBranch},
	{id: FieldFramework, applies: codedBranch},
	{id: FieldBackend, applies: codedBranch},
	{id: FieldDatabase, applies: codedBranch},
	{id: FieldHosting, applies: codedBranch},
	{id: FieldPageCount, applies: websiteOnly},
	{id: FieldFeatures, applies: websiteOnly},

	{id: FieldRequirements, applies: genericOnly},

	{id: FieldTimeline, applies: always},
	{id: FieldBudget, applies: always},
}

// Resolution is the outcome of resolving a brief snapshot.
type Resolution struct {
	// Missing lists every unset field in precedence order.
	Missing []Descriptor
	// Next is the next field the local engine must ask for, or nil when
	// there is none or a remote-handled field is still unset.
	Next *Descriptor
	// AwaitingRemote lists the remote-handled fields still unset.
	AwaitingRemote []string
}

// Complete reports whether every required field is set.
func (r Resolution) Complete() bool {
	for _, d := range r.Missing {
		if !d.Optional {
			return false
		}
	}
	return true
}

// DeferToRemote reports whether control belongs to the remote assistant
// because a remote-handled field is unset.
func (r Resolution) DeferToRemote() bool { return len(r.AwaitingRemote) > 0 }

// Resolver computes the missing fields of a brief.
type Resolver struct {
	catalog *Catalog
}

// NewResolver creates a resolver asking questions from catalog. A nil
// catalog selects the built-in one.
func NewResolver(catalog *Catalog) *Resolver {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Resolver{catalog: catalog}
}

// Catalog returns the catalog the resolver builds descriptors from.
func (r *Resolver) Catalog() *Catalog { return r.catalog }

// Descriptor returns the descriptor for id.
func (r *Resolver) Descriptor(id string) Descriptor { return r.catalog.Descriptor(id) }

// Resolve evaluates the precedence table against b. service falls back to
// b.Service when empty.
func (r *Resolver) Resolve(b brief.Brief, service string) Resolution {
	if service == "" {
		service = b.Service
	}
	var res Resolution
	for _, row := range precedence {
		if !row.applies(b, service) || IsSet(b, row.id) {
			continue
		}
		d := r.catalog.Descriptor(row.id)
		d.Optional = row.optional
		res.Missing = append(res.Missing, d)
		if d.RemoteHandled {
			res.AwaitingRemote = append(res.AwaitingRemote, d.ID)
		}
	}
	if res.DeferToRemote() {
		return res
	}
	for i := range res.Missing {
		if !res.Missing[i].Optional {
			next := res.Missing[i]
			res.Next = &next
			break
		}
	}
	return res
}
