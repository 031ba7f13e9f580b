// Package brief holds the structured project brief assembled during an
// intake conversation, together with its merge and normalization rules.
//
// Scalar fields are either "" (unset) or trimmed non-empty text. List fields
// hold trimmed, non-empty items, deduplicated case-insensitively in
// first-seen order. Merge preserves both invariants and never regresses a set
// scalar back to empty.
package brief

import (
	"strings"
)

// Contact holds the client's contact details.
type Contact struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Scope groups the service-specific requirements.
type Scope struct {
	WebsiteRequirement string   `json:"websiteRequirement,omitempty"`
	Objectives         []string `json:"objectives,omitempty"`
	WebsiteType        string   `json:"websiteType,omitempty"`
	DesignPreference   string   `json:"designPreference,omitempty"`
	BuildType          string   `json:"buildType,omitempty"`
	Platform           string   `json:"platform,omitempty"`
	Framework          string   `json:"framework,omitempty"`
	Backend            string   `json:"backend,omitempty"`
	Database           string   `json:"database,omitempty"`
	Hosting            string   `json:"hosting,omitempty"`
	PageCount          string   `json:"pageCount,omitempty"`
	Features           []string `json:"features,omitempty"`
	Deliverables       []string `json:"deliverables,omitempty"`
}

// Brief is the canonical structured project brief.
type Brief struct {
	ClientName        string   `json:"clientName,omitempty"`
	CompanyName       string   `json:"companyName,omitempty"`
	CompanyBackground string   `json:"companyBackground,omitempty"`
	Service           string   `json:"service,omitempty"`
	Scope             Scope    `json:"scope"`
	Requirements      []string `json:"requirements,omitempty"`
	Preferences       []string `json:"preferences,omitempty"`
	Constraints       []string `json:"constraints,omitempty"`
	Timeline          string   `json:"timeline,omitempty"`
	Budget            string   `json:"budget,omitempty"`
	BudgetAmount      int64    `json:"budgetAmount,omitempty"`
	Contact           Contact  `json:"contact"`
	Notes             string   `json:"notes,omitempty"`
}

// New returns an empty brief labelled with the service it is collected for.
func New(service string) Brief {
	return Brief{Service: strings.TrimSpace(service)}
}

// Merge returns base with update applied. Neither argument is modified and
// the result shares no slices with them.
func Merge(base, update Brief) Brief {
	out := Normalize(base)

	out.ClientName = mergeScalar(out.ClientName, update.ClientName)
	out.CompanyName = mergeScalar(out.CompanyName, update.CompanyName)
	out.CompanyBackground = mergeScalar(out.CompanyBackground, update.CompanyBackground)
	out.Service = mergeScalar(out.Service, update.Service)
	out.Scope = mergeScope(out.Scope, update.Scope)
	out.Requirements = mergeList(out.Requirements, update.Requirements)
	out.Preferences = mergeList(out.Preferences, update.Preferences)
	out.Constraints = mergeList(out.Constraints, update.Constraints)
	out.Timeline = mergeScalar(out.Timeline, update.Timeline)
	out.Budget = mergeScalar(out.Budget, update.Budget)
	if update.BudgetAmount > 0 {
		out.BudgetAmount = update.BudgetAmount
	}
	out.Contact = Contact{
		Email: mergeScalar(out.Contact.Email, update.Contact.Email),
		Phone: mergeScalar(out.Contact.Phone, update.Contact.Phone),
	}
	out.Notes = mergeScalar(out.Notes, update.Notes)
	return out
}

func mergeScope(base, update Scope) Scope {
	return Scope{
		WebsiteRequirement: mergeScalar(base.WebsiteRequirement, update.WebsiteRequirement),
		Objectives:         mergeList(base.Objectives, update.Objectives),
		WebsiteType:        mergeScalar(base.WebsiteType, update.WebsiteType),
		DesignPreference:   mergeScalar(base.DesignPreference, update.DesignPreference),
		BuildType:          mergeScalar(base.BuildType, update.BuildType),
		Platform:           mergeScalar(base.Platform, update.Platform),
		Framework:          mergeScalar(base.Framework, update.Framework),
		Backend:            mergeScalar(base.Backend, update.Backend),
		Database:           mergeScalar(base.Database, update.Database),
		Hosting:            mergeScalar(base.Hosting, update.Hosting),
		PageCount:          mergeScalar(base.PageCount, update.PageCount),
		Features:           mergeList(base.Features, update.Features),
		Deliverables:       mergeList(base.Deliverables, update.Deliverables),
	}
}

// Normalize trims every scalar and rebuilds every list so the brief
// satisfies the package invariants.
func Normalize(b Brief) Brief {
	return Brief{
		ClientName:        strings.TrimSpace(b.ClientName),
		CompanyName:       strings.TrimSpace(b.CompanyName),
		CompanyBackground: strings.TrimSpace(b.CompanyBackground),
		Service:           strings.TrimSpace(b.Service),
		Scope:             mergeScope(Scope{}, b.Scope),
		Requirements:      mergeList(nil, b.Requirements),
		Preferences:       mergeList(nil, b.Preferences),
		Constraints:       mergeList(nil, b.Constraints),
		Timeline:          strings.TrimSpace(b.Timeline),
		Budget:            strings.TrimSpace(b.Budget),
		BudgetAmount:      max(b.BudgetAmount, 0),
		Contact: Contact{
			Email: strings.TrimSpace(b.Contact.Email),
			Phone: strings.TrimSpace(b.Contact.Phone),
		},
		Notes: strings.TrimSpace(b.Notes),
	}
}

// Clone returns a deep copy of b.
func Clone(b Brief) Brief {
	out := b
	out.Scope.Objectives = cloneList(b.Scope.Objectives)
	out.Scope.Features = cloneList(b.Scope.Features)
	out.Scope.Deliverables = cloneList(b.Scope.Deliverables)
	out.Requirements = cloneList(b.Requirements)
	out.Preferences = cloneList(b.Preferences)
	out.Constraints = cloneList(b.Constraints)
	return out
}

func cloneList(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func mergeScalar(base, update string) string {
	if u := strings.TrimSpace(update); u != "" {
		return u
	}
	return strings.TrimSpace(base)
}

// mergeList unions base and update by case-insensitive key, keeping base's
// order and appending unseen update items.
func mergeList(base, update []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(base)+len(update))
	for _, src := range [][]string{base, update} {
		for _, item := range src {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			key := Key(item)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

// Key is the case-insensitive identity used to deduplicate list items.
func Key(item string) string {
	return strings.ToLower(strings.Join(strings.Fields(item), " "))
}
