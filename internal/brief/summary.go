package brief

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/dustin/go-humanize"
)

// Summary renders the set fields of b as a markdown bullet list, in the
// order a proposal writer would read them. Unset fields are omitted.
func (b Brief) Summary() string {
	var sb strings.Builder
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&sb, "- **%s:** %s\n", label, value)
		}
	}
	list := func(label string, items []string) {
		if len(items) > 0 {
			line(label, strings.Join(items, ", "))
		}
	}

	line("Service", b.Service)
	line("Client", b.ClientName)
	line("Company", b.CompanyName)
	line("Company background", b.CompanyBackground)
	line("Website requirement", b.Scope.WebsiteRequirement)
	list("Objectives", b.Scope.Objectives)
	line("Website type", b.Scope.WebsiteType)
	line("Design preference", b.Scope.DesignPreference)
	line("Build type", b.Scope.BuildType)
	line("Platform", b.Scope.Platform)
	line("Framework", b.Scope.Framework)
	line("Backend", b.Scope.Backend)
	line("Database", b.Scope.Database)
	line("Hosting", b.Scope.Hosting)
	line("Pages", b.Scope.PageCount)
	list("Features", b.Scope.Features)
	list("Deliverables", b.Scope.Deliverables)
	list("Requirements", b.Requirements)
	list("Preferences", b.Preferences)
	list("Constraints", b.Constraints)
	line("Timeline", b.Timeline)
	switch {
	case b.BudgetAmount > 0 && b.Budget != "":
		line("Budget", fmt.Sprintf("%s (≈ %s)", b.Budget, humanize.Comma(b.BudgetAmount)))
	case b.BudgetAmount > 0:
		line("Budget", humanize.Comma(b.BudgetAmount))
	default:
		line("Budget", b.Budget)
	}
	line("Email", b.Contact.Email)
	line("Phone", b.Contact.Phone)
	line("Notes", b.Notes)
	return sb.String()
}

// IsEmpty reports whether nothing beyond the service label has been captured.
func (b Brief) IsEmpty() bool {
	return reflect.DeepEqual(Normalize(b), New(b.Service))
}
