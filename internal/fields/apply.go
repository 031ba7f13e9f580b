package fields

import (
	"strings"

	"github.com/p-blackswan/intake-agent/internal/brief"
)

// IsSet reports whether the field id already holds a value in b.
func IsSet(b brief.Brief, id string) bool {
	switch id {
	case FieldName:
		return b.ClientName != ""
	case FieldCompanyName:
		return b.CompanyName != ""
	case FieldCompanyBackground:
		return b.CompanyBackground != ""
	case FieldWebsiteRequirement:
		return b.Scope.WebsiteRequirement != ""
	case FieldObjectives:
		return len(b.Scope.Objectives) > 0
	case FieldWebsiteType:
		return b.Scope.WebsiteType != ""
	case FieldDesignPreference:
		return b.Scope.DesignPreference != ""
	case FieldBuildType:
		return b.Scope.BuildType != ""
	case FieldPlatform:
		return b.Scope.Platform != ""
	case FieldFramework:
		return b.Scope.Framework != ""
	case FieldBackend:
		return b.Scope.Backend != ""
	case FieldDatabase:
		return b.Scope.Database != ""
	case FieldHosting:
		return b.Scope.Hosting != ""
	case FieldPageCount:
		return b.Scope.PageCount != ""
	case FieldFeatures:
		return len(b.Scope.Features) > 0
	case FieldDeliverables:
		return len(b.Scope.Deliverables) > 0
	case FieldRequirements:
		return len(b.Requirements) > 0
	case FieldTimeline:
		return b.Timeline != ""
	case FieldBudget:
		return b.Budget != "" || b.BudgetAmount > 0
	}
	return false
}

// Update converts an accepted value for field id into a partial brief
// suitable for brief.Merge. ok is false for unknown ids.
func Update(id string, v Value) (update brief.Brief, ok bool) {
	text := strings.TrimSpace(v.Text)
	if text == "" && len(v.Items) > 0 {
		text = strings.Join(v.Items, ", ")
	}
	items := v.Items
	if len(items) == 0 && text != "" {
		items = []string{text}
	}

	switch id {
	case FieldName:
		update.ClientName = text
	case FieldCompanyName:
		update.CompanyName = text
	case FieldCompanyBackground:
		update.CompanyBackground = text
	case FieldWebsiteRequirement:
		update.Scope.WebsiteRequirement = text
	case FieldObjectives:
		update.Scope.Objectives = items
	case FieldWebsiteType:
		update.Scope.WebsiteType = text
	case FieldDesignPreference:
		update.Scope.DesignPreference = text
	case FieldBuildType:
		update.Scope.BuildType = text
	case FieldPlatform:
		update.Scope.Platform = text
	case FieldFramework:
		update.Scope.Framework = text
	case FieldBackend:
		update.Scope.Backend = text
	case FieldDatabase:
		update.Scope.Database = text
	case FieldHosting:
		update.Scope.Hosting = text
	case FieldPageCount:
		update.Scope.PageCount = text
	case FieldFeatures:
		update.Scope.Features = items
	case FieldDeliverables:
		update.Scope.Deliverables = items
	case FieldRequirements:
		update.Requirements = items
	case FieldTimeline:
		update.Timeline = text
	case FieldBudget:
		update.Budget = text
		update.BudgetAmount = v.Amount
	default:
		return brief.Brief{}, false
	}
	return update, true
}
