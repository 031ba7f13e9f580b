// Package fields describes the brief fields an intake conversation must
// resolve, the catalog of questions used to ask for them, and the resolver
// that decides which field is asked next and by whom.
package fields

import (
	"slices"
	"strings"
)

// Field ids. They are stable: clients persist them as the pending field.
const (
	FieldName               = "name"
	FieldCompanyName        = "companyName"
	FieldCompanyBackground  = "companyBackground"
	FieldWebsiteRequirement = "websiteRequirement"
	FieldObjectives         = "objectives"
	FieldWebsiteType        = "websiteType"
	FieldDesignPreference   = "designPreference"
	FieldBuildType          = "buildType"
	FieldPlatform           = "platform"
	FieldFramework          = "framework"
	FieldBackend            = "backend"
	FieldDatabase           = "database"
	FieldHosting            = "hosting"
	FieldPageCount          = "pageCount"
	FieldFeatures           = "features"
	FieldDeliverables       = "deliverables"
	FieldRequirements       = "requirements"
	FieldTimeline           = "timeline"
	FieldBudget             = "budget"
)

// Kind selects the parsing and validation rules applied to an answer.
type Kind string

const (
	KindText    Kind = "text"
	KindSingle  Kind = "single"
	KindMulti   Kind = "multi"
	KindList    Kind = "list"
	KindBudget  Kind = "budget"
	KindName    Kind = "name"
	KindCompany Kind = "company"
)

// Descriptor identifies one unresolved brief field. Descriptors are derived
// from the brief on demand and never persisted, apart from the id of the
// field currently awaiting an answer.
type Descriptor struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options,omitempty"`
	AllowCustom   bool     `json:"allowCustom"`
	Kind          Kind     `json:"kind"`
	MinLength     int      `json:"minLength,omitempty"`
	RemoteHandled bool     `json:"remoteHandled,omitempty"`
	Optional      bool     `json:"optional,omitempty"`
}

// HasOptions reports whether the descriptor offers a numbered option list.
func (d Descriptor) HasOptions() bool { return len(d.Options) > 0 }

// IsMultiSelect reports whether several options may be chosen at once.
func (d Descriptor) IsMultiSelect() bool { return d.Kind == KindMulti }

// Value is an accepted, extracted answer for one field.
type Value struct {
	Text   string   `json:"text,omitempty"`
	Items  []string `json:"items,omitempty"`
	Amount int64    `json:"amount,omitempty"`
}

// remoteHandled is the fixed set of fields whose capture is left to the
// remote assistant.
var remoteHandled = []string{FieldName, FieldCompanyName}

// IsRemoteHandled reports whether id belongs to the remote-handled set.
func IsRemoteHandled(id string) bool {
	return slices.Contains(remoteHandled, id)
}

// IsWebsiteService reports whether service uses the website field branch.
func IsWebsiteService(service string) bool {
	s := strings.ToLower(service)
	return strings.Contains(s, "website") || strings.Contains(s, "web ") ||
		strings.HasPrefix(s, "web-") || s == "web"
}

// IsPlatformBuild reports whether a build-type answer selects a hosted
// website platform rather than a custom coded build.
func IsPlatformBuild(buildType string) bool {
	s := strings.ToLower(buildType)
	if strings.Contains(s, "custom") || strings.Contains(s, "code") {
		return false
	}
	for _, hint := range []string{"platform", "wordpress", "shopify", "webflow", "wix", "cms", "no-code", "squarespace"} {
		if strings.Contains(s, hint) {
			return true
		}
	}
	return false
}
