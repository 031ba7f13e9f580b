package conversation

import (
	"regexp"
	"strings"

	"github.com/p-blackswan/intake-agent/internal/answer"
	"github.com/p-blackswan/intake-agent/internal/brief"
	"github.com/p-blackswan/intake-agent/internal/fields"
)

// Route maps a reply to a brief field when no field is pending, based on
// what the previous assistant message asked about.
type Route struct {
	Field string
	// Match inspects the previous assistant message.
	Match func(prev string) bool
	// Extract turns the reply into a field value; ok is false when the
	// reply does not answer the question.
	Extract func(d fields.Descriptor, text string) (fields.Value, bool)
	// KeepExisting skips the route when the field is already set.
	KeepExisting bool
}

func phrases(pattern string) func(string) bool {
	re := regexp.MustCompile(`(?i)` + pattern)
	return re.MatchString
}

// parsed accepts whatever the field's own parser accepts.
func parsed(d fields.Descriptor, text string) (fields.Value, bool) {
	res := answer.Parse(d, text)
	return res.Value, res.Accepted
}

var greetingPattern = regexp.MustCompile(`(?i)^\s*(hi|hello|hey|hiya|good (morning|afternoon|evening)|thanks|thank you|yes|no|ok|okay|sure)\b`)

// identity accepts short replies that read like a name rather than a
// sentence or a greeting.
func identity(d fields.Descriptor, text string) (fields.Value, bool) {
	if greetingPattern.MatchString(text) || strings.ContainsAny(text, "?") {
		return fields.Value{}, false
	}
	v, ok := parsed(d, text)
	if !ok || len(strings.Fields(v.Text)) > 4 {
		return fields.Value{}, false
	}
	return v, true
}

// DefaultRoutes is evaluated in order; the first matching row wins. More
// specific phrasings come first (company name before name, background
// before company).
var DefaultRoutes = []Route{
	{Field: fields.FieldBudget, Match: phrases(`\bbudget\b|\bhow much\b.{0,30}\b(spend|invest)\b|\bprice range\b`), Extract: parsed},
	{Field: fields.FieldTimeline, Match: phrases(`\btimeline\b|\blaunch\b|\bdeadline\b|\bgo live\b|\bwhen (do|would) you (need|like|want)\b`), Extract: parsed},
	{Field: fields.FieldPlatform, Match: phrases(`\bplatform\b|\bwordpress\b|\bshopify\b|\bwebflow\b|\bcms\b`), Extract: parsed},
	{Field: fields.FieldFramework, Match: phrases(`\bframework\b|\bfront-?end\b|\breact\b`), Extract: parsed},
	{Field: fields.FieldBackend, Match: phrases(`\bback-?end\b|\bserver-side\b|\bapi layer\b`), Extract: parsed},
	{Field: fields.FieldDatabase, Match: phrases(`\bdatabase\b|\bdata storage\b|\bpostgres|\bmysql\b|\bmongo`), Extract: parsed},
	{Field: fields.FieldHosting, Match: phrases(`\bhosting\b|\bhosted\b|\bdeploy(ment)?\b`), Extract: parsed},
	{Field: fields.FieldFeatures, Match: phrases(`\bfeatures?\b|\bfunctionalit(y|ies)\b|\bintegrations?\b`), Extract: parsed},
	{Field: fields.FieldDeliverables, Match: phrases(`\bdeliverables?\b|\bexpect (to receive|from us)\b`), Extract: parsed},
	{Field: fields.FieldObjectives, Match: phrases(`\bobjectives?\b|\bgoals?\b|\bachieve\b|\bpurpose\b`), Extract: parsed},
	{Field: fields.FieldCompanyBackground, Match: phrases(`\babout your (company|business|brand)\b|\bwhat (does|do) your (company|business)\b|\bwhat you do\b|\byour (industry|customers)\b`), Extract: parsed, KeepExisting: true},
	{Field: fields.FieldCompanyName, Match: phrases(`\b(company|business|brand|organi[sz]ation)('s)? name\b|\bname of (your|the) (company|business|brand|organi[sz]ation)\b|\b(company|business|brand) (is )?called\b|\bwhich company\b`), Extract: identity, KeepExisting: true},
	{Field: fields.FieldName, Match: phrases(`\byour (full )?name\b|\bwho am i (speaking|talking|chatting) (to|with)\b|\bwhat should i call you\b|\bcall you\b`), Extract: identity, KeepExisting: true},
}

// route finds the context update implied by prev for text.
func (e *Engine) route(b brief.Brief, prev, text string) (brief.Brief, string, bool) {
	if prev == "" {
		return brief.Brief{}, "", false
	}
	for _, r := range e.routes {
		if !r.Match(prev) {
			continue
		}
		if r.KeepExisting && fields.IsSet(b, r.Field) {
			return brief.Brief{}, "", false
		}
		v, ok := r.Extract(e.resolver.Descriptor(r.Field), text)
		if !ok {
			return brief.Brief{}, "", false
		}
		update, ok := fields.Update(r.Field, v)
		return update, r.Field, ok
	}
	return brief.Brief{}, "", false
}

// opportunistic picks up contact details and self-introductions from any
// accepted message. Name and company are only filled when unset.
func opportunistic(b brief.Brief, text string) brief.Brief {
	update := brief.Brief{Contact: answer.ExtractContact(text)}
	name, company := answer.ExtractIntroduction(text)
	if b.ClientName == "" {
		update.ClientName = name
	}
	if b.CompanyName == "" {
		update.CompanyName = company
	}
	return update
}
