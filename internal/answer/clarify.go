package answer

import (
	"fmt"
	"strings"

	"github.com/p-blackswan/intake-agent/internal/fields"
)

var reasonLead = map[Reason]string{
	ReasonEmpty:          "I didn't catch an answer there.",
	ReasonTooShort:       "Could you give me a little more detail?",
	ReasonLowSignal:      "Sorry, that doesn't look like something I can use.",
	ReasonNoNumber:       "I couldn't find an amount in that. A rough figure such as 50k or 2 lakh is fine.",
	ReasonNoOption:       "That doesn't match any of the options.",
	ReasonInvalidName:    "That doesn't look like a name. Please use letters only.",
	ReasonInvalidCompany: "That doesn't look like a company name.",
}

// Prompt renders the question for d with its numbered options.
func Prompt(d fields.Descriptor) string {
	var sb strings.Builder
	sb.WriteString(d.Question)
	if d.HasOptions() {
		sb.WriteString("\n")
		for i, opt := range d.Options {
			fmt.Fprintf(&sb, "\n%d. %s", i+1, opt)
		}
		if d.IsMultiSelect() {
			sb.WriteString("\n\nYou can choose several, e.g. \"1, 3\", \"1-3\" or \"all\".")
		}
		if d.AllowCustom {
			sb.WriteString("\n\nYou can also type your own answer.")
		}
	}
	return sb.String()
}

// Clarify builds the re-prompt shown when an answer for d is rejected.
func Clarify(d fields.Descriptor, reason Reason) string {
	lead, ok := reasonLead[reason]
	if !ok {
		lead = reasonLead[ReasonLowSignal]
	}
	return lead + "\n\n" + Prompt(d)
}
