// Package answer extracts and validates a user's reply to a pending brief
// field. Each field kind has its own rules; a rejected answer always comes
// with a clarification that repeats the question.
package answer

import (
	"strings"

	"github.com/p-blackswan/intake-agent/internal/fields"
)

// Reason explains why an answer was rejected.
type Reason string

const (
	ReasonEmpty          Reason = "empty"
	ReasonTooShort       Reason = "too_short"
	ReasonLowSignal      Reason = "low_signal"
	ReasonNoNumber       Reason = "no_number"
	ReasonNoOption       Reason = "no_option"
	ReasonInvalidName    Reason = "invalid_name"
	ReasonInvalidCompany Reason = "invalid_company"
)

// Result is the outcome of parsing one answer.
type Result struct {
	Accepted bool
	Value    fields.Value
	Reason   Reason
	// Clarification is set when the answer is rejected.
	Clarification string
}

func accept(v fields.Value) Result { return Result{Accepted: true, Value: v} }

func reject(d fields.Descriptor, reason Reason) Result {
	return Result{Reason: reason, Clarification: Clarify(d, reason)}
}

// Parse validates text against d and extracts the field value.
func Parse(d fields.Descriptor, text string) Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return reject(d, ReasonEmpty)
	}

	switch d.Kind {
	case fields.KindBudget:
		return parseBudget(d, text)
	case fields.KindName:
		name := CleanName(text)
		if r := ValidateName(name); r != "" {
			return reject(d, r)
		}
		return accept(fields.Value{Text: name})
	case fields.KindCompany:
		company := CleanCompany(text)
		if r := ValidateCompany(company); r != "" {
			return reject(d, r)
		}
		return accept(fields.Value{Text: company})
	case fields.KindSingle, fields.KindMulti:
		if d.HasOptions() {
			return parseOptions(d, text)
		}
		if d.Kind == fields.KindMulti {
			return parseList(d, text)
		}
		return parseText(d, text)
	case fields.KindList:
		if d.HasOptions() {
			return parseOptions(d, text)
		}
		return parseList(d, text)
	default:
		return parseText(d, text)
	}
}

func parseBudget(d fields.Descriptor, text string) Result {
	amount, ok := ParseBudget(text)
	if !ok || amount <= 0 {
		return reject(d, ReasonNoNumber)
	}
	return accept(fields.Value{Text: text, Amount: amount})
}

func parseText(d fields.Descriptor, text string) Result {
	if r := CheckSignal(text, d.MinLength); r != "" {
		return reject(d, r)
	}
	return accept(fields.Value{Text: text})
}

func parseList(d fields.Descriptor, text string) Result {
	if r := CheckSignal(text, d.MinLength); r != "" {
		return reject(d, r)
	}
	var items []string
	for _, item := range SplitList(text) {
		if !IsLowSignal(item) {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return reject(d, ReasonLowSignal)
	}
	return accept(fields.Value{Items: items})
}

func parseOptions(d fields.Descriptor, text string) Result {
	multi := d.Kind != fields.KindSingle
	var idx []int
	if multi {
		idx = SelectOptions(d.Options, text, true)
	} else if i, ok := FirstOption(d.Options, text); ok {
		idx = []int{i}
	}
	if len(idx) > 0 {
		chosen := pick(d.Options, idx)
		return accept(fields.Value{Text: strings.Join(chosen, ", "), Items: chosen})
	}
	if !d.AllowCustom {
		return reject(d, ReasonNoOption)
	}
	if multi {
		return parseList(d, text)
	}
	return parseText(d, text)
}
