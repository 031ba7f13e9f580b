package answer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	nameForbidden    = "@#$%^&*()_+=[]{}|\\/<>~`!?;:\""
	companyForbidden = "@#$%^*=[]{}|\\<>~`;\""
)

var (
	nameLeadIn    = regexp.MustCompile(`(?i)^\s*(?:hi|hello|hey)?[,!.\s]*(?:my name is|my name's|name is|name:|i am|i'm|im|this is|it's|it is|call me)\s+`)
	companyLeadIn = regexp.MustCompile(`(?i)^\s*(?:our company is called|our company is|the company is called|the company is|company name is|company is called|company is|company:|we are called|we're called|we are|we're|it's called|it is called|i work at|i work for|i'm from|i am from)\s+`)
)

// CleanName strips conversational lead-ins ("my name is") and trailing
// punctuation from a name answer.
func CleanName(text string) string {
	return tidy(nameLeadIn.ReplaceAllString(text, ""))
}

// CleanCompany strips conversational lead-ins from a company answer.
func CleanCompany(text string) string {
	return tidy(companyLeadIn.ReplaceAllString(text, ""))
}

func tidy(s string) string {
	return strings.Trim(strings.Join(strings.Fields(s), " "), " .!,")
}

// ValidateName checks a cleaned person name.
func ValidateName(name string) Reason {
	if strings.TrimSpace(name) == "" {
		return ReasonEmpty
	}
	if strings.ContainsFunc(name, unicode.IsDigit) || strings.ContainsAny(name, nameForbidden) {
		return ReasonInvalidName
	}
	return validateIdentity(name, ReasonInvalidName)
}

// ValidateCompany checks a cleaned company name. Digits are allowed.
func ValidateCompany(company string) Reason {
	if strings.TrimSpace(company) == "" {
		return ReasonEmpty
	}
	if strings.ContainsAny(company, companyForbidden) {
		return ReasonInvalidCompany
	}
	return validateIdentity(company, ReasonInvalidCompany)
}

func validateIdentity(s string, invalid Reason) Reason {
	if !strings.ContainsFunc(s, unicode.IsLetter) {
		return invalid
	}
	if utf8.RuneCountInString(strings.TrimSpace(s)) < 2 {
		return ReasonTooShort
	}
	compact := compactAlnum(s)
	if isKeyboardMash(compact) || isRepeatedChar(compact) {
		return ReasonLowSignal
	}
	return ""
}
