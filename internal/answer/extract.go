package answer

import (
	"regexp"
	"strings"

	"github.com/p-blackswan/intake-agent/internal/brief"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().\-]{7,}\d`)
	numberRange  = regexp.MustCompile(`^(\d+)(\s*)[-–](\s*)(\d+)$`)

	introName    = regexp.MustCompile(`\b(?i:my name is|my name's)\s+(\pL[\pL'.\-]*(?:\s+\p{Lu}[\pL'.\-]*)?)`)
	introCallMe  = regexp.MustCompile(`\b(?i:call me)\s+(\p{Lu}[\pL'.\-]*)`)
	introIAm     = regexp.MustCompile(`\b(?:I am|I'm|i am|i'm)\s+(\p{Lu}[\pL'.\-]*(?:\s+\p{Lu}[\pL'.\-]*)?)`)
	introCompany = regexp.MustCompile(`(?i)\b(?:our company is called|our company is|company name is|company is called|we are called|i work (?:at|for)|founder of|owner of)\s+([^,.;!?\n]{2,60})`)
	introFrom    = regexp.MustCompile(`\bfrom\s+(\p{Lu}[\pL\pN&'.\-]*(?:\s+\p{Lu}[\pL\pN&'.\-]*){0,3})`)
	clauseBreak  = regexp.MustCompile(`(?i)\s+(?:and|but)\s+`)
)

// ExtractContact finds an e-mail address and a phone number in text.
func ExtractContact(text string) brief.Contact {
	var c brief.Contact
	c.Email = emailPattern.FindString(text)
	for _, m := range phonePattern.FindAllString(text, -1) {
		m = strings.TrimSpace(m)
		digits := len(strings.Map(keepDigits, m))
		if digits >= 10 && digits <= 15 && !isNumberRange(m) {
			c.Phone = strings.TrimSpace(m)
			break
		}
	}
	return c
}

// isNumberRange reports whether m reads as "a - b" rather than a phone
// number: a spaced dash, or round figures on both sides.
func isNumberRange(m string) bool {
	r := numberRange.FindStringSubmatch(m)
	if r == nil {
		return false
	}
	if r[2] != "" || r[3] != "" {
		return true
	}
	return strings.HasSuffix(r[1], "000") && strings.HasSuffix(r[4], "000")
}

func keepDigits(r rune) rune {
	if r >= '0' && r <= '9' {
		return r
	}
	return -1
}

// ExtractIntroduction picks a person name and company out of a
// self-introduction such as "Hi, I'm Asha Rao from Rao Textiles". Values
// that fail validation are returned empty.
func ExtractIntroduction(text string) (name, company string) {
	for _, re := range []*regexp.Regexp{introName, introCallMe, introIAm} {
		if m := re.FindStringSubmatch(text); m != nil {
			name = tidy(m[1])
			break
		}
	}
	if name != "" && ValidateName(name) != "" {
		name = ""
	}

	if m := introCompany.FindStringSubmatch(text); m != nil {
		company = tidy(clauseBreak.Split(m[1], 2)[0])
	} else if m := introFrom.FindStringSubmatch(text); m != nil && name != "" {
		company = tidy(m[1])
	}
	if company != "" && ValidateCompany(company) != "" {
		company = ""
	}
	return name, company
}
