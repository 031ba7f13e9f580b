package answer

import (
	"regexp"
	"strings"
)

var (
	bulletLine    = regexp.MustCompile(`^\s*(?:[-*•▪‣◦]|\d+[.)])\s+(.+)$`)
	listSeparator = regexp.MustCompile(`(?i)\s*(?:[,;/\n&]|\band\b)\s*`)
	numericChoice = regexp.MustCompile(`(?i)^\d+(?:\s*(?:-|–|to)\s*\d+)?[.)]?$`)
	trailingPunct = " \t.!?:;"
)

// SplitList breaks free text into list items. Bulleted or numbered lines
// win; otherwise the text is split on commas, semicolons, slashes and the
// word "and". Fragments that are only option numbers are dropped.
func SplitList(text string) []string {
	var raw []string
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	bulleted := false
	for _, line := range lines {
		if m := bulletLine.FindStringSubmatch(line); m != nil {
			bulleted = true
			raw = append(raw, m[1])
		}
	}
	if !bulleted {
		raw = listSeparator.Split(text, -1)
	}

	var out []string
	for _, frag := range raw {
		frag = strings.Trim(strings.TrimSpace(frag), trailingPunct)
		if frag == "" || numericChoice.MatchString(frag) {
			continue
		}
		out = append(out, frag)
	}
	return out
}
