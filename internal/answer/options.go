package answer

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	rangeToken  = regexp.MustCompile(`(?i)\b(\d+)\s*(?:-|–|to)\s*(\d+)\b`)
	numberToken = regexp.MustCompile(`\b\d+\b`)
	allToken    = regexp.MustCompile(`(?i)\ball\b`)
)

// SelectOptions returns the 0-based indices of the options chosen in text,
// in option order. Numbers and a-b / "a to b" ranges refer to the 1-based
// position in options; option labels are also matched as whole words,
// case-insensitively. When allowAll is set and nothing else was chosen, the
// word "all" selects every option.
func SelectOptions(options []string, text string, allowAll bool) []int {
	at := mentions(options, text, allowAll)
	out := make([]int, 0, len(at))
	for i := range at {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

// FirstOption returns the option mentioned earliest in text.
func FirstOption(options []string, text string) (int, bool) {
	at := mentions(options, text, false)
	best, pos := -1, len(text)+1
	for i, p := range at {
		if p < pos || (p == pos && i < best) {
			best, pos = i, p
		}
	}
	return best, best >= 0
}

// mentions maps each chosen option index to the byte offset of its first
// mention in text.
func mentions(options []string, text string, allowAll bool) map[int]int {
	n := len(options)
	at := make(map[int]int)
	if n == 0 {
		return at
	}
	note := func(i, pos int) {
		if p, ok := at[i]; !ok || pos < p {
			at[i] = pos
		}
	}

	ranges := rangeToken.FindAllStringSubmatchIndex(text, -1)
	for _, m := range ranges {
		lo, _ := strconv.Atoi(text[m[2]:m[3]])
		hi, _ := strconv.Atoi(text[m[4]:m[5]])
		if lo > hi {
			lo, hi = hi, lo
		}
		if lo < 1 || hi > n {
			continue
		}
		for i := lo; i <= hi; i++ {
			note(i-1, m[0])
		}
	}
	for _, m := range numberToken.FindAllStringIndex(text, -1) {
		if insideAny(m[0], ranges) {
			continue
		}
		if i, err := strconv.Atoi(text[m[0]:m[1]]); err == nil && i >= 1 && i <= n {
			note(i-1, m[0])
		}
	}
	for i, label := range options {
		if pos := labelIndex(label, text); pos >= 0 {
			note(i, pos)
		}
	}

	if len(at) == 0 && allowAll {
		if loc := allToken.FindStringIndex(text); loc != nil {
			for i := 0; i < n; i++ {
				at[i] = loc[0]
			}
		}
	}
	return at
}

func insideAny(pos int, spans [][]int) bool {
	for _, s := range spans {
		if pos >= s[0] && pos < s[1] {
			return true
		}
	}
	return false
}

// labelIndex returns the offset of the earliest whole-word match of the
// label, its text before any parenthetical, the comma-separated examples
// inside the parenthetical, or any slash-separated alternative. It is -1
// when none match.
func labelIndex(label, text string) int {
	best := -1
	for _, alt := range labelAlternatives(label) {
		re := regexp.MustCompile(`(?i)(?:^|[^\pL\pN])` + regexp.QuoteMeta(alt) + `(?:$|[^\pL\pN])`)
		if loc := re.FindStringIndex(text); loc != nil && (best < 0 || loc[0] < best) {
			best = loc[0]
		}
	}
	return best
}

func labelAlternatives(label string) []string {
	label = strings.TrimSpace(label)
	alts := []string{label}
	core := label
	if i := strings.Index(core, "("); i > 0 {
		inner := strings.Trim(core[i:], "() ")
		core = strings.TrimSpace(core[:i])
		alts = append(alts, core)
		for _, part := range strings.Split(inner, ",") {
			if part = strings.TrimSpace(part); len(part) >= 2 {
				alts = append(alts, part)
			}
		}
	}
	if strings.Contains(core, "/") {
		for _, part := range strings.Split(core, "/") {
			if part = strings.TrimSpace(part); len(part) >= 2 {
				alts = append(alts, part)
			}
		}
	}
	return alts
}

// pick maps indices back to option labels.
func pick(options []string, idx []int) []string {
	out := make([]string, 0, len(idx))
	for _, i := range idx {
		out = append(out, options[i])
	}
	return out
}
