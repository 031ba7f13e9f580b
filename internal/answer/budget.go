package answer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var budgetToken = regexp.MustCompile(`(?i)(\d+(?:,\d+)*(?:\.\d+)?)\s*(lakhs?|lacs?|crores?|cr|thousand|million|k|l|m)?\b`)

var unitMultiplier = map[string]float64{
	"lakh": 100_000, "lakhs": 100_000, "lac": 100_000, "lacs": 100_000, "l": 100_000,
	"crore": 10_000_000, "crores": 10_000_000, "cr": 10_000_000,
	"thousand": 1_000, "k": 1_000,
	"million": 1_000_000, "m": 1_000_000,
}

// ParseBudget extracts every amount in text, applies its unit multiplier and
// returns the largest. ok is false when text holds no number.
func ParseBudget(text string) (amount int64, ok bool) {
	var best float64
	for _, m := range budgetToken.FindAllStringSubmatch(text, -1) {
		n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		if mult, has := unitMultiplier[strings.ToLower(m[2])]; has {
			n *= mult
		}
		if !ok || n > best {
			best = n
		}
		ok = true
	}
	if !ok {
		return 0, false
	}
	return int64(math.Round(best)), true
}
