package answer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// defaultMinLength applies when a descriptor does not set one.
const defaultMinLength = 2

// keyboardRows are adjacent-key runs; an answer that is a contiguous piece
// of one of them is treated as keyboard mashing.
var keyboardRows = []string{
	"qwertyuiop", "poiuytrewq",
	"asdfghjkl", "lkjhgfdsa",
	"zxcvbnm", "mnbvcxz",
	"qazwsxedc",
}

// CheckSignal classifies free text. It returns "" when the text carries
// meaningful content and the rejection reason otherwise.
func CheckSignal(text string, minLength int) Reason {
	text = strings.TrimSpace(text)
	if text == "" {
		return ReasonEmpty
	}
	if minLength <= 0 {
		minLength = defaultMinLength
	}
	if utf8.RuneCountInString(text) < minLength {
		return ReasonTooShort
	}

	compact := compactAlnum(text)
	if compact == "" {
		return ReasonLowSignal
	}
	if isKeyboardMash(compact) || isRepeatedChar(compact) {
		return ReasonLowSignal
	}
	if !strings.ContainsFunc(text, unicode.IsSpace) && lowVowelRatio(text) {
		return ReasonLowSignal
	}
	return ""
}

// IsLowSignal is CheckSignal with the default minimum length.
func IsLowSignal(text string) bool {
	return CheckSignal(text, defaultMinLength) != ""
}

func compactAlnum(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func isKeyboardMash(compact string) bool {
	if utf8.RuneCountInString(compact) < 3 {
		return false
	}
	for _, row := range keyboardRows {
		if strings.Contains(row, compact) {
			return true
		}
	}
	return false
}

func isRepeatedChar(compact string) bool {
	if utf8.RuneCountInString(compact) < 3 {
		return false
	}
	first, _ := utf8.DecodeRuneInString(compact)
	for _, r := range compact {
		if r != first {
			return false
		}
	}
	return true
}

// lowVowelRatio flags long unspaced letter runs with almost no vowels.
func lowVowelRatio(s string) bool {
	letters, vowels := 0, 0
	for _, r := range strings.ToLower(s) {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if strings.ContainsRune("aeiou", r) {
			vowels++
		}
	}
	if letters < 10 {
		return false
	}
	return float64(vowels)/float64(letters) < 0.2
}
