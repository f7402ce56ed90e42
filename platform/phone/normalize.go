// Package phone provides phone number normalization and extraction utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const region = "IN"

var nonDigits = regexp.MustCompile(`\D`)

// candidatePattern matches phone-shaped tokens in free text: an optional +91
// prefix followed by at least ten digits allowing common separators.
var candidatePattern = regexp.MustCompile(`(?:\+?91[\s.\-]*)?\d[\d\s.\-()]{8,16}\d`)

// labelWords are stripped from surrounding text when deriving a display name.
var labelWords = regexp.MustCompile(`(?i)\b(name|mobile|phone|contact|number|no)\b`)

var nonLetters = regexp.MustCompile(`[^a-zA-Z ]`)

var spaces = regexp.MustCompile(`\s+`)

// Normalize reduces a raw token to a canonical 10-digit subscriber number.
// Non-digit characters are stripped; a leading "91" country code and then a
// leading trunk "0" are dropped while the digit string is longer than ten.
// The second return value reports whether the token was accepted; rejected
// tokens are skipped by callers, never treated as errors.
func Normalize(raw string) (string, bool) {
	clean := nonDigits.ReplaceAllString(raw, "")

	if len(clean) > 10 && strings.HasPrefix(clean, "91") {
		clean = clean[2:]
	}
	if len(clean) > 10 && strings.HasPrefix(clean, "0") {
		clean = clean[1:]
	}

	if len(clean) != 10 {
		return "", false
	}
	return clean, true
}

// NormalizeMobile applies Normalize and additionally requires the number to
// sit in the mobile range (first digit 6-9) and to be a valid IN number per
// the phonenumbers metadata. Used by ingestion modes that scan free text,
// where arbitrary digit runs (dates, amounts) would otherwise slip through.
func NormalizeMobile(raw string) (string, bool) {
	number, ok := Normalize(raw)
	if !ok {
		return "", false
	}

	switch number[0] {
	case '6', '7', '8', '9':
	default:
		return "", false
	}

	parsed, err := phonenumbers.Parse(number, region)
	if err != nil {
		return "", false
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", false
	}

	return number, true
}

// Match is a phone number extracted from free text together with a
// best-effort display name derived from the surrounding line.
type Match struct {
	Number string
	Name   string
	Raw    string
}

// ScanText extracts mobile numbers from a text-bearing document. Each line is
// scanned for phone-shaped tokens; the display name is whatever letters remain
// on the line once the matched digits and common label words are removed.
func ScanText(text string) []Match {
	var matches []Match
	for _, line := range strings.Split(text, "\n") {
		for _, raw := range candidatePattern.FindAllString(line, -1) {
			number, ok := NormalizeMobile(raw)
			if !ok {
				continue
			}
			matches = append(matches, Match{
				Number: number,
				Name:   deriveName(line, raw),
				Raw:    strings.TrimSpace(raw),
			})
		}
	}
	return matches
}

func deriveName(line, matched string) string {
	rest := strings.Replace(line, matched, " ", 1)
	rest = labelWords.ReplaceAllString(rest, " ")
	rest = nonLetters.ReplaceAllString(rest, " ")
	rest = spaces.ReplaceAllString(rest, " ")
	return strings.TrimSpace(rest)
}
