package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const rupee = "₹"

var (
	rangeRe    = regexp.MustCompile(`(?i)^(.+?)\s+(?:-|to)\s+(.+)$`)
	currencyRe = regexp.MustCompile(`(?i)^\s*(?:₹|rs\.?|inr|rupees?)\s*`)
	// decimal value with a multiplier word or single-letter suffix
	multiplierRe = regexp.MustCompile(`(?i)^([0-9]+(?:\.[0-9]+)?)\s*(lakhs?|lacs?|crores?|k|l|m)$`)
	plainRe      = regexp.MustCompile(`^[0-9][0-9,]*$`)
)

// periodSuffixes maps the accepted periodicity spellings onto their
// canonical form. Order matters: "per annum" must win before any looser
// match would.
var periodSuffixes = []struct {
	re    *regexp.Regexp
	canon string
}{
	{regexp.MustCompile(`(?i)\s*(?:/\s*|per\s+)month\s*$`), "/month"},
	{regexp.MustCompile(`(?i)\s+p\.?\s?m\.?\s*$`), "/month"},
	{regexp.MustCompile(`(?i)\s*(?:/\s*|per\s+)(?:year|annum)\s*$`), "/year"},
	{regexp.MustCompile(`(?i)\s+p\.?\s?a\.?\s*$`), "/year"},
	{regexp.MustCompile(`(?i)\s*(?:/\s*|per\s+)day\s*$`), "/day"},
}

// Price canonicalizes free-text price/salary input into a rupee-formatted
// display string with South Asian digit grouping. When no numeric value can
// be extracted the original text comes back verbatim behind the currency
// symbol; that lossy fallback is deliberate.
func Price(input string) string {
	s := strings.TrimSpace(input)

	if m := rangeRe.FindStringSubmatch(s); m != nil {
		left := Price(m[1])
		right := strings.TrimPrefix(Price(m[2]), rupee)
		return left + " - " + right
	}

	period := ""
	for _, p := range periodSuffixes {
		if loc := p.re.FindStringIndex(s); loc != nil {
			s = strings.TrimSpace(s[:loc[0]])
			period = p.canon
			break
		}
	}

	s = currencyRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	amount := extractAmount(s)
	if amount <= 0 {
		return rupee + strings.TrimSpace(input)
	}
	return rupee + groupIndian(int64(math.Round(amount))) + period
}

// extractAmount tries, in order: decimal with a multiplier word or letter
// suffix, a plain digit string with optional thousands separators, and
// spelled-out English number words. Returns 0 when nothing works.
func extractAmount(s string) float64 {
	if m := multiplierRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0
		}
		return n * multiplierValue(m[2])
	}
	if plainRe.MatchString(s) {
		n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		if err != nil {
			return 0
		}
		return n
	}
	return float64(parseNumberWords(s))
}

func multiplierValue(word string) float64 {
	switch strings.ToLower(word) {
	case "k":
		return 1_000
	case "l", "lakh", "lakhs", "lac", "lacs":
		return 100_000
	case "m":
		return 1_000_000
	case "crore", "crores":
		return 10_000_000
	default:
		return 0
	}
}

var smallNumbers = map[string]int64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
	"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18,
	"nineteen": 19, "twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

var bigMultipliers = map[string]int64{
	"thousand": 1_000,
	"lakh":     100_000,
	"lakhs":    100_000,
	"crore":    10_000_000,
	"crores":   10_000_000,
}

// parseNumberWords handles common listing phrasing like "forty five
// thousand". Best effort only; an unknown word fails the whole parse.
func parseNumberWords(s string) int64 {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	})
	if len(words) == 0 {
		return 0
	}
	var total, current int64
	for _, w := range words {
		if w == "and" {
			continue
		}
		if n, ok := smallNumbers[w]; ok {
			current += n
			continue
		}
		if w == "hundred" {
			if current == 0 {
				current = 1
			}
			current *= 100
			continue
		}
		if m, ok := bigMultipliers[w]; ok {
			if current == 0 {
				current = 1
			}
			total += current * m
			current = 0
			continue
		}
		return 0
	}
	return total + current
}

// groupIndian renders n with South Asian digit grouping: groups of two
// after the first three digits from the right ("1,50,000").
func groupIndian(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	head, tail := s[:len(s)-3], s[len(s)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}

// phoneShapedPatterns are the spaced/hyphenated digit groupings people use
// to sneak a contact number past the contiguous-digit check.
var phoneShapedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{5}\s\d{5}`),
	regexp.MustCompile(`\d{3}\s\d{3}\s\d{4}`),
	regexp.MustCompile(`\d{4}\s\d{3}\s\d{3}`),
	regexp.MustCompile(`\d{5}-\d{5}`),
	regexp.MustCompile(`\d{3}-\d{3}-\d{4}`),
}

// ContainsRestrictedNumber reports whether text embeds something that looks
// like a phone number: a run of 10+ digits once whitespace and punctuation
// are stripped, or any of the fixed phone-shaped groupings.
func ContainsRestrictedNumber(text string) bool {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			return -1
		}
		return r
	}, text)

	run := 0
	for _, r := range stripped {
		if unicode.IsDigit(r) {
			run++
			if run >= 10 {
				return true
			}
		} else {
			run = 0
		}
	}

	for _, re := range phoneShapedPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
