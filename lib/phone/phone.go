package phone

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/biter777/countries"
)

const (
	defaultMinDigits = 10
	maxDigits        = 15
)

// Rule describes an acceptable contact number: it must start with the local
// prefix or with the country calling code, and carry enough digits.
type Rule struct {
	LocalPrefix string
	CallCode    string
	MinDigits   int
}

// ForCountry builds a rule for a country given by alpha-2 code or name.
func ForCountry(country, localPrefix string, minDigits int) (Rule, error) {
	code := countries.ByName(country)
	if code == countries.Unknown {
		return Rule{}, fmt.Errorf("unknown country: %s", country)
	}
	callCodes := code.CallCodes()
	if len(callCodes) == 0 {
		return Rule{}, fmt.Errorf("no calling code for country: %s", country)
	}
	if minDigits <= 0 {
		minDigits = defaultMinDigits
	}
	return Rule{
		LocalPrefix: localPrefix,
		CallCode:    strconv.Itoa(int(callCodes[0])),
		MinDigits:   minDigits,
	}, nil
}

// Normalize strips separators and returns the number as digits, keeping a
// leading "+" when present. ok is false when the number does not fit the rule.
func (r Rule) Normalize(input string) (string, bool) {
	input = strings.TrimSpace(input)
	plus := strings.HasPrefix(input, "+")

	var sb strings.Builder
	for i, ch := range input {
		switch {
		case ch >= '0' && ch <= '9':
			sb.WriteRune(ch)
		case ch == '+' && i == 0:
		case ch == ' ' || ch == '-' || ch == '.' || ch == '(' || ch == ')':
		default:
			return "", false
		}
	}
	digits := sb.String()
	if len(digits) < r.MinDigits || len(digits) > maxDigits {
		return "", false
	}

	switch {
	case r.CallCode != "" && strings.HasPrefix(digits, r.CallCode):
	case !plus && r.LocalPrefix != "" && strings.HasPrefix(digits, r.LocalPrefix):
	default:
		return "", false
	}

	if plus {
		return "+" + digits, true
	}
	return digits, true
}
