package notify

import "strings"

// NormalizePhone turns a stored phone number into the digits-only form the
// messaging APIs expect. Non-digits are dropped, then one leading zero, and
// countryCode is prepended when exactly ten digits remain.
func NormalizePhone(raw, countryCode string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := strings.TrimPrefix(b.String(), "0")
	if len(digits) == 10 {
		return countryCode + digits
	}
	return digits
}
