package menu

import "regexp"

// additiveCodesRe matches a parenthesized run of comma/space separated digit
// groups, e.g. "(1,2, 19) ", as printed after dish names on the menu page.
var additiveCodesRe = regexp.MustCompile(`[(]([0-9]+,? ?)+[)] *`)

// normalizeMaxPasses bounds the substitution loop. A single pass can expose
// new matches (adjacent or nested code lists), so substitution repeats until
// a fixed point; each productive pass strictly shortens the string, so the
// cap is never reached on real input.
const normalizeMaxPasses = 16

// NormalizeDish strips additive/ingredient code annotations from a dish name.
// The result is idempotent: normalizing twice yields the same string.
func NormalizeDish(s string) string {
	for i := 0; i < normalizeMaxPasses; i++ {
		cleaned := additiveCodesRe.ReplaceAllString(s, "")
		if cleaned == s {
			break
		}
		s = cleaned
	}
	return s
}
