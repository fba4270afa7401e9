package domain

import "strings"

// StripToDigits removes every non-digit character from value. It is total:
// any input, including the empty string, yields a (possibly empty) result.
func StripToDigits(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeToE164 converts a raw phone string into +1NNNNNNNNNN form.
// It returns the empty string when the input cannot be normalized; callers
// must treat an empty result as failure, never as a valid phone.
func NormalizeToE164(value string) string {
	digits := StripToDigits(value)
	switch {
	case len(digits) == 10:
		return "+1" + digits
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return "+" + digits
	}
	return ""
}

// BuildPhoneVariants returns the de-duplicated set of string forms a phone
// number may have been stored under: the trimmed raw input, the digit-only
// form, and the +1- and 1-prefixed forms when the digit count allows them.
//
// This is a compatibility shim for historically inconsistent phone storage,
// matched with an IN query; it makes no promise about which form any
// particular record actually carries.
func BuildPhoneVariants(rawNumber string) []string {
	seen := make(map[string]struct{}, 4)
	variants := make([]string, 0, 4)

	add := func(v string) {
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		variants = append(variants, v)
	}

	add(strings.TrimSpace(rawNumber))

	digits := StripToDigits(rawNumber)
	add(digits)

	switch {
	case len(digits) == 10:
		add("+1" + digits)
		add("1" + digits)
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		add("+" + digits)
		add(digits)
	}

	return variants
}
