// Package location cleans free-text location labels and resolves noisy
// district names onto the canonical district list.
package location

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// FieldKind identifies which label a value came from so the right
// fallback can be substituted when it is blank.
type FieldKind int

const (
	KindDistrict FieldKind = iota
	KindTaluk
	KindVillage
	KindCamp
	KindDisease
)

// Fallback labels used when a record carries no usable value.
const (
	FallbackDistrict = "Unknown District"
	FallbackTaluk    = "Unknown Taluk"
	FallbackVillage  = "Unknown Village"
	FallbackCamp     = "Unknown Camp"
	FallbackDisease  = "Unspecified"
)

var fallbacks = map[FieldKind]string{
	KindDistrict: FallbackDistrict,
	KindTaluk:    FallbackTaluk,
	KindVillage:  FallbackVillage,
	KindCamp:     FallbackCamp,
	KindDisease:  FallbackDisease,
}

// Fallback returns the display label used for a blank value of kind.
func Fallback(kind FieldKind) string {
	if f, ok := fallbacks[kind]; ok {
		return f
	}
	return FallbackDistrict
}

// Clean trims raw and collapses internal whitespace. Blank input yields the
// fallback label for kind.
func Clean(kind FieldKind, raw string) string {
	cleaned := strings.Join(strings.Fields(raw), " ")
	if cleaned == "" {
		return Fallback(kind)
	}
	return cleaned
}

// IsBlank reports whether raw carries no visible characters.
func IsBlank(raw string) bool {
	return strings.TrimSpace(raw) == ""
}

// Slugify lowercases s, folds diacritics, drops everything outside
// [a-z0-9 whitespace -], turns whitespace runs into single hyphens and
// collapses repeated hyphens. Slugify(Slugify(x)) == Slugify(x).
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	pendingSep := false
	for _, r := range norm.NFD.String(strings.ToLower(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			pendingSep = true
		default:
			// accents, punctuation and non-latin runes are dropped
		}
	}
	return b.String()
}

// FoldKey is the grouping key for a cleaned label: lowercased and NFC
// composed, with every script kept, so labels Slugify reduces to "" stay
// distinct.
func FoldKey(label string) string {
	return norm.NFC.String(strings.ToLower(label))
}

// DisplayName turns a slug back into a human readable label:
// "north-paravur" -> "North Paravur".
func DisplayName(slug string) string {
	if slug == "" {
		return FallbackDistrict
	}
	// Casers carry state and are not safe to share across goroutines.
	return cases.Title(language.English).String(strings.ReplaceAll(slug, "-", " "))
}
