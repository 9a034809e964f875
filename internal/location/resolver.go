package location

import (
	"regexp"
	"strings"
)

// DefaultMaxDistance is the largest edit distance accepted as a typo of a
// canonical district slug.
const DefaultMaxDistance = 2

// Resolver maps noisy district labels onto the canonical district list.
// It is safe for concurrent use; the only mutable state is the matcher cache.
type Resolver struct {
	districts   []District
	bySlug      map[string]District
	cache       *MatcherCache
	maxDistance int
}

// NewResolver builds a resolver over districts. A nil cache gets a default
// one; a negative maxDistance disables fuzzy matching.
func NewResolver(districts []District, cache *MatcherCache, maxDistance int) *Resolver {
	if cache == nil {
		cache = NewMatcherCache(0)
	}
	r := &Resolver{
		districts:   make([]District, 0, len(districts)),
		bySlug:      make(map[string]District, len(districts)),
		cache:       cache,
		maxDistance: maxDistance,
	}
	for _, d := range districts {
		d.Canonical = true
		if d.Slug == "" {
			d.Slug = Slugify(d.Name)
		}
		if _, dup := r.bySlug[d.Slug]; dup {
			continue
		}
		r.bySlug[d.Slug] = d
		r.districts = append(r.districts, d)
	}
	return r
}

// Districts returns a copy of the canonical list in configured order.
func (r *Resolver) Districts() []District {
	out := make([]District, len(r.districts))
	copy(out, r.districts)
	return out
}

// Resolve never fails: it returns the exact canonical match, the closest
// canonical district within the edit-distance threshold, or a synthesized
// district built from the label itself. Ties go to the earliest district in
// the canonical list.
func (r *Resolver) Resolve(raw string) District {
	if IsBlank(raw) {
		return UnknownDistrict
	}
	slug := Slugify(Clean(KindDistrict, raw))
	if slug == "" {
		return UnknownDistrict
	}
	if d, ok := r.bySlug[slug]; ok {
		return d
	}

	if r.maxDistance >= 0 {
		best := -1
		bestDist := 0
		for i, d := range r.districts {
			dist := Distance(slug, d.Slug)
			if best < 0 || dist < bestDist {
				best, bestDist = i, dist
			}
		}
		if best >= 0 && bestDist <= r.maxDistance {
			return r.districts[best]
		}
	}

	if slug == UnknownDistrict.Slug {
		return UnknownDistrict
	}
	return District{
		Name:        DisplayName(slug),
		Slug:        slug,
		Coordinates: DefaultCoordinates,
	}
}

// Matches reports whether raw resolves to the district identified by slug.
// Labels that spell the slug exactly are accepted through the cached
// matcher without running the fuzzy comparison.
func (r *Resolver) Matches(raw, slug string) bool {
	if slug == "" {
		return true
	}
	if r.Matcher(slug).MatchString(raw) {
		return true
	}
	return r.Resolve(raw).Slug == slug
}

// Matcher returns the compiled case-insensitive matcher for slug. Matchers
// accept labels whose words equal the slug's words, separated by any run of
// whitespace, hyphens or underscores.
func (r *Resolver) Matcher(slug string) *regexp.Regexp {
	if re, ok := r.cache.Get(slug); ok {
		return re
	}
	return r.cache.Put(slug, regexp.MustCompile(Pattern(slug)))
}

// Pattern is the textual matcher for slug.
func Pattern(slug string) string {
	parts := strings.Split(slug, "-")
	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(p))
	}
	if len(quoted) == 0 {
		return `^\s*$`
	}
	return `(?i)^\s*` + strings.Join(quoted, `[\s_-]+`) + `\s*$`
}
