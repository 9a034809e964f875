package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/ignite/health-surveillance/internal/location"
)

// Hierarchy is the district -> taluk -> village view.
type Hierarchy struct {
	Districts   []DistrictNode `json:"districts"`
	Window      Window         `json:"window"`
	Previous    Window         `json:"previousWindow"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

// DistrictNode is the top level of the hierarchy.
type DistrictNode struct {
	District      string      `json:"district"`
	Slug          string      `json:"slug"`
	TotalCases    int         `json:"totalCases"`
	PreviousCases int         `json:"previousCases"`
	Trend         string      `json:"trend"`
	Taluks        []TalukNode `json:"taluks"`
}

// TalukNode groups villages within a district.
type TalukNode struct {
	Name          string        `json:"name"`
	Slug          string        `json:"slug"`
	Cases         int           `json:"cases"`
	PreviousCases int           `json:"previousCases"`
	Trend         string        `json:"trend"`
	Villages      []VillageNode `json:"villages"`
	Samples       []CaseSummary `json:"samples"`
}

// VillageNode is a leaf of the hierarchy.
type VillageNode struct {
	Name    string        `json:"name"`
	Slug    string        `json:"slug"`
	Cases   int           `json:"cases"`
	Samples []CaseSummary `json:"samples"`
}

// TrendLabel describes the change from previous to current.
func TrendLabel(current, previous int) string {
	delta := current - previous
	switch {
	case delta > 0:
		return fmt.Sprintf("+%d vs last period", delta)
	case delta < 0:
		return fmt.Sprintf("%d vs last period", delta)
	default:
		return "Stable"
	}
}

func talukKey(districtSlug, talukName string) string {
	return districtSlug + "::" + location.FoldKey(talukName)
}

// labelSlug is the payload slug for a cleaned label, falling back to the
// folded label when nothing survives slugification.
func labelSlug(name string) string {
	if slug := location.Slugify(name); slug != "" {
		return slug
	}
	return location.FoldKey(name)
}

type villageAcc struct {
	name    string
	slug    string
	cases   int
	samples []CaseSummary
}

type talukAcc struct {
	name     string
	slug     string
	cases    int
	samples  []CaseSummary
	villages map[string]*villageAcc
}

type districtAcc struct {
	district location.District
	cases    int
	taluks   map[string]*talukAcc
}

// hierarchyBuilder folds records into accumulators keyed by district slug and
// folded taluk and village names. freeze turns
// them into the sorted, immutable response tree.
type hierarchyBuilder struct {
	resolver  *location.Resolver
	caps      HierarchyCaps
	districts map[string]*districtAcc
}

func newHierarchyBuilder(resolver *location.Resolver, caps HierarchyCaps) *hierarchyBuilder {
	caps.TalukSamples = max(caps.TalukSamples, 0)
	caps.VillageSamples = max(caps.VillageSamples, 0)
	return &hierarchyBuilder{
		resolver:  resolver,
		caps:      caps,
		districts: make(map[string]*districtAcc),
	}
}

func (b *hierarchyBuilder) add(r Record) {
	d := b.resolver.Resolve(r.District)
	dist, ok := b.districts[d.Slug]
	if !ok {
		dist = &districtAcc{district: d, taluks: make(map[string]*talukAcc)}
		b.districts[d.Slug] = dist
	}
	dist.cases++

	talukName := location.Clean(location.KindTaluk, r.Taluk)
	talukID := location.FoldKey(talukName)
	taluk, ok := dist.taluks[talukID]
	if !ok {
		taluk = &talukAcc{
			name:     talukName,
			slug:     labelSlug(talukName),
			samples:  make([]CaseSummary, 0, b.caps.TalukSamples),
			villages: make(map[string]*villageAcc),
		}
		dist.taluks[talukID] = taluk
	}
	taluk.cases++
	if len(taluk.samples) < b.caps.TalukSamples {
		taluk.samples = append(taluk.samples, r.Summary())
	}

	villageName := location.Clean(location.KindVillage, r.Village)
	villageID := location.FoldKey(villageName)
	village, ok := taluk.villages[villageID]
	if !ok {
		village = &villageAcc{name: villageName, slug: labelSlug(villageName), samples: make([]CaseSummary, 0, b.caps.VillageSamples)}
		taluk.villages[villageID] = village
	}
	village.cases++
	if len(village.samples) < b.caps.VillageSamples {
		village.samples = append(village.samples, r.Summary())
	}
}

func (b *hierarchyBuilder) freeze(previous []Record) []DistrictNode {
	prevTaluks := make(map[string]int)
	prevDistricts := make(map[string]int)
	for _, r := range previous {
		slug := b.resolver.Resolve(r.District).Slug
		prevDistricts[slug]++
		prevTaluks[talukKey(slug, location.Clean(location.KindTaluk, r.Taluk))]++
	}

	out := make([]DistrictNode, 0, len(b.districts))
	for slug, dist := range b.districts {
		node := DistrictNode{
			District:      dist.district.Name,
			Slug:          slug,
			TotalCases:    dist.cases,
			PreviousCases: prevDistricts[slug],
			Trend:         TrendLabel(dist.cases, prevDistricts[slug]),
			Taluks:        make([]TalukNode, 0, len(dist.taluks)),
		}
		for _, t := range dist.taluks {
			prev := prevTaluks[talukKey(slug, t.name)]
			tn := TalukNode{
				Name:          t.name,
				Slug:          t.slug,
				Cases:         t.cases,
				PreviousCases: prev,
				Trend:         TrendLabel(t.cases, prev),
				Samples:       t.samples,
				Villages:      make([]VillageNode, 0, len(t.villages)),
			}
			for _, v := range t.villages {
				tn.Villages = append(tn.Villages, VillageNode{
					Name:    v.name,
					Slug:    v.slug,
					Cases:   v.cases,
					Samples: v.samples,
				})
			}
			sort.Slice(tn.Villages, func(i, j int) bool {
				if tn.Villages[i].Cases != tn.Villages[j].Cases {
					return tn.Villages[i].Cases > tn.Villages[j].Cases
				}
				return tn.Villages[i].Name < tn.Villages[j].Name
			})
			node.Taluks = append(node.Taluks, tn)
		}
		sort.Slice(node.Taluks, func(i, j int) bool {
			if node.Taluks[i].Cases != node.Taluks[j].Cases {
				return node.Taluks[i].Cases > node.Taluks[j].Cases
			}
			return node.Taluks[i].Name < node.Taluks[j].Name
		})
		out = append(out, node)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalCases != out[j].TotalCases {
			return out[i].TotalCases > out[j].TotalCases
		}
		return out[i].District < out[j].District
	})
	return out
}

// BuildHierarchy folds current records into the district tree and labels
// every district and taluk with its change against previous. Records must be
// ordered most recent first for the sample lists to hold the latest cases.
func BuildHierarchy(current, previous []Record, resolver *location.Resolver, caps HierarchyCaps) []DistrictNode {
	b := newHierarchyBuilder(resolver, caps)
	for _, r := range current {
		b.add(r)
	}
	return b.freeze(previous)
}
