package analytics

import (
	"strings"
	"time"

	"github.com/ignite/health-surveillance/internal/location"
)

// Record is one disease-related encounter as returned by the record store,
// with the subject's location fields already joined in. Records are read-only
// to the engine.
type Record struct {
	ID               string
	SubjectID        string
	District         string
	Taluk            string
	Village          string
	Camp             string
	IssuedAt         time.Time
	Contagious       bool
	ConfirmedDisease string
	SuspectedDisease string
	FollowUpAt       *time.Time
	Notes            string
}

// placeholderDiseases are labels clinicians type while a diagnosis is open.
var placeholderDiseases = map[string]bool{
	"":              true,
	"-":             true,
	"--":            true,
	"na":            true,
	"n/a":           true,
	"nil":           true,
	"none":          true,
	"null":          true,
	"pending":       true,
	"tbd":           true,
	"unknown":       true,
	"not available": true,
}

// IsPlaceholderDisease reports whether label is blank or a known stand-in
// for "not diagnosed yet".
func IsPlaceholderDisease(label string) bool {
	return placeholderDiseases[strings.ToLower(strings.Join(strings.Fields(label), " "))]
}

// Disease resolves the label the record is counted under: the confirmed
// disease when present, else the suspected disease, else "Unspecified".
func (r Record) Disease() string {
	if !IsPlaceholderDisease(r.ConfirmedDisease) {
		return location.Clean(location.KindDisease, r.ConfirmedDisease)
	}
	if !IsPlaceholderDisease(r.SuspectedDisease) {
		return location.Clean(location.KindDisease, r.SuspectedDisease)
	}
	return location.FallbackDisease
}

// DiseaseKey is the case-insensitive grouping key for Disease.
func (r Record) DiseaseKey() string {
	return strings.ToLower(r.Disease())
}

// dedupKey identifies the case a record belongs to. Records without a
// subject fall back to their own ID so they never collapse into each other.
func (r Record) dedupKey() string {
	subject := strings.TrimSpace(r.SubjectID)
	if subject == "" {
		if r.ID == "" {
			return ""
		}
		return "record:" + r.ID
	}
	return subject + "\x00" + r.DiseaseKey()
}

// malformed reports whether any location or disease field needed a fallback.
func (r Record) malformed() bool {
	return location.IsBlank(r.District) || location.IsBlank(r.Taluk) ||
		location.IsBlank(r.Village) || IsPlaceholderDisease(r.ConfirmedDisease) && IsPlaceholderDisease(r.SuspectedDisease)
}

// CaseSummary is the compact form of a record used in sample lists.
type CaseSummary struct {
	RecordID   string     `json:"recordId"`
	SubjectID  string     `json:"subjectId"`
	Disease    string     `json:"disease"`
	Camp       string     `json:"camp"`
	IssuedAt   time.Time  `json:"dateOfIssue"`
	Contagious bool       `json:"isContagious"`
	FollowUpAt *time.Time `json:"followUpDate,omitempty"`
}

// Summary condenses r for a sample list.
func (r Record) Summary() CaseSummary {
	return CaseSummary{
		RecordID:   r.ID,
		SubjectID:  r.SubjectID,
		Disease:    r.Disease(),
		Camp:       location.Clean(location.KindCamp, r.Camp),
		IssuedAt:   r.IssuedAt,
		Contagious: r.Contagious,
		FollowUpAt: r.FollowUpAt,
	}
}

// diseaseTally counts records per case-insensitive disease key while keeping
// the first display spelling seen for each key.
type diseaseTally struct {
	counts  map[string]int
	display map[string]string
}

func newDiseaseTally() *diseaseTally {
	return &diseaseTally{counts: make(map[string]int), display: make(map[string]string)}
}

func (t *diseaseTally) add(r Record) {
	key := r.DiseaseKey()
	if _, ok := t.display[key]; !ok {
		t.display[key] = r.Disease()
	}
	t.counts[key]++
}

// top returns up to n display labels ordered by count, ties broken
// alphabetically. n <= 0 returns all.
func (t *diseaseTally) top(n int) []string {
	keys := make([]string, 0, len(t.counts))
	for k := range t.counts {
		keys = append(keys, k)
	}
	sortByCountThenName(keys, t.counts)
	if n > 0 && len(keys) > n {
		keys = keys[:n]
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = t.display[k]
	}
	return out
}

// byDisplay returns counts keyed by display label.
func (t *diseaseTally) byDisplay() map[string]int {
	out := make(map[string]int, len(t.counts))
	for k, n := range t.counts {
		out[t.display[k]] = n
	}
	return out
}
