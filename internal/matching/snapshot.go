package matching

import (
	"sort"
	"time"

	"github.com/zatekoja/vaccinefinder/backend/internal/domain/entities"
)

// Entry is a vaccine site stored under its normalized name.
type Entry struct {
	Key  string
	Site entities.VaccineSite
}

// Snapshot is an immutable point-in-time copy of the vaccine cache. Entries are
// kept sorted by key, which fixes the matcher's tie-break order.
type Snapshot struct {
	entries     []Entry
	index       map[string]int
	origin      entities.Location
	source      string
	refreshedAt time.Time
}

// NewSnapshot normalizes every site name and builds a snapshot. When two sites
// normalize to the same key the later one wins. Vaccine lists are copied so the
// snapshot never aliases caller-owned slices.
func NewSnapshot(normalizer *Normalizer, sites []entities.VaccineSite, origin entities.Location, source string, refreshedAt time.Time) *Snapshot {
	byKey := make(map[string]entities.VaccineSite, len(sites))
	for _, site := range sites {
		key := normalizer.Normalize(site.CenterName)
		if key == "" {
			continue
		}
		site.Vaccines = append([]string(nil), site.Vaccines...)
		byKey[key] = site
	}

	entries := make([]Entry, 0, len(byKey))
	for key, site := range byKey {
		entries = append(entries, Entry{Key: key, Site: site})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	index := make(map[string]int, len(entries))
	for i, e := range entries {
		index[e.Key] = i
	}

	return &Snapshot{
		entries:     entries,
		index:       index,
		origin:      origin,
		source:      source,
		refreshedAt: refreshedAt,
	}
}

// EmptySnapshot is the initial state of a cache
func EmptySnapshot() *Snapshot {
	return &Snapshot{index: map[string]int{}}
}

// Len returns the number of distinct keys
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Entries returns the entries in key order. The slice is a copy; the vaccine
// lists inside must be treated as read-only.
func (s *Snapshot) Entries() []Entry {
	return append([]Entry(nil), s.entries...)
}

// Get returns the site stored under an exact normalized key.
func (s *Snapshot) Get(key string) (entities.VaccineSite, bool) {
	i, ok := s.index[key]
	if !ok {
		return entities.VaccineSite{}, false
	}
	return s.entries[i].Site, true
}

// Keys returns the normalized keys in order
func (s *Snapshot) Keys() []string {
	keys := make([]string, len(s.entries))
	for i, e := range s.entries {
		keys[i] = e.Key
	}
	return keys
}

// Origin is the coordinate the snapshot was refreshed for
func (s *Snapshot) Origin() entities.Location {
	return s.origin
}

// Source describes where the records came from (live fetch or a fallback path)
func (s *Snapshot) Source() string {
	return s.source
}

// RefreshedAt is when the snapshot was built; zero for the initial empty snapshot
func (s *Snapshot) RefreshedAt() time.Time {
	return s.refreshedAt
}

// IsEmpty reports whether the snapshot holds no records
func (s *Snapshot) IsEmpty() bool {
	return len(s.entries) == 0
}
