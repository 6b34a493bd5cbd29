package progress

import (
	"encoding/json"
	"sort"
)

// PlanetSet is a set of planet IDs. It serializes as a sorted JSON array.
type PlanetSet map[string]struct{}

func NewPlanetSet(ids ...string) PlanetSet {
	s := make(PlanetSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id and reports whether it was not already present.
func (s PlanetSet) Add(id string) bool {
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

func (s PlanetSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s PlanetSet) Len() int { return len(s) }

// Sorted returns the members in ascending order.
func (s PlanetSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s PlanetSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *PlanetSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewPlanetSet(ids...)
	return nil
}
