package planner

import "sort"

// CompletedSet holds the normalized codes treated as satisfied for prerequisite purposes.
type CompletedSet map[string]struct{}

func NewCompletedSet(codes ...string) CompletedSet {
	set := make(CompletedSet, len(codes))
	for _, code := range codes {
		set.Add(code)
	}
	return set
}

func (s CompletedSet) Has(code string) bool {
	_, ok := s[NormalizeCode(code)]
	return ok
}

func (s CompletedSet) Add(codes ...string) {
	for _, code := range codes {
		if code = NormalizeCode(code); code != "" {
			s[code] = struct{}{}
		}
	}
}

func (s CompletedSet) Remove(codes ...string) {
	for _, code := range codes {
		delete(s, NormalizeCode(code))
	}
}

func (s CompletedSet) Clone() CompletedSet {
	clone := make(CompletedSet, len(s))
	for code := range s {
		clone[code] = struct{}{}
	}
	return clone
}

// Codes returns the set's codes, sorted.
func (s CompletedSet) Codes() []string {
	codes := make([]string, 0, len(s))
	for code := range s {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
