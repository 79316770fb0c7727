package planner

import "strings"

// ParsePrereqs splits a raw prerequisite expression on commas and normalizes each code,
// dropping empty tokens.
func ParsePrereqs(expr string) []string {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	parts := strings.Split(expr, ",")
	codes := make([]string, 0, len(parts))
	for _, part := range parts {
		if code := NormalizeCode(part); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

// PrereqCheck is the detailed verdict of a prerequisite evaluation.
type PrereqCheck struct {
	Eligible bool     `json:"elegible"`
	Pending  []string `json:"pendientes,omitempty"`  // in the curriculum, not yet done
	Orphaned []string `json:"inexistentes,omitempty"` // not in the curriculum; never blocking
}

// CheckPrereqs evaluates the course's prerequisites against the simulated-completed set.
// Prerequisite codes that are not part of the curriculum are ignored: upstream curricula are
// known to reference courses that no longer exist.
func CheckPrereqs(course Course, done CompletedSet, cur *Curriculum) PrereqCheck {
	check := PrereqCheck{Eligible: true}
	for _, code := range ParsePrereqs(course.Prereq) {
		if !cur.Has(code) {
			check.Orphaned = append(check.Orphaned, code)
			continue
		}
		if !done.Has(code) {
			check.Pending = append(check.Pending, code)
			check.Eligible = false
		}
	}
	return check
}

// IsEligible reports whether the course's prerequisites are satisfied.
func IsEligible(course Course, done CompletedSet, cur *Curriculum) bool {
	return CheckPrereqs(course, done, cur).Eligible
}

// Eligible returns the curriculum courses not in done whose prerequisites are satisfied,
// in curriculum order.
func Eligible(cur *Curriculum, done CompletedSet) []Course {
	eligible := make([]Course, 0)
	for _, c := range cur.courses {
		if done.Has(c.Code) {
			continue
		}
		if IsEligible(c, done, cur) {
			eligible = append(eligible, c)
		}
	}
	return eligible
}

// Pending returns the curriculum courses not in done, in curriculum order.
func Pending(cur *Curriculum, done CompletedSet) []Course {
	pending := make([]Course, 0)
	for _, c := range cur.courses {
		if !done.Has(c.Code) {
			pending = append(pending, c)
		}
	}
	return pending
}
