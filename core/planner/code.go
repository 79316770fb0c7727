// Package planner simulates semester-by-semester course registration for a student:
// a manual step-by-step simulator and an automatic greedy one, both bounded by a per-semester
// credit cap and by prerequisites.
package planner

import "strings"

// NormalizeCode canonicalizes a course code: uppercased, everything outside [A-Z0-9] dropped.
// Course codes must only ever be compared in this form.
func NormalizeCode(code string) string {
	if code == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range strings.ToUpper(code) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
