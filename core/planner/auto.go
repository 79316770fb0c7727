package planner

import "sort"

// AutoPlan builds a plan without interaction: each semester greedily takes the eligible
// courses of the lowest levels that fit under the credit cap. A course that would overflow
// the cap is skipped and the scan goes on, so a smaller course further down may still fit.
//
// It stops when nothing is eligible or when a semester ends up empty; courses still pending
// at that point are reported in Plan.Unscheduled.
func AutoPlan(sess SessionContext, cur *Curriculum, state CompletionState, opts Options) Plan {
	opts = opts.withDefaults()
	start := opts.Start
	if start.IsZero() {
		start = StartPeriod(opts.Now(), state)
	}
	blocks := schedule(cur, state.Satisfied(), opts.CreditCap, start)

	done := state.Satisfied()
	for _, b := range blocks {
		done.Add(b.Codes()...)
	}
	unscheduled := make([]string, 0)
	for _, c := range Pending(cur, done) {
		unscheduled = append(unscheduled, c.Code)
	}

	return Plan{
		Mode:        ModeAutomatic,
		Session:     sess,
		Start:       start,
		Blocks:      blocks,
		Unscheduled: unscheduled,
		CreatedAt:   opts.Now().UTC(),
	}
}

// schedule runs the greedy loop on its own copy of done.
func schedule(cur *Curriculum, done CompletedSet, creditCap int, start Period) []SemesterBlock {
	done = done.Clone()
	blocks := make([]SemesterBlock, 0)
	for semester := 1; ; semester++ {
		eligible := Eligible(cur, done)
		if len(eligible) == 0 {
			break
		}
		sort.SliceStable(eligible, func(i, j int) bool { return eligible[i].Level < eligible[j].Level })

		var (
			picked  []Course
			credits int
		)
		for _, c := range eligible {
			if credits+c.Credits > creditCap {
				continue
			}
			picked = append(picked, c)
			credits += c.Credits
		}
		if len(picked) == 0 {
			break
		}

		block := newBlock(semester, start.Add(semester-1), picked)
		done.Add(block.Codes()...)
		blocks = append(blocks, block)
	}
	return blocks
}
