package main

import (
	"fmt"
	"sort"
)

// Aggregate folds issue-free in-scope lines into one WeekRow per roster user.
// Any line still carrying an issue aborts the whole batch; there is no
// partial aggregation path. Users with no activity get a zero row so the
// leaderboard always shows the full roster.
func Aggregate(lines []ParsedLine, bossPoints map[string]int, roster []string, weekID string, lowMax, mediumMax int) ([]WeekRow, error) {
	for _, p := range lines {
		if p.HasIssues() {
			return nil, fmt.Errorf("aggregate: line %d still has %d unresolved issue(s)", p.LineNum, len(p.Issues))
		}
	}

	rows := make(map[string]*WeekRow, len(roster))
	rowFor := func(name string) *WeekRow {
		if r, ok := rows[name]; ok {
			return r
		}
		r := &WeekRow{
			WeekID:     weekID,
			Name:       name,
			BossPoints: make(map[string]int),
			BossCounts: make(map[string]int),
		}
		rows[name] = r
		return r
	}
	for _, name := range roster {
		rowFor(name)
	}

	for _, p := range lines {
		eff := p.EffectivePoints(bossPoints[p.Boss])
		for _, name := range p.AddNames {
			r := rowFor(name)
			r.TotalPoints += eff
			r.BossPoints[p.Boss] += eff
			r.BossCounts[p.Boss]++
		}
		for _, name := range p.SubtractNames {
			r := rowFor(name)
			r.TotalPoints -= eff
			r.BossPoints[p.Boss] -= eff
			r.BossCounts[p.Boss]--
		}
	}

	out := make([]WeekRow, 0, len(rows))
	for _, r := range rows {
		r.Level = classifyActivity(r.TotalPoints, lowMax, mediumMax)
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalPoints != out[j].TotalPoints {
			return out[i].TotalPoints > out[j].TotalPoints
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// classifyActivity buckets a weekly total. Both thresholds are inclusive
// upper bounds.
func classifyActivity(points, lowMax, mediumMax int) ActivityLevel {
	switch {
	case points <= lowMax:
		return ActivityLow
	case points <= mediumMax:
		return ActivityMedium
	default:
		return ActivityHigh
	}
}

// RecomputeDerived rewrites every row's streak and trailing-3-week total by
// replaying the full history in week order. A freshly saved week can extend
// streaks recorded long before it, so incremental patching would drift;
// wholesale replay cannot.
func RecomputeDerived(history []WeekRow) {
	weekSet := make(map[string]bool)
	for i := range history {
		weekSet[history[i].WeekID] = true
	}
	weeks := make([]string, 0, len(weekSet))
	for w := range weekSet {
		weeks = append(weeks, w)
	}
	// Week IDs are yyyy-MM-dd, so lexical order is chronological order.
	sort.Strings(weeks)
	weekPos := make(map[string]int, len(weeks))
	for i, w := range weeks {
		weekPos[w] = i
	}

	type key struct {
		name string
		week string
	}
	byKey := make(map[key][]int) // row indices; normally one per (user, week)
	users := make(map[string]bool)
	for i := range history {
		k := key{history[i].Name, history[i].WeekID}
		byKey[k] = append(byKey[k], i)
		users[history[i].Name] = true
	}

	for name := range users {
		streak := 0
		var prevLevel ActivityLevel
		havePrev := false
		for _, week := range weeks {
			idxs := byKey[key{name, week}]
			if len(idxs) == 0 {
				// A gap in stored weeks breaks the run.
				havePrev = false
				continue
			}
			level := history[idxs[0]].Level
			if havePrev && level == prevLevel {
				streak++
			} else {
				streak = 1
			}
			prevLevel = level
			havePrev = true
			for _, i := range idxs {
				history[i].Streak = streak
			}
		}
	}

	for i := range history {
		pos := weekPos[history[i].WeekID]
		total := 0
		for p := pos - 2; p <= pos; p++ {
			if p < 0 {
				continue
			}
			for _, j := range byKey[key{history[i].Name, weeks[p]}] {
				total += history[j].TotalPoints
			}
		}
		history[i].Trailing3 = total
	}
}
