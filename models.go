package main

import (
	"math"
	"time"
)

type IssueKind string

const (
	IssueUnsupportedFormat IssueKind = "unsupported_format"
	IssueUnknownBoss       IssueKind = "unknown_boss"
	IssueUnknownName       IssueKind = "unknown_name"
	IssueMultipleNotTokens IssueKind = "multiple_not_tokens"
	IssueInvalidTimestamp  IssueKind = "invalid_timestamp"
	IssueUnknownModifier   IssueKind = "unknown_modifier"
)

type ParseIssue struct {
	Kind    IssueKind
	Token   string // offending token, empty when the whole line is at fault
	Message string
}

// ParsedLine is rebuilt wholesale on every parse; nothing mutates one in place.
type ParsedLine struct {
	LineNum       int // 1-based physical line of the entry's first line
	Raw           string
	Timestamp     string // raw timestamp text as it appeared
	TimestampUTC  time.Time
	Author        string
	BossRaw       string
	Boss          string // canonical, empty when unresolved
	PointsBonus   int
	PointsMult    float64
	AddNames      []string
	SubtractNames []string
	Issues        []ParseIssue
}

func (p *ParsedLine) HasIssues() bool {
	return len(p.Issues) > 0
}

func (p *ParsedLine) hasIssueOtherThan(kind IssueKind) bool {
	for _, iss := range p.Issues {
		if iss.Kind != kind {
			return true
		}
	}
	return false
}

func (p *ParsedLine) addIssue(kind IssueKind, token, message string) {
	p.Issues = append(p.Issues, ParseIssue{Kind: kind, Token: token, Message: message})
}

// EffectivePoints applies the bonus before the multiplier and rounds
// fractional results up.
func (p *ParsedLine) EffectivePoints(basePoints int) int {
	raw := (float64(basePoints) + float64(p.PointsBonus)) * p.PointsMult
	return int(math.Ceil(raw))
}

type BossDef struct {
	Boss   string
	Points int
}

type AliasRow struct {
	Alias     string
	Canonical string
}

type ActivityLevel string

const (
	ActivityLow    ActivityLevel = "low"
	ActivityMedium ActivityLevel = "medium"
	ActivityHigh   ActivityLevel = "high"
)

// WeekRow is one user's summary for one stored week.
type WeekRow struct {
	WeekID      string
	Name        string
	TotalPoints int
	Level       ActivityLevel
	Streak      int
	Trailing3   int
	BossPoints  map[string]int
	BossCounts  map[string]int
}

type WeekMeta struct {
	WeekID     string
	StartUTC   time.Time
	EndUTC     time.Time
	Timezone   string
	SourceFile string
	CreatedUTC time.Time
	Notes      string
}

// WeekStartFor returns the UTC start of day of the most recent Sunday at or
// before t.
func WeekStartFor(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// WeekWindow returns the [start, end) UTC window for the week beginning at
// start. End is exclusive: the first instant of the following week.
func WeekWindow(start time.Time) (time.Time, time.Time) {
	start = start.UTC()
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 7)
}

// WeekID formats the stable join key shared by all weekly tables.
func WeekID(start time.Time) string {
	return start.UTC().Format("2006-01-02")
}

func ParseWeekID(id string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", id, time.UTC)
}

func inWeekWindow(ts, start, end time.Time) bool {
	return !ts.Before(start) && ts.Before(end)
}
