package main

import (
	"reflect"
	"testing"
	"time"
)

func testLookup() *Lookup {
	return BuildLookup(
		[]string{"Alice", "Bob", "Charlie"},
		[]BossDef{
			{Boss: "Hydra", Points: 10},
			{Boss: "Dragon", Points: 3},
			{Boss: "/rift", Points: 4},
		},
		[]AliasRow{{Alias: "Al", Canonical: "Alice"}},
		[]AliasRow{{Alias: "Hyd", Canonical: "Hydra"}},
	)
}

func issueKinds(p ParsedLine) []IssueKind {
	kinds := make([]IssueKind, len(p.Issues))
	for i, iss := range p.Issues {
		kinds[i] = iss.Kind
	}
	return kinds
}

func hasIssue(p ParsedLine, kind IssueKind) bool {
	for _, iss := range p.Issues {
		if iss.Kind == kind {
			return true
		}
	}
	return false
}

func TestParseLegacyWellFormed(t *testing.T) {
	p := ParseLine(1, "February 9, 2026 7:15 PM: GuildBot: Hydra Alice Bob", testLookup(), time.UTC)
	if p.HasIssues() {
		t.Fatalf("unexpected issues: %v", issueKinds(p))
	}
	if p.Author != "GuildBot" {
		t.Fatalf("author = %q, want GuildBot", p.Author)
	}
	if p.Boss != "Hydra" {
		t.Fatalf("boss = %q, want Hydra", p.Boss)
	}
	want := time.Date(2026, 2, 9, 19, 15, 0, 0, time.UTC)
	if !p.TimestampUTC.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", p.TimestampUTC, want)
	}
	if !reflect.DeepEqual(p.AddNames, []string{"Alice", "Bob"}) {
		t.Fatalf("addNames = %v", p.AddNames)
	}
}

func TestParseLegacyAbbreviatedMonthAndTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	p := ParseLine(1, "Feb 9, 2026 7:15 PM: Bot: Hydra Alice", testLookup(), loc)
	if p.HasIssues() {
		t.Fatalf("unexpected issues: %v", issueKinds(p))
	}
	// 7:15 PM Eastern is 00:15 UTC the next day.
	want := time.Date(2026, 2, 10, 0, 15, 0, 0, time.UTC)
	if !p.TimestampUTC.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", p.TimestampUTC, want)
	}
}

func TestParseIdempotent(t *testing.T) {
	lk := testLookup()
	text := "February 9, 2026 7:15 PM: Bot: Hyd(brucy) Alicee not Bob Bob"
	first := ParseLine(3, text, lk, time.UTC)
	second := ParseLine(3, text, lk, time.UTC)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("parse not idempotent:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestParseMissingAuthorSeparator(t *testing.T) {
	p := ParseLine(1, "February 9, 2026 7:15 PM: Hydra Alice Bob no colon here", testLookup(), time.UTC)
	if !hasIssue(p, IssueUnsupportedFormat) {
		t.Fatalf("want UnsupportedFormat, got %v", issueKinds(p))
	}
	if p.Boss != "" || p.AddNames != nil {
		t.Fatalf("parsing should stop after missing separator: boss=%q adds=%v", p.Boss, p.AddNames)
	}
}

func TestParseInvalidTimestampStillParsesBody(t *testing.T) {
	// February 31 matches the prefix pattern but no format parses it.
	p := ParseLine(1, "February 31, 2026 7:15 PM: Bot: Hydra Alicee", testLookup(), time.UTC)
	if !hasIssue(p, IssueInvalidTimestamp) {
		t.Fatalf("want InvalidTimestamp, got %v", issueKinds(p))
	}
	if !hasIssue(p, IssueUnknownName) {
		t.Fatalf("body issues must still surface, got %v", issueKinds(p))
	}
	if p.Boss != "Hydra" {
		t.Fatalf("boss = %q, body should still resolve", p.Boss)
	}
}

func TestParseNoTimestampPrefix(t *testing.T) {
	p := ParseLine(1, "random channel chatter", testLookup(), time.UTC)
	if !hasIssue(p, IssueInvalidTimestamp) || len(p.Issues) != 1 {
		t.Fatalf("want exactly one InvalidTimestamp, got %v", issueKinds(p))
	}
}

func TestOverlapRemovalSelfCancelling(t *testing.T) {
	p := ParseLine(1, "February 9, 2026 7:15 PM: Bot: Hydra Alice not Alice", testLookup(), time.UTC)
	if p.HasIssues() {
		t.Fatalf("unexpected issues: %v", issueKinds(p))
	}
	if len(p.AddNames) != 0 || len(p.SubtractNames) != 0 {
		t.Fatalf("self-cancelling line: adds=%v subs=%v", p.AddNames, p.SubtractNames)
	}
}

func TestNotSplitAndSubtract(t *testing.T) {
	p := ParseLine(1, "February 9, 2026 7:15 PM: Bot: Hydra Alice Bob not Charlie", testLookup(), time.UTC)
	if !reflect.DeepEqual(p.AddNames, []string{"Alice", "Bob"}) {
		t.Fatalf("addNames = %v", p.AddNames)
	}
	if !reflect.DeepEqual(p.SubtractNames, []string{"Charlie"}) {
		t.Fatalf("subtractNames = %v", p.SubtractNames)
	}
}

func TestMultipleNotTokens(t *testing.T) {
	p := ParseLine(1, "February 9, 2026 7:15 PM: Bot: Hydra Alice not Bob not Charlie", testLookup(), time.UTC)
	if !hasIssue(p, IssueMultipleNotTokens) {
		t.Fatalf("want MultipleNotTokens, got %v", issueKinds(p))
	}
	// First occurrence is still the split point; later tokens land in the
	// subtract side.
	if !reflect.DeepEqual(p.AddNames, []string{"Alice"}) {
		t.Fatalf("addNames = %v", p.AddNames)
	}
	if !reflect.DeepEqual(p.SubtractNames, []string{"Bob", "Charlie"}) {
		t.Fatalf("subtractNames = %v", p.SubtractNames)
	}
}

func TestModifierMath(t *testing.T) {
	p := ParseLine(1, "February 9, 2026 7:15 PM: Bot: Hydra(brucy)(double) Alice", testLookup(), time.UTC)
	if p.HasIssues() {
		t.Fatalf("unexpected issues: %v", issueKinds(p))
	}
	if p.PointsBonus != 5 || p.PointsMult != 2 {
		t.Fatalf("bonus=%d mult=%v, want 5 and 2", p.PointsBonus, p.PointsMult)
	}
	if got := p.EffectivePoints(10); got != 30 {
		t.Fatalf("effective = %d, want 30", got)
	}
}

func TestModifierFractionalRoundsUp(t *testing.T) {
	p := ParseLine(1, "February 9, 2026 7:15 PM: Bot: Dragon(fail) Alice", testLookup(), time.UTC)
	if p.PointsMult != 0.5 {
		t.Fatalf("mult = %v, want 0.5", p.PointsMult)
	}
	if got := p.EffectivePoints(3); got != 2 {
		t.Fatalf("effective = %d, want ceil(1.5) = 2", got)
	}
}

func TestModifierDedupeByKind(t *testing.T) {
	p := ParseLine(1, "February 9, 2026 7:15 PM: Bot: Hydra(double)(doublepoints) Alice", testLookup(), time.UTC)
	if p.PointsMult != 2 {
		t.Fatalf("repeated double applied twice: mult = %v", p.PointsMult)
	}
}

func TestUnknownModifierDoesNotBlockBoss(t *testing.T) {
	p := ParseLine(1, "February 9, 2026 7:15 PM: Bot: Hydra(shiny) Alice", testLookup(), time.UTC)
	if !hasIssue(p, IssueUnknownModifier) {
		t.Fatalf("want UnknownModifier, got %v", issueKinds(p))
	}
	if p.Boss != "Hydra" {
		t.Fatalf("boss = %q, modifier must not block resolution", p.Boss)
	}
}

func TestBossAliasResolution(t *testing.T) {
	p := ParseLine(1, "February 9, 2026 7:15 PM: Bot: Hyd Alice", testLookup(), time.UTC)
	if p.Boss != "Hydra" {
		t.Fatalf("boss via alias = %q, want Hydra", p.Boss)
	}
}

func TestNameAliasResolution(t *testing.T) {
	p := ParseLine(1, "February 9, 2026 7:15 PM: Bot: Hydra Al", testLookup(), time.UTC)
	if !reflect.DeepEqual(p.AddNames, []string{"Alice"}) {
		t.Fatalf("addNames via alias = %v, want [Alice]", p.AddNames)
	}
}

func TestUnknownBossKeepsRawToken(t *testing.T) {
	p := ParseLine(1, "February 9, 2026 7:15 PM: Bot: Kraken(fail) Alice", testLookup(), time.UTC)
	if !hasIssue(p, IssueUnknownBoss) {
		t.Fatalf("want UnknownBoss, got %v", issueKinds(p))
	}
	for _, iss := range p.Issues {
		if iss.Kind == IssueUnknownBoss && iss.Token != "Kraken(fail)" {
			t.Fatalf("issue token = %q, want original raw token", iss.Token)
		}
	}
	if p.PointsMult != 0.5 {
		t.Fatalf("modifiers still apply on unknown boss, mult = %v", p.PointsMult)
	}
}

func TestUnknownNameDroppedNotFatal(t *testing.T) {
	p := ParseLine(1, "February 9, 2026 7:15 PM: Bot: Hydra Alicee Bob", testLookup(), time.UTC)
	if !hasIssue(p, IssueUnknownName) {
		t.Fatalf("want UnknownName, got %v", issueKinds(p))
	}
	if !reflect.DeepEqual(p.AddNames, []string{"Bob"}) {
		t.Fatalf("addNames = %v, unresolved token must be dropped", p.AddNames)
	}
}

func TestTrailingPunctuationOnNames(t *testing.T) {
	p := ParseLine(1, "February 9, 2026 7:15 PM: Bot: Hydra Alice, Bob!", testLookup(), time.UTC)
	if p.HasIssues() {
		t.Fatalf("unexpected issues: %v", issueKinds(p))
	}
	// Canonical spellings, not raw tokens, must survive.
	if !reflect.DeepEqual(p.AddNames, []string{"Alice", "Bob"}) {
		t.Fatalf("addNames = %v, want canonical [Alice Bob]", p.AddNames)
	}
}

func TestAlternateDialectBossInference(t *testing.T) {
	p := ParseLine(1, "9 Feb 2026 at 19:15 Bob Smith Hydra Alice", testLookup(), time.UTC)
	if p.HasIssues() {
		t.Fatalf("unexpected issues: %v", issueKinds(p))
	}
	if p.Author != "Bob Smith" {
		t.Fatalf("author = %q, want Bob Smith", p.Author)
	}
	if p.Boss != "Hydra" {
		t.Fatalf("boss = %q, want Hydra", p.Boss)
	}
	if !reflect.DeepEqual(p.AddNames, []string{"Alice"}) {
		t.Fatalf("addNames = %v, want [Alice]", p.AddNames)
	}
	want := time.Date(2026, 2, 9, 19, 15, 0, 0, time.UTC)
	if !p.TimestampUTC.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", p.TimestampUTC, want)
	}
}

func TestAlternateDialect12Hour(t *testing.T) {
	p := ParseLine(1, "9 February 2026 at 7:15 PM Keeper /rift Alice", testLookup(), time.UTC)
	if p.HasIssues() {
		t.Fatalf("unexpected issues: %v", issueKinds(p))
	}
	if p.Boss != "/rift" {
		t.Fatalf("boss = %q, want /rift", p.Boss)
	}
	want := time.Date(2026, 2, 9, 19, 15, 0, 0, time.UTC)
	if !p.TimestampUTC.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", p.TimestampUTC, want)
	}
}

func TestAlternateDialectNoBossCandidate(t *testing.T) {
	p := ParseLine(1, "9 Feb 2026 at 19:15 somebody said something", testLookup(), time.UTC)
	if !hasIssue(p, IssueUnsupportedFormat) {
		t.Fatalf("want UnsupportedFormat, got %v", issueKinds(p))
	}
}

func TestAlternateDialectNumericBossCandidate(t *testing.T) {
	// "300" is numeric, hence boss-like, but not a known boss.
	p := ParseLine(1, "9 Feb 2026 at 19:15 Keeper 300 Alice", testLookup(), time.UTC)
	if !hasIssue(p, IssueUnknownBoss) {
		t.Fatalf("want UnknownBoss for numeric candidate, got %v", issueKinds(p))
	}
	if p.Author != "Keeper" {
		t.Fatalf("author = %q, want Keeper", p.Author)
	}
}

func TestDialectOrderLegacyWins(t *testing.T) {
	if !isEntryStart("February 9, 2026 7:15 PM: Bot: Hydra Alice") {
		t.Fatal("legacy line must be an entry start")
	}
	if !isEntryStart("9 Feb 2026 at 19:15 Bot Hydra Alice") {
		t.Fatal("alternate line must be an entry start")
	}
	if isEntryStart("continuation of a wrapped payload") {
		t.Fatal("plain text must not start an entry")
	}
}
