package main

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// A dialect pairs a timestamp-prefix pattern with the format strings that
// parse it and the body layout that follows it. Matchers are tried in order;
// first prefix match wins. A third export layout is a new entry here, not new
// branching.
type dialect struct {
	name      string
	prefix    *regexp.Regexp
	formats   []string
	parseBody func(p *ParsedLine, rest string, lk *Lookup)
}

var dialects = []dialect{
	{
		// "February 9, 2026 7:15 PM: author: boss names..."
		name:   "legacy",
		prefix: regexp.MustCompile(`^([A-Za-z]+ \d{1,2}, \d{4} \d{1,2}:\d{2} [AP]M): ?(.*)$`),
		formats: []string{
			"January 2, 2006 3:04 PM",
			"Jan 2, 2006 3:04 PM",
		},
		parseBody: parseLegacyBody,
	},
	{
		// "9 Feb 2026 at 19:15 author boss names..."
		name:   "alternate",
		prefix: regexp.MustCompile(`^(\d{1,2} [A-Za-z]+ \d{4} at \d{1,2}:\d{2}(?: [AP]M)?) (.*)$`),
		formats: []string{
			"2 Jan 2006 at 15:04",
			"2 January 2006 at 15:04",
			"2 Jan 2006 at 3:04 PM",
			"2 January 2006 at 3:04 PM",
		},
		parseBody: parseAlternateBody,
	},
}

// isEntryStart reports whether a physical line opens a new logical entry.
func isEntryStart(line string) bool {
	for _, d := range dialects {
		if d.prefix.MatchString(line) {
			return true
		}
	}
	return false
}

// ParseLine resolves one logical entry against the lookup. It never returns
// an error: every failure is attached to the result as a typed issue so the
// resolver can walk the operator through it. Timestamps are interpreted in
// loc and stored as UTC.
func ParseLine(lineNum int, text string, lk *Lookup, loc *time.Location) ParsedLine {
	p := ParsedLine{
		LineNum:    lineNum,
		Raw:        text,
		PointsMult: 1,
	}

	for _, d := range dialects {
		m := d.prefix.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		p.Timestamp = m[1]
		if ts, ok := parseTimestamp(m[1], d.formats, loc); ok {
			p.TimestampUTC = ts
		} else {
			p.addIssue(IssueInvalidTimestamp, m[1], fmt.Sprintf("unparseable %s timestamp %q", d.name, m[1]))
		}
		// A timestamp failure does not stop body parsing; later issues on
		// the same line still need surfacing.
		d.parseBody(&p, m[2], lk)
		return p
	}

	p.addIssue(IssueInvalidTimestamp, "", "no recognized timestamp prefix")
	return p
}

func parseTimestamp(text string, formats []string, loc *time.Location) (time.Time, bool) {
	for _, layout := range formats {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Legacy body: "author: boss names...". The colon is mandatory; without it
// there is no safe way to tell author from payload.
func parseLegacyBody(p *ParsedLine, rest string, lk *Lookup) {
	idx := strings.Index(rest, ":")
	if idx < 0 {
		p.addIssue(IssueUnsupportedFormat, "", "missing author separator ':'")
		return
	}
	p.Author = strings.TrimSpace(rest[:idx])

	toks := splitWords(rest[idx+1:])
	if len(toks) == 0 {
		p.addIssue(IssueUnsupportedFormat, "", "no boss token after author")
		return
	}
	resolveBossToken(p, toks[0], lk)
	classifyNames(p, toks[1:], lk)
}

// Alternate body: no author delimiter, so the boss token's position has to be
// inferred from what the tokens look like.
func parseAlternateBody(p *ParsedLine, rest string, lk *Lookup) {
	toks := splitWords(rest)
	bossIdx, ok := inferBossIndex(toks, lk)
	if !ok {
		p.addIssue(IssueUnsupportedFormat, "", "unable to determine boss token")
		return
	}
	p.Author = strings.Join(toks[:bossIdx], " ")
	resolveBossToken(p, toks[bossIdx], lk)
	classifyNames(p, toks[bossIdx+1:], lk)
}

// inferBossIndex picks the boss token: scan back from the tail while tokens
// still look like names, then take the last boss candidate strictly before
// that tail. With no candidate before the tail the last candidate overall is
// used; when everything looks boss-like that fallback can misattribute
// author tokens, which is exactly the case the resolver exists for.
func inferBossIndex(toks []string, lk *Lookup) (int, bool) {
	nameTailStart := len(toks)
	for i := len(toks) - 1; i >= 0; i-- {
		if !isNameTailToken(toks[i], lk) {
			break
		}
		nameTailStart = i
	}

	last, lastBefore := -1, -1
	for i, tok := range toks {
		if !isBossCandidate(tok, lk) {
			continue
		}
		last = i
		if i < nameTailStart {
			lastBefore = i
		}
	}
	if lastBefore >= 0 {
		return lastBefore, true
	}
	if last >= 0 {
		return last, true
	}
	return 0, false
}

func isNameTailToken(tok string, lk *Lookup) bool {
	if isNotToken(tok) {
		return true
	}
	if _, ok := lk.ResolveUser(tok); ok {
		return true
	}
	return !isBossCandidate(tok, lk)
}

func isBossCandidate(tok string, lk *Lookup) bool {
	base := stripParentheticals(tok)
	if strings.HasPrefix(base, "/") {
		return true
	}
	if isNumericToken(strings.Trim(base, edgePunct)) {
		return true
	}
	for _, key := range []string{normalizeKey(base), normalizeBossKey(base)} {
		if key == "" {
			continue
		}
		if _, ok := lk.BossAliases[key]; ok {
			return true
		}
		if _, ok := lk.Bosses[key]; ok {
			return true
		}
	}
	return false
}

var (
	parentheticalRe = regexp.MustCompile(`\(([^)]*)\)`)
	modifierWordRe  = regexp.MustCompile(`[^a-z0-9]+`)
)

type modifierEffect struct {
	kind  string
	bonus int
	mult  float64
}

var modifierSynonyms = map[string]modifierEffect{
	"brucy":        {kind: "bonus", bonus: 5},
	"brucybonus":   {kind: "bonus", bonus: 5},
	"fail":         {kind: "half", mult: 0.5},
	"comp":         {kind: "half", mult: 0.5},
	"double":       {kind: "double", mult: 2},
	"doublepoints": {kind: "double", mult: 2},
}

func stripParentheticals(tok string) string {
	return parentheticalRe.ReplaceAllString(tok, "")
}

// resolveBossToken strips and applies parenthetical modifiers, then resolves
// the remaining token through the boss alias and boss tables.
func resolveBossToken(p *ParsedLine, tok string, lk *Lookup) {
	p.BossRaw = tok
	base := extractModifiers(p, tok)
	if def, ok := lk.ResolveBoss(base); ok {
		p.Boss = def.Boss
	} else {
		p.addIssue(IssueUnknownBoss, tok, fmt.Sprintf("unknown boss %q", tok))
	}
}

// extractModifiers pulls "(...)" groups out of the boss token and folds the
// recognized ones into the line's bonus and multiplier. Repeats of the same
// modifier kind apply once. Unknown modifier words are flagged but never
// block boss resolution.
func extractModifiers(p *ParsedLine, tok string) string {
	groups := parentheticalRe.FindAllStringSubmatch(tok, -1)
	if len(groups) == 0 {
		return tok
	}
	applied := make(map[string]bool)
	for _, g := range groups {
		for _, word := range modifierWordRe.Split(strings.ToLower(g[1]), -1) {
			if word == "" {
				continue
			}
			eff, ok := modifierSynonyms[word]
			if !ok {
				p.addIssue(IssueUnknownModifier, word, fmt.Sprintf("unknown modifier %q", word))
				continue
			}
			if applied[eff.kind] {
				continue
			}
			applied[eff.kind] = true
			p.PointsBonus += eff.bonus
			if eff.mult != 0 {
				p.PointsMult *= eff.mult
			}
		}
	}
	return stripParentheticals(tok)
}

func isNotToken(tok string) bool {
	return strings.EqualFold(strings.Trim(tok, edgePunct), "not")
}

// classifyNames splits name tokens on the literal "not" into credited and
// debited sets and resolves each token to a canonical user.
func classifyNames(p *ParsedLine, toks []string, lk *Lookup) {
	var notIdx []int
	for i, tok := range toks {
		if isNotToken(tok) {
			notIdx = append(notIdx, i)
		}
	}
	if len(notIdx) > 1 {
		p.addIssue(IssueMultipleNotTokens, "not", fmt.Sprintf("%d 'not' tokens, expected at most one", len(notIdx)))
	}

	addToks := toks
	var subToks []string
	if len(notIdx) > 0 {
		addToks = toks[:notIdx[0]]
		subToks = toks[notIdx[0]+1:]
	}

	p.AddNames = resolveNameTokens(p, addToks, lk)
	p.SubtractNames = resolveNameTokens(p, subToks, lk)
	removeOverlap(p)
}

func resolveNameTokens(p *ParsedLine, toks []string, lk *Lookup) []string {
	var out []string
	for _, tok := range toks {
		// Extra "not" tokens past the split point were already flagged;
		// they are structure, not names.
		if isNotToken(tok) {
			continue
		}
		if user, ok := lk.ResolveUser(tok); ok {
			out = append(out, user)
		} else {
			p.addIssue(IssueUnknownName, tok, fmt.Sprintf("unknown name %q", tok))
		}
	}
	return dedupePreserveOrder(out)
}

// removeOverlap drops any name present on both sides from both sides. A
// "Hydra Alice not Alice" line nets to zero credit for Alice, which is how
// operators retract a mistaken mention.
func removeOverlap(p *ParsedLine) {
	if len(p.AddNames) == 0 || len(p.SubtractNames) == 0 {
		return
	}
	inAdd := make(map[string]bool, len(p.AddNames))
	for _, n := range p.AddNames {
		inAdd[normalizeKey(n)] = true
	}
	inSub := make(map[string]bool, len(p.SubtractNames))
	for _, n := range p.SubtractNames {
		inSub[normalizeKey(n)] = true
	}

	var adds []string
	for _, n := range p.AddNames {
		if !inSub[normalizeKey(n)] {
			adds = append(adds, n)
		}
	}
	var subs []string
	for _, n := range p.SubtractNames {
		if !inAdd[normalizeKey(n)] {
			subs = append(subs, n)
		}
	}
	p.AddNames = adds
	p.SubtractNames = subs
}
