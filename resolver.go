package main

import (
	"database/sql"
	"fmt"
	"time"
)

type ResolverState string

const (
	StateIdle         ResolverState = "idle"
	StateAwaitingFile ResolverState = "awaiting_file"
	StateParsing      ResolverState = "parsing"
	StateResolving    ResolverState = "resolving"
	StateReady        ResolverState = "ready"
	StateSaving       ResolverState = "saving"
	StateSaved        ResolverState = "saved"
)

// issueRef addresses one issue within the scoped parse results.
type issueRef struct {
	LineIdx  int
	IssueIdx int
}

// Session is the resolver state machine. Every edit replaces a logical
// entry's text and re-parses the whole file; parse results are replaced
// wholesale, never merged. The TUI drives Update single-threaded, which is
// the serialization the wholesale replacement requires.
type Session struct {
	db    *sql.DB
	cfg   Config
	cache *LookupCache

	state     ResolverState
	weekStart time.Time
	fileName  string
	entries   []LogicalEntry
	parsed    []ParsedLine
	issues    []issueRef
	issueIdx  int
}

func NewSession(db *sql.DB, cfg Config) *Session {
	return &Session{
		db:    db,
		cfg:   cfg,
		cache: NewLookupCache(func() (*Lookup, error) { return LoadLookup(db) }),
		state: StateAwaitingFile,
	}
}

func (s *Session) State() ResolverState    { return s.state }
func (s *Session) FileName() string        { return s.fileName }
func (s *Session) WeekID() string          { return WeekID(s.weekStart) }
func (s *Session) Entries() []LogicalEntry { return s.entries }
func (s *Session) Parsed() []ParsedLine    { return s.parsed }

// LoadFile merges the raw export text into logical entries and parses them
// against the target week.
func (s *Session) LoadFile(name, raw string, now time.Time) error {
	if s.state != StateAwaitingFile && s.state != StateIdle {
		return fmt.Errorf("cannot load file in state %s", s.state)
	}
	s.fileName = name
	s.weekStart = s.cfg.TargetWeekStart(now)
	s.entries = MergeLines(raw)
	return s.reparse()
}

// reparse re-runs the parser over every logical entry. Parsing the same text
// twice yields the same result, so rerunning the file after a single-line
// edit can never regress lines fixed earlier.
func (s *Session) reparse() error {
	s.state = StateParsing
	lk, err := s.cache.Get()
	if err != nil {
		return err
	}
	s.parsed = ScopeToWeek(ParseEntries(s.entries, lk, s.cfg.Location), s.weekStart)

	s.issues = nil
	for li := range s.parsed {
		for ii := range s.parsed[li].Issues {
			s.issues = append(s.issues, issueRef{LineIdx: li, IssueIdx: ii})
		}
	}
	if len(s.issues) == 0 {
		s.issueIdx = 0
		s.state = StateReady
		return nil
	}
	if s.issueIdx >= len(s.issues) {
		s.issueIdx = len(s.issues) - 1
	}
	s.state = StateResolving
	return nil
}

func (s *Session) IssueCount() int { return len(s.issues) }
func (s *Session) IssueIndex() int { return s.issueIdx }

// CurrentIssue returns the line and issue under the cursor.
func (s *Session) CurrentIssue() (*ParsedLine, *ParseIssue, bool) {
	if s.state != StateResolving || len(s.issues) == 0 {
		return nil, nil, false
	}
	ref := s.issues[s.issueIdx]
	line := &s.parsed[ref.LineIdx]
	return line, &line.Issues[ref.IssueIdx], true
}

func (s *Session) NextIssue() {
	if len(s.issues) > 0 {
		s.issueIdx = (s.issueIdx + 1) % len(s.issues)
	}
}

// Suggestions returns fuzzy candidates for the current issue's token, using
// the candidate set matching the issue kind.
func (s *Session) Suggestions() []string {
	line, iss, ok := s.CurrentIssue()
	if !ok {
		return nil
	}
	lk, err := s.cache.Get()
	if err != nil {
		return nil
	}
	switch iss.Kind {
	case IssueUnknownName:
		return SuggestNames(lk, iss.Token, s.cfg.SuggestionLimit)
	case IssueUnknownBoss:
		return SuggestBosses(lk, stripParentheticals(line.BossRaw), s.cfg.SuggestionLimit)
	default:
		return nil
	}
}

// EditLine replaces a logical entry's text and re-parses the file.
func (s *Session) EditLine(lineNum int, newText string) error {
	if s.state != StateResolving && s.state != StateReady {
		return fmt.Errorf("cannot edit in state %s", s.state)
	}
	for i := range s.entries {
		if s.entries[i].LineNum == lineNum {
			s.entries[i].Text = newText
			return s.reparse()
		}
	}
	return fmt.Errorf("no entry at line %d", lineNum)
}

// DiscardLine drops a logical entry entirely.
func (s *Session) DiscardLine(lineNum int) error {
	if s.state != StateResolving && s.state != StateReady {
		return fmt.Errorf("cannot discard in state %s", s.state)
	}
	for i := range s.entries {
		if s.entries[i].LineNum == lineNum {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return s.reparse()
		}
	}
	return fmt.Errorf("no entry at line %d", lineNum)
}

// AddNameAlias writes through to the store, invalidates the lookup and
// re-parses so the alias takes effect everywhere at once.
func (s *Session) AddNameAlias(alias, canonical string) error {
	if err := AddNameAlias(s.db, alias, canonical); err != nil {
		return err
	}
	s.cache.Invalidate()
	return s.reparse()
}

func (s *Session) AddBossAlias(alias, canonical string) error {
	if err := AddBossAlias(s.db, alias, canonical); err != nil {
		return err
	}
	s.cache.Invalidate()
	return s.reparse()
}

func (s *Session) AddBoss(boss string, points int) error {
	if err := AddBoss(s.db, boss, points); err != nil {
		return err
	}
	s.cache.Invalidate()
	return s.reparse()
}

// RequestSave starts the save. When the week already exists it parks the
// session in Saving and reports that confirmation is needed; overwriting a
// stored week silently would be data loss.
func (s *Session) RequestSave(force bool, now time.Time) (needConfirm bool, err error) {
	if s.state != StateReady {
		return false, fmt.Errorf("cannot save in state %s: %d issue(s) remain", s.state, len(s.issues))
	}
	exists, err := WeekExists(s.db, s.WeekID())
	if err != nil {
		return false, err
	}
	if exists && !force {
		s.state = StateSaving
		return true, nil
	}
	return false, s.save(now)
}

// ConfirmSave completes a save parked on the overwrite prompt.
func (s *Session) ConfirmSave(now time.Time) error {
	if s.state != StateSaving {
		return fmt.Errorf("no save pending in state %s", s.state)
	}
	return s.save(now)
}

// CancelSave returns to Ready without touching the store.
func (s *Session) CancelSave() {
	if s.state == StateSaving {
		s.state = StateReady
	}
}

func (s *Session) save(now time.Time) error {
	rows, err := s.BuildRows()
	if err != nil {
		return err
	}
	meta := weekMetaFor(s.weekStart, s.cfg.Timezone, s.fileName, now)
	if err := SaveWeek(s.db, meta, rows); err != nil {
		return err
	}

	// Streaks and trailing totals are derived from full history; replay it.
	history, err := LoadAllWeekRows(s.db)
	if err != nil {
		return err
	}
	RecomputeDerived(history)
	if err := UpdateStreaks(s.db, history); err != nil {
		return err
	}
	s.state = StateSaved
	return nil
}

// BuildRows aggregates the current issue-free parse into weekly rows.
func (s *Session) BuildRows() ([]WeekRow, error) {
	roster, err := LoadRoster(s.db)
	if err != nil {
		return nil, err
	}
	defs, err := LoadBosses(s.db)
	if err != nil {
		return nil, err
	}
	bossPoints := make(map[string]int, len(defs))
	for _, d := range defs {
		bossPoints[d.Boss] = d.Points
	}
	return Aggregate(s.parsed, bossPoints, roster, s.WeekID(), s.cfg.ActivityLowMax, s.cfg.ActivityMediumMax)
}

// Export writes all four artifacts for the saved week.
func (s *Session) Export() ([]string, error) {
	rows, err := LoadWeekRows(s.db, s.WeekID())
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, write := range []func() (string, error){
		func() (string, error) { return WriteMinimalCSV(rows, s.cfg.ExportDir, s.WeekID()) },
		func() (string, error) { return WriteMinimalText(rows, s.cfg.ExportDir, s.WeekID()) },
		func() (string, error) { return WriteFullCSV(rows, s.cfg.ExportDir, s.WeekID()) },
		func() (string, error) { return WriteCorrectedFile(s.entries, s.cfg.ExportDir, s.fileName) },
	} {
		path, err := write()
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
