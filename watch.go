package main

import (
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
)

// ScanResult summarizes one not-yet-ingested export file found in the import
// directory.
type ScanResult struct {
	File      string
	Entries   int
	InScope   int
	WithIssue int
}

// ScanImportDir parses every export file in the import directory that no
// stored week references yet. It only reports; resolution and saving stay
// interactive by contract.
func ScanImportDir(cfg Config, db *sql.DB, now time.Time) ([]ScanResult, error) {
	dirEntries, err := os.ReadDir(cfg.ImportDir)
	if err != nil {
		return nil, err
	}
	lk, err := LoadLookup(db)
	if err != nil {
		return nil, err
	}
	weekStart := cfg.TargetWeekStart(now)

	var results []ScanResult
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		known, err := SourceFileKnown(db, de.Name())
		if err != nil {
			return results, err
		}
		if known {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(cfg.ImportDir, de.Name()))
		if err != nil {
			log.Printf("watch: read %s: %v", de.Name(), err)
			continue
		}
		entries := MergeLines(string(raw))
		parsed := ScopeToWeek(ParseEntries(entries, lk, cfg.Location), weekStart)
		res := ScanResult{File: de.Name(), Entries: len(entries), InScope: len(parsed)}
		for _, p := range parsed {
			if p.HasIssues() {
				res.WithIssue++
			}
		}
		results = append(results, res)
	}
	return results, nil
}

// StartWatch scans the import directory on the configured cron schedule and
// blocks forever.
func StartWatch(cfg Config, db *sql.DB) error {
	c := cron.New()
	job := func() {
		results, err := ScanImportDir(cfg, db, time.Now())
		if err != nil {
			log.Printf("watch: scan error: %v", err)
			return
		}
		if len(results) == 0 {
			log.Printf("watch: no new files in %s", cfg.ImportDir)
			return
		}
		for _, r := range results {
			log.Printf("watch: %s entries=%d in_scope=%d with_issues=%d; run 'killfeed ingest %s'",
				r.File, r.Entries, r.InScope, r.WithIssue, filepath.Join(cfg.ImportDir, r.File))
		}
	}
	if _, err := c.AddFunc(cfg.WatchSchedule, job); err != nil {
		return err
	}
	log.Printf("watch: schedule %q on %s", cfg.WatchSchedule, cfg.ImportDir)
	job()
	c.Run()
	return nil
}
