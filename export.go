package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// WriteMinimalCSV writes the two-column leaderboard: Name,TotalPoints.
func WriteMinimalCSV(rows []WeekRow, outputDir, weekID string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(outputDir, fmt.Sprintf("leaderboard_min_%s.csv", weekID))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Name", "TotalPoints"}); err != nil {
		return "", err
	}
	for _, r := range rows {
		if err := w.Write([]string{r.Name, strconv.Itoa(r.TotalPoints)}); err != nil {
			return "", err
		}
	}
	w.Flush()
	return path, w.Error()
}

// WriteMinimalText writes "name,totalPoints" per line, no header.
func WriteMinimalText(rows []WeekRow, outputDir, weekID string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(outputDir, fmt.Sprintf("leaderboard_%s.txt", weekID))

	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "%s,%d\n", r.Name, r.TotalPoints)
	}
	return path, os.WriteFile(path, []byte(b.String()), 0644)
}

// WriteFullCSV adds activity level, streak and a points/count column pair per
// boss, bosses in lexical order so re-exports are byte-identical.
func WriteFullCSV(rows []WeekRow, outputDir, weekID string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(outputDir, fmt.Sprintf("leaderboard_full_%s.csv", weekID))

	bossSet := make(map[string]bool)
	for _, r := range rows {
		for boss := range r.BossPoints {
			bossSet[boss] = true
		}
	}
	bosses := make([]string, 0, len(bossSet))
	for boss := range bossSet {
		bosses = append(bosses, boss)
	}
	sort.Strings(bosses)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"Name", "TotalPoints", "ActivityLevel", "Streak"}
	for _, boss := range bosses {
		header = append(header, boss+" pts", boss+" ct")
	}
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, r := range rows {
		record := []string{r.Name, strconv.Itoa(r.TotalPoints), string(r.Level), strconv.Itoa(r.Streak)}
		for _, boss := range bosses {
			record = append(record, strconv.Itoa(r.BossPoints[boss]), strconv.Itoa(r.BossCounts[boss]))
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	return path, w.Error()
}

// WriteCorrectedFile reconstructs the export file from the (possibly edited)
// logical entries.
func WriteCorrectedFile(entries []LogicalEntry, outputDir, originalName string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(outputDir, "corrected_"+sanitizeFilename(filepath.Base(originalName)))

	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Text)
		b.WriteString("\n")
	}
	return path, os.WriteFile(path, []byte(b.String()), 0644)
}

func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	return replacer.Replace(s)
}
