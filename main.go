package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var ingestForce bool

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "killfeed",
		Short:         "Boss-kill credit tracker: parse chat exports into a weekly leaderboard",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	ingestCmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Parse an export file, resolve issues interactively, save the week",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runIngest(args[0], false)
		},
	}
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "overwrite an existing week without asking")

	resolveCmd := &cobra.Command{
		Use:   "resolve <file>",
		Short: "Parse and resolve only; never saves",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runIngest(args[0], true)
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export <week>",
		Short: "Re-export artifacts for a stored week (week is yyyy-MM-dd)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runExport(args[0])
		},
	}

	leaderboardCmd := &cobra.Command{
		Use:   "leaderboard [week]",
		Short: "Print a stored week's leaderboard",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			week := ""
			if len(args) > 0 {
				week = args[0]
			}
			return runLeaderboard(week)
		},
	}

	postCmd := &cobra.Command{
		Use:   "post <week>",
		Short: "Post a stored week's leaderboard to Slack",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runPost(args[0])
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Scan the import directory for new export files on a schedule",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, db, err := setup()
			if err != nil {
				return err
			}
			defer db.Close()
			return StartWatch(cfg, db)
		},
	}

	rootCmd.AddCommand(ingestCmd, resolveCmd, exportCmd, leaderboardCmd, postCmd, watchCmd)
	return rootCmd
}

func setup() (Config, *sql.DB, error) {
	cfg := LoadConfig()
	db, err := InitDB(cfg.DBPath)
	if err != nil {
		return cfg, nil, fmt.Errorf("init database: %w", err)
	}
	stored, err := LoadStoredConfig(db)
	if err != nil {
		db.Close()
		return cfg, nil, err
	}
	if err := ApplyStoredConfig(&cfg, stored); err != nil {
		db.Close()
		return cfg, nil, err
	}
	return cfg, db, nil
}

func runIngest(path string, dryRun bool) error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	session := NewSession(db, cfg)
	if err := session.LoadFile(filepath.Base(path), string(raw), time.Now()); err != nil {
		return err
	}
	log.Printf("parsed %s: %d entries, %d in scope, %d issue(s)",
		path, len(session.Entries()), len(session.Parsed()), session.IssueCount())

	if ingestForce && !dryRun && session.State() == StateReady {
		if _, err := session.RequestSave(true, time.Now()); err != nil {
			return err
		}
		_, err := session.Export()
		return err
	}
	return RunResolver(session, dryRun)
}

func runExport(weekID string) error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := LoadWeekMeta(db, weekID); err != nil {
		return err
	}
	rows, err := LoadWeekRows(db, weekID)
	if err != nil {
		return err
	}
	for _, write := range []func() (string, error){
		func() (string, error) { return WriteMinimalCSV(rows, cfg.ExportDir, weekID) },
		func() (string, error) { return WriteMinimalText(rows, cfg.ExportDir, weekID) },
		func() (string, error) { return WriteFullCSV(rows, cfg.ExportDir, weekID) },
	} {
		path, err := write()
		if err != nil {
			return err
		}
		log.Printf("wrote %s", path)
	}
	return nil
}

func runLeaderboard(weekID string) error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	if weekID == "" {
		weekID = WeekID(cfg.TargetWeekStart(time.Now()))
	}
	rows, err := LoadWeekRows(db, weekID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no rows stored for week %s", weekID)
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("week %s", weekID)))
	fmt.Printf("%-4s %-20s %8s %-8s %7s %10s\n", "#", "Name", "Points", "Level", "Streak", "Trailing3")
	history, err := LoadAllWeekRows(db)
	if err != nil {
		return err
	}
	RecomputeDerived(history)
	trailing := make(map[string]int)
	for _, r := range history {
		if r.WeekID == weekID {
			trailing[r.Name] = r.Trailing3
		}
	}
	for i, r := range rows {
		fmt.Printf("%-4d %-20s %8d %-8s %7d %10d\n", i+1, r.Name, r.TotalPoints, r.Level, r.Streak, trailing[r.Name])
	}
	return nil
}

func runPost(weekID string) error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := LoadWeekRows(db, weekID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no rows stored for week %s", weekID)
	}
	return PostLeaderboard(cfg, weekID, rows)
}
