package main

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS allowlist (
		name TEXT PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS bosses (
		boss   TEXT PRIMARY KEY,
		points INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS boss_aliases (
		alias     TEXT PRIMARY KEY,
		canonical TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS name_aliases (
		alias     TEXT PRIMARY KEY,
		canonical TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS config (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS weeks (
		week_id     TEXT PRIMARY KEY,
		start_utc   DATETIME NOT NULL,
		end_utc     DATETIME NOT NULL,
		timezone    TEXT DEFAULT '',
		source_file TEXT DEFAULT '',
		created_utc DATETIME DEFAULT CURRENT_TIMESTAMP,
		notes       TEXT DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS week_user_totals (
		week_id        TEXT NOT NULL,
		name           TEXT NOT NULL,
		total_points   INTEGER NOT NULL,
		activity_level TEXT NOT NULL,
		streak         INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (week_id, name)
	);

	CREATE TABLE IF NOT EXISTS week_boss_breakdown (
		week_id TEXT NOT NULL,
		name    TEXT NOT NULL,
		boss    TEXT NOT NULL,
		points  INTEGER NOT NULL,
		count   INTEGER NOT NULL,
		PRIMARY KEY (week_id, name, boss)
	);
	CREATE INDEX IF NOT EXISTS idx_wbb_week ON week_boss_breakdown(week_id);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return db, nil
}

func LoadRoster(db *sql.DB) ([]string, error) {
	return queryStrings(db, `SELECT name FROM allowlist ORDER BY name`)
}

func LoadBosses(db *sql.DB) ([]BossDef, error) {
	rows, err := db.Query(`SELECT boss, points FROM bosses ORDER BY boss`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []BossDef
	for rows.Next() {
		var d BossDef
		if err := rows.Scan(&d.Boss, &d.Points); err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

func LoadNameAliases(db *sql.DB) ([]AliasRow, error) {
	return queryAliases(db, `SELECT alias, canonical FROM name_aliases`)
}

func LoadBossAliases(db *sql.DB) ([]AliasRow, error) {
	return queryAliases(db, `SELECT alias, canonical FROM boss_aliases`)
}

func queryAliases(db *sql.DB, q string) ([]AliasRow, error) {
	rows, err := db.Query(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AliasRow
	for rows.Next() {
		var a AliasRow
		if err := rows.Scan(&a.Alias, &a.Canonical); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func queryStrings(db *sql.DB, q string) ([]string, error) {
	rows, err := db.Query(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LoadStoredConfig returns the free-form key/value config table.
func LoadStoredConfig(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM config`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

func AddUser(db *sql.DB, name string) error {
	_, err := db.Exec(`INSERT OR IGNORE INTO allowlist (name) VALUES (?)`, name)
	return err
}

func AddBoss(db *sql.DB, boss string, points int) error {
	_, err := db.Exec(`INSERT OR REPLACE INTO bosses (boss, points) VALUES (?, ?)`, boss, points)
	return err
}

func AddNameAlias(db *sql.DB, alias, canonical string) error {
	_, err := db.Exec(`INSERT OR REPLACE INTO name_aliases (alias, canonical) VALUES (?, ?)`, alias, canonical)
	return err
}

func AddBossAlias(db *sql.DB, alias, canonical string) error {
	_, err := db.Exec(`INSERT OR REPLACE INTO boss_aliases (alias, canonical) VALUES (?, ?)`, alias, canonical)
	return err
}

func WeekExists(db *sql.DB, weekID string) (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM weeks WHERE week_id = ?`, weekID).Scan(&count)
	return count > 0, err
}

// SaveWeek replaces a week's metadata, totals and breakdown in one
// transaction. Callers decide whether overwriting an existing week is
// acceptable; this function just does it.
func SaveWeek(db *sql.DB, meta WeekMeta, rows []WeekRow) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM week_user_totals WHERE week_id = ?`,
		`DELETE FROM week_boss_breakdown WHERE week_id = ?`,
		`DELETE FROM weeks WHERE week_id = ?`,
	} {
		if _, err := tx.Exec(q, meta.WeekID); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO weeks (week_id, start_utc, end_utc, timezone, source_file, created_utc, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		meta.WeekID, meta.StartUTC, meta.EndUTC, meta.Timezone, meta.SourceFile, meta.CreatedUTC, meta.Notes,
	); err != nil {
		return err
	}

	totalStmt, err := tx.Prepare(
		`INSERT INTO week_user_totals (week_id, name, total_points, activity_level, streak)
		 VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer totalStmt.Close()

	breakdownStmt, err := tx.Prepare(
		`INSERT INTO week_boss_breakdown (week_id, name, boss, points, count)
		 VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer breakdownStmt.Close()

	for _, r := range rows {
		if _, err := totalStmt.Exec(r.WeekID, r.Name, r.TotalPoints, string(r.Level), r.Streak); err != nil {
			return err
		}
		for boss, pts := range r.BossPoints {
			if _, err := breakdownStmt.Exec(r.WeekID, r.Name, boss, pts, r.BossCounts[boss]); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// UpdateStreaks persists recomputed streaks for every stored week.
func UpdateStreaks(db *sql.DB, history []WeekRow) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`UPDATE week_user_totals SET streak = ? WHERE week_id = ? AND name = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range history {
		if _, err := stmt.Exec(r.Streak, r.WeekID, r.Name); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func LoadWeekMeta(db *sql.DB, weekID string) (WeekMeta, error) {
	var m WeekMeta
	err := db.QueryRow(
		`SELECT week_id, start_utc, end_utc, timezone, source_file, created_utc, notes
		 FROM weeks WHERE week_id = ?`, weekID,
	).Scan(&m.WeekID, &m.StartUTC, &m.EndUTC, &m.Timezone, &m.SourceFile, &m.CreatedUTC, &m.Notes)
	if err == sql.ErrNoRows {
		return m, fmt.Errorf("week %s not found", weekID)
	}
	return m, err
}

func ListWeekIDs(db *sql.DB) ([]string, error) {
	return queryStrings(db, `SELECT week_id FROM weeks ORDER BY week_id`)
}

func SourceFileKnown(db *sql.DB, name string) (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM weeks WHERE source_file = ?`, name).Scan(&count)
	return count > 0, err
}

// LoadWeekRows returns one week's rows with boss breakdowns attached, sorted
// total descending then name ascending.
func LoadWeekRows(db *sql.DB, weekID string) ([]WeekRow, error) {
	rows, err := db.Query(
		`SELECT week_id, name, total_points, activity_level, streak
		 FROM week_user_totals WHERE week_id = ?
		 ORDER BY total_points DESC, name ASC`, weekID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WeekRow
	index := make(map[string]int)
	for rows.Next() {
		var r WeekRow
		var level string
		if err := rows.Scan(&r.WeekID, &r.Name, &r.TotalPoints, &level, &r.Streak); err != nil {
			return nil, err
		}
		r.Level = ActivityLevel(level)
		r.BossPoints = make(map[string]int)
		r.BossCounts = make(map[string]int)
		index[r.Name] = len(out)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	bRows, err := db.Query(
		`SELECT name, boss, points, count FROM week_boss_breakdown WHERE week_id = ?`, weekID,
	)
	if err != nil {
		return nil, err
	}
	defer bRows.Close()

	for bRows.Next() {
		var name, boss string
		var pts, count int
		if err := bRows.Scan(&name, &boss, &pts, &count); err != nil {
			return nil, err
		}
		if i, ok := index[name]; ok {
			out[i].BossPoints[boss] = pts
			out[i].BossCounts[boss] = count
		}
	}
	return out, bRows.Err()
}

// LoadAllWeekRows returns the full stored history, ordered by week then name.
// Boss breakdowns are not attached; streak and trailing recomputation only
// need totals and levels.
func LoadAllWeekRows(db *sql.DB) ([]WeekRow, error) {
	rows, err := db.Query(
		`SELECT week_id, name, total_points, activity_level, streak
		 FROM week_user_totals ORDER BY week_id ASC, name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WeekRow
	for rows.Next() {
		var r WeekRow
		var level string
		if err := rows.Scan(&r.WeekID, &r.Name, &r.TotalPoints, &level, &r.Streak); err != nil {
			return nil, err
		}
		r.Level = ActivityLevel(level)
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadLookup builds the four-map lookup straight from the roster tables.
func LoadLookup(db *sql.DB) (*Lookup, error) {
	users, err := LoadRoster(db)
	if err != nil {
		return nil, err
	}
	bosses, err := LoadBosses(db)
	if err != nil {
		return nil, err
	}
	nameAliases, err := LoadNameAliases(db)
	if err != nil {
		return nil, err
	}
	bossAliases, err := LoadBossAliases(db)
	if err != nil {
		return nil, err
	}
	return BuildLookup(users, bosses, nameAliases, bossAliases), nil
}

func weekMetaFor(start time.Time, tz, sourceFile string, now time.Time) WeekMeta {
	startUTC, endUTC := WeekWindow(start)
	return WeekMeta{
		WeekID:     WeekID(startUTC),
		StartUTC:   startUTC,
		EndUTC:     endUTC,
		Timezone:   tz,
		SourceFile: sourceFile,
		CreatedUTC: now.UTC(),
	}
}
