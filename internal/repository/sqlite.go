package repository

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/abrezinsky/crowdscore/internal/models"
)

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	if err := repo.migrate(); err != nil {
		return nil, err
	}

	return repo, nil
}

// DB returns the underlying database connection
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS scorecards (
			id TEXT PRIMARY KEY,
			fight_id TEXT NOT NULL DEFAULT '',
			origin TEXT NOT NULL DEFAULT 'manual',
			corner_a TEXT NOT NULL,
			corner_b TEXT NOT NULL,
			round_count INTEGER NOT NULL,
			total_a INTEGER NOT NULL,
			total_b INTEGER NOT NULL,
			winner TEXT NOT NULL,
			revision INTEGER NOT NULL DEFAULT 1,
			method TEXT NOT NULL DEFAULT 'local',
			remote_id TEXT,
			finalized_at DATETIME NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS scorecard_rounds (
			scorecard_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			score_a INTEGER NOT NULL,
			score_b INTEGER NOT NULL,
			modified BOOLEAN NOT NULL DEFAULT 0,
			PRIMARY KEY (scorecard_id, round),
			FOREIGN KEY (scorecard_id) REFERENCES scorecards(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS fights (
			id TEXT PRIMARY KEY,
			fighter_a TEXT NOT NULL,
			fighter_a_record TEXT,
			fighter_a_nickname TEXT,
			fighter_b TEXT NOT NULL,
			fighter_b_record TEXT,
			fighter_b_nickname TEXT,
			title TEXT,
			fight_date TEXT NOT NULL,
			fight_time TEXT,
			venue TEXT,
			city TEXT,
			network TEXT,
			weight_class TEXT,
			rounds INTEGER NOT NULL DEFAULT 12,
			status TEXT NOT NULL DEFAULT 'upcoming',
			source TEXT NOT NULL DEFAULT 'mock',
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scorecards_fight ON scorecards(fight_id)`,
		`CREATE INDEX IF NOT EXISTS idx_scorecards_created ON scorecards(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_fights_date ON fights(fight_date)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}

// ==================== Scorecard Methods ====================

// SaveScorecard inserts or replaces a scorecard and its rounds. Saving the
// same ID again updates it in place and keeps the original created_at.
func (r *Repository) SaveScorecard(ctx context.Context, card models.Scorecard) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO scorecards (id, fight_id, origin, corner_a, corner_b, round_count, total_a, total_b,
			winner, revision, method, remote_id, finalized_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			fight_id = excluded.fight_id,
			origin = excluded.origin,
			corner_a = excluded.corner_a,
			corner_b = excluded.corner_b,
			round_count = excluded.round_count,
			total_a = excluded.total_a,
			total_b = excluded.total_b,
			winner = excluded.winner,
			revision = excluded.revision,
			method = excluded.method,
			remote_id = excluded.remote_id,
			finalized_at = excluded.finalized_at
	`, card.ID, card.FightID, card.Origin, card.CornerA, card.CornerB, card.RoundCount, card.TotalA, card.TotalB,
		card.Winner, card.Revision, card.Method, nullString(card.RemoteID), card.FinalizedAt.UTC())
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM scorecard_rounds WHERE scorecard_id = ?`, card.ID); err != nil {
		return err
	}
	for _, round := range card.Rounds {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO scorecard_rounds (scorecard_id, round, score_a, score_b, modified)
			VALUES (?, ?, ?, ?, ?)
		`, card.ID, round.Round, round.A, round.B, round.Modified)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

const scorecardColumns = `id, fight_id, origin, corner_a, corner_b, round_count, total_a, total_b,
	winner, revision, method, remote_id, finalized_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScorecard(row rowScanner) (models.Scorecard, error) {
	var card models.Scorecard
	var remoteID sql.NullString
	var createdAt sql.NullTime
	err := row.Scan(&card.ID, &card.FightID, &card.Origin, &card.CornerA, &card.CornerB, &card.RoundCount,
		&card.TotalA, &card.TotalB, &card.Winner, &card.Revision, &card.Method, &remoteID,
		&card.FinalizedAt, &createdAt)
	if err != nil {
		return card, err
	}
	card.RemoteID = remoteID.String
	card.CreatedAt = createdAt.Time
	return card, nil
}

// GetScorecard retrieves a scorecard with its rounds
func (r *Repository) GetScorecard(ctx context.Context, id string) (*models.Scorecard, error) {
	card, err := scanScorecard(r.db.QueryRowContext(ctx,
		`SELECT `+scorecardColumns+` FROM scorecards WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT round, score_a, score_b, modified FROM scorecard_rounds
		WHERE scorecard_id = ? ORDER BY round
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var round models.ScorecardRound
		if err := rows.Scan(&round.Round, &round.A, &round.B, &round.Modified); err != nil {
			return nil, err
		}
		card.Rounds = append(card.Rounds, round)
	}
	return &card, rows.Err()
}

// ListScorecards returns scorecards newest first, without their rounds
func (r *Repository) ListScorecards(ctx context.Context, limit, offset int) ([]models.Scorecard, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+scorecardColumns+` FROM scorecards
		ORDER BY created_at DESC, finalized_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := []models.Scorecard{}
	for rows.Next() {
		card, err := scanScorecard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// ListScorecardsForFight returns every scorecard for a fight with rounds
func (r *Repository) ListScorecardsForFight(ctx context.Context, fightID string) ([]models.Scorecard, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+scorecardColumns+` FROM scorecards WHERE fight_id = ? ORDER BY finalized_at`, fightID)
	if err != nil {
		return nil, err
	}

	var cards []models.Scorecard
	index := make(map[string]int)
	for rows.Next() {
		card, err := scanScorecard(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[card.ID] = len(cards)
		cards = append(cards, card)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The pool has a single connection, so rounds are loaded after the
	// scorecard rows are closed.
	roundRows, err := r.db.QueryContext(ctx, `
		SELECT r.scorecard_id, r.round, r.score_a, r.score_b, r.modified
		FROM scorecard_rounds r
		JOIN scorecards s ON s.id = r.scorecard_id
		WHERE s.fight_id = ?
		ORDER BY r.scorecard_id, r.round
	`, fightID)
	if err != nil {
		return nil, err
	}
	defer roundRows.Close()

	for roundRows.Next() {
		var id string
		var round models.ScorecardRound
		if err := roundRows.Scan(&id, &round.Round, &round.A, &round.B, &round.Modified); err != nil {
			return nil, err
		}
		if i, ok := index[id]; ok {
			cards[i].Rounds = append(cards[i].Rounds, round)
		}
	}
	return cards, roundRows.Err()
}

// DeleteScorecard removes a scorecard and its rounds
func (r *Repository) DeleteScorecard(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM scorecards WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetScorecardStats returns counts across saved scorecards and fights
func (r *Repository) GetScorecardStats(ctx context.Context) (models.ScorecardStats, error) {
	var stats models.ScorecardStats

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scorecards`).Scan(&stats.TotalScorecards); err != nil {
		return stats, err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scorecards WHERE method = 'remote'`).Scan(&stats.SavedRemotely); err != nil {
		return stats, err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scorecards WHERE method = 'local'`).Scan(&stats.SavedLocally); err != nil {
		return stats, err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fights`).Scan(&stats.Fights); err != nil {
		return stats, err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT fight_id) FROM scorecards WHERE fight_id != ''`).Scan(&stats.ScoredFights); err != nil {
		return stats, err
	}
	return stats, nil
}

// ==================== Fight Methods ====================

const fightColumns = `id, fighter_a, fighter_a_record, fighter_a_nickname, fighter_b, fighter_b_record,
	fighter_b_nickname, title, fight_date, fight_time, venue, city, network, weight_class, rounds, status,
	source, updated_at`

func scanFight(row rowScanner) (models.Fight, error) {
	var f models.Fight
	var recA, nickA, recB, nickB, title, ftime, venue, city, network, weight sql.NullString
	var updatedAt sql.NullTime
	err := row.Scan(&f.ID, &f.FighterA.Name, &recA, &nickA, &f.FighterB.Name, &recB, &nickB, &title,
		&f.Date, &ftime, &venue, &city, &network, &weight, &f.Rounds, &f.Status, &f.Source, &updatedAt)
	if err != nil {
		return f, err
	}
	f.FighterA.Record = recA.String
	f.FighterA.Nickname = nickA.String
	f.FighterB.Record = recB.String
	f.FighterB.Nickname = nickB.String
	f.Title = title.String
	f.Time = ftime.String
	f.Venue = venue.String
	f.City = city.String
	f.Network = network.String
	f.WeightClass = weight.String
	f.UpdatedAt = updatedAt.Time
	return f, nil
}

// UpsertFight inserts or updates a fight by ID
func (r *Repository) UpsertFight(ctx context.Context, f models.Fight) error {
	updatedAt := f.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO fights (id, fighter_a, fighter_a_record, fighter_a_nickname, fighter_b, fighter_b_record,
			fighter_b_nickname, title, fight_date, fight_time, venue, city, network, weight_class, rounds,
			status, source, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			fighter_a = excluded.fighter_a,
			fighter_a_record = excluded.fighter_a_record,
			fighter_a_nickname = excluded.fighter_a_nickname,
			fighter_b = excluded.fighter_b,
			fighter_b_record = excluded.fighter_b_record,
			fighter_b_nickname = excluded.fighter_b_nickname,
			title = excluded.title,
			fight_date = excluded.fight_date,
			fight_time = excluded.fight_time,
			venue = excluded.venue,
			city = excluded.city,
			network = excluded.network,
			weight_class = excluded.weight_class,
			rounds = excluded.rounds,
			status = excluded.status,
			source = excluded.source,
			updated_at = excluded.updated_at
	`, f.ID, f.FighterA.Name, f.FighterA.Record, f.FighterA.Nickname, f.FighterB.Name, f.FighterB.Record,
		f.FighterB.Nickname, f.Title, f.Date, f.Time, f.Venue, f.City, f.Network, f.WeightClass, f.Rounds,
		f.Status, f.Source, updatedAt.UTC())
	return err
}

// GetFight retrieves a fight by ID
func (r *Repository) GetFight(ctx context.Context, id string) (*models.Fight, error) {
	f, err := scanFight(r.db.QueryRowContext(ctx, `SELECT `+fightColumns+` FROM fights WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFights returns fights on or after fromDate (YYYY-MM-DD) ordered by
// date. An empty fromDate returns every fight.
func (r *Repository) ListFights(ctx context.Context, fromDate string) ([]models.Fight, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+fightColumns+` FROM fights
		WHERE ? = '' OR fight_date >= ?
		ORDER BY fight_date, fight_time, id
	`, fromDate, fromDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fights := []models.Fight{}
	for rows.Next() {
		f, err := scanFight(rows)
		if err != nil {
			return nil, err
		}
		fights = append(fights, f)
	}
	return fights, rows.Err()
}

// CountFights returns the number of cached fights
func (r *Repository) CountFights(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fights`).Scan(&n)
	return n, err
}

// DeleteFightsBySource removes fights that came from a given source
func (r *Repository) DeleteFightsBySource(ctx context.Context, source string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM fights WHERE source = ?`, source)
	return err
}

// ==================== Settings Methods ====================

// GetSetting retrieves a setting value
func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

// SetSetting updates a setting value
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value)
	return err
}

// ==================== Database Management Methods ====================

// validTables defines which tables can be safely cleared
var validTables = map[string]bool{
	"scorecards": true, "scorecard_rounds": true, "fights": true, "settings": true,
}

// ClearTable clears all data from a table
// Only allows clearing whitelisted tables to prevent SQL injection
func (r *Repository) ClearTable(ctx context.Context, table string) error {
	if !validTables[table] {
		return ErrInvalidTable
	}

	// Safe to use string concatenation now that we've validated the table name
	_, err := r.db.ExecContext(ctx, "DELETE FROM "+table)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
