// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/wfunc/pigdice/models"
)

// PostgreSQL stores match history with plain database/sql. Its table layout
// matches the one GORM migrates, so either store can read the other's rows.
type PostgreSQL struct {
	db *sql.DB
}

func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	db, err := sql.Open("postgres", DSN(host, port, user, password, dbname))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

func initTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS matches (
            id BIGSERIAL PRIMARY KEY,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            deleted_at TIMESTAMPTZ,
            room_code TEXT NOT NULL,
            score_zero BIGINT NOT NULL,
            score_one BIGINT NOT NULL,
            winner BIGINT NOT NULL,
            margin BIGINT NOT NULL,
            rolls BIGINT NOT NULL DEFAULT 0,
            started_at TIMESTAMPTZ NOT NULL,
            finished_at TIMESTAMPTZ NOT NULL,
            duration_ms BIGINT NOT NULL DEFAULT 0
        )
    `)
	if err != nil {
		return fmt.Errorf("create matches: %w", err)
	}

	_, err = db.ExecContext(ctx, `
        CREATE INDEX IF NOT EXISTS idx_matches_room_code ON matches(room_code);
        CREATE INDEX IF NOT EXISTS idx_matches_winner ON matches(winner);
        CREATE INDEX IF NOT EXISTS idx_matches_finished_at ON matches(finished_at);
    `)
	return err
}

func (p *PostgreSQL) SaveMatch(ctx context.Context, rec models.MatchRecord) error {
	if err := validate(rec); err != nil {
		return err
	}

	query := `
        INSERT INTO matches (room_code, score_zero, score_one, winner, margin, rolls, started_at, finished_at, duration_ms)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err := p.db.ExecContext(ctx, query,
		rec.RoomCode,
		rec.Scores[0],
		rec.Scores[1],
		rec.Winner,
		rec.Margin(),
		rec.Rolls,
		rec.StartedAt,
		rec.FinishedAt,
		rec.Duration().Milliseconds())
	return err
}

func (p *PostgreSQL) MatchStats(ctx context.Context) (models.MatchStats, error) {
	var row statsRow
	err := p.db.QueryRowContext(ctx, statsQuery).Scan(
		&row.Total,
		&row.WinsZero,
		&row.WinsOne,
		&row.AvgMargin,
		&row.AvgRolls,
		&row.AvgDurationMs,
	)
	if err != nil {
		return models.MatchStats{}, err
	}
	return row.stats(), nil
}

func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
