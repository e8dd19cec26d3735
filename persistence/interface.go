// persistence/interface.go
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/wfunc/pigdice/models"
)

// Database stores the history of finished matches. Live rooms are never persisted.
type Database interface {
	SaveMatch(ctx context.Context, rec models.MatchRecord) error
	MatchStats(ctx context.Context) (models.MatchStats, error)
	Close() error
}

var (
	ErrInvalidRecord = errors.New("invalid match record")
)

func validate(rec models.MatchRecord) error {
	switch {
	case rec.RoomCode == "":
		return fmt.Errorf("%w: empty room code", ErrInvalidRecord)
	case rec.Winner != 0 && rec.Winner != 1:
		return fmt.Errorf("%w: winner %d", ErrInvalidRecord, rec.Winner)
	case rec.Scores[0] < 0 || rec.Scores[1] < 0:
		return fmt.Errorf("%w: negative score %v", ErrInvalidRecord, rec.Scores)
	}
	return nil
}

// statsQuery aggregates the matches table. Both SQL stores share it.
const statsQuery = `
	SELECT
		COUNT(*) AS total,
		COALESCE(SUM(CASE WHEN winner = 0 THEN 1 ELSE 0 END), 0) AS wins_zero,
		COALESCE(SUM(CASE WHEN winner = 1 THEN 1 ELSE 0 END), 0) AS wins_one,
		COALESCE(AVG(margin), 0) AS avg_margin,
		COALESCE(AVG(rolls), 0) AS avg_rolls,
		COALESCE(AVG(duration_ms), 0) AS avg_duration_ms
	FROM matches
	WHERE deleted_at IS NULL`

type statsRow struct {
	Total         int64
	WinsZero      int64
	WinsOne       int64
	AvgMargin     float64
	AvgRolls      float64
	AvgDurationMs float64
}

func (r statsRow) stats() models.MatchStats {
	return models.MatchStats{
		TotalMatches:    r.Total,
		WinsBySeat:      [2]int64{r.WinsZero, r.WinsOne},
		AverageMargin:   r.AvgMargin,
		AverageRolls:    r.AvgRolls,
		AverageDuration: r.AvgDurationMs / 1000,
	}
}
