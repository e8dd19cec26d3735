// services/stats_service.go
package services

import (
	"context"
	"fmt"

	"github.com/wfunc/pigdice/models"
	"github.com/wfunc/pigdice/persistence"
)

// StatsService answers questions about finished matches.
type StatsService struct {
	db persistence.Database
}

func NewStatsService(db persistence.Database) *StatsService {
	return &StatsService{db: db}
}

// Report is MatchStats plus figures derived from it.
type Report struct {
	models.MatchStats
	// FirstSeatWinRate is the share of matches won by the player who rolls first.
	FirstSeatWinRate float64 `json:"first_seat_win_rate"`
}

// GetMatchStats 汇总历史对局
func (s *StatsService) GetMatchStats(ctx context.Context) (Report, error) {
	stats, err := s.db.MatchStats(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("loading match stats: %w", err)
	}

	report := Report{MatchStats: stats}
	if stats.TotalMatches > 0 {
		report.FirstSeatWinRate = float64(stats.WinsBySeat[0]) / float64(stats.TotalMatches)
	}
	return report, nil
}
