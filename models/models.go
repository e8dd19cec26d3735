// models/models.go
package models

import (
	"time"
)

// MatchRecord is the history entry written once a match is won.
type MatchRecord struct {
	RoomCode   string    `json:"room_code"`
	Scores     [2]int    `json:"scores"`
	Winner     int       `json:"winner"`
	Rolls      int       `json:"rolls"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func (r MatchRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Margin is the winner's lead over the loser.
func (r MatchRecord) Margin() int {
	if r.Winner != 0 && r.Winner != 1 {
		return 0
	}
	return r.Scores[r.Winner] - r.Scores[1-r.Winner]
}

// MatchStats aggregates the recorded history.
type MatchStats struct {
	TotalMatches    int64    `json:"total_matches"`
	WinsBySeat      [2]int64 `json:"wins_by_seat"`
	AverageMargin   float64  `json:"average_margin"`
	AverageRolls    float64  `json:"average_rolls"`
	AverageDuration float64  `json:"average_duration_seconds"`
}
