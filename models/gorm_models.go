// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GormMatch is the matches table row.
type GormMatch struct {
	gorm.Model
	RoomCode   string    `gorm:"index;not null"`
	ScoreZero  int       `gorm:"not null"`
	ScoreOne   int       `gorm:"not null"`
	Winner     int       `gorm:"index;not null"`
	Margin     int       `gorm:"not null"`
	Rolls      int       `gorm:"not null;default:0"`
	StartedAt  time.Time `gorm:"not null"`
	FinishedAt time.Time `gorm:"index;not null"`
	DurationMs int64     `gorm:"not null;default:0"`
}

func (GormMatch) TableName() string {
	return "matches"
}

func NewGormMatch(rec MatchRecord) *GormMatch {
	return &GormMatch{
		RoomCode:   rec.RoomCode,
		ScoreZero:  rec.Scores[0],
		ScoreOne:   rec.Scores[1],
		Winner:     rec.Winner,
		Margin:     rec.Margin(),
		Rolls:      rec.Rolls,
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
		DurationMs: rec.Duration().Milliseconds(),
	}
}

func (m *GormMatch) Record() MatchRecord {
	return MatchRecord{
		RoomCode:   m.RoomCode,
		Scores:     [2]int{m.ScoreZero, m.ScoreOne},
		Winner:     m.Winner,
		Rolls:      m.Rolls,
		StartedAt:  m.StartedAt,
		FinishedAt: m.FinishedAt,
	}
}
