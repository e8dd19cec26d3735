// persistence/gorm_postgresql.go
package persistence

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/pigdice/models"
)

// GormPostgreSQL stores match history through GORM.
type GormPostgreSQL struct {
	db *gorm.DB
}

// DSN builds a lib/pq style connection string.
func DSN(host string, port int, user, password, dbname string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
}

func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(DSN(host, port, user, password, dbname)), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("gorm open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.GormMatch{}); err != nil {
		return nil, fmt.Errorf("migrate matches: %w", err)
	}

	return &GormPostgreSQL{db: db}, nil
}

func (p *GormPostgreSQL) SaveMatch(ctx context.Context, rec models.MatchRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	return p.db.WithContext(ctx).Create(models.NewGormMatch(rec)).Error
}

func (p *GormPostgreSQL) MatchStats(ctx context.Context) (models.MatchStats, error) {
	var row statsRow
	if err := p.db.WithContext(ctx).Raw(statsQuery).Scan(&row).Error; err != nil {
		return models.MatchStats{}, err
	}
	return row.stats(), nil
}

// RecentMatches returns the latest finished matches, newest first.
func (p *GormPostgreSQL) RecentMatches(ctx context.Context, limit int) ([]models.MatchRecord, error) {
	var rows []models.GormMatch
	err := p.db.WithContext(ctx).
		Order("finished_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.MatchRecord, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].Record())
	}
	return out, nil
}

func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
