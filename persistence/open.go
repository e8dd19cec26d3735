package persistence

import (
	"fmt"

	"github.com/wfunc/pigdice/config"
)

// Open returns the match history store selected by cfg.Driver.
func Open(cfg config.DatabaseConfig) (Database, error) {
	pg := cfg.Postgres
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "gorm":
		return NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "postgres":
		return NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.Driver)
}
