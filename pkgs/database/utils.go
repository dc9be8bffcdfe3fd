package database

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	log "github.com/sirupsen/logrus"
)

////////////////////////////////////////////////////////////////////////////////

const (
	DATABASE_TYPE_SQLITE   = "sqlite"
	DATABASE_TYPE_POSTGRES = "postgres"

	SQLITE_BUSY_TIMEOUT_MS = 5000
)

var ErrSqlitePathRequired = errors.New("sqlite database path is required")

// DatabaseConfig selects the tweet store. Path is read for sqlite, the
// connection fields for postgres.
type DatabaseConfig struct {
	Type string `yaml:"type"`

	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`

	Path string `yaml:"path"`
}

// DataSource returns the sql driver name and DSN for the configured store.
func (c DatabaseConfig) DataSource() (string, string, error) {
	switch c.Type {
	case DATABASE_TYPE_SQLITE:
		if c.Path == "" {
			return "", "", ErrSqlitePathRequired
		}
		return "sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&busy_timeout=%d", c.Path, SQLITE_BUSY_TIMEOUT_MS), nil

	case DATABASE_TYPE_POSTGRES:
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     c.Host + ":" + c.Port,
			Path:     "/" + c.DBName,
			RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
		}
		return "postgres", u.String(), nil

	default:
		return "", "", fmt.Errorf("unsupported database type: %s", c.Type)
	}
}

// ConnectWithConfig opens the store and checks that it answers.
func ConnectWithConfig(dbConfig DatabaseConfig) (*sqlx.DB, error) {
	driver, dsn, err := dbConfig.DataSource()
	if err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{
		"caller": "ConnectWithConfig",
		"type":   dbConfig.Type,
	})
	if driver == "sqlite3" {
		logger = logger.WithField("path", dbConfig.Path)
	} else {
		logger = logger.WithFields(log.Fields{
			"host":   dbConfig.Host,
			"port":   dbConfig.Port,
			"dbname": dbConfig.DBName,
		})
	}

	// sqlx.Connect pings after opening.
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		logger.WithError(err).Error("failed to open tweet store")
		return nil, fmt.Errorf("failed to connect to %s: %w", dbConfig.Type, err)
	}

	logger.Info("tweet store opened")
	return db, nil
}
