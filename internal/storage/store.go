// Package storage persists beacon sessions and their per-tick fix log in
// a sqlite database, one file per flight session directory.
package storage

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store handles database operations. Write and read connections are opened
// lazily and independently: the collector only ever writes, the card
// renderer only ever reads.
type Store struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// New creates a store over the database at dbPath. No connection is opened
// until the first operation needs one.
func New(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(schemaSQL)
	return err
}

func (s *Store) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", s.dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
		if err != nil {
			s.writeDBErr = err
			return
		}

		if err = initSchema(db); err != nil {
			_ = db.Close()
			s.writeDBErr = err
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *Store) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", "file:"+s.dbPath+"?mode=ro")
		if err != nil {
			s.readDBErr = err
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

const insertSessionSQL = `
INSERT INTO sessions (start_time, source, config)
VALUES (CURRENT_TIMESTAMP, ?, ?)`

// CreateSession creates a new session and returns its ID. The config may
// be a string, raw bytes, or any JSON-marshalable value.
func (s *Store) CreateSession(source string, config any) (sessionID int64, err error) {
	var configData sql.NullString

	if config != nil {
		switch c := config.(type) {
		case string:
			configData.Valid = true
			configData.String = c

		case []byte:
			configData.Valid = true
			configData.String = string(c)

		default:
			var p []byte
			if p, err = json.Marshal(config); err != nil {
				err = fmt.Errorf("marshaling config: %w", err)
				return
			}

			configData.Valid = true
			configData.String = string(p)
		}
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.Prepare(insertSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer func() {
		if cErr := stmt.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing statement: %w", cErr)
		}
	}()

	result, err := stmt.Exec(source, configData)
	if err != nil {
		err = fmt.Errorf("inserting session: %w", err)
		return
	}

	return result.LastInsertId()
}

const insertFixSQL = `
INSERT INTO fixes (session_id,
                   timestamp,
                   latitude,
                   longitude,
                   altitude,
                   speed,
                   satellites,
                   distance_total,
                   plus_code,
                   cell_voltage,
                   alert_fired)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// BatchInsertFixes inserts multiple fix records in a single transaction.
func (s *Store) BatchInsertFixes(fixes []FixRecord) (err error) {
	if len(fixes) == 0 {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if cErr := tx.Rollback(); cErr != nil && !errors.Is(cErr, sql.ErrTxDone) && err == nil {
			err = fmt.Errorf("rolling back transaction: %w", cErr)
		}
	}()

	stmt, err := tx.Prepare(insertFixSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer func() {
		if cErr := stmt.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing statement: %w", cErr)
		}
	}()

	for _, fix := range fixes {
		_, err = stmt.Exec(
			fix.SessionID,
			fix.Timestamp,
			fix.Latitude,
			fix.Longitude,
			fix.Altitude,
			fix.Speed,
			fix.Satellites,
			fix.DistanceTotal,
			fix.PlusCode,
			fix.CellVoltage,
			fix.AlertFired,
		)
		if err != nil {
			return fmt.Errorf("inserting fix: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return
}

// Close closes the database connections.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		switch {
		case writeErr != nil && readErr != nil:
			s.closeErr = errors.Join(writeErr, readErr)
		case writeErr != nil:
			s.closeErr = writeErr
		case readErr != nil:
			s.closeErr = readErr
		}
	})

	return s.closeErr
}
