package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrNoFixes is returned when a session exists but has no recorded fixes.
var ErrNoFixes = errors.New("session has no recorded fixes")

const selectSessionSQL = `
SELECT
    id,
    start_time,
    source,
    config
FROM sessions
WHERE
    id = ?`

// Session returns a session by its ID.
func (s *Store) Session(id int64) (session *SessionData, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.Prepare(selectSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer func() {
		if cErr := stmt.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing statement: %w", cErr)
		}
	}()

	var sess SessionData
	if err = stmt.QueryRow(id).Scan(&sess.ID, &sess.StartTime, &sess.Source, &sess.Config); err != nil {
		err = fmt.Errorf("scanning session: %w", err)
		return
	}
	return &sess, nil
}

const selectSessionsSQL = `
SELECT
    id,
    start_time,
    source,
    config
FROM sessions`

// Sessions returns all sessions in the database.
func (s *Store) Sessions() (sessions []SessionData, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.Query(selectSessionsSQL)
	if err != nil {
		err = fmt.Errorf("querying sessions: %w", err)
		return
	}
	defer func() {
		if cErr := rows.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cErr)
		}
	}()

	for rows.Next() {
		var sess SessionData
		if err = rows.Scan(&sess.ID, &sess.StartTime, &sess.Source, &sess.Config); err != nil {
			err = fmt.Errorf("scanning session: %w", err)
			return
		}
		sessions = append(sessions, sess)
	}
	return
}

const selectLastFixSQL = `
SELECT
    id,
    session_id,
    timestamp,
    latitude,
    longitude,
    altitude,
    speed,
    satellites,
    distance_total,
    plus_code,
    cell_voltage,
    alert_fired
FROM fixes
WHERE
    session_id = ?
    AND latitude IS NOT NULL
ORDER BY timestamp DESC, id DESC
LIMIT 1`

// LastFix returns the most recent located fix of a session, the one the
// location card renderer wants. ErrNoFixes is returned when the session
// never produced a located record.
func (s *Store) LastFix(sessionID int64) (fix *FixRecord, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.Prepare(selectLastFixSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer func() {
		if cErr := stmt.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing statement: %w", cErr)
		}
	}()

	var rec FixRecord
	err = stmt.QueryRow(sessionID).Scan(
		&rec.ID,
		&rec.SessionID,
		&rec.Timestamp,
		&rec.Latitude,
		&rec.Longitude,
		&rec.Altitude,
		&rec.Speed,
		&rec.Satellites,
		&rec.DistanceTotal,
		&rec.PlusCode,
		&rec.CellVoltage,
		&rec.AlertFired,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoFixes
	}
	if err != nil {
		return nil, fmt.Errorf("scanning fix: %w", err)
	}
	return &rec, nil
}
