package storage

import (
	"database/sql"
	"time"
)

// SessionData represents one data collection session.
type SessionData struct {
	ID        int64
	StartTime time.Time
	Source    string
	Config    sql.NullString
}

// FixRecord is one stored tick of beacon state. Positional columns are
// null while the engine has no fix yet.
type FixRecord struct {
	ID        int64
	SessionID int64
	Timestamp time.Time

	Latitude   sql.NullFloat64
	Longitude  sql.NullFloat64
	Altitude   sql.NullFloat64
	Speed      sql.NullFloat64
	Satellites sql.NullInt64

	DistanceTotal float64
	PlusCode      sql.NullString
	CellVoltage   sql.NullFloat64
	AlertFired    bool
}
