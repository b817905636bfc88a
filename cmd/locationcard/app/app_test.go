package app

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dronewatch/geobeacon/internal/storage"
)

func float64Ptr(v float64) *float64 { return &v }

func TestBuildCardDirectCoordinates(t *testing.T) {
	config := NewConfig()
	config.Latitude = float64Ptr(51.5074)
	config.Longitude = float64Ptr(-0.1278)

	card, err := buildCard(config)
	if err != nil {
		t.Fatalf("buildCard() error = %v", err)
	}

	if card.PlusCode != "9C3XGV4C+XV8" {
		t.Errorf("PlusCode = %q, want %q", card.PlusCode, "9C3XGV4C+XV8")
	}
	if card.DistanceTotal != 0 {
		t.Errorf("DistanceTotal = %v, want 0", card.DistanceTotal)
	}
}

func TestBuildCardRejectsUnusableFix(t *testing.T) {
	for _, coord := range [][2]float64{{0, 0}, {91, 0}, {0, 181}} {
		config := NewConfig()
		config.Latitude = float64Ptr(coord[0])
		config.Longitude = float64Ptr(coord[1])

		if _, err := buildCard(config); err == nil {
			t.Errorf("buildCard(%v, %v) error = nil, want unusable fix error", coord[0], coord[1])
		}
	}
}

func TestBuildCardFromSession(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "session.sqlite")

	store := storage.New(dbPath)
	sessionID, err := store.CreateSession("replay", nil)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	captured := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	err = store.BatchInsertFixes([]storage.FixRecord{{
		SessionID:     sessionID,
		Timestamp:     captured,
		Latitude:      sql.NullFloat64{Float64: 37.7749, Valid: true},
		Longitude:     sql.NullFloat64{Float64: -122.4194, Valid: true},
		DistanceTotal: 2500,
		PlusCode:      sql.NullString{String: "849VQHFJ+X69", Valid: true},
	}})
	if err != nil {
		t.Fatalf("BatchInsertFixes() error = %v", err)
	}
	if err = store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	config := NewConfig()
	config.DBPath = dbPath
	config.SessionID = sessionID

	card, err := buildCard(config)
	if err != nil {
		t.Fatalf("buildCard() error = %v", err)
	}

	if card.Latitude != 37.7749 || card.Longitude != -122.4194 {
		t.Errorf("coordinate = %v, %v, want 37.7749, -122.4194", card.Latitude, card.Longitude)
	}
	if card.DistanceTotal != 2500 {
		t.Errorf("DistanceTotal = %v, want 2500", card.DistanceTotal)
	}
	if card.PlusCode != "849VQHFJ+X69" {
		t.Errorf("PlusCode = %q, want %q", card.PlusCode, "849VQHFJ+X69")
	}
	if !card.Captured.Equal(captured) {
		t.Errorf("Captured = %v, want %v", card.Captured, captured)
	}
}

func TestBuildCardEmptySession(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.sqlite")

	store := storage.New(dbPath)
	sessionID, err := store.CreateSession("replay", nil)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if err = store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	config := NewConfig()
	config.DBPath = dbPath
	config.SessionID = sessionID

	if _, err = buildCard(config); !errors.Is(err, storage.ErrNoFixes) {
		t.Errorf("buildCard() error = %v, want %v", err, storage.ErrNoFixes)
	}
}
