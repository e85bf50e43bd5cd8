// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/journi-app/journi/internal/models"
	"github.com/journi-app/journi/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateUser persists a new user account.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, email, display_name, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		user.ID, user.Email, user.DisplayName, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.getUser(ctx, "SELECT id, email, display_name, password_hash, created_at, updated_at FROM users WHERE id = ?", userID)
}

// GetUserByEmail retrieves a user by email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "SELECT id, email, display_name, password_hash, created_at, updated_at FROM users WHERE email = ?", email)
}

func (s *SQLiteStore) getUser(ctx context.Context, query, arg string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// CreateTrip persists a new trip and its initial participants.
func (s *SQLiteStore) CreateTrip(ctx context.Context, trip *models.Trip) error {
	if trip.ID == "" {
		trip.ID = uuid.New().String()
	}
	if trip.SessionCode == "" {
		code, err := generateSessionCode()
		if err != nil {
			return err
		}
		trip.SessionCode = code
	}
	if trip.CreatedAt == 0 {
		trip.CreatedAt = time.Now().Unix()
	}
	if trip.Status == "" {
		trip.Status = models.TripActive
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO trips (id, name, destination, session_code, creator_id, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		trip.ID, trip.Name, trip.Destination, trip.SessionCode, trip.CreatorID, string(trip.Status), trip.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trip: %w", err)
	}

	for _, userID := range trip.Participants {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO trip_participants (trip_id, user_id, joined_at) VALUES (?, ?, ?)",
			trip.ID, userID, trip.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetTrip retrieves a trip by ID, including participants.
func (s *SQLiteStore) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	return s.getTrip(ctx, "SELECT id, name, destination, session_code, creator_id, status, created_at FROM trips WHERE id = ?", tripID)
}

// GetTripByCode retrieves a trip by its join code. Codes are stored
// uppercase, so lookup is case-insensitive.
func (s *SQLiteStore) GetTripByCode(ctx context.Context, sessionCode string) (*models.Trip, error) {
	return s.getTrip(ctx, "SELECT id, name, destination, session_code, creator_id, status, created_at FROM trips WHERE session_code = ?", strings.ToUpper(sessionCode))
}

func (s *SQLiteStore) getTrip(ctx context.Context, query, arg string) (*models.Trip, error) {
	trip := &models.Trip{}
	var status string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&trip.ID, &trip.Name, &trip.Destination, &trip.SessionCode, &trip.CreatorID, &status, &trip.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	trip.Status = models.TripStatus(status)

	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM trip_participants WHERE trip_id = ? ORDER BY joined_at, user_id",
		trip.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		trip.Participants = append(trip.Participants, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return trip, nil
}

// ListTripsByUser retrieves the trips a user participates in.
func (s *SQLiteStore) ListTripsByUser(ctx context.Context, userID string) ([]*models.Trip, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id FROM trips t
		JOIN trip_participants p ON p.trip_id = t.id
		WHERE p.user_id = ?
		ORDER BY t.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan trip id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trips: %w", err)
	}

	trips := make([]*models.Trip, 0, len(ids))
	for _, id := range ids {
		trip, err := s.GetTrip(ctx, id)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, nil
}

// AddParticipant adds a user to a trip.
func (s *SQLiteStore) AddParticipant(ctx context.Context, tripID, userID string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM trips WHERE id = ?", tripID).Scan(&exists)
	if err == sql.ErrNoRows {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check trip existence: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO trip_participants (trip_id, user_id, joined_at) VALUES (?, ?, ?)",
		tripID, userID, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	return nil
}

// FinalizeTrip marks a trip as finalized.
func (s *SQLiteStore) FinalizeTrip(ctx context.Context, tripID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE trips SET status = ? WHERE id = ?",
		string(models.TripFinalized), tripID,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize trip: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check finalize result: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteTrip removes a trip; participant, milestone and photo rows go
// with it through the cascade.
func (s *SQLiteStore) DeleteTrip(ctx context.Context, tripID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM trips WHERE id = ?", tripID)
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// sessionCodeAlphabet omits easily confused characters (0/O, 1/I).
const sessionCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateSessionCode() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session code: %w", err)
	}
	for i, b := range buf {
		buf[i] = sessionCodeAlphabet[int(b)%len(sessionCodeAlphabet)]
	}
	return string(buf), nil
}
