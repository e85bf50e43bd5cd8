// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/journi-app/journi/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("storage: record not found")

// Store defines the interface for durable trip storage. This abstraction
// allows swapping storage backends (SQLite, PostgreSQL, etc.) without
// changing the service layer.
type Store interface {
	// CreateUser persists a new user account.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, userID string) (*models.User, error)

	// GetUserByEmail retrieves a user by email address.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// CreateTrip persists a new trip and its initial participants.
	// The trip.ID and trip.SessionCode fields will be populated by the
	// store if empty.
	CreateTrip(ctx context.Context, trip *models.Trip) error

	// GetTrip retrieves a trip by its ID, including participants.
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)

	// GetTripByCode retrieves a trip by its join code.
	GetTripByCode(ctx context.Context, sessionCode string) (*models.Trip, error)

	// ListTripsByUser retrieves the trips a user participates in, most
	// recent first.
	ListTripsByUser(ctx context.Context, userID string) ([]*models.Trip, error)

	// AddParticipant adds a user to a trip. Adding an existing
	// participant is a no-op.
	AddParticipant(ctx context.Context, tripID, userID string) error

	// FinalizeTrip marks a trip as finalized. Finalized trips no longer
	// accept joins.
	FinalizeTrip(ctx context.Context, tripID string) error

	// DeleteTrip removes a trip and its dependent records.
	DeleteTrip(ctx context.Context, tripID string) error

	// ArchiveCatalog replaces the trip's stored milestones and photos
	// with the given snapshot.
	ArchiveCatalog(ctx context.Context, tripID string, milestones []models.Milestone, photos []models.Photo) error

	// GetCatalog retrieves a trip's archived milestones and photos.
	GetCatalog(ctx context.Context, tripID string) ([]models.Milestone, []models.Photo, error)

	// Close releases any resources held by the store.
	Close() error
}
