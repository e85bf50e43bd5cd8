package models

// TripStatus is the lifecycle state of a trip.
type TripStatus string

const (
	// TripActive accepts new expenses, payments and photos.
	TripActive TripStatus = "active"
	// TripFinalized is read-only; the ledger has been settled.
	TripFinalized TripStatus = "finalized"
)

// Trip is the durable record behind a session. The conversational state
// lives in the checkpoint store keyed by the trip's thread; this row holds
// what outlives a conversation: who created it, how to join it, whether it
// is still active.
type Trip struct {
	// ID is the unique identifier for the trip (UUID format).
	ID string

	// Name is the display name ("Chile 2026").
	Name string

	// Destination is an optional destination label.
	Destination string

	// SessionCode is the short uppercase code participants use to join.
	// Unique across trips; compared case-insensitively.
	SessionCode string

	// CreatorID is the user ID of the trip creator. Only the creator can
	// delete or finalize the trip.
	CreatorID string

	// Status is the lifecycle state.
	Status TripStatus

	// Participants is the list of user IDs that joined the trip.
	Participants []string

	// CreatedAt is the Unix timestamp when the trip was created.
	CreatedAt int64
}
