package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// IMPORTANT: users and trips must be created BEFORE the tables that
// reference them.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trips (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    destination TEXT,
    session_code TEXT NOT NULL UNIQUE,
    creator_id TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'active',
    created_at INTEGER NOT NULL,
    FOREIGN KEY (creator_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS trip_participants (
    trip_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    joined_at INTEGER NOT NULL,
    PRIMARY KEY (trip_id, user_id),
    FOREIGN KEY (trip_id) REFERENCES trips(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS milestones (
    id TEXT NOT NULL,
    trip_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    location TEXT,
    tags TEXT,
    created_at INTEGER NOT NULL,
    created_by TEXT,
    photo_count INTEGER NOT NULL DEFAULT 0,
    cover_photo_id TEXT,
    PRIMARY KEY (trip_id, id),
    FOREIGN KEY (trip_id) REFERENCES trips(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS photos (
    id TEXT NOT NULL,
    trip_id TEXT NOT NULL,
    milestone_id TEXT NOT NULL,
    storage_url TEXT,
    storage_path TEXT,
    thumbnail_url TEXT,
    description TEXT,
    tags TEXT,
    detected_people TEXT,
    location TEXT,
    uploaded_by TEXT,
    uploaded_at INTEGER NOT NULL,
    order_index INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (trip_id, id),
    FOREIGN KEY (trip_id) REFERENCES trips(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_trips_session_code ON trips(session_code);
CREATE INDEX IF NOT EXISTS idx_trip_participants_user_id ON trip_participants(user_id);
CREATE INDEX IF NOT EXISTS idx_milestones_trip_id ON milestones(trip_id);
CREATE INDEX IF NOT EXISTS idx_photos_trip_id ON photos(trip_id);
CREATE INDEX IF NOT EXISTS idx_photos_milestone_id ON photos(milestone_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
