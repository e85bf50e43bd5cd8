package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/journi-app/journi/internal/models"
)

// ArchiveCatalog replaces the trip's stored milestones and photos with
// the given snapshot. Called when a trip is finalized so the catalog
// outlives the conversation session.
func (s *SQLiteStore) ArchiveCatalog(ctx context.Context, tripID string, milestones []models.Milestone, photos []models.Photo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM milestones WHERE trip_id = ?", tripID); err != nil {
		return fmt.Errorf("failed to clear milestones: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM photos WHERE trip_id = ?", tripID); err != nil {
		return fmt.Errorf("failed to clear photos: %w", err)
	}

	for _, m := range milestones {
		tags, err := encodeStrings(m.Tags)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO milestones (id, trip_id, name, description, location, tags, created_at, created_by, photo_count, cover_photo_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, tripID, m.Name, m.Description, m.Location, tags, m.CreatedAt, m.CreatedBy, m.PhotoCount, m.CoverPhotoID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert milestone: %w", err)
		}
	}

	for _, p := range photos {
		tags, err := encodeStrings(p.Tags)
		if err != nil {
			return err
		}
		people, err := encodeStrings(p.DetectedPeople)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO photos (id, trip_id, milestone_id, storage_url, storage_path, thumbnail_url, description, tags, detected_people, location, uploaded_by, uploaded_at, order_index)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, tripID, p.MilestoneID, p.StorageURL, p.StoragePath, p.ThumbnailURL, p.Description, tags, people, p.Location, p.UploadedBy, p.UploadedAt, p.OrderIndex,
		)
		if err != nil {
			return fmt.Errorf("failed to insert photo: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetCatalog retrieves a trip's archived milestones and photos.
func (s *SQLiteStore) GetCatalog(ctx context.Context, tripID string) ([]models.Milestone, []models.Photo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, location, tags, created_at, created_by, photo_count, cover_photo_id
		 FROM milestones WHERE trip_id = ? ORDER BY created_at, id`,
		tripID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get milestones: %w", err)
	}
	defer rows.Close()

	var milestones []models.Milestone
	for rows.Next() {
		var m models.Milestone
		var tags string
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Location, &tags, &m.CreatedAt, &m.CreatedBy, &m.PhotoCount, &m.CoverPhotoID); err != nil {
			return nil, nil, fmt.Errorf("failed to scan milestone: %w", err)
		}
		if m.Tags, err = decodeStrings(tags); err != nil {
			return nil, nil, err
		}
		milestones = append(milestones, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate milestones: %w", err)
	}

	photoRows, err := s.db.QueryContext(ctx,
		`SELECT id, milestone_id, storage_url, storage_path, thumbnail_url, description, tags, detected_people, location, uploaded_by, uploaded_at, order_index
		 FROM photos WHERE trip_id = ? ORDER BY milestone_id, order_index, id`,
		tripID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get photos: %w", err)
	}
	defer photoRows.Close()

	var photos []models.Photo
	for photoRows.Next() {
		var p models.Photo
		var tags, people string
		if err := photoRows.Scan(&p.ID, &p.MilestoneID, &p.StorageURL, &p.StoragePath, &p.ThumbnailURL, &p.Description, &tags, &people, &p.Location, &p.UploadedBy, &p.UploadedAt, &p.OrderIndex); err != nil {
			return nil, nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		if p.Tags, err = decodeStrings(tags); err != nil {
			return nil, nil, err
		}
		if p.DetectedPeople, err = decodeStrings(people); err != nil {
			return nil, nil, err
		}
		photos = append(photos, p)
	}
	if err := photoRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate photos: %w", err)
	}

	return milestones, photos, nil
}

// encodeStrings stores a string list as a JSON array column.
func encodeStrings(values []string) (string, error) {
	if len(values) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode string list: %w", err)
	}
	return string(data), nil
}

func decodeStrings(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("failed to decode string list: %w", err)
	}
	return values, nil
}
