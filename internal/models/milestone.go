package models

// Milestone is a named moment of the trip that groups photos
// ("Sky Costanera", "Almuerzo en La Mar").
type Milestone struct {
	// ID is the session-scoped identifier ("milestone_1", ...).
	ID string `json:"id"`

	// Name is the display name of the moment.
	Name string `json:"name"`

	// Description is an optional longer description.
	Description string `json:"description,omitempty"`

	// Location is an optional city or place name.
	Location string `json:"location,omitempty"`

	// Tags categorize the milestone ("comida", "mirador").
	Tags []string `json:"tags"`

	// CreatedAt is the Unix timestamp when the milestone was created.
	CreatedAt int64 `json:"created_at"`

	// CreatedBy is the display name of the participant who created it.
	CreatedBy string `json:"created_by"`

	// PhotoCount tracks how many photos reference this milestone.
	// Kept in lockstep with photo registration/deletion, floored at zero.
	PhotoCount int `json:"photo_count"`

	// CoverPhotoID is the photo shown as cover, set to the first photo
	// registered in the milestone unless edited. May dangle after the
	// referenced photo is deleted.
	CoverPhotoID string `json:"cover_photo_id,omitempty"`
}

// Photo is an uploaded photo with model-generated metadata.
type Photo struct {
	// ID is the session-scoped identifier ("photo_1", ...).
	ID string `json:"id"`

	// MilestoneID references the owning milestone. A non-cascading
	// milestone delete leaves this pointing at a removed milestone.
	MilestoneID string `json:"milestone_id"`

	// StorageURL is the public URL returned by the blob store.
	StorageURL string `json:"storage_url"`

	// StoragePath is the bucket-relative path, used for deletion.
	StoragePath string `json:"storage_path"`

	// ThumbnailURL is an optional smaller rendition.
	ThumbnailURL string `json:"thumbnail_url,omitempty"`

	// Description is what the photo shows.
	Description string `json:"description"`

	// Tags categorize the photo ("paisaje", "grupo", "selfie").
	Tags []string `json:"tags"`

	// DetectedPeople lists participants recognized in the photo.
	DetectedPeople []string `json:"detected_people"`

	// Location is the inferred place, if visible.
	Location string `json:"location,omitempty"`

	// UploadedBy is the display name of the uploader.
	UploadedBy string `json:"uploaded_by"`

	// UploadedAt is the Unix timestamp of registration.
	UploadedAt int64 `json:"uploaded_at"`

	// OrderIndex is the photo's append position within its milestone at
	// registration time. Not unique across milestones.
	OrderIndex int `json:"order_index"`
}

// PendingUpload is a blob already uploaded to storage but not yet claimed
// by a register-photo operation.
type PendingUpload struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}
