package trip

import (
	"fmt"
	"strings"
	"time"

	"github.com/journi-app/journi/internal/models"
)

func (s *State) createMilestone(op CreateMilestone, actor string, now time.Time) (*Result, error) {
	if strings.TrimSpace(op.Name) == "" {
		return nil, validationf("milestone name is required")
	}

	s.MilestoneSeq++
	milestone := models.Milestone{
		ID:          fmt.Sprintf("milestone_%d", s.MilestoneSeq),
		Name:        strings.TrimSpace(op.Name),
		Description: op.Description,
		Location:    op.Location,
		Tags:        append([]string(nil), op.Tags...),
		CreatedAt:   now.Unix(),
		CreatedBy:   actor,
	}
	s.Milestones = append(s.Milestones, milestone)

	summary := fmt.Sprintf("Created milestone %s: %q", milestone.ID, milestone.Name)
	if milestone.Location != "" {
		summary += " in " + milestone.Location
	}
	return &Result{Summary: summary, Milestone: &milestone}, nil
}

func (s *State) editMilestone(op EditMilestone) (*Result, error) {
	idx := s.findMilestone(op.MilestoneID)
	if idx < 0 {
		return nil, notFound("milestone", op.MilestoneID)
	}

	milestone := &s.Milestones[idx]
	if op.Name != "" {
		milestone.Name = strings.TrimSpace(op.Name)
	}
	if op.Description != "" {
		milestone.Description = op.Description
	}
	if op.Location != "" {
		milestone.Location = op.Location
	}
	if op.CoverPhotoID != "" {
		milestone.CoverPhotoID = op.CoverPhotoID
	}

	return &Result{
		Summary:   fmt.Sprintf("Updated milestone %s: %q", milestone.ID, milestone.Name),
		Milestone: milestone,
	}, nil
}

func (s *State) deleteMilestone(op DeleteMilestone) (*Result, error) {
	idx := s.findMilestone(op.MilestoneID)
	if idx < 0 {
		return nil, notFound("milestone", op.MilestoneID)
	}

	deleted := s.Milestones[idx]
	s.Milestones = append(s.Milestones[:idx], s.Milestones[idx+1:]...)

	if op.DeletePhotos {
		kept := s.Photos[:0]
		for _, p := range s.Photos {
			if p.MilestoneID != deleted.ID {
				kept = append(kept, p)
			}
		}
		s.Photos = kept
	}
	// Without DeletePhotos the photos stay, referencing the removed
	// milestone.

	return &Result{
		Summary:   fmt.Sprintf("Deleted milestone %s: %q", deleted.ID, deleted.Name),
		Milestone: &deleted,
	}, nil
}

func (s *State) listMilestones() (*Result, error) {
	if len(s.Milestones) == 0 {
		return &Result{Summary: "No milestones yet"}, nil
	}
	lines := make([]string, 0, len(s.Milestones))
	for _, m := range s.Milestones {
		line := fmt.Sprintf("  - [%s] %s (%d photos)", m.ID, m.Name, m.PhotoCount)
		if m.Location != "" {
			line += " - " + m.Location
		}
		lines = append(lines, line)
	}
	milestones := make([]models.Milestone, len(s.Milestones))
	copy(milestones, s.Milestones)
	return &Result{
		Summary:    fmt.Sprintf("Milestones (%d total):\n%s", len(s.Milestones), strings.Join(lines, "\n")),
		Milestones: milestones,
	}, nil
}

func (s *State) registerPhoto(op RegisterPhoto, actor string, now time.Time) (*Result, error) {
	milestoneID := op.MilestoneID
	if milestoneID == "" {
		milestoneID = "last"
	}
	idx := s.findMilestone(milestoneID)
	if idx < 0 {
		return nil, notFound("milestone", op.MilestoneID)
	}
	milestone := &s.Milestones[idx]

	var upload models.PendingUpload
	if len(s.PendingUploads) > 0 {
		upload = s.PendingUploads[0]
		s.PendingUploads = s.PendingUploads[1:]
	}

	people := make([]string, 0, len(op.DetectedPeople))
	for _, name := range op.DetectedPeople {
		people = append(people, normalizeName(name))
	}

	s.PhotoSeq++
	photo := models.Photo{
		ID:             fmt.Sprintf("photo_%d", s.PhotoSeq),
		MilestoneID:    milestone.ID,
		StorageURL:     upload.URL,
		StoragePath:    upload.Path,
		Description:    op.Description,
		Tags:           append([]string(nil), op.Tags...),
		DetectedPeople: people,
		Location:       op.Location,
		UploadedBy:     actor,
		UploadedAt:     now.Unix(),
		OrderIndex:     s.milestonePhotoCount(milestone.ID),
	}
	s.Photos = append(s.Photos, photo)

	milestone.PhotoCount++
	if milestone.CoverPhotoID == "" {
		milestone.CoverPhotoID = photo.ID
	}

	return &Result{
		Summary: fmt.Sprintf("Saved photo %s to milestone %q: %s", photo.ID, milestone.Name, truncate(photo.Description, 50)),
		Photo:   &photo,
	}, nil
}

func (s *State) editPhoto(op EditPhoto) (*Result, error) {
	idx := s.findPhoto(op.PhotoID)
	if idx < 0 {
		return nil, notFound("photo", op.PhotoID)
	}
	if op.MilestoneID != "" && op.MilestoneID != "last" {
		if s.findMilestone(op.MilestoneID) < 0 {
			return nil, notFound("milestone", op.MilestoneID)
		}
	}

	photo := &s.Photos[idx]
	if op.Description != "" {
		photo.Description = op.Description
	}
	if len(op.Tags) > 0 {
		photo.Tags = append([]string(nil), op.Tags...)
	}
	if len(op.DetectedPeople) > 0 {
		people := make([]string, 0, len(op.DetectedPeople))
		for _, name := range op.DetectedPeople {
			people = append(people, normalizeName(name))
		}
		photo.DetectedPeople = people
	}
	if op.MilestoneID != "" {
		targetIdx := s.findMilestone(op.MilestoneID)
		target := &s.Milestones[targetIdx]
		if target.ID != photo.MilestoneID {
			for i := range s.Milestones {
				if s.Milestones[i].ID == photo.MilestoneID {
					if s.Milestones[i].PhotoCount > 0 {
						s.Milestones[i].PhotoCount--
					}
				}
			}
			target.PhotoCount++
			photo.MilestoneID = target.ID
		}
	}

	return &Result{
		Summary: fmt.Sprintf("Updated photo %s: %s", photo.ID, truncate(photo.Description, 30)),
		Photo:   photo,
	}, nil
}

func (s *State) deletePhoto(op DeletePhoto) (*Result, error) {
	idx := s.findPhoto(op.PhotoID)
	if idx < 0 {
		return nil, notFound("photo", op.PhotoID)
	}

	deleted := s.Photos[idx]
	s.Photos = append(s.Photos[:idx], s.Photos[idx+1:]...)

	for i := range s.Milestones {
		if s.Milestones[i].ID == deleted.MilestoneID {
			if s.Milestones[i].PhotoCount > 0 {
				s.Milestones[i].PhotoCount--
			}
			break
		}
	}

	return &Result{
		Summary: fmt.Sprintf("Deleted photo %s: %s", deleted.ID, truncate(deleted.Description, 30)),
		Photo:   &deleted,
	}, nil
}

func (s *State) listPhotos(op ListPhotos) (*Result, error) {
	milestoneID := op.MilestoneID
	if milestoneID == "last" {
		if len(s.Milestones) == 0 {
			return nil, notFound("milestone", "last")
		}
		milestoneID = s.Milestones[len(s.Milestones)-1].ID
	}

	var photos []models.Photo
	for _, p := range s.Photos {
		if milestoneID == "" || p.MilestoneID == milestoneID {
			photos = append(photos, p)
		}
	}

	if len(photos) == 0 {
		if milestoneID != "" {
			return &Result{Summary: "No photos in that milestone"}, nil
		}
		return &Result{Summary: "No photos registered yet"}, nil
	}

	lines := make([]string, 0, len(photos))
	for _, p := range photos {
		tags := p.Tags
		if len(tags) > 3 {
			tags = tags[:3]
		}
		lines = append(lines, fmt.Sprintf("  - [%s] %s (%s)", p.ID, truncate(p.Description, 40), strings.Join(tags, ", ")))
	}
	return &Result{
		Summary: fmt.Sprintf("Photos (%d total):\n%s", len(photos), strings.Join(lines, "\n")),
		Photos:  photos,
	}, nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
