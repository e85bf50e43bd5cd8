// Package trip implements the session state machine: an in-memory
// snapshot of one trip's expenses, payments, balances, milestones and
// photos, mutated exclusively through the closed Op union in op.go.
//
// The package performs no locking and no I/O. Callers (internal/session)
// serialize mutations per session and persist snapshots through the
// checkpoint store. Every operation either returns a result with the
// snapshot updated, or an error with the snapshot untouched; partially
// applied mutations are never observable.
package trip

import (
	"strings"

	"github.com/journi-app/journi/internal/ledger"
	"github.com/journi-app/journi/internal/models"
)

// State is the complete snapshot of one session. It round-trips through
// JSON for checkpointing.
type State struct {
	SessionName  string            `json:"session_name"`
	Expenses     []models.Expense  `json:"expenses"`
	Payments     []models.Payment  `json:"payments"`
	Participants []string          `json:"participants"`
	Balances     ledger.Balances   `json:"balances"`

	Milestones []models.Milestone `json:"milestones"`
	Photos     []models.Photo     `json:"photos"`

	// PendingUploads are blobs uploaded ahead of register-photo calls,
	// consumed oldest-first.
	PendingUploads []models.PendingUpload `json:"pending_uploads,omitempty"`

	// Counters back the short record IDs. They only ever grow, so a
	// delete followed by a register never reissues an ID.
	ExpenseSeq   int `json:"expense_seq"`
	PaymentSeq   int `json:"payment_seq"`
	MilestoneSeq int `json:"milestone_seq"`
	PhotoSeq     int `json:"photo_seq"`
}

// NewState creates an empty snapshot for a fresh session.
func NewState(sessionName string, participants []string) *State {
	st := &State{
		SessionName: sessionName,
		Balances:    make(ledger.Balances),
	}
	for _, p := range participants {
		st.enroll(normalizeName(p))
	}
	return st
}

// normalizeName trims surrounding whitespace. Case is preserved for
// display; "Meli" and "meli" are distinct participants.
func normalizeName(name string) string {
	return strings.TrimSpace(name)
}

// normalizeCurrency uppercases a currency code, defaulting when empty.
func normalizeCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "PEN"
	}
	return code
}

// enroll adds a name to the participant roster if not already present.
// Enrollment is never reversed, even when the operation that introduced
// the name is later deleted.
func (s *State) enroll(name string) {
	if name == "" {
		return
	}
	for _, p := range s.Participants {
		if p == name {
			return
		}
	}
	s.Participants = append(s.Participants, name)
}

// findExpense resolves an expense ID, where "last" addresses the most
// recently registered expense. Returns -1 if not found.
func (s *State) findExpense(id string) int {
	if id == "last" {
		return len(s.Expenses) - 1
	}
	for i, e := range s.Expenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *State) findMilestone(id string) int {
	if id == "last" {
		return len(s.Milestones) - 1
	}
	for i, m := range s.Milestones {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (s *State) findPhoto(id string) int {
	if id == "last" {
		return len(s.Photos) - 1
	}
	for i, p := range s.Photos {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// milestonePhotoCount counts photos currently referencing a milestone.
func (s *State) milestonePhotoCount(milestoneID string) int {
	n := 0
	for _, p := range s.Photos {
		if p.MilestoneID == milestoneID {
			n++
		}
	}
	return n
}

// QueueUpload records an already-uploaded blob for the next
// register-photo operation.
func (s *State) QueueUpload(url, path string) {
	s.PendingUploads = append(s.PendingUploads, models.PendingUpload{URL: url, Path: path})
}
