package trip

import (
	"time"

	"github.com/journi-app/journi/internal/ledger"
	"github.com/journi-app/journi/internal/models"
)

// Op is the closed set of operations that can be applied to a session
// snapshot. The language model's tool calls, the structured RPC surface
// and the tests all funnel through the same union, dispatched in Apply.
type Op interface {
	isOp()
}

// RegisterExpense records a new shared cost.
// Exactly one of SplitAmong (equal split) or SplitAmounts (explicit
// per-person shares) may be supplied; with neither, the cost is split
// equally across the whole roster, or assigned to the payer alone when
// the roster is still empty.
type RegisterExpense struct {
	Amount       float64
	Description  string
	PaidBy       string
	Currency     string
	SplitAmong   []string
	SplitAmounts map[string]float64
}

// EditExpense reverses the target expense's ledger effect, applies the
// non-nil field overrides, and reapplies. Currency is immutable.
// ExpenseID may be "last".
type EditExpense struct {
	ExpenseID   string
	Amount      *float64
	Description *string
	PaidBy      *string
	SplitAmong  []string
}

// DeleteExpense reverses and removes the target expense.
type DeleteExpense struct {
	ExpenseID string
}

// RegisterPayment records a direct transfer between two participants.
type RegisterPayment struct {
	FromUser string
	ToUser   string
	Amount   float64
	Currency string
}

// GetBalance reports one person's balances, or everyone's when Person
// is empty.
type GetBalance struct {
	Person string
}

// GetDebts computes the settlement transfer list per currency.
type GetDebts struct{}

// ListExpenses reports all registered expenses.
type ListExpenses struct{}

// CreateMilestone opens a new photo grouping.
type CreateMilestone struct {
	Name        string
	Description string
	Location    string
	Tags        []string
}

// EditMilestone overrides the non-empty fields of a milestone.
// MilestoneID may be "last".
type EditMilestone struct {
	MilestoneID  string
	Name         string
	Description  string
	Location     string
	CoverPhotoID string
}

// DeleteMilestone removes a milestone. With DeletePhotos the milestone's
// photos are removed too; without it they are left referencing the
// deleted milestone.
type DeleteMilestone struct {
	MilestoneID  string
	DeletePhotos bool
}

// ListMilestones reports all milestones.
type ListMilestones struct{}

// RegisterPhoto attaches an analyzed photo to a milestone, consuming the
// oldest pending upload for its storage location. MilestoneID defaults
// to "last".
type RegisterPhoto struct {
	MilestoneID    string
	Description    string
	Tags           []string
	DetectedPeople []string
	Location       string
}

// EditPhoto overrides photo metadata; a new MilestoneID moves the photo
// and adjusts both milestones' photo counts. PhotoID may be "last".
type EditPhoto struct {
	PhotoID        string
	Description    string
	Tags           []string
	DetectedPeople []string
	MilestoneID    string
}

// DeletePhoto removes a photo and decrements its milestone's count.
type DeletePhoto struct {
	PhotoID string
}

// ListPhotos reports photos, optionally restricted to one milestone.
type ListPhotos struct {
	MilestoneID string
}

func (RegisterExpense) isOp() {}
func (EditExpense) isOp()     {}
func (DeleteExpense) isOp()   {}
func (RegisterPayment) isOp() {}
func (GetBalance) isOp()      {}
func (GetDebts) isOp()        {}
func (ListExpenses) isOp()    {}
func (CreateMilestone) isOp() {}
func (EditMilestone) isOp()   {}
func (DeleteMilestone) isOp() {}
func (ListMilestones) isOp()  {}
func (RegisterPhoto) isOp()   {}
func (EditPhoto) isOp()       {}
func (DeletePhoto) isOp()     {}
func (ListPhotos) isOp()      {}

// Result is the structured outcome of one applied operation, plus a
// short human-readable summary for the conversation layer.
type Result struct {
	Summary string `json:"summary"`

	Expense *models.Expense `json:"expense,omitempty"`
	Payment *models.Payment `json:"payment,omitempty"`
	// PayerSettled is set when a payment brought the payer's balance in
	// that currency within epsilon of zero.
	PayerSettled bool `json:"payer_settled,omitempty"`

	Milestone *models.Milestone `json:"milestone,omitempty"`
	Photo     *models.Photo     `json:"photo,omitempty"`

	Expenses   []models.Expense             `json:"expenses,omitempty"`
	Milestones []models.Milestone           `json:"milestones,omitempty"`
	Photos     []models.Photo               `json:"photos,omitempty"`
	Transfers  map[string][]ledger.Transfer `json:"transfers,omitempty"`
}

// Apply executes op against the snapshot. actor is the display name of
// the user speaking (recorded as creator/uploader); now stamps created
// records. On error the snapshot is unchanged.
func (s *State) Apply(op Op, actor string, now time.Time) (*Result, error) {
	switch op := op.(type) {
	case RegisterExpense:
		return s.registerExpense(op, now)
	case EditExpense:
		return s.editExpense(op)
	case DeleteExpense:
		return s.deleteExpense(op)
	case RegisterPayment:
		return s.registerPayment(op, now)
	case GetBalance:
		return s.getBalance(op)
	case GetDebts:
		return s.getDebts()
	case ListExpenses:
		return s.listExpenses()
	case CreateMilestone:
		return s.createMilestone(op, actor, now)
	case EditMilestone:
		return s.editMilestone(op)
	case DeleteMilestone:
		return s.deleteMilestone(op)
	case ListMilestones:
		return s.listMilestones()
	case RegisterPhoto:
		return s.registerPhoto(op, actor, now)
	case EditPhoto:
		return s.editPhoto(op)
	case DeletePhoto:
		return s.deletePhoto(op)
	case ListPhotos:
		return s.listPhotos(op)
	default:
		return nil, validationf("unknown operation %T", op)
	}
}
