package service

import (
	"github.com/journi-app/journi/internal/ledger"
	"github.com/journi-app/journi/internal/models"
	"github.com/journi-app/journi/internal/trip"
)

// Wire messages for the Connect services. These are plain structs
// serialized through the JSON codec in internal/rpc.

// User is the public view of an account; the password hash never leaves
// the server.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at"`
}

func userView(u *models.User) *User {
	return &User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GuestLoginRequest struct {
	DisplayName string `json:"display_name"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

type CreateTripRequest struct {
	Name        string `json:"name"`
	Destination string `json:"destination,omitempty"`
}

type JoinTripRequest struct {
	SessionCode string `json:"session_code"`
}

type GetTripRequest struct {
	TripID string `json:"trip_id"`
}

type ListTripsRequest struct{}

type ListTripsResponse struct {
	Trips []*models.Trip `json:"trips"`
}

type TripResponse struct {
	Trip *models.Trip `json:"trip"`
}

type FinalizeTripRequest struct {
	TripID string `json:"trip_id"`
}

type DeleteTripRequest struct {
	TripID string `json:"trip_id"`
}

type DeleteTripResponse struct{}

// FinalizeTripResponse carries the final settlement plan alongside the
// finalized trip.
type FinalizeTripResponse struct {
	Trip      *models.Trip                 `json:"trip"`
	Transfers map[string][]ledger.Transfer `json:"transfers,omitempty"`
}

// OpRequest wraps one structured ledger or catalog operation against a
// trip's session. Exactly one op field must be set.
type OpRequest struct {
	TripID string `json:"trip_id"`

	RegisterExpense *RegisterExpenseOp `json:"register_expense,omitempty"`
	EditExpense     *EditExpenseOp     `json:"edit_expense,omitempty"`
	DeleteExpense   *DeleteByIDOp      `json:"delete_expense,omitempty"`
	RegisterPayment *RegisterPaymentOp `json:"register_payment,omitempty"`
	GetBalance      *GetBalanceOp      `json:"get_balance,omitempty"`
	GetDebts        *EmptyOp           `json:"get_debts,omitempty"`
	ListExpenses    *EmptyOp           `json:"list_expenses,omitempty"`
	CreateMilestone *CreateMilestoneOp `json:"create_milestone,omitempty"`
	EditMilestone   *EditMilestoneOp   `json:"edit_milestone,omitempty"`
	DeleteMilestone *DeleteMilestoneOp `json:"delete_milestone,omitempty"`
	ListMilestones  *EmptyOp           `json:"list_milestones,omitempty"`
	RegisterPhoto   *RegisterPhotoOp   `json:"register_photo,omitempty"`
	EditPhoto       *EditPhotoOp       `json:"edit_photo,omitempty"`
	DeletePhoto     *DeleteByIDOp      `json:"delete_photo,omitempty"`
	ListPhotos      *ListPhotosOp      `json:"list_photos,omitempty"`
}

type RegisterExpenseOp struct {
	Amount       float64            `json:"amount"`
	Description  string             `json:"description"`
	PaidBy       string             `json:"paid_by"`
	Currency     string             `json:"currency,omitempty"`
	SplitAmong   []string           `json:"split_among,omitempty"`
	SplitAmounts map[string]float64 `json:"split_amounts,omitempty"`
}

type EditExpenseOp struct {
	ExpenseID   string   `json:"expense_id"`
	Amount      *float64 `json:"amount,omitempty"`
	Description *string  `json:"description,omitempty"`
	PaidBy      *string  `json:"paid_by,omitempty"`
	SplitAmong  []string `json:"split_among,omitempty"`
}

type DeleteByIDOp struct {
	ID string `json:"id"`
}

type RegisterPaymentOp struct {
	FromUser string  `json:"from_user"`
	ToUser   string  `json:"to_user"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency,omitempty"`
}

type GetBalanceOp struct {
	Person string `json:"person,omitempty"`
}

type EmptyOp struct{}

type CreateMilestoneOp struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type EditMilestoneOp struct {
	MilestoneID  string `json:"milestone_id"`
	Name         string `json:"name,omitempty"`
	Description  string `json:"description,omitempty"`
	Location     string `json:"location,omitempty"`
	CoverPhotoID string `json:"cover_photo_id,omitempty"`
}

type DeleteMilestoneOp struct {
	MilestoneID  string `json:"milestone_id"`
	DeletePhotos bool   `json:"delete_photos,omitempty"`
}

type RegisterPhotoOp struct {
	MilestoneID    string   `json:"milestone_id,omitempty"`
	Description    string   `json:"description,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	DetectedPeople []string `json:"detected_people,omitempty"`
	Location       string   `json:"location,omitempty"`
}

type EditPhotoOp struct {
	PhotoID        string   `json:"photo_id"`
	Description    string   `json:"description,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	DetectedPeople []string `json:"detected_people,omitempty"`
	MilestoneID    string   `json:"milestone_id,omitempty"`
}

type ListPhotosOp struct {
	MilestoneID string `json:"milestone_id,omitempty"`
}

// OpResponse is the outcome of one applied operation.
type OpResponse struct {
	Result *trip.Result `json:"result"`
}

type UploadPhotoRequest struct {
	TripID      string `json:"trip_id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	// Data is the raw image; encoding/json carries it base64-encoded.
	Data []byte `json:"data"`
}

type UploadPhotoResponse struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

type ChatRequest struct {
	TripID string `json:"trip_id"`
	Text   string `json:"text"`
}

type ChatPhotoRequest struct {
	TripID      string `json:"trip_id"`
	Caption     string `json:"caption,omitempty"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

// op converts the request to the single operation it carries.
func (r *OpRequest) op() (trip.Op, bool) {
	switch {
	case r.RegisterExpense != nil:
		o := r.RegisterExpense
		return trip.RegisterExpense{
			Amount:       o.Amount,
			Description:  o.Description,
			PaidBy:       o.PaidBy,
			Currency:     o.Currency,
			SplitAmong:   o.SplitAmong,
			SplitAmounts: o.SplitAmounts,
		}, true
	case r.EditExpense != nil:
		o := r.EditExpense
		return trip.EditExpense{
			ExpenseID:   o.ExpenseID,
			Amount:      o.Amount,
			Description: o.Description,
			PaidBy:      o.PaidBy,
			SplitAmong:  o.SplitAmong,
		}, true
	case r.DeleteExpense != nil:
		return trip.DeleteExpense{ExpenseID: r.DeleteExpense.ID}, true
	case r.RegisterPayment != nil:
		o := r.RegisterPayment
		return trip.RegisterPayment{
			FromUser: o.FromUser,
			ToUser:   o.ToUser,
			Amount:   o.Amount,
			Currency: o.Currency,
		}, true
	case r.GetBalance != nil:
		return trip.GetBalance{Person: r.GetBalance.Person}, true
	case r.GetDebts != nil:
		return trip.GetDebts{}, true
	case r.ListExpenses != nil:
		return trip.ListExpenses{}, true
	case r.CreateMilestone != nil:
		o := r.CreateMilestone
		return trip.CreateMilestone{
			Name:        o.Name,
			Description: o.Description,
			Location:    o.Location,
			Tags:        o.Tags,
		}, true
	case r.EditMilestone != nil:
		o := r.EditMilestone
		return trip.EditMilestone{
			MilestoneID:  o.MilestoneID,
			Name:         o.Name,
			Description:  o.Description,
			Location:     o.Location,
			CoverPhotoID: o.CoverPhotoID,
		}, true
	case r.DeleteMilestone != nil:
		o := r.DeleteMilestone
		return trip.DeleteMilestone{MilestoneID: o.MilestoneID, DeletePhotos: o.DeletePhotos}, true
	case r.ListMilestones != nil:
		return trip.ListMilestones{}, true
	case r.RegisterPhoto != nil:
		o := r.RegisterPhoto
		return trip.RegisterPhoto{
			MilestoneID:    o.MilestoneID,
			Description:    o.Description,
			Tags:           o.Tags,
			DetectedPeople: o.DetectedPeople,
			Location:       o.Location,
		}, true
	case r.EditPhoto != nil:
		o := r.EditPhoto
		return trip.EditPhoto{
			PhotoID:        o.PhotoID,
			Description:    o.Description,
			Tags:           o.Tags,
			DetectedPeople: o.DetectedPeople,
			MilestoneID:    o.MilestoneID,
		}, true
	case r.DeletePhoto != nil:
		return trip.DeletePhoto{PhotoID: r.DeletePhoto.ID}, true
	case r.ListPhotos != nil:
		return trip.ListPhotos{MilestoneID: r.ListPhotos.MilestoneID}, true
	default:
		return nil, false
	}
}

// opName labels the operation for logs and metrics.
func opName(op trip.Op) string {
	switch op.(type) {
	case trip.RegisterExpense:
		return "register_expense"
	case trip.EditExpense:
		return "edit_expense"
	case trip.DeleteExpense:
		return "delete_expense"
	case trip.RegisterPayment:
		return "register_payment"
	case trip.GetBalance:
		return "get_balance"
	case trip.GetDebts:
		return "get_debts"
	case trip.ListExpenses:
		return "list_expenses"
	case trip.CreateMilestone:
		return "create_milestone"
	case trip.EditMilestone:
		return "edit_milestone"
	case trip.DeleteMilestone:
		return "delete_milestone"
	case trip.ListMilestones:
		return "list_milestones"
	case trip.RegisterPhoto:
		return "register_photo"
	case trip.EditPhoto:
		return "edit_photo"
	case trip.DeletePhoto:
		return "delete_photo"
	case trip.ListPhotos:
		return "list_photos"
	default:
		return "unknown"
	}
}
