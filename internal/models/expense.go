package models

// Expense represents a shared cost paid by one participant.
type Expense struct {
	// ID is the session-scoped identifier ("exp_1", "exp_2", ...).
	ID string `json:"id"`

	// Amount is the total paid, always positive.
	Amount float64 `json:"amount"`

	// Currency is the ISO-style uppercase code (PEN, CLP, USD, EUR, ...).
	// Immutable across edits.
	Currency string `json:"currency"`

	// Description is what the expense was for ("taxi", "almuerzo").
	Description string `json:"description"`

	// PaidBy is the display name of the participant who paid.
	PaidBy string `json:"paid_by"`

	// SplitAmong is the list of participants the cost is divided among.
	// Never empty once registered.
	SplitAmong []string `json:"split_among"`

	// SplitAmounts holds explicit per-person shares for unequal splits.
	// Nil for equal splits. When present, keys match SplitAmong and the
	// values sum to Amount within the balance epsilon.
	SplitAmounts map[string]float64 `json:"split_amounts,omitempty"`

	// CreatedAt is the Unix timestamp when the expense was registered.
	CreatedAt int64 `json:"created_at"`
}

// Payment represents a direct transfer between two participants,
// independent of any expense.
type Payment struct {
	// ID is the session-scoped identifier ("pay_1", "pay_2", ...).
	ID string `json:"id"`

	// FromUser is the participant who handed over the money.
	FromUser string `json:"from_user"`

	// ToUser is the participant who received it.
	ToUser string `json:"to_user"`

	// Amount is the transferred amount, always positive.
	Amount float64 `json:"amount"`

	// Currency is the uppercase currency code.
	Currency string `json:"currency"`

	// CreatedAt is the Unix timestamp when the payment was registered.
	CreatedAt int64 `json:"created_at"`
}
