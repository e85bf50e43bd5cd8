package trip

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/journi-app/journi/internal/ledger"
	"github.com/journi-app/journi/internal/models"
)

func (s *State) registerExpense(op RegisterExpense, now time.Time) (*Result, error) {
	if op.Amount <= 0 {
		return nil, validationf("expense amount must be positive, got %.2f", op.Amount)
	}
	if len(op.SplitAmong) > 0 && len(op.SplitAmounts) > 0 {
		return nil, validationf("ambiguous split: use split_among or split_amounts, not both")
	}

	paidBy := normalizeName(op.PaidBy)
	if paidBy == "" {
		return nil, validationf("paid_by is required")
	}
	currency := normalizeCurrency(op.Currency)

	var splitList []string
	var splitAmounts map[string]float64
	if len(op.SplitAmounts) > 0 {
		// Normalize names before validating: keys that collapse to the
		// same participant must not pass on their combined raw sum.
		splitAmounts = make(map[string]float64, len(op.SplitAmounts))
		for name, share := range op.SplitAmounts {
			splitAmounts[normalizeName(name)] = share
		}
		total := 0.0
		for _, share := range splitAmounts {
			total += share
		}
		if !ledger.Settled(total - op.Amount) {
			return nil, validationf("split mismatch: shares sum to %.2f but the expense is %.2f", total, op.Amount)
		}
		for name := range splitAmounts {
			splitList = append(splitList, name)
		}
		sort.Strings(splitList)
	} else {
		switch {
		case len(op.SplitAmong) > 0:
			for _, name := range op.SplitAmong {
				splitList = append(splitList, normalizeName(name))
			}
		case len(s.Participants) > 0:
			splitList = append(splitList, s.Participants...)
		default:
			splitList = []string{paidBy}
		}
	}

	s.enroll(paidBy)
	for _, name := range splitList {
		s.enroll(name)
	}

	s.ExpenseSeq++
	expense := models.Expense{
		ID:           fmt.Sprintf("exp_%d", s.ExpenseSeq),
		Amount:       op.Amount,
		Currency:     currency,
		Description:  op.Description,
		PaidBy:       paidBy,
		SplitAmong:   splitList,
		SplitAmounts: splitAmounts,
		CreatedAt:    now.Unix(),
	}
	s.Expenses = append(s.Expenses, expense)
	s.applyExpense(&expense, 1)

	var summary string
	if splitAmounts != nil {
		parts := make([]string, 0, len(splitList))
		for _, name := range splitList {
			parts = append(parts, fmt.Sprintf("%s: %.2f", name, splitAmounts[name]))
		}
		summary = fmt.Sprintf("Registered expense %s: %.2f %s for %q, paid by %s. Split: %s",
			expense.ID, expense.Amount, currency, expense.Description, paidBy, strings.Join(parts, ", "))
	} else {
		summary = fmt.Sprintf("Registered expense %s: %.2f %s for %q, paid by %s, split among %d people",
			expense.ID, expense.Amount, currency, expense.Description, paidBy, len(splitList))
	}
	return &Result{Summary: summary, Expense: &expense}, nil
}

// applyExpense adjusts balances for an expense. sign is +1 to apply,
// -1 to reverse. An expense with stored per-person shares is reversed
// with those shares; anything else uses the equal split.
func (s *State) applyExpense(e *models.Expense, sign float64) {
	s.Balances.Adjust(e.PaidBy, e.Currency, sign*e.Amount)
	if e.SplitAmounts != nil {
		for name, share := range e.SplitAmounts {
			s.Balances.Adjust(name, e.Currency, -sign*share)
		}
		return
	}
	perPerson := e.Amount / float64(len(e.SplitAmong))
	for _, name := range e.SplitAmong {
		s.Balances.Adjust(name, e.Currency, -sign*perPerson)
	}
}

func (s *State) editExpense(op EditExpense) (*Result, error) {
	idx := s.findExpense(op.ExpenseID)
	if idx < 0 {
		return nil, notFound("expense", op.ExpenseID)
	}
	if op.Amount != nil && *op.Amount <= 0 {
		return nil, validationf("expense amount must be positive, got %.2f", *op.Amount)
	}

	expense := &s.Expenses[idx]
	s.applyExpense(expense, -1)

	if op.Amount != nil {
		expense.Amount = *op.Amount
	}
	if op.Description != nil {
		expense.Description = *op.Description
	}
	if op.PaidBy != nil {
		paidBy := normalizeName(*op.PaidBy)
		expense.PaidBy = paidBy
		s.enroll(paidBy)
	}
	if len(op.SplitAmong) > 0 {
		split := make([]string, 0, len(op.SplitAmong))
		for _, name := range op.SplitAmong {
			split = append(split, normalizeName(name))
		}
		expense.SplitAmong = split
		// The edit surface only expresses equal splits.
		expense.SplitAmounts = nil
		for _, name := range split {
			s.enroll(name)
		}
	}
	if expense.SplitAmounts != nil {
		// An amount change can leave stored shares stale; fall back to
		// an equal split rather than reapply shares that no longer sum.
		total := 0.0
		for _, share := range expense.SplitAmounts {
			total += share
		}
		if !ledger.Settled(total - expense.Amount) {
			expense.SplitAmounts = nil
		}
	}

	s.applyExpense(expense, 1)

	summary := fmt.Sprintf("Updated expense %s: %.2f %s for %q, paid by %s, split among %s",
		expense.ID, expense.Amount, expense.Currency, expense.Description,
		expense.PaidBy, strings.Join(expense.SplitAmong, ", "))
	return &Result{Summary: summary, Expense: expense}, nil
}

func (s *State) deleteExpense(op DeleteExpense) (*Result, error) {
	idx := s.findExpense(op.ExpenseID)
	if idx < 0 {
		return nil, notFound("expense", op.ExpenseID)
	}

	deleted := s.Expenses[idx]
	s.applyExpense(&deleted, -1)
	s.Expenses = append(s.Expenses[:idx], s.Expenses[idx+1:]...)

	summary := fmt.Sprintf("Deleted expense %s: %.2f %s for %q",
		deleted.ID, deleted.Amount, deleted.Currency, deleted.Description)
	return &Result{Summary: summary, Expense: &deleted}, nil
}

func (s *State) registerPayment(op RegisterPayment, now time.Time) (*Result, error) {
	if op.Amount <= 0 {
		return nil, validationf("payment amount must be positive, got %.2f", op.Amount)
	}
	fromUser := normalizeName(op.FromUser)
	toUser := normalizeName(op.ToUser)
	if fromUser == "" || toUser == "" {
		return nil, validationf("payment requires both from_user and to_user")
	}
	currency := normalizeCurrency(op.Currency)

	s.enroll(fromUser)
	s.enroll(toUser)

	s.PaymentSeq++
	payment := models.Payment{
		ID:        fmt.Sprintf("pay_%d", s.PaymentSeq),
		FromUser:  fromUser,
		ToUser:    toUser,
		Amount:    op.Amount,
		Currency:  currency,
		CreatedAt: now.Unix(),
	}
	s.Payments = append(s.Payments, payment)

	// The payer's balance goes up (they owe less), the receiver's down.
	s.Balances.Adjust(fromUser, currency, op.Amount)
	s.Balances.Adjust(toUser, currency, -op.Amount)

	summary := fmt.Sprintf("Registered payment %s: %s paid %.2f %s to %s",
		payment.ID, fromUser, op.Amount, currency, toUser)
	settled := ledger.Settled(s.Balances.Get(fromUser, currency))
	if settled {
		summary += fmt.Sprintf(". %s is now settled in %s", fromUser, currency)
	}
	return &Result{Summary: summary, Payment: &payment, PayerSettled: settled}, nil
}

func (s *State) getBalance(op GetBalance) (*Result, error) {
	person := normalizeName(op.Person)
	if person != "" {
		var parts []string
		perCurrency := s.Balances[person]
		for _, currency := range sortedKeys(perCurrency) {
			if bal := perCurrency[currency]; !ledger.Settled(bal) {
				parts = append(parts, fmt.Sprintf("%+.2f %s", bal, currency))
			}
		}
		if len(parts) == 0 {
			return &Result{Summary: fmt.Sprintf("Balance for %s: all settled", person)}, nil
		}
		return &Result{Summary: fmt.Sprintf("Balance for %s: %s", person, strings.Join(parts, ", "))}, nil
	}

	var lines []string
	for _, name := range s.Balances.Participants() {
		perCurrency := s.Balances[name]
		var parts []string
		for _, currency := range sortedKeys(perCurrency) {
			if bal := perCurrency[currency]; !ledger.Settled(bal) {
				parts = append(parts, fmt.Sprintf("%+.2f %s", bal, currency))
			}
		}
		if len(parts) > 0 {
			lines = append(lines, fmt.Sprintf("  %s: %s", name, strings.Join(parts, ", ")))
		}
	}
	if len(lines) == 0 {
		return &Result{Summary: "Everyone is settled"}, nil
	}
	return &Result{Summary: "Current balances:\n" + strings.Join(lines, "\n")}, nil
}

func (s *State) getDebts() (*Result, error) {
	transfers := ledger.Settle(s.Balances)
	if len(transfers) == 0 {
		return &Result{Summary: "No outstanding debts", Transfers: transfers}, nil
	}

	var lines []string
	for _, currency := range sortedKeys(transfers) {
		for _, tr := range transfers[currency] {
			lines = append(lines, fmt.Sprintf("  %s owes %s %.2f %s", tr.From, tr.To, tr.Amount, currency))
		}
	}
	return &Result{
		Summary:   "Outstanding debts:\n" + strings.Join(lines, "\n"),
		Transfers: transfers,
	}, nil
}

func (s *State) listExpenses() (*Result, error) {
	if len(s.Expenses) == 0 {
		return &Result{Summary: "No expenses registered yet"}, nil
	}
	lines := make([]string, 0, len(s.Expenses))
	for _, e := range s.Expenses {
		lines = append(lines, fmt.Sprintf("  - [%s] %.2f %s for %q (paid by %s, split among %d people)",
			e.ID, e.Amount, e.Currency, e.Description, e.PaidBy, len(e.SplitAmong)))
	}
	expenses := make([]models.Expense, len(s.Expenses))
	copy(expenses, s.Expenses)
	return &Result{
		Summary:  fmt.Sprintf("Expenses (%d total):\n%s", len(s.Expenses), strings.Join(lines, "\n")),
		Expenses: expenses,
	}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
