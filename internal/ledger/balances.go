// Package ledger implements the per-participant, per-currency balance
// arithmetic and the debt settlement algorithm.
//
// A positive balance means the participant is owed money in that currency;
// a negative balance means they owe. Every operation credits one side and
// debits the other by exactly the same total, so the sum of all balances in
// any single currency is always zero.
package ledger

import "sort"

// Epsilon absorbs float64 rounding noise. Balances within Epsilon of zero
// are treated as settled, and amounts below it are never reported.
const Epsilon = 0.01

// Balances maps participant name -> currency code -> amount.
// Currencies are tracked in parallel and never converted or mixed.
type Balances map[string]map[string]float64

// Adjust adds delta to a person's balance in the given currency, lazily
// creating the nested entry at zero. It always succeeds.
func (b Balances) Adjust(person, currency string, delta float64) {
	if b[person] == nil {
		b[person] = make(map[string]float64)
	}
	b[person][currency] += delta
}

// Get returns a person's balance in the given currency, zero if absent.
func (b Balances) Get(person, currency string) float64 {
	return b[person][currency]
}

// Currencies returns the sorted union of every currency code that appears
// in any participant's balances.
func (b Balances) Currencies() []string {
	set := make(map[string]struct{})
	for _, perCurrency := range b {
		for code := range perCurrency {
			set[code] = struct{}{}
		}
	}
	codes := make([]string, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Participants returns the sorted list of participants with any balance
// entry, including ones whose balances have netted back to zero.
func (b Balances) Participants() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy. Mutating the copy never touches the original,
// which lets callers build a full set of adjustments and swap them in
// atomically.
func (b Balances) Clone() Balances {
	out := make(Balances, len(b))
	for person, perCurrency := range b {
		cp := make(map[string]float64, len(perCurrency))
		for code, amount := range perCurrency {
			cp[code] = amount
		}
		out[person] = cp
	}
	return out
}

// Settled reports whether the amount is within Epsilon of zero.
func Settled(amount float64) bool {
	return amount < Epsilon && amount > -Epsilon
}
