package ledger

import "sort"

// Transfer is one pairwise payment that discharges part of a currency's
// outstanding balances.
type Transfer struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// party is one side of the matching: a debtor's owed amount or a
// creditor's credit, both tracked as positive numbers.
type party struct {
	name   string
	amount float64
}

// Settle reduces the balance map into a minimal list of pairwise transfers
// per currency, matching the largest remaining debtor against the largest
// remaining creditor until one side is exhausted. Ties are broken
// lexicographically by name so the output is deterministic. Currencies
// with no transfers above Epsilon are omitted.
//
// The greedy match needs at most debtors+creditors-1 transfers per
// currency to fully discharge a zero-sum balance vector.
func Settle(balances Balances) map[string][]Transfer {
	result := make(map[string][]Transfer)
	for _, currency := range balances.Currencies() {
		transfers := settleCurrency(balances, currency)
		if len(transfers) > 0 {
			result[currency] = transfers
		}
	}
	return result
}

func settleCurrency(balances Balances, currency string) []Transfer {
	var debtors, creditors []party
	for _, name := range balances.Participants() {
		switch amount := balances.Get(name, currency); {
		case amount < -Epsilon:
			debtors = append(debtors, party{name: name, amount: -amount})
		case amount > Epsilon:
			creditors = append(creditors, party{name: name, amount: amount})
		}
	}

	// Participants() is sorted, so equal amounts stay in name order.
	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].amount > debtors[j].amount })
	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].amount > creditors[j].amount })

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debt := debtors[i].amount
		credit := creditors[j].amount

		amount := debt
		if credit < amount {
			amount = credit
		}
		if amount > Epsilon {
			transfers = append(transfers, Transfer{
				From:   debtors[i].name,
				To:     creditors[j].name,
				Amount: amount,
			})
		}

		if Settled(debt - amount) {
			i++
		} else {
			debtors[i].amount = debt - amount
		}
		if Settled(credit - amount) {
			j++
		} else {
			creditors[j].amount = credit - amount
		}
	}
	return transfers
}
