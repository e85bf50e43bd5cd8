package ledger

import (
	"math"
	"testing"
)

func TestSettleLargestFirst(t *testing.T) {
	b := make(Balances)
	b.Adjust("a", "USD", -30)
	b.Adjust("b", "USD", 10)
	b.Adjust("c", "USD", 20)

	transfers := Settle(b)["USD"]
	want := []Transfer{
		{From: "a", To: "c", Amount: 20},
		{From: "a", To: "b", Amount: 10},
	}
	if len(transfers) != len(want) {
		t.Fatalf("Settle returned %d transfers, want %d: %v", len(transfers), len(want), transfers)
	}
	for i, tr := range transfers {
		if tr.From != want[i].From || tr.To != want[i].To || math.Abs(tr.Amount-want[i].Amount) > Epsilon {
			t.Errorf("transfer[%d] = %+v, want %+v", i, tr, want[i])
		}
	}
}

func TestSettleLexicographicTieBreak(t *testing.T) {
	b := make(Balances)
	b.Adjust("zoe", "EUR", 15)
	b.Adjust("ana", "EUR", 15)
	b.Adjust("max", "EUR", -30)

	transfers := Settle(b)["EUR"]
	if len(transfers) != 2 {
		t.Fatalf("got %d transfers, want 2: %v", len(transfers), transfers)
	}
	// Equal credits resolve in name order.
	if transfers[0].To != "ana" || transfers[1].To != "zoe" {
		t.Errorf("tie-break order = [%s, %s], want [ana, zoe]", transfers[0].To, transfers[1].To)
	}
}

func TestSettleMultiCurrencyIsolation(t *testing.T) {
	b := make(Balances)
	b.Adjust("meli", "CLP", 11500)
	b.Adjust("andre", "CLP", -11500)
	b.Adjust("andre", "PEN", 25)
	b.Adjust("meli", "PEN", -25)

	result := Settle(b)

	clp := result["CLP"]
	if len(clp) != 1 || clp[0].From != "andre" || clp[0].To != "meli" {
		t.Errorf("CLP transfers = %v, want andre -> meli", clp)
	}
	pen := result["PEN"]
	if len(pen) != 1 || pen[0].From != "meli" || pen[0].To != "andre" {
		t.Errorf("PEN transfers = %v, want meli -> andre", pen)
	}
}

func TestSettleDischargeIsComplete(t *testing.T) {
	b := make(Balances)
	b.Adjust("a", "USD", -42.50)
	b.Adjust("b", "USD", -7.50)
	b.Adjust("c", "USD", 30)
	b.Adjust("d", "USD", 20)

	// Apply every transfer as a payment: credit the payer, debit the payee.
	for currency, transfers := range Settle(b) {
		for _, tr := range transfers {
			b.Adjust(tr.From, currency, tr.Amount)
			b.Adjust(tr.To, currency, -tr.Amount)
		}
	}

	if rest := Settle(b); len(rest) != 0 {
		t.Errorf("balances not discharged after applying transfers: %v", rest)
	}
	for _, person := range b.Participants() {
		if bal := b.Get(person, "USD"); !Settled(bal) {
			t.Errorf("%s still has balance %v", person, bal)
		}
	}
}

func TestSettleTransferCountBound(t *testing.T) {
	b := make(Balances)
	b.Adjust("a", "USD", -10)
	b.Adjust("b", "USD", -20)
	b.Adjust("c", "USD", -30)
	b.Adjust("d", "USD", 25)
	b.Adjust("e", "USD", 35)

	transfers := Settle(b)["USD"]
	// 3 debtors + 2 creditors need at most 4 transfers.
	if len(transfers) > 4 {
		t.Errorf("got %d transfers, want at most 4", len(transfers))
	}
}

func TestSettleIgnoresNoise(t *testing.T) {
	b := make(Balances)
	b.Adjust("a", "USD", 0.004)
	b.Adjust("b", "USD", -0.004)

	if result := Settle(b); len(result) != 0 {
		t.Errorf("Settle of sub-epsilon balances = %v, want empty", result)
	}
}

func TestSettleEmpty(t *testing.T) {
	if result := Settle(make(Balances)); len(result) != 0 {
		t.Errorf("Settle of empty balances = %v, want empty", result)
	}
}
