package trip

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/journi-app/journi/internal/ledger"
)

var testNow = time.Unix(1700000000, 0)

func apply(t *testing.T, st *State, op Op) *Result {
	t.Helper()
	res, err := st.Apply(op, "tester", testNow)
	if err != nil {
		t.Fatalf("Apply(%T) failed: %v", op, err)
	}
	return res
}

func checkBalance(t *testing.T, st *State, person, currency string, want float64) {
	t.Helper()
	if got := st.Balances.Get(person, currency); math.Abs(got-want) > ledger.Epsilon {
		t.Errorf("balance[%s][%s] = %v, want %v", person, currency, got, want)
	}
}

func checkConservation(t *testing.T, st *State) {
	t.Helper()
	for _, currency := range st.Balances.Currencies() {
		var sum float64
		for _, person := range st.Balances.Participants() {
			sum += st.Balances.Get(person, currency)
		}
		if math.Abs(sum) > 1e-9 {
			t.Errorf("conservation violated: sum of %s balances = %v", currency, sum)
		}
	}
}

func TestRegisterExpenseEqualSplit(t *testing.T) {
	st := NewState("chile", nil)
	res := apply(t, st, RegisterExpense{
		Amount:      100,
		Description: "lunch",
		PaidBy:      "pedro",
		Currency:    "pen",
		SplitAmong:  []string{"pedro", "ana"},
	})

	if res.Expense == nil || res.Expense.ID != "exp_1" {
		t.Fatalf("expected exp_1, got %+v", res.Expense)
	}
	if res.Expense.Currency != "PEN" {
		t.Errorf("currency = %q, want PEN (uppercased)", res.Expense.Currency)
	}
	checkBalance(t, st, "pedro", "PEN", 50)
	checkBalance(t, st, "ana", "PEN", -50)
	checkConservation(t, st)

	if len(st.Participants) != 2 {
		t.Errorf("participants = %v, want pedro and ana auto-enrolled", st.Participants)
	}
}

func TestRegisterExpenseUnequalSplit(t *testing.T) {
	st := NewState("chile", nil)

	// Shares must sum to the amount.
	_, err := st.Apply(RegisterExpense{
		Amount:       50,
		Description:  "dinner",
		PaidBy:       "andre",
		Currency:     "PEN",
		SplitAmounts: map[string]float64{"a": 20, "b": 29},
	}, "tester", testNow)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("mismatched shares: got err %v, want ValidationError", err)
	}
	if len(st.Expenses) != 0 || len(st.Participants) != 0 {
		t.Errorf("rejected operation mutated state: %+v", st)
	}

	res := apply(t, st, RegisterExpense{
		Amount:       50,
		Description:  "dinner",
		PaidBy:       "andre",
		Currency:     "PEN",
		SplitAmounts: map[string]float64{"a": 20, "b": 30},
	})
	if res.Expense.SplitAmounts == nil {
		t.Fatal("expected stored split amounts")
	}
	checkBalance(t, st, "andre", "PEN", 50)
	checkBalance(t, st, "a", "PEN", -20)
	checkBalance(t, st, "b", "PEN", -30)
	checkConservation(t, st)
}

func TestRegisterExpenseCollapsingSplitNames(t *testing.T) {
	st := NewState("chile", nil)

	// "a" and " a " are the same participant once trimmed. Their raw
	// shares sum to the amount, but the collapsed map holds only one
	// entry, so the registration must be rejected, not applied.
	_, err := st.Apply(RegisterExpense{
		Amount:       50,
		Description:  "dinner",
		PaidBy:       "andre",
		Currency:     "PEN",
		SplitAmounts: map[string]float64{"a": 20, " a ": 30},
	}, "tester", testNow)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("collapsing shares: got err %v, want ValidationError", err)
	}
	if len(st.Expenses) != 0 || len(st.Participants) != 0 {
		t.Errorf("rejected operation mutated state: %+v", st)
	}
	checkConservation(t, st)

	// Collapsed shares that do sum to the amount stay valid.
	apply(t, st, RegisterExpense{
		Amount:       50,
		Description:  "dinner",
		PaidBy:       "andre",
		Currency:     "PEN",
		SplitAmounts: map[string]float64{" a ": 50},
	})
	checkBalance(t, st, "andre", "PEN", 50)
	checkBalance(t, st, "a", "PEN", -50)
	checkConservation(t, st)
}

func TestRegisterExpenseAmbiguousSplit(t *testing.T) {
	st := NewState("chile", nil)
	_, err := st.Apply(RegisterExpense{
		Amount:       50,
		Description:  "taxi",
		PaidBy:       "meli",
		SplitAmong:   []string{"meli", "andre"},
		SplitAmounts: map[string]float64{"meli": 25, "andre": 25},
	}, "tester", testNow)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got err %v, want ValidationError for ambiguous split", err)
	}
}

func TestRegisterExpenseSplitDefaults(t *testing.T) {
	// Empty roster: the payer carries the whole expense.
	st := NewState("chile", nil)
	apply(t, st, RegisterExpense{Amount: 30, Description: "snacks", PaidBy: "meli", Currency: "CLP"})
	checkBalance(t, st, "meli", "CLP", 0)

	// Non-empty roster: split among everyone.
	st = NewState("chile", []string{"meli", "andre", "pedro"})
	apply(t, st, RegisterExpense{Amount: 90, Description: "museum", PaidBy: "meli", Currency: "CLP"})
	checkBalance(t, st, "meli", "CLP", 60)
	checkBalance(t, st, "andre", "CLP", -30)
	checkBalance(t, st, "pedro", "CLP", -30)
	checkConservation(t, st)
}

func TestRegisterExpenseRejectsNonPositiveAmount(t *testing.T) {
	st := NewState("chile", nil)
	for _, amount := range []float64{0, -10} {
		_, err := st.Apply(RegisterExpense{Amount: amount, Description: "x", PaidBy: "a"}, "tester", testNow)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("amount %v: got err %v, want ValidationError", amount, err)
		}
	}
}

func TestDeleteExpenseRoundTrip(t *testing.T) {
	st := NewState("chile", []string{"meli", "andre"})
	apply(t, st, RegisterExpense{Amount: 80, Description: "hotel", PaidBy: "meli", Currency: "PEN"})

	before := st.Balances.Clone()
	apply(t, st, RegisterExpense{
		Amount:      100,
		Description: "tour",
		PaidBy:      "pedro",
		Currency:    "PEN",
		SplitAmong:  []string{"meli", "andre", "pedro"},
	})
	apply(t, st, DeleteExpense{ExpenseID: "last"})

	// Pre-existing balances restored; pedro stays enrolled at zero.
	for _, person := range []string{"meli", "andre"} {
		checkBalance(t, st, person, "PEN", before.Get(person, "PEN"))
	}
	checkBalance(t, st, "pedro", "PEN", 0)
	found := false
	for _, p := range st.Participants {
		if p == "pedro" {
			found = true
		}
	}
	if !found {
		t.Error("enrollment should not be reversed by delete")
	}
	checkConservation(t, st)
}

func TestDeleteExpenseReversesStoredShares(t *testing.T) {
	st := NewState("chile", nil)
	apply(t, st, RegisterExpense{
		Amount:       50,
		Description:  "dinner",
		PaidBy:       "andre",
		Currency:     "PEN",
		SplitAmounts: map[string]float64{"meli": 20, "andre": 30},
	})
	apply(t, st, DeleteExpense{ExpenseID: "last"})

	checkBalance(t, st, "andre", "PEN", 0)
	checkBalance(t, st, "meli", "PEN", 0)
	checkConservation(t, st)
}

func TestDeleteExpenseNotFound(t *testing.T) {
	st := NewState("chile", nil)

	_, err := st.Apply(DeleteExpense{ExpenseID: "last"}, "tester", testNow)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("delete last on empty store: got err %v, want NotFoundError", err)
	}

	apply(t, st, RegisterExpense{Amount: 10, Description: "x", PaidBy: "a"})
	_, err = st.Apply(DeleteExpense{ExpenseID: "exp_99"}, "tester", testNow)
	if !errors.As(err, &nf) {
		t.Fatalf("got err %v, want NotFoundError", err)
	}
	if len(st.Expenses) != 1 {
		t.Error("failed delete mutated the store")
	}
}

func TestExpenseIDsNeverReissued(t *testing.T) {
	st := NewState("chile", nil)
	apply(t, st, RegisterExpense{Amount: 10, Description: "a", PaidBy: "x"})
	apply(t, st, DeleteExpense{ExpenseID: "exp_1"})
	res := apply(t, st, RegisterExpense{Amount: 10, Description: "b", PaidBy: "x"})
	if res.Expense.ID != "exp_2" {
		t.Errorf("id after delete = %s, want exp_2", res.Expense.ID)
	}
}

func TestEditExpense(t *testing.T) {
	st := NewState("chile", nil)
	apply(t, st, RegisterExpense{
		Amount:      50,
		Description: "taxi",
		PaidBy:      "meli",
		Currency:    "PEN",
		SplitAmong:  []string{"meli"},
	})

	// "divídelo con andre": split the last expense between both.
	apply(t, st, EditExpense{ExpenseID: "last", SplitAmong: []string{"meli", "andre"}})
	checkBalance(t, st, "meli", "PEN", 25)
	checkBalance(t, st, "andre", "PEN", -25)
	checkConservation(t, st)

	// Change amount and payer on the same record by ID.
	amount := 60.0
	payer := "andre"
	apply(t, st, EditExpense{ExpenseID: "exp_1", Amount: &amount, PaidBy: &payer})
	checkBalance(t, st, "andre", "PEN", 30)
	checkBalance(t, st, "meli", "PEN", -30)
	checkConservation(t, st)

	if st.Expenses[0].Currency != "PEN" {
		t.Error("currency must be immutable across edits")
	}
}

func TestEditExpenseUnequalReversal(t *testing.T) {
	st := NewState("chile", nil)
	apply(t, st, RegisterExpense{
		Amount:       50,
		Description:  "dinner",
		PaidBy:       "andre",
		Currency:     "PEN",
		SplitAmounts: map[string]float64{"meli": 20, "andre": 30},
	})

	// Editing the split list reverses the stored shares exactly, then
	// reapplies as an equal split.
	apply(t, st, EditExpense{ExpenseID: "last", SplitAmong: []string{"meli", "andre"}})
	checkBalance(t, st, "andre", "PEN", 25)
	checkBalance(t, st, "meli", "PEN", -25)
	checkConservation(t, st)

	if st.Expenses[0].SplitAmounts != nil {
		t.Error("split list edit should convert the expense to an equal split")
	}
}

func TestEditExpenseAmountChangeDropsStaleShares(t *testing.T) {
	st := NewState("chile", nil)
	apply(t, st, RegisterExpense{
		Amount:       50,
		Description:  "dinner",
		PaidBy:       "andre",
		Currency:     "PEN",
		SplitAmounts: map[string]float64{"meli": 20, "andre": 30},
	})

	amount := 80.0
	apply(t, st, EditExpense{ExpenseID: "last", Amount: &amount})
	// Shares summed to 50, not 80; the edit falls back to equal split.
	checkBalance(t, st, "andre", "PEN", 40)
	checkBalance(t, st, "meli", "PEN", -40)
	checkConservation(t, st)
}

func TestEditExpenseNotFound(t *testing.T) {
	st := NewState("chile", nil)
	_, err := st.Apply(EditExpense{ExpenseID: "last"}, "tester", testNow)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got err %v, want NotFoundError", err)
	}
}

func TestRegisterPayment(t *testing.T) {
	st := NewState("chile", nil)
	apply(t, st, RegisterExpense{
		Amount:      50,
		Description: "taxi",
		PaidBy:      "meli",
		Currency:    "PEN",
		SplitAmong:  []string{"meli", "andre"},
	})

	res := apply(t, st, RegisterPayment{FromUser: " andre ", ToUser: "meli", Amount: 25, Currency: "PEN"})
	if res.Payment == nil || res.Payment.ID != "pay_1" {
		t.Fatalf("expected pay_1, got %+v", res.Payment)
	}
	if res.Payment.FromUser != "andre" {
		t.Errorf("from_user = %q, want trimmed name", res.Payment.FromUser)
	}
	if !res.PayerSettled {
		t.Error("andre paid his full debt, expected PayerSettled")
	}
	checkBalance(t, st, "andre", "PEN", 0)
	checkBalance(t, st, "meli", "PEN", 0)
	checkConservation(t, st)
}

func TestMultiCurrencyIsolation(t *testing.T) {
	st := NewState("chile", nil)
	apply(t, st, RegisterExpense{
		Amount:      100,
		Description: "lunch",
		PaidBy:      "pedro",
		Currency:    "PEN",
		SplitAmong:  []string{"pedro", "ana"},
	})
	apply(t, st, RegisterExpense{
		Amount:      23000,
		Description: "uber",
		PaidBy:      "ana",
		Currency:    "CLP",
		SplitAmong:  []string{"pedro", "ana"},
	})

	checkBalance(t, st, "pedro", "PEN", 50)
	checkBalance(t, st, "ana", "PEN", -50)
	checkBalance(t, st, "pedro", "CLP", -11500)
	checkBalance(t, st, "ana", "CLP", 11500)
	checkConservation(t, st)
}

func TestGetBalanceAndDebts(t *testing.T) {
	st := NewState("chile", nil)
	apply(t, st, RegisterExpense{
		Amount:      100,
		Description: "lunch",
		PaidBy:      "pedro",
		Currency:    "PEN",
		SplitAmong:  []string{"pedro", "ana"},
	})

	res := apply(t, st, GetBalance{Person: "pedro"})
	if want := "Balance for pedro: +50.00 PEN"; res.Summary != want {
		t.Errorf("GetBalance summary = %q, want %q", res.Summary, want)
	}

	res = apply(t, st, GetBalance{Person: "ghost"})
	if want := "Balance for ghost: all settled"; res.Summary != want {
		t.Errorf("unknown participant reads as zero, got %q", res.Summary)
	}

	res = apply(t, st, GetDebts{})
	transfers := res.Transfers["PEN"]
	if len(transfers) != 1 || transfers[0].From != "ana" || transfers[0].To != "pedro" {
		t.Errorf("transfers = %v, want ana -> pedro", transfers)
	}
	if math.Abs(transfers[0].Amount-50) > ledger.Epsilon {
		t.Errorf("transfer amount = %v, want 50", transfers[0].Amount)
	}
}

func TestSettlementDischargeViaPayments(t *testing.T) {
	st := NewState("chile", nil)
	apply(t, st, RegisterExpense{
		Amount:      90,
		Description: "dinner",
		PaidBy:      "a",
		Currency:    "USD",
		SplitAmong:  []string{"a", "b", "c"},
	})
	apply(t, st, RegisterExpense{
		Amount:      30,
		Description: "drinks",
		PaidBy:      "b",
		Currency:    "USD",
		SplitAmong:  []string{"b", "c"},
	})

	res := apply(t, st, GetDebts{})
	for currency, transfers := range res.Transfers {
		for _, tr := range transfers {
			apply(t, st, RegisterPayment{FromUser: tr.From, ToUser: tr.To, Amount: tr.Amount, Currency: currency})
		}
	}

	res = apply(t, st, GetDebts{})
	if len(res.Transfers) != 0 {
		t.Errorf("debts remain after settling every transfer: %v", res.Transfers)
	}
	checkConservation(t, st)
}

func TestListExpenses(t *testing.T) {
	st := NewState("chile", nil)
	res := apply(t, st, ListExpenses{})
	if res.Summary != "No expenses registered yet" {
		t.Errorf("empty list summary = %q", res.Summary)
	}

	apply(t, st, RegisterExpense{Amount: 10, Description: "coffee", PaidBy: "a"})
	res = apply(t, st, ListExpenses{})
	if len(res.Expenses) != 1 {
		t.Fatalf("listed %d expenses, want 1", len(res.Expenses))
	}
}

func TestSnapshotRoundTripsThroughJSON(t *testing.T) {
	st := NewState("chile", []string{"meli"})
	apply(t, st, RegisterExpense{
		Amount:       50,
		Description:  "dinner",
		PaidBy:       "andre",
		Currency:     "PEN",
		SplitAmounts: map[string]float64{"meli": 20, "andre": 30},
	})
	apply(t, st, CreateMilestone{Name: "Sky Costanera", Location: "Santiago"})

	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	restored := &State{}
	if err := json.Unmarshal(data, restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	// The restored snapshot must keep working where the old one left off.
	res := apply(t, restored, RegisterExpense{Amount: 10, Description: "x", PaidBy: "andre"})
	if res.Expense.ID != "exp_2" {
		t.Errorf("restored counter produced %s, want exp_2", res.Expense.ID)
	}
	// Roster is meli and andre, so the 10 splits 5/5.
	checkBalance(t, restored, "andre", "PEN", st.Balances.Get("andre", "PEN")+5)
	checkConservation(t, restored)
}
