package core

import (
	"errors"
	"testing"
)

func validExpense() Transaction {
	return Transaction{
		ID:       "a1",
		Type:     Expense,
		Amount:   Money{Cents: 5000000},
		Category: "Food & Drink",
		Date:     "2024-03-01",
		Time:     "08:00",
	}
}

func TestTransactionValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"valid", func(*Transaction) {}, nil},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"zero amount", func(tx *Transaction) { tx.Amount.Cents = 0 }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount.Cents = -100 }, ErrInvalidAmount},
		{"category from wrong list", func(tx *Transaction) { tx.Category = "Salary" }, ErrInvalidCategory},
		{"unknown category", func(tx *Transaction) { tx.Category = "Lottery" }, ErrInvalidCategory},
		{"malformed date", func(tx *Transaction) { tx.Date = "03/01/2024" }, ErrInvalidDate},
		{"impossible date", func(tx *Transaction) { tx.Date = "2024-02-30" }, ErrInvalidDate},
		{"malformed time", func(tx *Transaction) { tx.Time = "8am" }, ErrInvalidTime},
		{"hour out of range", func(tx *Transaction) { tx.Time = "25:00" }, ErrInvalidTime},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := validExpense()
			tc.mutate(&tx)
			if err := tx.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestTransactionValidateIncomeCategory(t *testing.T) {
	tx := validExpense()
	tx.Type = Income
	tx.Category = "Salary"
	if err := tx.Validate(); err != nil {
		t.Fatalf("income with Salary category should validate, got %v", err)
	}
}

func TestInstant(t *testing.T) {
	tx := validExpense()
	got := tx.Instant()
	if got.IsZero() {
		t.Fatal("expected non-zero instant")
	}
	if got.Year() != 2024 || got.Hour() != 8 {
		t.Fatalf("unexpected instant %v", got)
	}

	tx.Time = "bogus"
	if !tx.Instant().IsZero() {
		t.Fatal("expected zero instant for malformed time")
	}
}

func TestSortTransactionsNewestFirst(t *testing.T) {
	txs := []Transaction{
		{ID: "b", Date: "2024-03-01", Time: "08:00"},
		{ID: "c", Date: "2024-03-05", Time: "09:00"},
		{ID: "a", Date: "2024-03-05", Time: "07:30"},
	}
	SortTransactions(txs)
	want := []string{"c", "a", "b"}
	for i, id := range want {
		if txs[i].ID != id {
			t.Fatalf("position %d: got %s, want %s", i, txs[i].ID, id)
		}
	}
}

func TestSortTransactionsTieBreakByID(t *testing.T) {
	// Equal (date,time) pairs order by descending id so reloads are
	// stable.
	txs := []Transaction{
		{ID: "a", Date: "2024-03-01", Time: "08:00"},
		{ID: "z", Date: "2024-03-01", Time: "08:00"},
		{ID: "m", Date: "2024-03-01", Time: "08:00"},
	}
	SortTransactions(txs)
	want := []string{"z", "m", "a"}
	for i, id := range want {
		if txs[i].ID != id {
			t.Fatalf("position %d: got %s, want %s", i, txs[i].ID, id)
		}
	}
}
