package core

import (
	"testing"
	"time"
)

func TestSummarize(t *testing.T) {
	txs := []Transaction{
		{Type: Expense, Amount: Money{Cents: 5000000}, Category: "Food & Drink", Date: "2024-03-01", Time: "08:00"},
		{Type: Income, Amount: Money{Cents: 100000000}, Category: "Salary", Date: "2024-03-05", Time: "09:00"},
	}
	s := Summarize(txs)
	if s.Income.Cents != 100000000 {
		t.Fatalf("income = %d", s.Income.Cents)
	}
	if s.Expense.Cents != 5000000 {
		t.Fatalf("expense = %d", s.Expense.Cents)
	}
	if s.Balance != 95000000 {
		t.Fatalf("balance = %d", s.Balance)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Income.Cents != 0 || s.Expense.Cents != 0 || s.Balance != 0 {
		t.Fatalf("expected zero summary, got %+v", s)
	}
}

func TestExpenseDistribution(t *testing.T) {
	txs := []Transaction{
		{Type: Expense, Amount: Money{Cents: 3000}, Category: "Groceries"},
		{Type: Expense, Amount: Money{Cents: 1000}, Category: "Transportation"},
		{Type: Expense, Amount: Money{Cents: 2000}, Category: "Groceries"},
		{Type: Income, Amount: Money{Cents: 9000}, Category: "Salary"},
	}
	dist := ExpenseDistribution(txs)
	if len(dist) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(dist))
	}
	if dist[0].Category != "Groceries" || dist[0].Amount.Cents != 5000 {
		t.Fatalf("unexpected first slice %+v", dist[0])
	}
	wantShare := 5000.0 / 6000.0
	if diff := dist[0].Share - wantShare; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("share = %v, want %v", dist[0].Share, wantShare)
	}
}

func TestDailyExpenseTotals(t *testing.T) {
	txs := []Transaction{
		{Type: Expense, Amount: Money{Cents: 100}, Date: "2024-02-28", Time: "10:00"},
		{Type: Expense, Amount: Money{Cents: 200}, Date: "2024-03-01", Time: "10:00"},
		{Type: Expense, Amount: Money{Cents: 300}, Date: "2024-03-01", Time: "12:00"},
	}
	from := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	pts := DailyExpenseTotals(txs, from, to)
	// Leap year: Feb 28, Feb 29, Mar 1.
	if len(pts) != 3 {
		t.Fatalf("expected 3 points, got %d", len(pts))
	}
	if pts[0].Amount.Cents != 100 || pts[1].Amount.Cents != 0 || pts[2].Amount.Cents != 500 {
		t.Fatalf("unexpected series %+v", pts)
	}
}

func TestMonthlyExpenseTotals(t *testing.T) {
	txs := []Transaction{
		{Type: Expense, Amount: Money{Cents: 100}, Date: "2024-01-15", Time: "10:00"},
		{Type: Expense, Amount: Money{Cents: 200}, Date: "2024-12-31", Time: "10:00"},
		{Type: Expense, Amount: Money{Cents: 400}, Date: "2023-12-31", Time: "10:00"}, // other year
	}
	pts := MonthlyExpenseTotals(txs, 2024)
	if len(pts) != 12 {
		t.Fatalf("expected 12 points, got %d", len(pts))
	}
	if pts[0].Amount.Cents != 100 || pts[11].Amount.Cents != 200 {
		t.Fatalf("unexpected series: jan=%d dec=%d", pts[0].Amount.Cents, pts[11].Amount.Cents)
	}
}
