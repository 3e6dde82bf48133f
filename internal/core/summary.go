package core

import (
	"sort"
	"time"
)

// Summary aggregates a slice of transactions for the dashboard cards.
type Summary struct {
	Income  Money
	Expense Money
	Balance int64 // cents; may be negative
}

func Summarize(txs []Transaction) Summary {
	var s Summary
	for _, t := range txs {
		switch t.Type {
		case Income:
			s.Income.Cents += t.Amount.Cents
		case Expense:
			s.Expense.Cents += t.Amount.Cents
		}
	}
	s.Balance = s.Income.Cents - s.Expense.Cents
	return s
}

// CategoryShare is one slice of the expense distribution chart.
type CategoryShare struct {
	Category string
	Amount   Money
	Share    float64 // 0..1 of total expenses
}

// ExpenseDistribution sums expenses per category, largest first.
// Income entries are ignored.
func ExpenseDistribution(txs []Transaction) []CategoryShare {
	sums := make(map[string]int64)
	var total int64
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		sums[t.Category] += t.Amount.Cents
		total += t.Amount.Cents
	}
	out := make([]CategoryShare, 0, len(sums))
	for cat, cents := range sums {
		cs := CategoryShare{Category: cat, Amount: Money{Cents: cents}}
		if total > 0 {
			cs.Share = float64(cents) / float64(total)
		}
		out = append(out, cs)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// TrendPoint is one bucket of the expense trend series.
type TrendPoint struct {
	Label  string
	Amount Money
}

// DailyExpenseTotals buckets expense amounts per calendar day over the
// inclusive [from, to] interval. Days without expenses appear with a
// zero amount so the series has no gaps.
func DailyExpenseTotals(txs []Transaction, from, to time.Time) []TrendPoint {
	perDay := make(map[string]int64)
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		perDay[t.Date] += t.Amount.Cents
	}

	var out []TrendPoint
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		out = append(out, TrendPoint{
			Label:  d.Format("2 Jan"),
			Amount: Money{Cents: perDay[key]},
		})
	}
	return out
}

// MonthlyExpenseTotals buckets expense amounts per month of the given
// year, twelve points from January to December.
func MonthlyExpenseTotals(txs []Transaction, year int) []TrendPoint {
	perMonth := make(map[time.Month]int64)
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		d, err := t.Day()
		if err != nil || d.Year() != year {
			continue
		}
		perMonth[d.Month()] += t.Amount.Cents
	}

	out := make([]TrendPoint, 0, 12)
	for m := time.January; m <= time.December; m++ {
		out = append(out, TrendPoint{
			Label:  m.String()[:3],
			Amount: Money{Cents: perMonth[m]},
		})
	}
	return out
}
