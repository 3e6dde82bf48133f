package core

import (
	"errors"
	"sort"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	// Transaction is an immutable value record. Edits replace the whole
	// record; the id is assigned once at creation and never reused.
	Transaction struct {
		ID       string          `json:"id"`
		Type     TransactionType `json:"type"`
		Amount   Money           `json:"amount"`
		Category string          `json:"category"`
		Note     string          `json:"note,omitempty"`
		Date     string          `json:"date"` // YYYY-MM-DD
		Time     string          `json:"time"` // HH:MM, 24-hour
	}
)

var (
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidTime     = errors.New("invalid time")
	ErrNoteTooLong     = errors.New("note too long (max 200 characters)")
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

func (tt TransactionType) Valid() bool {
	return tt == Income || tt == Expense
}

// Instant combines date and time into a single point in time, the sort
// key for ordering transactions. Returns the zero time if either part
// does not parse.
func (t Transaction) Instant() time.Time {
	ts, err := time.Parse(dateLayout+" "+timeLayout, t.Date+" "+t.Time)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// Day returns the calendar day of the transaction at start of day.
func (t Transaction) Day() (time.Time, error) {
	d, err := time.Parse(dateLayout, t.Date)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !ValidCategory(t.Type, t.Category) {
		return ErrInvalidCategory
	}
	if _, err := time.Parse(dateLayout, t.Date); err != nil {
		return ErrInvalidDate
	}
	if _, err := time.Parse(timeLayout, t.Time); err != nil {
		return ErrInvalidTime
	}
	if len(strings.TrimSpace(t.Note)) > 200 {
		return ErrNoteTooLong
	}
	return nil
}

// MoreRecent reports whether a orders before b: most recent instant
// first, ties broken by descending id so the order is deterministic
// across reloads.
func MoreRecent(a, b Transaction) bool {
	ia, ib := a.Instant(), b.Instant()
	if !ia.Equal(ib) {
		return ia.After(ib)
	}
	return a.ID > b.ID
}

// SortTransactions orders the slice in place, newest first.
func SortTransactions(txs []Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		return MoreRecent(txs[i], txs[j])
	})
}
