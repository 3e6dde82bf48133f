// Package ledger owns the canonical, sorted list of transactions and
// keeps the persistence port consistent with in-memory state.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"duit/internal/core"
	"duit/internal/daterange"
)

var (
	ErrNotFound = errors.New("transaction not found")

	// ErrPersist marks a store write failure. The in-memory mutation
	// has already been applied when this is returned; callers must
	// treat the operation as done and surface the divergence.
	ErrPersist = errors.New("persist transactions")
)

// Store is the outbound persistence port. The ledger is the sole
// owner of the canonical list; the store is a passive mirror written
// through after every mutation.
type Store interface {
	Load(ctx context.Context) ([]core.Transaction, error)
	Save(ctx context.Context, txs []core.Transaction) error
}

// Ledger serializes all access behind a single mutex; it is safe to
// share across HTTP handlers.
type Ledger struct {
	mu    sync.Mutex
	txs   []core.Transaction
	store Store
	newID func() string
}

// New hydrates the ledger from the store once. A load error is
// returned to the caller; the ledger is not usable in that case.
func New(ctx context.Context, store Store) (*Ledger, error) {
	txs, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("hydrate ledger: %w", err)
	}
	core.SortTransactions(txs)
	return &Ledger{
		txs:   txs,
		store: store,
		newID: uuid.NewString,
	}, nil
}

// Add validates the draft, assigns a fresh id, inserts it in sorted
// position and writes through to the store. The stored transaction is
// returned. A persistence failure does not roll back the in-memory
// insert; the error is reported so the caller can surface it.
func (l *Ledger) Add(ctx context.Context, draft core.Transaction) (core.Transaction, error) {
	draft.ID = l.newID()
	if err := draft.Validate(); err != nil {
		return core.Transaction{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.txs = append(l.txs, draft)
	core.SortTransactions(l.txs)

	if err := l.persist(ctx); err != nil {
		return draft, err
	}

	slog.InfoContext(ctx, "Transaction added",
		"transaction_id", draft.ID,
		"transaction_type", string(draft.Type),
		"category", draft.Category,
		"amount_cents", draft.Amount.Cents)
	return draft, nil
}

// Update replaces the entry matching tx.ID wholesale. Returns
// ErrNotFound when no entry carries that id.
func (l *Ledger) Update(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(tx.ID)
	if idx < 0 {
		return ErrNotFound
	}
	l.txs[idx] = tx
	core.SortTransactions(l.txs)

	if err := l.persist(ctx); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction updated", "transaction_id", tx.ID)
	return nil
}

// Remove deletes the entry with the given id. Returns ErrNotFound when
// the id is unknown.
func (l *Ledger) Remove(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(id)
	if idx < 0 {
		return ErrNotFound
	}
	l.txs = append(l.txs[:idx], l.txs[idx+1:]...)

	if err := l.persist(ctx); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction removed", "transaction_id", id)
	return nil
}

// Get returns the transaction with the given id.
func (l *Ledger) Get(id string) (core.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(id)
	if idx < 0 {
		return core.Transaction{}, ErrNotFound
	}
	return l.txs[idx], nil
}

// All returns a copy of the full list, newest first.
func (l *Ledger) All() []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Transaction(nil), l.txs...)
}

// Between returns the transactions whose date falls inside the range,
// newest first.
func (l *Ledger) Between(r daterange.Range) []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []core.Transaction
	for _, tx := range l.txs {
		day, err := tx.Day()
		if err != nil {
			continue
		}
		if r.Contains(day) {
			out = append(out, tx)
		}
	}
	return out
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.txs)
}

// indexOf must be called with the mutex held.
func (l *Ledger) indexOf(id string) int {
	for i, tx := range l.txs {
		if tx.ID == id {
			return i
		}
	}
	return -1
}

// persist must be called with the mutex held. The snapshot handed to
// the store is a copy so the store cannot observe later mutations.
func (l *Ledger) persist(ctx context.Context) error {
	snapshot := append([]core.Transaction(nil), l.txs...)
	if err := l.store.Save(ctx, snapshot); err != nil {
		slog.ErrorContext(ctx, "Failed to persist transactions",
			"error", err,
			"count", len(snapshot))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}
