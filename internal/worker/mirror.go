// Package worker maintains the SQLite reporting mirror from the
// ledger's mutation event stream.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"duit/internal/core"
	"duit/internal/events"
	"duit/internal/ledger"
)

// Sink is the mirror side the worker writes to.
type Sink interface {
	Upsert(ctx context.Context, tx core.Transaction) error
	DeleteByID(ctx context.Context, id string) error
	Save(ctx context.Context, txs []core.Transaction) error
}

// Mirror applies mutation events to a sink and can resynchronize the
// whole mirror from the authoritative store.
type Mirror struct {
	sink   Sink
	source ledger.Store
}

func NewMirror(sink Sink, source ledger.Store) *Mirror {
	return &Mirror{sink: sink, source: source}
}

// HandleEvent applies one mutation event.
func (m *Mirror) HandleEvent(ctx context.Context, msg events.Message) error {
	switch msg.Kind {
	case events.TransactionAdded, events.TransactionUpdated:
		if msg.Transaction == nil {
			return fmt.Errorf("%s event without payload", msg.Kind)
		}
		if err := m.sink.Upsert(ctx, *msg.Transaction); err != nil {
			return fmt.Errorf("mirror %s: %w", msg.Kind, err)
		}
	case events.TransactionRemoved:
		if err := m.sink.DeleteByID(ctx, msg.ID); err != nil {
			return fmt.Errorf("mirror %s: %w", msg.Kind, err)
		}
	default:
		return fmt.Errorf("unknown event kind %q", msg.Kind)
	}

	slog.DebugContext(ctx, "Mirrored mutation event",
		"kind", string(msg.Kind),
		"transaction_id", msg.ID)
	return nil
}

// Resync replaces the mirror contents with the authoritative store's
// current state. Run at startup so events missed while the worker was
// down do not leave the mirror stale forever.
func (m *Mirror) Resync(ctx context.Context) error {
	txs, err := m.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load source for resync: %w", err)
	}
	if err := m.sink.Save(ctx, txs); err != nil {
		return fmt.Errorf("write mirror resync: %w", err)
	}
	slog.InfoContext(ctx, "Mirror resynchronized", "count", len(txs))
	return nil
}

// RunPeriodicResync resyncs on the given interval until ctx is
// cancelled. Individual failures are logged and retried next tick.
func (m *Mirror) RunPeriodicResync(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := m.Resync(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic resync failed", "error", err)
			}
		}
	}
}
