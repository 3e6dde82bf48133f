// Package suggest turns expense history into AI-generated monthly
// budget suggestions per category.
package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"duit/internal/core"
)

var (
	// ErrNoExpenses is reported before the model is ever invoked.
	ErrNoExpenses = errors.New("no expense transactions to analyze")

	// ErrEmptyReply means the model answered but produced no usable
	// suggestions.
	ErrEmptyReply = errors.New("model returned no suggestions")

	ErrNotConfigured = errors.New("suggestion service not configured")
)

// PromptRunner executes one prompt against a hosted model and returns
// the raw text reply.
type PromptRunner interface {
	Run(ctx context.Context, prompt string) (string, error)
}

// Service serializes expense history, runs the prompt once (no retry)
// and parses the category→amount mapping back. All failures map to a
// sentinel plus an empty mapping; the caller chooses how to render
// them.
type Service struct {
	runner  PromptRunner
	timeout time.Duration
}

func NewService(runner PromptRunner, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{runner: runner, timeout: timeout}
}

// expenseEntry is the wire shape handed to the model: whole-currency
// amounts, category labels as stored.
type expenseEntry struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// Suggest returns a mapping from category name to suggested monthly
// amount. Without any expense entries the external service is not
// called at all.
func (s *Service) Suggest(ctx context.Context, txs []core.Transaction) (map[string]core.Money, error) {
	var entries []expenseEntry
	for _, t := range txs {
		if t.Type != core.Expense {
			continue
		}
		entries = append(entries, expenseEntry{Category: t.Category, Amount: t.Amount.Units()})
	}
	if len(entries) == 0 {
		return nil, ErrNoExpenses
	}
	if s.runner == nil {
		return nil, ErrNotConfigured
	}

	history, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode expense history: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.runner.Run(ctx, buildPrompt(string(history)))
	if err != nil {
		return nil, fmt.Errorf("run suggestion prompt: %w", err)
	}

	budgets, err := parseBudgets(reply)
	if err != nil {
		slog.WarnContext(ctx, "Unusable suggestion reply", "error", err)
		return nil, err
	}

	slog.InfoContext(ctx, "Budget suggestions generated",
		"expense_count", len(entries),
		"category_count", len(budgets))
	return budgets, nil
}

func buildPrompt(history string) string {
	return fmt.Sprintf(`You are a personal finance advisor. Analyze the user's historical spending data and suggest reasonable monthly budget amounts for each category.

Return only a minified JSON object. No comments, no markdown. Keys are the spending category names exactly as they appear in the input; values are the suggested monthly budget amounts as plain numbers.

Historical transactions (JSON array of {category, amount}):
%s`, history)
}

// parseBudgets extracts the JSON object from the reply and converts it
// to cents. Models occasionally wrap the object in fences or prose, so
// everything outside the outermost braces is discarded.
func parseBudgets(reply string) (map[string]core.Money, error) {
	cleaned := extractJSONObject(reply)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrEmptyReply)
	}

	var raw map[string]float64
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("parse suggestions: %w", err)
	}

	budgets := make(map[string]core.Money, len(raw))
	for category, amount := range raw {
		if amount <= 0 {
			continue
		}
		budgets[category] = core.Money{Cents: int64(amount*100 + 0.5)}
	}
	if len(budgets) == 0 {
		return nil, ErrEmptyReply
	}
	return budgets, nil
}

func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
