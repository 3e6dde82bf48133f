package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"duit/internal/core"
	"duit/internal/events"
	"duit/internal/ledger"
	"duit/internal/log"
)

type transactionRow struct {
	ID        string
	Type      string
	Category  string
	Note      string
	Date      string
	Time      string
	Amount    string
	AmountRaw string
	IsExpense bool
}

type periodView struct {
	Filter     string
	Label      string
	From       string
	To         string
	Steppable  bool
	CanForward bool
}

type dashboardView struct {
	Period            periodView
	Income            string
	Expense           string
	Balance           string
	BalanceNegative   bool
	Transactions      []transactionRow
	Count             int
	IncomeCategories  []string
	ExpenseCategories []string
	Error             string
}

// persistFailureNotice is shown when a mutation was applied in memory
// but the store write failed.
const persistFailureNotice = "Saved, but writing to storage failed. The change may not survive a restart."

func (s *Server) periodView(rq rangeQuery, now time.Time) periodView {
	return periodView{
		Filter:     string(rq.Filter),
		Label:      rq.Label(),
		From:       rq.FromParam(),
		To:         rq.ToParam(),
		Steppable:  rq.Steppable(),
		CanForward: rq.CanStepForward(now),
	}
}

func transactionRows(txs []core.Transaction) []transactionRow {
	rows := make([]transactionRow, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, transactionRow{
			ID:        t.ID,
			Type:      string(t.Type),
			Category:  t.Category,
			Note:      t.Note,
			Date:      t.Date,
			Time:      t.Time,
			Amount:    formatRupiah(t.Amount.Cents),
			AmountRaw: core.FormatCentsDecimal(t.Amount.Cents),
			IsExpense: t.Type == core.Expense,
		})
	}
	return rows
}

// renderDashboard builds and writes the dashboard page. errMsg, when
// set, appears as the inline error banner; otherwise the banner echoes
// the error query param left by a redirect.
func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	rq := parseRangeQuery(r, now)
	txs := s.ledger.Between(rq.Range)
	sum := core.Summarize(txs)

	if errMsg == "" {
		errMsg = sanitizeInput(r.URL.Query().Get("error"))
	}

	data := dashboardView{
		Period:            s.periodView(rq, now),
		Income:            formatRupiah(sum.Income.Cents),
		Expense:           formatRupiah(sum.Expense.Cents),
		Balance:           formatSignedRupiah(sum.Balance),
		BalanceNegative:   sum.Balance < 0,
		Transactions:      transactionRows(txs),
		Count:             len(txs),
		IncomeCategories:  core.IncomeCategories,
		ExpenseCategories: core.ExpenseCategories,
		Error:             errMsg,
	}

	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Dashboard template execution failed",
			log.FieldError, err, "template", "dashboard.html")
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.renderDashboard(w, r, http.StatusOK, "")
}

// transactionFromForm builds a transaction draft from a submitted form.
// Date and time default to the current moment when left empty.
func transactionFromForm(r *http.Request, now time.Time) (core.Transaction, error) {
	txType := core.TransactionType(sanitizeInput(r.Form.Get("type")))

	amountStr := strings.TrimSpace(r.Form.Get("amount"))
	cents, err := core.ParseDecimalToCents(amountStr)
	if err != nil {
		return core.Transaction{}, err
	}

	date := sanitizeInput(r.Form.Get("date"))
	if date == "" {
		date = now.Format("2006-01-02")
	}
	clock := sanitizeInput(r.Form.Get("time"))
	if clock == "" {
		clock = now.Format("15:04")
	}

	return core.Transaction{
		Type:     txType,
		Amount:   core.Money{Cents: cents},
		Category: sanitizeInput(r.Form.Get("category")),
		Note:     sanitizeInput(r.Form.Get("note")),
		Date:     date,
		Time:     clock,
	}, nil
}

// finishMutation runs the side effects owed once an in-memory mutation
// stands, then redirects. A persistence failure still lands here: the
// ledger keeps the change, so caches and the mirror must hear about it,
// and the user sees a transient notice instead of a validation error.
func (s *Server) finishMutation(w http.ResponseWriter, r *http.Request, msg events.Message, persistErr error) {
	s.publish(r.Context(), msg)
	s.invalidateViews()

	target := "/"
	if persistErr != nil {
		s.logger.ErrorContext(r.Context(), "Mutation persisted in memory only",
			log.FieldError, persistErr, "kind", string(msg.Kind), log.FieldTxID, msg.ID)
		target = "/?error=" + url.QueryEscape(persistFailureNotice)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.logger.ErrorContext(r.Context(), "Parse form error", log.FieldError, err, log.FieldPath, r.URL.Path)
		http.Error(w, "invalid request format", http.StatusBadRequest)
		return
	}

	draft, err := transactionFromForm(r, time.Now())
	if err != nil {
		s.renderDashboard(w, r, http.StatusUnprocessableEntity, "Invalid amount.")
		return
	}

	tx, err := s.ledger.Add(r.Context(), draft)
	if err != nil && !errors.Is(err, ledger.ErrPersist) {
		s.renderDashboard(w, r, http.StatusUnprocessableEntity, "Invalid transaction: "+err.Error())
		return
	}

	s.logger.InfoContext(r.Context(), "Transaction created",
		log.NewFields().
			WithTransaction(tx.ID, string(tx.Type), tx.Category, tx.Amount.Cents).
			WithOperation(log.OpCreate).ToSlice()...)

	s.finishMutation(w, r, events.NewAdded(tx), err)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid request format", http.StatusBadRequest)
		return
	}

	tx, err := transactionFromForm(r, time.Now())
	if err != nil {
		s.renderDashboard(w, r, http.StatusUnprocessableEntity, "Invalid amount.")
		return
	}
	tx.ID = id

	err = s.ledger.Update(r.Context(), tx)
	if err != nil && !errors.Is(err, ledger.ErrPersist) {
		if errors.Is(err, ledger.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.renderDashboard(w, r, http.StatusUnprocessableEntity, "Invalid transaction: "+err.Error())
		return
	}

	s.logger.InfoContext(r.Context(), "Transaction updated",
		log.NewFields().
			WithTransaction(tx.ID, string(tx.Type), tx.Category, tx.Amount.Cents).
			WithOperation(log.OpUpdate).ToSlice()...)

	s.finishMutation(w, r, events.NewUpdated(tx), err)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := s.ledger.Remove(r.Context(), id)
	if err != nil && !errors.Is(err, ledger.ErrPersist) {
		if errors.Is(err, ledger.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.ErrorContext(r.Context(), "Transaction delete failed", log.FieldError, err, log.FieldTxID, id)
		http.Error(w, "delete failed", http.StatusInternalServerError)
		return
	}

	s.logger.InfoContext(r.Context(), "Transaction deleted", log.FieldTxID, id, log.FieldOperation, log.OpDelete)

	s.finishMutation(w, r, events.NewRemoved(id), err)
}
