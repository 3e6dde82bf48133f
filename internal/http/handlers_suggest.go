package http

import (
	"errors"
	"net/http"
	"sort"

	"duit/internal/log"
	"duit/internal/suggest"
)

type suggestionRow struct {
	Category string
	Amount   string
}

type suggestionsView struct {
	Available   bool
	Suggestions []suggestionRow
	Message     string
	Ran         bool
}

func (s *Server) renderSuggestions(w http.ResponseWriter, r *http.Request, data suggestionsView) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if err := s.templates.ExecuteTemplate(w, "suggestions.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Suggestions template execution failed",
			log.FieldError, err, "template", "suggestions.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	s.renderSuggestions(w, r, suggestionsView{Available: s.suggester != nil})
}

func (s *Server) handleRunSuggestions(w http.ResponseWriter, r *http.Request) {
	data := suggestionsView{Available: s.suggester != nil, Ran: true}

	if s.suggester == nil {
		data.Message = "Budget suggestions are not configured."
		s.renderSuggestions(w, r, data)
		return
	}

	budgets, err := s.suggester.Suggest(r.Context(), s.ledger.All())
	switch {
	case errors.Is(err, suggest.ErrNoExpenses):
		data.Message = "Add some expenses first, there is nothing to base a budget on yet."
	case errors.Is(err, suggest.ErrNotConfigured):
		data.Message = "Budget suggestions are not configured."
		data.Available = false
	case err != nil:
		s.logger.ErrorContext(r.Context(), "Suggestion run failed",
			log.FieldError, err, log.FieldOperation, log.OpSuggest)
		data.Message = "Could not generate suggestions right now. Please try again later."
	default:
		for category, amount := range budgets {
			data.Suggestions = append(data.Suggestions, suggestionRow{
				Category: category,
				Amount:   formatRupiah(amount.Cents),
			})
		}
		sort.Slice(data.Suggestions, func(i, j int) bool {
			return data.Suggestions[i].Category < data.Suggestions[j].Category
		})
	}

	s.renderSuggestions(w, r, data)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if err := s.templates.ExecuteTemplate(w, "login.html", nil); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if err := s.templates.ExecuteTemplate(w, "signup.html", nil); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
