package http

import (
	"net/http"
	"time"

	"duit/internal/core"
	"duit/internal/daterange"
	"duit/internal/log"
)

type distributionRow struct {
	Category string
	Amount   string
	Share    float64
	Width    int
}

type trendPointView struct {
	Label  string
	Amount string
	Width  int
}

// analyticsView is the cached, render-ready form of the analytics page
// for one period.
type analyticsView struct {
	TotalExpense string
	Distribution []distributionRow
	Trend        []trendPointView
	TrendUnit    string
	HasExpenses  bool
}

type analyticsPage struct {
	Period periodView
	View   analyticsView
}

// barWidth maps an amount to a rounded percent of the largest bar,
// keeping tiny nonzero values visible.
func barWidth(cents, maxCents int64) int {
	if maxCents <= 0 || cents <= 0 {
		return 0
	}
	width := int((cents*100 + maxCents/2) / maxCents)
	if width > 0 && width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}

func buildAnalyticsView(txs []core.Transaction, rq rangeQuery) analyticsView {
	sum := core.Summarize(txs)
	dist := core.ExpenseDistribution(txs)

	var view analyticsView
	view.TotalExpense = formatRupiah(sum.Expense.Cents)
	view.HasExpenses = sum.Expense.Cents > 0

	var maxDist int64
	for _, d := range dist {
		if d.Amount.Cents > maxDist {
			maxDist = d.Amount.Cents
		}
	}
	for _, d := range dist {
		view.Distribution = append(view.Distribution, distributionRow{
			Category: d.Category,
			Amount:   formatRupiah(d.Amount.Cents),
			Share:    d.Share,
			Width:    barWidth(d.Amount.Cents, maxDist),
		})
	}

	// Year ranges get monthly buckets, everything else daily ones.
	var trend []core.TrendPoint
	if rq.Filter == daterange.ThisYear {
		trend = core.MonthlyExpenseTotals(txs, rq.Range.From.Year())
		view.TrendUnit = "month"
	} else {
		trend = core.DailyExpenseTotals(txs, rq.Range.From, rq.Range.To)
		view.TrendUnit = "day"
	}

	var maxTrend int64
	for _, p := range trend {
		if p.Amount.Cents > maxTrend {
			maxTrend = p.Amount.Cents
		}
	}
	for _, p := range trend {
		view.Trend = append(view.Trend, trendPointView{
			Label:  p.Label,
			Amount: formatRupiah(p.Amount.Cents),
			Width:  barWidth(p.Amount.Cents, maxTrend),
		})
	}

	return view
}

func (s *Server) analyticsFor(rq rangeQuery) analyticsView {
	key := rq.cacheKey("analytics")
	if view, found := s.analyticsCache.Get(key); found {
		return view
	}

	view := buildAnalyticsView(s.ledger.Between(rq.Range), rq)
	s.analyticsCache.Set(key, view)
	return view
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	rq := parseRangeQuery(r, now)

	data := analyticsPage{
		Period: s.periodView(rq, now),
		View:   s.analyticsFor(rq),
	}

	if err := s.templates.ExecuteTemplate(w, "analytics.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Analytics template execution failed",
			log.FieldError, err, "template", "analytics.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
