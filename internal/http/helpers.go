package http

import (
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"duit/internal/daterange"
)

// formatRupiah formats cents as a Rupiah currency string with dot
// thousands grouping (e.g. "Rp 1.250.000"). Fractional cents are rare
// for Rupiah and only shown when present.
func formatRupiah(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	units := cents / 100
	rem := cents % 100

	s := strconv.FormatInt(units, 10)
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}

	out := "Rp " + b.String()
	if rem != 0 {
		out += "," + twoDigits(rem)
	}
	if neg {
		return "-" + out
	}
	return out
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

// formatSignedRupiah prefixes positive amounts with "+", used for the
// balance card where sign carries meaning.
func formatSignedRupiah(cents int64) string {
	if cents > 0 {
		return "+" + formatRupiah(cents)
	}
	return formatRupiah(cents)
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"rupiah":       formatRupiah,
		"signedRupiah": formatSignedRupiah,
		"percent": func(share float64) string {
			return strconv.FormatFloat(share*100, 'f', 1, 64) + "%"
		},
	}
}

const queryDateLayout = "2006-01-02"

// rangeQuery carries the resolved period plus everything the templates
// need to rebuild filter links.
type rangeQuery struct {
	Filter daterange.Filter
	Range  daterange.Range
}

// parseRangeQuery resolves the period from query parameters. The filter
// defaults to the current month. When from/to anchor an earlier period
// the range is rebuilt from them, and step=prev|next shifts it.
func parseRangeQuery(r *http.Request, now time.Time) rangeQuery {
	q := r.URL.Query()

	f, err := daterange.ParseFilter(q.Get("filter"))
	if err != nil {
		f = daterange.ThisMonth
	}

	from, fromErr := time.Parse(queryDateLayout, q.Get("from"))
	to, toErr := time.Parse(queryDateLayout, q.Get("to"))

	var rng daterange.Range
	switch {
	case f == daterange.Custom:
		if fromErr != nil {
			// No usable custom bounds, fall back to the current month.
			return rangeQuery{Filter: daterange.ThisMonth, Range: daterange.Resolve(daterange.ThisMonth, now)}
		}
		if toErr != nil {
			to = time.Time{}
		}
		rng = daterange.NewCustom(from, to)
	case fromErr == nil && toErr == nil:
		rng = daterange.Range{From: from, To: to}
	default:
		rng = daterange.Resolve(f, now)
	}

	switch q.Get("step") {
	case "prev":
		rng, _ = daterange.Step(f, rng, daterange.Previous, now)
	case "next":
		rng, _ = daterange.Step(f, rng, daterange.Next, now)
	}

	return rangeQuery{Filter: f, Range: rng}
}

// FromParam and ToParam feed the hidden form fields that anchor
// prev/next links to the period currently shown.
func (rq rangeQuery) FromParam() string { return rq.Range.From.Format(queryDateLayout) }
func (rq rangeQuery) ToParam() string   { return rq.Range.To.Format(queryDateLayout) }

func (rq rangeQuery) Label() string {
	return daterange.Label(rq.Filter, rq.Range)
}

func (rq rangeQuery) Steppable() bool {
	return rq.Filter != daterange.Custom
}

func (rq rangeQuery) CanStepForward(now time.Time) bool {
	return daterange.CanStepForward(rq.Filter, rq.Range, now)
}

func (rq rangeQuery) cacheKey(view string) string {
	return view + ":" + string(rq.Filter) + ":" + rq.FromParam() + ":" + rq.ToParam()
}
