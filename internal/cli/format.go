// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"errors"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rivo/uniseg"
	"github.com/shopspring/decimal"
)

// FormatNumber groups thousands with dots, Chilean style.
// e.g., 20500000 -> "20.500.000"
func FormatNumber(n int64) string {
	return strings.ReplaceAll(humanize.Comma(n), ",", ".")
}

// FormatCLP formats an integer peso amount: 1500000 -> "$1.500.000",
// -2500 -> "-$2.500".
func FormatCLP(n int64) string {
	if n < 0 {
		return "-$" + strings.TrimPrefix(FormatNumber(n), "-")
	}
	return "$" + FormatNumber(n)
}

// ErrAmountRange is returned for amounts that do not fit in whole pesos.
var ErrAmountRange = errors.New("monto fuera de rango")

var (
	groupedThousands = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+$`)
	maxPesos         = decimal.NewFromInt(math.MaxInt64)
	minPesos         = decimal.NewFromInt(math.MinInt64)
)

// ParseCLP reads an amount written plainly ("1500000", "250.6") or the
// es-CL way ("$ 1.500.000", "12,5"). A dot followed only by three-digit
// groups separates thousands; pesos have no fractional unit.
func ParseCLP(s string) (decimal.Decimal, error) {
	s = strings.NewReplacer("$", "", " ", "", "\u00a0", "").Replace(strings.TrimSpace(s))
	switch {
	case strings.Contains(s, ","):
		s = strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
	case groupedThousands.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.GreaterThan(maxPesos) || d.LessThan(minPesos) {
		return decimal.Zero, ErrAmountRange
	}
	return d, nil
}

// FormatMoney rounds a derived figure to whole pesos and formats it.
func FormatMoney(d decimal.Decimal) string {
	return FormatCLP(d.Round(0).IntPart())
}

// FormatPercent formats a percentage with one decimal and a comma.
// e.g., 89.5 -> "89,5%"
func FormatPercent(pct decimal.Decimal) string {
	return strings.Replace(pct.StringFixed(1), ".", ",", 1) + "%"
}

var dateLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04", time.RFC3339, "2006-01-02"}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a stored date as "07/01/2026 09:00" (time omitted
// for date-only values). Unparseable input is returned as is.
func FormatDate(s string) string {
	t, ok := parseDate(s)
	if !ok {
		return s
	}
	if len(s) == len("2006-01-02") {
		return t.Format("02/01/2006")
	}
	return t.Format("02/01/2006 15:04")
}

// FormatDateRange joins an event's start and end dates for display.
func FormatDateRange(start, end string) string {
	switch {
	case start == "" && end == "":
		return "Sin fecha"
	case end == "":
		return FormatDate(start)
	case start == "":
		return "hasta " + FormatDate(end)
	}

	s, okS := parseDate(start)
	e, okE := parseDate(end)
	if okS && okE && s.Format("2006-01-02") == e.Format("2006-01-02") {
		return FormatDate(start) + " - " + e.Format("15:04")
	}
	return FormatDate(start) + " - " + FormatDate(end)
}

// Truncate shortens s to at most width terminal cells, ending in "…".
// It never splits a grapheme cluster.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if uniseg.StringWidth(s) <= width {
		return s
	}

	var b strings.Builder
	used := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := g.Width()
		if used+w > width-1 {
			break
		}
		b.WriteString(g.Str())
		used += w
	}
	return b.String() + "…"
}
