package extraction

import (
	"math"
	"regexp"
	"strings"
	"time"

	"go-leave-assistant/internal/domain"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
)

const (
	FieldStartDate = "start_date"
	FieldDateRange = "date_range"
)

type Options struct {
	// DefaultLeaveType applies when the bag names no recognizable type.
	// Zero value means ANNUAL.
	DefaultLeaveType domain.LeaveType
	// ReferenceYear completes dates written without a year.
	ReferenceYear int
}

// Normalized is a typed leave request. Dates are UTC midnight.
type Normalized struct {
	StartDate       *time.Time
	EndDate         *time.Time
	LeaveType       domain.LeaveType
	TotalDays       decimal.Decimal
	HalfDay         bool
	Reason          string
	RawDateText     string
	StartDateFailed bool
	EndDateFailed   bool
}

// Missing lists the fields a follow-up question has to ask for.
func (n Normalized) Missing() []string {
	var missing []string
	if n.StartDate == nil {
		missing = append(missing, FieldStartDate)
	}
	if !n.TotalDays.IsPositive() {
		missing = append(missing, FieldDateRange)
	}
	return missing
}

func (n Normalized) Complete() bool {
	return len(n.Missing()) == 0
}

func Normalize(b Bag, opts Options) Normalized {
	n := Normalized{
		HalfDay:     b.HalfDay,
		Reason:      strings.TrimSpace(b.Reason),
		RawDateText: b.RawDateText,
	}

	n.LeaveType = opts.DefaultLeaveType
	if n.LeaveType == "" {
		n.LeaveType = domain.LeaveAnnual
	}
	if lt, ok := ResolveLeaveType(b.LeaveType); ok {
		n.LeaveType = lt
	}

	if s := strings.TrimSpace(b.StartDate); s != "" {
		if t, ok := ParseDate(s, opts.ReferenceYear); ok {
			n.StartDate = &t
		} else {
			n.StartDateFailed = true
		}
	}
	if s := strings.TrimSpace(b.EndDate); s != "" {
		if t, ok := ParseDate(s, opts.ReferenceYear); ok {
			n.EndDate = &t
		} else {
			n.EndDateFailed = true
		}
	}

	switch {
	case n.StartDate == nil:
		n.EndDate = nil
		n.TotalDays = decimal.Zero
	case n.EndDate != nil:
		days := int(n.EndDate.Sub(*n.StartDate).Hours()/24) + 1
		n.TotalDays = decimal.NewFromInt(int64(days))
	case b.Duration > 0:
		n.TotalDays = decimal.NewFromFloat(b.Duration).Round(2)
		if b.Duration < 1 {
			n.HalfDay = true
		}
		end := n.StartDate.AddDate(0, 0, int(math.Ceil(b.Duration))-1)
		n.EndDate = &end
	default:
		end := *n.StartDate
		n.EndDate = &end
		n.TotalDays = decimal.NewFromInt(1)
		if n.HalfDay {
			n.TotalDays = decimal.NewFromFloat(0.5)
		}
	}
	return n
}

var (
	ordinalSuffix = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)
	extraSpace    = regexp.MustCompile(`\s+`)
)

var yearlessLayouts = []string{"2 January", "January 2", "2 Jan", "Jan 2"}

var fullLayouts = []string{"2 January 2006", "January 2 2006", "2 Jan 2006", "Jan 2 2006"}

// ParseDate reads a calendar date from free text. Dates without a year use
// referenceYear; a zero referenceYear means the current year.
func ParseDate(s string, referenceYear int) (time.Time, bool) {
	clean := ordinalSuffix.ReplaceAllString(strings.TrimSpace(s), "$1")
	clean = strings.ReplaceAll(clean, ",", " ")
	clean = strings.TrimPrefix(strings.TrimSpace(strings.ToLower(clean)), "the ")
	clean = strings.ReplaceAll(clean, " of ", " ")
	clean = extraSpace.ReplaceAllString(strings.TrimSpace(clean), " ")
	if clean == "" {
		return time.Time{}, false
	}
	clean = titleMonths(clean)

	for _, layout := range fullLayouts {
		if t, err := time.Parse(layout, clean); err == nil {
			return dateOnly(t), true
		}
	}
	for _, layout := range yearlessLayouts {
		if t, err := time.Parse(layout, clean); err == nil {
			year := referenceYear
			if year <= 0 {
				year = time.Now().Year()
			}
			return time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}

	t, err := dateparse.ParseIn(clean, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return dateOnly(t), true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// titleMonths restores the capitalisation time.Parse needs for month names.
func titleMonths(s string) string {
	parts := strings.Split(s, " ")
	for i, p := range parts {
		if len(p) >= 3 && p[0] >= 'a' && p[0] <= 'z' {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
