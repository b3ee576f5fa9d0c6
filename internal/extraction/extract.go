package extraction

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const monthPattern = `(?:january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)`

var (
	isoDateRe      = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	dayMonthRe     = regexp.MustCompile(`(?i)\b\d{1,2}(?:st|nd|rd|th)?\s+(?:of\s+)?` + monthPattern + `\b(?:,?\s+\d{4})?`)
	monthDayRe     = regexp.MustCompile(`(?i)\b` + monthPattern + `\s+\d{1,2}(?:st|nd|rd|th)?\b(?:,?\s+\d{4})?`)
	relativeDayRe  = regexp.MustCompile(`(?i)\b(today|tomorrow)\b`)
	durationDaysRe = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(?:working\s+|business\s+)?days?\b`)
	durationWeekRe = regexp.MustCompile(`(?i)\b(\d+|a|one|two)\s+weeks?\b`)
	halfDayRe      = regexp.MustCompile(`(?i)\bhalf[\s-]?day\b`)
	appNumberRe    = regexp.MustCompile(`(?i)\bLA\d{4}-\d{4}\b`)
	reasonRe       = regexp.MustCompile(`(?i)\b(?:because|due to|reason(?:\s+is)?:?)\s+(.+)$`)
	forReasonRe    = regexp.MustCompile(`(?i)\bfor\s+(?:my|a|an|the)\s+([a-z][a-z\s']{2,40})`)
)

type dateMatch struct {
	pos  int
	text string
}

// Extract pulls leave details out of a chat message with fixed patterns.
// It is used when the classification oracle is unavailable; now anchors
// "today" and "tomorrow".
func Extract(message string, now time.Time) Bag {
	var b Bag
	if strings.TrimSpace(message) == "" {
		return b
	}

	dates := findDates(message, now)
	if len(dates) > 0 {
		b.StartDate = dates[0].text
		raw := []string{dates[0].text}
		if len(dates) > 1 {
			b.EndDate = dates[1].text
			raw = append(raw, dates[1].text)
		}
		b.RawDateText = strings.Join(raw, " - ")
	}

	if halfDayRe.MatchString(message) {
		b.HalfDay = true
		b.Duration = 0.5
	} else if m := durationDaysRe.FindStringSubmatch(message); m != nil {
		if d, err := strconv.ParseFloat(m[1], 64); err == nil && d > 0 {
			b.Duration = d
		}
	} else if m := durationWeekRe.FindStringSubmatch(message); m != nil {
		b.Duration = float64(7 * weekCount(m[1]))
	}

	if lt, ok := ResolveLeaveType(message); ok {
		b.LeaveType = string(lt)
	}

	if m := appNumberRe.FindString(message); m != "" {
		b.ApplicationNumber = strings.ToUpper(m)
	}

	if m := reasonRe.FindStringSubmatch(message); m != nil {
		b.Reason = strings.TrimRight(strings.TrimSpace(m[1]), ".!")
	} else if m := forReasonRe.FindStringSubmatch(message); m != nil {
		b.Reason = strings.TrimSpace(m[1])
	}
	return b
}

// HasDateOrDuration reports whether the message carries any date or length.
func HasDateOrDuration(message string) bool {
	return isoDateRe.MatchString(message) ||
		dayMonthRe.MatchString(message) ||
		monthDayRe.MatchString(message) ||
		relativeDayRe.MatchString(message) ||
		durationDaysRe.MatchString(message) ||
		durationWeekRe.MatchString(message) ||
		halfDayRe.MatchString(message)
}

func findDates(message string, now time.Time) []dateMatch {
	var found []dateMatch
	taken := make([]bool, len(message))

	collect := func(re *regexp.Regexp, render func(string) string) {
		for _, loc := range re.FindAllStringIndex(message, -1) {
			overlaps := false
			for i := loc[0]; i < loc[1]; i++ {
				if taken[i] {
					overlaps = true
					break
				}
			}
			if overlaps {
				continue
			}
			for i := loc[0]; i < loc[1]; i++ {
				taken[i] = true
			}
			found = append(found, dateMatch{pos: loc[0], text: render(message[loc[0]:loc[1]])})
		}
	}

	identity := func(s string) string { return strings.TrimSpace(s) }
	collect(isoDateRe, identity)
	collect(dayMonthRe, identity)
	collect(monthDayRe, identity)
	collect(relativeDayRe, func(s string) string {
		day := now
		if strings.EqualFold(s, "tomorrow") {
			day = now.AddDate(0, 0, 1)
		}
		return day.Format("2006-01-02")
	})

	sort.SliceStable(found, func(i, j int) bool { return found[i].pos < found[j].pos })
	return found
}

func weekCount(s string) int {
	switch strings.ToLower(s) {
	case "a", "one":
		return 1
	case "two":
		return 2
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 1
	}
	return n
}
