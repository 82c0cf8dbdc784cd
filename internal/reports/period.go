package reports

import (
	"fmt"
	"time"
)

// PeriodType enumerates supported reporting windows.
type PeriodType string

const (
	PeriodMonth   PeriodType = "MONTH"
	PeriodQuarter PeriodType = "QUARTER"
	PeriodYear    PeriodType = "YEAR"
	// PeriodStatutory is the bimonthly tax-filing window: a fixed
	// odd/even month pairing (Jan-Feb, Mar-Apr, ..., Nov-Dec)
	// independent of the ordinary calendar periods.
	PeriodStatutory PeriodType = "STATUTORY_BIMONTHLY"
)

// Period bounds one reporting window. Cutoffs are inclusive-start,
// exclusive-end: a date exactly on a cutoff belongs to the period that
// begins at that instant. Postings dated before BeginCutoff accumulate
// into the beginning balance; postings in [BeginCutoff, EndCutoff) form
// the midterm; the ending balance is derived, never summed directly.
type Period struct {
	BeginCutoff time.Time
	EndCutoff   time.Time
}

// Contains reports whether ts falls inside the reporting window.
func (p Period) Contains(ts time.Time) bool {
	return !ts.Before(p.BeginCutoff) && ts.Before(p.EndCutoff)
}

// BeforeWindow reports whether ts precedes the reporting window.
func (p Period) BeforeWindow(ts time.Time) bool {
	return ts.Before(p.BeginCutoff)
}

// InclusiveEnd returns the last day inside the window.
func (p Period) InclusiveEnd() time.Time {
	return p.EndCutoff.AddDate(0, 0, -1)
}

// Previous returns the window of equal length immediately preceding
// this one, used for prior-period comparison columns. Calendar-aligned
// windows shift by whole months so month lengths stay correct.
func (p Period) Previous() Period {
	if p.BeginCutoff.Day() == 1 && p.EndCutoff.Day() == 1 {
		if span := monthSpan(p.BeginCutoff, p.EndCutoff); span > 0 {
			return Period{
				BeginCutoff: p.BeginCutoff.AddDate(0, -span, 0),
				EndCutoff:   p.BeginCutoff,
			}
		}
	}
	span := p.EndCutoff.Sub(p.BeginCutoff)
	return Period{
		BeginCutoff: p.BeginCutoff.Add(-span),
		EndCutoff:   p.BeginCutoff,
	}
}

func monthSpan(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// BoundariesFor maps an anchor date to the enclosing reporting window of
// the given type. Calendar cutoffs are first-of-month boundaries.
func BoundariesFor(periodType PeriodType, anchor time.Time) (Period, error) {
	year, month := anchor.Year(), anchor.Month()
	loc := anchor.Location()
	switch periodType {
	case PeriodMonth:
		start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
		return Period{BeginCutoff: start, EndCutoff: start.AddDate(0, 1, 0)}, nil
	case PeriodQuarter:
		qStart := time.Month((int(month)-1)/3*3 + 1)
		start := time.Date(year, qStart, 1, 0, 0, 0, 0, loc)
		return Period{BeginCutoff: start, EndCutoff: start.AddDate(0, 3, 0)}, nil
	case PeriodYear:
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
		return Period{BeginCutoff: start, EndCutoff: start.AddDate(1, 0, 0)}, nil
	case PeriodStatutory:
		return StatutoryPeriod(anchor), nil
	default:
		return Period{}, fmt.Errorf("reports: unknown period type %q", periodType)
	}
}

// StatutoryPeriod maps any date to the enclosing two-month statutory
// filing block. Blocks always start on an odd month.
func StatutoryPeriod(anchor time.Time) Period {
	month := anchor.Month()
	blockStart := month
	if month%2 == 0 {
		blockStart = month - 1
	}
	start := time.Date(anchor.Year(), blockStart, 1, 0, 0, 0, 0, anchor.Location())
	return Period{BeginCutoff: start, EndCutoff: start.AddDate(0, 2, 0)}
}
