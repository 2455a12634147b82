package performance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/validator"
)

const dateLayout = "2006-01-02"

// DateRange is an inclusive calendar window. A nil bound is unbounded.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// ParseDateRange parses optional YYYY-MM-DD bounds; empty strings mean unbounded.
func ParseDateRange(from, to string) (DateRange, error) {
	var r DateRange
	var errs validator.ValidationErrors
	if from != "" {
		d, ok := validator.IsValidDate(from)
		if !ok {
			errs = append(errs, validator.ValidationError{Field: "date_from", Message: "date_from must be in YYYY-MM-DD format"})
		} else {
			r.From = &d
		}
	}
	if to != "" {
		d, ok := validator.IsValidDate(to)
		if !ok {
			errs = append(errs, validator.ValidationError{Field: "date_to", Message: "date_to must be in YYYY-MM-DD format"})
		} else {
			r.To = &d
		}
	}
	if len(errs) > 0 {
		return DateRange{}, errs
	}
	return r, nil
}

// Validate rejects a window whose start is after its end.
func (r DateRange) Validate() error {
	if r.From != nil && r.To != nil && r.From.After(*r.To) {
		return fmt.Errorf("date_from %s is after date_to %s", r.From.Format(dateLayout), r.To.Format(dateLayout))
	}
	return nil
}

// IsBounded reports whether both bounds are present.
func (r DateRange) IsBounded() bool {
	return r.From != nil && r.To != nil
}

// Contains reports whether the calendar date of t lies inside the window.
func (r DateRange) Contains(t time.Time) bool {
	d := truncateDate(t)
	if r.From != nil && d.Before(truncateDate(*r.From)) {
		return false
	}
	if r.To != nil && d.After(truncateDate(*r.To)) {
		return false
	}
	return true
}

func (r DateRange) String() string {
	p := r.Period()
	return p.DateFrom + ".." + p.DateTo
}

// Period renders the window for responses; open bounds read "All Time".
func (r DateRange) Period() Period {
	p := Period{DateFrom: "All Time", DateTo: "All Time"}
	if r.From != nil {
		p.DateFrom = r.From.Format(dateLayout)
	}
	if r.To != nil {
		p.DateTo = r.To.Format(dateLayout)
	}
	return p
}

// Period is the JSON form of an analysis window.
type Period struct {
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
}

// MonthRange returns the inclusive window of a calendar month.
func MonthRange(year int, month time.Month) DateRange {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return DateRange{From: &first, To: &last}
}

// QuarterRange returns the inclusive window of quarter 1..4 of a year.
func QuarterRange(year, quarter int) (DateRange, error) {
	if quarter < 1 || quarter > 4 {
		return DateRange{}, fmt.Errorf("quarter must be between 1 and 4, got %d", quarter)
	}
	first := time.Date(year, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 3, -1)
	return DateRange{From: &first, To: &last}, nil
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
