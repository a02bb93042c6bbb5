package daterange

import (
	"math"
	"regexp"
	"time"

	"rigrent/internal/domain/shared/errs"
)

var (
	ErrInvalidRange  = errs.Validation("invalid_range", "daterange: end must be after start")
	ErrInvalidDate   = errs.Validation("invalid_date", "daterange: date must be a valid YYYY-MM-DD calendar date")
	ErrInvertedRange = errs.Validation("inverted_range", "daterange: end date is before start date")
)

const (
	// Layout is the wire format of calendar dates.
	Layout = "2006-01-02"
	day    = 24 * time.Hour
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseDate interprets s as UTC midnight of the given calendar day.
func ParseDate(s string) (time.Time, error) {
	if !datePattern.MatchString(s) {
		return time.Time{}, ErrInvalidDate
	}
	t, err := time.ParseInLocation(Layout, s, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// FormatDate is the inverse of ParseDate.
func FormatDate(t time.Time) string {
	return t.UTC().Format(Layout)
}

// AddDays adds n whole days. All instants are UTC midnight so there is no DST drift.
func AddDays(t time.Time, n int) time.Time {
	return t.UTC().AddDate(0, 0, n)
}

// Overlaps tests half-open intervals [aStart, aEnd) and [bStart, bEnd).
// Intervals that only touch at a boundary do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// NightsBetween is the number of day boundaries between two half-open endpoints.
func NightsBetween(start, end time.Time) int {
	return int(math.Round(float64(end.Sub(start)) / float64(day)))
}

// InclusiveDays counts rental days for an inclusive [start, end] pair: a same-day
// rental is one day.
func InclusiveDays(start, end time.Time) int {
	return NightsBetween(start, end) + 1
}

// DateRange represents a half-open interval [Start, End)
type DateRange struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: start.UTC(), End: end.UTC()}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Inclusive converts caller-facing inclusive dates into the half-open probe
// [start, end+1 day).
func Inclusive(startDate, endDate string) (DateRange, error) {
	start, err := ParseDate(startDate)
	if err != nil {
		return DateRange{}, err
	}
	end, err := ParseDate(endDate)
	if err != nil {
		return DateRange{}, err
	}
	if end.Before(start) {
		return DateRange{}, ErrInvertedRange
	}
	return DateRange{Start: start, End: AddDays(end, 1)}, nil
}

func (dr DateRange) Validate() error {
	if dr.End.IsZero() || dr.Start.IsZero() {
		return ErrInvalidRange
	}
	if !dr.End.After(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

func (dr DateRange) Nights() int {
	return NightsBetween(dr.Start, dr.End)
}

// LastDay is the final inclusive calendar day of the range.
func (dr DateRange) LastDay() time.Time {
	return AddDays(dr.End, -1)
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return Overlaps(dr.Start, dr.End, other.Start, other.End)
}

func (dr DateRange) Contains(other DateRange) bool {
	return !other.Start.Before(dr.Start) && !other.End.After(dr.End)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = t.UTC()
	return !t.Before(dr.Start) && t.Before(dr.End)
}

func (dr DateRange) String() string {
	return "[" + FormatDate(dr.Start) + ", " + FormatDate(dr.End) + ")"
}
