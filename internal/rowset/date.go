package rowset

import (
	"database/sql/driver"
	"fmt"
	"time"

	"sqlbase/internal/shared"
)

// isoDate is the only accepted text form for DATE columns.
const isoDate = "2006-01-02"

// Date is a calendar date without time or zone. It binds as ISO-8601 text and
// is what DATE columns project to.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns the date for the given year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses an ISO-8601 date (YYYY-MM-DD). Locale forms such as
// DD-MM-YYYY are rejected with a type mismatch.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(isoDate, s)
	if err != nil {
		return Date{}, shared.Newf(shared.KindTypeMismatch, "date %q is not ISO-8601 (YYYY-MM-DD)", s)
	}
	return DateOf(t), nil
}

// IsValid reports whether the date names a real calendar day.
func (d Date) IsValid() bool {
	return DateOf(d.Time()) == d && d.Year >= 0 && d.Year <= 9999
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if !d.IsValid() {
		return nil, shared.Newf(shared.KindTypeMismatch, "invalid date %04d-%02d-%02d", d.Year, int(d.Month), d.Day)
	}
	return d.String(), nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	default:
		return shared.Newf(shared.KindTypeMismatch, "cannot scan %T into Date", src)
	}
}
