package normalizer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	minYear      = 1900
	maxYear      = 2100
	maxExcelDays = 100000
	yearPivot    = 50
)

var (
	excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

	timeSuffix = `(?:[ T]+\d{1,2}:\d{2}(?::\d{2}(?:\.\d+)?)?(?:\s*(?:Z|[+-]\d{2}:?\d{2}))?)?`
	dayFirst   = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4}|\d{2})` + timeSuffix + `$`)
	yearFirst  = regexp.MustCompile(`^(\d{4})[/-](\d{1,2})[/-](\d{1,2})` + timeSuffix + `$`)
	serialLike = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)
)

// Date is a calendar date without a time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns the date of t in its own location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// String renders the ISO form YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, ok := ParseDateString(string(b))
	if !ok {
		return fmt.Errorf("invalid date %q", b)
	}
	*d = parsed
	return nil
}

// ParseDate accepts time.Time values, numeric Excel serials and the textual
// formats DD/MM/YYYY, DD-MM-YYYY, YYYY-MM-DD and YYYY/MM/DD, with two-digit
// year variants and an optional trailing time. It never guesses: anything
// that does not reconstruct to the same calendar date is rejected.
func ParseDate(v any) (Date, bool) {
	switch val := v.(type) {
	case nil:
		return Date{}, false
	case time.Time:
		if val.IsZero() {
			return Date{}, false
		}
		return inRange(NewDate(val))
	case *time.Time:
		if val == nil {
			return Date{}, false
		}
		return ParseDate(*val)
	case int:
		return FromExcelSerial(float64(val))
	case int64:
		return FromExcelSerial(float64(val))
	case float64:
		return FromExcelSerial(val)
	case string:
		return ParseDateString(val)
	}
	return Date{}, false
}

// ParseDateString parses the textual forms described on ParseDate,
// including numeric strings holding an Excel serial.
func ParseDateString(raw string) (Date, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Date{}, false
	}

	if m := dayFirst.FindStringSubmatch(s); m != nil {
		year := atoi(m[3])
		if len(m[3]) == 2 {
			year = expandYear(year)
		}
		return validDate(year, atoi(m[2]), atoi(m[1]))
	}
	if m := yearFirst.FindStringSubmatch(s); m != nil {
		return validDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if serialLike.MatchString(s) {
		f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
		if err != nil {
			return Date{}, false
		}
		return FromExcelSerial(f)
	}
	return Date{}, false
}

// FromExcelSerial converts a spreadsheet serial day number (epoch 1899-12-30).
// The fractional time part is discarded.
func FromExcelSerial(serial float64) (Date, bool) {
	if math.IsNaN(serial) || serial < 1 || serial > maxExcelDays {
		return Date{}, false
	}
	days := int(math.Floor(serial))
	t := excelEpoch.AddDate(0, 0, days)
	if back := int(t.Sub(excelEpoch).Hours() / 24); back != days {
		return Date{}, false
	}
	return inRange(NewDate(t))
}

func expandYear(yy int) int {
	if yy < yearPivot {
		return 2000 + yy
	}
	return 1900 + yy
}

func validDate(year, month, day int) (Date, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return Date{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return Date{}, false
	}
	return inRange(NewDate(t))
}

func inRange(d Date) (Date, bool) {
	if d.Year < minYear || d.Year > maxYear {
		return Date{}, false
	}
	return d, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
