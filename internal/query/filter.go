// internal/query/filter.go
package query

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDate is returned for date parameters that do not match the
// accepted YYYY-MM-DD / YYYYMMDD shapes.
var ErrInvalidDate = errors.New("date must be of the form YYYY-MM-DD or YYYYMMDD")

// Four digits, two digits, two digits, each pair optionally preceded by a
// single non-word separator.
var dateShape = regexp.MustCompile(`^\d{4}\W?\d{2}\W?\d{2}$`)

// ParseDate validates the shape of a date string and parses it into a
// calendar date (midnight UTC, no time component).
func ParseDate(s string) (time.Time, error) {
	if len(s) < 6 || len(s) > 10 || !dateShape.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	t, err := time.Parse("20060102", digits)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// Filter holds the optional, independently combinable message constraints.
type Filter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	CustomerID int
	Type       string
}

// FromQuery parses the start_date, end_date, customerid and type parameters.
// Absent parameters leave their constraint inactive.
func FromQuery(values url.Values) (Filter, error) {
	var f Filter
	if raw := values.Get("start_date"); raw != "" {
		t, err := ParseDate(raw)
		if err != nil {
			return Filter{}, err
		}
		f.StartDate = &t
	}
	if raw := values.Get("end_date"); raw != "" {
		t, err := ParseDate(raw)
		if err != nil {
			return Filter{}, err
		}
		f.EndDate = &t
	}
	if raw := values.Get("customerid"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return Filter{}, fmt.Errorf("customerid must be an integer: %q", raw)
		}
		f.CustomerID = id
	}
	f.Type = values.Get("type")
	return f, nil
}

// Where renders the active constraints as a SQL predicate with positional
// placeholders. All constraints are ANDed; an empty filter yields an empty
// clause that matches every row. Both dates present means an inclusive
// BETWEEN; a single date becomes a one-sided bound.
//
// A CustomerID of zero is treated as absent, matching the behavior of the
// original service this replaced.
func (f Filter) Where() (string, []interface{}) {
	var clauses []string
	var args []interface{}

	switch {
	case f.StartDate != nil && f.EndDate != nil:
		clauses = append(clauses, fmt.Sprintf("date BETWEEN $%d AND $%d", len(args)+1, len(args)+2))
		args = append(args, *f.StartDate, *f.EndDate)
	case f.StartDate != nil:
		clauses = append(clauses, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *f.StartDate)
	case f.EndDate != nil:
		clauses = append(clauses, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *f.EndDate)
	}
	if f.CustomerID != 0 {
		clauses = append(clauses, fmt.Sprintf("customerid = $%d", len(args)+1))
		args = append(args, f.CustomerID)
	}
	if f.Type != "" {
		clauses = append(clauses, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, f.Type)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}
