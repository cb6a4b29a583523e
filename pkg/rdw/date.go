package rdw

import (
	"errors"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
)

const dateLayoutLength = 8

// ParseDate decodes a YYYYMMDD string into a calendar date.
func ParseDate(s string) (civil.Date, error) {
	if len(s) != dateLayoutLength {
		return civil.Date{}, &FormatError{Field: fieldExpiration, Value: s, Err: errors.New("expected 8 digits YYYYMMDD")}
	}

	year, err := parseDigits(s[0:4])
	if err != nil {
		return civil.Date{}, &FormatError{Field: fieldExpiration, Value: s, Err: err}
	}
	month, err := parseDigits(s[4:6])
	if err != nil {
		return civil.Date{}, &FormatError{Field: fieldExpiration, Value: s, Err: err}
	}
	day, err := parseDigits(s[6:8])
	if err != nil {
		return civil.Date{}, &FormatError{Field: fieldExpiration, Value: s, Err: err}
	}

	d := civil.Date{Year: year, Month: time.Month(month), Day: day}
	if !d.IsValid() {
		return civil.Date{}, &FormatError{Field: fieldExpiration, Value: s, Err: errors.New("not a calendar date")}
	}
	return d, nil
}

// parseDigits rejects signs and spaces that strconv.Atoi would accept.
func parseDigits(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, &strconv.NumError{Func: "Atoi", Num: s, Err: strconv.ErrSyntax}
		}
	}
	return strconv.Atoi(s)
}
