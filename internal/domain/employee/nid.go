package employee

import (
	"errors"
	"time"
)

var (
	ErrNIDLength  = errors.New("must be exactly 14 digits")
	ErrNIDCentury = errors.New("invalid century digit")
	ErrNIDMonth   = errors.New("invalid birth month")
	ErrNIDDate    = errors.New("invalid birth date")
)

// NationalID holds the fields decoded from an Egyptian national ID.
type NationalID struct {
	DOB    time.Time
	Gender Gender
}

// ParseNationalID decodes a 14-digit Egyptian national ID.
//
// Layout (1-indexed): digit 1 is the century (2 = 1900s, 3 = 2000s), digits 2-7
// encode the birth date as YYMMDD, digits 8-9 are the governorate code and
// digits 10-13 the serial, both opaque here. The parity of digit 13 encodes
// gender (odd = male). Digit 14 is a check digit and is accepted without
// verification.
func ParseNationalID(value string) (NationalID, error) {
	if len(value) != 14 {
		return NationalID{}, ErrNIDLength
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return NationalID{}, ErrNIDLength
		}
	}

	var century int
	switch value[0] {
	case '2':
		century = 1900
	case '3':
		century = 2000
	default:
		return NationalID{}, ErrNIDCentury
	}

	year := century + digits2(value[1:3])
	month := digits2(value[3:5])
	day := digits2(value[5:7])

	if month < 1 || month > 12 {
		return NationalID{}, ErrNIDMonth
	}
	if day < 1 {
		return NationalID{}, ErrNIDDate
	}
	dob := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range days (Feb 30 becomes Mar 2), so an
	// exact round-trip is the validity check.
	if dob.Year() != year || int(dob.Month()) != month || dob.Day() != day {
		return NationalID{}, ErrNIDDate
	}

	gender := GenderFemale
	if (value[12]-'0')%2 == 1 {
		gender = GenderMale
	}

	return NationalID{DOB: dob, Gender: gender}, nil
}

// IsNIDError reports whether err is one of the national ID parse failures.
func IsNIDError(err error) bool {
	return errors.Is(err, ErrNIDLength) || errors.Is(err, ErrNIDCentury) ||
		errors.Is(err, ErrNIDMonth) || errors.Is(err, ErrNIDDate)
}

func digits2(s string) int {
	return int(s[0]-'0')*10 + int(s[1]-'0')
}
