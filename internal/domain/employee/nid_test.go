package employee

import (
	"errors"
	"testing"
	"time"
)

func TestParseNationalID(t *testing.T) {
	nid, err := ParseNationalID("29503151234577")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if want := time.Date(1995, time.March, 15, 0, 0, 0, 0, time.UTC); !nid.DOB.Equal(want) {
		t.Fatalf("expected dob %v, got %v", want, nid.DOB)
	}
	if nid.Gender != GenderMale {
		t.Fatalf("expected male, got %s", nid.Gender)
	}
}

func TestParseNationalIDFemale(t *testing.T) {
	nid, err := ParseNationalID("29503151234547")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if nid.Gender != GenderFemale {
		t.Fatalf("expected female, got %s", nid.Gender)
	}
}

func TestParseNationalIDCentury2000(t *testing.T) {
	nid, err := ParseNationalID("30001011234561")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if want := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC); !nid.DOB.Equal(want) {
		t.Fatalf("expected dob %v, got %v", want, nid.DOB)
	}
}

func TestParseNationalIDInvalidCentury(t *testing.T) {
	for _, value := range []string{"19503151234567", "49503151234567", "09503151234567"} {
		if _, err := ParseNationalID(value); !errors.Is(err, ErrNIDCentury) {
			t.Fatalf("%s: expected century error, got %v", value, err)
		}
	}
}

func TestParseNationalIDMalformed(t *testing.T) {
	for _, value := range []string{"", "295031512345", "295031512345678", "2950315123456x", "2950-151234567"} {
		if _, err := ParseNationalID(value); !errors.Is(err, ErrNIDLength) {
			t.Fatalf("%q: expected length error, got %v", value, err)
		}
	}
}

func TestParseNationalIDInvalidMonth(t *testing.T) {
	if _, err := ParseNationalID("29513151234567"); !errors.Is(err, ErrNIDMonth) {
		t.Fatalf("expected month error, got %v", err)
	}
	if _, err := ParseNationalID("29500151234567"); !errors.Is(err, ErrNIDMonth) {
		t.Fatalf("expected month error, got %v", err)
	}
}

func TestParseNationalIDInvalidDay(t *testing.T) {
	if _, err := ParseNationalID("29503321234567"); !errors.Is(err, ErrNIDDate) {
		t.Fatalf("expected date error, got %v", err)
	}
	if _, err := ParseNationalID("29503001234567"); !errors.Is(err, ErrNIDDate) {
		t.Fatalf("expected date error, got %v", err)
	}
}

func TestParseNationalIDLeapYear(t *testing.T) {
	// 1995 is not a leap year, Feb 29 must not clamp.
	if _, err := ParseNationalID("29502291234567"); !errors.Is(err, ErrNIDDate) {
		t.Fatalf("expected date error for non-leap Feb 29, got %v", err)
	}

	nid, err := ParseNationalID("29602291234567")
	if err != nil {
		t.Fatalf("leap year parse error: %v", err)
	}
	if want := time.Date(1996, time.February, 29, 0, 0, 0, 0, time.UTC); !nid.DOB.Equal(want) {
		t.Fatalf("expected dob %v, got %v", want, nid.DOB)
	}
}
