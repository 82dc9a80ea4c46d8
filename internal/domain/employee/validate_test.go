package employee

import (
	"testing"
	"time"
)

func TestValidPhoneNumber(t *testing.T) {
	valid := []string{"+201012345678", "+201112345678", "+201212345678", "+201512345678"}
	for _, number := range valid {
		if !ValidPhoneNumber(number) {
			t.Fatalf("expected %s to be valid", number)
		}
	}

	invalid := []string{
		"",
		"01012345678",
		"+20912345678",
		"+2010123456789",
		"+20101234567",
		"+30101234567",
		"+20 1012345678",
	}
	for _, number := range invalid {
		if ValidPhoneNumber(number) {
			t.Fatalf("expected %s to be invalid", number)
		}
	}
}

func TestApplyIdentityOverridesSuppliedValues(t *testing.T) {
	supplied := time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)
	emp := Employee{
		IdentityType:   IdentityNID,
		IdentityNumber: "29503151234577",
		DOB:            &supplied,
		Gender:         GenderFemale,
	}

	if err := ApplyIdentity(&emp); err != nil {
		t.Fatalf("apply error: %v", err)
	}

	if want := time.Date(1995, time.March, 15, 0, 0, 0, 0, time.UTC); emp.DOB == nil || !emp.DOB.Equal(want) {
		t.Fatalf("expected derived dob %v, got %v", want, emp.DOB)
	}
	if emp.Gender != GenderMale {
		t.Fatalf("expected derived gender male, got %s", emp.Gender)
	}
}

func TestApplyIdentityLeavesOtherTypesAlone(t *testing.T) {
	supplied := time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)
	emp := Employee{
		IdentityType:   IdentityPassport,
		IdentityNumber: "A12345678",
		DOB:            &supplied,
		Gender:         GenderFemale,
	}

	if err := ApplyIdentity(&emp); err != nil {
		t.Fatalf("apply error: %v", err)
	}
	if emp.DOB == nil || !emp.DOB.Equal(supplied) || emp.Gender != GenderFemale {
		t.Fatalf("expected passport record unchanged, got dob=%v gender=%s", emp.DOB, emp.Gender)
	}
}

func TestValidIdentityType(t *testing.T) {
	for _, value := range []string{"nid", "passport", "driving_license", "other"} {
		if !ValidIdentityType(value) {
			t.Fatalf("expected %s to be a valid identity type", value)
		}
	}
	for _, value := range []string{"", "NID", "national_id"} {
		if ValidIdentityType(value) {
			t.Fatalf("expected %s to be rejected", value)
		}
	}
}

func TestApplyIdentityRejectsBadNID(t *testing.T) {
	emp := Employee{IdentityType: IdentityNID, IdentityNumber: "not-a-nid"}
	if err := ApplyIdentity(&emp); err == nil {
		t.Fatal("expected error for malformed national ID")
	}
}
